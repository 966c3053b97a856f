package source

import "errors"

// Sentinel kinds for source read errors.
var (
	ErrUnsupportedFormat = errors.New("unsupported file format")
	ErrEmptyFile         = errors.New("file has no header row")
	ErrRead              = errors.New("read source failed")
)
