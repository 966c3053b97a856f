package render

import "errors"

// Sentinel kinds for render errors.
var (
	ErrUnknownFormat = errors.New("unknown report format")
	ErrNilResult     = errors.New("nil result")
	ErrRender        = errors.New("render report failed")
)
