package demodata

import "errors"

// Sentinel kinds for demo data errors.
var (
	ErrInvalidConfig = errors.New("invalid demo data config")
	ErrWrite         = errors.New("write demo data failed")
)
