package queue

import "errors"

// Sentinel kinds for queue errors.
var (
	ErrFull    = errors.New("report queue full")
	ErrStopped = errors.New("report queue stopped")
)
