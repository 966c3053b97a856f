package service

import "errors"

// Sentinel kinds for service errors.
var (
	ErrNoTestData = errors.New("no CMJ or IMTP file supplied")
	ErrLoad       = errors.New("load input files failed")
	ErrNotStarted = errors.New("service not started")
)
