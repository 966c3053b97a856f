package metric

import "errors"

// Sentinel kinds for metric errors.
var (
	ErrUnknownTestType = errors.New("unknown test type")
	ErrUnknownMetric   = errors.New("unknown metric")
)
