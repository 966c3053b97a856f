package severity

import "errors"

// Errors returned by the severity package.
var (
	ErrInvalidThresholds = errors.New("invalid severity thresholds")
	ErrUnknownTier       = errors.New("unknown tier")
)
