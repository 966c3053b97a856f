package baseline

import "errors"

// Sentinel kinds for baseline errors. Both exclusion kinds are expected
// outcomes, not failures: callers drop the athlete/metric pair.
var (
	ErrInsufficientData = errors.New("insufficient data")
	ErrZeroVariance     = errors.New("zero variance")
	ErrInvalidParams    = errors.New("invalid baseline parameters")
)
