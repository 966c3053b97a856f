package prepare

import "errors"

// ErrInvalidMapping is returned for column aliases naming unknown metrics.
var ErrInvalidMapping = errors.New("invalid column mapping")
