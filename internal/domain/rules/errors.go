package rules

import "errors"

// Errors returned when building or overriding a table.
var (
	ErrInvalidCategory = errors.New("invalid category")
	ErrUnknownCategory = errors.New("unknown category")
)
