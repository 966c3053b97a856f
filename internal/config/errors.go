package config

import "errors"

var (
	// ErrInvalidConfig marks values that fail validation or decoding.
	ErrInvalidConfig = errors.New("config: invalid")
	// ErrLoadConfig marks a YAML file or environment that cannot be read.
	ErrLoadConfig = errors.New("config: load failed")
)
