package repository

import "time"

// DefaultCapacity bounds the archive when no capacity is given.
const DefaultCapacity = 50

// Option applies a configuration option to the Archive.
type Option func(*Archive)

// WithCapacity sets how many reports are kept. The oldest report is
// evicted once the archive is full.
func WithCapacity(n int) Option {
	return func(a *Archive) {
		if n > 0 {
			a.capacity = n
		}
	}
}

// WithClock replaces time.Now for report timestamps.
func WithClock(now func() time.Time) Option {
	return func(a *Archive) {
		if now != nil {
			a.now = now
		}
	}
}

// WithIDGenerator replaces the uuid generator for report ids.
func WithIDGenerator(gen func() string) Option {
	return func(a *Archive) {
		if gen != nil {
			a.newID = gen
		}
	}
}
