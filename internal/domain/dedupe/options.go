package dedupe

type options struct {
	capacity int
}

// Option configures NewInMemoryDeduper.
type Option func(*options)

// WithCapacity pre-sizes the index for n sessions.
func WithCapacity(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.capacity = n
		}
	}
}
