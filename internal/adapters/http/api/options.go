package api

// Defaults for the reports handler.
const (
	DefaultMaxUploadBytes = 32 << 20
	DefaultListLimit      = 20
	DefaultMaxListLimit   = 100
	multipartMemory       = 8 << 20
	retryAfterSeconds     = "5"
)

// Option configures the reports handler.
type Option func(*ReportsHandler)

// WithMaxUploadBytes caps the multipart request body.
func WithMaxUploadBytes(n int64) Option {
	return func(h *ReportsHandler) {
		if n > 0 {
			h.maxUploadBytes = n
		}
	}
}

// WithMaxListLimit caps the limit accepted by GET /reports.
func WithMaxListLimit(n int) Option {
	return func(h *ReportsHandler) {
		if n > 0 {
			h.maxLimit = n
		}
	}
}
