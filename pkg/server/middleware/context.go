package middleware

// contextKey keeps middleware context values from colliding with other
// packages' keys.
type contextKey string

const (
	// RequestIDKey carries the request correlation ID.
	RequestIDKey contextKey = "request_id"

	// StartTimeKey carries the request arrival time.
	StartTimeKey contextKey = "start_time"
)
