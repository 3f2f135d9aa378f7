// Package middleware provides HTTP middleware for cross-cutting concerns.
//
// Every route of the configuration service runs behind the same chain:
// panic recovery, request ID propagation, structured request logging,
// optional metrics, CORS, and timeout enforcement.
//
// # Middleware Chain
//
// The server wraps its router innermost to outermost as
//
//	Recovery(RequestID(Logging(Metrics(CORS(Timeout(routes))))))
//
// so a request passes Recovery first and the timeout guard last.
// RequestID sits outside Logging on purpose: the completion log line
// reads the ID from the request context. Metrics is only present when
// telemetry is enabled in the service configuration.
//
// # Request ID
//
// RequestIDMiddleware assigns each request a UUID unless the client
// already sent one:
//
//	X-Request-ID: 550e8400-e29b-41d4-a716-446655440000
//
// The ID travels in the request context, is echoed in the response
// header, appears on the completion log line, and is stamped on any
// audit events the request records.
//
// # Logging
//
// LoggingMiddleware emits one log/slog line per request at completion,
// carrying method, path, status, response bytes, latency, request ID,
// and remote address. Server errors log at ERROR, client errors at
// WARN, everything else at INFO.
//
// # Recovery and Timeout
//
// RecoveryMiddleware turns handler panics into JSON 500 responses; the
// stack trace goes to the log, never to the client. TimeoutMiddleware
// cancels the handler's context after the configured deadline and
// answers 504 if the handler has not written yet. Late handler writes
// after a timeout are suppressed rather than corrupting the response.
package middleware
