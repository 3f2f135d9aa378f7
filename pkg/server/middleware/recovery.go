package middleware

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"runtime/debug"

	"meridian-hq/stratum/pkg/server/types"
)

// RecoveryMiddleware turns handler panics into JSON 500 responses. The
// panic value and stack stay in the server log; the client only sees a
// generic message.
func RecoveryMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if v := recover(); v != nil {
				writePanicResponse(w, r, v)
			}
		}()

		next.ServeHTTP(w, r)
	})
}

func writePanicResponse(w http.ResponseWriter, r *http.Request, v any) {
	slog.ErrorContext(r.Context(), "panic in handler",
		"error", v,
		"request_id", GetRequestID(r.Context()),
		"method", r.Method,
		"path", r.URL.Path,
		"stack", string(debug.Stack()),
	)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusInternalServerError)
	_ = json.NewEncoder(w).Encode(types.NewServerError(
		"An internal error occurred. Please try again later.",
	))
}
