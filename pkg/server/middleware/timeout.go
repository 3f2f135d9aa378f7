package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"meridian-hq/stratum/pkg/server/types"
)

// timeoutWriter drops handler writes that arrive after the timeout
// response has been sent, so a late handler cannot corrupt the 504.
type timeoutWriter struct {
	http.ResponseWriter
	mu       sync.Mutex
	timedOut bool
	wrote    bool
}

func (tw *timeoutWriter) WriteHeader(code int) {
	tw.mu.Lock()
	defer tw.mu.Unlock()
	if tw.timedOut {
		return
	}
	tw.wrote = true
	tw.ResponseWriter.WriteHeader(code)
}

func (tw *timeoutWriter) Write(b []byte) (int, error) {
	tw.mu.Lock()
	defer tw.mu.Unlock()
	if tw.timedOut {
		return len(b), nil
	}
	tw.wrote = true
	return tw.ResponseWriter.Write(b)
}

// claimTimeout claims the writer for the timeout response. It reports
// false when the handler already wrote, in which case the response is
// left alone.
func (tw *timeoutWriter) claimTimeout() bool {
	tw.mu.Lock()
	defer tw.mu.Unlock()
	if tw.wrote {
		return false
	}
	tw.timedOut = true
	return true
}

// TimeoutMiddleware cancels the request context after the given
// duration and answers 504 if the handler has not produced a response
// by then. Handlers observe the deadline through their context.
func TimeoutMiddleware(timeout time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, cancel := context.WithTimeout(r.Context(), timeout)
			defer cancel()

			tw := &timeoutWriter{ResponseWriter: w}

			done := make(chan struct{})
			go func() {
				defer close(done)
				next.ServeHTTP(tw, r.WithContext(ctx))
			}()

			select {
			case <-done:
			case <-ctx.Done():
				if ctx.Err() != context.DeadlineExceeded {
					return
				}
				if !tw.claimTimeout() {
					return
				}

				h := tw.ResponseWriter
				h.Header().Set("Content-Type", "application/json")
				h.WriteHeader(http.StatusGatewayTimeout)
				_ = json.NewEncoder(h).Encode(types.NewGatewayTimeoutError(
					"Request timeout: the request took too long to complete",
				))
			}
		})
	}
}
