package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"meridian-hq/stratum/pkg/server/types"
)

// KeySource defines where to extract API keys from.
type KeySource struct {
	Type   string // header, query
	Name   string // Header name or query param
	Scheme string // "Bearer", etc. (optional)
}

// DefaultKeySources returns the standard extraction order: the X-API-Key
// header, then Authorization with a Bearer scheme.
func DefaultKeySources() []KeySource {
	return []KeySource{
		{Type: "header", Name: "X-API-Key"},
		{Type: "header", Name: "Authorization", Scheme: "Bearer"},
	}
}

// Middleware is HTTP middleware for API key authentication.
type Middleware struct {
	validator *Validator
	sources   []KeySource
}

// NewMiddleware creates API key authentication middleware. Pass nil
// sources to use DefaultKeySources.
func NewMiddleware(validator *Validator, sources []KeySource) *Middleware {
	if sources == nil {
		sources = DefaultKeySources()
	}
	return &Middleware{
		validator: validator,
		sources:   sources,
	}
}

// Require wraps a handler with authentication plus a role requirement.
// Admin keys satisfy every requirement.
func (m *Middleware) Require(required Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			apiKey, err := m.extractKey(r)
			if err != nil {
				slog.Warn("missing API key",
					"error", err,
					"remote_addr", r.RemoteAddr,
					"path", r.URL.Path,
				)
				writeAuthError(w, http.StatusUnauthorized,
					types.NewAuthenticationError("Missing API key", types.CodeMissingAPIKey))
				return
			}

			info, err := m.validator.Validate(apiKey)
			if err != nil {
				slog.Warn("invalid API key",
					"error", err,
					"remote_addr", r.RemoteAddr,
					"path", r.URL.Path,
				)
				writeAuthError(w, http.StatusUnauthorized,
					types.NewAuthenticationError("Invalid API key", types.CodeInvalidAPIKey))
				return
			}

			if !info.Role.Allows(required) {
				slog.Warn("insufficient role",
					"key_name", info.Name,
					"role", info.Role,
					"required", required,
					"path", r.URL.Path,
				)
				writeAuthError(w, http.StatusForbidden,
					types.NewPermissionDeniedError(
						fmt.Sprintf("Role %q cannot perform this operation", info.Role)))
				return
			}

			slog.Debug("API key authenticated",
				"key_name", info.Name,
				"role", info.Role,
				"path", r.URL.Path,
			)

			ctx := context.WithValue(r.Context(), apiKeyInfoKey, info)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// extractKey extracts the API key from the request using configured sources.
func (m *Middleware) extractKey(r *http.Request) (string, error) {
	for _, source := range m.sources {
		switch source.Type {
		case "header":
			value := r.Header.Get(source.Name)
			if value == "" {
				continue
			}
			if source.Scheme != "" {
				prefix := source.Scheme + " "
				if strings.HasPrefix(value, prefix) {
					return strings.TrimPrefix(value, prefix), nil
				}
				continue
			}
			return value, nil

		case "query":
			value := r.URL.Query().Get(source.Name)
			if value != "" {
				return value, nil
			}
		}
	}

	return "", fmt.Errorf("no API key found")
}

// writeAuthError writes a JSON error response.
func writeAuthError(w http.ResponseWriter, status int, resp *types.ErrorResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(resp)
}

// Context key for API key info.
type contextKey string

// #nosec G101 - context key constant, not a credential
const apiKeyInfoKey contextKey = "api_key_info"

// GetAPIKey retrieves the authenticated key info from request context.
func GetAPIKey(ctx context.Context) (*APIKey, bool) {
	info, ok := ctx.Value(apiKeyInfoKey).(*APIKey)
	return info, ok
}
