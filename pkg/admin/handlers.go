package admin

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"meridian-hq/stratum/pkg/audit"
	"meridian-hq/stratum/pkg/environment"
	"meridian-hq/stratum/pkg/resolver"
	"meridian-hq/stratum/pkg/security/classify"
	"meridian-hq/stratum/pkg/server/middleware"
	"meridian-hq/stratum/pkg/server/types"
	"meridian-hq/stratum/pkg/store"
)

// EnvironmentResponse reports the detected environment code and whether it
// maps to an identity in the store.
type EnvironmentResponse struct {
	Environment   string `json:"environment"`
	EnvironmentID *int64 `json:"environment_id,omitempty"`
	Resolvable    bool   `json:"resolvable"`
	Variable      string `json:"variable"`
}

// EnvironmentHandler serves GET /api/v1/environment. An unresolvable
// environment is reported, not treated as a request failure: the endpoint
// exists to diagnose exactly that misconfiguration.
type EnvironmentHandler struct {
	env *environment.Resolver
}

// NewEnvironmentHandler creates a handler over the environment resolver.
func NewEnvironmentHandler(env *environment.Resolver) *EnvironmentHandler {
	return &EnvironmentHandler{env: env}
}

// ServeHTTP implements http.Handler.
func (h *EnvironmentHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w, r, http.MethodGet)
		return
	}

	ctx := r.Context()
	code := h.env.CurrentCode()
	response := EnvironmentResponse{
		Environment: code,
		Variable:    h.env.Detector().Variable(),
	}

	id, err := h.env.ResolveID(ctx, code)
	switch {
	case err == nil:
		response.EnvironmentID = &id
		response.Resolvable = true
	case environment.IsNotFound(err):
		response.Resolvable = false
	default:
		slog.ErrorContext(ctx, "environment identity lookup failed",
			"request_id", middleware.GetRequestID(ctx),
			"environment", code,
			"error", err,
		)
		errResp := types.NewErrorResponse(
			"The configuration store is unavailable.",
			types.ErrorTypeServerError, "", types.CodeStoreUnavailable,
		)
		_ = WriteErrorResponse(w, errResp)
		return
	}

	_ = WriteJSONResponse(w, http.StatusOK, response)
}

// ResolveResponse is the payload of GET /api/v1/resolve. Value is masked
// according to the key's security category; raw CREDENTIAL and INTERNAL
// values never leave the service through this endpoint.
type ResolveResponse struct {
	Key         string `json:"key"`
	Environment string `json:"environment"`
	Source      string `json:"source"`
	Found       bool   `json:"found"`
	Value       string `json:"value"`
	Category    string `json:"category"`
	DurationMS  int64  `json:"duration_ms"`
}

// ResolveHandler serves GET /api/v1/resolve?key=K. Each request runs a
// full single-key resolution against the active environment, so attached
// observers record it like any programmatic lookup.
type ResolveHandler struct {
	resolver *resolver.Resolver
}

// NewResolveHandler creates a handler over the configuration resolver.
func NewResolveHandler(res *resolver.Resolver) *ResolveHandler {
	return &ResolveHandler{resolver: res}
}

// ServeHTTP implements http.Handler.
func (h *ResolveHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w, r, http.MethodGet)
		return
	}

	key := r.URL.Query().Get("key")
	if key == "" {
		errResp := types.NewInvalidRequestError(
			"Missing required query parameter: key",
			"key",
			types.CodeMissingParam,
		)
		_ = WriteErrorResponse(w, errResp)
		return
	}

	ctx := r.Context()
	res, err := h.resolver.Resolve(ctx, key)
	if err != nil {
		slog.ErrorContext(ctx, "resolution failed",
			"request_id", middleware.GetRequestID(ctx),
			"key", key,
			"error", err,
		)

		var storeErr *store.StoreError
		var errResp *types.ErrorResponse
		switch {
		case environment.IsNotFound(err):
			errResp = types.NewErrorResponse(
				"The active environment has no identity in the store.",
				types.ErrorTypeServerError, "", types.CodeEnvironmentUnresolvable,
			)
		case errors.As(err, &storeErr):
			errResp = types.NewErrorResponse(
				"The configuration store is unavailable.",
				types.ErrorTypeServerError, "", types.CodeStoreUnavailable,
			)
		default:
			errResp = types.NewServerError("An internal error occurred. Please try again later.")
		}
		_ = WriteErrorResponse(w, errResp)
		return
	}

	category, masked := classify.MaskFor(res.Key, res.Value)
	response := ResolveResponse{
		Key:         res.Key,
		Environment: res.Environment,
		Source:      string(res.Source),
		Found:       res.Found,
		Value:       masked,
		Category:    category.String(),
		DurationMS:  res.Duration.Milliseconds(),
	}

	_ = WriteJSONResponse(w, http.StatusOK, response)
}

// CacheStatsHandler serves GET /admin/cache/stats.
type CacheStatsHandler struct {
	manager *Manager
}

// NewCacheStatsHandler creates a handler over the administration manager.
func NewCacheStatsHandler(m *Manager) *CacheStatsHandler {
	return &CacheStatsHandler{manager: m}
}

// ServeHTTP implements http.Handler.
func (h *CacheStatsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w, r, http.MethodGet)
		return
	}

	_ = WriteJSONResponse(w, http.StatusOK, h.manager.Stats())
}

// CacheOperationResponse reports the outcome of a cache administration
// operation.
type CacheOperationResponse struct {
	Operation string `json:"operation"`
	ClearResult
}

// CacheOperationHandler serves the POST cache administration endpoints.
// The same handler backs clear, refresh and sweep; only the manager method
// invoked differs.
type CacheOperationHandler struct {
	manager   *Manager
	operation string
}

// NewCacheClearHandler creates the POST /admin/cache/clear handler.
func NewCacheClearHandler(m *Manager) *CacheOperationHandler {
	return &CacheOperationHandler{manager: m, operation: "clear"}
}

// NewCacheRefreshHandler creates the POST /admin/cache/refresh handler.
func NewCacheRefreshHandler(m *Manager) *CacheOperationHandler {
	return &CacheOperationHandler{manager: m, operation: "refresh"}
}

// NewCacheSweepHandler creates the POST /admin/cache/sweep handler.
func NewCacheSweepHandler(m *Manager) *CacheOperationHandler {
	return &CacheOperationHandler{manager: m, operation: "sweep"}
}

// ServeHTTP implements http.Handler.
func (h *CacheOperationHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeMethodNotAllowed(w, r, http.MethodPost)
		return
	}

	var result ClearResult
	switch h.operation {
	case "refresh":
		result = h.manager.RefreshConfiguration()
	case "sweep":
		result = h.manager.ClearExpired()
	default:
		result = h.manager.ClearCaches()
	}

	response := CacheOperationResponse{
		Operation:   h.operation,
		ClearResult: result,
	}

	_ = WriteJSONResponse(w, http.StatusOK, response)
}

// AuditEventsResponse is the payload of GET /admin/audit/events.
type AuditEventsResponse struct {
	Events []*audit.Event `json:"events"`
	Count  int            `json:"count"`
}

// AuditEventsHandler serves GET /admin/audit/events. Events carry the
// masked values captured at recording time, so the endpoint is safe to
// expose to readonly keys.
type AuditEventsHandler struct {
	storage audit.Storage
}

// NewAuditEventsHandler creates a handler over the audit storage backend.
func NewAuditEventsHandler(storage audit.Storage) *AuditEventsHandler {
	return &AuditEventsHandler{storage: storage}
}

// ServeHTTP implements http.Handler.
func (h *AuditEventsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w, r, http.MethodGet)
		return
	}

	query, errResp := parseAuditQuery(r)
	if errResp != nil {
		_ = WriteErrorResponse(w, errResp)
		return
	}

	ctx := r.Context()
	events, err := h.storage.Query(ctx, query)
	if err != nil {
		slog.ErrorContext(ctx, "audit query failed",
			"request_id", middleware.GetRequestID(ctx),
			"error", err,
		)
		_ = WriteErrorResponse(w, types.NewServerError("Failed to query audit events."))
		return
	}

	response := AuditEventsResponse{
		Events: events,
		Count:  len(events),
	}
	if response.Events == nil {
		response.Events = []*audit.Event{}
	}

	_ = WriteJSONResponse(w, http.StatusOK, response)
}

// parseAuditQuery builds an audit query from request query parameters.
// Returns a non-nil error response when a parameter cannot be parsed.
func parseAuditQuery(r *http.Request) (*audit.Query, *types.ErrorResponse) {
	params := r.URL.Query()
	query := &audit.Query{
		Key:         params.Get("key"),
		KeyPrefix:   params.Get("key_prefix"),
		Environment: params.Get("environment"),
		Source:      params.Get("source"),
		Category:    params.Get("category"),
		RequestID:   params.Get("request_id"),
		SortOrder:   params.Get("sort"),
	}

	if raw := params.Get("since"); raw != "" {
		ts, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return nil, types.NewInvalidRequestError(
				"Parameter since must be an RFC 3339 timestamp.",
				"since", types.CodeInvalidValue,
			)
		}
		query.StartTime = &ts
	}

	if raw := params.Get("until"); raw != "" {
		ts, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return nil, types.NewInvalidRequestError(
				"Parameter until must be an RFC 3339 timestamp.",
				"until", types.CodeInvalidValue,
			)
		}
		query.EndTime = &ts
	}

	if raw := params.Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil {
			return nil, types.NewInvalidRequestError(
				"Parameter limit must be an integer.",
				"limit", types.CodeInvalidValue,
			)
		}
		query.Limit = limit
	}

	if raw := params.Get("offset"); raw != "" {
		offset, err := strconv.Atoi(raw)
		if err != nil {
			return nil, types.NewInvalidRequestError(
				"Parameter offset must be an integer.",
				"offset", types.CodeInvalidValue,
			)
		}
		query.Offset = offset
	}

	if err := query.Validate(); err != nil {
		return nil, types.NewInvalidRequestError(err.Error(), "", types.CodeInvalidValue)
	}

	return query, nil
}
