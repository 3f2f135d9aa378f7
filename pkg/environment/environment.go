package environment

import (
	"context"
	"log/slog"
	"time"

	"meridian-hq/stratum/pkg/store"
)

// DefaultTTL is the identity cache time-to-live.
const DefaultTTL = 5 * time.Minute

// Config contains configuration for the environment resolver.
type Config struct {
	// TTL is how long a resolved code-to-id mapping stays cached.
	// Default: 5m
	TTL time.Duration

	// Detector supplies the active environment code. Default: a detector
	// with default settings (override, then STRATUM_ENV, then "PROD").
	Detector *Detector
}

// Resolver determines the active environment and maps environment codes to
// durable identifiers through the backing store, caching resolved mappings.
type Resolver struct {
	detector *Detector
	store    store.Store
	cache    *identityCache
	ttl      time.Duration
	logger   *slog.Logger
}

// NewResolver creates an environment resolver backed by st. Pass a nil
// config to use defaults.
func NewResolver(st store.Store, cfg *Config) *Resolver {
	if cfg == nil {
		cfg = &Config{}
	}

	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	detector := cfg.Detector
	if detector == nil {
		detector = NewDetector(nil)
	}

	return &Resolver{
		detector: detector,
		store:    st,
		cache:    newIdentityCache(ttl),
		ttl:      ttl,
		logger:   slog.Default().With("component", "environment.resolver"),
	}
}

// CurrentCode returns the active environment code. Never fails.
func (r *Resolver) CurrentCode() string {
	return r.detector.Code()
}

// ResolveID maps an environment code to its durable id. The comparison is
// case-insensitive. Returns a *NotFoundError when no environment row
// matches and a *store.StoreError when the store fails. Successful
// resolutions are cached for the TTL window.
func (r *Resolver) ResolveID(ctx context.Context, code string) (int64, error) {
	normalized := Normalize(code)
	if normalized == "" {
		return 0, NewNotFoundError(code)
	}

	if id, ok := r.cache.get(normalized); ok {
		return id, nil
	}

	env, err := r.store.FindEnvironmentByCode(ctx, normalized)
	if err != nil {
		return 0, err
	}
	if env == nil {
		return 0, NewNotFoundError(normalized)
	}

	r.cache.put(normalized, env.ID)
	r.logger.Debug("environment resolved",
		"code", normalized,
		"id", env.ID,
	)

	return env.ID, nil
}

// CurrentID resolves the active environment code to its durable id.
// An unresolvable code is a deployment misconfiguration and is returned as
// a *ResolutionError; callers must abort the operation rather than guess.
// Store failures propagate unchanged.
func (r *Resolver) CurrentID(ctx context.Context) (int64, error) {
	code := r.CurrentCode()

	id, err := r.ResolveID(ctx, code)
	if err != nil {
		if IsNotFound(err) {
			return 0, NewResolutionError(code, err)
		}
		return 0, err
	}
	return id, nil
}

// Exists reports whether a code resolves to a known environment. Store
// failures report false; this method never returns an error.
func (r *Resolver) Exists(ctx context.Context, code string) bool {
	_, err := r.ResolveID(ctx, code)
	return err == nil
}

// SetOverride pins the active environment code for this process.
func (r *Resolver) SetOverride(code string) {
	r.detector.SetOverride(code)
}

// ClearOverride removes the process-level environment override.
func (r *Resolver) ClearOverride() {
	r.detector.ClearOverride()
}

// Detector returns the underlying environment detector.
func (r *Resolver) Detector() *Detector {
	return r.detector
}

// TTL returns the identity cache time-to-live.
func (r *Resolver) TTL() time.Duration {
	return r.ttl
}

// CacheSize returns the number of cached code-to-id mappings.
func (r *Resolver) CacheSize() int {
	return r.cache.size()
}

// CacheEntries returns a copy of the cached code-to-id mappings.
func (r *Resolver) CacheEntries() map[string]int64 {
	return r.cache.snapshot()
}

// ClearCache empties the identity cache and returns the number of entries
// removed.
func (r *Resolver) ClearCache() int {
	return r.cache.clear()
}

// RemoveExpired sweeps expired identity cache entries and returns the
// number removed.
func (r *Resolver) RemoveExpired() int {
	return r.cache.removeExpired()
}
