package resolver

import (
	"context"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"meridian-hq/stratum/pkg/environment"
	"meridian-hq/stratum/pkg/store"
)

// DefaultTTL is the value cache time-to-live.
const DefaultTTL = 5 * time.Minute

// DefaultEnvVarPrefix is prepended to derived process-environment variable
// names in the local fallback tier.
const DefaultEnvVarPrefix = "STRATUM_CONF_"

// DefaultLocalEnvironments are the environment codes whose resolutions may
// fall through to process environment variables.
var DefaultLocalEnvironments = []string{"LOCAL", "DEV"}

// Source identifies the tier a value was resolved from.
type Source string

const (
	// SourceCache is a value cache hit, present or confirmed absent.
	SourceCache Source = "cache"

	// SourceEnvironment is an environment-specific store entry.
	SourceEnvironment Source = "environment"

	// SourceGlobal is a global store entry with no environment association.
	SourceGlobal Source = "global"

	// SourceProcessEnv is a process environment variable, consulted only in
	// designated local environments.
	SourceProcessEnv Source = "process-env"

	// SourceDefault means no tier produced a value; the caller's default
	// applies.
	SourceDefault Source = "default"
)

// Resolution describes the outcome of resolving one key.
type Resolution struct {
	Key         string        // Configuration key
	Environment string        // Active environment code
	Source      Source        // Tier that produced the outcome
	Value       string        // Raw value; empty when not Found
	Found       bool          // Whether any tier produced a value
	Duration    time.Duration // Wall time spent resolving
}

// Observer receives the outcome of each single-key resolution.
// Implementations must not block; hand heavy work to a goroutine.
type Observer interface {
	ObserveResolution(ctx context.Context, res Resolution)
}

// Config contains configuration for the resolver.
type Config struct {
	// TTL is how long resolved values, and confirmed absence, stay cached.
	// Default: 5m
	TTL time.Duration

	// EnvVarPrefix is prepended to derived variable names in the
	// process-environment tier. Default: "STRATUM_CONF_"
	EnvVarPrefix string

	// LocalEnvironments are the environment codes allowed to fall through
	// to process environment variables. Default: LOCAL, DEV
	LocalEnvironments []string

	// Lookup resolves a process environment variable. Tests substitute a
	// fixed map here. Default: os.LookupEnv
	Lookup func(name string) (string, bool)

	// Observers are notified after each single-key resolution.
	Observers []Observer
}

// Resolver resolves configuration keys through the tiered fallback chain
// and caches the results.
type Resolver struct {
	store     store.Store
	env       *environment.Resolver
	cache     *Cache
	ttl       time.Duration
	prefix    string
	local     map[string]bool
	lookup    func(name string) (string, bool)
	observers []Observer
	logger    *slog.Logger
}

// New creates a resolver reading from st, with the active environment
// supplied by env. Pass a nil config to use defaults.
func New(st store.Store, env *environment.Resolver, cfg *Config) *Resolver {
	if cfg == nil {
		cfg = &Config{}
	}

	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	prefix := cfg.EnvVarPrefix
	if prefix == "" {
		prefix = DefaultEnvVarPrefix
	}
	localCodes := cfg.LocalEnvironments
	if localCodes == nil {
		localCodes = DefaultLocalEnvironments
	}
	local := make(map[string]bool, len(localCodes))
	for _, code := range localCodes {
		local[environment.Normalize(code)] = true
	}
	lookup := cfg.Lookup
	if lookup == nil {
		lookup = os.LookupEnv
	}

	return &Resolver{
		store:     st,
		env:       env,
		cache:     NewCache(ttl),
		ttl:       ttl,
		prefix:    prefix,
		local:     local,
		lookup:    lookup,
		observers: cfg.Observers,
		logger:    slog.Default().With("component", "resolver"),
	}
}

// Resolve resolves a key through the fallback chain without type coercion
// and reports which tier answered. Observers are notified on success.
//
// The error is non-nil only for an unresolvable active environment or a
// store failure; a key found nowhere returns Found=false and a nil error.
func (r *Resolver) Resolve(ctx context.Context, key string) (Resolution, error) {
	start := time.Now()

	res, err := r.resolveRaw(ctx, key)
	if err != nil {
		return Resolution{}, err
	}
	res.Duration = time.Since(start)

	for _, observer := range r.observers {
		observer.ObserveResolution(ctx, res)
	}
	return res, nil
}

// resolveRaw walks the tiers. Store queries run outside the cache lock.
func (r *Resolver) resolveRaw(ctx context.Context, key string) (Resolution, error) {
	envCode := r.env.CurrentCode()
	res := Resolution{Key: key, Environment: envCode}

	cacheKey := key + ":" + envCode
	if lookup, ok := r.cache.Get(cacheKey); ok {
		res.Source = SourceCache
		res.Value = lookup.Value
		res.Found = !lookup.Absent
		return res, nil
	}

	envID, err := r.env.CurrentID(ctx)
	if err != nil {
		return Resolution{}, err
	}

	entry, err := r.store.FindActive(ctx, key, &envID)
	if err != nil {
		return Resolution{}, err
	}
	if entry != nil {
		r.cache.Put(cacheKey, entry.Value)
		res.Source = SourceEnvironment
		res.Value = entry.Value
		res.Found = true
		return res, nil
	}

	entry, err = r.store.FindActive(ctx, key, nil)
	if err != nil {
		return Resolution{}, err
	}
	if entry != nil {
		r.cache.Put(cacheKey, entry.Value)
		res.Source = SourceGlobal
		res.Value = entry.Value
		res.Found = true
		return res, nil
	}

	if r.local[envCode] {
		if value, ok := r.lookup(r.EnvVarName(key)); ok {
			// Operator-set and ephemeral: returned without caching so the
			// next call re-reads it.
			res.Source = SourceProcessEnv
			res.Value = value
			res.Found = true
			return res, nil
		}
	}

	r.cache.PutAbsent(cacheKey)
	res.Source = SourceDefault
	return res, nil
}

// GetString resolves a key to a string, or fallback when the key is not
// configured at any tier.
func (r *Resolver) GetString(ctx context.Context, key, fallback string) (string, error) {
	res, err := r.Resolve(ctx, key)
	if err != nil {
		return "", err
	}
	if !res.Found {
		return fallback, nil
	}
	return res.Value, nil
}

// GetInt resolves a key to an integer. The stored value is parsed as
// strict base-10; a value that does not parse is logged and treated as
// absent, so the fallback applies.
func (r *Resolver) GetInt(ctx context.Context, key string, fallback int) (int, error) {
	res, err := r.Resolve(ctx, key)
	if err != nil {
		return 0, err
	}
	if !res.Found {
		return fallback, nil
	}

	value, parseErr := strconv.Atoi(strings.TrimSpace(res.Value))
	if parseErr != nil {
		r.logger.Warn("configured value is not a valid integer, using fallback",
			"key", key,
			"environment", res.Environment,
			"fallback", fallback,
		)
		return fallback, nil
	}
	return value, nil
}

// GetBool resolves a key to a boolean. Accepted tokens are "true" and
// "false" in any casing, plus the exact digits "1" and "0". Any other
// stored value is logged and treated as absent, so the fallback applies.
func (r *Resolver) GetBool(ctx context.Context, key string, fallback bool) (bool, error) {
	res, err := r.Resolve(ctx, key)
	if err != nil {
		return false, err
	}
	if !res.Found {
		return fallback, nil
	}

	switch strings.ToLower(strings.TrimSpace(res.Value)) {
	case "true", "1":
		return true, nil
	case "false", "0":
		return false, nil
	default:
		r.logger.Warn("configured value is not a valid boolean, using fallback",
			"key", key,
			"environment", res.Environment,
			"fallback", fallback,
		)
		return fallback, nil
	}
}

// CurrentEnvironment returns the active environment code. Never fails.
func (r *Resolver) CurrentEnvironment() string {
	return r.env.CurrentCode()
}

// CurrentEnvironmentID resolves the active environment to its durable id.
// See environment.Resolver.CurrentID for the failure contract.
func (r *Resolver) CurrentEnvironmentID(ctx context.Context) (int64, error) {
	return r.env.CurrentID(ctx)
}

// EnvVarName derives the process environment variable consulted for a key
// in the local fallback tier: the key upper-cased, dots and dashes turned
// into underscores, behind the configured prefix.
func (r *Resolver) EnvVarName(key string) string {
	mapped := strings.Map(func(c rune) rune {
		if c == '.' || c == '-' {
			return '_'
		}
		return c
	}, key)
	return r.prefix + strings.ToUpper(mapped)
}

// TTL returns the value cache time-to-live.
func (r *Resolver) TTL() time.Duration {
	return r.ttl
}

// CacheSize returns the number of value cache entries.
func (r *Resolver) CacheSize() int {
	return r.cache.Size()
}

// CacheKeys returns all value cache keys in sorted order.
func (r *Resolver) CacheKeys() []string {
	return r.cache.Keys()
}

// ClearCache empties the value cache and returns the number of entries
// removed.
func (r *Resolver) ClearCache() int {
	return r.cache.Clear()
}

// RemoveExpired sweeps expired value cache entries and returns the number
// removed.
func (r *Resolver) RemoveExpired() int {
	return r.cache.RemoveExpired()
}
