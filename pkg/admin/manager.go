package admin

import (
	"log/slog"

	"meridian-hq/stratum/pkg/environment"
	"meridian-hq/stratum/pkg/resolver"
)

// Stats is a point-in-time snapshot of both resolution caches. Under
// concurrent traffic the counts are approximate: entries may be added or
// expire between the individual reads.
type Stats struct {
	// ConfigCacheSize is the number of value-cache entries, cached
	// absence included.
	ConfigCacheSize int `json:"configCacheSize"`

	// EnvironmentCacheSize is the number of cached environment identities.
	EnvironmentCacheSize int `json:"environmentCacheSize"`

	// TTLMinutes is the shared cache TTL expressed in whole minutes.
	TTLMinutes int `json:"ttlMinutes"`

	// ConfigCacheKeys lists the composite "key:ENV" cache keys currently
	// held by the value cache.
	ConfigCacheKeys []string `json:"configCacheKeys"`

	// EnvironmentCacheEntries maps cached environment codes to their
	// database identifiers.
	EnvironmentCacheEntries map[string]int64 `json:"environmentCacheEntries"`
}

// ClearResult reports how many entries an administrative operation removed
// from each cache.
type ClearResult struct {
	// ConfigEntries is the number of value-cache entries removed.
	ConfigEntries int `json:"configEntries"`

	// EnvironmentEntries is the number of environment identities removed.
	EnvironmentEntries int `json:"environmentEntries"`
}

// Total returns the combined number of removed entries.
func (r ClearResult) Total() int {
	return r.ConfigEntries + r.EnvironmentEntries
}

// Manager performs administrative operations against the resolution caches.
// All work goes through the resolvers' public methods; the Manager holds no
// cache state of its own and owns no timers. Periodic expiry sweeps are
// scheduled by pkg/maintenance calling ClearExpired.
type Manager struct {
	config *resolver.Resolver
	env    *environment.Resolver
	logger *slog.Logger
}

// NewManager creates a cache administration manager over the given resolvers.
func NewManager(config *resolver.Resolver, env *environment.Resolver) *Manager {
	return &Manager{
		config: config,
		env:    env,
		logger: slog.Default().With("component", "admin"),
	}
}

// ClearCaches empties both the value cache and the environment-identity
// cache and logs how many entries each held. Subsequent resolutions
// repopulate the caches lazily from the store.
func (m *Manager) ClearCaches() ClearResult {
	result := ClearResult{
		ConfigEntries:      m.config.ClearCache(),
		EnvironmentEntries: m.env.ClearCache(),
	}

	m.logger.Info("caches cleared",
		"config_entries", result.ConfigEntries,
		"environment_entries", result.EnvironmentEntries,
	)

	return result
}

// RefreshConfiguration forces the next resolution of every key to consult
// the store again. It is an alias for ClearCaches: there is no eager
// reload, entries repopulate on demand.
func (m *Manager) RefreshConfiguration() ClearResult {
	return m.ClearCaches()
}

// ClearExpired removes entries whose TTL has elapsed from both caches and
// returns the counts. It only bounds memory: expired entries are already
// invisible to lookups. Invoked on a schedule by pkg/maintenance.
func (m *Manager) ClearExpired() ClearResult {
	result := ClearResult{
		ConfigEntries:      m.config.RemoveExpired(),
		EnvironmentEntries: m.env.RemoveExpired(),
	}

	if result.Total() > 0 {
		m.logger.Debug("expired cache entries removed",
			"config_entries", result.ConfigEntries,
			"environment_entries", result.EnvironmentEntries,
		)
	}

	return result
}

// Stats returns a snapshot of both caches for the admin stats endpoint
// and the CLI.
func (m *Manager) Stats() Stats {
	return Stats{
		ConfigCacheSize:         m.config.CacheSize(),
		EnvironmentCacheSize:    m.env.CacheSize(),
		TTLMinutes:              int(m.config.TTL().Minutes()),
		ConfigCacheKeys:         m.config.CacheKeys(),
		EnvironmentCacheEntries: m.env.CacheEntries(),
	}
}
