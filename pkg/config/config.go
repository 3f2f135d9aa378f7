package config

import "time"

// Config is the root bootstrap configuration for the stratum service.
type Config struct {
	// Service contains HTTP server configuration including listen address,
	// timeouts, CORS, and admin API keys.
	Service ServiceConfig `yaml:"service"`

	// Environment contains environment detection settings: the OS variable
	// consulted, the fail-safe default, and the local environment codes.
	Environment EnvironmentConfig `yaml:"environment"`

	// Store contains configuration store backend selection and
	// per-backend settings.
	Store StoreConfig `yaml:"store"`

	// Resolution contains resolver settings: cache TTL and the process
	// environment variable prefix.
	Resolution ResolutionConfig `yaml:"resolution"`

	// Audit contains audit trail settings: sink selection, recorder
	// buffering, and retention.
	Audit AuditConfig `yaml:"audit"`

	// Maintenance contains the schedules for background jobs.
	Maintenance MaintenanceConfig `yaml:"maintenance"`

	// Telemetry contains logging and metrics configuration.
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// ServiceConfig contains configuration for the HTTP server.
type ServiceConfig struct {
	// ListenAddress is the address and port to listen on.
	// Format: "host:port" (e.g., ":8373", "127.0.0.1:8373").
	// Default: ":8373"
	ListenAddress string `yaml:"listen_address"`

	// ReadTimeout is the maximum duration for reading the entire request.
	// Default: 15s
	ReadTimeout time.Duration `yaml:"read_timeout"`

	// WriteTimeout is the maximum duration before timing out response
	// writes.
	// Default: 15s
	WriteTimeout time.Duration `yaml:"write_timeout"`

	// ShutdownTimeout is the maximum duration to wait for in-flight
	// requests during graceful shutdown.
	// Default: 10s
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`

	// RequestTimeout bounds the handling of a single request; requests
	// exceeding it receive a 504.
	// Default: 30s
	RequestTimeout time.Duration `yaml:"request_timeout"`

	// CORS contains Cross-Origin Resource Sharing configuration.
	CORS CORSConfig `yaml:"cors"`

	// AdminKeys are the static API keys accepted on /admin routes.
	AdminKeys []AdminKeyConfig `yaml:"admin_keys"`
}

// CORSConfig contains CORS configuration for the HTTP server.
type CORSConfig struct {
	// Enabled controls whether CORS headers are emitted.
	// Default: false
	Enabled bool `yaml:"enabled"`

	// AllowedOrigins is the list of origins allowed to make CORS
	// requests. Use ["*"] to allow all origins.
	// Default: [] (same-origin only)
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// AdminKeyConfig describes one static admin API key.
type AdminKeyConfig struct {
	// Key is the API key value. Keys generated by "stratum keys generate"
	// carry the "stk_" prefix.
	Key string `yaml:"key"`

	// Name is a human-readable label used in logs.
	Name string `yaml:"name"`

	// Role is the key's role: "admin" or "readonly".
	Role string `yaml:"role"`

	// Enabled controls whether the key is accepted. Omitted means
	// enabled; set to false to retire a key without deleting the entry.
	Enabled *bool `yaml:"enabled"`
}

// IsEnabled reports whether the key should be accepted. Keys with no
// explicit enabled field are enabled.
func (k AdminKeyConfig) IsEnabled() bool {
	return k.Enabled == nil || *k.Enabled
}

// EnvironmentConfig contains environment detection settings.
type EnvironmentConfig struct {
	// Variable is the OS environment variable holding the environment
	// code.
	// Default: "STRATUM_ENV"
	Variable string `yaml:"variable"`

	// Default is the fail-safe environment code used when nothing else is
	// set. The fail-safe is the most restrictive environment, not the
	// most convenient.
	// Default: "PROD"
	Default string `yaml:"default"`

	// Override pins the environment code for this process, taking
	// precedence over the OS variable. Intended for tests and one-shot
	// CLI invocations.
	// Default: "" (no override)
	Override string `yaml:"override"`

	// LocalCodes are the environment codes whose resolutions may fall
	// through to process environment variables.
	// Default: ["LOCAL", "DEV"]
	LocalCodes []string `yaml:"local_codes"`
}

// StoreConfig contains configuration store backend settings.
type StoreConfig struct {
	// Backend selects the store implementation.
	// Options: "sqlite", "postgres", "memory"
	// Default: "sqlite"
	Backend string `yaml:"backend"`

	// SQLite contains settings for the sqlite backend.
	SQLite StoreSQLiteConfig `yaml:"sqlite"`

	// Postgres contains settings for the postgres backend.
	Postgres StorePostgresConfig `yaml:"postgres"`

	// Seed configures optional seeding of the store from a YAML document.
	Seed SeedConfig `yaml:"seed"`
}

// StoreSQLiteConfig contains settings for the SQLite store backend.
type StoreSQLiteConfig struct {
	// Path is the database file path.
	// Default: "stratum.db"
	Path string `yaml:"path"`

	// BusyTimeout is how long a connection waits on a locked database.
	// Default: 5s
	BusyTimeout time.Duration `yaml:"busy_timeout"`
}

// StorePostgresConfig contains settings for the Postgres store backend.
type StorePostgresConfig struct {
	// DSN is the connection string.
	// Example: "postgres://stratum:secret@db:5432/stratum?sslmode=require"
	// Required when Backend is "postgres".
	DSN string `yaml:"dsn"`

	// MaxOpenConns limits open connections to the database.
	// Default: 10
	MaxOpenConns int `yaml:"max_open_conns"`

	// MaxIdleConns limits idle connections in the pool.
	// Default: 5
	MaxIdleConns int `yaml:"max_idle_conns"`

	// ConnMaxLifetime bounds how long a connection may be reused.
	// Default: 30m
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"`
}

// SeedConfig configures store seeding from a YAML document.
type SeedConfig struct {
	// Path is the seed file path. Empty disables seeding.
	// Default: "" (disabled)
	Path string `yaml:"path"`

	// Watch reloads the seed file into the store when it changes.
	// Only honored when Path is set.
	// Default: false
	Watch bool `yaml:"watch"`
}

// ResolutionConfig contains resolver settings.
type ResolutionConfig struct {
	// CacheTTL is how long resolved values, and confirmed absence, stay
	// cached. The environment identity cache shares this TTL.
	// Default: 5m
	CacheTTL time.Duration `yaml:"cache_ttl"`

	// EnvVarPrefix is prepended to derived variable names in the
	// process-environment fallback tier.
	// Default: "STRATUM_CONF_"
	EnvVarPrefix string `yaml:"env_var_prefix"`
}

// AuditConfig contains audit trail settings.
type AuditConfig struct {
	// Enabled controls whether resolutions are audited at all.
	// Default: true
	Enabled bool `yaml:"enabled"`

	// Sink selects where audit events go.
	// Options: "log" (structured log lines), "sqlite" (queryable store)
	// Default: "log"
	Sink string `yaml:"sink"`

	// SQLitePath is the audit database file path when Sink is "sqlite".
	// Default: "stratum-audit.db"
	SQLitePath string `yaml:"sqlite_path"`

	// BufferSize is the async recorder's channel capacity. Events beyond
	// it are dropped rather than blocking resolution.
	// Default: 1000
	BufferSize int `yaml:"buffer_size"`

	// WriteTimeout bounds a single sink write.
	// Default: 5s
	WriteTimeout time.Duration `yaml:"write_timeout"`

	// Retention configures pruning of old audit events.
	Retention RetentionConfig `yaml:"retention"`
}

// RetentionConfig configures audit event retention.
type RetentionConfig struct {
	// MaxAge is how long audit events are kept. Events older than this
	// are pruned on Schedule.
	// Default: 720h (30 days)
	MaxAge time.Duration `yaml:"max_age"`

	// Schedule is the cron expression for the pruning job.
	// Default: "0 3 * * *" (daily at 03:00)
	Schedule string `yaml:"schedule"`
}

// MaintenanceConfig contains background job schedules.
type MaintenanceConfig struct {
	// SweepSchedule is the cron expression for the cache expiry sweep.
	// Default: "*/10 * * * *" (every 10 minutes)
	SweepSchedule string `yaml:"sweep_schedule"`
}

// TelemetryConfig contains observability settings.
type TelemetryConfig struct {
	// Logging contains logging configuration.
	Logging LoggingConfig `yaml:"logging"`

	// Metrics contains Prometheus metrics configuration.
	Metrics MetricsConfig `yaml:"metrics"`
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	// Level is the minimum log level to emit.
	// Options: "debug", "info", "warn", "error"
	// Default: "info"
	Level string `yaml:"level"`

	// Format controls the log output format.
	// Options: "json", "text"
	// Default: "json"
	Format string `yaml:"format"`

	// AddSource includes file and line number in log entries.
	// Default: false
	AddSource bool `yaml:"add_source"`
}

// MetricsConfig contains Prometheus metrics configuration.
type MetricsConfig struct {
	// Enabled controls whether metrics are collected and the /metrics
	// endpoint is served.
	// Default: true
	Enabled bool `yaml:"enabled"`

	// Namespace is the metric name prefix.
	// Default: "stratum"
	Namespace string `yaml:"namespace"`
}
