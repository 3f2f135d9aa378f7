package config

import "time"

// Default values for configuration fields.
const (
	// Service defaults
	DefaultListenAddress   = ":8373"
	DefaultReadTimeout     = 15 * time.Second
	DefaultWriteTimeout    = 15 * time.Second
	DefaultShutdownTimeout = 10 * time.Second
	DefaultRequestTimeout  = 30 * time.Second

	// Environment defaults
	DefaultEnvironmentVariable = "STRATUM_ENV"
	DefaultEnvironmentFallback = "PROD"

	// Store defaults
	DefaultStoreBackend            = "sqlite"
	DefaultSQLitePath              = "stratum.db"
	DefaultSQLiteBusyTimeout       = 5 * time.Second
	DefaultPostgresMaxOpenConns    = 10
	DefaultPostgresMaxIdleConns    = 5
	DefaultPostgresConnMaxLifetime = 30 * time.Minute

	// Resolution defaults
	DefaultCacheTTL     = 5 * time.Minute
	DefaultEnvVarPrefix = "STRATUM_CONF_"

	// Audit defaults
	DefaultAuditEnabled      = true
	DefaultAuditSink         = "log"
	DefaultAuditSQLitePath   = "stratum-audit.db"
	DefaultAuditBufferSize   = 1000
	DefaultAuditWriteTimeout = 5 * time.Second
	DefaultAuditMaxAge       = 720 * time.Hour
	DefaultAuditSchedule     = "0 3 * * *"

	// Maintenance defaults
	DefaultSweepSchedule = "*/10 * * * *"

	// Telemetry defaults
	DefaultLoggingLevel     = "info"
	DefaultLoggingFormat    = "json"
	DefaultMetricsEnabled   = true
	DefaultMetricsNamespace = "stratum"
)

// DefaultLocalCodes are the environment codes treated as local by default.
func DefaultLocalCodes() []string {
	return []string{"LOCAL", "DEV"}
}

// DefaultConfig returns a fully populated configuration with every field
// at its documented default. LoadConfig unmarshals the YAML file over this
// base, so explicitly configured false and zero values survive loading.
func DefaultConfig() *Config {
	return &Config{
		Service: ServiceConfig{
			ListenAddress:   DefaultListenAddress,
			ReadTimeout:     DefaultReadTimeout,
			WriteTimeout:    DefaultWriteTimeout,
			ShutdownTimeout: DefaultShutdownTimeout,
			RequestTimeout:  DefaultRequestTimeout,
		},
		Environment: EnvironmentConfig{
			Variable:   DefaultEnvironmentVariable,
			Default:    DefaultEnvironmentFallback,
			LocalCodes: DefaultLocalCodes(),
		},
		Store: StoreConfig{
			Backend: DefaultStoreBackend,
			SQLite: StoreSQLiteConfig{
				Path:        DefaultSQLitePath,
				BusyTimeout: DefaultSQLiteBusyTimeout,
			},
			Postgres: StorePostgresConfig{
				MaxOpenConns:    DefaultPostgresMaxOpenConns,
				MaxIdleConns:    DefaultPostgresMaxIdleConns,
				ConnMaxLifetime: DefaultPostgresConnMaxLifetime,
			},
		},
		Resolution: ResolutionConfig{
			CacheTTL:     DefaultCacheTTL,
			EnvVarPrefix: DefaultEnvVarPrefix,
		},
		Audit: AuditConfig{
			Enabled:      DefaultAuditEnabled,
			Sink:         DefaultAuditSink,
			SQLitePath:   DefaultAuditSQLitePath,
			BufferSize:   DefaultAuditBufferSize,
			WriteTimeout: DefaultAuditWriteTimeout,
			Retention: RetentionConfig{
				MaxAge:   DefaultAuditMaxAge,
				Schedule: DefaultAuditSchedule,
			},
		},
		Maintenance: MaintenanceConfig{
			SweepSchedule: DefaultSweepSchedule,
		},
		Telemetry: TelemetryConfig{
			Logging: LoggingConfig{
				Level:  DefaultLoggingLevel,
				Format: DefaultLoggingFormat,
			},
			Metrics: MetricsConfig{
				Enabled:   DefaultMetricsEnabled,
				Namespace: DefaultMetricsNamespace,
			},
		},
	}
}

// ApplyDefaults fills empty string, zero numeric, and zero duration fields
// with their documented defaults. Boolean fields are left untouched: their
// defaults come from DefaultConfig, which LoadConfig uses as the unmarshal
// base. This function is idempotent.
func ApplyDefaults(cfg *Config) {
	if cfg.Service.ListenAddress == "" {
		cfg.Service.ListenAddress = DefaultListenAddress
	}
	if cfg.Service.ReadTimeout == 0 {
		cfg.Service.ReadTimeout = DefaultReadTimeout
	}
	if cfg.Service.WriteTimeout == 0 {
		cfg.Service.WriteTimeout = DefaultWriteTimeout
	}
	if cfg.Service.ShutdownTimeout == 0 {
		cfg.Service.ShutdownTimeout = DefaultShutdownTimeout
	}
	if cfg.Service.RequestTimeout == 0 {
		cfg.Service.RequestTimeout = DefaultRequestTimeout
	}

	if cfg.Environment.Variable == "" {
		cfg.Environment.Variable = DefaultEnvironmentVariable
	}
	if cfg.Environment.Default == "" {
		cfg.Environment.Default = DefaultEnvironmentFallback
	}
	if cfg.Environment.LocalCodes == nil {
		cfg.Environment.LocalCodes = DefaultLocalCodes()
	}

	if cfg.Store.Backend == "" {
		cfg.Store.Backend = DefaultStoreBackend
	}
	if cfg.Store.SQLite.Path == "" {
		cfg.Store.SQLite.Path = DefaultSQLitePath
	}
	if cfg.Store.SQLite.BusyTimeout == 0 {
		cfg.Store.SQLite.BusyTimeout = DefaultSQLiteBusyTimeout
	}
	if cfg.Store.Postgres.MaxOpenConns == 0 {
		cfg.Store.Postgres.MaxOpenConns = DefaultPostgresMaxOpenConns
	}
	if cfg.Store.Postgres.MaxIdleConns == 0 {
		cfg.Store.Postgres.MaxIdleConns = DefaultPostgresMaxIdleConns
	}
	if cfg.Store.Postgres.ConnMaxLifetime == 0 {
		cfg.Store.Postgres.ConnMaxLifetime = DefaultPostgresConnMaxLifetime
	}

	if cfg.Resolution.CacheTTL == 0 {
		cfg.Resolution.CacheTTL = DefaultCacheTTL
	}
	if cfg.Resolution.EnvVarPrefix == "" {
		cfg.Resolution.EnvVarPrefix = DefaultEnvVarPrefix
	}

	if cfg.Audit.Sink == "" {
		cfg.Audit.Sink = DefaultAuditSink
	}
	if cfg.Audit.SQLitePath == "" {
		cfg.Audit.SQLitePath = DefaultAuditSQLitePath
	}
	if cfg.Audit.BufferSize == 0 {
		cfg.Audit.BufferSize = DefaultAuditBufferSize
	}
	if cfg.Audit.WriteTimeout == 0 {
		cfg.Audit.WriteTimeout = DefaultAuditWriteTimeout
	}
	if cfg.Audit.Retention.MaxAge == 0 {
		cfg.Audit.Retention.MaxAge = DefaultAuditMaxAge
	}
	if cfg.Audit.Retention.Schedule == "" {
		cfg.Audit.Retention.Schedule = DefaultAuditSchedule
	}

	if cfg.Maintenance.SweepSchedule == "" {
		cfg.Maintenance.SweepSchedule = DefaultSweepSchedule
	}

	if cfg.Telemetry.Logging.Level == "" {
		cfg.Telemetry.Logging.Level = DefaultLoggingLevel
	}
	if cfg.Telemetry.Logging.Format == "" {
		cfg.Telemetry.Logging.Format = DefaultLoggingFormat
	}
	if cfg.Telemetry.Metrics.Namespace == "" {
		cfg.Telemetry.Metrics.Namespace = DefaultMetricsNamespace
	}
}
