package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// LoadConfig loads configuration from a YAML file. The file is unmarshaled
// over DefaultConfig, remaining empty fields are defaulted, and the result
// is validated. Environment variables are not consulted; use
// LoadConfigWithEnvOverrides for that.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read configuration file %q: %w", path, err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse configuration file %q: %w", path, err)
	}

	ApplyDefaults(cfg)

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// LoadConfigWithEnvOverrides loads configuration from a YAML file and then
// applies environment variable overrides named STRATUM_<SECTION>_<FIELD>
// (for example STRATUM_SERVICE_LISTEN_ADDRESS). Environment variables take
// precedence over file values. The result is re-validated after overrides.
func LoadConfigWithEnvOverrides(path string) (*Config, error) {
	cfg, err := LoadConfig(path)
	if err != nil {
		return nil, err
	}

	applyEnvOverrides(cfg)

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed after environment overrides: %w", err)
	}

	return cfg, nil
}

// applyEnvOverrides applies STRATUM_<SECTION>_<FIELD> environment variable
// overrides. Unparseable values are ignored; the file value stands.
func applyEnvOverrides(cfg *Config) {
	// Service overrides
	if val := os.Getenv("STRATUM_SERVICE_LISTEN_ADDRESS"); val != "" {
		cfg.Service.ListenAddress = val
	}
	if val := os.Getenv("STRATUM_SERVICE_READ_TIMEOUT"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			cfg.Service.ReadTimeout = d
		}
	}
	if val := os.Getenv("STRATUM_SERVICE_WRITE_TIMEOUT"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			cfg.Service.WriteTimeout = d
		}
	}
	if val := os.Getenv("STRATUM_SERVICE_SHUTDOWN_TIMEOUT"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			cfg.Service.ShutdownTimeout = d
		}
	}
	if val := os.Getenv("STRATUM_SERVICE_REQUEST_TIMEOUT"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			cfg.Service.RequestTimeout = d
		}
	}

	// Environment overrides. STRATUM_ENV itself is read by the detector at
	// resolution time, not here; these override how detection behaves.
	if val := os.Getenv("STRATUM_ENVIRONMENT_VARIABLE"); val != "" {
		cfg.Environment.Variable = val
	}
	if val := os.Getenv("STRATUM_ENVIRONMENT_DEFAULT"); val != "" {
		cfg.Environment.Default = val
	}
	if val := os.Getenv("STRATUM_ENVIRONMENT_OVERRIDE"); val != "" {
		cfg.Environment.Override = val
	}
	if val := os.Getenv("STRATUM_ENVIRONMENT_LOCAL_CODES"); val != "" {
		cfg.Environment.LocalCodes = splitCodes(val)
	}

	// Store overrides
	if val := os.Getenv("STRATUM_STORE_BACKEND"); val != "" {
		cfg.Store.Backend = val
	}
	if val := os.Getenv("STRATUM_STORE_SQLITE_PATH"); val != "" {
		cfg.Store.SQLite.Path = val
	}
	if val := os.Getenv("STRATUM_STORE_SQLITE_BUSY_TIMEOUT"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			cfg.Store.SQLite.BusyTimeout = d
		}
	}
	if val := os.Getenv("STRATUM_STORE_POSTGRES_DSN"); val != "" {
		cfg.Store.Postgres.DSN = val
	}
	if val := os.Getenv("STRATUM_STORE_POSTGRES_MAX_OPEN_CONNS"); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			cfg.Store.Postgres.MaxOpenConns = i
		}
	}
	if val := os.Getenv("STRATUM_STORE_POSTGRES_MAX_IDLE_CONNS"); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			cfg.Store.Postgres.MaxIdleConns = i
		}
	}
	if val := os.Getenv("STRATUM_STORE_POSTGRES_CONN_MAX_LIFETIME"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			cfg.Store.Postgres.ConnMaxLifetime = d
		}
	}
	if val := os.Getenv("STRATUM_STORE_SEED_PATH"); val != "" {
		cfg.Store.Seed.Path = val
	}
	if val := os.Getenv("STRATUM_STORE_SEED_WATCH"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.Store.Seed.Watch = b
		}
	}

	// Resolution overrides
	if val := os.Getenv("STRATUM_RESOLUTION_CACHE_TTL"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			cfg.Resolution.CacheTTL = d
		}
	}
	if val := os.Getenv("STRATUM_RESOLUTION_ENV_VAR_PREFIX"); val != "" {
		cfg.Resolution.EnvVarPrefix = val
	}

	// Audit overrides
	if val := os.Getenv("STRATUM_AUDIT_ENABLED"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.Audit.Enabled = b
		}
	}
	if val := os.Getenv("STRATUM_AUDIT_SINK"); val != "" {
		cfg.Audit.Sink = val
	}
	if val := os.Getenv("STRATUM_AUDIT_SQLITE_PATH"); val != "" {
		cfg.Audit.SQLitePath = val
	}
	if val := os.Getenv("STRATUM_AUDIT_BUFFER_SIZE"); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			cfg.Audit.BufferSize = i
		}
	}
	if val := os.Getenv("STRATUM_AUDIT_WRITE_TIMEOUT"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			cfg.Audit.WriteTimeout = d
		}
	}
	if val := os.Getenv("STRATUM_AUDIT_RETENTION_MAX_AGE"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			cfg.Audit.Retention.MaxAge = d
		}
	}
	if val := os.Getenv("STRATUM_AUDIT_RETENTION_SCHEDULE"); val != "" {
		cfg.Audit.Retention.Schedule = val
	}

	// Maintenance overrides
	if val := os.Getenv("STRATUM_MAINTENANCE_SWEEP_SCHEDULE"); val != "" {
		cfg.Maintenance.SweepSchedule = val
	}

	// Telemetry overrides
	if val := os.Getenv("STRATUM_TELEMETRY_LOGGING_LEVEL"); val != "" {
		cfg.Telemetry.Logging.Level = val
	}
	if val := os.Getenv("STRATUM_TELEMETRY_LOGGING_FORMAT"); val != "" {
		cfg.Telemetry.Logging.Format = val
	}
	if val := os.Getenv("STRATUM_TELEMETRY_METRICS_ENABLED"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.Telemetry.Metrics.Enabled = b
		}
	}
	if val := os.Getenv("STRATUM_TELEMETRY_METRICS_NAMESPACE"); val != "" {
		cfg.Telemetry.Metrics.Namespace = val
	}
}

// splitCodes splits a comma-separated list of environment codes, trimming
// surrounding whitespace and dropping empty elements.
func splitCodes(val string) []string {
	parts := strings.Split(val, ",")
	codes := make([]string, 0, len(parts))
	for _, part := range parts {
		if code := strings.TrimSpace(part); code != "" {
			codes = append(codes, code)
		}
	}
	return codes
}
