package config

import (
	"fmt"
	"strings"

	"github.com/robfig/cron/v3"
)

// FieldError represents a validation error for a specific configuration field.
type FieldError struct {
	// Field is the dotted path to the configuration field (e.g., "store.backend").
	Field string

	// Message is a human-readable error message.
	Message string
}

// Error returns the error message for this field error.
func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationError represents one or more validation errors in a configuration.
// It implements the error interface and provides access to all field errors.
type ValidationError struct {
	// Errors contains all validation errors found in the configuration.
	Errors []FieldError
}

// Error returns a formatted string containing all validation errors.
func (e ValidationError) Error() string {
	if len(e.Errors) == 0 {
		return "configuration validation failed"
	}
	if len(e.Errors) == 1 {
		return fmt.Sprintf("configuration validation failed: %s", e.Errors[0].Error())
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("configuration validation failed with %d errors:\n", len(e.Errors)))
	for _, err := range e.Errors {
		sb.WriteString(fmt.Sprintf("  - %s\n", err.Error()))
	}
	return sb.String()
}

// cronParser accepts the five-field cron expressions used by the schedule
// settings, matching what the maintenance scheduler runs them with.
var cronParser = cron.NewParser(
	cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow,
)

// Validate validates the entire configuration and returns a ValidationError
// if any validation rules fail. It returns nil if the configuration is valid.
// All validation errors are collected and returned together.
func Validate(cfg *Config) error {
	var errs []FieldError

	errs = append(errs, validateService(&cfg.Service)...)
	errs = append(errs, validateEnvironment(&cfg.Environment)...)
	errs = append(errs, validateStore(&cfg.Store)...)
	errs = append(errs, validateResolution(&cfg.Resolution)...)
	errs = append(errs, validateAudit(&cfg.Audit)...)
	errs = append(errs, validateMaintenance(&cfg.Maintenance)...)
	errs = append(errs, validateTelemetry(&cfg.Telemetry)...)

	if len(errs) > 0 {
		return ValidationError{Errors: errs}
	}

	return nil
}

// validateService validates HTTP server configuration.
func validateService(cfg *ServiceConfig) []FieldError {
	var errs []FieldError

	if cfg.ListenAddress == "" {
		errs = append(errs, FieldError{
			Field:   "service.listen_address",
			Message: "listen address is required",
		})
	}

	if cfg.ReadTimeout < 0 {
		errs = append(errs, FieldError{
			Field:   "service.read_timeout",
			Message: "read timeout must be positive",
		})
	}
	if cfg.WriteTimeout < 0 {
		errs = append(errs, FieldError{
			Field:   "service.write_timeout",
			Message: "write timeout must be positive",
		})
	}
	if cfg.ShutdownTimeout < 0 {
		errs = append(errs, FieldError{
			Field:   "service.shutdown_timeout",
			Message: "shutdown timeout must be positive",
		})
	}
	if cfg.RequestTimeout < 0 {
		errs = append(errs, FieldError{
			Field:   "service.request_timeout",
			Message: "request timeout must be positive",
		})
	}

	if cfg.CORS.Enabled && len(cfg.CORS.AllowedOrigins) == 0 {
		errs = append(errs, FieldError{
			Field:   "service.cors.allowed_origins",
			Message: "at least one allowed origin is required when CORS is enabled",
		})
	}

	validRoles := map[string]bool{"admin": true, "readonly": true}
	for i, key := range cfg.AdminKeys {
		prefix := fmt.Sprintf("service.admin_keys[%d]", i)

		if key.Key == "" {
			errs = append(errs, FieldError{
				Field:   prefix + ".key",
				Message: "key value is required",
			})
		}
		if key.Name == "" {
			errs = append(errs, FieldError{
				Field:   prefix + ".name",
				Message: "key name is required",
			})
		}
		if key.Role != "" && !validRoles[key.Role] {
			errs = append(errs, FieldError{
				Field:   prefix + ".role",
				Message: fmt.Sprintf("invalid role %q: must be 'admin' or 'readonly'", key.Role),
			})
		}
	}

	return errs
}

// validateEnvironment validates environment detection configuration.
func validateEnvironment(cfg *EnvironmentConfig) []FieldError {
	var errs []FieldError

	if cfg.Variable == "" {
		errs = append(errs, FieldError{
			Field:   "environment.variable",
			Message: "detection variable name is required",
		})
	}
	if cfg.Default == "" {
		errs = append(errs, FieldError{
			Field:   "environment.default",
			Message: "fail-safe default environment code is required",
		})
	}
	for i, code := range cfg.LocalCodes {
		if strings.TrimSpace(code) == "" {
			errs = append(errs, FieldError{
				Field:   fmt.Sprintf("environment.local_codes[%d]", i),
				Message: "local environment code cannot be blank",
			})
		}
	}

	return errs
}

// validateStore validates configuration store backend settings.
func validateStore(cfg *StoreConfig) []FieldError {
	var errs []FieldError

	validBackends := map[string]bool{"sqlite": true, "postgres": true, "memory": true}
	if cfg.Backend == "" {
		errs = append(errs, FieldError{
			Field:   "store.backend",
			Message: "backend is required",
		})
	} else if !validBackends[cfg.Backend] {
		errs = append(errs, FieldError{
			Field:   "store.backend",
			Message: fmt.Sprintf("invalid backend %q: must be 'sqlite', 'postgres', or 'memory'", cfg.Backend),
		})
	}

	switch cfg.Backend {
	case "sqlite":
		if cfg.SQLite.Path == "" {
			errs = append(errs, FieldError{
				Field:   "store.sqlite.path",
				Message: "SQLite path is required when backend is 'sqlite'",
			})
		}
		if cfg.SQLite.BusyTimeout < 0 {
			errs = append(errs, FieldError{
				Field:   "store.sqlite.busy_timeout",
				Message: "busy timeout must be positive",
			})
		}
	case "postgres":
		if cfg.Postgres.DSN == "" {
			errs = append(errs, FieldError{
				Field:   "store.postgres.dsn",
				Message: "DSN is required when backend is 'postgres'",
			})
		}
		if cfg.Postgres.MaxOpenConns < 0 {
			errs = append(errs, FieldError{
				Field:   "store.postgres.max_open_conns",
				Message: "max open connections must be non-negative",
			})
		}
		if cfg.Postgres.MaxIdleConns < 0 {
			errs = append(errs, FieldError{
				Field:   "store.postgres.max_idle_conns",
				Message: "max idle connections must be non-negative",
			})
		}
		if cfg.Postgres.MaxIdleConns > cfg.Postgres.MaxOpenConns && cfg.Postgres.MaxOpenConns > 0 {
			errs = append(errs, FieldError{
				Field:   "store.postgres.max_idle_conns",
				Message: "max idle connections cannot exceed max open connections",
			})
		}
	}

	if cfg.Seed.Watch && cfg.Seed.Path == "" {
		errs = append(errs, FieldError{
			Field:   "store.seed.watch",
			Message: "seed watching requires store.seed.path to be set",
		})
	}

	return errs
}

// validateResolution validates resolver settings.
func validateResolution(cfg *ResolutionConfig) []FieldError {
	var errs []FieldError

	if cfg.CacheTTL < 0 {
		errs = append(errs, FieldError{
			Field:   "resolution.cache_ttl",
			Message: "cache TTL must be positive",
		})
	}
	if cfg.EnvVarPrefix != "" && strings.ContainsAny(cfg.EnvVarPrefix, " \t=") {
		errs = append(errs, FieldError{
			Field:   "resolution.env_var_prefix",
			Message: "env var prefix cannot contain whitespace or '='",
		})
	}

	return errs
}

// validateAudit validates audit trail settings.
func validateAudit(cfg *AuditConfig) []FieldError {
	var errs []FieldError

	if !cfg.Enabled {
		return errs
	}

	validSinks := map[string]bool{"log": true, "sqlite": true}
	if cfg.Sink == "" {
		errs = append(errs, FieldError{
			Field:   "audit.sink",
			Message: "sink is required when audit is enabled",
		})
	} else if !validSinks[cfg.Sink] {
		errs = append(errs, FieldError{
			Field:   "audit.sink",
			Message: fmt.Sprintf("invalid sink %q: must be 'log' or 'sqlite'", cfg.Sink),
		})
	}

	if cfg.Sink == "sqlite" && cfg.SQLitePath == "" {
		errs = append(errs, FieldError{
			Field:   "audit.sqlite_path",
			Message: "SQLite path is required when sink is 'sqlite'",
		})
	}

	if cfg.BufferSize < 0 {
		errs = append(errs, FieldError{
			Field:   "audit.buffer_size",
			Message: "buffer size must be non-negative",
		})
	}
	if cfg.WriteTimeout < 0 {
		errs = append(errs, FieldError{
			Field:   "audit.write_timeout",
			Message: "write timeout must be positive",
		})
	}

	if cfg.Retention.MaxAge < 0 {
		errs = append(errs, FieldError{
			Field:   "audit.retention.max_age",
			Message: "retention max age must be non-negative",
		})
	}
	if cfg.Retention.Schedule != "" {
		if _, err := cronParser.Parse(cfg.Retention.Schedule); err != nil {
			errs = append(errs, FieldError{
				Field:   "audit.retention.schedule",
				Message: fmt.Sprintf("invalid cron expression %q: %v", cfg.Retention.Schedule, err),
			})
		}
	}

	return errs
}

// validateMaintenance validates background job schedules.
func validateMaintenance(cfg *MaintenanceConfig) []FieldError {
	var errs []FieldError

	if cfg.SweepSchedule != "" {
		if _, err := cronParser.Parse(cfg.SweepSchedule); err != nil {
			errs = append(errs, FieldError{
				Field:   "maintenance.sweep_schedule",
				Message: fmt.Sprintf("invalid cron expression %q: %v", cfg.SweepSchedule, err),
			})
		}
	}

	return errs
}

// validateTelemetry validates telemetry configuration.
func validateTelemetry(cfg *TelemetryConfig) []FieldError {
	var errs []FieldError

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if cfg.Logging.Level == "" {
		errs = append(errs, FieldError{
			Field:   "telemetry.logging.level",
			Message: "logging level is required",
		})
	} else if !validLevels[cfg.Logging.Level] {
		errs = append(errs, FieldError{
			Field:   "telemetry.logging.level",
			Message: fmt.Sprintf("invalid logging level %q: must be 'debug', 'info', 'warn', or 'error'", cfg.Logging.Level),
		})
	}

	validFormats := map[string]bool{"json": true, "text": true}
	if cfg.Logging.Format == "" {
		errs = append(errs, FieldError{
			Field:   "telemetry.logging.format",
			Message: "logging format is required",
		})
	} else if !validFormats[cfg.Logging.Format] {
		errs = append(errs, FieldError{
			Field:   "telemetry.logging.format",
			Message: fmt.Sprintf("invalid logging format %q: must be 'json' or 'text'", cfg.Logging.Format),
		})
	}

	if cfg.Metrics.Enabled && cfg.Metrics.Namespace == "" {
		errs = append(errs, FieldError{
			Field:   "telemetry.metrics.namespace",
			Message: "metrics namespace is required when metrics are enabled",
		})
	}

	return errs
}
