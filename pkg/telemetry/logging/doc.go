// Package logging configures the service's structured logger.
//
// # Overview
//
// The package builds a log/slog logger from service configuration:
//   - JSON or logfmt-style text output
//   - Configurable minimum level (debug, info, warn, error)
//   - Optional source file/line annotation
//   - Always-on secret masking at the handler level
//
// Setup installs the logger as the process default, so components
// derive their loggers the usual way:
//
//	logger, err := logging.Setup(logging.Config{
//	    Level:  cfg.Telemetry.Logging.Level,
//	    Format: cfg.Telemetry.Logging.Format,
//	})
//	...
//	log := slog.Default().With("component", "resolver")
//
// # Secret masking
//
// A Redactor runs as the handler's ReplaceAttr hook. Attributes whose
// key names a credential (password, token, api_key, dsn, ...) are
// masked; string values are scrubbed for generated API keys, bearer
// tokens and connection-string passwords:
//
//	log.Info("store opened", "dsn", cfg.DSN)
//	// dsn=postgres://stratum:****@db:5432/stratum
//
// Because masking happens inside the handler, it applies to every log
// call in the process once Setup has run, including third-party code
// that logs through slog.Default.
package logging
