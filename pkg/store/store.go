package store

import (
	"fmt"
	"log/slog"
	"time"
)

// Backend identifiers accepted by Open.
const (
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
	BackendMemory   = "memory"
)

// Config selects and configures a store backend.
type Config struct {
	// Backend is the store backend type: "sqlite", "postgres", or "memory".
	// Default: "sqlite"
	Backend string

	// SQLite configures the SQLite backend.
	SQLite SQLiteConfig

	// Postgres configures the PostgreSQL backend.
	Postgres PostgresConfig
}

// SQLiteConfig configures the SQLite store backend.
type SQLiteConfig struct {
	// Path is the path to the SQLite database file.
	Path string

	// BusyTimeout is how long to wait for locks before failing.
	// Default: 5 seconds
	BusyTimeout time.Duration
}

// PostgresConfig configures the PostgreSQL store backend.
type PostgresConfig struct {
	// DSN is the connection string, e.g.
	// "postgres://stratum:pw@localhost/stratum?sslmode=disable".
	DSN string

	// MaxOpenConns is the connection pool ceiling.
	// Default: 10
	MaxOpenConns int

	// MaxIdleConns is the idle connection pool size.
	// Default: 5
	MaxIdleConns int

	// ConnMaxLifetime is how long a connection may be reused.
	// Default: 30 minutes
	ConnMaxLifetime time.Duration
}

// Open creates a store backend based on the configuration.
//
// Supported backends:
//   - "sqlite": file-based store, suitable for single-instance deployments
//   - "postgres": shared relational store for server deployments
//   - "memory": in-process store, seeded from a document (tests, local runs)
//
// An empty Backend defaults to "sqlite".
func Open(cfg *Config) (Store, error) {
	if cfg == nil {
		return nil, fmt.Errorf("store config cannot be nil")
	}

	backend := cfg.Backend
	if backend == "" {
		backend = BackendSQLite
	}

	slog.Debug("opening configuration store", "backend", backend)

	switch backend {
	case BackendSQLite:
		return NewSQLiteStore(&cfg.SQLite)

	case BackendPostgres:
		return NewPostgresStore(&cfg.Postgres)

	case BackendMemory:
		return NewMemoryStore(), nil

	default:
		return nil, fmt.Errorf("unsupported store backend: %q (supported: sqlite, postgres, memory)", backend)
	}
}

// escapeLike escapes LIKE wildcards in a literal prefix so stored keys
// containing '_' or '%' match exactly. Used with ESCAPE '\'.
func escapeLike(prefix string) string {
	out := make([]byte, 0, len(prefix))
	for i := 0; i < len(prefix); i++ {
		switch prefix[i] {
		case '\\', '%', '_':
			out = append(out, '\\')
		}
		out = append(out, prefix[i])
	}
	return string(out)
}
