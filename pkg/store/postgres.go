package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"sync"
	"time"

	_ "github.com/lib/pq" // PostgreSQL driver
)

// postgresSchema is created on open if absent. In server deployments the
// tables are normally owned and seeded by external migration tooling; the
// DDL here is idempotent and only fills the gap for fresh databases.
const postgresSchema = `
CREATE TABLE IF NOT EXISTS environments (
	id BIGSERIAL PRIMARY KEY,
	code TEXT NOT NULL,
	display_name TEXT NOT NULL DEFAULT ''
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_environments_code ON environments (UPPER(code));

CREATE TABLE IF NOT EXISTS config_entries (
	id BIGSERIAL PRIMARY KEY,
	key TEXT NOT NULL,
	value TEXT NOT NULL,
	environment_id BIGINT REFERENCES environments(id),
	data_type TEXT NOT NULL DEFAULT 'STRING',
	category TEXT NOT NULL DEFAULT 'GENERAL',
	is_active BOOLEAN NOT NULL DEFAULT TRUE,
	updated_at BIGINT NOT NULL DEFAULT 0
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_config_entries_active
	ON config_entries (key, COALESCE(environment_id, 0))
	WHERE is_active;

CREATE INDEX IF NOT EXISTS idx_config_entries_key ON config_entries (key);
`

const postgresSelectEntry = `
	SELECT id, key, value, environment_id, data_type, category, is_active, updated_at
	FROM config_entries
`

// PostgresStore implements Store using a shared PostgreSQL database.
// Suitable for server deployments where several services read the same
// configuration tables.
type PostgresStore struct {
	db        *sql.DB
	closeOnce sync.Once
	logger    *slog.Logger

	findActiveEnvStmt    *sql.Stmt
	findActiveGlobalStmt *sql.Stmt
	findPrefixEnvStmt    *sql.Stmt
	findPrefixGlobalStmt *sql.Stmt
	findEnvByCodeStmt    *sql.Stmt
}

// NewPostgresStore connects to PostgreSQL and prepares the query surface.
func NewPostgresStore(cfg *PostgresConfig) (*PostgresStore, error) {
	if cfg == nil || cfg.DSN == "" {
		return nil, fmt.Errorf("postgres dsn cannot be empty")
	}

	maxOpen := cfg.MaxOpenConns
	if maxOpen == 0 {
		maxOpen = 10
	}
	maxIdle := cfg.MaxIdleConns
	if maxIdle == 0 {
		maxIdle = 5
	}
	maxLifetime := cfg.ConnMaxLifetime
	if maxLifetime == 0 {
		maxLifetime = 30 * time.Minute
	}

	db, err := sql.Open("postgres", cfg.DSN)
	if err != nil {
		return nil, NewStoreError(BackendPostgres, "open", err)
	}

	db.SetMaxOpenConns(maxOpen)
	db.SetMaxIdleConns(maxIdle)
	db.SetConnMaxLifetime(maxLifetime)

	s, err := newPostgresStore(db)
	if err != nil {
		db.Close()
		return nil, err
	}

	s.logger.Info("postgres store opened",
		"max_open_conns", maxOpen,
		"max_idle_conns", maxIdle,
	)

	return s, nil
}

// newPostgresStore wraps an open database handle. Split from NewPostgresStore
// so tests can substitute a mocked handle.
func newPostgresStore(db *sql.DB) (*PostgresStore, error) {
	s := &PostgresStore{
		db:     db,
		logger: slog.Default().With("component", "store.postgres"),
	}

	if _, err := db.Exec(postgresSchema); err != nil {
		return nil, NewStoreError(BackendPostgres, "init_schema", err)
	}

	if err := s.prepareStatements(); err != nil {
		return nil, NewStoreError(BackendPostgres, "prepare", err)
	}

	return s, nil
}

// prepareStatements prepares SQL statements for reuse.
func (s *PostgresStore) prepareStatements() error {
	var err error

	s.findActiveEnvStmt, err = s.db.Prepare(postgresSelectEntry + `
		WHERE key = $1 AND environment_id = $2 AND is_active
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare find statement: %w", err)
	}

	s.findActiveGlobalStmt, err = s.db.Prepare(postgresSelectEntry + `
		WHERE key = $1 AND environment_id IS NULL AND is_active
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare global find statement: %w", err)
	}

	s.findPrefixEnvStmt, err = s.db.Prepare(postgresSelectEntry + `
		WHERE key LIKE $1 ESCAPE '\' AND environment_id = $2 AND is_active
		ORDER BY key
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare prefix statement: %w", err)
	}

	s.findPrefixGlobalStmt, err = s.db.Prepare(postgresSelectEntry + `
		WHERE key LIKE $1 ESCAPE '\' AND environment_id IS NULL AND is_active
		ORDER BY key
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare global prefix statement: %w", err)
	}

	s.findEnvByCodeStmt, err = s.db.Prepare(`
		SELECT id, code, display_name
		FROM environments
		WHERE UPPER(code) = UPPER($1)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare environment statement: %w", err)
	}

	return nil
}

// FindActive retrieves the active entry for a key in one environment tier.
func (s *PostgresStore) FindActive(ctx context.Context, key string, environmentID *int64) (*Entry, error) {
	var row *sql.Row
	if environmentID != nil {
		row = s.findActiveEnvStmt.QueryRowContext(ctx, key, *environmentID)
	} else {
		row = s.findActiveGlobalStmt.QueryRowContext(ctx, key)
	}

	entry, err := scanPostgresEntry(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, NewStoreError(BackendPostgres, "find_active", err)
	}

	return entry, nil
}

// FindActiveByPrefix retrieves active entries whose key starts with prefix
// in one environment tier, ordered by key.
func (s *PostgresStore) FindActiveByPrefix(ctx context.Context, prefix string, environmentID *int64) ([]*Entry, error) {
	pattern := escapeLike(prefix) + "%"

	var (
		rows *sql.Rows
		err  error
	)
	if environmentID != nil {
		rows, err = s.findPrefixEnvStmt.QueryContext(ctx, pattern, *environmentID)
	} else {
		rows, err = s.findPrefixGlobalStmt.QueryContext(ctx, pattern)
	}
	if err != nil {
		return nil, NewStoreError(BackendPostgres, "find_by_prefix", err)
	}
	defer rows.Close()

	entries := []*Entry{}
	for rows.Next() {
		entry, err := scanPostgresEntry(rows)
		if err != nil {
			return nil, NewStoreError(BackendPostgres, "find_by_prefix", err)
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, NewStoreError(BackendPostgres, "find_by_prefix", err)
	}

	return entries, nil
}

// FindEnvironmentByCode retrieves an environment by code, case-insensitively.
func (s *PostgresStore) FindEnvironmentByCode(ctx context.Context, code string) (*Environment, error) {
	env := &Environment{}
	err := s.findEnvByCodeStmt.QueryRowContext(ctx, code).Scan(&env.ID, &env.Code, &env.DisplayName)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, NewStoreError(BackendPostgres, "find_environment", err)
	}

	return env, nil
}

// Ping verifies the database is reachable.
func (s *PostgresStore) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return NewStoreError(BackendPostgres, "ping", err)
	}
	return nil
}

// Close releases the connection pool.
// Close is idempotent and safe to call multiple times.
func (s *PostgresStore) Close() error {
	var closeErr error

	s.closeOnce.Do(func() {
		for _, stmt := range []*sql.Stmt{
			s.findActiveEnvStmt,
			s.findActiveGlobalStmt,
			s.findPrefixEnvStmt,
			s.findPrefixGlobalStmt,
			s.findEnvByCodeStmt,
		} {
			if stmt != nil {
				stmt.Close()
			}
		}

		if s.db != nil {
			closeErr = s.db.Close()
		}
	})

	return closeErr
}

// scanPostgresEntry reads one config_entries row. Differs from the SQLite
// scan only in the native BOOLEAN column.
func scanPostgresEntry(row rowScanner) (*Entry, error) {
	var (
		entry     Entry
		envID     sql.NullInt64
		dataType  string
		updatedAt int64
	)

	err := row.Scan(&entry.ID, &entry.Key, &entry.Value, &envID, &dataType, &entry.Category, &entry.IsActive, &updatedAt)
	if err != nil {
		return nil, err
	}

	if envID.Valid {
		id := envID.Int64
		entry.EnvironmentID = &id
	}
	entry.DataType = DataType(dataType)
	entry.UpdatedAt = time.Unix(updatedAt, 0)

	return &entry, nil
}
