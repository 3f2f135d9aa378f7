package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"sync"
	"time"

	_ "modernc.org/sqlite" // SQLite driver
)

// sqliteSchema is created on open. Rows are owned by external seed or
// migration tooling; the adapter itself only ever reads them.
const sqliteSchema = `
CREATE TABLE IF NOT EXISTS environments (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	code TEXT NOT NULL COLLATE NOCASE,
	display_name TEXT NOT NULL DEFAULT ''
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_environments_code ON environments(code);

CREATE TABLE IF NOT EXISTS config_entries (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	key TEXT NOT NULL,
	value TEXT NOT NULL,
	environment_id INTEGER REFERENCES environments(id),
	data_type TEXT NOT NULL DEFAULT 'STRING',
	category TEXT NOT NULL DEFAULT 'GENERAL',
	is_active INTEGER NOT NULL DEFAULT 1,
	updated_at INTEGER NOT NULL DEFAULT 0
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_config_entries_active
	ON config_entries(key, COALESCE(environment_id, 0))
	WHERE is_active = 1;

CREATE INDEX IF NOT EXISTS idx_config_entries_key ON config_entries(key);
`

const sqliteSelectEntry = `
	SELECT id, key, value, environment_id, data_type, category, is_active, updated_at
	FROM config_entries
`

// SQLiteStore implements Store using a local SQLite database file.
// Suitable for single-instance deployments and local development.
//
// The database is opened in WAL mode with a busy timeout so concurrent
// readers do not fail while external tooling writes rows.
type SQLiteStore struct {
	db        *sql.DB
	path      string
	closeOnce sync.Once
	logger    *slog.Logger

	// preparedStatements contains pre-compiled SQL statements for the
	// read-only query surface
	findActiveEnvStmt    *sql.Stmt
	findActiveGlobalStmt *sql.Stmt
	findPrefixEnvStmt    *sql.Stmt
	findPrefixGlobalStmt *sql.Stmt
	findEnvByCodeStmt    *sql.Stmt
}

// NewSQLiteStore opens (and if necessary creates) a SQLite-backed store.
func NewSQLiteStore(cfg *SQLiteConfig) (*SQLiteStore, error) {
	if cfg == nil || cfg.Path == "" {
		return nil, fmt.Errorf("sqlite path cannot be empty")
	}

	busyTimeout := cfg.BusyTimeout
	if busyTimeout == 0 {
		busyTimeout = 5 * time.Second
	}

	// Open database with WAL mode and busy timeout
	dsn := fmt.Sprintf("%s?_journal_mode=WAL&_busy_timeout=%d&_synchronous=NORMAL",
		cfg.Path, int(busyTimeout.Milliseconds()))

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, NewStoreError(BackendSQLite, "open", err)
	}

	// SQLite only supports a single writer
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	s := &SQLiteStore{
		db:     db,
		path:   cfg.Path,
		logger: slog.Default().With("component", "store.sqlite"),
	}

	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, NewStoreError(BackendSQLite, "init_schema", err)
	}

	if err := s.prepareStatements(); err != nil {
		db.Close()
		return nil, NewStoreError(BackendSQLite, "prepare", err)
	}

	s.logger.Info("sqlite store opened", "path", cfg.Path, "busy_timeout", busyTimeout)

	return s, nil
}

// prepareStatements prepares SQL statements for reuse.
func (s *SQLiteStore) prepareStatements() error {
	var err error

	s.findActiveEnvStmt, err = s.db.Prepare(sqliteSelectEntry + `
		WHERE key = ? AND environment_id = ? AND is_active = 1
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare find statement: %w", err)
	}

	s.findActiveGlobalStmt, err = s.db.Prepare(sqliteSelectEntry + `
		WHERE key = ? AND environment_id IS NULL AND is_active = 1
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare global find statement: %w", err)
	}

	s.findPrefixEnvStmt, err = s.db.Prepare(sqliteSelectEntry + `
		WHERE key LIKE ? ESCAPE '\' AND environment_id = ? AND is_active = 1
		ORDER BY key
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare prefix statement: %w", err)
	}

	s.findPrefixGlobalStmt, err = s.db.Prepare(sqliteSelectEntry + `
		WHERE key LIKE ? ESCAPE '\' AND environment_id IS NULL AND is_active = 1
		ORDER BY key
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare global prefix statement: %w", err)
	}

	s.findEnvByCodeStmt, err = s.db.Prepare(`
		SELECT id, code, display_name
		FROM environments
		WHERE code = ? COLLATE NOCASE
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare environment statement: %w", err)
	}

	return nil
}

// FindActive retrieves the active entry for a key in one environment tier.
func (s *SQLiteStore) FindActive(ctx context.Context, key string, environmentID *int64) (*Entry, error) {
	var row *sql.Row
	if environmentID != nil {
		row = s.findActiveEnvStmt.QueryRowContext(ctx, key, *environmentID)
	} else {
		row = s.findActiveGlobalStmt.QueryRowContext(ctx, key)
	}

	entry, err := scanEntry(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, NewStoreError(BackendSQLite, "find_active", err)
	}

	return entry, nil
}

// FindActiveByPrefix retrieves active entries whose key starts with prefix
// in one environment tier, ordered by key.
func (s *SQLiteStore) FindActiveByPrefix(ctx context.Context, prefix string, environmentID *int64) ([]*Entry, error) {
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
		return nil, NewStoreError(BackendSQLite, "find_by_prefix", err)
	}
	defer rows.Close()

	entries := []*Entry{}
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, NewStoreError(BackendSQLite, "find_by_prefix", err)
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, NewStoreError(BackendSQLite, "find_by_prefix", err)
	}

	return entries, nil
}

// FindEnvironmentByCode retrieves an environment by code, case-insensitively.
func (s *SQLiteStore) FindEnvironmentByCode(ctx context.Context, code string) (*Environment, error) {
	env := &Environment{}
	err := s.findEnvByCodeStmt.QueryRowContext(ctx, code).Scan(&env.ID, &env.Code, &env.DisplayName)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, NewStoreError(BackendSQLite, "find_environment", err)
	}

	return env, nil
}

// Ping verifies the database file is reachable.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return NewStoreError(BackendSQLite, "ping", err)
	}
	return nil
}

// Close releases the database handle.
// Close is idempotent and safe to call multiple times.
func (s *SQLiteStore) Close() error {
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
			// Run final checkpoint
			_, _ = s.db.Exec("PRAGMA wal_checkpoint(TRUNCATE)")
			closeErr = s.db.Close()
		}
	})

	return closeErr
}

// ReplaceSeed replaces all environments and entries in a single transaction.
// This is the write path used by the seed package for local and test
// deployments; it is deliberately not part of the Store interface.
func (s *SQLiteStore) ReplaceSeed(ctx context.Context, envs []Environment, entries []Entry) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return NewStoreError(BackendSQLite, "seed", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM config_entries"); err != nil {
		return NewStoreError(BackendSQLite, "seed", err)
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM environments"); err != nil {
		return NewStoreError(BackendSQLite, "seed", err)
	}

	for _, env := range envs {
		_, err := tx.ExecContext(ctx,
			"INSERT INTO environments (id, code, display_name) VALUES (?, ?, ?)",
			env.ID, env.Code, env.DisplayName,
		)
		if err != nil {
			return NewStoreError(BackendSQLite, "seed", fmt.Errorf("environment %q: %w", env.Code, err))
		}
	}

	for _, entry := range entries {
		var envID interface{}
		if entry.EnvironmentID != nil {
			envID = *entry.EnvironmentID
		}
		_, err := tx.ExecContext(ctx,
			`INSERT INTO config_entries (key, value, environment_id, data_type, category, is_active, updated_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			entry.Key, entry.Value, envID, string(entry.DataType), entry.Category,
			boolToInt(entry.IsActive), entry.UpdatedAt.Unix(),
		)
		if err != nil {
			return NewStoreError(BackendSQLite, "seed", fmt.Errorf("entry %q: %w", entry.Key, err))
		}
	}

	if err := tx.Commit(); err != nil {
		return NewStoreError(BackendSQLite, "seed", err)
	}

	s.logger.Info("seed applied", "environments", len(envs), "entries", len(entries))

	return nil
}

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...interface{}) error
}

// scanEntry reads one config_entries row.
func scanEntry(row rowScanner) (*Entry, error) {
	var (
		entry     Entry
		envID     sql.NullInt64
		dataType  string
		isActive  int
		updatedAt int64
	)

	err := row.Scan(&entry.ID, &entry.Key, &entry.Value, &envID, &dataType, &entry.Category, &isActive, &updatedAt)
	if err != nil {
		return nil, err
	}

	if envID.Valid {
		id := envID.Int64
		entry.EnvironmentID = &id
	}
	entry.DataType = DataType(dataType)
	entry.IsActive = isActive != 0
	entry.UpdatedAt = time.Unix(updatedAt, 0)

	return &entry, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
