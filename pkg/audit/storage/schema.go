package storage

// SchemaVersion is the current audit database schema version.
const SchemaVersion = 1

// Schema contains the SQL statements to create the audit database schema.
const Schema = `
CREATE TABLE IF NOT EXISTS audit_events (
    id TEXT PRIMARY KEY,
    timestamp TIMESTAMP NOT NULL,
    config_key TEXT NOT NULL,
    environment TEXT NOT NULL,
    source TEXT NOT NULL,
    category TEXT NOT NULL,
    value TEXT,
    found BOOLEAN NOT NULL,
    request_id TEXT
);

CREATE INDEX IF NOT EXISTS idx_audit_events_timestamp ON audit_events(timestamp);
CREATE INDEX IF NOT EXISTS idx_audit_events_config_key ON audit_events(config_key);
CREATE INDEX IF NOT EXISTS idx_audit_events_environment ON audit_events(environment);

CREATE TABLE IF NOT EXISTS schema_version (
    version INTEGER PRIMARY KEY,
    applied_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);
`

// InsertSchemaVersion records the schema version, once.
const InsertSchemaVersion = `INSERT OR IGNORE INTO schema_version (version) VALUES (?)`

// GetSchemaVersion reads the highest applied schema version.
const GetSchemaVersion = `SELECT MAX(version) FROM schema_version`
