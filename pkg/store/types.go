package store

import (
	"context"
	"time"
)

// DataType declares how a stored value is meant to be coerced.
type DataType string

const (
	// DataTypeString values are returned as-is.
	DataTypeString DataType = "STRING"

	// DataTypeInteger values are parsed as base-10 integers.
	DataTypeInteger DataType = "INTEGER"

	// DataTypeBoolean values are parsed as true/false flags.
	DataTypeBoolean DataType = "BOOLEAN"
)

// Valid reports whether d is one of the declared data types.
func (d DataType) Valid() bool {
	switch d {
	case DataTypeString, DataTypeInteger, DataTypeBoolean:
		return true
	}
	return false
}

// Environment is a named deployment context.
type Environment struct {
	// ID is the durable identifier other rows reference as a foreign key.
	ID int64

	// Code is the short unique name, e.g. "DEV", "UAT", "PROD".
	// Codes are unique case-insensitively and immutable once assigned.
	Code string

	// DisplayName is the human-readable name.
	DisplayName string
}

// Entry is a single stored configuration row.
type Entry struct {
	// ID is the row identifier.
	ID int64

	// Key is the dot-namespaced configuration key, e.g. "email.smtp.host".
	Key string

	// Value is the raw string value before any type coercion.
	Value string

	// EnvironmentID is the owning environment, or nil for a global entry
	// available to all environments as a fallback.
	EnvironmentID *int64

	// DataType declares the intended coercion for Value.
	DataType DataType

	// Category is the stored sensitivity label, e.g. "CREDENTIAL".
	Category string

	// IsActive marks the row as live. The pair (Key, EnvironmentID) is
	// unique among active rows.
	IsActive bool

	// UpdatedAt is when the row was last modified by external tooling.
	UpdatedAt time.Time
}

// Store is the read-only adapter over the backing configuration store.
// Implementations must be thread-safe and support concurrent access.
type Store interface {
	// FindActive retrieves the active entry for a key in one environment
	// tier. A nil environmentID selects the global tier. Returns nil if no
	// active entry matches. Returns a *StoreError on system failure.
	FindActive(ctx context.Context, key string, environmentID *int64) (*Entry, error)

	// FindActiveByPrefix retrieves all active entries whose key starts with
	// prefix in one environment tier, ordered by key ascending. A nil
	// environmentID selects the global tier. Returns an empty slice if none
	// match. Returns a *StoreError on system failure.
	FindActiveByPrefix(ctx context.Context, prefix string, environmentID *int64) ([]*Entry, error)

	// FindEnvironmentByCode retrieves an environment by code. Matching is
	// case-insensitive. Returns nil if no environment matches. Returns a
	// *StoreError on system failure.
	FindEnvironmentByCode(ctx context.Context, code string) (*Environment, error)

	// Ping verifies the backing store is reachable.
	Ping(ctx context.Context) error

	// Close releases any resources held by the store.
	// The store should not be used after calling Close.
	Close() error
}
