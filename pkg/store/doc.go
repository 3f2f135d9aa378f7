// Package store provides read-only access to configuration and environment
// rows in a backing relational store.
//
// # Overview
//
// The store package defines the adapter interface consumed by the resolver
// and provides multiple implementations:
//
//   - Memory: in-process storage seeded from a document (tests, local runs)
//   - SQLite: lightweight file-based store for single-instance deployments
//   - PostgreSQL: shared relational store for server deployments
//
// Rows are owned by external seed/migration tooling; the adapter never
// inserts, updates, or deletes configuration data. Seeding for the memory
// and SQLite backends goes through the separate seed package.
//
// # Usage
//
//	st, err := store.New(&store.Config{
//	    Backend: store.BackendSQLite,
//	    SQLite:  store.SQLiteConfig{Path: "stratum.db"},
//	})
//	entry, err := st.FindActive(ctx, "email.smtp.host", &envID)
//
// # Thread Safety
//
// All backends are safe for concurrent use from multiple goroutines.
package store
