// Package storage provides persistence backends for audit events.
//
// # Overview
//
// Two backends implement audit.Storage:
//
//   - SQLiteStorage: durable storage in a local SQLite database, suitable
//     for single-node deployments
//   - MemoryStorage: in-memory storage for tests and ephemeral setups
//
// # Usage
//
//	st, err := storage.NewSQLiteStorage(&storage.SQLiteConfig{
//		Path: "data/audit.db",
//	})
//	if err != nil {
//		return err
//	}
//	defer st.Close()
//
// # Thread Safety
//
// Both backends are safe for concurrent use.
package storage
