// Package seed loads environment and configuration rows from a YAML
// document into a seedable store backend.
//
// Seeding is a bootstrap convenience for local and test deployments; server
// deployments normally rely on external migration tooling instead. The seed
// document is validated before it is applied, and an optional watcher
// re-applies it when the file changes on disk.
//
// The resolver never sees this package: it reads through the store.Store
// interface only, which stays read-only.
package seed
