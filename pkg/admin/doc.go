// Package admin exposes the cache administration surface: clearing the
// value and environment-identity caches, reporting cache statistics, and
// sweeping expired entries.
//
// The Manager wraps both resolvers and performs every operation through
// their public methods. It owns no timers or goroutines; the periodic
// sweep is driven externally by pkg/maintenance, and the HTTP handlers in
// this package are mounted by pkg/server behind API-key authentication.
//
// Clearing a cache is the coarse way to pick up configuration changes.
// RefreshConfiguration is an alias for ClearCaches kept for operators who
// think in terms of "refresh": entries repopulate lazily on next access,
// so a clear never leaves the resolver in a broken state.
package admin
