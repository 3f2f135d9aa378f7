// Package environment determines the active deployment environment and maps
// environment codes to their durable identifiers.
//
// # Overview
//
// The active environment code is detected without touching the backing
// store, in order: an explicit process-level override, the STRATUM_ENV
// environment variable, and finally the fail-safe default "PROD". Detection
// is deliberately database-free: store access is itself environment-scoped,
// so detection through the store would be circular.
//
// Code-to-id resolution goes through the backing store and is cached with
// the same TTL discipline as resolved configuration values.
//
// # Usage
//
//	resolver := environment.NewResolver(st, nil)
//
//	code := resolver.CurrentCode()
//	id, err := resolver.CurrentID(ctx)
//	if err != nil {
//		// deployment misconfiguration, do not continue
//	}
//
// # Thread Safety
//
// All Resolver and Detector methods are safe for concurrent use.
package environment
