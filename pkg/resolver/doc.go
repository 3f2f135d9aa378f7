// Package resolver resolves typed configuration values through an ordered
// fallback chain, with TTL caching.
//
// # Overview
//
// A key resolves through four tiers, first hit wins:
//
//  1. Environment-specific store entry for the active environment
//  2. Global store entry (no environment association)
//  3. Process environment variable (designated local environments only)
//  4. Caller-supplied default
//
// Resolved values are cached per (key, environment code) pair for a fixed
// TTL. Confirmed absence is cached with the same TTL, so a key configured
// nowhere does not hammer the store on every call. Values served from the
// process-environment tier are never cached: they are operator-set and
// must always be re-read.
//
// # Usage
//
//	res := resolver.New(st, envResolver, nil)
//
//	host, err := res.GetString(ctx, "email.smtp.host", "localhost")
//	port, err := res.GetInt(ctx, "email.smtp.port", 25)
//	tls, err := res.GetBool(ctx, "email.smtp.tls.enabled", false)
//
//	section, err := res.GetSection(ctx, "email.smtp")
//
// Ordinary misses are not errors: every accessor degrades to the caller's
// default. The returned error is non-nil only when the active environment
// cannot be resolved to an id (environment.ResolutionError) or the backing
// store fails (store.StoreError). Neither condition is masked by a default
// value.
//
// # Thread Safety
//
// All methods are safe for concurrent use. Store queries happen outside
// the cache lock, so two goroutines racing on a cold key may both hit the
// store; the cache settles on one result.
package resolver
