// Package health implements the service's liveness and readiness
// probes.
//
// # Overview
//
// A Checker holds named component checks and aggregates them into a
// report. Liveness never probes components; readiness runs every check
// concurrently under a per-check timeout:
//
//	checker := health.New(5 * time.Second)
//	checker.RegisterCheck("store", health.StoreCheck(st))
//	checker.RegisterCheck("environment", health.EnvironmentCheck(env))
//
//	mux.HandleFunc("/health", checker.LivenessHandler())
//	mux.HandleFunc("/ready", checker.ReadinessHandler())
//	mux.HandleFunc("/version", health.VersionHandler(version, commit, buildTime))
//
// The built-in checks cover the two dependencies resolution cannot do
// without: the backing store being reachable, and the active
// environment code resolving to a known environment row. A service
// pointed at an unseeded database reports degraded instead of serving
// requests that would all fail.
package health
