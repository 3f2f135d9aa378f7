// Package metrics exposes the service's Prometheus metrics.
//
// # Overview
//
// A single Collector owns the registry and the metric groups:
//
//   - ResolutionMetrics: key resolutions by tier and outcome
//   - CacheMetrics: hits, misses, evictions and live entry counts
//   - StoreMetrics: backing store query counts and latency
//   - HTTPMetrics: served requests by method, path and status
//
// # Wiring
//
// The collector hooks into the rest of the service at three points:
//
//	collector := metrics.NewCollector(&cfg.Telemetry.Metrics, nil)
//
//	// Resolver outcomes, via the observer interface.
//	res := resolver.New(st, env, &resolver.Config{
//	    Observers: []resolver.Observer{metrics.NewResolutionObserver(collector)},
//	})
//
//	// Store queries, via the decorator.
//	st = metrics.InstrumentStore(st, collector)
//
//	// HTTP traffic, via middleware; the endpoint itself via Handler.
//	mux.Handle("/metrics", collector.Handler())
//
// Cache entry counts are registered as scrape-time gauges:
//
//	collector.RegisterCacheSize("config", res.CacheSize)
//	collector.RegisterCacheSize("environment", env.CacheSize)
//
// When metrics are disabled in configuration every recording method is
// a no-op, so wiring stays unconditional.
package metrics
