// Package server assembles and runs the service's HTTP surface.
//
// The package ties the wired components (resolver, environment,
// administration manager, audit storage, health checker, metrics
// collector) to their routes, chains the middleware, and manages the
// server lifecycle including graceful shutdown on SIGTERM/SIGINT.
//
// # Basic Usage
//
//	srv := server.NewServer(&cfg.Service, server.Deps{
//	    Resolver:    res,
//	    Environment: env,
//	    Admin:       manager,
//	    Audit:       auditStore,
//	    Auth:        authMiddleware,
//	    Health:      checker,
//	    Metrics:     collector,
//	    Version:     version,
//	})
//	if err := srv.Start(ctx); err != nil {
//	    log.Fatal(err)
//	}
//
// Start blocks until the context is cancelled, a shutdown signal
// arrives, or the listener fails, then drains in-flight requests up to
// the configured shutdown timeout.
//
// # Routes
//
//   - GET /health - liveness probe
//   - GET /ready - readiness probe (store and environment checks)
//   - GET /version - build information
//   - GET /metrics - Prometheus exposition (when metrics are enabled)
//   - GET /api/v1/environment - active environment report
//   - GET /api/v1/resolve?key=K - single-key resolution, classifier-masked
//   - GET /admin/cache/stats - cache statistics (readonly key)
//   - POST /admin/cache/clear - drop both caches (admin key)
//   - POST /admin/cache/refresh - drop the value cache (admin key)
//   - POST /admin/cache/sweep - remove expired entries (admin key)
//   - GET /admin/audit/events - query the audit trail (readonly key)
//
// Admin routes require an API key from the bootstrap configuration,
// presented as X-API-Key or an Authorization bearer token. When no
// auth middleware is wired the admin routes are not mounted.
//
// # Middleware Chain
//
// Requests pass through, outermost first: recovery, request ID,
// logging, metrics, CORS, timeout. Request IDs are assigned before
// logging so every completion log line carries one.
package server
