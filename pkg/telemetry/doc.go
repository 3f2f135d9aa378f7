// Package telemetry provides observability for stratum.
//
// # Components
//
//   - logging: structured slog logging with secret masking
//   - metrics: Prometheus metrics collection
//   - health: liveness and readiness endpoints
//
// # Usage
//
//	// Install the default logger
//	if err := logging.Setup(logging.Config{Level: "info", Format: "json"}); err != nil {
//		return err
//	}
//
//	// Collect metrics
//	collector := metrics.NewCollector(&cfg.Telemetry.Metrics, nil)
//	res := resolver.New(st, env, &resolver.Config{
//		Observers: []resolver.Observer{metrics.NewResolutionObserver(collector)},
//	})
//
//	// Register health checks
//	checker := health.New(0)
//	checker.RegisterCheck("store", health.StoreCheck(st))
//	checker.RegisterCheck("environment", health.EnvironmentCheck(env))
//
// # Secret Masking
//
// The logging handler masks sensitive values at the handler level, so
// every log line is covered regardless of which logger emitted it:
//
//   - API keys: stk_4f9a... → stk_****
//   - password/token/secret attributes: fully masked
//   - DSN credentials: postgres://svc:****@db:5432/stratum
package telemetry
