package health

import (
	"context"
	"sync"
	"time"
)

// Status is an aggregate or per-component health state.
type Status string

const (
	// StatusOK means the process is alive.
	StatusOK Status = "ok"
	// StatusReady means every component check passed.
	StatusReady Status = "ready"
	// StatusDegraded means at least one component check failed.
	StatusDegraded Status = "degraded"
	// StatusUnhealthy marks a failed component check.
	StatusUnhealthy Status = "unhealthy"
)

// CheckFunc probes one component. A nil return means healthy.
type CheckFunc func(ctx context.Context) error

// CheckResult is the outcome of a single component check.
type CheckResult struct {
	// Status is "ok" or "unhealthy".
	Status Status `json:"status"`

	// Message carries the failure detail for unhealthy components.
	Message string `json:"message,omitempty"`

	// DurationMS is how long the check took, in milliseconds.
	DurationMS float64 `json:"duration_ms"`
}

// Report is the aggregate health of the service.
type Report struct {
	// Status is "ok" for liveness, "ready" or "degraded" for readiness.
	Status Status `json:"status"`

	// Checks holds per-component results, present on readiness reports.
	Checks map[string]CheckResult `json:"checks,omitempty"`

	// Timestamp is when the report was produced.
	Timestamp time.Time `json:"timestamp"`
}

// DefaultCheckTimeout bounds each component check.
const DefaultCheckTimeout = 5 * time.Second

// Checker runs registered component checks and aggregates the results.
type Checker struct {
	mu     sync.RWMutex
	checks map[string]CheckFunc

	checkTimeout time.Duration
}

// New creates a checker. A zero timeout uses DefaultCheckTimeout.
func New(checkTimeout time.Duration) *Checker {
	if checkTimeout <= 0 {
		checkTimeout = DefaultCheckTimeout
	}

	return &Checker{
		checks:       make(map[string]CheckFunc),
		checkTimeout: checkTimeout,
	}
}

// RegisterCheck registers a component check, replacing any previous
// check under the same name.
func (c *Checker) RegisterCheck(name string, check CheckFunc) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.checks[name] = check
}

// CheckCount returns the number of registered checks.
func (c *Checker) CheckCount() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return len(c.checks)
}

// CheckLiveness reports whether the process is alive. It never probes
// components, so it stays fast enough for aggressive probe intervals.
func (c *Checker) CheckLiveness(ctx context.Context) Report {
	return Report{
		Status:    StatusOK,
		Timestamp: time.Now(),
	}
}

// CheckReadiness runs every registered component check concurrently
// and aggregates the results. Any failing component degrades the
// overall status.
func (c *Checker) CheckReadiness(ctx context.Context) Report {
	c.mu.RLock()
	checks := make(map[string]CheckFunc, len(c.checks))
	for name, check := range c.checks {
		checks[name] = check
	}
	c.mu.RUnlock()

	results := make(map[string]CheckResult, len(checks))
	if len(checks) == 0 {
		return Report{
			Status:    StatusReady,
			Checks:    results,
			Timestamp: time.Now(),
		}
	}

	var resultMu sync.Mutex
	var wg sync.WaitGroup

	for name, check := range checks {
		wg.Add(1)
		go func(name string, check CheckFunc) {
			defer wg.Done()

			result := c.runCheck(ctx, check)

			resultMu.Lock()
			results[name] = result
			resultMu.Unlock()
		}(name, check)
	}

	wg.Wait()

	status := StatusReady
	for _, result := range results {
		if result.Status == StatusUnhealthy {
			status = StatusDegraded
		}
	}

	return Report{
		Status:    status,
		Checks:    results,
		Timestamp: time.Now(),
	}
}

// runCheck executes one check under the configured timeout. The check
// runs in its own goroutine so a stuck component cannot stall the
// whole readiness report.
func (c *Checker) runCheck(ctx context.Context, check CheckFunc) CheckResult {
	checkCtx, cancel := context.WithTimeout(ctx, c.checkTimeout)
	defer cancel()

	start := time.Now()

	errChan := make(chan error, 1)
	go func() {
		errChan <- check(checkCtx)
	}()

	select {
	case err := <-errChan:
		elapsed := time.Since(start)
		if err != nil {
			return CheckResult{
				Status:     StatusUnhealthy,
				Message:    err.Error(),
				DurationMS: float64(elapsed.Microseconds()) / 1000,
			}
		}
		return CheckResult{
			Status:     StatusOK,
			DurationMS: float64(elapsed.Microseconds()) / 1000,
		}

	case <-checkCtx.Done():
		return CheckResult{
			Status:     StatusUnhealthy,
			Message:    "check timed out",
			DurationMS: float64(time.Since(start).Microseconds()) / 1000,
		}
	}
}
