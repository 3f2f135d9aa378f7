package metrics

import (
	"sync"
	"time"

	"meridian-hq/stratum/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
)

// Collector owns every Prometheus metric the service exposes. It
// registers the metric groups on one registry and provides the
// recording interface components use.
//
// All recording methods are no-ops when metrics are disabled in the
// configuration, so callers never need to guard their own calls.
type Collector struct {
	config   *config.MetricsConfig
	registry *prometheus.Registry

	resolution *ResolutionMetrics
	cache      *CacheMetrics
	store      *StoreMetrics
	http       *HTTPMetrics

	// pathLimiter bounds the cardinality of the HTTP path label.
	pathLimiter *cardinalityLimiter
}

// NewCollector creates a metrics collector with the specified
// configuration and registry. A nil registry gets a fresh one.
func NewCollector(cfg *config.MetricsConfig, registry *prometheus.Registry) *Collector {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}
	if cfg.Namespace == "" {
		cfg.Namespace = "stratum"
	}

	c := &Collector{
		config:      cfg,
		registry:    registry,
		pathLimiter: newCardinalityLimiter(128),
	}

	c.resolution = NewResolutionMetrics(cfg, registry)
	c.cache = NewCacheMetrics(cfg, registry)
	c.store = NewStoreMetrics(cfg, registry)
	c.http = NewHTTPMetrics(cfg, registry)

	return c
}

// RecordResolution records one completed key resolution.
//
// source is the tier that answered ("cache", "environment", "global",
// "process-env", "default"); found is false when no tier held a value.
func (c *Collector) RecordResolution(source string, found bool, duration time.Duration) {
	if !c.config.Enabled {
		return
	}
	c.resolution.Record(source, found, duration)
}

// RecordCacheHit records a hit on the named cache.
func (c *Collector) RecordCacheHit(cacheName string) {
	if !c.config.Enabled {
		return
	}
	c.cache.RecordHit(cacheName)
}

// RecordCacheMiss records a miss on the named cache.
func (c *Collector) RecordCacheMiss(cacheName string) {
	if !c.config.Enabled {
		return
	}
	c.cache.RecordMiss(cacheName)
}

// RecordCacheEvictions records n entries removed from the named cache,
// whether by an expiry sweep or an explicit clear.
func (c *Collector) RecordCacheEvictions(cacheName string, n int) {
	if !c.config.Enabled || n <= 0 {
		return
	}
	c.cache.RecordEvictions(cacheName, n)
}

// RegisterCacheSize registers a gauge that reports the named cache's
// entry count at scrape time. Call once per cache during wiring.
func (c *Collector) RegisterCacheSize(cacheName string, size func() int) {
	if !c.config.Enabled {
		return
	}
	c.cache.RegisterSize(cacheName, size)
}

// RecordStoreQuery records one query against the backing store.
func (c *Collector) RecordStoreQuery(operation, status string, duration time.Duration) {
	if !c.config.Enabled {
		return
	}
	c.store.Record(operation, status, duration)
}

// RecordHTTPRequest records one served HTTP request. Paths beyond the
// cardinality limit are aggregated under "other".
func (c *Collector) RecordHTTPRequest(method, path string, status int, duration time.Duration) {
	if !c.config.Enabled {
		return
	}
	if !c.pathLimiter.Allow(path) {
		path = "other"
	}
	c.http.Record(method, path, status, duration)
}

// Registry returns the Prometheus registry backing this collector.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Enabled reports whether the collector is recording.
func (c *Collector) Enabled() bool {
	return c.config.Enabled
}

// cardinalityLimiter caps the number of distinct values recorded for a
// label, protecting the registry from unbounded growth.
type cardinalityLimiter struct {
	max     int
	current map[string]struct{}
	mu      sync.RWMutex
}

func newCardinalityLimiter(max int) *cardinalityLimiter {
	return &cardinalityLimiter{
		max:     max,
		current: make(map[string]struct{}),
	}
}

// Allow reports whether value may be used as a label. Known values are
// always allowed; new ones only while under the limit.
func (cl *cardinalityLimiter) Allow(value string) bool {
	cl.mu.RLock()
	_, exists := cl.current[value]
	cl.mu.RUnlock()
	if exists {
		return true
	}

	cl.mu.Lock()
	defer cl.mu.Unlock()

	if _, exists := cl.current[value]; exists {
		return true
	}
	if len(cl.current) >= cl.max {
		return false
	}
	cl.current[value] = struct{}{}
	return true
}

// Count returns the number of distinct values seen so far.
func (cl *cardinalityLimiter) Count() int {
	cl.mu.RLock()
	defer cl.mu.RUnlock()
	return len(cl.current)
}
