package metrics

import (
	"meridian-hq/stratum/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
)

// CacheMetrics tracks the value and environment caches.
//
// Metrics:
//   - stratum_cache_hits_total: hits by cache name
//   - stratum_cache_misses_total: misses by cache name
//   - stratum_cache_evictions_total: entries removed by sweeps and clears
//   - stratum_cache_entries: current entry count, read at scrape time
//
// Hit rate comes from PromQL rather than a precomputed metric:
//
//	rate(stratum_cache_hits_total{cache="config"}[5m]) /
//	(rate(stratum_cache_hits_total{cache="config"}[5m]) +
//	 rate(stratum_cache_misses_total{cache="config"}[5m]))
type CacheMetrics struct {
	hitsTotal      *prometheus.CounterVec
	missesTotal    *prometheus.CounterVec
	evictionsTotal *prometheus.CounterVec

	cfg      *config.MetricsConfig
	registry *prometheus.Registry
}

// NewCacheMetrics creates and registers cache metrics.
func NewCacheMetrics(cfg *config.MetricsConfig, registry *prometheus.Registry) *CacheMetrics {
	cm := &CacheMetrics{
		hitsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Name:      "cache_hits_total",
				Help:      "Total cache hits",
			},
			[]string{"cache"},
		),

		missesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Name:      "cache_misses_total",
				Help:      "Total cache misses",
			},
			[]string{"cache"},
		),

		evictionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Name:      "cache_evictions_total",
				Help:      "Total entries removed by expiry sweeps and explicit clears",
			},
			[]string{"cache"},
		),

		cfg:      cfg,
		registry: registry,
	}

	registry.MustRegister(cm.hitsTotal, cm.missesTotal, cm.evictionsTotal)
	return cm
}

// RecordHit records a cache hit.
func (cm *CacheMetrics) RecordHit(cacheName string) {
	cm.hitsTotal.WithLabelValues(cacheName).Inc()
}

// RecordMiss records a cache miss.
func (cm *CacheMetrics) RecordMiss(cacheName string) {
	cm.missesTotal.WithLabelValues(cacheName).Inc()
}

// RecordEvictions records n entries removed from a cache.
func (cm *CacheMetrics) RecordEvictions(cacheName string, n int) {
	cm.evictionsTotal.WithLabelValues(cacheName).Add(float64(n))
}

// RegisterSize registers a gauge reporting the cache's entry count at
// scrape time, so the value is always current without push updates.
func (cm *CacheMetrics) RegisterSize(cacheName string, size func() int) {
	cm.registry.MustRegister(prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Namespace:   cm.cfg.Namespace,
			Name:        "cache_entries",
			Help:        "Current number of cached entries",
			ConstLabels: prometheus.Labels{"cache": cacheName},
		},
		func() float64 { return float64(size()) },
	))
}
