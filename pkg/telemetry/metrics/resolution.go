package metrics

import (
	"time"

	"meridian-hq/stratum/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
)

// ResolutionMetrics tracks configuration key resolutions.
//
// Metrics:
//   - stratum_resolutions_total: resolutions by answering tier and outcome
//   - stratum_resolution_duration_seconds: wall time per resolution by tier
//
// Cache hits finish in microseconds while store-backed tiers take a
// database round trip, so the histogram buckets span both regimes.
type ResolutionMetrics struct {
	resolutionsTotal *prometheus.CounterVec
	duration         *prometheus.HistogramVec
}

// NewResolutionMetrics creates and registers resolution metrics.
func NewResolutionMetrics(cfg *config.MetricsConfig, registry *prometheus.Registry) *ResolutionMetrics {
	rm := &ResolutionMetrics{
		resolutionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Name:      "resolutions_total",
				Help:      "Total key resolutions by answering tier and outcome",
			},
			[]string{"source", "outcome"},
		),

		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Name:      "resolution_duration_seconds",
				Help:      "Wall time spent resolving one key",
				Buckets:   []float64{0.00005, 0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5},
			},
			[]string{"source"},
		),
	}

	registry.MustRegister(rm.resolutionsTotal, rm.duration)
	return rm
}

// Record records one completed resolution.
func (rm *ResolutionMetrics) Record(source string, found bool, duration time.Duration) {
	outcome := "found"
	if !found {
		outcome = "miss"
	}
	rm.resolutionsTotal.WithLabelValues(source, outcome).Inc()
	rm.duration.WithLabelValues(source).Observe(duration.Seconds())
}
