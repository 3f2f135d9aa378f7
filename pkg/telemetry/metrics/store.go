package metrics

import (
	"context"
	"time"

	"meridian-hq/stratum/pkg/config"
	"meridian-hq/stratum/pkg/store"

	"github.com/prometheus/client_golang/prometheus"
)

// StoreMetrics tracks queries against the backing configuration store.
//
// Metrics:
//   - stratum_store_queries_total: queries by operation and status
//   - stratum_store_query_duration_seconds: query latency by operation
type StoreMetrics struct {
	queriesTotal  *prometheus.CounterVec
	queryDuration *prometheus.HistogramVec
}

// NewStoreMetrics creates and registers store metrics.
func NewStoreMetrics(cfg *config.MetricsConfig, registry *prometheus.Registry) *StoreMetrics {
	sm := &StoreMetrics{
		queriesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Name:      "store_queries_total",
				Help:      "Total store queries by operation and status",
			},
			[]string{"operation", "status"},
		),

		queryDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Name:      "store_query_duration_seconds",
				Help:      "Store query latency",
				Buckets:   []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
			},
			[]string{"operation"},
		),
	}

	registry.MustRegister(sm.queriesTotal, sm.queryDuration)
	return sm
}

// Record records one store query.
func (sm *StoreMetrics) Record(operation, status string, duration time.Duration) {
	sm.queriesTotal.WithLabelValues(operation, status).Inc()
	sm.queryDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// InstrumentStore wraps a store so every query is recorded on the
// collector. Absent rows count as "ok"; only system failures count as
// "error". The wrapper adds no behavior beyond recording.
func InstrumentStore(inner store.Store, c *Collector) store.Store {
	return &instrumentedStore{inner: inner, collector: c}
}

type instrumentedStore struct {
	inner     store.Store
	collector *Collector
}

func (s *instrumentedStore) FindActive(ctx context.Context, key string, environmentID *int64) (*store.Entry, error) {
	start := time.Now()
	entry, err := s.inner.FindActive(ctx, key, environmentID)
	s.collector.RecordStoreQuery("find_active", statusOf(err), time.Since(start))
	return entry, err
}

func (s *instrumentedStore) FindActiveByPrefix(ctx context.Context, prefix string, environmentID *int64) ([]*store.Entry, error) {
	start := time.Now()
	entries, err := s.inner.FindActiveByPrefix(ctx, prefix, environmentID)
	s.collector.RecordStoreQuery("find_active_by_prefix", statusOf(err), time.Since(start))
	return entries, err
}

func (s *instrumentedStore) FindEnvironmentByCode(ctx context.Context, code string) (*store.Environment, error) {
	start := time.Now()
	env, err := s.inner.FindEnvironmentByCode(ctx, code)
	s.collector.RecordStoreQuery("find_environment", statusOf(err), time.Since(start))
	return env, err
}

func (s *instrumentedStore) Ping(ctx context.Context) error {
	start := time.Now()
	err := s.inner.Ping(ctx)
	s.collector.RecordStoreQuery("ping", statusOf(err), time.Since(start))
	return err
}

func (s *instrumentedStore) Close() error {
	return s.inner.Close()
}

func statusOf(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
