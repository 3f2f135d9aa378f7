package metrics

import (
	"context"

	"meridian-hq/stratum/pkg/resolver"
)

// ResolutionObserver feeds resolver outcomes into the collector. It is
// registered alongside the audit observer when the resolver is built.
//
// Every resolution increments the tier counters; the cache hit/miss
// counters for the value cache derive from the answering tier, since
// any tier past the cache means the cache had no live entry.
type ResolutionObserver struct {
	collector *Collector
}

// NewResolutionObserver creates an observer recording on c.
func NewResolutionObserver(c *Collector) *ResolutionObserver {
	return &ResolutionObserver{collector: c}
}

// ObserveResolution implements resolver.Observer. Recording is a few
// counter increments, well within the observer non-blocking contract.
func (o *ResolutionObserver) ObserveResolution(_ context.Context, res resolver.Resolution) {
	o.collector.RecordResolution(string(res.Source), res.Found, res.Duration)

	if res.Source == resolver.SourceCache {
		o.collector.RecordCacheHit("config")
	} else {
		o.collector.RecordCacheMiss("config")
	}
}
