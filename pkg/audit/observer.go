package audit

import (
	"context"
	"time"

	"github.com/google/uuid"

	"meridian-hq/stratum/pkg/resolver"
	"meridian-hq/stratum/pkg/security/classify"
	"meridian-hq/stratum/pkg/server/middleware"
)

// ResolutionObserver adapts a Recorder to the resolver's observer hook.
// Values are classified and masked here, at the observation site, so
// nothing sensitive crosses into the recorder's buffer in clear text.
type ResolutionObserver struct {
	recorder *Recorder
}

// NewResolutionObserver creates an observer feeding the given recorder.
func NewResolutionObserver(recorder *Recorder) *ResolutionObserver {
	return &ResolutionObserver{recorder: recorder}
}

// ObserveResolution implements resolver.Observer.
func (o *ResolutionObserver) ObserveResolution(ctx context.Context, res resolver.Resolution) {
	category, masked := classify.MaskFor(res.Key, res.Value)

	event := &Event{
		ID:          uuid.New().String(),
		Timestamp:   time.Now(),
		Key:         res.Key,
		Environment: res.Environment,
		Source:      string(res.Source),
		Category:    category.String(),
		Value:       masked,
		Found:       res.Found,
		RequestID:   middleware.GetRequestID(ctx),
	}

	// Drop failures silently; recording must never affect resolution
	_ = o.recorder.Record(ctx, event)
}
