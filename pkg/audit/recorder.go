package audit

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Config contains configuration for the audit recorder.
type Config struct {
	// Enabled enables audit recording.
	Enabled bool

	// AsyncBuffer is the size of the async write channel buffer.
	// Default: 1000
	AsyncBuffer int

	// WriteTimeout bounds both the wait for buffer space and each storage
	// write. Default: 5 seconds
	WriteTimeout time.Duration
}

// DefaultConfig returns the default recorder configuration.
func DefaultConfig() *Config {
	return &Config{
		Enabled:      true,
		AsyncBuffer:  1000,
		WriteTimeout: 5 * time.Second,
	}
}

// Recorder writes audit events asynchronously: Record enqueues and returns,
// a background worker emits the audit log line and persists the event.
//
// Events must arrive with masking already applied; the recorder treats the
// value as safe to log.
type Recorder struct {
	storage   Storage
	config    *Config
	eventChan chan *Event
	wg        sync.WaitGroup
	done      chan struct{}
	closeOnce sync.Once
	logger    *slog.Logger
}

// NewRecorder creates an audit recorder. Pass a nil storage to log events
// without persisting them, and a nil config to use defaults.
func NewRecorder(storage Storage, config *Config) *Recorder {
	if config == nil {
		config = DefaultConfig()
	}
	if config.AsyncBuffer <= 0 {
		config.AsyncBuffer = 1000
	}
	if config.WriteTimeout <= 0 {
		config.WriteTimeout = 5 * time.Second
	}

	r := &Recorder{
		storage:   storage,
		config:    config,
		eventChan: make(chan *Event, config.AsyncBuffer),
		done:      make(chan struct{}),
		logger:    slog.Default().With("component", "audit.recorder"),
	}

	r.wg.Add(1)
	go r.worker()

	r.logger.Info("audit recorder initialized",
		"async_buffer", config.AsyncBuffer,
		"write_timeout", config.WriteTimeout,
		"persistent", storage != nil,
	)

	return r
}

// Record enqueues an event for async writing. It returns immediately; a
// full buffer drops the event after WriteTimeout rather than stalling the
// resolution path.
func (r *Recorder) Record(ctx context.Context, event *Event) error {
	if !r.config.Enabled {
		return nil
	}

	select {
	case r.eventChan <- event:
		return nil
	case <-time.After(r.config.WriteTimeout):
		r.logger.Error("audit channel full, dropping event",
			"event_id", event.ID,
			"key", event.Key,
			"channel_capacity", r.config.AsyncBuffer,
		)
		return NewRecorderError(event.ID, context.DeadlineExceeded)
	case <-r.done:
		r.logger.Warn("recorder shutting down, dropping event",
			"event_id", event.ID,
			"key", event.Key,
		)
		return NewRecorderError(event.ID, context.Canceled)
	}
}

// Pending returns the number of events waiting in the buffer.
func (r *Recorder) Pending() int {
	return len(r.eventChan)
}

// Close shuts the recorder down, draining buffered events first.
func (r *Recorder) Close() error {
	r.closeOnce.Do(func() {
		r.logger.Info("shutting down audit recorder")

		close(r.done)
		r.wg.Wait()

		r.logger.Info("audit recorder shut down complete")
	})
	return nil
}

// worker drains the event channel, logging and persisting each event.
func (r *Recorder) worker() {
	defer r.wg.Done()

	for {
		select {
		case event := <-r.eventChan:
			r.writeEvent(event)

		case <-r.done:
			if pending := len(r.eventChan); pending > 0 {
				r.logger.Info("draining audit channel before shutdown",
					"pending_count", pending,
				)
			}
			for {
				select {
				case event := <-r.eventChan:
					r.writeEvent(event)
				default:
					return
				}
			}
		}
	}
}

// writeEvent emits the audit log line and persists the event when a
// storage backend is configured.
func (r *Recorder) writeEvent(event *Event) {
	r.logger.Info("configuration access",
		"event_id", event.ID,
		"key", event.Key,
		"environment", event.Environment,
		"source", event.Source,
		"category", event.Category,
		"value", event.Value,
		"found", event.Found,
		"request_id", event.RequestID,
	)

	if r.storage == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), r.config.WriteTimeout)
	defer cancel()

	start := time.Now()
	if err := r.storage.Store(ctx, event); err != nil {
		r.logger.Error("failed to store audit event",
			"event_id", event.ID,
			"key", event.Key,
			"error", err,
		)
		return
	}

	if duration := time.Since(start); duration > r.config.WriteTimeout/2 {
		r.logger.Warn("slow audit write",
			"event_id", event.ID,
			"duration_ms", duration.Milliseconds(),
			"threshold_ms", (r.config.WriteTimeout / 2).Milliseconds(),
		)
	}
}
