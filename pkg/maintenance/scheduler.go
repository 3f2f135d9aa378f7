package maintenance

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"meridian-hq/stratum/pkg/admin"
	"meridian-hq/stratum/pkg/audit"
	"meridian-hq/stratum/pkg/telemetry/metrics"
)

// Default schedules for the periodic jobs.
const (
	DefaultSweepSchedule     = "*/10 * * * *"
	DefaultRetentionSchedule = "0 3 * * *"
)

// Config controls the maintenance jobs. Empty schedules disable the
// corresponding job.
type Config struct {
	// SweepSchedule is the cron expression for the cache expiry sweep.
	SweepSchedule string

	// RetentionSchedule is the cron expression for audit retention pruning.
	RetentionSchedule string

	// RetentionMaxAge is how long audit events are kept. Zero disables
	// pruning even when a schedule is set.
	RetentionMaxAge time.Duration
}

// Scheduler runs the periodic maintenance jobs: the cache expiry sweep
// (admin.ClearExpired) and audit retention pruning. The resolution caches
// own no timers themselves; this is the only component that invokes
// expiry on a schedule.
type Scheduler struct {
	config Config
	caches *admin.Manager
	audits audit.Storage
	stats  *metrics.Collector

	cron    *cron.Cron
	sweepID cron.EntryID
	pruneID cron.EntryID

	mu      sync.Mutex
	logger  *slog.Logger
	running bool
}

// NewScheduler creates a maintenance scheduler. A nil audits storage
// disables retention pruning; a nil stats collector skips eviction
// metrics.
func NewScheduler(cfg Config, caches *admin.Manager, audits audit.Storage, stats *metrics.Collector) *Scheduler {
	return &Scheduler{
		config: cfg,
		caches: caches,
		audits: audits,
		stats:  stats,
		cron:   cron.New(),
		logger: slog.Default().With("component", "maintenance"),
	}
}

// Start schedules the configured jobs and begins running them. The
// scheduler stops itself when ctx is cancelled.
//
// Common cron expressions:
//   - "*/10 * * * *" - Every 10 minutes
//   - "0 3 * * *"    - Daily at 3 AM
//   - "0 */6 * * *"  - Every 6 hours
//
// With no job configured, Start logs and returns without starting.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	scheduled := 0

	if s.caches != nil && s.config.SweepSchedule != "" {
		if _, err := cron.ParseStandard(s.config.SweepSchedule); err != nil {
			return fmt.Errorf("invalid sweep schedule %q: %w", s.config.SweepSchedule, err)
		}

		id, err := s.cron.AddFunc(s.config.SweepSchedule, func() {
			s.runSweep()
		})
		if err != nil {
			return fmt.Errorf("failed to schedule cache sweep: %w", err)
		}
		s.sweepID = id
		scheduled++
	}

	if s.audits != nil && s.config.RetentionSchedule != "" && s.config.RetentionMaxAge > 0 {
		if _, err := cron.ParseStandard(s.config.RetentionSchedule); err != nil {
			return fmt.Errorf("invalid retention schedule %q: %w", s.config.RetentionSchedule, err)
		}

		id, err := s.cron.AddFunc(s.config.RetentionSchedule, func() {
			s.runRetention(ctx)
		})
		if err != nil {
			return fmt.Errorf("failed to schedule retention pruning: %w", err)
		}
		s.pruneID = id
		scheduled++
	}

	if scheduled == 0 {
		s.logger.Info("no maintenance jobs configured, skipping scheduler")
		return nil
	}

	s.cron.Start()
	s.running = true

	s.logger.Info("maintenance scheduler started",
		"sweep_schedule", s.config.SweepSchedule,
		"retention_schedule", s.config.RetentionSchedule,
		"retention_max_age", s.config.RetentionMaxAge.String(),
		"jobs", scheduled,
	)

	go func() {
		<-ctx.Done()
		s.Stop()
	}()

	return nil
}

// runSweep executes one cache expiry sweep.
func (s *Scheduler) runSweep() {
	result := s.caches.ClearExpired()

	if s.stats != nil {
		s.stats.RecordCacheEvictions("config", result.ConfigEntries)
		s.stats.RecordCacheEvictions("environment", result.EnvironmentEntries)
	}

	if result.Total() > 0 {
		s.logger.Info("cache sweep completed",
			"config_entries", result.ConfigEntries,
			"environment_entries", result.EnvironmentEntries,
		)
	} else {
		s.logger.Debug("cache sweep completed, nothing expired")
	}
}

// runRetention executes one audit retention pruning cycle.
func (s *Scheduler) runRetention(ctx context.Context) {
	cutoff := time.Now().Add(-s.config.RetentionMaxAge)

	deleted, err := s.audits.DeleteBefore(ctx, cutoff)
	if err != nil {
		s.logger.Error("audit retention pruning failed",
			"cutoff", cutoff.Format(time.RFC3339),
			"error", err,
		)
		return
	}

	if deleted > 0 {
		s.logger.Info("audit retention pruning completed",
			"deleted_count", deleted,
			"cutoff", cutoff.Format(time.RFC3339),
		)
	} else {
		s.logger.Debug("audit retention pruning completed, no events deleted")
	}
}

// Stop stops the scheduler and waits for any running jobs to complete.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cron != nil && s.running {
		ctx := s.cron.Stop()
		<-ctx.Done() // Wait for running jobs to finish
		s.running = false
		s.logger.Info("maintenance scheduler stopped")
	}
}

// IsRunning returns true if the scheduler is running.
func (s *Scheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.running
}

// NextSweep returns the next scheduled cache sweep time, or nil when the
// sweep job is not scheduled.
func (s *Scheduler) NextSweep() *time.Time {
	return s.nextRun(s.sweepID)
}

// NextRetention returns the next scheduled retention pruning time, or nil
// when the retention job is not scheduled.
func (s *Scheduler) NextRetention() *time.Time {
	return s.nextRun(s.pruneID)
}

func (s *Scheduler) nextRun(id cron.EntryID) *time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running || id == 0 {
		return nil
	}

	entry := s.cron.Entry(id)
	if entry.ID == 0 {
		return nil
	}

	next := entry.Next
	return &next
}
