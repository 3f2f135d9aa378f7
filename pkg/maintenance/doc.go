/*
Package maintenance runs the periodic housekeeping jobs of stratum on
cron schedules.

Two jobs exist:

  - Cache sweep: calls admin.ClearExpired to drop value-cache and
    environment-cache entries whose TTL has elapsed. The sweep only
    bounds memory; expired entries are already invisible to lookups.
  - Audit retention: deletes audit events older than the configured
    maximum age through audit.Storage.DeleteBefore.

The resolution caches deliberately own no timers or goroutines. This
package is the single place where expiry runs on a schedule, so a
deployment that never constructs a Scheduler simply accumulates expired
entries until the next explicit clear.

Wiring:

	sched := maintenance.NewScheduler(maintenance.Config{
		SweepSchedule:     cfg.Maintenance.SweepSchedule,
		RetentionSchedule: cfg.Audit.Retention.Schedule,
		RetentionMaxAge:   cfg.Audit.Retention.MaxAge,
	}, manager, auditStorage, collector)

	if err := sched.Start(ctx); err != nil {
		return err
	}
	defer sched.Stop()
*/
package maintenance
