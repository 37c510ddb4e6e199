package jobmanager

import (
	"context"
	"time"
)

// scheduleLoop enqueues the previous day's report at the configured hour
// (UTC) and purges old completed jobs on each tick. The scheduler only
// enqueues; execution and retries belong to the processor pool.
func (jm *JobManager) scheduleLoop(ctx context.Context) {
	for {
		next := nextRun(time.Now().UTC(), jm.config.ScheduleHour)

		jm.logger.Debug().Time("next_run", next).Msg("Scheduler sleeping until next report window")

		select {
		case <-ctx.Done():
			jm.logger.Info().Msg("Scheduler: stopped")
			return
		case <-time.After(time.Until(next)):
		}

		yesterday := time.Now().UTC().AddDate(0, 0, -1)
		if _, err := jm.EnqueueDailyReport(ctx, yesterday); err != nil {
			jm.logger.Warn().Err(err).Msg("Scheduler: failed to enqueue daily report")
		}

		cutoff := time.Now().Add(-jm.config.GetPurgeAfter())
		if _, err := jm.storage.JobQueueStore().PurgeCompleted(ctx, cutoff); err != nil {
			jm.logger.Warn().Err(err).Msg("Scheduler: purge failed")
		}
	}
}

// nextRun returns the next occurrence of hour:00 UTC strictly after now.
func nextRun(now time.Time, hour int) time.Time {
	next := time.Date(now.Year(), now.Month(), now.Day(), hour, 0, 0, 0, time.UTC)
	if !next.After(now) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}
