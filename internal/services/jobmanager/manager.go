// Package jobmanager runs the durable report job queue: a processor pool
// dequeues jobs, executes them, and reschedules failures with delayed
// retries. Jobs survive restarts because the queue is persistent.
package jobmanager

import (
	"context"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	"github.com/jcalder/brokerd/internal/common"
	"github.com/jcalder/brokerd/internal/interfaces"
	"github.com/jcalder/brokerd/internal/models"
)

// JobManager runs the processor pool and the daily report scheduler.
type JobManager struct {
	reports interfaces.ReportService
	storage interfaces.StorageManager
	logger  *common.Logger
	config  common.JobsConfig

	backoffs []time.Duration
	cancel   context.CancelFunc
	wg       sync.WaitGroup
}

// NewJobManager creates a new job manager.
func NewJobManager(reports interfaces.ReportService, storage interfaces.StorageManager, logger *common.Logger, config common.JobsConfig) *JobManager {
	return &JobManager{
		reports:  reports,
		storage:  storage,
		logger:   logger,
		config:   config,
		backoffs: config.GetRetryBackoffs(),
	}
}

// safeGo launches a goroutine with panic recovery and logging.
func (jm *JobManager) safeGo(name string, fn func()) {
	jm.wg.Add(1)
	go func() {
		defer jm.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				jm.logger.Error().
					Str("goroutine", name).
					Str("panic", fmt.Sprintf("%v", r)).
					Str("stack", string(debug.Stack())).
					Msg("Recovered from panic in job manager goroutine")
			}
		}()
		fn()
	}()
}

// Start launches the processor pool and scheduler. Safe to call multiple
// times; any running loops are stopped first.
func (jm *JobManager) Start() {
	if jm.cancel != nil {
		jm.Stop()
	}

	ctx, cancel := context.WithCancel(context.Background())
	jm.cancel = cancel

	// Jobs stranded in running by a crash go back to pending.
	if count, err := jm.storage.JobQueueStore().ResetRunningJobs(ctx); err != nil {
		jm.logger.Warn().Err(err).Msg("Failed to reset orphaned running jobs")
	} else if count > 0 {
		jm.logger.Warn().Int("reset", count).Msg("Orphaned jobs returned to pending")
	}

	workers := jm.config.Workers
	if workers <= 0 {
		workers = 10
	}
	for i := 0; i < workers; i++ {
		name := fmt.Sprintf("processor-%d", i)
		jm.safeGo(name, func() { jm.processLoop(ctx) })
	}

	if jm.config.SchedulerOn {
		jm.safeGo("scheduler", func() { jm.scheduleLoop(ctx) })
	}

	jm.logger.Info().
		Int("workers", workers).
		Bool("scheduler", jm.config.SchedulerOn).
		Msg("Job manager started")
}

// Stop cancels all loops and waits for in-flight jobs to finish.
func (jm *JobManager) Stop() {
	if jm.cancel != nil {
		jm.cancel()
		jm.cancel = nil
	}
	jm.wg.Wait()
	jm.logger.Info().Msg("Job manager stopped")
}

// EnqueueDailyReport queues a report job for the given date, deduplicating
// against jobs already pending or running for that date.
func (jm *JobManager) EnqueueDailyReport(ctx context.Context, date time.Time) (*models.Job, error) {
	key := date.UTC().Format("2006-01-02")

	queue := jm.storage.JobQueueStore()
	exists, err := queue.HasPendingJob(ctx, models.JobTypeDailyReport, key)
	if err != nil {
		return nil, common.NewStorageError("failed to check job queue", err)
	}
	if exists {
		jm.logger.Debug().Str("date", key).Msg("Report job already queued")
		return nil, nil
	}

	job := &models.Job{
		JobType:     models.JobTypeDailyReport,
		Date:        key,
		MaxAttempts: len(jm.backoffs) + 1,
	}
	if err := queue.Enqueue(ctx, job); err != nil {
		return nil, common.NewStorageError("failed to enqueue report job", err)
	}

	jm.logger.Info().Str("job_id", job.ID).Str("date", key).Msg("Report job enqueued")
	return job, nil
}

// EnqueueBackfill queues one report job per day for the last n days,
// yesterday first.
func (jm *JobManager) EnqueueBackfill(ctx context.Context, days int) ([]*models.Job, error) {
	if days < 1 {
		days = 1
	}

	var jobs []*models.Job
	today := time.Now().UTC().Truncate(24 * time.Hour)
	for i := 1; i <= days; i++ {
		job, err := jm.EnqueueDailyReport(ctx, today.AddDate(0, 0, -i))
		if err != nil {
			return jobs, err
		}
		if job != nil {
			jobs = append(jobs, job)
		}
	}
	return jobs, nil
}

// processLoop continuously dequeues and executes jobs.
func (jm *JobManager) processLoop(ctx context.Context) {
	poll := jm.config.GetPollInterval()

	for {
		select {
		case <-ctx.Done():
			return
		default:
			job, err := jm.storage.JobQueueStore().Dequeue(ctx)
			if err != nil {
				jm.logger.Warn().Err(err).Msg("Processor: dequeue error")
				if !jm.pause(ctx, poll) {
					return
				}
				continue
			}
			if job == nil {
				if !jm.pause(ctx, poll) {
					return
				}
				continue
			}

			jm.runJob(ctx, job)
		}
	}
}

// runJob executes one claimed job and records the outcome: completed,
// rescheduled for retry, or permanently failed.
func (jm *JobManager) runJob(ctx context.Context, job *models.Job) {
	start := time.Now()
	execErr := jm.executeJob(ctx, job)
	durationMS := time.Since(start).Milliseconds()

	if execErr == nil {
		jm.logger.Info().
			Str("job_id", job.ID).
			Str("job_type", job.JobType).
			Int64("duration_ms", durationMS).
			Msg("Job completed")
		jm.complete(ctx, job, nil, durationMS)
		return
	}

	jm.logger.Warn().
		Str("job_id", job.ID).
		Str("job_type", job.JobType).
		Int("attempt", job.Attempts).
		Int("max", job.MaxAttempts).
		Int64("duration_ms", durationMS).
		Err(execErr).
		Msg("Job failed")

	if job.Attempts < job.MaxAttempts {
		runAt := time.Now().Add(jm.retryDelay(job.Attempts))
		if err := jm.storage.JobQueueStore().Reschedule(ctx, job, runAt); err != nil {
			jm.logger.Warn().Str("job_id", job.ID).Err(err).Msg("Failed to reschedule job")
			jm.complete(ctx, job, execErr, durationMS)
		}
		return
	}

	// Retries exhausted; the job stays visible as failed.
	jm.complete(ctx, job, execErr, durationMS)
}

// retryDelay returns the backoff before the next attempt. attempts is the
// number already made, so the first retry uses backoffs[0].
func (jm *JobManager) retryDelay(attempts int) time.Duration {
	idx := attempts - 1
	if idx < 0 {
		idx = 0
	}
	if idx >= len(jm.backoffs) {
		idx = len(jm.backoffs) - 1
	}
	return jm.backoffs[idx]
}

func (jm *JobManager) complete(ctx context.Context, job *models.Job, jobErr error, durationMS int64) {
	if err := jm.storage.JobQueueStore().Complete(ctx, job.ID, jobErr, durationMS); err != nil {
		jm.logger.Warn().Str("job_id", job.ID).Err(err).Msg("Failed to record job outcome")
	}
}

// pause sleeps for d, returning false when the context is cancelled.
func (jm *JobManager) pause(ctx context.Context, d time.Duration) bool {
	select {
	case <-ctx.Done():
		return false
	case <-time.After(d):
		return true
	}
}
