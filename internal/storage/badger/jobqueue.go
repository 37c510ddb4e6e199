package badger

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/timshannon/badgerhold/v4"

	"github.com/jcalder/brokerd/internal/common"
	"github.com/jcalder/brokerd/internal/models"
)

// jobQueueStorage implements the persistent report job queue. The claim
// mutex makes Dequeue's select-then-update atomic within the process; the
// store is embedded and single-process, so no cross-process claim exists.
type jobQueueStorage struct {
	store  *Store
	logger *common.Logger

	claimMu sync.Mutex
}

// NewJobQueueStorage creates a JobQueueStore backed by BadgerHold.
func NewJobQueueStorage(store *Store, logger *common.Logger) *jobQueueStorage {
	return &jobQueueStorage{store: store, logger: logger}
}

func (s *jobQueueStorage) Enqueue(_ context.Context, job *models.Job) error {
	if job.ID == "" {
		job.ID = uuid.New().String()[:8]
	}
	if job.Status == "" {
		job.Status = models.JobStatusPending
	}
	if job.CreatedAt.IsZero() {
		job.CreatedAt = time.Now()
	}
	if job.MaxAttempts == 0 {
		job.MaxAttempts = 4 // initial attempt plus three retries
	}

	if err := s.store.db.Upsert(job.ID, job); err != nil {
		return fmt.Errorf("failed to enqueue job: %w", err)
	}

	s.logger.Debug().
		Str("job_id", job.ID).
		Str("job_type", job.JobType).
		Str("date", job.Date).
		Msg("Job enqueued")
	return nil
}

// Dequeue claims the oldest pending job whose NextRunAt has passed, marking
// it running. Returns nil when nothing is eligible.
func (s *jobQueueStorage) Dequeue(_ context.Context) (*models.Job, error) {
	s.claimMu.Lock()
	defer s.claimMu.Unlock()

	now := time.Now()

	var pending []models.Job
	query := badgerhold.Where("Status").Eq(models.JobStatusPending).Index("Status")
	if err := s.store.db.Find(&pending, query); err != nil {
		return nil, fmt.Errorf("failed to select candidate jobs: %w", err)
	}

	var candidate *models.Job
	for i := range pending {
		if !pending[i].Runnable(now) {
			continue
		}
		if candidate == nil || pending[i].CreatedAt.Before(candidate.CreatedAt) {
			candidate = &pending[i]
		}
	}
	if candidate == nil {
		return nil, nil
	}

	candidate.Status = models.JobStatusRunning
	candidate.StartedAt = now
	candidate.Attempts++
	if err := s.store.db.Update(candidate.ID, candidate); err != nil {
		return nil, fmt.Errorf("failed to claim job '%s': %w", candidate.ID, err)
	}

	return candidate, nil
}

// Complete records the terminal outcome of a claimed job.
func (s *jobQueueStorage) Complete(_ context.Context, id string, jobErr error, durationMS int64) error {
	var job models.Job
	if err := s.store.db.Get(id, &job); err != nil {
		if err == badgerhold.ErrNotFound {
			return fmt.Errorf("job '%s' not found", id)
		}
		return fmt.Errorf("failed to get job '%s': %w", id, err)
	}

	job.CompletedAt = time.Now()
	job.DurationMS = durationMS
	if jobErr != nil {
		job.Status = models.JobStatusFailed
		job.Error = jobErr.Error()
	} else {
		job.Status = models.JobStatusCompleted
		job.Error = ""
	}

	if err := s.store.db.Update(id, &job); err != nil {
		return fmt.Errorf("failed to complete job '%s': %w", id, err)
	}
	return nil
}

// Reschedule returns a failed attempt to pending with a delayed NextRunAt.
func (s *jobQueueStorage) Reschedule(_ context.Context, job *models.Job, runAt time.Time) error {
	job.Status = models.JobStatusPending
	job.NextRunAt = runAt

	if err := s.store.db.Update(job.ID, job); err != nil {
		return fmt.Errorf("failed to reschedule job '%s': %w", job.ID, err)
	}

	s.logger.Debug().
		Str("job_id", job.ID).
		Int("attempts", job.Attempts).
		Time("next_run_at", runAt).
		Msg("Job rescheduled")
	return nil
}

func (s *jobQueueStorage) HasPendingJob(_ context.Context, jobType, date string) (bool, error) {
	var jobs []models.Job
	query := badgerhold.Where("JobType").Eq(jobType).Index("JobType").
		And("Date").Eq(date).
		And("Status").In(models.JobStatusPending, models.JobStatusRunning)
	if err := s.store.db.Find(&jobs, query); err != nil {
		return false, fmt.Errorf("failed to query jobs: %w", err)
	}
	return len(jobs) > 0, nil
}

func (s *jobQueueStorage) ListAll(_ context.Context, limit int) ([]*models.Job, error) {
	var jobs []models.Job
	if err := s.store.db.Find(&jobs, nil); err != nil {
		return nil, fmt.Errorf("failed to list jobs: %w", err)
	}

	// Newest first.
	sort.Slice(jobs, func(i, j int) bool {
		return jobs[i].CreatedAt.After(jobs[j].CreatedAt)
	})
	if limit > 0 && len(jobs) > limit {
		jobs = jobs[:limit]
	}

	out := make([]*models.Job, len(jobs))
	for i := range jobs {
		out[i] = &jobs[i]
	}
	return out, nil
}

func (s *jobQueueStorage) CountPending(_ context.Context) (int, error) {
	var jobs []models.Job
	query := badgerhold.Where("Status").Eq(models.JobStatusPending).Index("Status")
	if err := s.store.db.Find(&jobs, query); err != nil {
		return 0, fmt.Errorf("failed to count pending jobs: %w", err)
	}
	return len(jobs), nil
}

func (s *jobQueueStorage) PurgeCompleted(_ context.Context, olderThan time.Time) (int, error) {
	var jobs []models.Job
	query := badgerhold.Where("Status").Eq(models.JobStatusCompleted).Index("Status").
		And("CompletedAt").Lt(olderThan)
	if err := s.store.db.Find(&jobs, query); err != nil {
		return 0, fmt.Errorf("failed to select completed jobs: %w", err)
	}

	purged := 0
	for i := range jobs {
		if err := s.store.db.Delete(jobs[i].ID, models.Job{}); err != nil {
			if err == badgerhold.ErrNotFound {
				continue
			}
			return purged, fmt.Errorf("failed to purge job '%s': %w", jobs[i].ID, err)
		}
		purged++
	}

	if purged > 0 {
		s.logger.Info().Int("purged", purged).Msg("Completed jobs purged")
	}
	return purged, nil
}

// ResetRunningJobs returns jobs stranded in running (by a crash) to pending
// so they are retried on startup.
func (s *jobQueueStorage) ResetRunningJobs(_ context.Context) (int, error) {
	var jobs []models.Job
	query := badgerhold.Where("Status").Eq(models.JobStatusRunning).Index("Status")
	if err := s.store.db.Find(&jobs, query); err != nil {
		return 0, fmt.Errorf("failed to select running jobs: %w", err)
	}

	reset := 0
	for i := range jobs {
		jobs[i].Status = models.JobStatusPending
		jobs[i].StartedAt = time.Time{}
		if err := s.store.db.Update(jobs[i].ID, &jobs[i]); err != nil {
			return reset, fmt.Errorf("failed to reset job '%s': %w", jobs[i].ID, err)
		}
		reset++
	}

	if reset > 0 {
		s.logger.Warn().Int("reset", reset).Msg("Interrupted jobs returned to pending")
	}
	return reset, nil
}
