package jobmanager

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jcalder/brokerd/internal/common"
	"github.com/jcalder/brokerd/internal/interfaces"
	"github.com/jcalder/brokerd/internal/models"
)

// memQueue is an in-memory JobQueueStore for driving the manager directly.
type memQueue struct {
	mu   sync.Mutex
	jobs map[string]*models.Job
}

func newMemQueue() *memQueue {
	return &memQueue{jobs: map[string]*models.Job{}}
}

func (q *memQueue) Enqueue(_ context.Context, job *models.Job) error {
	q.mu.Lock()
	defer q.mu.Unlock()
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
		job.MaxAttempts = 4
	}
	cp := *job
	q.jobs[job.ID] = &cp
	return nil
}

func (q *memQueue) Dequeue(_ context.Context) (*models.Job, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	now := time.Now()
	var candidate *models.Job
	for _, j := range q.jobs {
		if !j.Runnable(now) {
			continue
		}
		if candidate == nil || j.CreatedAt.Before(candidate.CreatedAt) {
			candidate = j
		}
	}
	if candidate == nil {
		return nil, nil
	}
	candidate.Status = models.JobStatusRunning
	candidate.StartedAt = now
	candidate.Attempts++
	cp := *candidate
	return &cp, nil
}

func (q *memQueue) Complete(_ context.Context, id string, jobErr error, durationMS int64) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	j := q.jobs[id]
	if j == nil {
		return errors.New("job not found")
	}
	j.CompletedAt = time.Now()
	j.DurationMS = durationMS
	if jobErr != nil {
		j.Status = models.JobStatusFailed
		j.Error = jobErr.Error()
	} else {
		j.Status = models.JobStatusCompleted
	}
	return nil
}

func (q *memQueue) Reschedule(_ context.Context, job *models.Job, runAt time.Time) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	j := q.jobs[job.ID]
	if j == nil {
		return errors.New("job not found")
	}
	j.Status = models.JobStatusPending
	j.NextRunAt = runAt
	j.Attempts = job.Attempts
	return nil
}

func (q *memQueue) HasPendingJob(_ context.Context, jobType, date string) (bool, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	for _, j := range q.jobs {
		if j.JobType == jobType && j.Date == date &&
			(j.Status == models.JobStatusPending || j.Status == models.JobStatusRunning) {
			return true, nil
		}
	}
	return false, nil
}

func (q *memQueue) ListAll(_ context.Context, limit int) ([]*models.Job, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	var out []*models.Job
	for _, j := range q.jobs {
		cp := *j
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, k int) bool { return out[i].CreatedAt.After(out[k].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (q *memQueue) CountPending(_ context.Context) (int, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	n := 0
	for _, j := range q.jobs {
		if j.Status == models.JobStatusPending {
			n++
		}
	}
	return n, nil
}

func (q *memQueue) PurgeCompleted(_ context.Context, olderThan time.Time) (int, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	n := 0
	for id, j := range q.jobs {
		if j.Status == models.JobStatusCompleted && j.CompletedAt.Before(olderThan) {
			delete(q.jobs, id)
			n++
		}
	}
	return n, nil
}

func (q *memQueue) ResetRunningJobs(_ context.Context) (int, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	n := 0
	for _, j := range q.jobs {
		if j.Status == models.JobStatusRunning {
			j.Status = models.JobStatusPending
			j.StartedAt = time.Time{}
			n++
		}
	}
	return n, nil
}

func (q *memQueue) get(id string) *models.Job {
	q.mu.Lock()
	defer q.mu.Unlock()
	cp := *q.jobs[id]
	return &cp
}

// fakeStorage exposes only the job queue; the manager touches nothing else.
type fakeStorage struct {
	queue *memQueue
}

func (s *fakeStorage) StockStore() interfaces.StockStore         { return nil }
func (s *fakeStorage) TradeStore() interfaces.TradeStore         { return nil }
func (s *fakeStorage) PortfolioStore() interfaces.PortfolioStore { return nil }
func (s *fakeStorage) ReportStore() interfaces.ReportStore       { return nil }
func (s *fakeStorage) JobQueueStore() interfaces.JobQueueStore   { return s.queue }
func (s *fakeStorage) Close() error                              { return nil }

type fakeReports struct {
	mu    sync.Mutex
	calls []string
	errs  []error
}

func (r *fakeReports) GenerateDailyReport(_ context.Context, date time.Time) (*models.DailyReport, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, date.Format("2006-01-02"))
	if len(r.errs) > 0 {
		err := r.errs[0]
		r.errs = r.errs[1:]
		return nil, err
	}
	return &models.DailyReport{Date: date.Format("2006-01-02")}, nil
}

func newTestManager(reports *fakeReports) (*JobManager, *memQueue) {
	queue := newMemQueue()
	cfg := common.JobsConfig{Workers: 2, PollInterval: "10ms", RetryBackoffs: "1m,5m,15m"}
	jm := NewJobManager(reports, &fakeStorage{queue: queue}, common.NewSilentLogger(), cfg)
	return jm, queue
}

func TestEnqueueDailyReportDeduplicates(t *testing.T) {
	jm, queue := newTestManager(&fakeReports{})
	ctx := context.Background()
	date := time.Date(2026, 8, 20, 0, 0, 0, 0, time.UTC)

	job, err := jm.EnqueueDailyReport(ctx, date)
	require.NoError(t, err)
	require.NotNil(t, job)

	dup, err := jm.EnqueueDailyReport(ctx, date)
	require.NoError(t, err)
	assert.Nil(t, dup, "a pending job for the date suppresses re-enqueue")

	pending, _ := queue.CountPending(ctx)
	assert.Equal(t, 1, pending)
}

func TestEnqueueBackfill(t *testing.T) {
	jm, _ := newTestManager(&fakeReports{})

	jobs, err := jm.EnqueueBackfill(context.Background(), 3)
	require.NoError(t, err)
	require.Len(t, jobs, 3)

	dates := map[string]bool{}
	for _, j := range jobs {
		dates[j.Date] = true
	}
	assert.Len(t, dates, 3, "one job per distinct day")
}

func TestRunJobSuccess(t *testing.T) {
	reports := &fakeReports{}
	jm, queue := newTestManager(reports)
	ctx := context.Background()

	job, err := jm.EnqueueDailyReport(ctx, time.Date(2026, 8, 20, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	claimed, err := queue.Dequeue(ctx)
	require.NoError(t, err)
	jm.runJob(ctx, claimed)

	assert.Equal(t, []string{"2026-08-20"}, reports.calls)
	assert.Equal(t, models.JobStatusCompleted, queue.get(job.ID).Status)
}

func TestRunJobReschedulesWithBackoff(t *testing.T) {
	reports := &fakeReports{errs: []error{errors.New("smtp down")}}
	jm, queue := newTestManager(reports)
	ctx := context.Background()

	job, err := jm.EnqueueDailyReport(ctx, time.Date(2026, 8, 20, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	claimed, err := queue.Dequeue(ctx)
	require.NoError(t, err)
	before := time.Now()
	jm.runJob(ctx, claimed)

	got := queue.get(job.ID)
	assert.Equal(t, models.JobStatusPending, got.Status)
	assert.Equal(t, 1, got.Attempts)

	// First retry waits about a minute.
	wait := got.NextRunAt.Sub(before)
	assert.InDelta(t, time.Minute.Seconds(), wait.Seconds(), 5)

	// Not dequeued again before NextRunAt.
	next, err := queue.Dequeue(ctx)
	require.NoError(t, err)
	assert.Nil(t, next)
}

func TestRunJobExhaustsRetries(t *testing.T) {
	reports := &fakeReports{errs: []error{
		errors.New("e1"), errors.New("e2"), errors.New("e3"), errors.New("e4"),
	}}
	jm, queue := newTestManager(reports)
	ctx := context.Background()

	job, err := jm.EnqueueDailyReport(ctx, time.Date(2026, 8, 20, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	for attempt := 0; attempt < 4; attempt++ {
		claimed := queue.get(job.ID)
		claimed.Status = models.JobStatusRunning
		claimed.Attempts = attempt + 1
		queue.jobs[job.ID].Attempts = attempt + 1
		queue.jobs[job.ID].Status = models.JobStatusRunning
		jm.runJob(ctx, claimed)
	}

	got := queue.get(job.ID)
	assert.Equal(t, models.JobStatusFailed, got.Status)
	assert.Equal(t, "e4", got.Error)
	assert.Len(t, reports.calls, 4)
}

func TestRetryDelaySchedule(t *testing.T) {
	jm, _ := newTestManager(&fakeReports{})

	assert.Equal(t, 1*time.Minute, jm.retryDelay(1))
	assert.Equal(t, 5*time.Minute, jm.retryDelay(2))
	assert.Equal(t, 15*time.Minute, jm.retryDelay(3))
	assert.Equal(t, 15*time.Minute, jm.retryDelay(9), "delay clamps at the last step")
}

func TestExecuteJobUnknownType(t *testing.T) {
	jm, _ := newTestManager(&fakeReports{})

	err := jm.executeJob(context.Background(), &models.Job{ID: "x", JobType: "mystery"})
	assert.Error(t, err)
}

func TestNextRun(t *testing.T) {
	now := time.Date(2026, 8, 20, 5, 0, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2026, 8, 20, 6, 0, 0, 0, time.UTC), nextRun(now, 6))

	late := time.Date(2026, 8, 20, 7, 30, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2026, 8, 21, 6, 0, 0, 0, time.UTC), nextRun(late, 6))
}

func TestProcessLoopDrainsQueue(t *testing.T) {
	reports := &fakeReports{}
	jm, queue := newTestManager(reports)
	ctx := context.Background()

	for i := 1; i <= 3; i++ {
		_, err := jm.EnqueueDailyReport(ctx, time.Date(2026, 8, 10+i, 0, 0, 0, 0, time.UTC))
		require.NoError(t, err)
	}

	jm.Start()
	defer jm.Stop()

	require.Eventually(t, func() bool {
		pending, _ := queue.CountPending(ctx)
		jobs, _ := queue.ListAll(ctx, 10)
		done := 0
		for _, j := range jobs {
			if j.Status == models.JobStatusCompleted {
				done++
			}
		}
		return pending == 0 && done == 3
	}, 2*time.Second, 10*time.Millisecond)
}
