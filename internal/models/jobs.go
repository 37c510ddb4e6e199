package models

import "time"

// Job represents a unit of work in the report job queue.
type Job struct {
	ID          string    `json:"id" badgerhold:"key"`
	JobType     string    `json:"job_type" badgerhold:"index"`
	Date        string    `json:"date"` // report day, "2006-01-02"
	Status      string    `json:"status" badgerhold:"index"`
	CreatedAt   time.Time `json:"created_at"`
	StartedAt   time.Time `json:"started_at"`
	CompletedAt time.Time `json:"completed_at"`
	NextRunAt   time.Time `json:"next_run_at"` // earliest dequeue time; zero = immediately
	Error       string    `json:"error,omitempty"`
	Attempts    int       `json:"attempts"`
	MaxAttempts int       `json:"max_attempts"`
	DurationMS  int64     `json:"duration_ms"`
}

// Job type constants
const (
	JobTypeDailyReport = "generate_daily_report"
)

// Job status constants
const (
	JobStatusPending   = "pending"
	JobStatusRunning   = "running"
	JobStatusCompleted = "completed"
	JobStatusFailed    = "failed"
)

// Runnable reports whether the job is eligible for dequeue at the given time.
func (j *Job) Runnable(now time.Time) bool {
	return j.Status == JobStatusPending && !j.NextRunAt.After(now)
}
