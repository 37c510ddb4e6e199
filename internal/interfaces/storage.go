package interfaces

import (
	"context"
	"time"

	"github.com/jcalder/brokerd/internal/models"
)

// StorageManager coordinates all storage backends
type StorageManager interface {
	StockStore() StockStore
	TradeStore() TradeStore
	PortfolioStore() PortfolioStore
	ReportStore() ReportStore
	JobQueueStore() JobQueueStore

	Close() error
}

// StockStore persists vendor-sourced quotes.
type StockStore interface {
	Upsert(ctx context.Context, stock *models.Stock) error
	UpsertBatch(ctx context.Context, stocks []models.Stock) error
	Get(ctx context.Context, symbol string) (*models.Stock, error)
	Count(ctx context.Context) (int, error)
}

// TradeStore persists trade attempts. Insert creates the PENDING row;
// UpdateStatus performs the single terminal transition.
type TradeStore interface {
	Insert(ctx context.Context, trade *models.Trade) error
	UpdateStatus(ctx context.Context, id, status, reason string) error
	Get(ctx context.Context, id string) (*models.Trade, error)
	ListByTimeRange(ctx context.Context, from, to time.Time) ([]models.Trade, error)
}

// PortfolioStore persists holdings. ApplyDelta is the storage-level atomic
// read-modify-write: concurrent deltas on the same holding must not lose
// updates.
type PortfolioStore interface {
	ApplyDelta(ctx context.Context, userID, symbol string, delta int) error
	Get(ctx context.Context, userID, symbol string) (*models.Holding, error)
	ListByUser(ctx context.Context, userID string) ([]models.Holding, error)
}

// ReportStore persists generated daily reports keyed by date.
type ReportStore interface {
	Save(ctx context.Context, report *models.DailyReport) error
	Get(ctx context.Context, date string) (*models.DailyReport, error)
	MarkDispatched(ctx context.Context, date string, at time.Time) error
}

// JobQueueStore manages the persistent report job queue
type JobQueueStore interface {
	Enqueue(ctx context.Context, job *models.Job) error
	// Dequeue atomically claims the oldest runnable pending job, or returns
	// nil when none is eligible.
	Dequeue(ctx context.Context) (*models.Job, error)
	Complete(ctx context.Context, id string, jobErr error, durationMS int64) error
	// Reschedule returns a failed attempt to pending with a delayed
	// NextRunAt.
	Reschedule(ctx context.Context, job *models.Job, runAt time.Time) error
	HasPendingJob(ctx context.Context, jobType, date string) (bool, error)
	ListAll(ctx context.Context, limit int) ([]*models.Job, error)
	CountPending(ctx context.Context) (int, error)
	PurgeCompleted(ctx context.Context, olderThan time.Time) (int, error)
	ResetRunningJobs(ctx context.Context) (int, error)
}
