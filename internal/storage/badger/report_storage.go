package badger

import (
	"context"
	"fmt"
	"time"

	"github.com/timshannon/badgerhold/v4"

	"github.com/jcalder/brokerd/internal/common"
	"github.com/jcalder/brokerd/internal/models"
)

type reportStorage struct {
	store  *Store
	logger *common.Logger
}

// NewReportStorage creates a ReportStore backed by BadgerHold.
func NewReportStorage(store *Store, logger *common.Logger) *reportStorage {
	return &reportStorage{store: store, logger: logger}
}

// Save upserts the report for its date. A regenerated report replaces the
// prior one but keeps the earlier dispatch timestamp so email stays
// once-per-date.
func (s *reportStorage) Save(_ context.Context, report *models.DailyReport) error {
	var existing models.DailyReport
	if err := s.store.db.Get(report.Date, &existing); err == nil {
		if report.DispatchedAt.IsZero() {
			report.DispatchedAt = existing.DispatchedAt
		}
	}

	if err := s.store.db.Upsert(report.Date, report); err != nil {
		return fmt.Errorf("failed to save report '%s': %w", report.Date, err)
	}
	s.logger.Debug().Str("date", report.Date).Int("trades", report.TotalTrades).Msg("Report saved")
	return nil
}

func (s *reportStorage) Get(_ context.Context, date string) (*models.DailyReport, error) {
	var report models.DailyReport
	err := s.store.db.Get(date, &report)
	if err != nil {
		if err == badgerhold.ErrNotFound {
			return nil, fmt.Errorf("report '%s' not found", date)
		}
		return nil, fmt.Errorf("failed to get report '%s': %w", date, err)
	}
	return &report, nil
}

func (s *reportStorage) MarkDispatched(_ context.Context, date string, at time.Time) error {
	var report models.DailyReport
	if err := s.store.db.Get(date, &report); err != nil {
		if err == badgerhold.ErrNotFound {
			return fmt.Errorf("report '%s' not found", date)
		}
		return fmt.Errorf("failed to get report '%s': %w", date, err)
	}

	report.DispatchedAt = at
	if err := s.store.db.Update(date, &report); err != nil {
		return fmt.Errorf("failed to mark report '%s' dispatched: %w", date, err)
	}
	return nil
}
