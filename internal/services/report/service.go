// Package report generates and dispatches daily trade summaries.
package report

import (
	"context"
	"fmt"
	"time"

	"github.com/jcalder/brokerd/internal/common"
	"github.com/jcalder/brokerd/internal/interfaces"
	"github.com/jcalder/brokerd/internal/models"
)

// DateFormat is the report key format.
const DateFormat = "2006-01-02"

// Service implements interfaces.ReportService.
type Service struct {
	trades     interfaces.TradeStore
	reports    interfaces.ReportStore
	mailer     interfaces.Mailer
	recipients []string
	logger     *common.Logger
}

// NewService creates a new report service.
func NewService(trades interfaces.TradeStore, reports interfaces.ReportStore, mailer interfaces.Mailer, cfg *common.ReportsConfig, logger *common.Logger) *Service {
	return &Service{
		trades:     trades,
		reports:    reports,
		mailer:     mailer,
		recipients: cfg.Recipients,
		logger:     logger,
	}
}

// GenerateDailyReport aggregates every trade attempt on the given calendar
// day (UTC), persists the report, and emails it. Regeneration for an
// already dispatched date recomputes the numbers but does not email again.
// A day with no trades succeeds trivially and sends nothing.
func (s *Service) GenerateDailyReport(ctx context.Context, date time.Time) (*models.DailyReport, error) {
	day := date.UTC().Truncate(24 * time.Hour)
	key := day.Format(DateFormat)

	trades, err := s.trades.ListByTimeRange(ctx, day, day.Add(24*time.Hour))
	if err != nil {
		return nil, common.NewStorageError("failed to load trades for report", err)
	}

	report := aggregate(key, trades)

	if err := s.reports.Save(ctx, report); err != nil {
		return nil, common.NewStorageError("failed to save report", err)
	}

	if report.TotalTrades == 0 {
		s.logger.Info().Str("date", key).Msg("No trades; report generated without dispatch")
		return report, nil
	}

	// Re-read to pick up a dispatch marker from an earlier attempt.
	if saved, err := s.reports.Get(ctx, key); err == nil && saved.Dispatched() {
		s.logger.Info().Str("date", key).Msg("Report already dispatched; skipping email")
		return saved, nil
	}

	if len(s.recipients) == 0 {
		return nil, fmt.Errorf("no report recipients configured")
	}

	subject, body := Format(report)
	if err := s.mailer.Send(ctx, s.recipients, subject, body); err != nil {
		return nil, fmt.Errorf("failed to send report email: %w", err)
	}

	now := time.Now()
	if err := s.reports.MarkDispatched(ctx, key, now); err != nil {
		return nil, common.NewStorageError("failed to mark report dispatched", err)
	}
	report.DispatchedAt = now

	s.logger.Info().
		Str("date", key).
		Int("total", report.TotalTrades).
		Int("success", report.SuccessCount).
		Int("failed", report.FailedCount).
		Msg("Daily report dispatched")

	return report, nil
}

// aggregate folds a day's trades into the report counters.
func aggregate(date string, trades []models.Trade) *models.DailyReport {
	report := &models.DailyReport{
		Date:           date,
		TotalTrades:    len(trades),
		FailureReasons: map[string]int{},
		Trades:         trades,
		GeneratedAt:    time.Now(),
	}

	for _, tr := range trades {
		switch tr.Status {
		case models.TradeStatusSuccess:
			report.SuccessCount++
		case models.TradeStatusFailed:
			report.FailedCount++
			reason := tr.Reason
			if reason == "" {
				reason = "unspecified"
			}
			report.FailureReasons[reason]++
		}
	}

	return report
}

// Ensure Service implements ReportService
var _ interfaces.ReportService = (*Service)(nil)
