package server

import (
	"net/http"
	"time"

	"github.com/jcalder/brokerd/internal/common"
	"github.com/jcalder/brokerd/internal/models"
)

// handleGenerateReport serves POST /api/reports/generate?days=N. It queues
// one report job per day (yesterday backwards) and returns immediately;
// execution, retries, and dispatch happen in the job manager.
func (s *Server) handleGenerateReport(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	days := 1
	if raw := r.URL.Query().Get("days"); raw != "" {
		n, err := parsePositiveInt(raw)
		if err != nil || n > 365 {
			WriteAppError(w, r, common.NewInvalidInput("days must be an integer between 1 and 365"))
			return
		}
		days = n
	}

	jobs, err := s.app.Jobs.EnqueueBackfill(r.Context(), days)
	if err != nil {
		WriteAppError(w, r, err)
		return
	}

	WriteJSON(w, http.StatusAccepted, map[string]interface{}{
		"queued": len(jobs),
		"jobs":   jobs,
	})
}

// handleGenerateReportSync serves GET /api/reports/generate-sync?days=N,
// generating the last N daily reports inline. Bypasses the queue; intended
// for operational testing. An explicit date=YYYY-MM-DD generates that one
// day instead.
func (s *Server) handleGenerateReportSync(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	if raw := r.URL.Query().Get("date"); raw != "" {
		d, err := time.Parse("2006-01-02", raw)
		if err != nil {
			WriteAppError(w, r, common.NewInvalidInput("date must be formatted YYYY-MM-DD"))
			return
		}
		report, err := s.app.Reports.GenerateDailyReport(r.Context(), d)
		if err != nil {
			WriteAppError(w, r, err)
			return
		}
		WriteJSON(w, http.StatusOK, report)
		return
	}

	days := 1
	if raw := r.URL.Query().Get("days"); raw != "" {
		n, err := parsePositiveInt(raw)
		if err != nil || n > 365 {
			WriteAppError(w, r, common.NewInvalidInput("days must be an integer between 1 and 365"))
			return
		}
		days = n
	}

	today := time.Now().UTC().Truncate(24 * time.Hour)
	reports := make([]*models.DailyReport, 0, days)
	for i := 1; i <= days; i++ {
		report, err := s.app.Reports.GenerateDailyReport(r.Context(), today.AddDate(0, 0, -i))
		if err != nil {
			WriteAppError(w, r, err)
			return
		}
		reports = append(reports, report)
	}
	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"reports": reports,
	})
}
