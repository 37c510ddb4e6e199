package server

import (
	"net/http"
	"strconv"

	"github.com/jcalder/brokerd/internal/common"
	"github.com/jcalder/brokerd/internal/models"
)

// handleJobs serves GET /api/jobs?limit=N, newest first. Failed jobs stay
// listed so operators can see exhausted retries.
func (s *Server) handleJobs(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	limit := 100
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := parsePositiveInt(raw)
		if err != nil {
			WriteAppError(w, r, common.NewInvalidInput("limit must be a positive integer"))
			return
		}
		limit = n
	}

	jobs, err := s.app.Storage.JobQueueStore().ListAll(r.Context(), limit)
	if err != nil {
		WriteAppError(w, r, common.NewStorageError("failed to list jobs", err))
		return
	}
	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"jobs":  jobs,
		"count": len(jobs),
	})
}

// handleJobStatus serves GET /api/jobs/status with queue counters.
func (s *Server) handleJobStatus(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	jobs, err := s.app.Storage.JobQueueStore().ListAll(r.Context(), 0)
	if err != nil {
		WriteAppError(w, r, common.NewStorageError("failed to read job queue", err))
		return
	}

	counts := map[string]int{
		models.JobStatusPending:   0,
		models.JobStatusRunning:   0,
		models.JobStatusCompleted: 0,
		models.JobStatusFailed:    0,
	}
	for _, j := range jobs {
		counts[j.Status]++
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"total":  len(jobs),
		"counts": counts,
	})
}

// parsePositiveInt parses a strictly positive integer.
func parsePositiveInt(raw string) (int, error) {
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, err
	}
	if n < 1 {
		return 0, strconv.ErrRange
	}
	return n, nil
}
