package server

import (
	"net/http"
	"time"

	"github.com/jcalder/brokerd/internal/common"
)

// registerRoutes attaches all API routes to the mux.
func (s *Server) registerRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/api/health", s.handleHealth)
	mux.HandleFunc("/api/version", s.handleVersion)

	mux.HandleFunc("/api/stocks", s.handleStocks)
	mux.HandleFunc("/api/stocks/", s.handleStockSubtree)

	mux.HandleFunc("/api/portfolio/", s.handlePortfolio)

	mux.HandleFunc("/api/reports/generate", s.handleGenerateReport)
	mux.HandleFunc("/api/reports/generate-sync", s.handleGenerateReportSync)

	mux.HandleFunc("/api/jobs", s.handleJobs)
	mux.HandleFunc("/api/jobs/status", s.handleJobStatus)
}

// handleHealth returns service health.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}
	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// handleVersion returns build information.
func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}
	WriteJSON(w, http.StatusOK, map[string]string{
		"version": common.GetVersion(),
		"build":   common.GetBuild(),
		"commit":  common.GetGitCommit(),
	})
}
