package server

import (
	"net/http"
	"strconv"

	"github.com/jcalder/brokerd/internal/common"
)

// handlePortfolio serves GET /api/portfolio/{userId}?cursor=&limit=.
func (s *Server) handlePortfolio(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	userID := PathParam(r, "/api/portfolio/", "")
	if userID == "" {
		WriteAppError(w, r, common.NewInvalidInput("user id is required"))
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			WriteAppError(w, r, common.NewInvalidInput("limit must be a positive integer"))
			return
		}
		limit = n
	}

	page, err := s.app.Portfolio.GetHoldings(r.Context(), userID, r.URL.Query().Get("cursor"), limit)
	if err != nil {
		WriteAppError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, page)
}
