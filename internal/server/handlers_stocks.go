package server

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/jcalder/brokerd/internal/common"
	"github.com/jcalder/brokerd/internal/models"
)

// handleStocks serves GET /api/stocks?page=N.
func (s *Server) handleStocks(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	page := 1
	if raw := r.URL.Query().Get("page"); raw != "" {
		p, err := strconv.Atoi(raw)
		if err != nil || p < 1 {
			WriteAppError(w, r, common.NewInvalidInput("page must be a positive integer"))
			return
		}
		page = p
	}

	result, err := s.app.Stocks.ListPage(r.Context(), page)
	if err != nil {
		WriteAppError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, result)
}

// handleStockSubtree dispatches /api/stocks/{symbol} and
// /api/stocks/{symbol}/buy.
func (s *Server) handleStockSubtree(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/api/stocks/")

	if strings.HasSuffix(rest, "/buy") {
		s.handleBuy(w, r, strings.TrimSuffix(rest, "/buy"))
		return
	}
	s.handleQuote(w, r, rest)
}

// handleQuote serves GET /api/stocks/{symbol}.
func (s *Server) handleQuote(w http.ResponseWriter, r *http.Request, symbol string) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}
	if !models.SymbolPattern.MatchString(symbol) {
		WriteAppError(w, r, common.NewInvalidInput("symbol must be 1-10 uppercase alphanumerics"))
		return
	}

	stock, err := s.app.Stocks.GetQuote(r.Context(), symbol)
	if err != nil {
		WriteAppError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, stock)
}

// buyRequest is the buy order payload.
type buyRequest struct {
	Price    float64 `json:"price"`
	Quantity int     `json:"quantity"`
}

// handleBuy serves POST /api/stocks/{symbol}/buy. All input is validated
// before any storage or vendor I/O.
func (s *Server) handleBuy(w http.ResponseWriter, r *http.Request, symbol string) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	var req buyRequest
	if !DecodeJSON(w, r, &req) {
		return
	}

	if err := validateBuy(symbol, req.Price, req.Quantity); err != nil {
		WriteAppError(w, r, err)
		return
	}

	userID := r.Header.Get("X-User-ID")
	if userID == "" {
		userID = "default"
	}

	trade, err := s.app.Trades.ExecuteBuy(r.Context(), userID, symbol, req.Price, req.Quantity)
	if err != nil {
		WriteAppError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusCreated, trade)
}

// validateBuy enforces the order limits: a well-formed symbol, a positive
// price with at most two decimal places within the price cap, and a
// positive quantity within the size cap.
func validateBuy(symbol string, price float64, quantity int) error {
	if !models.SymbolPattern.MatchString(symbol) {
		return common.NewInvalidInput("symbol must be 1-10 uppercase alphanumerics")
	}

	if price <= 0 {
		return common.NewInvalidInput("price must be greater than zero")
	}
	if price > models.MaxTradePrice {
		return common.NewInvalidInput("price exceeds the maximum of 1,000,000")
	}
	d := decimal.NewFromFloat(price)
	if !d.Equal(d.Round(2)) {
		return common.NewInvalidInput("price must have at most two decimal places")
	}

	if quantity <= 0 {
		return common.NewInvalidInput("quantity must be greater than zero")
	}
	if quantity > models.MaxTradeQuantity {
		return common.NewInvalidInput("quantity exceeds the maximum of 10,000")
	}

	return nil
}
