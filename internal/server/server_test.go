package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jcalder/brokerd/internal/app"
	"github.com/jcalder/brokerd/internal/common"
	"github.com/jcalder/brokerd/internal/models"
)

// newVendorStub serves a three-page catalog and accepts buys for any symbol
// except FAILBUY.
func newVendorStub(t *testing.T) *httptest.Server {
	t.Helper()

	pages := map[string]struct {
		body string
	}{
		"": {`{"status":"ok","data":{"items":[{"symbol":"AAPL","name":"Apple","price":150},{"symbol":"MSFT","name":"Microsoft","price":300}],"nextToken":"p2"}}`},
		"p2": {`{"status":"ok","data":{"items":[{"symbol":"TSLA","name":"Tesla","price":250},{"symbol":"FAILBUY","name":"Unbuyable","price":10}],"nextToken":"p3"}}`},
		"p3": {`{"status":"ok","data":{"items":[{"symbol":"NVDA","name":"Nvidia","price":900}]}}`},
	}

	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "/buy") {
			if strings.Contains(r.URL.Path, "FAILBUY") {
				w.WriteHeader(http.StatusBadRequest)
				w.Write([]byte(`{"message":"order rejected by vendor"}`))
				return
			}
			w.Write([]byte(`{"status":"ok"}`))
			return
		}

		page, ok := pages[r.URL.Query().Get("cursor")]
		if !ok {
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte(`{"message":"unknown cursor"}`))
			return
		}
		w.Write([]byte(page.body))
	}))
}

func newTestServer(t *testing.T) *Server {
	t.Helper()

	stub := newVendorStub(t)
	t.Cleanup(stub.Close)

	config := common.NewDefaultConfig()
	config.Storage.Path = t.TempDir()
	config.Vendor.BaseURL = stub.URL
	config.Jobs.SchedulerOn = false
	config.Reports.Recipients = []string{"desk@example.com"}

	a, err := app.NewApp(config, common.NewSilentLogger())
	require.NoError(t, err)
	t.Cleanup(func() { a.Close() })

	return NewServer(a)
}

func doRequest(t *testing.T, srv *Server, method, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var envelope ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	return envelope
}

func TestHealthAndVersion(t *testing.T) {
	srv := newTestServer(t)

	rec := doRequest(t, srv, http.MethodGet, "/api/health", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = doRequest(t, srv, http.MethodGet, "/api/version", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestListStocks(t *testing.T) {
	srv := newTestServer(t)

	rec := doRequest(t, srv, http.MethodGet, "/api/stocks", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var page models.StockPage
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &page))
	require.Len(t, page.Items, 2)
	assert.Equal(t, "AAPL", page.Items[0].Symbol)
	assert.Equal(t, 1, page.Pagination.Page)
	assert.True(t, page.Pagination.HasNextPage)
}

func TestListStocksSecondPage(t *testing.T) {
	srv := newTestServer(t)

	rec := doRequest(t, srv, http.MethodGet, "/api/stocks?page=2", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var page models.StockPage
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &page))
	require.Len(t, page.Items, 2)
	assert.Equal(t, "TSLA", page.Items[0].Symbol)
}

func TestListStocksBadPage(t *testing.T) {
	srv := newTestServer(t)

	rec := doRequest(t, srv, http.MethodGet, "/api/stocks?page=abc", "", nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	envelope := decodeError(t, rec)
	assert.Equal(t, common.CodeInvalidInput, envelope.ErrorCode)
	assert.Equal(t, http.StatusBadRequest, envelope.StatusCode)
	assert.Equal(t, "/api/stocks", envelope.Path)
	assert.NotEmpty(t, envelope.Timestamp)
}

func TestGetQuote(t *testing.T) {
	srv := newTestServer(t)

	rec := doRequest(t, srv, http.MethodGet, "/api/stocks/AAPL", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var stock models.Stock
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &stock))
	assert.Equal(t, 150.0, stock.Price)
}

func TestGetQuoteUnknownSymbol(t *testing.T) {
	srv := newTestServer(t)

	rec := doRequest(t, srv, http.MethodGet, "/api/stocks/ZZZZ", "", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, common.CodeStockNotFound, decodeError(t, rec).ErrorCode)
}

func TestGetQuoteMalformedSymbol(t *testing.T) {
	srv := newTestServer(t)

	rec := doRequest(t, srv, http.MethodGet, "/api/stocks/aapl", "", nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, common.CodeInvalidInput, decodeError(t, rec).ErrorCode)
}

func TestBuyHappyPath(t *testing.T) {
	srv := newTestServer(t)

	rec := doRequest(t, srv, http.MethodPost, "/api/stocks/AAPL/buy",
		`{"price":151.50,"quantity":5}`, map[string]string{"X-User-ID": "alice"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var trade models.Trade
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &trade))
	assert.Equal(t, models.TradeStatusSuccess, trade.Status)
	assert.Equal(t, "alice", trade.UserID)

	// The purchase shows up in the portfolio.
	rec = doRequest(t, srv, http.MethodGet, "/api/portfolio/alice", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var page models.HoldingsPage
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &page))
	require.Len(t, page.Holdings, 1)
	assert.Equal(t, "AAPL", page.Holdings[0].Symbol)
	assert.Equal(t, 5, page.Holdings[0].Quantity)
}

func TestBuyPriceOutOfRange(t *testing.T) {
	srv := newTestServer(t)

	rec := doRequest(t, srv, http.MethodPost, "/api/stocks/AAPL/buy",
		`{"price":170.00,"quantity":5}`, nil)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	envelope := decodeError(t, rec)
	assert.Equal(t, common.CodePriceOutOfRange, envelope.ErrorCode)
	assert.NotNil(t, envelope.Details)
}

func TestBuyVendorRejection(t *testing.T) {
	srv := newTestServer(t)

	rec := doRequest(t, srv, http.MethodPost, "/api/stocks/FAILBUY/buy",
		`{"price":10.00,"quantity":1}`, nil)
	require.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Equal(t, common.CodeVendorError, decodeError(t, rec).ErrorCode)
}

func TestBuyValidation(t *testing.T) {
	srv := newTestServer(t)

	cases := []struct {
		name string
		body string
	}{
		{"zero price", `{"price":0,"quantity":5}`},
		{"negative price", `{"price":-5,"quantity":5}`},
		{"price over cap", `{"price":1000001,"quantity":5}`},
		{"three decimals", `{"price":150.123,"quantity":5}`},
		{"zero quantity", `{"price":150,"quantity":0}`},
		{"quantity over cap", `{"price":150,"quantity":10001}`},
		{"not json", `price=150`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := doRequest(t, srv, http.MethodPost, "/api/stocks/AAPL/buy", tc.body, nil)
			require.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, common.CodeInvalidInput, decodeError(t, rec).ErrorCode)
		})
	}
}

func TestBuyDefaultUser(t *testing.T) {
	srv := newTestServer(t)

	rec := doRequest(t, srv, http.MethodPost, "/api/stocks/MSFT/buy",
		`{"price":300,"quantity":2}`, nil)
	require.Equal(t, http.StatusCreated, rec.Code)

	var trade models.Trade
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &trade))
	assert.Equal(t, "default", trade.UserID)
}

func TestPortfolioUnknownUser(t *testing.T) {
	srv := newTestServer(t)

	rec := doRequest(t, srv, http.MethodGet, "/api/portfolio/nobody", "", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, common.CodeHoldingsNotFound, decodeError(t, rec).ErrorCode)
}

func TestGenerateReportQueuesJobs(t *testing.T) {
	srv := newTestServer(t)

	rec := doRequest(t, srv, http.MethodPost, "/api/reports/generate?days=2", "", nil)
	require.Equal(t, http.StatusAccepted, rec.Code)

	var resp struct {
		Queued int `json:"queued"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 2, resp.Queued)

	rec = doRequest(t, srv, http.MethodGet, "/api/jobs/status", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var status struct {
		Total  int            `json:"total"`
		Counts map[string]int `json:"counts"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
	assert.Equal(t, 2, status.Total)
	assert.Equal(t, 2, status.Counts[models.JobStatusPending])
}

func TestGenerateReportSync(t *testing.T) {
	srv := newTestServer(t)

	// No trades on that day: trivial success, no dispatch.
	rec := doRequest(t, srv, http.MethodGet, "/api/reports/generate-sync?date=2026-08-20", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var report models.DailyReport
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))
	assert.Equal(t, "2026-08-20", report.Date)
	assert.Zero(t, report.TotalTrades)
}

func TestGenerateReportSyncDays(t *testing.T) {
	srv := newTestServer(t)

	rec := doRequest(t, srv, http.MethodGet, "/api/reports/generate-sync?days=2", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Reports []models.DailyReport `json:"reports"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Len(t, resp.Reports, 2)
}

func TestGenerateReportSyncBadDate(t *testing.T) {
	srv := newTestServer(t)

	rec := doRequest(t, srv, http.MethodGet, "/api/reports/generate-sync?date=20-08-2026", "", nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestMethodNotAllowed(t *testing.T) {
	srv := newTestServer(t)

	rec := doRequest(t, srv, http.MethodDelete, "/api/stocks", "", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestCORSPreflight(t *testing.T) {
	srv := newTestServer(t)

	rec := doRequest(t, srv, http.MethodOptions, "/api/stocks", "", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestCorrelationIDEchoed(t *testing.T) {
	srv := newTestServer(t)

	rec := doRequest(t, srv, http.MethodGet, "/api/health", "", map[string]string{"X-Request-ID": "req-42"})
	assert.Equal(t, "req-42", rec.Header().Get("X-Correlation-ID"))
}
