package interfaces

import (
	"context"
	"time"

	"github.com/jcalder/brokerd/internal/models"
)

// QuoteProvider resolves the current vendor-authoritative quote for a
// symbol. Implemented by the stock service; consumed by the trade executor
// to avoid a compile-time cycle between the two.
type QuoteProvider interface {
	GetQuote(ctx context.Context, symbol string) (*models.Stock, error)
}

// StockService is the read-through stock catalog: quote lookups and the
// externally paginated listing.
type StockService interface {
	QuoteProvider

	// ListPage returns one external page of the catalog, write-through
	// caching every fetched item.
	ListPage(ctx context.Context, page int) (*models.StockPage, error)
}

// TradeService executes buy orders through the PENDING → SUCCESS|FAILED
// state machine.
type TradeService interface {
	ExecuteBuy(ctx context.Context, userID, symbol string, price float64, quantity int) (*models.Trade, error)
}

// PortfolioService owns holding mutation and the read path.
type PortfolioService interface {
	// Apply adds a signed quantity delta to the user's holding for symbol.
	Apply(ctx context.Context, userID, symbol string, delta int) error

	// GetHoldings returns a symbol-ordered page of the user's holdings.
	GetHoldings(ctx context.Context, userID, cursor string, limit int) (*models.HoldingsPage, error)
}

// ReportService generates and dispatches daily trade summaries.
type ReportService interface {
	// GenerateDailyReport aggregates all trades on the given day, persists
	// the report, and dispatches it by email when there is anything to
	// report. Idempotent per date.
	GenerateDailyReport(ctx context.Context, date time.Time) (*models.DailyReport, error)
}
