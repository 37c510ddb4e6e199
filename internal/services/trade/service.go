package trade

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jcalder/brokerd/internal/common"
	"github.com/jcalder/brokerd/internal/interfaces"
	"github.com/jcalder/brokerd/internal/models"
)

// Service executes buy orders through the PENDING → SUCCESS|FAILED state
// machine. The PENDING row is persisted before any external call, and no
// trade is ever left in PENDING.
type Service struct {
	quotes    interfaces.QuoteProvider
	vendor    interfaces.VendorClient
	trades    interfaces.TradeStore
	portfolio interfaces.PortfolioService
	logger    *common.Logger
}

// NewService creates a new trade service.
func NewService(quotes interfaces.QuoteProvider, vendor interfaces.VendorClient, trades interfaces.TradeStore, portfolio interfaces.PortfolioService, logger *common.Logger) *Service {
	return &Service{
		quotes:    quotes,
		vendor:    vendor,
		trades:    trades,
		portfolio: portfolio,
		logger:    logger,
	}
}

// ExecuteBuy validates and executes a buy order. The returned trade is
// always terminal; quote, validation, and vendor failures are recorded on
// the trade and also returned as the error.
func (s *Service) ExecuteBuy(ctx context.Context, userID, symbol string, price float64, quantity int) (trade *models.Trade, err error) {
	trade = &models.Trade{
		ID:        uuid.New().String(),
		UserID:    userID,
		Symbol:    symbol,
		Price:     price,
		Quantity:  quantity,
		Status:    models.TradeStatusPending,
		Timestamp: time.Now(),
	}
	if insErr := s.trades.Insert(ctx, trade); insErr != nil {
		return nil, common.NewStorageError("failed to record trade", insErr)
	}

	// The row exists before any external call; whatever happens below, it
	// leaves PENDING before this returns, carrying the triggering failure
	// as the reason.
	defer func() {
		if r := recover(); r != nil {
			s.fail(ctx, trade, fmt.Sprintf("panic: %v", r))
			panic(r)
		}
		if !trade.IsTerminal() {
			reason := "internal error during execution"
			if err != nil {
				reason = common.AsAppError(err).Message
			}
			s.fail(ctx, trade, reason)
		}
	}()

	quote, err := s.quotes.GetQuote(ctx, symbol)
	if err != nil {
		s.fail(ctx, trade, common.AsAppError(err).Message)
		return trade, err
	}

	if err = ValidatePrice(price, quote.Price); err != nil {
		s.fail(ctx, trade, common.AsAppError(err).Message)
		return trade, err
	}

	if err = s.vendor.Buy(ctx, symbol, price, quantity); err != nil {
		s.fail(ctx, trade, common.AsAppError(err).Message)
		return trade, err
	}

	// The in-memory status flips only after the store confirms the
	// transition; a persist failure here still forces the FAILED fallback.
	if upErr := s.trades.UpdateStatus(ctx, trade.ID, models.TradeStatusSuccess, ""); upErr != nil {
		s.logger.Error().Str("trade_id", trade.ID).Err(upErr).Msg("Failed to mark trade successful")
		err = common.NewStorageError("failed to finalize trade", upErr)
		s.fail(ctx, trade, "failed to finalize trade")
		return trade, err
	}
	trade.Status = models.TradeStatusSuccess

	if pErr := s.portfolio.Apply(ctx, userID, symbol, quantity); pErr != nil {
		// The vendor purchase went through; the trade stays SUCCESS and the
		// holding discrepancy is surfaced for operators.
		s.logger.Error().
			Str("trade_id", trade.ID).
			Str("user_id", userID).
			Str("symbol", symbol).
			Err(pErr).
			Msg("Trade succeeded but holding update failed")
		return trade, common.NewStorageError("failed to update holdings", pErr)
	}

	s.logger.Info().
		Str("trade_id", trade.ID).
		Str("user_id", userID).
		Str("symbol", symbol).
		Float64("price", price).
		Int("quantity", quantity).
		Msg("Trade executed")

	return trade, nil
}

// fail moves the trade to FAILED with the given reason. A storage failure
// here is logged, not returned; the caller already has the primary error.
func (s *Service) fail(ctx context.Context, trade *models.Trade, reason string) {
	trade.Status = models.TradeStatusFailed
	trade.Reason = reason
	if err := s.trades.UpdateStatus(ctx, trade.ID, models.TradeStatusFailed, reason); err != nil {
		s.logger.Error().
			Str("trade_id", trade.ID).
			Err(err).
			Msg(fmt.Sprintf("Failed to mark trade failed (reason: %s)", reason))
	}
}

// Ensure Service implements TradeService
var _ interfaces.TradeService = (*Service)(nil)
