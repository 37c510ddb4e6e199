// Package portfolio owns user holdings: applying trade deltas and the
// cursor-paginated read path.
package portfolio

import (
	"context"
	"encoding/base64"
	"errors"
	"strconv"

	"github.com/jcalder/brokerd/internal/common"
	"github.com/jcalder/brokerd/internal/interfaces"
	"github.com/jcalder/brokerd/internal/models"
)

// DefaultPageSize is the holdings page size when the client does not ask
// for one.
const DefaultPageSize = 50

// Service implements interfaces.PortfolioService.
type Service struct {
	store  interfaces.PortfolioStore
	logger *common.Logger
}

// NewService creates a new portfolio service.
func NewService(store interfaces.PortfolioStore, logger *common.Logger) *Service {
	return &Service{store: store, logger: logger}
}

// Apply adds a signed quantity delta to the user's holding. The store
// guarantees the read-modify-write is atomic and removes holdings that
// reach zero.
func (s *Service) Apply(ctx context.Context, userID, symbol string, delta int) error {
	if err := s.store.ApplyDelta(ctx, userID, symbol, delta); err != nil {
		return common.NewStorageError("failed to update holding", err)
	}

	s.logger.Debug().
		Str("user_id", userID).
		Str("symbol", symbol).
		Int("delta", delta).
		Msg("Holding updated")
	return nil
}

// GetHoldings returns one symbol-ordered page of the user's holdings. A
// user with no holdings at all is not found; an exhausted cursor on a known
// user yields an empty page.
func (s *Service) GetHoldings(ctx context.Context, userID, cursor string, limit int) (*models.HoldingsPage, error) {
	if limit <= 0 {
		limit = DefaultPageSize
	}

	offset, err := decodeCursor(cursor)
	if err != nil {
		return nil, common.NewInvalidInput("invalid cursor")
	}

	holdings, err := s.store.ListByUser(ctx, userID)
	if err != nil {
		return nil, common.NewStorageError("failed to list holdings", err)
	}
	if len(holdings) == 0 {
		return nil, common.NewHoldingsNotFound(userID)
	}

	if offset > len(holdings) {
		offset = len(holdings)
	}
	end := offset + limit
	if end > len(holdings) {
		end = len(holdings)
	}

	items := make([]models.HoldingItem, 0, end-offset)
	for _, h := range holdings[offset:end] {
		items = append(items, models.HoldingItem{Symbol: h.Symbol, Quantity: h.Quantity})
	}

	page := &models.HoldingsPage{
		UserID:   userID,
		Holdings: items,
	}
	if end < len(holdings) {
		page.NextCursor = encodeCursor(end)
	}
	return page, nil
}

func encodeCursor(offset int) string {
	return base64.URLEncoding.EncodeToString([]byte(strconv.Itoa(offset)))
}

func decodeCursor(cursor string) (int, error) {
	if cursor == "" {
		return 0, nil
	}
	raw, err := base64.URLEncoding.DecodeString(cursor)
	if err != nil {
		return 0, err
	}
	offset, err := strconv.Atoi(string(raw))
	if err != nil {
		return 0, err
	}
	if offset < 0 {
		return 0, errors.New("negative cursor offset")
	}
	return offset, nil
}

// Ensure Service implements PortfolioService
var _ interfaces.PortfolioService = (*Service)(nil)
