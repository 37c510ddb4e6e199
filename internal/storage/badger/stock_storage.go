package badger

import (
	"context"
	"fmt"

	"github.com/timshannon/badgerhold/v4"

	"github.com/jcalder/brokerd/internal/common"
	"github.com/jcalder/brokerd/internal/models"
)

type stockStorage struct {
	store  *Store
	logger *common.Logger
}

// NewStockStorage creates a StockStore backed by BadgerHold.
func NewStockStorage(store *Store, logger *common.Logger) *stockStorage {
	return &stockStorage{store: store, logger: logger}
}

func (s *stockStorage) Upsert(_ context.Context, stock *models.Stock) error {
	if err := s.store.db.Upsert(stock.Symbol, stock); err != nil {
		return fmt.Errorf("failed to save stock '%s': %w", stock.Symbol, err)
	}
	return nil
}

func (s *stockStorage) UpsertBatch(_ context.Context, stocks []models.Stock) error {
	for i := range stocks {
		if err := s.store.db.Upsert(stocks[i].Symbol, &stocks[i]); err != nil {
			return fmt.Errorf("failed to save stock '%s': %w", stocks[i].Symbol, err)
		}
	}
	s.logger.Debug().Int("count", len(stocks)).Msg("Stock batch saved")
	return nil
}

func (s *stockStorage) Get(_ context.Context, symbol string) (*models.Stock, error) {
	var stock models.Stock
	err := s.store.db.Get(symbol, &stock)
	if err != nil {
		if err == badgerhold.ErrNotFound {
			return nil, common.NewStockNotFound(symbol)
		}
		return nil, fmt.Errorf("failed to get stock '%s': %w", symbol, err)
	}
	return &stock, nil
}

func (s *stockStorage) Count(_ context.Context) (int, error) {
	var stocks []models.Stock
	if err := s.store.db.Find(&stocks, nil); err != nil {
		return 0, fmt.Errorf("failed to count stocks: %w", err)
	}
	return len(stocks), nil
}
