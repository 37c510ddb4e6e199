package badger

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/timshannon/badgerhold/v4"

	"github.com/jcalder/brokerd/internal/common"
	"github.com/jcalder/brokerd/internal/models"
)

type portfolioStorage struct {
	store  *Store
	logger *common.Logger

	// Serializes read-modify-write cycles so concurrent deltas on the same
	// holding cannot lose updates.
	mu sync.Mutex
}

// NewPortfolioStorage creates a PortfolioStore backed by BadgerHold.
func NewPortfolioStorage(store *Store, logger *common.Logger) *portfolioStorage {
	return &portfolioStorage{store: store, logger: logger}
}

// ApplyDelta adds a signed quantity delta to the (userID, symbol) holding.
// A holding whose resulting quantity is zero or below is deleted.
func (s *portfolioStorage) ApplyDelta(_ context.Context, userID, symbol string, delta int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := models.HoldingKey(userID, symbol)

	var holding models.Holding
	err := s.store.db.Get(key, &holding)
	if err != nil && err != badgerhold.ErrNotFound {
		return fmt.Errorf("failed to get holding '%s/%s': %w", userID, symbol, err)
	}

	if err == badgerhold.ErrNotFound {
		holding = models.Holding{
			Key:    key,
			UserID: userID,
			Symbol: symbol,
		}
	}

	holding.Quantity += delta
	holding.UpdatedAt = time.Now()

	if holding.Quantity <= 0 {
		if err := s.store.db.Delete(key, models.Holding{}); err != nil && err != badgerhold.ErrNotFound {
			return fmt.Errorf("failed to delete holding '%s/%s': %w", userID, symbol, err)
		}
		s.logger.Debug().
			Str("user_id", userID).
			Str("symbol", symbol).
			Msg("Holding removed")
		return nil
	}

	if err := s.store.db.Upsert(key, &holding); err != nil {
		return fmt.Errorf("failed to save holding '%s/%s': %w", userID, symbol, err)
	}
	return nil
}

func (s *portfolioStorage) Get(_ context.Context, userID, symbol string) (*models.Holding, error) {
	var holding models.Holding
	err := s.store.db.Get(models.HoldingKey(userID, symbol), &holding)
	if err != nil {
		if err == badgerhold.ErrNotFound {
			return nil, fmt.Errorf("holding '%s/%s' not found", userID, symbol)
		}
		return nil, fmt.Errorf("failed to get holding '%s/%s': %w", userID, symbol, err)
	}
	return &holding, nil
}

func (s *portfolioStorage) ListByUser(_ context.Context, userID string) ([]models.Holding, error) {
	var holdings []models.Holding
	if err := s.store.db.Find(&holdings, badgerhold.Where("UserID").Eq(userID).Index("UserID")); err != nil {
		return nil, fmt.Errorf("failed to list holdings for '%s': %w", userID, err)
	}
	sort.Slice(holdings, func(i, j int) bool {
		return holdings[i].Symbol < holdings[j].Symbol
	})
	return holdings, nil
}
