package badger

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/timshannon/badgerhold/v4"

	"github.com/jcalder/brokerd/internal/common"
	"github.com/jcalder/brokerd/internal/models"
)

type tradeStorage struct {
	store  *Store
	logger *common.Logger
}

// NewTradeStorage creates a TradeStore backed by BadgerHold.
func NewTradeStorage(store *Store, logger *common.Logger) *tradeStorage {
	return &tradeStorage{store: store, logger: logger}
}

func (s *tradeStorage) Insert(_ context.Context, trade *models.Trade) error {
	if trade.Timestamp.IsZero() {
		trade.Timestamp = time.Now()
	}
	if err := s.store.db.Insert(trade.ID, trade); err != nil {
		return fmt.Errorf("failed to insert trade '%s': %w", trade.ID, err)
	}
	s.logger.Debug().
		Str("trade_id", trade.ID).
		Str("symbol", trade.Symbol).
		Str("status", trade.Status).
		Msg("Trade recorded")
	return nil
}

// UpdateStatus moves a trade to a terminal state. Trades already terminal
// are left untouched so a retried transition cannot overwrite the outcome.
func (s *tradeStorage) UpdateStatus(_ context.Context, id, status, reason string) error {
	var trade models.Trade
	if err := s.store.db.Get(id, &trade); err != nil {
		if err == badgerhold.ErrNotFound {
			return fmt.Errorf("trade '%s' not found", id)
		}
		return fmt.Errorf("failed to get trade '%s': %w", id, err)
	}

	if trade.IsTerminal() {
		s.logger.Warn().
			Str("trade_id", id).
			Str("current", trade.Status).
			Str("requested", status).
			Msg("Ignoring status update on terminal trade")
		return nil
	}

	trade.Status = status
	trade.Reason = reason
	if err := s.store.db.Update(id, &trade); err != nil {
		return fmt.Errorf("failed to update trade '%s': %w", id, err)
	}
	return nil
}

func (s *tradeStorage) Get(_ context.Context, id string) (*models.Trade, error) {
	var trade models.Trade
	err := s.store.db.Get(id, &trade)
	if err != nil {
		if err == badgerhold.ErrNotFound {
			return nil, fmt.Errorf("trade '%s' not found", id)
		}
		return nil, fmt.Errorf("failed to get trade '%s': %w", id, err)
	}
	return &trade, nil
}

func (s *tradeStorage) ListByTimeRange(_ context.Context, from, to time.Time) ([]models.Trade, error) {
	var trades []models.Trade
	query := badgerhold.Where("Timestamp").Ge(from).And("Timestamp").Lt(to)
	if err := s.store.db.Find(&trades, query); err != nil {
		return nil, fmt.Errorf("failed to list trades: %w", err)
	}
	sort.Slice(trades, func(i, j int) bool {
		return trades[i].Timestamp.Before(trades[j].Timestamp)
	})
	return trades, nil
}
