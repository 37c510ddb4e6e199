// Package storage provides the top-level StorageManager coordinating the
// embedded BadgerHold stores.
package storage

import (
	"fmt"

	"github.com/jcalder/brokerd/internal/common"
	"github.com/jcalder/brokerd/internal/interfaces"
	"github.com/jcalder/brokerd/internal/storage/badger"
)

// Manager implements interfaces.StorageManager over a single BadgerHold
// database.
type Manager struct {
	store  *badger.Store
	logger *common.Logger

	stocks    interfaces.StockStore
	trades    interfaces.TradeStore
	portfolio interfaces.PortfolioStore
	reports   interfaces.ReportStore
	jobs      interfaces.JobQueueStore
}

// NewManager opens the database at the configured path and wires the
// per-domain stores.
func NewManager(logger *common.Logger, config *common.Config) (*Manager, error) {
	store, err := badger.NewStore(logger, config.Storage.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to create store: %w", err)
	}

	logger.Info().Str("path", config.Storage.Path).Msg("Storage manager initialized")

	return &Manager{
		store:     store,
		logger:    logger,
		stocks:    badger.NewStockStorage(store, logger),
		trades:    badger.NewTradeStorage(store, logger),
		portfolio: badger.NewPortfolioStorage(store, logger),
		reports:   badger.NewReportStorage(store, logger),
		jobs:      badger.NewJobQueueStorage(store, logger),
	}, nil
}

func (m *Manager) StockStore() interfaces.StockStore {
	return m.stocks
}

func (m *Manager) TradeStore() interfaces.TradeStore {
	return m.trades
}

func (m *Manager) PortfolioStore() interfaces.PortfolioStore {
	return m.portfolio
}

func (m *Manager) ReportStore() interfaces.ReportStore {
	return m.reports
}

func (m *Manager) JobQueueStore() interfaces.JobQueueStore {
	return m.jobs
}

func (m *Manager) Close() error {
	return m.store.Close()
}

// Ensure Manager implements StorageManager
var _ interfaces.StorageManager = (*Manager)(nil)
