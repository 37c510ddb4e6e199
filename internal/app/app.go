// Package app wires configuration, storage, cache, clients, and services
// into a running application.
package app

import (
	"fmt"

	"github.com/jcalder/brokerd/internal/cache"
	"github.com/jcalder/brokerd/internal/clients/mailer"
	"github.com/jcalder/brokerd/internal/clients/vendor"
	"github.com/jcalder/brokerd/internal/common"
	"github.com/jcalder/brokerd/internal/interfaces"
	"github.com/jcalder/brokerd/internal/services/jobmanager"
	"github.com/jcalder/brokerd/internal/services/portfolio"
	"github.com/jcalder/brokerd/internal/services/report"
	"github.com/jcalder/brokerd/internal/services/stock"
	"github.com/jcalder/brokerd/internal/services/trade"
	"github.com/jcalder/brokerd/internal/storage"
)

// App holds all application dependencies.
type App struct {
	Config  *common.Config
	Logger  *common.Logger
	Storage interfaces.StorageManager
	Cache   cache.Cache
	Vendor  interfaces.VendorClient

	Stocks    interfaces.StockService
	Trades    interfaces.TradeService
	Portfolio interfaces.PortfolioService
	Reports   interfaces.ReportService
	Jobs      *jobmanager.JobManager
}

// NewApp creates and wires the application.
func NewApp(config *common.Config, logger *common.Logger) (*App, error) {
	storageManager, err := storage.NewManager(logger, config)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	appCache, err := newCache(config, logger)
	if err != nil {
		storageManager.Close()
		return nil, fmt.Errorf("failed to initialize cache: %w", err)
	}

	vendorClient := vendor.NewClient(config.Vendor.APIKey,
		vendor.WithBaseURL(config.Vendor.BaseURL),
		vendor.WithRateLimit(config.Vendor.RateLimit),
		vendor.WithTimeout(config.Vendor.GetTimeout()),
		vendor.WithMaxAttempts(config.Vendor.MaxAttempts),
		vendor.WithLogger(logger),
	)

	stockService := stock.NewService(vendorClient, appCache, storageManager.StockStore(), logger, &config.Cache)
	portfolioService := portfolio.NewService(storageManager.PortfolioStore(), logger)
	tradeService := trade.NewService(stockService, vendorClient, storageManager.TradeStore(), portfolioService, logger)
	reportService := report.NewService(
		storageManager.TradeStore(),
		storageManager.ReportStore(),
		mailer.NewLogMailer(logger),
		&config.Reports,
		logger,
	)
	jobs := jobmanager.NewJobManager(reportService, storageManager, logger, config.Jobs)

	return &App{
		Config:    config,
		Logger:    logger,
		Storage:   storageManager,
		Cache:     appCache,
		Vendor:    vendorClient,
		Stocks:    stockService,
		Trades:    tradeService,
		Portfolio: portfolioService,
		Reports:   reportService,
		Jobs:      jobs,
	}, nil
}

// newCache selects the cache backend from configuration.
func newCache(config *common.Config, logger *common.Logger) (cache.Cache, error) {
	switch config.Cache.Backend {
	case "", "memory":
		return cache.NewMemory()
	case "redis":
		logger.Info().Str("addr", config.Cache.Addr).Msg("Using redis cache backend")
		return cache.NewRedis(config.Cache.Addr, config.Cache.Password, config.Cache.DB)
	default:
		return nil, fmt.Errorf("unknown cache backend: %s", config.Cache.Backend)
	}
}

// Start launches background processing.
func (a *App) Start() {
	a.Jobs.Start()
}

// Close stops background work and releases all resources.
func (a *App) Close() error {
	a.Jobs.Stop()

	if err := a.Cache.Close(); err != nil {
		a.Logger.Warn().Err(err).Msg("Failed to close cache")
	}
	return a.Storage.Close()
}
