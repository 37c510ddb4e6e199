// Package stock implements the read-through stock catalog: quote lookups
// backed by the cache and store, and the externally paginated listing.
package stock

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/jcalder/brokerd/internal/cache"
	"github.com/jcalder/brokerd/internal/common"
	"github.com/jcalder/brokerd/internal/interfaces"
	"github.com/jcalder/brokerd/internal/models"
)

// maxWalkPages bounds a catalog walk so a vendor returning cyclic tokens
// cannot loop us forever.
const maxWalkPages = 1000

// Service implements interfaces.StockService.
type Service struct {
	vendor   interfaces.VendorClient
	cache    cache.Cache
	stocks   interfaces.StockStore
	logger   *common.Logger
	quoteTTL time.Duration
	tokenTTL time.Duration
}

// NewService creates a new stock service.
func NewService(vendor interfaces.VendorClient, c cache.Cache, stocks interfaces.StockStore, logger *common.Logger, cfg *common.CacheConfig) *Service {
	return &Service{
		vendor:   vendor,
		cache:    c,
		stocks:   stocks,
		logger:   logger,
		quoteTTL: cfg.GetQuoteTTL(),
		tokenTTL: cfg.GetTokenTTL(),
	}
}

// GetQuote resolves the current quote for a symbol: cache, then store (when
// fresh), then a full catalog walk. A symbol still unknown after a fresh
// walk does not exist.
func (s *Service) GetQuote(ctx context.Context, symbol string) (*models.Stock, error) {
	if val, ok, err := s.cache.Get(ctx, cache.QuoteKey(symbol)); err == nil && ok {
		var stock models.Stock
		if err := json.Unmarshal([]byte(val), &stock); err == nil {
			return &stock, nil
		}
		// Unreadable cache entry: drop it and fall through.
		s.cache.Delete(ctx, cache.QuoteKey(symbol))
	}

	stock, err := s.stocks.Get(ctx, symbol)
	if err == nil && common.IsFresh(stock.LastFetchedAt, s.quoteTTL) {
		s.cacheQuote(ctx, stock)
		return stock, nil
	}

	// Miss or stale. If a recent full walk already covered the catalog, a
	// missing symbol is genuinely unknown and we skip the walk.
	if stock == nil {
		if _, ok, cerr := s.cache.Get(ctx, cache.CatalogKey); cerr == nil && ok {
			return nil, common.NewStockNotFound(symbol)
		}
	}

	if err := s.refreshCatalog(ctx); err != nil {
		// A stale quote beats no quote when the vendor is down.
		if stock != nil {
			s.logger.Warn().
				Str("symbol", symbol).
				Err(err).
				Msg("Catalog refresh failed; serving stale quote")
			return stock, nil
		}
		return nil, err
	}

	stock, err = s.stocks.Get(ctx, symbol)
	if err != nil {
		return nil, common.NewStockNotFound(symbol)
	}
	s.cacheQuote(ctx, stock)
	return stock, nil
}

// refreshCatalog walks every vendor page, persisting and caching all items,
// and marks the walk complete.
func (s *Service) refreshCatalog(ctx context.Context) error {
	start := time.Now()
	total := 0
	token := ""

	for page := 1; page <= maxWalkPages; page++ {
		items, next, err := s.vendor.FetchStocks(ctx, token)
		if err != nil {
			return err
		}

		if err := s.absorb(ctx, items); err != nil {
			return err
		}
		total += len(items)

		if next == "" {
			break
		}
		token = next
	}

	s.cache.Set(ctx, cache.CatalogKey, strconv.Itoa(total), s.quoteTTL)

	s.logger.Info().
		Int("stocks", total).
		Dur("elapsed", time.Since(start)).
		Msg("Catalog walk complete")
	return nil
}

func (s *Service) cacheQuote(ctx context.Context, stock *models.Stock) {
	data, err := json.Marshal(stock)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, cache.QuoteKey(stock.Symbol), string(data), s.quoteTTL); err != nil {
		s.logger.Warn().Str("symbol", stock.Symbol).Err(err).Msg("Failed to cache quote")
	}
}

// Ensure Service implements StockService
var _ interfaces.StockService = (*Service)(nil)
