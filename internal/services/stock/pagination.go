package stock

import (
	"context"
	"time"

	"github.com/jcalder/brokerd/internal/cache"
	"github.com/jcalder/brokerd/internal/common"
	"github.com/jcalder/brokerd/internal/interfaces"
	"github.com/jcalder/brokerd/internal/models"
)

// ListPage returns one external page of the catalog. The vendor paginates
// by opaque continuation token; clients see stable 1-based page numbers.
// The token that fetches page N is cached under the page number, and a
// cache miss is repaired by refetching pages 1..N-1 to resynthesize the
// chain.
func (s *Service) ListPage(ctx context.Context, page int) (*models.StockPage, error) {
	if page < 1 {
		return nil, common.NewInvalidInput("page must be >= 1")
	}

	token, ok, err := s.tokenForPage(ctx, page)
	if err != nil {
		return nil, err
	}
	if !ok {
		// The catalog ended before the requested page.
		return emptyPage(page), nil
	}

	items, next, err := s.vendor.FetchStocks(ctx, token)
	if err != nil {
		return nil, err
	}
	if err := s.absorb(ctx, items); err != nil {
		return nil, err
	}
	if next != "" {
		s.cache.Set(ctx, cache.PageTokenKey(page+1), next, s.tokenTTL)
	}

	stocks := make([]models.Stock, len(items))
	now := time.Now()
	for i, it := range items {
		stocks[i] = models.Stock{Symbol: it.Symbol, Name: it.Name, Price: it.Price, LastFetchedAt: now}
	}

	return &models.StockPage{
		Items:      stocks,
		Pagination: buildMeta(page, len(items), next != ""),
	}, nil
}

// tokenForPage resolves the continuation token that fetches the given page.
// Page 1 needs no token. ok is false when the catalog has fewer pages.
func (s *Service) tokenForPage(ctx context.Context, page int) (string, bool, error) {
	if page == 1 {
		return "", true, nil
	}

	if token, ok, err := s.cache.Get(ctx, cache.PageTokenKey(page)); err == nil && ok {
		return token, true, nil
	}

	// Token expired or never seen: rebuild the chain from the front.
	s.logger.Debug().Int("page", page).Msg("Resynthesizing pagination token chain")

	token := ""
	for p := 1; p < page; p++ {
		items, next, err := s.vendor.FetchStocks(ctx, token)
		if err != nil {
			return "", false, err
		}
		if err := s.absorb(ctx, items); err != nil {
			return "", false, err
		}
		if next == "" {
			return "", false, nil
		}
		s.cache.Set(ctx, cache.PageTokenKey(p+1), next, s.tokenTTL)
		token = next
	}
	return token, true, nil
}

// absorb write-through persists and caches every item seen while paging, so
// pagination traffic keeps quotes warm.
func (s *Service) absorb(ctx context.Context, items []interfaces.VendorStock) error {
	if len(items) == 0 {
		return nil
	}
	batch := make([]models.Stock, len(items))
	now := time.Now()
	for i, it := range items {
		batch[i] = models.Stock{Symbol: it.Symbol, Name: it.Name, Price: it.Price, LastFetchedAt: now}
	}
	if err := s.stocks.UpsertBatch(ctx, batch); err != nil {
		return common.NewStorageError("failed to persist page", err)
	}
	for i := range batch {
		s.cacheQuote(ctx, &batch[i])
	}
	return nil
}

// buildMeta estimates totals from pages seen so far. The vendor never
// reports a catalog size, so totals are flagged approximate except for a
// single-page catalog.
func buildMeta(page, pageLen int, hasNext bool) models.PaginationMeta {
	pageSize := pageLen
	if pageSize == 0 {
		pageSize = 1
	}

	totalItems := (page-1)*pageSize + pageLen
	totalPages := page
	if hasNext {
		totalItems += pageSize
		totalPages++
	}

	return models.PaginationMeta{
		Page:        page,
		PageSize:    pageLen,
		TotalItems:  totalItems,
		TotalPages:  totalPages,
		HasNextPage: hasNext,
		Approximate: hasNext || page > 1,
	}
}

func emptyPage(page int) *models.StockPage {
	return &models.StockPage{
		Items: []models.Stock{},
		Pagination: models.PaginationMeta{
			Page:        page,
			PageSize:    0,
			HasNextPage: false,
			Approximate: true,
		},
	}
}
