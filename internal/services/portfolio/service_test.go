package portfolio

import (
	"context"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jcalder/brokerd/internal/common"
	"github.com/jcalder/brokerd/internal/models"
)

// fakeStore mirrors the badger PortfolioStore semantics in memory:
// atomic deltas, delete at zero, symbol-ordered listing.
type fakeStore struct {
	mu       sync.Mutex
	holdings map[string]*models.Holding
}

func newFakeStore() *fakeStore {
	return &fakeStore{holdings: map[string]*models.Holding{}}
}

func (s *fakeStore) ApplyDelta(_ context.Context, userID, symbol string, delta int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := models.HoldingKey(userID, symbol)
	h := s.holdings[key]
	if h == nil {
		h = &models.Holding{Key: key, UserID: userID, Symbol: symbol}
	}
	h.Quantity += delta
	h.UpdatedAt = time.Now()
	if h.Quantity <= 0 {
		delete(s.holdings, key)
		return nil
	}
	s.holdings[key] = h
	return nil
}

func (s *fakeStore) Get(_ context.Context, userID, symbol string) (*models.Holding, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	h, ok := s.holdings[models.HoldingKey(userID, symbol)]
	if !ok {
		return nil, common.NewStockNotFound(symbol)
	}
	cp := *h
	return &cp, nil
}

func (s *fakeStore) ListByUser(_ context.Context, userID string) ([]models.Holding, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Holding
	for _, h := range s.holdings {
		if h.UserID == userID {
			out = append(out, *h)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Symbol < out[j].Symbol })
	return out, nil
}

func newTestService() (*Service, *fakeStore) {
	store := newFakeStore()
	return NewService(store, common.NewSilentLogger()), store
}

func TestApplyAccumulates(t *testing.T) {
	svc, store := newTestService()
	ctx := context.Background()

	require.NoError(t, svc.Apply(ctx, "alice", "AAPL", 5))
	require.NoError(t, svc.Apply(ctx, "alice", "AAPL", 3))

	h, err := store.Get(ctx, "alice", "AAPL")
	require.NoError(t, err)
	assert.Equal(t, 8, h.Quantity)
}

func TestApplyRemovesAtZero(t *testing.T) {
	svc, store := newTestService()
	ctx := context.Background()

	require.NoError(t, svc.Apply(ctx, "alice", "AAPL", 5))
	require.NoError(t, svc.Apply(ctx, "alice", "AAPL", -5))

	_, err := store.Get(ctx, "alice", "AAPL")
	assert.Error(t, err, "holding at zero must be removed, not stored")
}

func TestGetHoldingsOrderedBySymbol(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	svc.Apply(ctx, "alice", "TSLA", 1)
	svc.Apply(ctx, "alice", "AAPL", 2)
	svc.Apply(ctx, "alice", "MSFT", 3)

	page, err := svc.GetHoldings(ctx, "alice", "", 10)
	require.NoError(t, err)
	require.Len(t, page.Holdings, 3)
	assert.Equal(t, "AAPL", page.Holdings[0].Symbol)
	assert.Equal(t, "MSFT", page.Holdings[1].Symbol)
	assert.Equal(t, "TSLA", page.Holdings[2].Symbol)
	assert.Empty(t, page.NextCursor)
}

func TestGetHoldingsPaginates(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	for _, sym := range []string{"AAPL", "AMZN", "MSFT", "NVDA", "TSLA"} {
		svc.Apply(ctx, "alice", sym, 1)
	}

	first, err := svc.GetHoldings(ctx, "alice", "", 2)
	require.NoError(t, err)
	require.Len(t, first.Holdings, 2)
	require.NotEmpty(t, first.NextCursor)
	assert.Equal(t, "AAPL", first.Holdings[0].Symbol)

	second, err := svc.GetHoldings(ctx, "alice", first.NextCursor, 2)
	require.NoError(t, err)
	require.Len(t, second.Holdings, 2)
	assert.Equal(t, "MSFT", second.Holdings[0].Symbol)

	third, err := svc.GetHoldings(ctx, "alice", second.NextCursor, 2)
	require.NoError(t, err)
	require.Len(t, third.Holdings, 1)
	assert.Equal(t, "TSLA", third.Holdings[0].Symbol)
	assert.Empty(t, third.NextCursor)
}

func TestGetHoldingsUnknownUser(t *testing.T) {
	svc, _ := newTestService()

	_, err := svc.GetHoldings(context.Background(), "nobody", "", 10)
	require.Error(t, err)

	appErr := common.AsAppError(err)
	assert.Equal(t, common.CodeHoldingsNotFound, appErr.Code)
	assert.Contains(t, appErr.Message, "no holdings found for user 'nobody'")
}

func TestGetHoldingsBadCursor(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	svc.Apply(ctx, "alice", "AAPL", 1)

	_, err := svc.GetHoldings(ctx, "alice", "not-base64!!", 10)
	require.Error(t, err)
	assert.Equal(t, common.CodeInvalidInput, common.AsAppError(err).Code)
}

func TestBuyThenSellRemovesHolding(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	svc.Apply(ctx, "alice", "AAPL", 5)
	svc.Apply(ctx, "alice", "MSFT", 2)
	svc.Apply(ctx, "alice", "AAPL", -5)

	page, err := svc.GetHoldings(ctx, "alice", "", 10)
	require.NoError(t, err)
	require.Len(t, page.Holdings, 1)
	assert.Equal(t, "MSFT", page.Holdings[0].Symbol)
}
