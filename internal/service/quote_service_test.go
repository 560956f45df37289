package service

import (
	"context"
	"log/slog"
	"math/big"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"turbopricer/internal/domain"
)

// fakeCache is an in-memory SnapshotCache good enough for quote tests.
type fakeCache struct {
	pools map[string]*domain.Pool
}

func newFakeCache(pools ...*domain.Pool) *fakeCache {
	c := &fakeCache{pools: map[string]*domain.Pool{}}
	for _, p := range pools {
		c.pools[p.MarketID] = p
	}
	return c
}

func (c *fakeCache) SetPool(_ context.Context, pool *domain.Pool, _ time.Duration) error {
	c.pools[pool.MarketID] = pool
	return nil
}

func (c *fakeCache) GetPool(_ context.Context, marketID string) (*domain.Pool, error) {
	p, ok := c.pools[marketID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return p, nil
}

func (c *fakeCache) SetCashPrice(context.Context, string, string) error { return nil }
func (c *fakeCache) GetCashPrice(context.Context, string) (string, error) {
	return "", domain.ErrNotFound
}
func (c *fakeCache) RecordPositionValue(context.Context, string, string, int, string, time.Time) error {
	return nil
}
func (c *fakeCache) PositionValueBefore(context.Context, string, string, int, time.Time) (string, error) {
	return "", domain.ErrNotFound
}

var _ domain.SnapshotCache = (*fakeCache)(nil)

func quotePool() *domain.Pool {
	bal := func() *big.Int { return new(big.Int).Mul(big.NewInt(1000), big.NewInt(1e18)) }
	w := func() *big.Int { return new(big.Int).Mul(big.NewInt(25), big.NewInt(1e18)) }
	return &domain.Pool{
		Address:     "0xpool",
		MarketID:    "0xfac-1",
		BalancesRaw: []*big.Int{bal(), bal()},
		Weights:     []*big.Int{w(), w()},
		Ratios:      []*big.Int{big.NewInt(3), big.NewInt(7)},
		FeeRaw:      new(big.Int).Mul(big.NewInt(15), big.NewInt(1e15)),
		TotalSupply: bal(),
		ShareFactor: big.NewInt(1e12),
	}
}

func newQuoteService(pools ...*domain.Pool) *QuoteService {
	return NewQuoteService(newFakeCache(pools...), 6, slog.Default())
}

func TestQuoteServicePrices(t *testing.T) {
	svc := newQuoteService(quotePool())

	t.Run("known market", func(t *testing.T) {
		got, err := svc.Prices(context.Background(), "0xfac-1")
		require.NoError(t, err)
		require.Equal(t, "0xfac-1", got.MarketID)
		require.Equal(t, []string{"0.3", "0.7"}, got.Prices)
		require.Equal(t, "1000.0000", got.TotalLiquidity)
		require.Equal(t, "0.015", got.Fee)
	})

	t.Run("unknown market", func(t *testing.T) {
		_, err := svc.Prices(context.Background(), "0xfac-404")
		require.ErrorIs(t, err, domain.ErrNotFound)
	})
}

func TestQuoteServiceEstimates(t *testing.T) {
	svc := newQuoteService(quotePool())
	ctx := context.Background()

	t.Run("buy", func(t *testing.T) {
		est, err := svc.EstimateBuy(ctx, "0xfac-1", 1, "100")
		require.NoError(t, err)
		require.NotEmpty(t, est.OutputValue)
	})

	t.Run("sell with balance", func(t *testing.T) {
		est, err := svc.EstimateSell(ctx, "0xfac-1", 1, "50", "80")
		require.NoError(t, err)
		require.Equal(t, "30.000000", est.RemainingShares)
	})

	t.Run("add and remove liquidity", func(t *testing.T) {
		add, err := svc.EstimateAddLiquidity(ctx, "0xfac-1", "10", nil)
		require.NoError(t, err)
		require.NotEmpty(t, add.LPTokens)

		rm, err := svc.EstimateRemoveLiquidity(ctx, "0xfac-1", "10")
		require.NoError(t, err)
		require.NotEmpty(t, rm.CashAmount)
	})

	t.Run("amounts must be positive decimals", func(t *testing.T) {
		_, err := svc.EstimateBuy(ctx, "0xfac-1", 1, "abc")
		require.ErrorIs(t, err, domain.ErrInvalidAmount)
		_, err = svc.EstimateBuy(ctx, "0xfac-1", 1, "0")
		require.ErrorIs(t, err, domain.ErrInvalidAmount)
		_, err = svc.EstimateSell(ctx, "0xfac-1", 1, "5", "not-a-number")
		require.ErrorIs(t, err, domain.ErrInvalidAmount)
		_, err = svc.EstimateAddLiquidity(ctx, "0xfac-1", "10", []string{"bad"})
		require.ErrorIs(t, err, domain.ErrInvalidAmount)
	})

	t.Run("unknown market", func(t *testing.T) {
		_, err := svc.EstimateBuy(ctx, "0xfac-404", 1, "10")
		require.ErrorIs(t, err, domain.ErrNotFound)
	})
}
