package amm

import (
	"math/big"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"turbopricer/internal/domain"
)

// testPool is a symmetric two-outcome pool: 1000 shares a side, equal
// weights, 1.5% swap fee, USDC-style share factor.
func testPool() *domain.Pool {
	bal := func() *big.Int { return new(big.Int).Mul(big.NewInt(1000), big.NewInt(1e18)) }
	w := func() *big.Int { return new(big.Int).Mul(big.NewInt(25), big.NewInt(1e18)) }
	return &domain.Pool{
		Address:     "0x00000000000000000000000000000000000000aa",
		MarketID:    "0xfac-1",
		BalancesRaw: []*big.Int{bal(), bal()},
		Weights:     []*big.Int{w(), w()},
		FeeRaw:      new(big.Int).Mul(big.NewInt(15), big.NewInt(1e15)),
		TotalSupply: bal(),
		ShareFactor: big.NewInt(1e12),
	}
}

func TestEstimateBuy(t *testing.T) {
	pool := testPool()

	t.Run("monotone in collateral", func(t *testing.T) {
		small, err := EstimateBuy(pool.ShareFactor, 0, big.NewInt(10_000_000), pool.BalancesRaw, pool.Weights, pool.FeeRaw)
		require.NoError(t, err)
		large, err := EstimateBuy(pool.ShareFactor, 0, big.NewInt(20_000_000), pool.BalancesRaw, pool.Weights, pool.FeeRaw)
		require.NoError(t, err)
		require.True(t, large.Cmp(small) > 0, "20 USDC bought %s shares, 10 USDC bought %s", large, small)
	})

	t.Run("zero collateral buys nothing", func(t *testing.T) {
		got, err := EstimateBuy(pool.ShareFactor, 0, new(big.Int), pool.BalancesRaw, pool.Weights, pool.FeeRaw)
		require.NoError(t, err)
		require.Zero(t, got.Sign())
	})

	t.Run("rejects nil and negative amounts", func(t *testing.T) {
		_, err := EstimateBuy(pool.ShareFactor, 0, nil, pool.BalancesRaw, pool.Weights, pool.FeeRaw)
		require.ErrorIs(t, err, domain.ErrInvalidAmount)
		_, err = EstimateBuy(pool.ShareFactor, 0, big.NewInt(-1), pool.BalancesRaw, pool.Weights, pool.FeeRaw)
		require.ErrorIs(t, err, domain.ErrInvalidAmount)
	})

	t.Run("rejects malformed pool state", func(t *testing.T) {
		_, err := EstimateBuy(pool.ShareFactor, 5, big.NewInt(1), pool.BalancesRaw, pool.Weights, pool.FeeRaw)
		require.ErrorIs(t, err, domain.ErrMalformedData)
		_, err = EstimateBuy(nil, 0, big.NewInt(1), pool.BalancesRaw, pool.Weights, pool.FeeRaw)
		require.ErrorIs(t, err, domain.ErrMalformedData)
		_, err = EstimateBuy(pool.ShareFactor, 0, big.NewInt(1), pool.BalancesRaw[:1], pool.Weights, pool.FeeRaw)
		require.ErrorIs(t, err, domain.ErrMalformedData)
	})
}

func TestEstimateBuyTrade(t *testing.T) {
	pool := testPool()
	spot := decimal.RequireFromString("0.5")

	t.Run("symmetric pool trade", func(t *testing.T) {
		est, err := EstimateBuyTrade(pool, 0, decimal.NewFromInt(100), spot, DefaultCashDecimals)
		require.NoError(t, err)

		// 100 USDC at a 0.5 spot price caps out below 200 shares once the
		// fee and slippage bite, but lands close for a deep pool.
		shares := decimal.RequireFromString(est.OutputValue)
		require.True(t, shares.LessThan(decimal.NewFromInt(200)), "shares = %s", shares)
		require.True(t, shares.GreaterThan(decimal.NewFromInt(180)), "shares = %s", shares)

		require.Equal(t, "1.5", est.TradeFees)

		avg := decimal.RequireFromString(est.AveragePrice)
		require.True(t, avg.GreaterThan(spot), "average price %s should exceed spot %s", avg, spot)

		slippage := decimal.RequireFromString(est.SlippagePercent)
		require.True(t, slippage.IsPositive())
	})

	t.Run("input validation", func(t *testing.T) {
		_, err := EstimateBuyTrade(nil, 0, decimal.NewFromInt(1), spot, DefaultCashDecimals)
		require.ErrorIs(t, err, domain.ErrUnavailable)
		_, err = EstimateBuyTrade(pool, 0, decimal.Zero, spot, DefaultCashDecimals)
		require.ErrorIs(t, err, domain.ErrInvalidAmount)
		_, err = EstimateBuyTrade(pool, 0, decimal.NewFromInt(-5), spot, DefaultCashDecimals)
		require.ErrorIs(t, err, domain.ErrInvalidAmount)
	})
}
