package amm

import (
	"math/big"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"turbopricer/internal/domain"
)

func TestCalcWeights(t *testing.T) {
	t.Run("spreads total weight by price", func(t *testing.T) {
		weights, err := CalcWeights([]decimal.Decimal{
			decimal.RequireFromString("0.3"),
			decimal.RequireFromString("0.7"),
		})
		require.NoError(t, err)
		require.Len(t, weights, 2)
		require.Equal(t, "15000000000000000000", weights[0].String())
		require.Equal(t, "35000000000000000000", weights[1].String())
	})

	t.Run("prices must sum to one", func(t *testing.T) {
		_, err := CalcWeights([]decimal.Decimal{
			decimal.RequireFromString("0.3"),
			decimal.RequireFromString("0.6"),
		})
		require.ErrorIs(t, err, domain.ErrInvalidAmount)
	})

	t.Run("rejects negative and empty inputs", func(t *testing.T) {
		_, err := CalcWeights([]decimal.Decimal{
			decimal.RequireFromString("-0.5"),
			decimal.RequireFromString("1.5"),
		})
		require.ErrorIs(t, err, domain.ErrInvalidAmount)
		_, err = CalcWeights(nil)
		require.ErrorIs(t, err, domain.ErrInvalidAmount)
	})
}

func TestEstimateAddLiquidity(t *testing.T) {
	half := decimal.RequireFromString("0.5")

	t.Run("bootstrap mints one LP token per cash unit", func(t *testing.T) {
		empty := &domain.Pool{ShareFactor: big.NewInt(1e12)}
		breakdown, err := EstimateAddLiquidity(empty, decimal.NewFromInt(100), []decimal.Decimal{half, half}, DefaultCashDecimals)
		require.NoError(t, err)
		require.Equal(t, "100.000000", breakdown.LPTokens)
		require.Equal(t, []string{"25000000000000000000", "25000000000000000000"}, breakdown.PoolWeights)
	})

	t.Run("funded pool mints proportionally", func(t *testing.T) {
		breakdown, err := EstimateAddLiquidity(testPool(), decimal.NewFromInt(10), nil, DefaultCashDecimals)
		require.NoError(t, err)
		require.Equal(t, "10.000000", breakdown.LPTokens)
	})

	t.Run("rejects non-positive deposits", func(t *testing.T) {
		_, err := EstimateAddLiquidity(testPool(), decimal.Zero, nil, DefaultCashDecimals)
		require.ErrorIs(t, err, domain.ErrInvalidAmount)
	})
}

func TestEstimateRemoveLiquidity(t *testing.T) {
	t.Run("balanced pool redeems entirely to cash", func(t *testing.T) {
		breakdown, err := EstimateRemoveLiquidity(testPool(), decimal.NewFromInt(100), DefaultCashDecimals)
		require.NoError(t, err)
		require.Equal(t, "100", breakdown.CashAmount)
		for _, amt := range breakdown.MinAmounts {
			require.Equal(t, "0", amt)
		}
	})

	t.Run("unbalanced pool hands back the excess side", func(t *testing.T) {
		pool := testPool()
		pool.BalancesRaw[1] = new(big.Int).Mul(big.NewInt(500), big.NewInt(1e18))
		breakdown, err := EstimateRemoveLiquidity(pool, decimal.NewFromInt(100), DefaultCashDecimals)
		require.NoError(t, err)
		require.Equal(t, "50", breakdown.CashAmount)
		require.Equal(t, "50", breakdown.MinAmounts[0])
		require.Equal(t, "0", breakdown.MinAmounts[1])
	})

	t.Run("cannot burn more than the supply", func(t *testing.T) {
		_, err := EstimateRemoveLiquidity(testPool(), decimal.NewFromInt(1001), DefaultCashDecimals)
		require.ErrorIs(t, err, domain.ErrInvalidAmount)
	})

	t.Run("uninitialized pool has nothing to remove", func(t *testing.T) {
		empty := &domain.Pool{ShareFactor: big.NewInt(1e12)}
		_, err := EstimateRemoveLiquidity(empty, decimal.NewFromInt(1), DefaultCashDecimals)
		require.ErrorIs(t, err, domain.ErrInsufficientLiquidity)
	})
}

func TestLPTokenCurrentValue(t *testing.T) {
	half := decimal.RequireFromString("0.5")
	prices := []decimal.Decimal{half, half}

	t.Run("balanced pool values at face", func(t *testing.T) {
		v, err := LPTokenCurrentValue(testPool(), prices, decimal.NewFromInt(100), decimal.NewFromInt(1), DefaultCashDecimals)
		require.NoError(t, err)
		require.True(t, v.Equal(decimal.NewFromInt(100)), "value = %s", v)
	})

	t.Run("cash price scales the value", func(t *testing.T) {
		v, err := LPTokenCurrentValue(testPool(), prices, decimal.NewFromInt(100), decimal.RequireFromString("0.5"), DefaultCashDecimals)
		require.NoError(t, err)
		require.True(t, v.Equal(decimal.NewFromInt(50)), "value = %s", v)
	})
}
