package amm

import (
	"math/big"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestCalculatePrices(t *testing.T) {
	t.Run("normalizes ratios", func(t *testing.T) {
		prices := CalculatePrices([]*big.Int{big.NewInt(30), big.NewInt(70)}, nil)
		require.Len(t, prices, 2)
		require.True(t, prices[0].Equal(decimal.RequireFromString("0.3")), "got %s", prices[0])
		require.True(t, prices[1].Equal(decimal.RequireFromString("0.7")), "got %s", prices[1])
	})

	t.Run("falls back to weights when ratios are absent", func(t *testing.T) {
		weights := []*big.Int{big.NewInt(25), big.NewInt(25)}
		prices := CalculatePrices(nil, weights)
		require.Len(t, prices, 2)
		require.True(t, prices[0].Equal(decimal.RequireFromString("0.5")))
		require.True(t, prices[1].Equal(decimal.RequireFromString("0.5")))
	})

	t.Run("nil entries count as zero", func(t *testing.T) {
		prices := CalculatePrices([]*big.Int{nil, big.NewInt(70)}, nil)
		require.Len(t, prices, 2)
		require.True(t, prices[0].IsZero())
		require.True(t, prices[1].Equal(decimal.NewFromInt(1)))
	})

	t.Run("no usable base yields no prices", func(t *testing.T) {
		require.Nil(t, CalculatePrices(nil, nil))
		require.Nil(t, CalculatePrices([]*big.Int{new(big.Int), new(big.Int)}, nil))
	})

	t.Run("sums to one", func(t *testing.T) {
		prices := CalculatePrices([]*big.Int{big.NewInt(13), big.NewInt(29), big.NewInt(58)}, nil)
		sum := decimal.Zero
		for _, p := range prices {
			sum = sum.Add(p)
		}
		require.True(t, sum.Sub(decimal.NewFromInt(1)).Abs().LessThan(decimal.New(1, -12)), "sum = %s", sum)
	})
}

func TestTotalLiquidity(t *testing.T) {
	half := decimal.RequireFromString("0.5")

	t.Run("empty pool values to zero", func(t *testing.T) {
		got := TotalLiquidity([]decimal.Decimal{half, half}, []*big.Int{new(big.Int), new(big.Int)})
		require.Equal(t, "0.0000", got)
	})

	t.Run("no prices", func(t *testing.T) {
		require.Equal(t, "0", TotalLiquidity(nil, []*big.Int{big.NewInt(1)}))
	})

	t.Run("balanced pool", func(t *testing.T) {
		bal := new(big.Int).Mul(big.NewInt(100), big.NewInt(1e18))
		got := TotalLiquidity([]decimal.Decimal{half, half}, []*big.Int{bal, bal})
		require.Equal(t, "100.0000", got)
	})

	t.Run("missing balances are skipped", func(t *testing.T) {
		bal := new(big.Int).Mul(big.NewInt(100), big.NewInt(1e18))
		got := TotalLiquidity([]decimal.Decimal{half, half}, []*big.Int{bal})
		require.Equal(t, "50.0000", got)
	})
}
