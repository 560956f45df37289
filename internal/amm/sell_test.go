package amm

import (
	"math/big"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"turbopricer/internal/domain"
)

func TestCalcSellCompleteSets(t *testing.T) {
	pool := testPool()

	t.Run("result is a whole multiple of the share factor", func(t *testing.T) {
		sharesIn := new(big.Int).Mul(big.NewInt(100), big.NewInt(1e18))
		sets, err := CalcSellCompleteSets(pool.ShareFactor, 0, sharesIn, pool.BalancesRaw, pool.Weights, pool.FeeRaw)
		require.NoError(t, err)
		require.True(t, sets.Sign() > 0)
		require.Zero(t, new(big.Int).Mod(sets, pool.ShareFactor).Sign())
	})

	t.Run("sets cost more than one share each", func(t *testing.T) {
		// Every set locks one target share and buys the others from the
		// pool, so the sets assembled never reach the shares put in.
		sharesIn := new(big.Int).Mul(big.NewInt(100), big.NewInt(1e18))
		sets, err := CalcSellCompleteSets(pool.ShareFactor, 0, sharesIn, pool.BalancesRaw, pool.Weights, pool.FeeRaw)
		require.NoError(t, err)
		require.True(t, sets.Cmp(sharesIn) < 0, "sets %s, shares in %s", sets, sharesIn)
	})

	t.Run("zero shares is a zero trade", func(t *testing.T) {
		sets, err := CalcSellCompleteSets(pool.ShareFactor, 0, new(big.Int), pool.BalancesRaw, pool.Weights, pool.FeeRaw)
		require.NoError(t, err)
		require.Zero(t, sets.Sign())
	})

	t.Run("dust below one set does not converge", func(t *testing.T) {
		_, err := CalcSellCompleteSets(pool.ShareFactor, 0, big.NewInt(1e11), pool.BalancesRaw, pool.Weights, pool.FeeRaw)
		require.ErrorIs(t, err, domain.ErrNonConvergence)
	})

	t.Run("rejects negative input", func(t *testing.T) {
		_, err := CalcSellCompleteSets(pool.ShareFactor, 0, big.NewInt(-1), pool.BalancesRaw, pool.Weights, pool.FeeRaw)
		require.ErrorIs(t, err, domain.ErrInvalidAmount)
	})
}

func TestBuySellRoundTrip(t *testing.T) {
	// A buy immediately unwound against the same pool state can never come
	// out ahead: the collateral redeemed from the sell stays at or below the
	// collateral spent on the buy.
	pool := testPool()

	cases := []struct {
		name         string
		collateralIn *big.Int
		outcome      int
	}{
		{"one dollar", big.NewInt(1_000_000), 0},
		{"hundred dollars", big.NewInt(100_000_000), 0},
		{"hundred dollars other outcome", big.NewInt(100_000_000), 1},
		{"large trade", big.NewInt(2_500_000_000), 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			shares, err := EstimateBuy(pool.ShareFactor, tc.outcome, tc.collateralIn, pool.BalancesRaw, pool.Weights, pool.FeeRaw)
			require.NoError(t, err)
			require.True(t, shares.Sign() > 0)

			sets, err := CalcSellCompleteSets(pool.ShareFactor, tc.outcome, shares, pool.BalancesRaw, pool.Weights, pool.FeeRaw)
			require.NoError(t, err)

			collateralOut := new(big.Int).Div(sets, pool.ShareFactor)
			require.True(t, collateralOut.Cmp(tc.collateralIn) <= 0,
				"in %s, out %s", tc.collateralIn, collateralOut)
		})
	}
}

func TestEstimateSellTrade(t *testing.T) {
	pool := testPool()
	spot := decimal.RequireFromString("0.5")

	t.Run("symmetric pool trade", func(t *testing.T) {
		est, err := EstimateSellTrade(pool, 0, decimal.NewFromInt(100), spot, decimal.NewFromInt(150))
		require.NoError(t, err)

		// 100 shares at a 0.5 price are worth 50 USDC; slippage shaves a
		// little off, fees do not apply to the set redemption itself.
		out := decimal.RequireFromString(est.OutputValue)
		require.True(t, out.LessThan(decimal.NewFromInt(50)), "collateral out = %s", out)
		require.True(t, out.GreaterThan(decimal.NewFromInt(45)), "collateral out = %s", out)

		require.Equal(t, "50.000000", est.RemainingShares)

		avg := decimal.RequireFromString(est.AveragePrice)
		require.True(t, avg.LessThanOrEqual(spot), "average price %s should not exceed spot %s", avg, spot)
	})

	t.Run("input validation", func(t *testing.T) {
		_, err := EstimateSellTrade(nil, 0, decimal.NewFromInt(1), spot, decimal.Zero)
		require.ErrorIs(t, err, domain.ErrUnavailable)
		_, err = EstimateSellTrade(pool, 0, decimal.Zero, spot, decimal.Zero)
		require.ErrorIs(t, err, domain.ErrInvalidAmount)
	})
}
