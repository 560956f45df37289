package portfolio

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"turbopricer/internal/domain"
)

func TestTotalPositions(t *testing.T) {
	shares := map[string]*domain.MarketShares{
		"m1": {Positions: []domain.PositionBalance{
			{UsdValue: "10", Past24hrUsdValue: "8"},
			{UsdValue: "5"},
		}},
		"m2": {Positions: []domain.PositionBalance{
			{UsdValue: "not-a-number"},
		}},
	}

	totals := TotalPositions(shares)
	require.Equal(t, "15", totals.TotalPositionUsd)
	require.Equal(t, "8", totals.Total24hrPositionUsd)
	require.Equal(t, "7", totals.Change24hrPositionUsd)
}

func TestUserLpTokenInitialAmount(t *testing.T) {
	all := domain.AllMarketsTransactions{
		"m1": {
			AddLiquidity: []domain.LiquidityChange{
				{Sender: alice, Collateral: decimal.NewFromInt(-10)},
				{Sender: bob, Collateral: decimal.NewFromInt(-50)},
			},
			RemoveLiquidity: []domain.LiquidityChange{
				{Sender: alice, Collateral: decimal.NewFromInt(4)},
			},
		},
		"m2": {},
	}

	got := UserLpTokenInitialAmount(all, alice)
	require.Equal(t, "6", got["m1"])
	require.Equal(t, "0", got["m2"])
}

func TestFilterUserTransactions(t *testing.T) {
	all := domain.AllMarketsTransactions{
		"m1": {
			MarketID: "m1",
			Trades: []domain.Trade{
				{User: alice, Timestamp: 1},
				{User: bob, Timestamp: 2},
			},
			AddLiquidity:    []domain.LiquidityChange{{Sender: bob}},
			ClaimedProceeds: []domain.ClaimedProceeds{{Receiver: alice}},
		},
	}

	// Checksummed casing still matches.
	got := FilterUserTransactions(all, "0x1111111111111111111111111111111111111111")
	require.Len(t, got["m1"].Trades, 1)
	require.Equal(t, alice, got["m1"].Trades[0].User)
	require.Empty(t, got["m1"].AddLiquidity)
	require.Len(t, got["m1"].ClaimedProceeds, 1)
}

func TestFinalize(t *testing.T) {
	ub := domain.NewUserBalances(alice)
	ub.ETH = domain.CurrencyBalance{Balance: "1", RawBalance: "1000000000000000000", UsdValue: "100"}
	ub.USDC = domain.CurrencyBalance{Balance: "50", RawBalance: "50000000", UsdValue: "50"}
	ub.MarketShares["m1"] = &domain.MarketShares{
		Positions: []domain.PositionBalance{{UsdValue: "15"}},
	}

	Finalize(ub)

	require.Equal(t, "150", ub.AvailableFundsUsd)
	require.Equal(t, "165", ub.TotalAccountValue)
	require.Equal(t, "15", ub.TotalPositionUsd)
	require.False(t, ub.Claimable.HasWinnings)
}
