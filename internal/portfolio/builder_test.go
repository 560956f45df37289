package portfolio

import (
	"math/big"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"turbopricer/internal/domain"
)

func buildFixture(status domain.MarketStatus, winner *int) (Snapshot, AccountBalances, domain.AllMarketsTransactions) {
	marketID := "0xfac-1"
	bal := func() *big.Int { return new(big.Int).Mul(big.NewInt(1000), big.NewInt(1e18)) }
	w := func() *big.Int { return new(big.Int).Mul(big.NewInt(25), big.NewInt(1e18)) }

	snap := Snapshot{
		Markets: map[string]domain.Market{
			marketID: {
				ID:             marketID,
				FactoryAddress: "0xfac",
				Outcomes: []domain.Outcome{
					{ID: 0, Name: "A"},
					{ID: 1, Name: "B"},
				},
				Status: status,
				Winner: winner,
			},
		},
		Pools: map[string]*domain.Pool{
			marketID: {
				Address:     "0xpool",
				MarketID:    marketID,
				BalancesRaw: []*big.Int{bal(), bal()},
				Weights:     []*big.Int{w(), w()},
				Ratios:      []*big.Int{big.NewInt(1), big.NewInt(1)},
				FeeRaw:      new(big.Int).Mul(big.NewInt(15), big.NewInt(1e15)),
				TotalSupply: bal(),
				ShareFactor: big.NewInt(1e12),
			},
		},
		CashUsdPrice: decimal.NewFromInt(1),
		EthUsdPrice:  decimal.NewFromInt(2000),
		CashDecimals: 6,
	}

	acct := AccountBalances{
		EthRaw:  new(big.Int).Mul(big.NewInt(2), big.NewInt(1e18)),
		CashRaw: big.NewInt(100_000_000),
		LPTokensRaw: map[string]*big.Int{
			marketID: new(big.Int).Mul(big.NewInt(100), big.NewInt(1e18)),
		},
		OutcomeSharesRaw: map[string][]*big.Int{
			marketID: {new(big.Int), new(big.Int).Mul(big.NewInt(10), big.NewInt(1e18))},
		},
	}

	txs := domain.AllMarketsTransactions{
		marketID: {
			MarketID: marketID,
			Trades:   []domain.Trade{buy(alice, 1, "10", "0.5", 100)},
		},
	}
	return snap, acct, txs
}

func TestBuild(t *testing.T) {
	t.Run("full rollup for a trading market", func(t *testing.T) {
		snap, acct, txs := buildFixture(domain.MarketStatusTrading, nil)
		past24 := func(marketID string, outcomeID int) string {
			if outcomeID == 1 {
				return "6.5"
			}
			return ""
		}

		ub := Build(snap, alice, acct, txs, past24)

		require.Equal(t, "2", ub.ETH.Balance)
		require.Equal(t, "4000", ub.ETH.UsdValue)
		require.Equal(t, "100", ub.USDC.Balance)

		ms := ub.MarketShares["0xfac-1"]
		require.NotNil(t, ms)
		require.Equal(t, []string{"0", "10"}, ms.OutcomeShares)
		require.Len(t, ms.Positions, 1)

		pos := ms.Positions[0]
		require.Equal(t, 1, pos.OutcomeID)
		require.Equal(t, "B", pos.OutcomeName)
		require.Equal(t, "0.500000", pos.AvgPrice)
		require.Equal(t, "5", pos.InitCostUsd)
		require.Equal(t, "5", pos.UsdValue)
		require.Equal(t, "6.5", pos.Past24hrUsdValue)

		lp, ok := ub.LPTokens["0xfac-1"]
		require.True(t, ok)
		require.Equal(t, "100", lp.Balance)
		require.Equal(t, "0", lp.InitCostUsd)
		require.Equal(t, "100", lp.UsdValue)

		require.Equal(t, "5", ub.TotalPositionUsd)
		require.Equal(t, "6.5", ub.Total24hrPositionUsd)
		require.Equal(t, "-1.5", ub.Change24hrPositionUsd)
		require.Equal(t, "4100", ub.AvailableFundsUsd)
		require.Equal(t, "4105", ub.TotalAccountValue)
		require.False(t, ub.Claimable.HasWinnings)
	})

	t.Run("finalized market exposes claimable winnings", func(t *testing.T) {
		winner := 1
		snap, acct, txs := buildFixture(domain.MarketStatusFinalized, &winner)

		ub := Build(snap, alice, acct, txs, nil)

		ms := ub.MarketShares["0xfac-1"]
		require.NotNil(t, ms)
		require.NotNil(t, ms.ClaimableWinnings)
		require.Equal(t, "5.0000", ms.ClaimableWinnings.ClaimableBalance)
		require.True(t, ub.Claimable.HasWinnings)
		require.Equal(t, "5.0000", ub.Claimable.Total)
		require.Equal(t, []string{"0xfac-1"}, ub.Claimable.MarketIDs)
	})

	t.Run("markets without pools are skipped", func(t *testing.T) {
		snap, acct, txs := buildFixture(domain.MarketStatusTrading, nil)
		snap.Pools = map[string]*domain.Pool{}

		ub := Build(snap, alice, acct, txs, nil)
		require.Empty(t, ub.MarketShares)
	})

	t.Run("empty account yields the zero portfolio", func(t *testing.T) {
		snap, acct, txs := buildFixture(domain.MarketStatusTrading, nil)
		ub := Build(snap, "", acct, txs, nil)
		require.Equal(t, "0", ub.TotalAccountValue)
		require.Empty(t, ub.MarketShares)
	})
}
