package portfolio

import (
	"testing"

	"github.com/stretchr/testify/require"

	"turbopricer/internal/domain"
)

func finalizedMarket(id string, winner int) domain.Market {
	return domain.Market{
		ID:             id,
		FactoryAddress: "0xfactory",
		Outcomes: []domain.Outcome{
			{ID: 0, Name: "Invalid", IsInvalid: true},
			{ID: 1, Name: "Yes"},
			{ID: 2, Name: "No"},
		},
		Status: domain.MarketStatusFinalized,
		Winner: &winner,
	}
}

func TestPopulateClaimableWinnings(t *testing.T) {
	t.Run("attaches claimable value for a winning position", func(t *testing.T) {
		shares := map[string]*domain.MarketShares{
			"0xfactory-1": {
				MarketID: "0xfactory-1",
				Positions: []domain.PositionBalance{{
					OutcomeID:   1,
					Balance:     "5",
					RawBalance:  "5000000000000000000",
					InitCostUsd: "2",
				}},
				OutcomeSharesRaw: []string{"0", "5000000000000000000", "0"},
			},
		}
		finalized := map[string]domain.Market{"0xfactory-1": finalizedMarket("0xfactory-1", 1)}

		PopulateClaimableWinnings(finalized, shares)

		cw := shares["0xfactory-1"].ClaimableWinnings
		require.NotNil(t, cw)
		require.Equal(t, "3.0000", cw.ClaimableBalance)
		require.Equal(t, "0xfactory", cw.FactoryAddress)
		require.Equal(t, []string{"0", "5000000000000000000", "0"}, cw.UserBalancesRaw)
	})

	t.Run("skips markets that are not finalized", func(t *testing.T) {
		shares := map[string]*domain.MarketShares{
			"0xfactory-2": {
				MarketID:  "0xfactory-2",
				Positions: []domain.PositionBalance{{OutcomeID: 1, Balance: "5", RawBalance: "5000000000000000000"}},
			},
		}
		PopulateClaimableWinnings(map[string]domain.Market{}, shares)
		require.Nil(t, shares["0xfactory-2"].ClaimableWinnings)
	})

	t.Run("skips losing-only positions", func(t *testing.T) {
		shares := map[string]*domain.MarketShares{
			"0xfactory-1": {
				MarketID:  "0xfactory-1",
				Positions: []domain.PositionBalance{{OutcomeID: 2, Balance: "5", RawBalance: "5000000000000000000"}},
			},
		}
		finalized := map[string]domain.Market{"0xfactory-1": finalizedMarket("0xfactory-1", 1)}
		PopulateClaimableWinnings(finalized, shares)
		require.Nil(t, shares["0xfactory-1"].ClaimableWinnings)
	})

	t.Run("skips zero raw balances", func(t *testing.T) {
		shares := map[string]*domain.MarketShares{
			"0xfactory-1": {
				MarketID:  "0xfactory-1",
				Positions: []domain.PositionBalance{{OutcomeID: 1, Balance: "0", RawBalance: "0"}},
			},
		}
		finalized := map[string]domain.Market{"0xfactory-1": finalizedMarket("0xfactory-1", 1)}
		PopulateClaimableWinnings(finalized, shares)
		require.Nil(t, shares["0xfactory-1"].ClaimableWinnings)
	})
}

func TestAggregateClaimable(t *testing.T) {
	t.Run("rolls up winning markets", func(t *testing.T) {
		shares := map[string]*domain.MarketShares{
			"0xfactory-1": {ClaimableWinnings: &domain.ClaimableWinnings{
				MarketID:         "0xfactory-1",
				FactoryAddress:   "0xfactory",
				ClaimableBalance: "3.0000",
			}},
			"0xfactory-2": {ClaimableWinnings: &domain.ClaimableWinnings{
				MarketID:         "0xfactory-2",
				FactoryAddress:   "0xfactory",
				ClaimableBalance: "1.2500",
			}},
			"0xfactory-3": {},
		}

		totals := AggregateClaimable(shares)
		require.True(t, totals.HasWinnings)
		require.Equal(t, "4.2500", totals.Total)
		require.Len(t, totals.MarketIDs, 2)
		require.Len(t, totals.Factories, 2)
	})

	t.Run("empty rollup", func(t *testing.T) {
		totals := AggregateClaimable(map[string]*domain.MarketShares{})
		require.False(t, totals.HasWinnings)
		require.Equal(t, "0.0000", totals.Total)
		require.Empty(t, totals.MarketIDs)
	})
}
