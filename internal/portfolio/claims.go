package portfolio

import (
	"math/big"

	"github.com/shopspring/decimal"

	"turbopricer/internal/domain"
)

// PopulateClaimableWinnings walks every finalized market with a determined
// winner and attaches claimable-winnings info to the account's market
// shares: when the account holds a positive raw balance of the winning
// outcome, the claimable balance is |current value − initial cost basis| at
// 4 places. Markets missing from the finalized lookup are silently skipped:
// not yet claimable, never an error.
func PopulateClaimableWinnings(finalized map[string]domain.Market, shares map[string]*domain.MarketShares) {
	for marketID, ms := range shares {
		market, ok := finalized[marketID]
		if !ok {
			continue
		}
		winner, ok := market.WinningOutcome()
		if !ok {
			continue
		}

		var winning *domain.PositionBalance
		for i := range ms.Positions {
			if ms.Positions[i].OutcomeID == winner.ID {
				winning = &ms.Positions[i]
				break
			}
		}
		if winning == nil {
			continue
		}

		raw, ok := new(big.Int).SetString(winning.RawBalance, 10)
		if !ok || raw.Sign() <= 0 {
			continue
		}

		balance, err := decimal.NewFromString(winning.Balance)
		if err != nil {
			continue
		}
		initCost, err := decimal.NewFromString(winning.InitCostUsd)
		if err != nil {
			initCost = decimal.Zero
		}

		ms.ClaimableWinnings = &domain.ClaimableWinnings{
			MarketID:         marketID,
			FactoryAddress:   market.FactoryAddress,
			ClaimableBalance: balance.Sub(initCost).Abs().StringFixed(4),
			UserBalancesRaw:  append([]string(nil), ms.OutcomeSharesRaw...),
		}
	}
}

// AggregateClaimable rolls per-market claimable winnings into the
// per-currency totals plus the market/factory id lists a batched on-chain
// claim call is built from.
func AggregateClaimable(shares map[string]*domain.MarketShares) domain.ClaimableTotals {
	totals := domain.ClaimableTotals{Total: "0"}
	sum := decimal.Zero
	for marketID, ms := range shares {
		if ms.ClaimableWinnings == nil {
			continue
		}
		amount, err := decimal.NewFromString(ms.ClaimableWinnings.ClaimableBalance)
		if err != nil {
			continue
		}
		sum = sum.Add(amount)
		totals.MarketIDs = append(totals.MarketIDs, marketID)
		totals.Factories = append(totals.Factories, ms.ClaimableWinnings.FactoryAddress)
	}
	totals.HasWinnings = len(totals.MarketIDs) > 0
	totals.Total = sum.StringFixed(4)
	return totals
}
