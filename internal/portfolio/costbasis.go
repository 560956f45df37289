// Package portfolio replays immutable transaction logs into derived position
// state: cost basis, mark-to-market values, claimable winnings, and the
// portfolio rollup. Nothing here owns its source of truth; every function is
// a pure recomputation over the snapshot it is handed, so running any of
// them twice on the same inputs yields identical output.
package portfolio

import (
	"sort"

	"github.com/shopspring/decimal"

	"turbopricer/internal/domain"
)

// SharesPrice accumulates share count, cash spent, and the running
// volume-weighted average price of one source of position entries.
type SharesPrice struct {
	Shares   decimal.Decimal
	Cash     decimal.Decimal
	AvgPrice decimal.Decimal
}

// LastClaimTimestamp returns the most recent winnings-claim timestamp for
// the account and outcome, or 0 when the account never claimed. Claims reset
// the cost basis: buys at or before this cutoff are excluded from averaging.
func LastClaimTimestamp(claims []domain.ClaimedProceeds, outcome int, account string) int64 {
	var last int64
	for _, c := range claims {
		if !domain.SameAddress(c.Receiver, account) || c.Outcome != outcome {
			continue
		}
		if c.Timestamp > last {
			last = c.Timestamp
		}
	}
	return last
}

// AccumSharesPrice folds the account's buys of one outcome, strictly after
// the cutoff, into a weighted average entry price:
//
//	avg' = (cash*avg + |collateral|*price) / (cash + |collateral|)
//
// Trades are processed in ascending timestamp order; the recurrence is
// order-dependent.
func AccumSharesPrice(trades []domain.Trade, outcome int, account string, cutoff int64) SharesPrice {
	filtered := make([]domain.Trade, 0, len(trades))
	for _, t := range trades {
		if !domain.SameAddress(t.User, account) || t.Outcome != outcome {
			continue
		}
		if !t.IsBuy() || t.Timestamp <= cutoff {
			continue
		}
		filtered = append(filtered, t)
	}
	sort.SliceStable(filtered, func(i, j int) bool { return filtered[i].Timestamp < filtered[j].Timestamp })

	acc := SharesPrice{Shares: decimal.Zero, Cash: decimal.Zero, AvgPrice: decimal.Zero}
	for _, t := range filtered {
		cash := t.Collateral.Abs()
		denom := acc.Cash.Add(cash)
		if denom.IsZero() {
			continue
		}
		acc.AvgPrice = acc.Cash.Mul(acc.AvgPrice).Add(cash.Mul(t.Price)).Div(denom)
		acc.Shares = acc.Shares.Add(t.Shares.Abs())
		acc.Cash = denom
	}
	return acc
}

// AccumLpSharesPrice folds the account's liquidity events after the cutoff:
// each add/remove implicitly grants (or withdraws) outcome shares alongside
// the LP mint/burn. Only totals accumulate here; the average price of
// liquidity-derived shares is cash/shares computed by the caller.
func AccumLpSharesPrice(changes []domain.LiquidityChange, outcome int, account string, cutoff int64) SharesPrice {
	acc := SharesPrice{Shares: decimal.Zero, Cash: decimal.Zero, AvgPrice: decimal.Zero}
	for _, c := range changes {
		if !domain.SameAddress(c.Sender, account) || c.Timestamp <= cutoff {
			continue
		}
		if outcome >= 0 && outcome < len(c.Outcomes) {
			acc.Shares = acc.Shares.Add(c.Outcomes[outcome].Abs())
		}
		acc.Cash = acc.Cash.Add(c.Collateral.Abs())
	}
	return acc
}

// InitPositionValues blends trade-derived and liquidity-derived entry prices
// into the position's final average price, each source weighted by its share
// count. The flags report whether any of the position originated from
// liquidity provision or removal.
func InitPositionValues(tx domain.MarketTransactions, outcome int, account string) (avgPrice decimal.Decimal, fromLiquidity, fromRemoveLiquidity bool) {
	cutoff := LastClaimTimestamp(tx.ClaimedProceeds, outcome, account)

	entered := AccumSharesPrice(tx.Trades, outcome, account, cutoff)
	added := AccumLpSharesPrice(tx.AddLiquidity, outcome, account, cutoff)
	removed := AccumLpSharesPrice(tx.RemoveLiquidity, outcome, account, cutoff)

	fromLiquidity = added.Shares.IsPositive()
	fromRemoveLiquidity = removed.Shares.IsPositive()

	liquidityShares := added.Shares.Add(removed.Shares)
	liquidityCash := added.Cash.Add(removed.Cash)

	avgPriceLiquidity := decimal.Zero
	if liquidityShares.IsPositive() {
		avgPriceLiquidity = liquidityCash.Div(liquidityShares)
	}

	totalShares := liquidityShares.Add(entered.Shares)
	if !totalShares.IsPositive() {
		return decimal.Zero, fromLiquidity, fromRemoveLiquidity
	}

	avgPrice = avgPriceLiquidity.Mul(liquidityShares).Div(totalShares).
		Add(entered.AvgPrice.Mul(entered.Shares).Div(totalShares))
	return avgPrice, fromLiquidity, fromRemoveLiquidity
}
