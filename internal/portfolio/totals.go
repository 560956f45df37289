package portfolio

import (
	"github.com/shopspring/decimal"

	"turbopricer/internal/amm"
	"turbopricer/internal/domain"
)

// PositionTotals is the portfolio-level position rollup.
type PositionTotals struct {
	TotalPositionUsd      string
	Total24hrPositionUsd  string
	Change24hrPositionUsd string
}

// TotalPositions sums current and 24h-ago position values across all market
// shares. Positions without a recorded 24h value contribute to the current
// total only.
func TotalPositions(shares map[string]*domain.MarketShares) PositionTotals {
	total := decimal.Zero
	total24 := decimal.Zero
	for _, ms := range shares {
		for _, pos := range ms.Positions {
			if v, err := decimal.NewFromString(pos.UsdValue); err == nil {
				total = total.Add(v)
			}
			if pos.Past24hrUsdValue == "" {
				continue
			}
			if v, err := decimal.NewFromString(pos.Past24hrUsdValue); err == nil {
				total24 = total24.Add(v)
			}
		}
	}
	return PositionTotals{
		TotalPositionUsd:      total.String(),
		Total24hrPositionUsd:  total24.String(),
		Change24hrPositionUsd: total.Sub(total24).String(),
	}
}

// UserLpTokenInitialAmount sums each market's net liquidity cash flow for
// the account: adds minus removes, in display cash. This is the LP cost
// basis keyed by lowercased market id.
func UserLpTokenInitialAmount(all domain.AllMarketsTransactions, account string) map[string]string {
	out := make(map[string]string, len(all))
	for marketID, tx := range all {
		adds := decimal.Zero
		for _, c := range tx.AddLiquidity {
			if domain.SameAddress(c.Sender, account) {
				adds = adds.Add(c.Collateral.Abs())
			}
		}
		removed := decimal.Zero
		for _, c := range tx.RemoveLiquidity {
			if domain.SameAddress(c.Sender, account) {
				removed = removed.Add(c.Collateral.Abs())
			}
		}
		out[marketID] = adds.Sub(removed).String()
	}
	return out
}

// FilterUserTransactions narrows every market's log to the account's own
// events. Address comparison is case-insensitive.
func FilterUserTransactions(all domain.AllMarketsTransactions, account string) domain.AllMarketsTransactions {
	out := make(domain.AllMarketsTransactions, len(all))
	for marketID, tx := range all {
		filtered := domain.MarketTransactions{MarketID: tx.MarketID}
		for _, t := range tx.Trades {
			if domain.SameAddress(t.User, account) {
				filtered.Trades = append(filtered.Trades, t)
			}
		}
		for _, c := range tx.AddLiquidity {
			if domain.SameAddress(c.Sender, account) {
				filtered.AddLiquidity = append(filtered.AddLiquidity, c)
			}
		}
		for _, c := range tx.RemoveLiquidity {
			if domain.SameAddress(c.Sender, account) {
				filtered.RemoveLiquidity = append(filtered.RemoveLiquidity, c)
			}
		}
		for _, c := range tx.ClaimedProceeds {
			if domain.SameAddress(c.Receiver, account) {
				filtered.ClaimedProceeds = append(filtered.ClaimedProceeds, c)
			}
		}
		out[marketID] = filtered
	}
	return out
}

// Finalize stamps the rollup figures onto a portfolio: position totals,
// available funds (cash balances), and total account value.
func Finalize(balances *domain.UserBalances) {
	totals := TotalPositions(balances.MarketShares)
	balances.TotalPositionUsd = totals.TotalPositionUsd
	balances.Total24hrPositionUsd = totals.Total24hrPositionUsd
	balances.Change24hrPositionUsd = totals.Change24hrPositionUsd

	ethUsd := mustDecimal(balances.ETH.UsdValue)
	usdcUsd := mustDecimal(balances.USDC.UsdValue)
	available := ethUsd.Add(usdcUsd)
	balances.AvailableFundsUsd = available.String()
	balances.TotalAccountValue = available.Add(mustDecimal(totals.TotalPositionUsd)).String()

	balances.Claimable = AggregateClaimable(balances.MarketShares)
}

// LPTokenValue computes the current USD value of one LP holding.
func LPTokenValue(pool *domain.Pool, prices []decimal.Decimal, lpBalance string, cashUsdPrice decimal.Decimal, cashDecimals int32) string {
	d, err := decimal.NewFromString(lpBalance)
	if err != nil || !d.IsPositive() {
		return "0"
	}
	v, err := amm.LPTokenCurrentValue(pool, prices, d, cashUsdPrice, cashDecimals)
	if err != nil {
		return "0"
	}
	return v.String()
}

func mustDecimal(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}
