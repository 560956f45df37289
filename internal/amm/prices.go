package amm

import (
	"math/big"

	"github.com/shopspring/decimal"
)

// CalculatePrices derives per-outcome prices from pool token ratios:
// price[i] = ratio[i] / sum(ratios). When the factory reports no ratios the
// pool weights stand in, which yields the creation-time prices. An empty or
// all-zero base returns an empty slice (price unknown, not price zero), so
// no division against a zero sum is ever performed. Nil entries count as
// zero.
func CalculatePrices(ratios, weights []*big.Int) []decimal.Decimal {
	base := ratios
	if len(base) == 0 {
		base = weights
	}
	if len(base) == 0 {
		return nil
	}

	sum := decimal.Zero
	vals := make([]decimal.Decimal, len(base))
	for i, r := range base {
		if r == nil {
			vals[i] = decimal.Zero
			continue
		}
		vals[i] = decimal.NewFromBigInt(r, 0)
		sum = sum.Add(vals[i])
	}
	if sum.IsZero() {
		return nil
	}

	prices := make([]decimal.Decimal, len(vals))
	for i, v := range vals {
		prices[i] = v.Div(sum)
	}
	return prices
}

// TotalLiquidity values the pool's balances at the given outcome prices,
// in display cash, formatted to 4 places. An empty price slice values to "0".
func TotalLiquidity(prices []decimal.Decimal, balancesRaw []*big.Int) string {
	if len(prices) == 0 {
		return "0"
	}
	total := decimal.Zero
	for i, p := range prices {
		if i >= len(balancesRaw) || balancesRaw[i] == nil {
			continue
		}
		total = total.Add(p.Mul(SharesOnChainToDisplay(balancesRaw[i])))
	}
	return total.StringFixed(4)
}
