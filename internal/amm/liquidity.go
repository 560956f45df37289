package amm

import (
	"math/big"

	"github.com/shopspring/decimal"

	"turbopricer/internal/domain"
)

// totalWeight is the pool-creation weight normalization constant: initial
// prices are spread over a total weight of 50, scaled to 1e18 fixed point.
var totalWeight = decimal.NewFromInt(50)

// priceSumTolerance bounds how far the initial prices may drift from summing
// to exactly 1 before the derived weights are rejected as invalid.
var priceSumTolerance = decimal.New(1, -6)

// CalcWeights derives pool-creation weights from the initial outcome prices:
// weight[i] = price[i] * 50 * 1e18. The prices must sum to 1.
func CalcWeights(prices []decimal.Decimal) ([]*big.Int, error) {
	if len(prices) == 0 {
		return nil, domain.ErrInvalidAmount
	}
	sum := decimal.Zero
	for _, p := range prices {
		if p.IsNegative() {
			return nil, domain.ErrInvalidAmount
		}
		sum = sum.Add(p)
	}
	if sum.Sub(decimal.NewFromInt(1)).Abs().GreaterThan(priceSumTolerance) {
		return nil, domain.ErrInvalidAmount
	}

	weights := make([]*big.Int, len(prices))
	for i, p := range prices {
		weights[i] = p.Mul(totalWeight).Shift(18).BigInt()
	}
	return weights, nil
}

// EstimateAddLiquidity estimates the LP tokens minted for a display-unit
// cash deposit. For an uninitialized pool this is a creation estimate and
// the initial prices drive the derived weights; one LP token per unit of
// cash is minted at bootstrap. For a funded pool the mint is proportional
// to the deposit's share of pool value: minting cash*shareFactor complete
// sets supports a join ratio bounded by the largest outcome balance.
func EstimateAddLiquidity(pool *domain.Pool, cashAmount decimal.Decimal, initialPrices []decimal.Decimal, cashDecimals int32) (*domain.AddLiquidityBreakdown, error) {
	if !cashAmount.IsPositive() {
		return nil, domain.ErrInvalidAmount
	}

	if !pool.HasLiquidity() {
		weights, err := CalcWeights(initialPrices)
		if err != nil {
			return nil, err
		}
		ws := make([]string, len(weights))
		for i, w := range weights {
			ws[i] = w.String()
		}
		return &domain.AddLiquidityBreakdown{
			LPTokens:    TrimDecimal(cashAmount),
			PoolWeights: ws,
		}, nil
	}

	if pool.ShareFactor == nil || pool.ShareFactor.Sign() <= 0 || len(pool.BalancesRaw) == 0 {
		return nil, domain.ErrMalformedData
	}

	sets := new(big.Int).Mul(CashDisplayToOnChain(cashAmount, cashDecimals), pool.ShareFactor)
	maxBalance := new(big.Int)
	for _, b := range pool.BalancesRaw {
		if b != nil && b.Cmp(maxBalance) > 0 {
			maxBalance = b
		}
	}
	if maxBalance.Sign() == 0 {
		return nil, domain.ErrInsufficientLiquidity
	}

	// lpOut = totalSupply * sets / maxBalance
	lpOut := new(big.Int).Mul(pool.TotalSupply, sets)
	lpOut.Div(lpOut, maxBalance)

	return &domain.AddLiquidityBreakdown{
		LPTokens: TrimDecimal(SharesOnChainToDisplay(lpOut)),
	}, nil
}

// EstimateRemoveLiquidity estimates an LP withdrawal: the proportional exit
// amount of every outcome balance (the all-zero minimum-out exit the
// contract exposes for estimates), complete-set redemption of the common
// minimum into collateral, and the per-outcome share remainders handed back.
func EstimateRemoveLiquidity(pool *domain.Pool, lpTokens decimal.Decimal, cashDecimals int32) (*domain.LiquidityBreakdown, error) {
	if !lpTokens.IsPositive() {
		return nil, domain.ErrInvalidAmount
	}
	if !pool.HasLiquidity() {
		return nil, domain.ErrInsufficientLiquidity
	}
	if pool.ShareFactor == nil || pool.ShareFactor.Sign() <= 0 || len(pool.BalancesRaw) == 0 {
		return nil, domain.ErrMalformedData
	}

	lpRaw := SharesDisplayToOnChain(lpTokens)
	if lpRaw.Cmp(pool.TotalSupply) > 0 {
		return nil, domain.ErrInvalidAmount
	}

	// exit[i] = balance[i] * lpRaw / totalSupply
	exits := make([]*big.Int, len(pool.BalancesRaw))
	setsRedeemed := (*big.Int)(nil)
	for i, b := range pool.BalancesRaw {
		if b == nil {
			return nil, domain.ErrMalformedData
		}
		e := new(big.Int).Mul(b, lpRaw)
		e.Div(e, pool.TotalSupply)
		exits[i] = e
		if setsRedeemed == nil || e.Cmp(setsRedeemed) < 0 {
			setsRedeemed = e
		}
	}

	// Only whole multiples of shareFactor redeem to exact collateral.
	setsRedeemed = new(big.Int).Set(setsRedeemed)
	setsRedeemed.Div(setsRedeemed, pool.ShareFactor)
	setsRedeemed.Mul(setsRedeemed, pool.ShareFactor)

	collateralRaw := new(big.Int).Div(setsRedeemed, pool.ShareFactor)

	minAmounts := make([]string, len(exits))
	minAmountsRaw := make([]string, len(exits))
	for i, e := range exits {
		remainder := new(big.Int).Sub(e, setsRedeemed)
		minAmountsRaw[i] = remainder.String()
		minAmounts[i] = SharesOnChainToDisplay(remainder).String()
	}

	return &domain.LiquidityBreakdown{
		MinAmounts:    minAmounts,
		MinAmountsRaw: minAmountsRaw,
		CashAmount:    CashOnChainToDisplay(collateralRaw, cashDecimals).String(),
	}, nil
}

// LPTokenCurrentValue values a display LP balance against the current
// outcome prices: the proportional exit amounts priced per outcome, plus
// the collateral component, in USD.
func LPTokenCurrentValue(pool *domain.Pool, prices []decimal.Decimal, lpTokens decimal.Decimal, cashUsdPrice decimal.Decimal, cashDecimals int32) (decimal.Decimal, error) {
	breakdown, err := EstimateRemoveLiquidity(pool, lpTokens, cashDecimals)
	if err != nil {
		return decimal.Zero, err
	}
	total, err := decimal.NewFromString(breakdown.CashAmount)
	if err != nil {
		return decimal.Zero, domain.ErrMalformedData
	}
	for i, amt := range breakdown.MinAmounts {
		if i >= len(prices) {
			break
		}
		d, err := decimal.NewFromString(amt)
		if err != nil {
			return decimal.Zero, domain.ErrMalformedData
		}
		total = total.Add(d.Mul(prices[i]))
	}
	return total.Mul(cashUsdPrice), nil
}
