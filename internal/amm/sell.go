package amm

import (
	"math/big"

	"github.com/shopspring/decimal"

	"turbopricer/internal/bmath"
	"turbopricer/internal/domain"
)

// CalcSellCompleteSets finds the largest number of complete sets that can be
// assembled from sharesIn of a single outcome: for every other outcome the
// missing sets are bought with target shares via the weighted invariant
// (sequential swaps, balances updated in between), and the sets themselves
// consume one target share each. The result is expressed in raw share units,
// rounded down to a whole multiple of shareFactor so the implied collateral
// redemption is exact.
//
// The solve is a bounded binary search; when no positive multiple fits,
// typically because the requested size exceeds pool depth, it returns
// ErrNonConvergence rather than a default zero, so callers can tell "no
// liquidity" apart from a legitimately zero-value trade.
func CalcSellCompleteSets(shareFactor *big.Int, outcome int, sharesIn *big.Int, balances, weights []*big.Int, feeRaw *big.Int) (*big.Int, error) {
	if err := validatePoolArgs(shareFactor, outcome, balances, weights); err != nil {
		return nil, err
	}
	if sharesIn == nil || sharesIn.Sign() < 0 {
		return nil, domain.ErrInvalidAmount
	}
	if sharesIn.Sign() == 0 {
		return new(big.Int), nil
	}

	// Search over k where sets = k * shareFactor.
	lo := new(big.Int)
	hi := new(big.Int).Div(sharesIn, shareFactor)
	if hi.Sign() == 0 {
		return nil, domain.ErrNonConvergence
	}

	one := big.NewInt(1)
	for lo.Cmp(hi) < 0 {
		// mid biased upward so the loop always terminates.
		mid := new(big.Int).Add(lo, hi)
		mid.Add(mid, one)
		mid.Rsh(mid, 1)

		sets := new(big.Int).Mul(mid, shareFactor)
		if sellSetsFeasible(outcome, sets, sharesIn, balances, weights, feeRaw) {
			lo.Set(mid)
		} else {
			hi.Sub(mid, one)
		}
	}

	if lo.Sign() == 0 {
		return nil, domain.ErrNonConvergence
	}
	return lo.Mul(lo, shareFactor), nil
}

// sellSetsFeasible reports whether `sets` complete sets can be assembled
// from at most sharesIn target shares at the given pool state.
func sellSetsFeasible(outcome int, sets, sharesIn *big.Int, balances, weights []*big.Int, feeRaw *big.Int) bool {
	b := make([]*big.Int, len(balances))
	for i, v := range balances {
		b[i] = new(big.Int).Set(v)
	}

	required := new(big.Int).Set(sets) // one target share locked per set
	for i := range b {
		if i == outcome {
			continue
		}
		if sets.Cmp(b[i]) >= 0 {
			return false // swap would drain the pool side
		}
		in, err := bmath.CalcInGivenOut(b[outcome], weights[outcome], b[i], weights[i], sets, feeRaw)
		if err != nil {
			return false
		}
		b[outcome] = new(big.Int).Add(b[outcome], in)
		b[i] = new(big.Int).Sub(b[i], sets)
		required.Add(required, in)
		if required.Cmp(sharesIn) > 0 {
			return false
		}
	}
	return required.Cmp(sharesIn) <= 0
}

// EstimateSellTrade runs CalcSellCompleteSets for a display-unit share
// amount and derives the UI metrics. userShareBalance is the account's
// display balance of the outcome being sold; remaining shares clamp through
// an absolute value so dust rounding never reports a negative holding.
func EstimateSellTrade(pool *domain.Pool, outcome int, inputDisplayAmount decimal.Decimal, spotPrice decimal.Decimal, userShareBalance decimal.Decimal) (*domain.TradeEstimate, error) {
	if pool == nil {
		return nil, domain.ErrUnavailable
	}
	if !inputDisplayAmount.IsPositive() {
		return nil, domain.ErrInvalidAmount
	}

	amount := SharesDisplayToOnChain(inputDisplayAmount)
	sets, err := CalcSellCompleteSets(pool.ShareFactor, outcome, amount, pool.BalancesRaw, pool.Weights, pool.FeeRaw)
	if err != nil {
		return nil, err
	}

	// A complete set redeems for one display unit of cash, so the display
	// set count doubles as the collateral out.
	completeSets := SharesOnChainToDisplay(sets)
	tradeFees := inputDisplayAmount.Mul(FeeDecimal(pool.FeeRaw))
	averagePrice := completeSets.Div(inputDisplayAmount)
	ratePerCash := completeSets.Div(inputDisplayAmount)
	remainingShares := userShareBalance.Sub(inputDisplayAmount).Abs()

	slippagePercent := decimal.Zero
	if spotPrice.IsPositive() {
		slippagePercent = averagePrice.Sub(spotPrice).Div(spotPrice).Mul(decimal.NewFromInt(100)).Abs()
	}

	return &domain.TradeEstimate{
		OutputValue:     completeSets.String(),
		TradeFees:       tradeFees.String(),
		AveragePrice:    averagePrice.StringFixed(2),
		SlippagePercent: slippagePercent.StringFixed(2),
		RatePerCash:     ratePerCash.StringFixed(6),
		RemainingShares: remainingShares.StringFixed(6),
	}, nil
}
