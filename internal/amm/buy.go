package amm

import (
	"fmt"
	"math/big"

	"github.com/shopspring/decimal"

	"turbopricer/internal/bmath"
	"turbopricer/internal/domain"
)

// EstimateBuy simulates the AMM factory's buy path: collateralIn mints
// complete sets of every outcome, then each unwanted outcome's sets are
// swapped into the target one at a time, updating pool balances between
// swaps exactly as the contract's sequential swapExactAmountIn calls do.
// The returned value is total target shares out, in raw on-chain units, and
// is monotonically non-decreasing in collateralIn for a fixed pool state.
func EstimateBuy(shareFactor *big.Int, outcome int, collateralIn *big.Int, balances, weights []*big.Int, feeRaw *big.Int) (*big.Int, error) {
	if err := validatePoolArgs(shareFactor, outcome, balances, weights); err != nil {
		return nil, err
	}
	if collateralIn == nil || collateralIn.Sign() < 0 {
		return nil, domain.ErrInvalidAmount
	}

	sets := new(big.Int).Mul(collateralIn, shareFactor)
	total := new(big.Int).Set(sets)

	// Working copy; the simulation mutates balances swap by swap.
	b := make([]*big.Int, len(balances))
	for i, v := range balances {
		b[i] = new(big.Int).Set(v)
	}

	for i := range b {
		if i == outcome {
			continue
		}
		out, err := bmath.CalcOutGivenIn(b[i], weights[i], b[outcome], weights[outcome], sets, feeRaw)
		if err != nil {
			return nil, fmt.Errorf("amm: buy swap outcome %d: %w", i, err)
		}
		b[i] = new(big.Int).Add(b[i], sets)
		b[outcome] = new(big.Int).Sub(b[outcome], out)
		if b[outcome].Sign() <= 0 {
			return nil, domain.ErrInsufficientLiquidity
		}
		total.Add(total, out)
	}
	return total, nil
}

// EstimateBuyTrade runs EstimateBuy for a display-unit cash amount and
// derives the UI metrics: average execution price, fee paid, max profit if
// the outcome resolves in favor, slippage against the pre-trade spot price,
// and shares-per-cash rate.
func EstimateBuyTrade(pool *domain.Pool, outcome int, inputDisplayAmount decimal.Decimal, spotPrice decimal.Decimal, cashDecimals int32) (*domain.TradeEstimate, error) {
	if pool == nil {
		return nil, domain.ErrUnavailable
	}
	if !inputDisplayAmount.IsPositive() {
		return nil, domain.ErrInvalidAmount
	}

	amount := CashDisplayToOnChain(inputDisplayAmount, cashDecimals)
	result, err := EstimateBuy(pool.ShareFactor, outcome, amount, pool.BalancesRaw, pool.Weights, pool.FeeRaw)
	if err != nil {
		return nil, err
	}

	estimatedShares := SharesOnChainToDisplay(result)
	if !estimatedShares.IsPositive() {
		return nil, domain.ErrInsufficientLiquidity
	}

	tradeFees := inputDisplayAmount.Mul(FeeDecimal(pool.FeeRaw))
	averagePrice := inputDisplayAmount.Div(estimatedShares)
	maxProfit := estimatedShares.Sub(inputDisplayAmount)
	ratePerCash := estimatedShares.Div(inputDisplayAmount)

	slippagePercent := decimal.Zero
	if spotPrice.IsPositive() {
		slippagePercent = averagePrice.Sub(spotPrice).Div(spotPrice).Mul(decimal.NewFromInt(100))
	}

	return &domain.TradeEstimate{
		OutputValue:     TrimDecimal(estimatedShares),
		TradeFees:       tradeFees.String(),
		AveragePrice:    averagePrice.StringFixed(4),
		MaxProfit:       maxProfit.String(),
		SlippagePercent: slippagePercent.StringFixed(4),
		RatePerCash:     ratePerCash.StringFixed(6),
	}, nil
}

func validatePoolArgs(shareFactor *big.Int, outcome int, balances, weights []*big.Int) error {
	if shareFactor == nil || shareFactor.Sign() <= 0 {
		return domain.ErrMalformedData
	}
	if len(balances) == 0 || len(balances) != len(weights) {
		return domain.ErrMalformedData
	}
	if outcome < 0 || outcome >= len(balances) {
		return domain.ErrMalformedData
	}
	for i := range balances {
		if balances[i] == nil || weights[i] == nil {
			return domain.ErrMalformedData
		}
		if balances[i].Sign() <= 0 {
			return domain.ErrInsufficientLiquidity
		}
	}
	return nil
}
