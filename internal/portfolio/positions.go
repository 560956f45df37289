package portfolio

import (
	"math/big"

	"github.com/shopspring/decimal"

	"turbopricer/internal/amm"
	"turbopricer/internal/domain"
)

// dustTolerance suppresses rounding noise in the unrealized-change figure:
// a change inside (-0.001, 0) flips to its absolute value. Kept verbatim
// from the reference behavior; a principled epsilon comparison is a known
// candidate replacement.
var dustTolerance = decimal.New(-1, -3)

// PositionUsdValues derives one (market, outcome, account) position from the
// replayed transaction log and current balances: entry price, cost basis,
// mark-to-market value, and unrealized change. A zero balance yields nil,
// meaning no position rather than a zeroed one.
func PositionUsdValues(
	tx domain.MarketTransactions,
	rawBalance *big.Int,
	balance decimal.Decimal,
	outcomeID int,
	outcomeName string,
	marketID string,
	price decimal.Decimal,
	cashUsdPrice decimal.Decimal,
	account string,
	past24hrUsdValue string,
) *domain.PositionBalance {
	if balance.IsZero() {
		return nil
	}

	currUsdValue := balance.Mul(price).Mul(cashUsdPrice)
	maxUsdValue := balance.Mul(cashUsdPrice)
	quantity := amm.TrimDecimal(balance)

	avgPrice, fromLiquidity, fromRemoveLiquidity := InitPositionValues(tx, outcomeID, account)
	initCostUsd := avgPrice.Mul(balance).Round(4)

	usdChanged := currUsdValue.Sub(initCostUsd)
	if usdChanged.IsNegative() && usdChanged.GreaterThan(dustTolerance) {
		usdChanged = usdChanged.Abs()
	}

	return &domain.PositionBalance{
		MarketID:         marketID,
		OutcomeID:        outcomeID,
		OutcomeName:      outcomeName,
		Balance:          balance.String(),
		RawBalance:       rawBalance.String(),
		Quantity:         quantity,
		UsdValue:         currUsdValue.String(),
		Past24hrUsdValue: past24hrUsdValue,
		TotalChangeUsd:   amm.TrimDecimal(usdChanged),
		AvgPrice:         amm.TrimDecimal(avgPrice),
		InitCostUsd:      initCostUsd.String(),
		MaxUsdValue:      maxUsdValue.String(),

		FromLiquidity:       fromLiquidity && !fromRemoveLiquidity,
		FromRemoveLiquidity: fromRemoveLiquidity,
	}
}
