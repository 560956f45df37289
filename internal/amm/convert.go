// Package amm is the pricing and estimation engine for the weighted-pool
// AMM. Everything in this package is pure with respect to its explicit
// inputs: callers hand in an immutable pool snapshot and get display-ready
// decimals back. On-chain unit math stays in *big.Int (see bmath), display
// math in shopspring decimals; native floats never appear in a money path.
package amm

import (
	"math/big"

	"github.com/shopspring/decimal"
)

const (
	// ShareDecimals is the fixed precision of outcome share tokens and LP
	// tokens. Cash decimals vary per collateral (6 for USDC) and are passed
	// in explicitly.
	ShareDecimals = 18

	// DefaultCashDecimals matches USDC, the only collateral currently
	// deployed.
	DefaultCashDecimals = 6
)

// SharesOnChainToDisplay converts raw share units to display units.
func SharesOnChainToDisplay(raw *big.Int) decimal.Decimal {
	if raw == nil {
		return decimal.Zero
	}
	return decimal.NewFromBigInt(raw, -ShareDecimals)
}

// SharesDisplayToOnChain converts display share units to raw units,
// truncating sub-wei dust.
func SharesDisplayToOnChain(d decimal.Decimal) *big.Int {
	return d.Shift(ShareDecimals).BigInt()
}

// CashOnChainToDisplay converts raw cash units to display units.
func CashOnChainToDisplay(raw *big.Int, cashDecimals int32) decimal.Decimal {
	if raw == nil {
		return decimal.Zero
	}
	return decimal.NewFromBigInt(raw, -cashDecimals)
}

// CashDisplayToOnChain converts display cash units to raw units.
func CashDisplayToOnChain(d decimal.Decimal, cashDecimals int32) *big.Int {
	return d.Shift(cashDecimals).BigInt()
}

// FeeDecimal converts a raw 1e18 fixed-point swap fee to its decimal
// fraction.
func FeeDecimal(feeRaw *big.Int) decimal.Decimal {
	if feeRaw == nil {
		return decimal.Zero
	}
	return decimal.NewFromBigInt(feeRaw, -18)
}

// TrimDecimal formats a decimal with the 6-place precision the UI renders.
func TrimDecimal(d decimal.Decimal) string {
	return d.StringFixed(6)
}
