// Package bmath reimplements the Balancer BNum/BMath fixed-point integer
// arithmetic used by the weighted pools. Results are bit-for-bit identical
// with the on-chain contracts for the same integer inputs, which is why the
// whole package works on *big.Int and why nothing here ever touches floating
// point.
package bmath

import (
	"errors"
	"math/big"
)

// BONE is the 1e18 fixed-point unit.
var BONE = new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil)

var (
	two  = big.NewInt(2)
	boneHalf = new(big.Int).Div(BONE, two)

	// minBPowBase .. maxBPowBase is the domain bpow accepts, per BNum.sol.
	minBPowBase = big.NewInt(1)
	maxBPowBase = new(big.Int).Sub(new(big.Int).Mul(BONE, two), big.NewInt(1))

	// bpowPrecision terminates the binomial series.
	bpowPrecision = new(big.Int).Div(BONE, new(big.Int).Exp(big.NewInt(10), big.NewInt(10), nil))
)

var (
	ErrSubUnderflow  = errors.New("bmath: sub underflow")
	ErrDivZero       = errors.New("bmath: div by zero")
	ErrBPowBaseRange = errors.New("bmath: bpow base out of range")
)

func btoi(a *big.Int) *big.Int {
	return new(big.Int).Div(a, BONE)
}

func bfloor(a *big.Int) *big.Int {
	return new(big.Int).Mul(btoi(a), BONE)
}

func badd(a, b *big.Int) *big.Int {
	return new(big.Int).Add(a, b)
}

func bsub(a, b *big.Int) (*big.Int, error) {
	if a.Cmp(b) < 0 {
		return nil, ErrSubUnderflow
	}
	return new(big.Int).Sub(a, b), nil
}

// bsubSign returns |a-b| and whether the true result is negative.
func bsubSign(a, b *big.Int) (*big.Int, bool) {
	if a.Cmp(b) >= 0 {
		return new(big.Int).Sub(a, b), false
	}
	return new(big.Int).Sub(b, a), true
}

// bmul multiplies two 1e18 fixed-point values, rounding half up exactly as
// BNum.sol does.
func bmul(a, b *big.Int) *big.Int {
	c := new(big.Int).Mul(a, b)
	c.Add(c, boneHalf)
	return c.Div(c, BONE)
}

// bdiv divides two 1e18 fixed-point values, rounding half up.
func bdiv(a, b *big.Int) (*big.Int, error) {
	if b.Sign() == 0 {
		return nil, ErrDivZero
	}
	c := new(big.Int).Mul(a, BONE)
	c.Add(c, new(big.Int).Div(b, two))
	return c.Div(c, b), nil
}

// bpowi raises a fixed-point base to an integer power by squaring.
func bpowi(a *big.Int, n *big.Int) *big.Int {
	z := new(big.Int).Set(BONE)
	if new(big.Int).Mod(n, two).Sign() != 0 {
		z.Set(a)
	}
	base := new(big.Int).Set(a)
	for n = new(big.Int).Div(n, two); n.Sign() != 0; n.Div(n, two) {
		base = bmul(base, base)
		if new(big.Int).Mod(n, two).Sign() != 0 {
			z = bmul(z, base)
		}
	}
	return z
}

// bpow raises base to a fixed-point exponent: an exact integer power for the
// whole part and a binomial-series approximation, terminated at
// bpowPrecision, for the remainder.
func bpow(base, exp *big.Int) (*big.Int, error) {
	if base.Cmp(minBPowBase) < 0 || base.Cmp(maxBPowBase) > 0 {
		return nil, ErrBPowBaseRange
	}
	whole := bfloor(exp)
	remain, err := bsub(exp, whole)
	if err != nil {
		return nil, err
	}
	wholePow := bpowi(base, btoi(whole))
	if remain.Sign() == 0 {
		return wholePow, nil
	}
	partial := bpowApprox(base, remain, bpowPrecision)
	return bmul(wholePow, partial), nil
}

func bpowApprox(base, exp, precision *big.Int) *big.Int {
	a := exp
	x, xneg := bsubSign(base, BONE)
	term := new(big.Int).Set(BONE)
	sum := new(big.Int).Set(term)
	negative := false

	// term(k) = numer / denom
	//         = ((product(a - i - 1, i=1-->k) * x^k) / (k!)
	// Each iteration computes term(k) from term(k-1).
	for i := int64(1); term.Cmp(precision) >= 0; i++ {
		bigK := new(big.Int).Mul(big.NewInt(i), BONE)
		c, cneg := bsubSign(a, new(big.Int).Sub(bigK, BONE))
		term = bmul(term, bmul(c, x))
		term, _ = bdiv(term, bigK)
		if term.Sign() == 0 {
			break
		}
		if xneg {
			negative = !negative
		}
		if cneg {
			negative = !negative
		}
		if negative {
			sum.Sub(sum, term)
		} else {
			sum.Add(sum, term)
		}
	}
	return sum
}
