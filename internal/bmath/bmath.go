package bmath

import "math/big"

// CalcSpotPrice returns the spot price of the in-token denominated in the
// out-token, fee adjusted, as a 1e18 fixed-point value.
func CalcSpotPrice(balanceIn, weightIn, balanceOut, weightOut, swapFee *big.Int) (*big.Int, error) {
	numer, err := bdiv(balanceIn, weightIn)
	if err != nil {
		return nil, err
	}
	denom, err := bdiv(balanceOut, weightOut)
	if err != nil {
		return nil, err
	}
	ratio, err := bdiv(numer, denom)
	if err != nil {
		return nil, err
	}
	feeAdj, err := bsub(BONE, swapFee)
	if err != nil {
		return nil, err
	}
	scale, err := bdiv(BONE, feeAdj)
	if err != nil {
		return nil, err
	}
	return bmul(ratio, scale), nil
}

// CalcOutGivenIn solves the weighted constant-product invariant for the
// amount of out-token received for amountIn of the in-token, deducting the
// proportional swap fee from the input first.
func CalcOutGivenIn(balanceIn, weightIn, balanceOut, weightOut, amountIn, swapFee *big.Int) (*big.Int, error) {
	weightRatio, err := bdiv(weightIn, weightOut)
	if err != nil {
		return nil, err
	}
	adjusted, err := bsub(BONE, swapFee)
	if err != nil {
		return nil, err
	}
	adjustedIn := bmul(amountIn, adjusted)
	y, err := bdiv(balanceIn, badd(balanceIn, adjustedIn))
	if err != nil {
		return nil, err
	}
	foo, err := bpow(y, weightRatio)
	if err != nil {
		return nil, err
	}
	bar, err := bsub(BONE, foo)
	if err != nil {
		return nil, err
	}
	return bmul(balanceOut, bar), nil
}

// CalcInGivenOut solves the invariant in the opposite direction: the amount
// of in-token that must be paid to receive amountOut of the out-token.
func CalcInGivenOut(balanceIn, weightIn, balanceOut, weightOut, amountOut, swapFee *big.Int) (*big.Int, error) {
	weightRatio, err := bdiv(weightOut, weightIn)
	if err != nil {
		return nil, err
	}
	diff, err := bsub(balanceOut, amountOut)
	if err != nil {
		return nil, err
	}
	if diff.Sign() == 0 {
		return nil, ErrDivZero
	}
	y, err := bdiv(balanceOut, diff)
	if err != nil {
		return nil, err
	}
	foo, err := bpow(y, weightRatio)
	if err != nil {
		return nil, err
	}
	foo, err = bsub(foo, BONE)
	if err != nil {
		return nil, err
	}
	feeAdj, err := bsub(BONE, swapFee)
	if err != nil {
		return nil, err
	}
	return bdiv(bmul(balanceIn, foo), feeAdj)
}
