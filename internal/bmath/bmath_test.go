package bmath

import (
	"errors"
	"math/big"
	"testing"
)

func bone(n int64) *big.Int {
	return new(big.Int).Mul(big.NewInt(n), BONE)
}

// fixed is n * 10^exp as a big.Int, for sub-unit fixed-point literals.
func fixed(n int64, exp int64) *big.Int {
	return new(big.Int).Mul(big.NewInt(n), new(big.Int).Exp(big.NewInt(10), big.NewInt(exp), nil))
}

func TestBmul(t *testing.T) {
	t.Run("whole units", func(t *testing.T) {
		got := bmul(bone(2), bone(3))
		if got.Cmp(bone(6)) != 0 {
			t.Errorf("bmul(2, 3) = %s, want 6e18", got)
		}
	})

	t.Run("rounds half up", func(t *testing.T) {
		// 1 wei * 0.5 rounds up to 1; 1 wei * (0.5 - 1 wei) rounds down to 0.
		if got := bmul(big.NewInt(1), boneHalf); got.Cmp(big.NewInt(1)) != 0 {
			t.Errorf("bmul(1, BONE/2) = %s, want 1", got)
		}
		justUnder := new(big.Int).Sub(boneHalf, big.NewInt(1))
		if got := bmul(big.NewInt(1), justUnder); got.Sign() != 0 {
			t.Errorf("bmul(1, BONE/2-1) = %s, want 0", got)
		}
	})
}

func TestBdiv(t *testing.T) {
	got, err := bdiv(BONE, bone(2))
	if err != nil {
		t.Fatal(err)
	}
	if got.Cmp(fixed(5, 17)) != 0 {
		t.Errorf("bdiv(1, 2) = %s, want 5e17", got)
	}

	if _, err := bdiv(BONE, new(big.Int)); !errors.Is(err, ErrDivZero) {
		t.Errorf("bdiv by zero: err = %v, want ErrDivZero", err)
	}
}

func TestBsubUnderflow(t *testing.T) {
	if _, err := bsub(bone(1), bone(2)); !errors.Is(err, ErrSubUnderflow) {
		t.Errorf("bsub(1, 2): err = %v, want ErrSubUnderflow", err)
	}
}

func TestBpow(t *testing.T) {
	t.Run("identity exponent", func(t *testing.T) {
		base := fixed(15, 17) // 1.5
		got, err := bpow(base, BONE)
		if err != nil {
			t.Fatal(err)
		}
		if got.Cmp(base) != 0 {
			t.Errorf("bpow(1.5, 1) = %s, want 1.5e18", got)
		}
	})

	t.Run("integer exponent", func(t *testing.T) {
		got, err := bpow(fixed(15, 17), bone(2))
		if err != nil {
			t.Fatal(err)
		}
		if got.Cmp(fixed(225, 16)) != 0 {
			t.Errorf("bpow(1.5, 2) = %s, want 2.25e18", got)
		}
	})

	t.Run("fractional exponent", func(t *testing.T) {
		// 1.21^0.5 = 1.1, approximated by the binomial series.
		got, err := bpow(fixed(121, 16), fixed(5, 17))
		if err != nil {
			t.Fatal(err)
		}
		want := fixed(11, 17)
		diff := new(big.Int).Sub(got, want)
		if diff.CmpAbs(big.NewInt(1e10)) > 0 {
			t.Errorf("bpow(1.21, 0.5) = %s, want 1.1e18 within 1e10", got)
		}
	})

	t.Run("base out of range", func(t *testing.T) {
		if _, err := bpow(new(big.Int), BONE); !errors.Is(err, ErrBPowBaseRange) {
			t.Errorf("bpow(0, 1): err = %v, want ErrBPowBaseRange", err)
		}
		if _, err := bpow(bone(2), BONE); !errors.Is(err, ErrBPowBaseRange) {
			t.Errorf("bpow(2, 1): err = %v, want ErrBPowBaseRange", err)
		}
	})
}

func TestCalcSpotPrice(t *testing.T) {
	balance := bone(100)
	weight := bone(25)

	t.Run("symmetric pool no fee", func(t *testing.T) {
		got, err := CalcSpotPrice(balance, weight, balance, weight, new(big.Int))
		if err != nil {
			t.Fatal(err)
		}
		if got.Cmp(BONE) != 0 {
			t.Errorf("spot price = %s, want 1e18", got)
		}
	})

	t.Run("fee raises the price", func(t *testing.T) {
		got, err := CalcSpotPrice(balance, weight, balance, weight, fixed(1, 16))
		if err != nil {
			t.Fatal(err)
		}
		if got.Cmp(BONE) <= 0 {
			t.Errorf("fee-adjusted spot price = %s, want > 1e18", got)
		}
	})
}

func TestCalcOutGivenIn(t *testing.T) {
	balance := bone(100)
	weight := bone(25)

	t.Run("doubling the in side yields half the out side", func(t *testing.T) {
		got, err := CalcOutGivenIn(balance, weight, balance, weight, bone(100), new(big.Int))
		if err != nil {
			t.Fatal(err)
		}
		if got.Cmp(bone(50)) != 0 {
			t.Errorf("out = %s, want 50e18", got)
		}
	})

	t.Run("fee reduces output", func(t *testing.T) {
		noFee, err := CalcOutGivenIn(balance, weight, balance, weight, bone(10), new(big.Int))
		if err != nil {
			t.Fatal(err)
		}
		withFee, err := CalcOutGivenIn(balance, weight, balance, weight, bone(10), fixed(1, 16))
		if err != nil {
			t.Fatal(err)
		}
		if withFee.Cmp(noFee) >= 0 {
			t.Errorf("out with fee %s, without %s; want strictly less", withFee, noFee)
		}
	})
}

func TestCalcInGivenOut(t *testing.T) {
	balance := bone(100)
	weight := bone(25)

	t.Run("round trips through CalcOutGivenIn", func(t *testing.T) {
		want := bone(25)
		in, err := CalcInGivenOut(balance, weight, balance, weight, want, new(big.Int))
		if err != nil {
			t.Fatal(err)
		}
		out, err := CalcOutGivenIn(balance, weight, balance, weight, in, new(big.Int))
		if err != nil {
			t.Fatal(err)
		}
		diff := new(big.Int).Sub(out, want)
		if diff.CmpAbs(big.NewInt(1e9)) > 0 {
			t.Errorf("round trip out = %s, want 25e18 within 1e9", out)
		}
	})

	t.Run("draining the out side fails", func(t *testing.T) {
		if _, err := CalcInGivenOut(balance, weight, balance, weight, balance, new(big.Int)); !errors.Is(err, ErrDivZero) {
			t.Errorf("amountOut == balanceOut: err = %v, want ErrDivZero", err)
		}
		if _, err := CalcInGivenOut(balance, weight, balance, weight, bone(200), new(big.Int)); !errors.Is(err, ErrSubUnderflow) {
			t.Errorf("amountOut > balanceOut: err = %v, want ErrSubUnderflow", err)
		}
	})

	t.Run("half the out side exceeds the bpow domain", func(t *testing.T) {
		if _, err := CalcInGivenOut(balance, weight, balance, weight, bone(50), new(big.Int)); !errors.Is(err, ErrBPowBaseRange) {
			t.Errorf("err = %v, want ErrBPowBaseRange", err)
		}
	})
}
