/*
This file contains the truncating fixed-point arithmetic used by the pricing
engine. All fractions are 18-decimal LegacyDec values and every operation
rounds toward zero, so rounding loss always lands on the caller rather than on
pool liquidity.
*/

package wmath

import (
	"errors"

	sdkmath "cosmossdk.io/math"
)

// Error definitions for zero-tolerance error handling
var (
	ErrBaseOutOfBounds     = errors.New("power base must be within (0, 2)")
	ErrNegativeExponent    = errors.New("power exponent is negative")
	ErrOverflow            = errors.New("value exceeds the 256-bit range")
	ErrDivisionByZero      = errors.New("division by zero")
	ErrNegativeFixedPoint  = errors.New("fixed-point value is negative")
	ErrExponentOutOfBounds = errors.New("power exponent whole part exceeds uint64")
)

var (
	one = sdkmath.LegacyOneDec()
	two = sdkmath.LegacyNewDec(2)

	// powPrecision terminates the fractional power series once further terms
	// can no longer move the result by a meaningful amount.
	powPrecision = sdkmath.LegacyMustNewDecFromStr("0.00000001")
)

// MulDown multiplies two fixed-point fractions, truncating the result.
func MulDown(a, b sdkmath.LegacyDec) sdkmath.LegacyDec {
	return a.MulTruncate(b)
}

// DivDown divides two fixed-point fractions, truncating the result.
func DivDown(a, b sdkmath.LegacyDec) (sdkmath.LegacyDec, error) {
	if b.IsZero() {
		return sdkmath.LegacyZeroDec(), ErrDivisionByZero
	}
	return a.QuoTruncate(b), nil
}

// Pow computes base^exp for non-negative fixed-point operands.
//
// The whole part of the exponent is evaluated by exponentiation-by-squaring
// with a truncating multiply at every step. The fractional part is evaluated
// by a truncated binomial series around 1, which is why base is restricted to
// (0, 2): outside that interval the series does not converge. Both halves
// round toward zero at each multiplication.
func Pow(base, exp sdkmath.LegacyDec) (sdkmath.LegacyDec, error) {
	if !base.IsPositive() || base.GTE(two) {
		return sdkmath.LegacyZeroDec(), ErrBaseOutOfBounds
	}
	if exp.IsNegative() {
		return sdkmath.LegacyZeroDec(), ErrNegativeExponent
	}

	whole := exp.TruncateDec()
	frac := exp.Sub(whole)

	if !whole.TruncateInt().IsUint64() {
		return sdkmath.LegacyZeroDec(), ErrExponentOutOfBounds
	}

	result := powInt(base, whole.TruncateInt().Uint64())
	if frac.IsZero() {
		return result, nil
	}
	return result.MulTruncate(powApprox(base, frac)), nil
}

// powInt raises base to an integer power by squaring, truncating each product.
func powInt(base sdkmath.LegacyDec, n uint64) sdkmath.LegacyDec {
	result := one
	b := base
	for n > 0 {
		if n%2 == 1 {
			result = result.MulTruncate(b)
		}
		n /= 2
		if n > 0 {
			b = b.MulTruncate(b)
		}
	}
	return result
}

// powApprox evaluates base^exp for exp in (0, 1) via the binomial expansion
// of (1 + (base-1))^exp, truncating every term. Terms below powPrecision are
// dropped.
func powApprox(base, exp sdkmath.LegacyDec) sdkmath.LegacyDec {
	x, xneg := absDifferenceWithSign(base, one)
	if x.IsZero() {
		return one
	}

	term := one
	sum := one
	negative := false

	for i := int64(1); ; i++ {
		bigK := sdkmath.LegacyNewDec(i)
		c, cneg := absDifferenceWithSign(exp, bigK.Sub(one))

		term = term.MulTruncate(c).MulTruncate(x)
		term = term.QuoTruncate(bigK)

		if term.LT(powPrecision) {
			break
		}
		if xneg {
			negative = !negative
		}
		if cneg {
			negative = !negative
		}
		if negative {
			sum = sum.Sub(term)
		} else {
			sum = sum.Add(term)
		}
	}

	return sum
}

// absDifferenceWithSign returns |a-b| and whether a-b is negative.
func absDifferenceWithSign(a, b sdkmath.LegacyDec) (sdkmath.LegacyDec, bool) {
	if a.GTE(b) {
		return a.Sub(b), false
	}
	return b.Sub(a), true
}

// CheckMulOverflow rejects integer products that could exceed the 256-bit
// width before sdkmath panics on them. The check is conservative: callers are
// expected to pre-scale amounts so that products stay in range, which bounds
// practical pool sizes.
func CheckMulOverflow(a, b sdkmath.Int) error {
	if a.IsNegative() || b.IsNegative() {
		return ErrNegativeFixedPoint
	}
	if a.BigInt().BitLen()+b.BigInt().BitLen() > sdkmath.MaxBitLen {
		return ErrOverflow
	}
	return nil
}
