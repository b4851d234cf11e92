package engine

import (
	"fmt"

	sdkmath "cosmossdk.io/math"

	"github.com/weightlab/wamm/internal/types"
	"github.com/weightlab/wamm/internal/wmath"
)

// decScale is one fixed-point unit as an integer, used to bound amounts that
// will be lifted into 18-decimal fixed point.
var decScale = sdkmath.NewIntWithDecimal(1, 18)

// calculateLiquidity values a proposed deposit vector in liquidity units.
//
// On the first deposit the unit supply is seeded from the weighted value of
// the basket: sum of amount_i * weight_i, truncated. Afterwards the deposit
// is credited at the smallest proportional contribution across tokens: a
// depositor supplying assets off the pool's current ratio is paid for the
// limiting token only, and the excess is absorbed by the pool with no refund.
func calculateLiquidity(pool *types.Pool, amounts []sdkmath.Int) (sdkmath.Int, error) {
	zero := sdkmath.ZeroInt()

	if len(amounts) != len(pool.Tokens) {
		return zero, ErrAmountVectorLength
	}
	for _, amt := range amounts {
		if amt.IsNil() || amt.IsNegative() {
			return zero, ErrNegativeAmount
		}
	}

	if pool.TotalShares.IsZero() {
		minted := zero
		for i, amt := range amounts {
			if err := wmath.CheckMulOverflow(amt, decScale); err != nil {
				return zero, fmt.Errorf("seed deposit: %w", err)
			}
			minted = minted.Add(pool.Weights[i].MulInt(amt).TruncateInt())
		}
		return minted, nil
	}

	minted := sdkmath.Int{}
	for i, amt := range amounts {
		bal := pool.BalanceOf(pool.Tokens[i])
		if bal.IsZero() {
			return zero, ErrEmptyTokenBalance
		}
		if err := wmath.CheckMulOverflow(amt, pool.TotalShares); err != nil {
			return zero, fmt.Errorf("deposit ratio: %w", err)
		}
		ratio := amt.Mul(pool.TotalShares).Quo(bal)
		if minted.IsNil() || ratio.LT(minted) {
			minted = ratio
		}
	}
	return minted, nil
}

// calculateSwapOutput solves the weighted invariant
// balanceIn^weightIn * balanceOut^weightOut = constant for the output amount,
// evaluated through the ratio/exponent substitution so raw powers of large
// balances are never formed:
//
//	amountOut = balanceOut * (1 - (balanceIn / (balanceIn + amountInAfterFee))^(weightIn/weightOut))
//
// The swap fee inside the curve is the first of the two fee applications; the
// Swap operation deducts the fee once more from the output.
func calculateSwapOutput(pool *types.Pool, tokenIn, tokenOut string, amountIn sdkmath.Int) (sdkmath.Int, error) {
	zero := sdkmath.ZeroInt()
	one := sdkmath.LegacyOneDec()

	weightIn := pool.WeightOf(tokenIn)
	if weightIn.IsZero() {
		return zero, ErrTokenNotInPool
	}
	weightOut := pool.WeightOf(tokenOut)
	if weightOut.IsZero() {
		return zero, ErrTokenNotInPool
	}

	balIn := pool.BalanceOf(tokenIn)
	balOut := pool.BalanceOf(tokenOut)
	if balIn.IsZero() || balOut.IsZero() {
		return zero, ErrEmptyTokenBalance
	}

	if amountIn.IsNil() || amountIn.IsNegative() {
		return zero, ErrNegativeAmount
	}
	if amountIn.IsZero() {
		return zero, nil
	}

	for _, v := range []sdkmath.Int{balIn, balOut, amountIn} {
		if err := wmath.CheckMulOverflow(v, decScale); err != nil {
			return zero, fmt.Errorf("swap pricing: %w", err)
		}
	}

	amountInWithFee := one.Sub(pool.SwapFee).MulInt(amountIn)
	balInDec := sdkmath.LegacyNewDecFromInt(balIn)

	ratio, err := wmath.DivDown(balInDec, balInDec.Add(amountInWithFee))
	if err != nil {
		return zero, fmt.Errorf("swap pricing: %w", err)
	}
	exponent, err := wmath.DivDown(weightIn, weightOut)
	if err != nil {
		return zero, fmt.Errorf("swap pricing: %w", err)
	}
	ratioRaised, err := wmath.Pow(ratio, exponent)
	if err != nil {
		return zero, fmt.Errorf("swap pricing: %w", err)
	}
	if ratioRaised.GTE(one) {
		return zero, nil
	}

	return wmath.MulDown(one.Sub(ratioRaised), sdkmath.LegacyNewDecFromInt(balOut)).TruncateInt(), nil
}
