package engine

import (
	"fmt"

	sdkmath "cosmossdk.io/math"

	"github.com/weightlab/wamm/internal/types"
)

// Swap trades amountIn of tokenIn for tokenOut against the pool's weighted
// curve. The swap fee is applied twice: once inside the curve on the input
// and once more as a flat deduction from the curve output. minAmountOut is
// compared against the post-fee output; pass a zero Int to skip the check.
func (e *Engine) Swap(caller string, poolID types.PoolID, tokenIn, tokenOut string, amountIn, minAmountOut sdkmath.Int) (sdkmath.Int, error) {
	zero := sdkmath.ZeroInt()

	if err := e.acquire(); err != nil {
		return zero, err
	}
	defer e.release()

	e.mu.Lock()
	if e.paused {
		e.mu.Unlock()
		return zero, ErrPaused
	}
	pool, ok := e.pools[poolID]
	if !ok {
		e.mu.Unlock()
		return zero, ErrPoolNotFound
	}
	if tokenIn == tokenOut {
		e.mu.Unlock()
		return zero, ErrSameTokenSwap
	}
	if amountIn.IsNil() || amountIn.IsNegative() {
		e.mu.Unlock()
		return zero, ErrNegativeAmount
	}

	curveOut, err := calculateSwapOutput(pool, tokenIn, tokenOut, amountIn)
	if err != nil {
		e.mu.Unlock()
		return zero, err
	}

	outFee := pool.SwapFee.MulInt(curveOut).TruncateInt()
	amountOut := curveOut.Sub(outFee)
	if !minAmountOut.IsNil() && amountOut.LT(minAmountOut) {
		e.mu.Unlock()
		return zero, fmt.Errorf("%w: got %s, want at least %s", ErrSlippage, amountOut, minAmountOut)
	}
	e.mu.Unlock()

	if amountIn.IsPositive() {
		if err := e.ledger.TransferIn(tokenIn, caller, amountIn); err != nil {
			return zero, fmt.Errorf("%w: pulling %s: %w", ErrLedger, tokenIn, err)
		}
	}
	if amountOut.IsPositive() {
		if err := e.ledger.TransferOut(tokenOut, caller, amountOut); err != nil {
			if amountIn.IsPositive() {
				if rerr := e.ledger.TransferOut(tokenIn, caller, amountIn); rerr != nil {
					e.logger.Error().Err(rerr).
						Str("token", tokenIn).
						Str("user", caller).
						Msg("Refund after failed swap payout also failed")
				}
			}
			return zero, fmt.Errorf("%w: paying %s: %w", ErrLedger, tokenOut, err)
		}
	}

	e.mu.Lock()
	// The pool books the full input but releases the full curve output; the
	// flat output fee therefore stays in custody outside any pool balance.
	pool.Balances[tokenIn] = pool.BalanceOf(tokenIn).Add(amountIn)
	pool.Balances[tokenOut] = pool.BalanceOf(tokenOut).Sub(curveOut)
	e.mu.Unlock()

	e.logger.Info().
		Uint64("pool_id", uint64(poolID)).
		Str("user", caller).
		Str("token_in", tokenIn).
		Str("amount_in", amountIn.String()).
		Str("token_out", tokenOut).
		Str("amount_out", amountOut.String()).
		Msg("Swap executed")

	e.emit(types.EventSwap, poolID, caller, map[string]string{
		"token_in":   tokenIn,
		"amount_in":  amountIn.String(),
		"token_out":  tokenOut,
		"amount_out": amountOut.String(),
		"curve_out":  curveOut.String(),
		"out_fee":    outFee.String(),
	})
	return amountOut, nil
}
