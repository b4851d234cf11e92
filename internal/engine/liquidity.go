package engine

import (
	"fmt"
	"strings"
	"time"

	sdkmath "cosmossdk.io/math"

	"github.com/weightlab/wamm/internal/types"
	"github.com/weightlab/wamm/internal/wmath"
)

// withdrawalGracePeriod is the window after a deposit during which removals
// pay the early-withdrawal fee.
const withdrawalGracePeriod = 72 * time.Hour

// earlyWithdrawFee is the unit fee charged inside the grace window. The fee
// units are burned rather than paid out, which redistributes their value pro
// rata to the remaining holders.
var earlyWithdrawFee = sdkmath.LegacyMustNewDecFromStr("0.005")

// AddLiquidity deposits a basket into the pool and mints liquidity units for
// the caller. The amount vector must match the pool's token order. Deposits
// that would mint zero units fail with no effects.
func (e *Engine) AddLiquidity(caller string, poolID types.PoolID, amounts []sdkmath.Int) (sdkmath.Int, error) {
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
	e.accruePoolLocked(pool)

	minted, err := calculateLiquidity(pool, amounts)
	if err != nil {
		e.mu.Unlock()
		return zero, err
	}
	if minted.IsZero() {
		e.mu.Unlock()
		return zero, ErrZeroSharesMinted
	}
	tokens := append([]string(nil), pool.Tokens...)
	e.mu.Unlock()

	// Pull every token into custody. If one pull fails, refund the pulls
	// already issued so the operation leaves no partial effects behind.
	for i, token := range tokens {
		if amounts[i].IsZero() {
			continue
		}
		if err := e.ledger.TransferIn(token, caller, amounts[i]); err != nil {
			for j := 0; j < i; j++ {
				if amounts[j].IsZero() {
					continue
				}
				if rerr := e.ledger.TransferOut(tokens[j], caller, amounts[j]); rerr != nil {
					e.logger.Error().Err(rerr).
						Str("token", tokens[j]).
						Str("user", caller).
						Msg("Refund after failed deposit pull also failed")
				}
			}
			return zero, fmt.Errorf("%w: pulling %s: %w", ErrLedger, token, err)
		}
	}

	e.mu.Lock()
	for i, token := range tokens {
		pool.Balances[token] = pool.BalanceOf(token).Add(amounts[i])
	}
	pool.TotalShares = pool.TotalShares.Add(minted)
	pos := e.getOrCreatePosition(poolID, caller)
	pos.Shares = pos.Shares.Add(minted)
	pos.LastDepositAt = e.clk.Now()
	e.mu.Unlock()

	e.logger.Info().
		Uint64("pool_id", uint64(poolID)).
		Str("user", caller).
		Str("minted", minted.String()).
		Msg("Liquidity added")

	e.emit(types.EventLiquidityAdded, poolID, caller, map[string]string{
		"minted":  minted.String(),
		"amounts": joinAmounts(amounts),
	})
	return minted, nil
}

// RemoveLiquidity burns the requested units and pays out the caller's
// proportional basket. Removals inside the grace window pay the 0.5% unit
// fee. The per-token payout divides by the pool's total units after the
// burn, not before.
func (e *Engine) RemoveLiquidity(caller string, poolID types.PoolID, shares sdkmath.Int) ([]sdkmath.Int, error) {
	if err := e.acquire(); err != nil {
		return nil, err
	}
	defer e.release()

	e.mu.Lock()
	if e.paused {
		e.mu.Unlock()
		return nil, ErrPaused
	}
	pool, ok := e.pools[poolID]
	if !ok {
		e.mu.Unlock()
		return nil, ErrPoolNotFound
	}
	if shares.IsNil() || !shares.IsPositive() {
		e.mu.Unlock()
		return nil, ErrNegativeAmount
	}

	var pos *types.UserPosition
	if holders, ok := e.positions[poolID]; ok {
		pos = holders[caller]
	}
	if pos == nil || shares.GT(pos.Shares) {
		e.mu.Unlock()
		return nil, ErrInsufficientShares
	}

	e.accruePoolLocked(pool)

	feeShares := sdkmath.ZeroInt()
	if e.clk.Now().Sub(pos.LastDepositAt) < withdrawalGracePeriod {
		feeShares = earlyWithdrawFee.MulInt(shares).TruncateInt()
	}
	payoutShares := shares.Sub(feeShares)
	newTotal := pool.TotalShares.Sub(shares)

	payouts := make([]sdkmath.Int, len(pool.Tokens))
	for i, token := range pool.Tokens {
		bal := pool.BalanceOf(token)
		var amt sdkmath.Int
		if newTotal.IsZero() {
			// Last holder out: the post-burn supply is empty, so the payout
			// falls back to the holder's fraction of the remaining balance.
			amt = bal.Mul(payoutShares).Quo(shares)
		} else {
			if err := wmath.CheckMulOverflow(payoutShares, bal); err != nil {
				e.mu.Unlock()
				return nil, fmt.Errorf("withdrawal payout: %w", err)
			}
			amt = payoutShares.Mul(bal).Quo(newTotal)
		}
		if amt.GT(bal) {
			e.mu.Unlock()
			return nil, ErrPayoutExceedsBalance
		}
		payouts[i] = amt
	}

	// Probe custody for the full payout before issuing any transfer, so the
	// all-outbound sequence cannot strand a half-paid withdrawal.
	for i, token := range pool.Tokens {
		if payouts[i].IsZero() {
			continue
		}
		if e.ledger.CustodyBalance(token).LT(payouts[i]) {
			e.mu.Unlock()
			return nil, fmt.Errorf("%w: custody short of %s", ErrLedger, token)
		}
	}

	pos.Shares = pos.Shares.Sub(shares)
	pool.TotalShares = newTotal
	for i, token := range pool.Tokens {
		pool.Balances[token] = pool.BalanceOf(token).Sub(payouts[i])
	}
	tokens := append([]string(nil), pool.Tokens...)
	e.mu.Unlock()

	for i, token := range tokens {
		if payouts[i].IsZero() {
			continue
		}
		if err := e.ledger.TransferOut(token, caller, payouts[i]); err != nil {
			e.logger.Error().Err(err).
				Str("token", token).
				Str("user", caller).
				Msg("Withdrawal payout transfer failed after custody probe")
			return nil, fmt.Errorf("%w: paying %s: %w", ErrLedger, token, err)
		}
	}

	e.logger.Info().
		Uint64("pool_id", uint64(poolID)).
		Str("user", caller).
		Str("shares", shares.String()).
		Str("fee_shares", feeShares.String()).
		Msg("Liquidity removed")

	e.emit(types.EventLiquidityRemoved, poolID, caller, map[string]string{
		"shares":     shares.String(),
		"fee_shares": feeShares.String(),
		"amounts":    joinAmounts(payouts),
	})
	return payouts, nil
}

// EmergencyWithdraw exits the caller's entire position, forfeiting any
// accrued reward. It skips reward accrual, ignores the pause flag, and does
// not fail once the caller holds units: payouts are clamped to what the pool
// and custody can actually cover.
func (e *Engine) EmergencyWithdraw(caller string, poolID types.PoolID) ([]sdkmath.Int, error) {
	if err := e.acquire(); err != nil {
		return nil, err
	}
	defer e.release()

	e.mu.Lock()
	pool, ok := e.pools[poolID]
	if !ok {
		e.mu.Unlock()
		return nil, ErrPoolNotFound
	}

	var pos *types.UserPosition
	if holders, ok := e.positions[poolID]; ok {
		pos = holders[caller]
	}
	if pos == nil || !pos.Shares.IsPositive() {
		e.mu.Unlock()
		return nil, ErrNoPosition
	}

	units := pos.Shares
	newTotal := pool.TotalShares.Sub(units)

	payouts := make([]sdkmath.Int, len(pool.Tokens))
	for i, token := range pool.Tokens {
		bal := pool.BalanceOf(token)
		var amt sdkmath.Int
		if newTotal.IsZero() {
			amt = bal
		} else {
			amt = units.Mul(bal).Quo(newTotal)
		}
		if amt.GT(bal) {
			amt = bal
		}
		if custody := e.ledger.CustodyBalance(token); amt.GT(custody) {
			amt = custody
		}
		payouts[i] = amt
	}

	forfeited := pos.AccruedReward
	pos.Shares = sdkmath.ZeroInt()
	pos.AccruedReward = sdkmath.ZeroInt()
	pool.TotalShares = newTotal
	for i, token := range pool.Tokens {
		pool.Balances[token] = pool.BalanceOf(token).Sub(payouts[i])
	}
	tokens := append([]string(nil), pool.Tokens...)
	e.mu.Unlock()

	for i, token := range tokens {
		if payouts[i].IsZero() {
			continue
		}
		if err := e.ledger.TransferOut(token, caller, payouts[i]); err != nil {
			// The exit must complete regardless; the stranded amount stays in
			// custody and is logged for the operator.
			e.logger.Error().Err(err).
				Str("token", token).
				Str("user", caller).
				Str("amount", payouts[i].String()).
				Msg("Emergency payout transfer failed")
		}
	}

	e.logger.Warn().
		Uint64("pool_id", uint64(poolID)).
		Str("user", caller).
		Str("units", units.String()).
		Str("forfeited_reward", forfeited.String()).
		Msg("Emergency withdrawal")

	e.emit(types.EventEmergencyWithdraw, poolID, caller, map[string]string{
		"units":            units.String(),
		"forfeited_reward": forfeited.String(),
		"amounts":          joinAmounts(payouts),
	})
	return payouts, nil
}

func joinAmounts(amounts []sdkmath.Int) string {
	parts := make([]string, len(amounts))
	for i, a := range amounts {
		parts[i] = a.String()
	}
	return strings.Join(parts, ",")
}
