package engine

import (
	"fmt"

	sdkmath "cosmossdk.io/math"

	"github.com/weightlab/wamm/internal/types"
)

// accruePoolLocked settles the reward stream for every holder of the pool up
// to the current block and advances the accrual checkpoint. The checkpoint
// advances even when the pool holds no liquidity, so emission skipped during
// a zero-liquidity window is permanently lost, not banked. Callers must hold
// e.mu.
func (e *Engine) accruePoolLocked(pool *types.Pool) {
	height := e.clk.Height()
	if height <= pool.LastRewardBlock {
		return
	}
	elapsed := height - pool.LastRewardBlock
	pool.LastRewardBlock = height

	if pool.TotalShares.IsZero() || pool.AllocPoints == 0 ||
		e.emission.TotalAllocPoints == 0 || !e.emission.RewardPerBlock.IsPositive() {
		return
	}

	poolReward := e.emission.RewardPerBlock.
		Mul(sdkmath.NewIntFromUint64(elapsed)).
		Mul(sdkmath.NewIntFromUint64(pool.AllocPoints)).
		Quo(sdkmath.NewIntFromUint64(e.emission.TotalAllocPoints))
	if !poolReward.IsPositive() {
		return
	}

	for _, pos := range e.positions[pool.ID] {
		if !pos.Shares.IsPositive() {
			continue
		}
		userReward := poolReward.Mul(pos.Shares).Quo(pool.TotalShares)
		pos.AccruedReward = pos.AccruedReward.Add(userReward)
	}
}

// PendingRewards projects a holder's claimable reward without mutating state.
func (e *Engine) PendingRewards(poolID types.PoolID, owner string) (sdkmath.Int, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	pool, ok := e.pools[poolID]
	if !ok {
		return sdkmath.ZeroInt(), ErrPoolNotFound
	}

	pending := sdkmath.ZeroInt()
	var pos *types.UserPosition
	if holders, ok := e.positions[poolID]; ok {
		pos = holders[owner]
	}
	if pos == nil {
		return pending, nil
	}
	pending = pending.Add(pos.AccruedReward)

	height := e.clk.Height()
	if height > pool.LastRewardBlock && pos.Shares.IsPositive() &&
		pool.TotalShares.IsPositive() && pool.AllocPoints > 0 &&
		e.emission.TotalAllocPoints > 0 && e.emission.RewardPerBlock.IsPositive() {
		elapsed := height - pool.LastRewardBlock
		poolReward := e.emission.RewardPerBlock.
			Mul(sdkmath.NewIntFromUint64(elapsed)).
			Mul(sdkmath.NewIntFromUint64(pool.AllocPoints)).
			Quo(sdkmath.NewIntFromUint64(e.emission.TotalAllocPoints))
		pending = pending.Add(poolReward.Mul(pos.Shares).Quo(pool.TotalShares))
	}
	return pending, nil
}

// ClaimRewards settles accrual and pays out the caller's entire accrued
// balance through the ledger. A zero balance is a silent no-op (no transfer,
// no event), but accrual still runs first. Claiming is not gated by pause.
func (e *Engine) ClaimRewards(caller string, poolID types.PoolID) (sdkmath.Int, error) {
	zero := sdkmath.ZeroInt()

	if err := e.acquire(); err != nil {
		return zero, err
	}
	defer e.release()

	e.mu.Lock()
	pool, ok := e.pools[poolID]
	if !ok {
		e.mu.Unlock()
		return zero, ErrPoolNotFound
	}
	e.accruePoolLocked(pool)

	var pos *types.UserPosition
	if holders, ok := e.positions[poolID]; ok {
		pos = holders[caller]
	}
	if pos == nil || pos.AccruedReward.IsZero() {
		e.mu.Unlock()
		return zero, nil
	}
	amount := pos.AccruedReward
	pos.AccruedReward = zero
	e.mu.Unlock()

	if err := e.ledger.TransferOut(e.rewardDenom, caller, amount); err != nil {
		e.mu.Lock()
		pos.AccruedReward = pos.AccruedReward.Add(amount)
		e.mu.Unlock()
		return zero, fmt.Errorf("%w: reward payout: %w", ErrLedger, err)
	}

	e.logger.Info().
		Uint64("pool_id", uint64(poolID)).
		Str("user", caller).
		Str("amount", amount.String()).
		Msg("Rewards claimed")

	e.emit(types.EventRewardPaid, poolID, caller, map[string]string{
		"amount": amount.String(),
		"denom":  e.rewardDenom,
	})
	return amount, nil
}

// SetEmissionPerBlock updates the global reward emission rate. Owner-only.
func (e *Engine) SetEmissionPerBlock(caller string, rate sdkmath.Int) error {
	e.mu.Lock()
	if e.locked {
		e.mu.Unlock()
		return ErrReentrant
	}
	if caller != e.owner {
		e.mu.Unlock()
		return ErrUnauthorized
	}
	if rate.IsNil() || rate.IsNegative() {
		e.mu.Unlock()
		return ErrNegativeAmount
	}
	old := e.emission.RewardPerBlock
	e.emission.RewardPerBlock = rate
	e.mu.Unlock()

	e.logger.Info().
		Str("old_rate", old.String()).
		Str("new_rate", rate.String()).
		Msg("Emission rate updated")

	e.emit(types.EventEmissionRateChanged, 0, caller, map[string]string{
		"old_rate": old.String(),
		"new_rate": rate.String(),
	})
	return nil
}
