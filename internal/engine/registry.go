package engine

import (
	"fmt"
	"sort"

	sdkmath "cosmossdk.io/math"

	"github.com/weightlab/wamm/internal/types"
)

const (
	minPoolTokens = 2
	maxPoolTokens = 8
)

var (
	minSwapFee = sdkmath.LegacyMustNewDecFromStr("0.001") // 0.1%
	maxSwapFee = sdkmath.LegacyMustNewDecFromStr("0.1")   // 10%
)

// CreatePool registers a new weighted pool and returns its id. Owner-only.
// Token/weight configuration is immutable afterwards. Duplicate token entries
// are accepted; they produce degenerate (shared-balance) but non-crashing
// behavior during swaps and withdrawals.
func (e *Engine) CreatePool(caller string, tokens []string, weights []sdkmath.LegacyDec, allocPoints uint64, swapFee sdkmath.LegacyDec) (types.PoolID, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.locked {
		return 0, ErrReentrant
	}
	if caller != e.owner {
		return 0, ErrUnauthorized
	}
	if len(tokens) != len(weights) {
		return 0, ErrLengthMismatch
	}
	if len(tokens) < minPoolTokens || len(tokens) > maxPoolTokens {
		return 0, ErrTokenCount
	}

	sum := sdkmath.LegacyZeroDec()
	for _, w := range weights {
		if w.IsNil() || !w.IsPositive() {
			return 0, ErrWeightNotPositive
		}
		sum = sum.Add(w)
	}
	if !sum.Equal(sdkmath.LegacyOneDec()) {
		return 0, ErrWeightSum
	}
	if swapFee.IsNil() || swapFee.LT(minSwapFee) || swapFee.GT(maxSwapFee) {
		return 0, ErrSwapFeeBounds
	}

	id := types.PoolID(e.nextPoolID)
	e.nextPoolID++

	balances := make(map[string]sdkmath.Int, len(tokens))
	for _, t := range tokens {
		balances[t] = sdkmath.ZeroInt()
	}

	pool := &types.Pool{
		ID:              id,
		Tokens:          append([]string(nil), tokens...),
		Weights:         append([]sdkmath.LegacyDec(nil), weights...),
		Balances:        balances,
		TotalShares:     sdkmath.ZeroInt(),
		SwapFee:         swapFee,
		AllocPoints:     allocPoints,
		LastRewardBlock: e.clk.Height(),
	}
	e.pools[id] = pool
	e.emission.TotalAllocPoints += allocPoints

	e.logger.Info().
		Uint64("pool_id", uint64(id)).
		Strs("tokens", tokens).
		Uint64("alloc_points", allocPoints).
		Str("swap_fee", swapFee.String()).
		Msg("Pool created")

	e.emit(types.EventPoolCreated, id, caller, map[string]string{
		"tokens":       fmt.Sprintf("%v", tokens),
		"alloc_points": fmt.Sprintf("%d", allocPoints),
		"swap_fee":     swapFee.String(),
	})
	return id, nil
}

// SetPoolAllocPoint adjusts a pool's share of the global emission and the
// global allocation-point sum by the delta. Owner-only.
func (e *Engine) SetPoolAllocPoint(caller string, poolID types.PoolID, allocPoints uint64) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.locked {
		return ErrReentrant
	}
	if caller != e.owner {
		return ErrUnauthorized
	}
	pool, ok := e.pools[poolID]
	if !ok {
		return ErrPoolNotFound
	}

	e.emission.TotalAllocPoints = e.emission.TotalAllocPoints - pool.AllocPoints + allocPoints
	old := pool.AllocPoints
	pool.AllocPoints = allocPoints

	e.logger.Info().
		Uint64("pool_id", uint64(poolID)).
		Uint64("old_points", old).
		Uint64("new_points", allocPoints).
		Msg("Pool allocation points updated")

	e.emit(types.EventAllocPointChanged, poolID, caller, map[string]string{
		"old_points": fmt.Sprintf("%d", old),
		"new_points": fmt.Sprintf("%d", allocPoints),
	})
	return nil
}

// PoolCount returns the number of pools ever created. It never decreases.
func (e *Engine) PoolCount() uint64 {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.nextPoolID - 1
}

// GetPool returns a deep copy of the pool's current state.
func (e *Engine) GetPool(poolID types.PoolID) (types.Pool, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	pool, ok := e.pools[poolID]
	if !ok {
		return types.Pool{}, ErrPoolNotFound
	}
	return copyPool(pool), nil
}

// ListPools returns deep copies of every pool, ordered by id.
func (e *Engine) ListPools() []types.Pool {
	e.mu.RLock()
	defer e.mu.RUnlock()

	out := make([]types.Pool, 0, len(e.pools))
	for _, pool := range e.pools {
		out = append(out, copyPool(pool))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// UserShares returns the liquidity units a holder owns in a pool. Zero when
// no position exists.
func (e *Engine) UserShares(poolID types.PoolID, owner string) sdkmath.Int {
	e.mu.RLock()
	defer e.mu.RUnlock()

	if holders, ok := e.positions[poolID]; ok {
		if pos, ok := holders[owner]; ok {
			return pos.Shares
		}
	}
	return sdkmath.ZeroInt()
}

// Emission returns the current global emission state.
func (e *Engine) Emission() types.EmissionState {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.emission
}

func copyPool(pool *types.Pool) types.Pool {
	cp := *pool
	cp.Tokens = append([]string(nil), pool.Tokens...)
	cp.Weights = append([]sdkmath.LegacyDec(nil), pool.Weights...)
	cp.Balances = make(map[string]sdkmath.Int, len(pool.Balances))
	for denom, bal := range pool.Balances {
		cp.Balances[denom] = bal
	}
	return cp
}
