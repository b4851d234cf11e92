/*

This is the custom type for weighted pools which contains all the state needed
for pricing swaps and accounting liquidity shares.

*/

package types

import (
	sdkmath "cosmossdk.io/math"
)

type PoolID uint64

// Pool is a weighted constant-product pool over 2..8 tokens.
//
// Tokens and Weights are parallel, order-significant and immutable after
// creation. Balances is the authoritative record of each token's holdings
// attributable to this pool; it mutates on every liquidity and swap
// operation. Pools are append-only and never destroyed.
type Pool struct {
	ID          PoolID                 `json:"id"`
	Tokens      []string               `json:"tokens"`       // e.g., ["uatom", "uusdc"]
	Weights     []sdkmath.LegacyDec    `json:"weights"`      // fixed-point fractions, sum to exactly 1.0
	Balances    map[string]sdkmath.Int `json:"balances"`     // token denom -> amount held
	TotalShares sdkmath.Int            `json:"total_shares"` // outstanding liquidity units
	SwapFee     sdkmath.LegacyDec      `json:"swap_fee"`     // fraction in [0.001, 0.1]

	// Reward emission state for this pool.
	AllocPoints     uint64 `json:"alloc_points"`
	LastRewardBlock uint64 `json:"last_reward_block"` // accrual checkpoint
}

// WeightOf returns the weight of denom, or zero if denom is not a pool
// member. Duplicate token entries resolve to the first occurrence.
func (p *Pool) WeightOf(denom string) sdkmath.LegacyDec {
	for i, t := range p.Tokens {
		if t == denom {
			return p.Weights[i]
		}
	}
	return sdkmath.LegacyZeroDec()
}

// BalanceOf returns the recorded balance of denom, or zero if absent.
func (p *Pool) BalanceOf(denom string) sdkmath.Int {
	if bal, ok := p.Balances[denom]; ok {
		return bal
	}
	return sdkmath.ZeroInt()
}
