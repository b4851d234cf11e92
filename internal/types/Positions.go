/*

This file contains the types for liquidity-provider positions and the global
reward emission state.

*/

package types

import (
	"time"

	sdkmath "cosmossdk.io/math"
)

// UserPosition is a holder's claim on one pool, keyed by (pool id, owner).
// Created lazily on first deposit. The invariant maintained by the engine is
// that the sum of Shares over all holders of a pool equals that pool's
// TotalShares.
type UserPosition struct {
	PoolID        PoolID      `json:"pool_id"`
	Owner         string      `json:"owner"`
	Shares        sdkmath.Int `json:"shares"`
	AccruedReward sdkmath.Int `json:"accrued_reward"`  // earned but unclaimed
	LastDepositAt time.Time   `json:"last_deposit_at"` // stamps the withdrawal fee window
}

// EmissionState is the single global reward budget: reward units emitted per
// block, split across pools in proportion to their allocation points.
type EmissionState struct {
	RewardPerBlock   sdkmath.Int `json:"reward_per_block"`
	TotalAllocPoints uint64      `json:"total_alloc_points"`
}
