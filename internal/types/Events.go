/*

This file contains the event records emitted by the engine for off-chain
reconciliation, and the sink interface storage backends implement.

*/

package types

import (
	"time"
)

type EventType string

const (
	EventPoolCreated         EventType = "pool_created"
	EventLiquidityAdded      EventType = "liquidity_added"
	EventLiquidityRemoved    EventType = "liquidity_removed"
	EventSwap                EventType = "swap"
	EventRewardPaid          EventType = "reward_paid"
	EventEmergencyWithdraw   EventType = "emergency_withdraw"
	EventEmissionRateChanged EventType = "emission_rate_changed"
	EventAllocPointChanged   EventType = "alloc_point_changed"
	EventPaused              EventType = "paused"
	EventUnpaused            EventType = "unpaused"
)

// Event is one observable log record. Amounts are carried as decimal strings
// so records survive JSON round-trips without precision loss.
type Event struct {
	ID         string            `json:"id"` // uuid
	Type       EventType         `json:"type"`
	Height     uint64            `json:"height"`
	Timestamp  time.Time         `json:"timestamp"`
	PoolID     PoolID            `json:"pool_id"`
	Actor      string            `json:"actor,omitempty"`
	Attributes map[string]string `json:"attributes,omitempty"`
}

// EventSink receives every event the engine emits. Implementations must not
// call back into the engine.
type EventSink interface {
	Append(ev Event)
}
