/*

Package engine implements the weighted constant-product pool core: the pool
registry, swap pricing, liquidity-unit accounting and block-based reward
accrual, orchestrated behind a single reentrancy-excluded operation surface.

*/

package engine

import (
	"fmt"
	"sync"

	sdkmath "cosmossdk.io/math"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/weightlab/wamm/internal/clock"
	"github.com/weightlab/wamm/internal/ledger"
	"github.com/weightlab/wamm/internal/logger"
	"github.com/weightlab/wamm/internal/types"
)

// Engine owns all Pool and UserPosition records. Other components receive
// only transient computed views.
type Engine struct {
	logger zerolog.Logger

	// mu guards the state maps. locked is the exclusive-execution flag held
	// for the full duration of any operation that crosses the ledger: a
	// reentrant call from within a token transfer is rejected, never run.
	mu     sync.RWMutex
	locked bool

	owner  string
	paused bool

	pools      map[types.PoolID]*types.Pool
	positions  map[types.PoolID]map[string]*types.UserPosition
	nextPoolID uint64

	emission    types.EmissionState
	rewardDenom string

	ledger ledger.TokenLedger
	clk    clock.Clock
	sink   types.EventSink
}

// Config holds the dependencies for creating a new Engine instance.
type Config struct {
	Owner            string
	RewardDenom      string
	EmissionPerBlock sdkmath.Int
	Ledger           ledger.TokenLedger
	Clock            clock.Clock
	Sink             types.EventSink // optional
}

// New creates an Engine with dependency injection.
func New(cfg Config) (*Engine, error) {
	if err := validateConfig(cfg); err != nil {
		return nil, fmt.Errorf("engine configuration validation failed: %w", err)
	}

	return &Engine{
		logger:     logger.GetForComponent("pool_engine"),
		owner:      cfg.Owner,
		pools:      make(map[types.PoolID]*types.Pool),
		positions:  make(map[types.PoolID]map[string]*types.UserPosition),
		nextPoolID: 1,
		emission: types.EmissionState{
			RewardPerBlock:   cfg.EmissionPerBlock,
			TotalAllocPoints: 0,
		},
		rewardDenom: cfg.RewardDenom,
		ledger:      cfg.Ledger,
		clk:         cfg.Clock,
		sink:        cfg.Sink,
	}, nil
}

func validateConfig(cfg Config) error {
	if cfg.Owner == "" {
		return fmt.Errorf("owner cannot be empty")
	}
	if cfg.RewardDenom == "" {
		return fmt.Errorf("reward denom cannot be empty")
	}
	if cfg.EmissionPerBlock.IsNil() || cfg.EmissionPerBlock.IsNegative() {
		return fmt.Errorf("emission per block must be a non-negative integer")
	}
	if cfg.Ledger == nil {
		return fmt.Errorf("ledger cannot be nil")
	}
	if cfg.Clock == nil {
		return fmt.Errorf("clock cannot be nil")
	}
	return nil
}

// acquire takes the exclusive-execution lock for an operation that will call
// out to the ledger. Nested acquisition fails instead of blocking, so a
// reentrant call from inside a transfer callback surfaces ErrReentrant.
func (e *Engine) acquire() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.locked {
		return ErrReentrant
	}
	e.locked = true
	return nil
}

func (e *Engine) release() {
	e.mu.Lock()
	e.locked = false
	e.mu.Unlock()
}

// Pause suspends add/remove/swap. Emergency withdraw stays available.
// Admin mutators never cross the ledger themselves, but they still refuse to
// run from inside another operation's transfer callback.
func (e *Engine) Pause(caller string) error {
	e.mu.Lock()
	if e.locked {
		e.mu.Unlock()
		return ErrReentrant
	}
	if caller != e.owner {
		e.mu.Unlock()
		return ErrUnauthorized
	}
	e.paused = true
	e.mu.Unlock()

	e.logger.Warn().Str("caller", caller).Msg("Liquidity operations paused")
	e.emit(types.EventPaused, 0, caller, nil)
	return nil
}

// Unpause lifts the suspension.
func (e *Engine) Unpause(caller string) error {
	e.mu.Lock()
	if e.locked {
		e.mu.Unlock()
		return ErrReentrant
	}
	if caller != e.owner {
		e.mu.Unlock()
		return ErrUnauthorized
	}
	e.paused = false
	e.mu.Unlock()

	e.logger.Info().Str("caller", caller).Msg("Liquidity operations resumed")
	e.emit(types.EventUnpaused, 0, caller, nil)
	return nil
}

// Paused reports whether liquidity operations are currently suspended.
func (e *Engine) Paused() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.paused
}

func (e *Engine) emit(evType types.EventType, poolID types.PoolID, actor string, attrs map[string]string) {
	if e.sink == nil {
		return
	}
	e.sink.Append(types.Event{
		ID:         uuid.NewString(),
		Type:       evType,
		Height:     e.clk.Height(),
		Timestamp:  e.clk.Now(),
		PoolID:     poolID,
		Actor:      actor,
		Attributes: attrs,
	})
}

func (e *Engine) getOrCreatePosition(poolID types.PoolID, owner string) *types.UserPosition {
	holders, ok := e.positions[poolID]
	if !ok {
		holders = make(map[string]*types.UserPosition)
		e.positions[poolID] = holders
	}
	pos, ok := holders[owner]
	if !ok {
		pos = &types.UserPosition{
			PoolID:        poolID,
			Owner:         owner,
			Shares:        sdkmath.ZeroInt(),
			AccruedReward: sdkmath.ZeroInt(),
		}
		holders[owner] = pos
	}
	return pos
}
