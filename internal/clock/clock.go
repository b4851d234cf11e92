// Package clock supplies the block height and wall time the engine stamps
// into reward checkpoints, deposit timestamps and events.
package clock

import (
	"sync"
	"time"
)

// Clock is the engine's view of chain time.
type Clock interface {
	// Height returns the current block number.
	Height() uint64
	// Now returns the current wall time.
	Now() time.Time
}

// Manual is a hand-advanced clock for tests and simulations.
type Manual struct {
	mu     sync.Mutex
	height uint64
	now    time.Time
}

// NewManual starts a manual clock at the given height and time.
func NewManual(height uint64, now time.Time) *Manual {
	return &Manual{height: height, now: now}
}

func (m *Manual) Height() uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.height
}

func (m *Manual) Now() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}

// AdvanceBlocks moves the height forward by n blocks.
func (m *Manual) AdvanceBlocks(n uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.height += n
}

// AdvanceTime moves the wall time forward by d.
func (m *Manual) AdvanceTime(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now = m.now.Add(d)
}

// Interval derives the block height from elapsed wall time since a genesis
// instant, one block per interval. It needs no background goroutine.
type Interval struct {
	genesis  time.Time
	interval time.Duration
}

// NewInterval creates an interval clock. interval must be positive.
func NewInterval(genesis time.Time, interval time.Duration) *Interval {
	if interval <= 0 {
		interval = time.Second
	}
	return &Interval{genesis: genesis, interval: interval}
}

func (c *Interval) Height() uint64 {
	elapsed := time.Since(c.genesis)
	if elapsed < 0 {
		return 0
	}
	return uint64(elapsed / c.interval)
}

func (c *Interval) Now() time.Time {
	return time.Now()
}
