// ./internal/state/memory.go
package state

import (
	"sync"

	"github.com/weightlab/wamm/internal/types"
)

// MemorySink keeps the most recent events in a fixed-size ring. It serves
// deployments without a database and doubles as the event capture used in
// tests.
type MemorySink struct {
	mu     sync.RWMutex
	events []types.Event
	next   int
	full   bool
}

// NewMemorySink creates a sink retaining up to capacity events. A
// non-positive capacity falls back to 1024.
func NewMemorySink(capacity int) *MemorySink {
	if capacity <= 0 {
		capacity = 1024
	}
	return &MemorySink{events: make([]types.Event, capacity)}
}

func (s *MemorySink) Append(ev types.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events[s.next] = ev
	s.next = (s.next + 1) % len(s.events)
	if s.next == 0 {
		s.full = true
	}
}

// Recent returns the retained events, newest first. A zero poolID matches
// every pool.
func (s *MemorySink) Recent(poolID types.PoolID, limit int) []types.Event {
	s.mu.RLock()
	defer s.mu.RUnlock()

	size := s.next
	if s.full {
		size = len(s.events)
	}
	if limit <= 0 || limit > size {
		limit = size
	}

	out := make([]types.Event, 0, limit)
	for i := 1; i <= size && len(out) < limit; i++ {
		idx := (s.next - i + len(s.events)) % len(s.events)
		ev := s.events[idx]
		if poolID != 0 && ev.PoolID != poolID {
			continue
		}
		out = append(out, ev)
	}
	return out
}

// Len reports how many events the sink currently retains.
func (s *MemorySink) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.full {
		return len(s.events)
	}
	return s.next
}
