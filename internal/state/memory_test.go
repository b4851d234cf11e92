// ./internal/state/memory_test.go
package state_test

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/weightlab/wamm/internal/state"
	"github.com/weightlab/wamm/internal/types"
)

func ev(id int, poolID types.PoolID) types.Event {
	return types.Event{
		ID:        fmt.Sprintf("ev-%d", id),
		Type:      types.EventSwap,
		Height:    uint64(id),
		Timestamp: time.Unix(int64(id), 0),
		PoolID:    poolID,
		Actor:     "alice",
	}
}

func TestMemorySinkReturnsNewestFirst(t *testing.T) {
	sink := state.NewMemorySink(8)
	for n := 1; n <= 3; n++ {
		sink.Append(ev(n, 1))
	}

	got := sink.Recent(0, 0)
	require.Len(t, got, 3)
	require.Equal(t, "ev-3", got[0].ID)
	require.Equal(t, "ev-1", got[2].ID)
	require.Equal(t, 3, sink.Len())
}

func TestMemorySinkEvictsOldestWhenFull(t *testing.T) {
	sink := state.NewMemorySink(4)
	for n := 1; n <= 6; n++ {
		sink.Append(ev(n, 1))
	}

	got := sink.Recent(0, 0)
	require.Len(t, got, 4)
	require.Equal(t, "ev-6", got[0].ID)
	require.Equal(t, "ev-3", got[3].ID)
}

func TestMemorySinkFiltersByPool(t *testing.T) {
	sink := state.NewMemorySink(8)
	sink.Append(ev(1, 1))
	sink.Append(ev(2, 2))
	sink.Append(ev(3, 1))

	got := sink.Recent(1, 0)
	require.Len(t, got, 2)
	require.Equal(t, "ev-3", got[0].ID)
	require.Equal(t, "ev-1", got[1].ID)

	got = sink.Recent(2, 1)
	require.Len(t, got, 1)
	require.Equal(t, "ev-2", got[0].ID)
}
