// ./internal/state/event_store.go
package state

import (
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/weightlab/wamm/internal/types"
)

// SaveEvent persists a single pool event to the database.
func SaveEvent(ev types.Event) error {
	if DB == nil {
		return fmt.Errorf("database not initialized")
	}

	attrsJSON, err := json.Marshal(ev.Attributes)
	if err != nil {
		return fmt.Errorf("failed to marshal event attributes: %w", err)
	}

	query := `
		INSERT INTO pool_events (
			event_id, event_type, block_height, event_timestamp, pool_id, actor, attributes
		) VALUES ($1, $2, $3, $4, $5, $6, $7);
	`
	_, err = DB.Exec(query,
		ev.ID, string(ev.Type), int64(ev.Height), ev.Timestamp,
		int64(ev.PoolID), ev.Actor, attrsJSON,
	)
	if err != nil {
		return fmt.Errorf("failed to save event: %w", err)
	}
	return nil
}

// ListEvents returns the most recent events, newest first. A zero poolID
// returns events for every pool. limit caps the result size; values outside
// (0, 1000] fall back to 100.
func ListEvents(poolID types.PoolID, limit int) ([]types.Event, error) {
	if DB == nil {
		return nil, fmt.Errorf("database not initialized")
	}
	if limit <= 0 || limit > 1000 {
		limit = 100
	}

	query := `
		SELECT event_id, event_type, block_height, event_timestamp, pool_id, actor, attributes
		FROM pool_events
		WHERE ($1 = 0 OR pool_id = $1)
		ORDER BY event_timestamp DESC
		LIMIT $2;
	`
	rows, err := DB.Query(query, int64(poolID), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query events: %w", err)
	}
	defer rows.Close()

	var events []types.Event
	for rows.Next() {
		var (
			ev        types.Event
			evType    string
			height    int64
			pid       int64
			attrsJSON []byte
		)
		if err := rows.Scan(&ev.ID, &evType, &height, &ev.Timestamp, &pid, &ev.Actor, &attrsJSON); err != nil {
			return nil, fmt.Errorf("failed to scan event row: %w", err)
		}
		ev.Type = types.EventType(evType)
		ev.Height = uint64(height)
		ev.PoolID = types.PoolID(pid)
		if len(attrsJSON) > 0 {
			if err := json.Unmarshal(attrsJSON, &ev.Attributes); err != nil {
				return nil, fmt.Errorf("failed to unmarshal event attributes: %w", err)
			}
		}
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("event row iteration failed: %w", err)
	}
	return events, nil
}

// DBSink persists events through the global connection pool. Persistence is
// best-effort: a failed insert is logged, never surfaced to the operation
// that emitted the event.
type DBSink struct{}

func (DBSink) Append(ev types.Event) {
	if err := SaveEvent(ev); err != nil {
		log.Error().Err(err).
			Str("event_id", ev.ID).
			Str("event_type", string(ev.Type)).
			Msg("Failed to persist pool event")
	}
}
