package audit

import (
	"encoding/json"
	"time"

	"github.com/demoplan/demoplan/engine/core"
)

// Entry is one append-only audit record. Before and After hold JSON
// snapshots of the touched entity around the mutation.
type Entry struct {
	ID         core.ID         `db:"id"`
	Actor      string          `db:"actor"`
	Action     string          `db:"action"`
	EntityType string          `db:"entity_type"`
	EntityID   string          `db:"entity_id"`
	Before     json.RawMessage `db:"before_state"`
	After      json.RawMessage `db:"after_state"`
	CreatedAt  time.Time       `db:"created_at"`
}

// Snapshot marshals an entity state for an audit entry. Marshal failures
// degrade to a note instead of blocking the mutation.
func Snapshot(v any) json.RawMessage {
	if v == nil {
		return nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return json.RawMessage(`{"snapshot_error":true}`)
	}
	return b
}

// New builds an entry for one mutation.
func New(actor, action, entityType, entityID string, before, after any) *Entry {
	return &Entry{
		ID:         core.MustNewID(),
		Actor:      actor,
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
		Before:     Snapshot(before),
		After:      Snapshot(after),
	}
}
