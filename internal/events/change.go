package events

import (
	"time"

	"github.com/google/uuid"
)

// Entity names the record collection a change belongs to.
type Entity string

const (
	// EntityItem is the owner-scoped to-do collection.
	EntityItem Entity = "item"
	// EntityMessage is the global chat collection.
	EntityMessage Entity = "message"
)

// Kind is the type of mutation that produced a change.
type Kind string

const (
	KindCreated Kind = "created"
	KindUpdated Kind = "updated"
	KindDeleted Kind = "deleted"
)

// Change is a notification that a record was written. It carries no record
// data: consumers re-query the store for a full snapshot, so a change is
// only a hint about which feeds went stale.
type Change struct {
	ID         uuid.UUID `json:"id"`
	Entity     Entity    `json:"entity"`
	Kind       Kind      `json:"kind"`
	RecordID   uuid.UUID `json:"record_id"`
	Owner      uuid.UUID `json:"owner,omitempty"` // zero for message changes
	OccurredAt time.Time `json:"occurred_at"`
}

// NewChange creates a change notification for a record write.
func NewChange(entity Entity, kind Kind, recordID, owner uuid.UUID) *Change {
	return &Change{
		ID:         uuid.New(),
		Entity:     entity,
		Kind:       kind,
		RecordID:   recordID,
		Owner:      owner,
		OccurredAt: time.Now(),
	}
}
