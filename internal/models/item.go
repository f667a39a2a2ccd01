package models

import (
	"github.com/google/uuid"
)

// Item is a to-do record owned by a single user.
//
// Timestamps are epoch milliseconds, matching the wire shape the mobile
// clients persist. CompletedAt is nil exactly when Done is false.
type Item struct {
	ID          uuid.UUID `json:"id"`
	Owner       uuid.UUID `json:"owner"`
	Label       string    `json:"label"`
	Done        bool      `json:"done"`
	CreatedAt   int64     `json:"createdAt"`
	CompletedAt *int64    `json:"completedAt"`
}

// Consistent reports whether the done flag agrees with the completion
// timestamp.
func (i *Item) Consistent() bool {
	return i.Done == (i.CompletedAt != nil)
}
