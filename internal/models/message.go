package models

import (
	"github.com/google/uuid"
)

// Message is a chat message. Unlike items, messages are not owner-scoped:
// every signed-in user sees the same feed.
type Message struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"userId"`
	UserName  string    `json:"userName"`
	Text      string    `json:"text"`
	CreatedAt int64     `json:"createdAt"` // epoch ms, assigned by the store
}
