// Package store provides the record store the synchronizer talks to: a
// create/update/delete surface plus push-based subscriptions that deliver
// the full matching snapshot on every change.
package store

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/yeojun7429/portfolio-api/internal/models"
)

// ErrClosed is returned when an operation is attempted on a closed store.
var ErrClosed = errors.New("store is closed")

// Subscription is a handle on a live snapshot feed. After Close returns,
// no further snapshots are delivered for this subscription.
type Subscription interface {
	Close()
}

// ItemStore is the external record store surface for to-do items.
//
// Subscribe pushes the complete current set of the owner's items on every
// change; consumers never issue incremental reads. The snapshot callback
// runs on a store goroutine and must not call back into the subscription.
type ItemStore interface {
	Subscribe(ctx context.Context, owner uuid.UUID, onSnapshot func(items []*models.Item)) (Subscription, error)
	Create(ctx context.Context, item *models.Item) (uuid.UUID, error)
	SetDone(ctx context.Context, id uuid.UUID, done bool, completedAt *int64) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// MessageStore is the record store surface for chat messages. The feed is
// global rather than owner-scoped. CreatedAt is assigned by the store.
type MessageStore interface {
	Subscribe(ctx context.Context, onSnapshot func(messages []*models.Message)) (Subscription, error)
	Append(ctx context.Context, msg *models.Message) (uuid.UUID, error)
}
