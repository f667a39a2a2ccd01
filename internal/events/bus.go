package events

import (
	"context"
)

// Bus is the interface for the change-event fan-out.
//
// Every server instance and worker sees every published change, so a write
// accepted by any instance eventually refreshes every live subscription.
type Bus interface {
	// Publish sends a change to all consumers.
	Publish(ctx context.Context, change *Change) error

	// Consume returns a channel of changes published after the call.
	// The channel is closed when the context is cancelled or the
	// connection breaks; the error channel reports why.
	Consume(ctx context.Context) (<-chan *Change, <-chan error, error)

	// Close closes the bus connection.
	Close() error

	// HealthCheck verifies the bus connection is healthy.
	HealthCheck(ctx context.Context) error
}
