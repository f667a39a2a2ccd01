package events

import (
	"context"
	"fmt"
	"sync"
)

// MemoryBus is an in-process Bus for tests and single-instance development.
type MemoryBus struct {
	mu        sync.Mutex
	closed    bool
	consumers []chan *Change
}

// NewMemoryBus creates an in-process change bus.
func NewMemoryBus() *MemoryBus {
	return &MemoryBus{}
}

// Publish delivers the change to every consumer registered at publish time.
func (b *MemoryBus) Publish(ctx context.Context, change *Change) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return fmt.Errorf("bus is closed")
	}
	for _, c := range b.consumers {
		select {
		case c <- change:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

// Consume registers a consumer. The returned channel closes when ctx is
// cancelled or the bus is closed.
func (b *MemoryBus) Consume(ctx context.Context) (<-chan *Change, <-chan error, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil, nil, fmt.Errorf("bus is closed")
	}

	in := make(chan *Change, 16)
	out := make(chan *Change, 16)
	errChan := make(chan error, 1)
	b.consumers = append(b.consumers, in)

	go func() {
		defer close(out)
		defer close(errChan)
		defer b.removeConsumer(in)
		for {
			select {
			case <-ctx.Done():
				return
			case change, ok := <-in:
				if !ok {
					return
				}
				select {
				case <-ctx.Done():
					return
				case out <- change:
				}
			}
		}
	}()

	return out, errChan, nil
}

func (b *MemoryBus) removeConsumer(c chan *Change) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, existing := range b.consumers {
		if existing == c {
			b.consumers = append(b.consumers[:i], b.consumers[i+1:]...)
			return
		}
	}
}

// Close closes the bus; pending consumers drain and stop.
func (b *MemoryBus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil
	}
	b.closed = true
	for _, c := range b.consumers {
		close(c)
	}
	b.consumers = nil
	return nil
}

// HealthCheck reports whether the bus is open.
func (b *MemoryBus) HealthCheck(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return fmt.Errorf("bus is closed")
	}
	return nil
}

var _ Bus = (*MemoryBus)(nil)
