package workers

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/yeojun7429/portfolio-api/internal/events"
	"go.uber.org/zap"
)

type recordingSink struct {
	mu      sync.Mutex
	records []uuid.UUID
}

func (s *recordingSink) RecordWrite(ctx context.Context, userID uuid.UUID, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, userID)
	return nil
}

func (s *recordingSink) recorded() []uuid.UUID {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]uuid.UUID, len(s.records))
	copy(out, s.records)
	return out
}

func TestActivityRecorder_RecordsOwnedChanges(t *testing.T) {
	t.Parallel()

	bus := events.NewMemoryBus()
	sink := &recordingSink{}
	recorder := NewActivityRecorder(bus, sink, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- recorder.Run(ctx) }()

	// Give the consumer time to attach before publishing.
	time.Sleep(10 * time.Millisecond)

	owner := uuid.New()
	if err := bus.Publish(ctx, events.NewChange(events.EntityItem, events.KindCreated, uuid.New(), owner)); err != nil {
		t.Fatalf("Publish: %v", err)
	}
	// Chat changes carry no owner and must be skipped.
	if err := bus.Publish(ctx, events.NewChange(events.EntityMessage, events.KindCreated, uuid.New(), uuid.Nil)); err != nil {
		t.Fatalf("Publish: %v", err)
	}

	deadline := time.After(2 * time.Second)
	for {
		if records := sink.recorded(); len(records) >= 1 {
			if records[0] != owner {
				t.Errorf("recorded user = %v, want %v", records[0], owner)
			}
			break
		}
		select {
		case <-deadline:
			t.Fatal("timed out waiting for activity record")
		case <-time.After(5 * time.Millisecond):
		}
	}

	if records := sink.recorded(); len(records) != 1 {
		t.Errorf("recorded %d writes, want 1 (ownerless change skipped)", len(records))
	}

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("recorder did not stop on cancel")
	}
}
