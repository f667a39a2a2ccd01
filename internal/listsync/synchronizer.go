// Package listsync keeps a per-user in-memory to-do list aligned with the
// record store. Each synchronizer follows one identity: it subscribes to
// that owner's snapshot feed, replaces its local list wholesale on every
// delivery, and exposes validated write operations.
package listsync

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/yeojun7429/portfolio-api/internal/models"
	"github.com/yeojun7429/portfolio-api/internal/store"
	"github.com/yeojun7429/portfolio-api/internal/timeinput"
	"go.uber.org/zap"
)

var (
	// ErrAuthRequired is returned when a write is attempted with no
	// identity established.
	ErrAuthRequired = errors.New("sign-in required")

	// ErrInvalidFormat is returned when the date/time fields do not match
	// the expected patterns or only one of them is filled.
	ErrInvalidFormat = errors.New("date must be YYYY-MM-DD and time must be HH:mm")

	// ErrInvalidCalendarDate is returned when the fields parse but name a
	// date or time that does not exist.
	ErrInvalidCalendarDate = errors.New("date or time does not exist")
)

// Synchronizer mirrors one owner's item list from the record store.
type Synchronizer struct {
	store  store.ItemStore
	logger *zap.Logger
	now    func() time.Time

	mu          sync.Mutex
	identity    *models.User
	sub         store.Subscription
	generation  uint64
	items       []*models.Item
	watchers    map[int]func(items []*models.Item)
	nextWatcher int
}

// New creates a synchronizer with no identity. It stays empty until
// OnSessionChanged arms it with a signed-in user.
func New(st store.ItemStore, logger *zap.Logger) *Synchronizer {
	return &Synchronizer{
		store:    st,
		logger:   logger,
		now:      time.Now,
		watchers: make(map[int]func(items []*models.Item)),
	}
}

// OnSessionChanged switches the synchronizer to a new identity, or clears
// it when identity is nil. The previous subscription is closed before the
// new one starts, and any snapshot still in flight from it is discarded.
func (s *Synchronizer) OnSessionChanged(identity *models.User) {
	s.mu.Lock()
	old := s.sub
	s.sub = nil
	s.generation++
	gen := s.generation
	s.identity = identity
	s.items = nil
	s.notifyLocked()
	s.mu.Unlock()

	if old != nil {
		old.Close()
	}

	if identity == nil {
		return
	}

	sub, err := s.store.Subscribe(context.Background(), identity.ID, func(items []*models.Item) {
		s.applySnapshot(gen, items)
	})
	if err != nil {
		// The list simply stops updating; writes still work.
		s.logger.Error("item_subscription_failed",
			zap.String("user_id", identity.ID.String()),
			zap.Error(err))
		return
	}

	s.mu.Lock()
	if gen != s.generation {
		// Identity changed again while we were subscribing.
		s.mu.Unlock()
		sub.Close()
		return
	}
	s.sub = sub
	s.mu.Unlock()
}

func (s *Synchronizer) applySnapshot(gen uint64, items []*models.Item) {
	sorted := make([]*models.Item, len(items))
	copy(sorted, items)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].CreatedAt > sorted[j].CreatedAt
	})

	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.generation {
		// Snapshot from a subscription that has since been replaced.
		return
	}
	s.items = sorted
	s.notifyLocked()
}

// Items returns a copy of the current list, newest first.
func (s *Synchronizer) Items() []*models.Item {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*models.Item, len(s.items))
	copy(out, s.items)
	return out
}

// Watch registers a watcher called with the current list immediately and
// after every snapshot or identity change. Watchers run with the
// synchronizer's lock held and must not call back in. The returned cancel
// function removes the watcher.
func (s *Synchronizer) Watch(fn func(items []*models.Item)) (cancel func()) {
	s.mu.Lock()
	id := s.nextWatcher
	s.nextWatcher++
	s.watchers[id] = fn
	fn(s.snapshotLocked())
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.watchers, id)
		s.mu.Unlock()
	}
}

func (s *Synchronizer) snapshotLocked() []*models.Item {
	out := make([]*models.Item, len(s.items))
	copy(out, s.items)
	return out
}

func (s *Synchronizer) notifyLocked() {
	if len(s.watchers) == 0 {
		return
	}
	snap := s.snapshotLocked()
	for _, fn := range s.watchers {
		fn(snap)
	}
}

// Create validates the inputs and writes a new item. A blank label is a
// silent no-op. The optional date/time pair must be both filled or both
// blank; when filled it becomes the item's creation timestamp, otherwise
// the current time is used. The new item is not spliced into the local
// list; it arrives through the snapshot feed.
func (s *Synchronizer) Create(ctx context.Context, label, dateText, timeText string) error {
	label = strings.TrimSpace(label)
	if label == "" {
		return nil
	}

	s.mu.Lock()
	identity := s.identity
	s.mu.Unlock()
	if identity == nil {
		return ErrAuthRequired
	}

	result := timeinput.Validate(dateText, timeText)
	var createdAt int64
	switch result.Kind {
	case timeinput.None:
		createdAt = s.now().UnixMilli()
	case timeinput.Timestamp:
		createdAt = result.Millis
	case timeinput.InvalidFormat:
		return ErrInvalidFormat
	case timeinput.InvalidCalendarDate:
		return ErrInvalidCalendarDate
	}

	item := &models.Item{
		Owner:     identity.ID,
		Label:     label,
		Done:      false,
		CreatedAt: createdAt,
	}
	if _, err := s.store.Create(ctx, item); err != nil {
		s.logger.Error("item_create_failed",
			zap.String("user_id", identity.ID.String()),
			zap.Error(err))
		return fmt.Errorf("failed to save item: %w", err)
	}

	return nil
}

// Toggle flips an item's done flag, setting or clearing its completion
// timestamp to match. It is a no-op with no identity established. Store
// failures are logged and returned.
func (s *Synchronizer) Toggle(ctx context.Context, item *models.Item) error {
	s.mu.Lock()
	identity := s.identity
	s.mu.Unlock()
	if identity == nil {
		return nil
	}

	done := !item.Done
	var completedAt *int64
	if done {
		ms := s.now().UnixMilli()
		completedAt = &ms
	}

	if err := s.store.SetDone(ctx, item.ID, done, completedAt); err != nil {
		s.logger.Error("item_toggle_failed",
			zap.String("item_id", item.ID.String()),
			zap.Error(err))
		return fmt.Errorf("failed to update item: %w", err)
	}

	return nil
}

// Remove deletes an item. It is a no-op with no identity established.
// Store failures are logged and returned.
func (s *Synchronizer) Remove(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	identity := s.identity
	s.mu.Unlock()
	if identity == nil {
		return nil
	}

	if err := s.store.Delete(ctx, id); err != nil {
		s.logger.Error("item_remove_failed",
			zap.String("item_id", id.String()),
			zap.Error(err))
		return fmt.Errorf("failed to delete item: %w", err)
	}

	return nil
}
