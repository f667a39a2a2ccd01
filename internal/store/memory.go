package store

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/yeojun7429/portfolio-api/internal/models"
)

// MemoryItemStore is an in-process ItemStore. Writes refresh subscriptions
// synchronously, which makes tests deterministic.
type MemoryItemStore struct {
	mu    sync.Mutex
	items map[uuid.UUID]*models.Item
	subs  map[*memoryItemSub]struct{}

	// FailWrites makes every write return an error, for exercising the
	// store-error paths.
	FailWrites bool
}

// NewMemoryItemStore creates an empty in-memory item store.
func NewMemoryItemStore() *MemoryItemStore {
	return &MemoryItemStore{
		items: make(map[uuid.UUID]*models.Item),
		subs:  make(map[*memoryItemSub]struct{}),
	}
}

type memoryItemSub struct {
	store *MemoryItemStore
	owner uuid.UUID

	mu         sync.Mutex
	closed     bool
	onSnapshot func(items []*models.Item)
}

func (s *memoryItemSub) deliver(items []*models.Item) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.onSnapshot(items)
}

// Close cancels the subscription.
func (s *memoryItemSub) Close() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()

	s.store.mu.Lock()
	delete(s.store.subs, s)
	s.store.mu.Unlock()
}

// Subscribe registers a feed for the owner's items and pushes the current
// snapshot before returning.
func (m *MemoryItemStore) Subscribe(ctx context.Context, owner uuid.UUID, onSnapshot func(items []*models.Item)) (Subscription, error) {
	sub := &memoryItemSub{store: m, owner: owner, onSnapshot: onSnapshot}

	m.mu.Lock()
	m.subs[sub] = struct{}{}
	snapshot := m.snapshotLocked(owner)
	m.mu.Unlock()

	sub.deliver(snapshot)
	return sub, nil
}

// snapshotLocked returns the owner's items ordered newest first. Caller
// holds m.mu.
func (m *MemoryItemStore) snapshotLocked(owner uuid.UUID) []*models.Item {
	var items []*models.Item
	for _, item := range m.items {
		if item.Owner == owner {
			copied := *item
			items = append(items, &copied)
		}
	}
	sort.Slice(items, func(i, j int) bool { return items[i].CreatedAt > items[j].CreatedAt })
	return items
}

func (m *MemoryItemStore) notify(owner uuid.UUID) {
	m.mu.Lock()
	subs := make([]*memoryItemSub, 0, len(m.subs))
	for sub := range m.subs {
		if sub.owner == owner {
			subs = append(subs, sub)
		}
	}
	snapshot := m.snapshotLocked(owner)
	m.mu.Unlock()

	for _, sub := range subs {
		sub.deliver(snapshot)
	}
}

// Create stores a new item and returns its assigned ID.
func (m *MemoryItemStore) Create(ctx context.Context, item *models.Item) (uuid.UUID, error) {
	m.mu.Lock()
	if m.FailWrites {
		m.mu.Unlock()
		return uuid.Nil, fmt.Errorf("simulated write failure")
	}
	if item.ID == uuid.Nil {
		item.ID = uuid.New()
	}
	copied := *item
	m.items[item.ID] = &copied
	m.mu.Unlock()

	m.notify(item.Owner)
	return item.ID, nil
}

// SetDone updates the completion state of an item.
func (m *MemoryItemStore) SetDone(ctx context.Context, id uuid.UUID, done bool, completedAt *int64) error {
	m.mu.Lock()
	if m.FailWrites {
		m.mu.Unlock()
		return fmt.Errorf("simulated write failure")
	}
	item, ok := m.items[id]
	if !ok {
		m.mu.Unlock()
		return fmt.Errorf("item %s not found", id)
	}
	item.Done = done
	item.CompletedAt = completedAt
	owner := item.Owner
	m.mu.Unlock()

	m.notify(owner)
	return nil
}

// Delete removes an item.
func (m *MemoryItemStore) Delete(ctx context.Context, id uuid.UUID) error {
	m.mu.Lock()
	if m.FailWrites {
		m.mu.Unlock()
		return fmt.Errorf("simulated write failure")
	}
	item, ok := m.items[id]
	if !ok {
		m.mu.Unlock()
		return fmt.Errorf("item %s not found", id)
	}
	owner := item.Owner
	delete(m.items, id)
	m.mu.Unlock()

	m.notify(owner)
	return nil
}

// Get returns a copy of the stored item, or nil.
func (m *MemoryItemStore) Get(id uuid.UUID) *models.Item {
	m.mu.Lock()
	defer m.mu.Unlock()
	item, ok := m.items[id]
	if !ok {
		return nil
	}
	copied := *item
	return &copied
}

var _ ItemStore = (*MemoryItemStore)(nil)

// MemoryMessageStore is an in-process MessageStore with the same
// synchronous notification behavior as MemoryItemStore.
type MemoryMessageStore struct {
	mu       sync.Mutex
	messages []*models.Message
	subs     map[*memoryMessageSub]struct{}

	// Now supplies message timestamps; defaults to time.Now.
	Now func() time.Time
}

// NewMemoryMessageStore creates an empty in-memory message store.
func NewMemoryMessageStore() *MemoryMessageStore {
	return &MemoryMessageStore{
		subs: make(map[*memoryMessageSub]struct{}),
		Now:  time.Now,
	}
}

type memoryMessageSub struct {
	store *MemoryMessageStore

	mu         sync.Mutex
	closed     bool
	onSnapshot func(messages []*models.Message)
}

func (s *memoryMessageSub) deliver(messages []*models.Message) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.onSnapshot(messages)
}

// Close cancels the subscription.
func (s *memoryMessageSub) Close() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()

	s.store.mu.Lock()
	delete(s.store.subs, s)
	s.store.mu.Unlock()
}

// Subscribe registers a feed for the chat collection and pushes the current
// snapshot before returning.
func (m *MemoryMessageStore) Subscribe(ctx context.Context, onSnapshot func(messages []*models.Message)) (Subscription, error) {
	sub := &memoryMessageSub{store: m, onSnapshot: onSnapshot}

	m.mu.Lock()
	m.subs[sub] = struct{}{}
	snapshot := m.snapshotLocked()
	m.mu.Unlock()

	sub.deliver(snapshot)
	return sub, nil
}

func (m *MemoryMessageStore) snapshotLocked() []*models.Message {
	messages := make([]*models.Message, 0, len(m.messages))
	for _, msg := range m.messages {
		copied := *msg
		messages = append(messages, &copied)
	}
	sort.Slice(messages, func(i, j int) bool { return messages[i].CreatedAt > messages[j].CreatedAt })
	return messages
}

// Append stores a new message, assigning its creation time.
func (m *MemoryMessageStore) Append(ctx context.Context, msg *models.Message) (uuid.UUID, error) {
	m.mu.Lock()
	if msg.ID == uuid.Nil {
		msg.ID = uuid.New()
	}
	msg.CreatedAt = m.Now().UnixMilli()
	copied := *msg
	m.messages = append(m.messages, &copied)
	subs := make([]*memoryMessageSub, 0, len(m.subs))
	for sub := range m.subs {
		subs = append(subs, sub)
	}
	snapshot := m.snapshotLocked()
	m.mu.Unlock()

	for _, sub := range subs {
		sub.deliver(snapshot)
	}
	return msg.ID, nil
}

var _ MessageStore = (*MemoryMessageStore)(nil)
