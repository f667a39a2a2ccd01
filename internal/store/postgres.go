package store

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/yeojun7429/portfolio-api/internal/database"
	"github.com/yeojun7429/portfolio-api/internal/events"
	"github.com/yeojun7429/portfolio-api/internal/models"
	"go.uber.org/zap"
)

// PostgresItemStore implements ItemStore over the item repository.
//
// Local writes refresh local subscriptions immediately and publish a change
// to the bus so other instances (and the activity worker) converge. Run
// consumes the bus and refreshes subscriptions for changes made elsewhere.
type PostgresItemStore struct {
	repo   database.ItemRepositoryInterface
	bus    events.Bus
	logger *zap.Logger

	mu     sync.Mutex
	closed bool
	subs   map[uuid.UUID]map[*itemSubscription]struct{}
}

// NewPostgresItemStore creates an item store over the given repository and
// change bus.
func NewPostgresItemStore(repo database.ItemRepositoryInterface, bus events.Bus, logger *zap.Logger) *PostgresItemStore {
	return &PostgresItemStore{
		repo:   repo,
		bus:    bus,
		logger: logger,
		subs:   make(map[uuid.UUID]map[*itemSubscription]struct{}),
	}
}

type itemSubscription struct {
	store *PostgresItemStore
	owner uuid.UUID

	mu         sync.Mutex
	closed     bool
	onSnapshot func(items []*models.Item)
}

// deliver pushes a snapshot unless the subscription was closed. The closed
// check and the callback share a lock, so Close blocks until any in-flight
// delivery finishes and no delivery starts after Close returns.
func (s *itemSubscription) deliver(items []*models.Item) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.onSnapshot(items)
}

// Close cancels the subscription.
func (s *itemSubscription) Close() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	s.store.remove(s)
}

// Subscribe registers a live feed of the owner's items and pushes the
// current snapshot asynchronously.
func (p *PostgresItemStore) Subscribe(ctx context.Context, owner uuid.UUID, onSnapshot func(items []*models.Item)) (Subscription, error) {
	sub := &itemSubscription{store: p, owner: owner, onSnapshot: onSnapshot}

	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil, ErrClosed
	}
	if p.subs[owner] == nil {
		p.subs[owner] = make(map[*itemSubscription]struct{})
	}
	p.subs[owner][sub] = struct{}{}
	p.mu.Unlock()

	// Initial snapshot, delivered off the caller's goroutine.
	go p.refreshSub(context.WithoutCancel(ctx), sub)

	return sub, nil
}

func (p *PostgresItemStore) remove(sub *itemSubscription) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if set, ok := p.subs[sub.owner]; ok {
		delete(set, sub)
		if len(set) == 0 {
			delete(p.subs, sub.owner)
		}
	}
}

func (p *PostgresItemStore) refreshSub(ctx context.Context, sub *itemSubscription) {
	items, err := p.repo.ListByOwner(ctx, sub.owner)
	if err != nil {
		p.logger.Warn("item_snapshot_query_failed",
			zap.String("owner", sub.owner.String()),
			zap.Error(err),
		)
		return
	}
	sub.deliver(items)
}

// refreshOwner re-queries the owner's snapshot once and pushes it to every
// subscription for that owner.
func (p *PostgresItemStore) refreshOwner(ctx context.Context, owner uuid.UUID) {
	p.mu.Lock()
	set := p.subs[owner]
	subs := make([]*itemSubscription, 0, len(set))
	for sub := range set {
		subs = append(subs, sub)
	}
	p.mu.Unlock()

	if len(subs) == 0 {
		return
	}

	items, err := p.repo.ListByOwner(ctx, owner)
	if err != nil {
		p.logger.Warn("item_snapshot_query_failed",
			zap.String("owner", owner.String()),
			zap.Error(err),
		)
		return
	}

	for _, sub := range subs {
		sub.deliver(items)
	}
}

func (p *PostgresItemStore) publish(ctx context.Context, kind events.Kind, recordID, owner uuid.UUID) {
	change := events.NewChange(events.EntityItem, kind, recordID, owner)
	if err := p.bus.Publish(ctx, change); err != nil {
		// The write already landed; other instances catch up on the next
		// change for this owner.
		p.logger.Warn("item_change_publish_failed",
			zap.String("owner", owner.String()),
			zap.Error(err),
		)
	}
	p.refreshOwner(ctx, owner)
}

// Create persists a new item and returns its store-assigned ID.
func (p *PostgresItemStore) Create(ctx context.Context, item *models.Item) (uuid.UUID, error) {
	if err := p.repo.Create(ctx, item); err != nil {
		return uuid.Nil, err
	}
	p.publish(ctx, events.KindCreated, item.ID, item.Owner)
	return item.ID, nil
}

// SetDone updates the completion state of an item.
func (p *PostgresItemStore) SetDone(ctx context.Context, id uuid.UUID, done bool, completedAt *int64) error {
	item, err := p.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := p.repo.SetDone(ctx, id, done, completedAt); err != nil {
		return err
	}
	p.publish(ctx, events.KindUpdated, id, item.Owner)
	return nil
}

// Delete removes an item.
func (p *PostgresItemStore) Delete(ctx context.Context, id uuid.UUID) error {
	item, err := p.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := p.repo.Delete(ctx, id); err != nil {
		return err
	}
	p.publish(ctx, events.KindDeleted, id, item.Owner)
	return nil
}

// Run consumes the change bus and refreshes subscriptions for item changes
// made by other instances. It blocks until ctx is cancelled.
func (p *PostgresItemStore) Run(ctx context.Context) error {
	changes, errs, err := p.bus.Consume(ctx)
	if err != nil {
		return err
	}
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case err, ok := <-errs:
			if ok && err != nil {
				p.logger.Warn("item_change_feed_error", zap.Error(err))
			}
		case change, ok := <-changes:
			if !ok {
				return nil
			}
			if change.Entity != events.EntityItem {
				continue
			}
			refreshCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
			p.refreshOwner(refreshCtx, change.Owner)
			cancel()
		}
	}
}

// CloseSubscriptions marks the store closed for new subscriptions.
func (p *PostgresItemStore) CloseSubscriptions() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	p.subs = make(map[uuid.UUID]map[*itemSubscription]struct{})
}

var _ ItemStore = (*PostgresItemStore)(nil)
