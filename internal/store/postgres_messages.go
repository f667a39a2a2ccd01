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

// PostgresMessageStore implements MessageStore over the message repository,
// with the same local-refresh-plus-bus-fanout pattern as the item store.
// The chat feed is global, so every subscription sees every change.
type PostgresMessageStore struct {
	repo   database.MessageRepositoryInterface
	bus    events.Bus
	logger *zap.Logger
	now    func() time.Time

	mu     sync.Mutex
	closed bool
	subs   map[*messageSubscription]struct{}
}

// NewPostgresMessageStore creates a message store over the given repository
// and change bus.
func NewPostgresMessageStore(repo database.MessageRepositoryInterface, bus events.Bus, logger *zap.Logger) *PostgresMessageStore {
	return &PostgresMessageStore{
		repo:   repo,
		bus:    bus,
		logger: logger,
		now:    time.Now,
		subs:   make(map[*messageSubscription]struct{}),
	}
}

type messageSubscription struct {
	store *PostgresMessageStore

	mu         sync.Mutex
	closed     bool
	onSnapshot func(messages []*models.Message)
}

func (s *messageSubscription) deliver(messages []*models.Message) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.onSnapshot(messages)
}

// Close cancels the subscription.
func (s *messageSubscription) Close() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	s.store.remove(s)
}

// Subscribe registers a live feed of the chat collection and pushes the
// current snapshot asynchronously.
func (p *PostgresMessageStore) Subscribe(ctx context.Context, onSnapshot func(messages []*models.Message)) (Subscription, error) {
	sub := &messageSubscription{store: p, onSnapshot: onSnapshot}

	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil, ErrClosed
	}
	p.subs[sub] = struct{}{}
	p.mu.Unlock()

	go func() {
		snapshotCtx := context.WithoutCancel(ctx)
		messages, err := p.repo.List(snapshotCtx)
		if err != nil {
			p.logger.Warn("message_snapshot_query_failed", zap.Error(err))
			return
		}
		sub.deliver(messages)
	}()

	return sub, nil
}

func (p *PostgresMessageStore) remove(sub *messageSubscription) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.subs, sub)
}

func (p *PostgresMessageStore) refreshAll(ctx context.Context) {
	p.mu.Lock()
	subs := make([]*messageSubscription, 0, len(p.subs))
	for sub := range p.subs {
		subs = append(subs, sub)
	}
	p.mu.Unlock()

	if len(subs) == 0 {
		return
	}

	messages, err := p.repo.List(ctx)
	if err != nil {
		p.logger.Warn("message_snapshot_query_failed", zap.Error(err))
		return
	}

	for _, sub := range subs {
		sub.deliver(messages)
	}
}

// Append persists a new message, assigning its creation time, and returns
// the store-assigned ID.
func (p *PostgresMessageStore) Append(ctx context.Context, msg *models.Message) (uuid.UUID, error) {
	msg.CreatedAt = p.now().UnixMilli()
	if err := p.repo.Create(ctx, msg); err != nil {
		return uuid.Nil, err
	}

	change := events.NewChange(events.EntityMessage, events.KindCreated, msg.ID, uuid.Nil)
	if err := p.bus.Publish(ctx, change); err != nil {
		p.logger.Warn("message_change_publish_failed", zap.Error(err))
	}
	p.refreshAll(ctx)

	return msg.ID, nil
}

// Run consumes the change bus and refreshes subscriptions for message
// changes made by other instances. It blocks until ctx is cancelled.
func (p *PostgresMessageStore) Run(ctx context.Context) error {
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
				p.logger.Warn("message_change_feed_error", zap.Error(err))
			}
		case change, ok := <-changes:
			if !ok {
				return nil
			}
			if change.Entity != events.EntityMessage {
				continue
			}
			refreshCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
			p.refreshAll(refreshCtx)
			cancel()
		}
	}
}

// CloseSubscriptions marks the store closed for new subscriptions.
func (p *PostgresMessageStore) CloseSubscriptions() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	p.subs = make(map[*messageSubscription]struct{})
}

var _ MessageStore = (*PostgresMessageStore)(nil)
