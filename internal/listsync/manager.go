package listsync

import (
	"sync"

	"github.com/google/uuid"
	"github.com/yeojun7429/portfolio-api/internal/models"
	"github.com/yeojun7429/portfolio-api/internal/store"
	"go.uber.org/zap"
)

// Manager keeps one synchronizer per signed-in user. A synchronizer is
// armed on first use and torn down on Drop (sign-out).
type Manager struct {
	store  store.ItemStore
	logger *zap.Logger

	mu     sync.Mutex
	byUser map[uuid.UUID]*Synchronizer
}

// NewManager creates an empty manager.
func NewManager(st store.ItemStore, logger *zap.Logger) *Manager {
	return &Manager{
		store:  st,
		logger: logger,
		byUser: make(map[uuid.UUID]*Synchronizer),
	}
}

// Get returns the user's synchronizer, creating and arming one on first
// use.
func (m *Manager) Get(user *models.User) *Synchronizer {
	m.mu.Lock()
	if s, ok := m.byUser[user.ID]; ok {
		m.mu.Unlock()
		return s
	}
	s := New(m.store, m.logger)
	m.byUser[user.ID] = s
	m.mu.Unlock()

	s.OnSessionChanged(user)
	m.logger.Info("synchronizer_armed", zap.String("user_id", user.ID.String()))
	return s
}

// Drop tears down the user's synchronizer, closing its subscription and
// clearing its list. A Drop for a user with no synchronizer is a no-op.
func (m *Manager) Drop(userID uuid.UUID) {
	m.mu.Lock()
	s, ok := m.byUser[userID]
	if ok {
		delete(m.byUser, userID)
	}
	m.mu.Unlock()

	if !ok {
		return
	}
	s.OnSessionChanged(nil)
	m.logger.Info("synchronizer_dropped", zap.String("user_id", userID.String()))
}

// Close tears down every synchronizer, for shutdown.
func (m *Manager) Close() {
	m.mu.Lock()
	all := make([]*Synchronizer, 0, len(m.byUser))
	for _, s := range m.byUser {
		all = append(all, s)
	}
	m.byUser = make(map[uuid.UUID]*Synchronizer)
	m.mu.Unlock()

	for _, s := range all {
		s.OnSessionChanged(nil)
	}
}
