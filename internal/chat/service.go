// Package chat implements the global message feed: every signed-in user
// posts into one shared, append-only timeline.
package chat

import (
	"context"
	"errors"
	"fmt"

	"github.com/yeojun7429/portfolio-api/internal/models"
	"github.com/yeojun7429/portfolio-api/internal/store"
	"github.com/yeojun7429/portfolio-api/internal/validation"
	"go.uber.org/zap"
)

// MaxMessageLength bounds a single chat message.
const MaxMessageLength = 500

var (
	// ErrEmptyMessage is returned when a message is blank after
	// sanitization.
	ErrEmptyMessage = errors.New("message is empty")

	// ErrMessageTooLong is returned when a message exceeds
	// MaxMessageLength.
	ErrMessageTooLong = errors.New("message is too long")
)

// Service posts to and follows the shared chat feed.
type Service struct {
	store  store.MessageStore
	logger *zap.Logger
}

// NewService creates a chat service over the given message store.
func NewService(st store.MessageStore, logger *zap.Logger) *Service {
	return &Service{store: st, logger: logger}
}

// Send sanitizes and appends a message to the feed. The store assigns the
// timestamp, so ordering is decided server-side, not by the sender's
// clock.
func (s *Service) Send(ctx context.Context, user *models.User, text string) (*models.Message, error) {
	text = validation.SanitizeText(text)
	if text == "" {
		return nil, ErrEmptyMessage
	}
	if len(text) > MaxMessageLength {
		return nil, ErrMessageTooLong
	}

	msg := &models.Message{
		UserID:   user.ID,
		UserName: displayName(user),
		Text:     text,
	}

	id, err := s.store.Append(ctx, msg)
	if err != nil {
		s.logger.Error("chat_append_failed",
			zap.String("user_id", user.ID.String()),
			zap.Error(err))
		return nil, fmt.Errorf("failed to send message: %w", err)
	}
	msg.ID = id

	return msg, nil
}

// Subscribe follows the feed; the callback receives the full message list
// on every change, newest first.
func (s *Service) Subscribe(ctx context.Context, onSnapshot func(messages []*models.Message)) (store.Subscription, error) {
	sub, err := s.store.Subscribe(ctx, onSnapshot)
	if err != nil {
		return nil, fmt.Errorf("failed to subscribe to chat feed: %w", err)
	}
	return sub, nil
}

// displayName prefers the profile name and falls back to the email
// address.
func displayName(user *models.User) string {
	if user.Name != "" {
		return user.Name
	}
	return user.Email
}
