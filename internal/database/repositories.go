package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/yeojun7429/portfolio-api/internal/models"
)

// ItemRepositoryInterface defines the interface for item repository operations
// This interface enables better testability by allowing mock implementations
type ItemRepositoryInterface interface {
	Create(ctx context.Context, item *models.Item) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Item, error)
	ListByOwner(ctx context.Context, owner uuid.UUID) ([]*models.Item, error)
	SetDone(ctx context.Context, id uuid.UUID, done bool, completedAt *int64) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// UserRepositoryInterface defines the interface for user repository operations
type UserRepositoryInterface interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
}

// MessageRepositoryInterface defines the interface for message repository operations
type MessageRepositoryInterface interface {
	Create(ctx context.Context, msg *models.Message) error
	List(ctx context.Context) ([]*models.Message, error)
}

// Ensure concrete types implement the interfaces
var (
	_ ItemRepositoryInterface    = (*ItemRepository)(nil)
	_ UserRepositoryInterface    = (*UserRepository)(nil)
	_ MessageRepositoryInterface = (*MessageRepository)(nil)
)
