package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/yeojun7429/portfolio-api/internal/models"
)

// ErrNotFound is returned when a record does not exist.
var ErrNotFound = sql.ErrNoRows

// ItemRepository handles item database operations
type ItemRepository struct {
	db *DB
}

// NewItemRepository creates a new item repository
func NewItemRepository(db *DB) *ItemRepository {
	return &ItemRepository{db: db}
}

// Create inserts a new item. The caller supplies every field except ID,
// which is assigned here.
func (r *ItemRepository) Create(ctx context.Context, item *models.Item) error {
	if item.ID == uuid.Nil {
		item.ID = uuid.New()
	}

	query := `
		INSERT INTO items (id, owner, label, done, created_at, completed_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	var completedAt sql.NullInt64
	if item.CompletedAt != nil {
		completedAt = sql.NullInt64{Int64: *item.CompletedAt, Valid: true}
	}

	_, err := r.db.ExecContext(ctx, query,
		item.ID,
		item.Owner,
		item.Label,
		item.Done,
		item.CreatedAt,
		completedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create item: %w", err)
	}

	return nil
}

// GetByID retrieves an item by ID
func (r *ItemRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Item, error) {
	item := &models.Item{}
	var completedAt sql.NullInt64

	query := `
		SELECT id, owner, label, done, created_at, completed_at
		FROM items
		WHERE id = $1
	`

	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&item.ID,
		&item.Owner,
		&item.Label,
		&item.Done,
		&item.CreatedAt,
		&completedAt,
	)

	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("item not found: %w", err)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get item: %w", err)
	}

	if completedAt.Valid {
		item.CompletedAt = &completedAt.Int64
	}

	return item, nil
}

// ListByOwner retrieves all items for an owner, newest first.
func (r *ItemRepository) ListByOwner(ctx context.Context, owner uuid.UUID) ([]*models.Item, error) {
	query := `
		SELECT id, owner, label, done, created_at, completed_at
		FROM items
		WHERE owner = $1
		ORDER BY created_at DESC
	`

	rows, err := r.db.QueryContext(ctx, query, owner)
	if err != nil {
		return nil, fmt.Errorf("failed to query items: %w", err)
	}
	defer rows.Close()

	var items []*models.Item
	for rows.Next() {
		item := &models.Item{}
		var completedAt sql.NullInt64

		err := rows.Scan(
			&item.ID,
			&item.Owner,
			&item.Label,
			&item.Done,
			&item.CreatedAt,
			&completedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan item: %w", err)
		}

		if completedAt.Valid {
			item.CompletedAt = &completedAt.Int64
		}

		items = append(items, item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating items: %w", err)
	}

	return items, nil
}

// SetDone updates the done flag and completion timestamp of an item. These
// are the only mutable fields; everything else is write-once.
func (r *ItemRepository) SetDone(ctx context.Context, id uuid.UUID, done bool, completedAt *int64) error {
	query := `
		UPDATE items
		SET done = $2, completed_at = $3
		WHERE id = $1
	`

	var completed sql.NullInt64
	if completedAt != nil {
		completed = sql.NullInt64{Int64: *completedAt, Valid: true}
	}

	result, err := r.db.ExecContext(ctx, query, id, done, completed)
	if err != nil {
		return fmt.Errorf("failed to update item: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("item not found: %w", ErrNotFound)
	}

	return nil
}

// Delete deletes an item by ID
func (r *ItemRepository) Delete(ctx context.Context, id uuid.UUID) error {
	query := `DELETE FROM items WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete item: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("item not found: %w", ErrNotFound)
	}

	return nil
}
