package database

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// UserActivity tracks per-user write activity, maintained by the worker
// from the change-event feed.
type UserActivity struct {
	UserID      uuid.UUID `json:"user_id"`
	LastWriteAt time.Time `json:"last_write_at"`
	WriteCount  int64     `json:"write_count"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// UserActivityRepository handles user activity database operations
type UserActivityRepository struct {
	db *DB
}

// NewUserActivityRepository creates a new user activity repository
func NewUserActivityRepository(db *DB) *UserActivityRepository {
	return &UserActivityRepository{db: db}
}

// GetByUserID retrieves user activity by user ID
func (r *UserActivityRepository) GetByUserID(ctx context.Context, userID uuid.UUID) (*UserActivity, error) {
	activity := &UserActivity{}

	query := `
		SELECT user_id, last_write_at, write_count, created_at, updated_at
		FROM user_activity
		WHERE user_id = $1
	`

	err := r.db.QueryRowContext(ctx, query, userID).Scan(
		&activity.UserID,
		&activity.LastWriteAt,
		&activity.WriteCount,
		&activity.CreatedAt,
		&activity.UpdatedAt,
	)

	if err != nil {
		return nil, fmt.Errorf("failed to get user activity: %w", err)
	}

	return activity, nil
}

// RecordWrite bumps the write counter and last-write timestamp for a user.
func (r *UserActivityRepository) RecordWrite(ctx context.Context, userID uuid.UUID, at time.Time) error {
	query := `
		INSERT INTO user_activity (user_id, last_write_at, write_count, created_at, updated_at)
		VALUES ($1, $2, 1, $3, $3)
		ON CONFLICT (user_id) DO UPDATE
		SET last_write_at = GREATEST(user_activity.last_write_at, EXCLUDED.last_write_at),
		    write_count = user_activity.write_count + 1,
		    updated_at = EXCLUDED.updated_at
	`

	now := time.Now()
	if _, err := r.db.ExecContext(ctx, query, userID, at, now); err != nil {
		return fmt.Errorf("failed to record user activity: %w", err)
	}

	return nil
}
