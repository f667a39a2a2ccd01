package database

import (
	"context"
	"fmt"
)

// schema holds the idempotent table definitions. Timestamps on items and
// messages are stored as epoch milliseconds, matching the wire shape.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id UUID PRIMARY KEY,
		email TEXT NOT NULL UNIQUE,
		name TEXT NOT NULL DEFAULT '',
		password_hash TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS items (
		id UUID PRIMARY KEY,
		owner UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		label TEXT NOT NULL,
		done BOOLEAN NOT NULL DEFAULT FALSE,
		created_at BIGINT NOT NULL,
		completed_at BIGINT
	)`,
	`CREATE INDEX IF NOT EXISTS idx_items_owner_created_at
		ON items (owner, created_at DESC)`,
	`CREATE TABLE IF NOT EXISTS messages (
		id UUID PRIMARY KEY,
		user_id UUID NOT NULL,
		user_name TEXT NOT NULL,
		text TEXT NOT NULL,
		created_at BIGINT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_messages_created_at
		ON messages (created_at DESC)`,
	`CREATE TABLE IF NOT EXISTS user_activity (
		user_id UUID PRIMARY KEY,
		last_write_at TIMESTAMPTZ NOT NULL,
		write_count BIGINT NOT NULL DEFAULT 0,
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL
	)`,
}

// EnsureSchema creates any missing tables and indexes.
func (db *DB) EnsureSchema(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply schema statement: %w", err)
		}
	}
	return nil
}
