package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

const postgresSchema = `
	CREATE TABLE IF NOT EXISTS orders (
		id UUID PRIMARY KEY,
		course_id INTEGER NOT NULL,
		course_title TEXT NOT NULL,
		buyer_handle TEXT NOT NULL,
		status TEXT NOT NULL CHECK (status IN ('pending', 'completed')),
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL,
		completed_at TIMESTAMPTZ
	);

	CREATE INDEX IF NOT EXISTS idx_orders_status_created ON orders (status, created_at);
	CREATE INDEX IF NOT EXISTS idx_orders_buyer_handle ON orders (buyer_handle);

	CREATE TABLE IF NOT EXISTS purchase_history (
		buyer_handle TEXT PRIMARY KEY,
		purchases JSONB NOT NULL DEFAULT '[]'::jsonb,
		cooldown_until TIMESTAMPTZ,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);

	CREATE INDEX IF NOT EXISTS idx_purchase_history_cooldown
		ON purchase_history (cooldown_until) WHERE cooldown_until IS NOT NULL;
`

const sqliteSchema = `
	CREATE TABLE IF NOT EXISTS orders (
		id TEXT PRIMARY KEY,
		course_id INTEGER NOT NULL,
		course_title TEXT NOT NULL,
		buyer_handle TEXT NOT NULL,
		status TEXT NOT NULL CHECK (status IN ('pending', 'completed')),
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL,
		completed_at TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_orders_status_created ON orders (status, created_at);
	CREATE INDEX IF NOT EXISTS idx_orders_buyer_handle ON orders (buyer_handle);

	CREATE TABLE IF NOT EXISTS purchase_history (
		buyer_handle TEXT PRIMARY KEY,
		purchases TEXT NOT NULL DEFAULT '[]',
		cooldown_until TEXT,
		updated_at TEXT NOT NULL
	);
`

// MigratePostgres creates the orders and purchase_history tables if missing.
func MigratePostgres(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, postgresSchema); err != nil {
		return fmt.Errorf("failed to migrate postgres schema: %w", err)
	}
	return nil
}

// MigrateSQLite creates the orders and purchase_history tables if missing.
func MigrateSQLite(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		return fmt.Errorf("failed to migrate sqlite schema: %w", err)
	}
	return nil
}
