package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"slices"
	"time"

	"coursehunter/internal/ratelimit"

	"github.com/rs/zerolog"
)

// sqliteHistoryRepository implements PurchaseHistoryRepository using SQLite,
// storing each buyer's purchases as JSON text.
type sqliteHistoryRepository struct {
	db     *sql.DB
	logger zerolog.Logger
}

// NewSQLitePurchaseHistoryRepository creates a new SQLite-backed purchase history repository.
func NewSQLitePurchaseHistoryRepository(db *sql.DB, logger zerolog.Logger) PurchaseHistoryRepository {
	return &sqliteHistoryRepository{
		db:     db,
		logger: logger.With().Str("repository", "purchase_history").Str("driver", "sqlite").Logger(),
	}
}

// Get returns the entry for handle.
func (r *sqliteHistoryRepository) Get(ctx context.Context, handle string) (*ratelimit.Entry, error) {
	query := `
		SELECT buyer_handle, purchases, cooldown_until
		FROM purchase_history
		WHERE buyer_handle = ?
	`

	entry, err := scanSQLiteEntry(r.db.QueryRowContext(ctx, query, handle))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		r.logger.Error().Err(err).Str("buyer", handle).Msg("failed to query purchase history")
		return nil, fmt.Errorf("failed to query purchase history: %w", err)
	}

	return entry, nil
}

// Save upserts an entry.
func (r *sqliteHistoryRepository) Save(ctx context.Context, entry ratelimit.Entry) error {
	purchases, err := marshalPurchases(entry.Purchases)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO purchase_history (buyer_handle, purchases, cooldown_until, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (buyer_handle) DO UPDATE
		SET purchases = excluded.purchases,
			cooldown_until = excluded.cooldown_until,
			updated_at = excluded.updated_at
	`

	_, err = r.db.ExecContext(ctx, query,
		entry.BuyerHandle,
		purchases,
		formatNullTime(entry.CooldownUntil),
		formatTime(time.Now()),
	)
	if err != nil {
		r.logger.Error().Err(err).Str("buyer", entry.BuyerHandle).Msg("failed to save purchase history")
		return fmt.Errorf("failed to save purchase history: %w", err)
	}

	return nil
}

// ListCoolingDown returns entries whose cooldown field is set.
func (r *sqliteHistoryRepository) ListCoolingDown(ctx context.Context) ([]ratelimit.Entry, error) {
	query := `
		SELECT buyer_handle, purchases, cooldown_until
		FROM purchase_history
		WHERE cooldown_until IS NOT NULL
		ORDER BY buyer_handle
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to query cooling down entries")
		return nil, fmt.Errorf("failed to query cooling down entries: %w", err)
	}
	defer rows.Close()

	var entries []ratelimit.Entry
	for rows.Next() {
		entry, err := scanSQLiteEntry(rows)
		if err != nil {
			r.logger.Error().Err(err).Msg("failed to scan purchase history row")
			return nil, fmt.Errorf("failed to scan purchase history: %w", err)
		}
		entries = append(entries, *entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating purchase history: %w", err)
	}

	return entries, nil
}

// ClearExpiredCooldowns nulls cooldowns that ended before now. Timestamps
// are fixed width UTC text, so the string comparison orders by time.
func (r *sqliteHistoryRepository) ClearExpiredCooldowns(ctx context.Context, now time.Time) ([]string, error) {
	query := `
		UPDATE purchase_history
		SET cooldown_until = NULL, updated_at = ?
		WHERE cooldown_until IS NOT NULL AND cooldown_until < ?
		RETURNING buyer_handle
	`

	rows, err := r.db.QueryContext(ctx, query, formatTime(time.Now()), formatTime(now))
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to clear expired cooldowns")
		return nil, fmt.Errorf("failed to clear expired cooldowns: %w", err)
	}
	defer rows.Close()

	var handles []string
	for rows.Next() {
		var handle string
		if err := rows.Scan(&handle); err != nil {
			return nil, fmt.Errorf("failed to scan cleared handle: %w", err)
		}
		handles = append(handles, handle)
	}
	if err := rows.Err(); err != nil {
		r.logger.Error().Err(err).Msg("failed to clear expired cooldowns")
		return nil, fmt.Errorf("failed to clear expired cooldowns: %w", err)
	}
	slices.Sort(handles)

	return handles, nil
}

func scanSQLiteEntry(row rowScanner) (*ratelimit.Entry, error) {
	var (
		entry    ratelimit.Entry
		raw      string
		cooldown sql.NullString
	)
	if err := row.Scan(&entry.BuyerHandle, &raw, &cooldown); err != nil {
		return nil, err
	}

	purchases, err := unmarshalPurchases([]byte(raw))
	if err != nil {
		return nil, err
	}
	entry.Purchases = purchases

	if entry.CooldownUntil, err = parseNullTime(cooldown); err != nil {
		return nil, err
	}

	return &entry, nil
}
