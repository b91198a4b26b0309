package repository

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"coursehunter/internal/ratelimit"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

// historyRepository implements PurchaseHistoryRepository using PostgreSQL,
// storing each buyer's purchases as a JSONB array.
type historyRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewPurchaseHistoryRepository creates a new PostgreSQL-backed purchase history repository.
func NewPurchaseHistoryRepository(pool *pgxpool.Pool, logger zerolog.Logger) PurchaseHistoryRepository {
	return &historyRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "purchase_history").Logger(),
	}
}

// Get returns the entry for handle.
func (r *historyRepository) Get(ctx context.Context, handle string) (*ratelimit.Entry, error) {
	query := `
		SELECT buyer_handle, purchases, cooldown_until
		FROM purchase_history
		WHERE buyer_handle = $1
	`

	entry, err := scanEntry(r.pool.QueryRow(ctx, query, handle))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		r.logger.Error().Err(err).Str("buyer", handle).Msg("failed to query purchase history")
		return nil, fmt.Errorf("failed to query purchase history: %w", err)
	}

	return entry, nil
}

// Save upserts an entry.
func (r *historyRepository) Save(ctx context.Context, entry ratelimit.Entry) error {
	purchases, err := marshalPurchases(entry.Purchases)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO purchase_history (buyer_handle, purchases, cooldown_until, updated_at)
		VALUES ($1, $2::jsonb, $3, $4)
		ON CONFLICT (buyer_handle) DO UPDATE
		SET purchases = EXCLUDED.purchases,
			cooldown_until = EXCLUDED.cooldown_until,
			updated_at = EXCLUDED.updated_at
	`

	_, err = r.pool.Exec(ctx, query, entry.BuyerHandle, purchases, entry.CooldownUntil, time.Now().UTC())
	if err != nil {
		r.logger.Error().Err(err).Str("buyer", entry.BuyerHandle).Msg("failed to save purchase history")
		return fmt.Errorf("failed to save purchase history: %w", err)
	}

	return nil
}

// ListCoolingDown returns entries whose cooldown field is set.
func (r *historyRepository) ListCoolingDown(ctx context.Context) ([]ratelimit.Entry, error) {
	query := `
		SELECT buyer_handle, purchases, cooldown_until
		FROM purchase_history
		WHERE cooldown_until IS NOT NULL
		ORDER BY buyer_handle
	`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to query cooling down entries")
		return nil, fmt.Errorf("failed to query cooling down entries: %w", err)
	}
	defer rows.Close()

	var entries []ratelimit.Entry
	for rows.Next() {
		entry, err := scanEntry(rows)
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

// ClearExpiredCooldowns nulls cooldowns that ended before now.
func (r *historyRepository) ClearExpiredCooldowns(ctx context.Context, now time.Time) ([]string, error) {
	query := `
		UPDATE purchase_history
		SET cooldown_until = NULL, updated_at = $2
		WHERE cooldown_until IS NOT NULL AND cooldown_until < $1
		RETURNING buyer_handle
	`

	rows, err := r.pool.Query(ctx, query, now.UTC(), time.Now().UTC())
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to clear expired cooldowns")
		return nil, fmt.Errorf("failed to clear expired cooldowns: %w", err)
	}

	handles, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to read cleared handles")
		return nil, fmt.Errorf("failed to clear expired cooldowns: %w", err)
	}
	slices.Sort(handles)

	return handles, nil
}

func scanEntry(row pgx.Row) (*ratelimit.Entry, error) {
	var (
		entry ratelimit.Entry
		raw   []byte
	)
	if err := row.Scan(&entry.BuyerHandle, &raw, &entry.CooldownUntil); err != nil {
		return nil, err
	}

	purchases, err := unmarshalPurchases(raw)
	if err != nil {
		return nil, err
	}
	entry.Purchases = purchases
	return &entry, nil
}
