package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"coursehunter/internal/model"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// sqliteTimeLayout is fixed width so text columns sort chronologically.
const sqliteTimeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// sqliteOrderRepository implements the OrderRepository interface using SQLite.
type sqliteOrderRepository struct {
	db     *sql.DB
	logger zerolog.Logger
}

// NewSQLiteOrderRepository creates a new SQLite-backed order repository.
func NewSQLiteOrderRepository(db *sql.DB, logger zerolog.Logger) OrderRepository {
	return &sqliteOrderRepository{
		db:     db,
		logger: logger.With().Str("repository", "order").Str("driver", "sqlite").Logger(),
	}
}

// Create inserts a new order.
func (r *sqliteOrderRepository) Create(ctx context.Context, order *model.Order) error {
	query := `
		INSERT INTO orders (` + orderColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.db.ExecContext(ctx, query,
		order.ID.String(),
		order.CourseID,
		order.CourseTitle,
		order.BuyerHandle,
		string(order.Status),
		formatTime(order.CreatedAt),
		formatTime(order.UpdatedAt),
		formatNullTime(order.CompletedAt),
	)
	if err != nil {
		r.logger.Error().
			Err(err).
			Str("order_id", order.ID.String()).
			Msg("failed to create order")
		return fmt.Errorf("failed to create order: %w", err)
	}

	r.logger.Debug().
		Str("order_id", order.ID.String()).
		Str("buyer", order.BuyerHandle).
		Msg("order created successfully")

	return nil
}

// GetByID retrieves an order by its ID.
func (r *sqliteOrderRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE id = ?`

	order, err := scanSQLiteOrder(r.db.QueryRowContext(ctx, query, id.String()))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			r.logger.Debug().Str("order_id", id.String()).Msg("order not found")
			return nil, nil
		}
		r.logger.Error().Err(err).Str("order_id", id.String()).Msg("failed to query order")
		return nil, fmt.Errorf("failed to query order: %w", err)
	}

	return order, nil
}

// List returns orders oldest first, optionally filtered by status.
func (r *sqliteOrderRepository) List(ctx context.Context, status model.OrderStatus) ([]model.Order, error) {
	query := `
		SELECT ` + orderColumns + `
		FROM orders
		WHERE (?1 = '' OR status = ?1)
		ORDER BY created_at, id
	`

	rows, err := r.db.QueryContext(ctx, query, string(status))
	if err != nil {
		r.logger.Error().Err(err).Str("status", string(status)).Msg("failed to query orders")
		return nil, fmt.Errorf("failed to query orders: %w", err)
	}
	defer rows.Close()

	orders := []model.Order{}
	for rows.Next() {
		order, err := scanSQLiteOrder(rows)
		if err != nil {
			r.logger.Error().Err(err).Msg("failed to scan order row")
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		orders = append(orders, *order)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error().Err(err).Msg("error iterating order rows")
		return nil, fmt.Errorf("error iterating orders: %w", err)
	}

	return orders, nil
}

// MarkCompleted moves a pending order to completed.
func (r *sqliteOrderRepository) MarkCompleted(ctx context.Context, id uuid.UUID, at time.Time) error {
	query := `
		UPDATE orders
		SET status = 'completed', completed_at = ?2, updated_at = ?2
		WHERE id = ?1 AND status = 'pending'
	`

	result, err := r.db.ExecContext(ctx, query, id.String(), formatTime(at))
	if err != nil {
		r.logger.Error().Err(err).Str("order_id", id.String()).Msg("failed to complete order")
		return fmt.Errorf("failed to complete order: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}

	if affected == 0 {
		existing, err := r.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if existing == nil {
			return model.ErrOrderNotFound
		}
		return model.ErrOrderCompleted
	}

	r.logger.Debug().Str("order_id", id.String()).Msg("order completed")

	return nil
}

// Delete removes an order.
func (r *sqliteOrderRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM orders WHERE id = ?`, id.String())
	if err != nil {
		r.logger.Error().Err(err).Str("order_id", id.String()).Msg("failed to delete order")
		return fmt.Errorf("failed to delete order: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if affected == 0 {
		return model.ErrOrderNotFound
	}

	r.logger.Debug().Str("order_id", id.String()).Msg("order deleted")

	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSQLiteOrder(row rowScanner) (*model.Order, error) {
	var (
		order       model.Order
		id          string
		status      string
		createdAt   string
		updatedAt   string
		completedAt sql.NullString
	)
	err := row.Scan(
		&id,
		&order.CourseID,
		&order.CourseTitle,
		&order.BuyerHandle,
		&status,
		&createdAt,
		&updatedAt,
		&completedAt,
	)
	if err != nil {
		return nil, err
	}

	if order.ID, err = uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("invalid order id %q: %w", id, err)
	}
	order.Status = model.OrderStatus(status)
	if order.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if order.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	if order.CompletedAt, err = parseNullTime(completedAt); err != nil {
		return nil, err
	}

	return &order, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(sqliteTimeLayout)
}

func formatNullTime(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: formatTime(*t), Valid: true}
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(sqliteTimeLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid timestamp %q: %w", s, err)
	}
	return t, nil
}

func parseNullTime(s sql.NullString) (*time.Time, error) {
	if !s.Valid {
		return nil, nil
	}
	t, err := parseTime(s.String)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
