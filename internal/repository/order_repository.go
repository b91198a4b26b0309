package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"coursehunter/internal/model"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

// orderRepository implements the OrderRepository interface using PostgreSQL.
type orderRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewOrderRepository creates a new PostgreSQL-backed order repository.
func NewOrderRepository(pool *pgxpool.Pool, logger zerolog.Logger) OrderRepository {
	return &orderRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "order").Logger(),
	}
}

const orderColumns = `id, course_id, course_title, buyer_handle, status, created_at, updated_at, completed_at`

// Create inserts a new order.
func (r *orderRepository) Create(ctx context.Context, order *model.Order) error {
	query := `
		INSERT INTO orders (` + orderColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := r.pool.Exec(ctx, query,
		order.ID,
		order.CourseID,
		order.CourseTitle,
		order.BuyerHandle,
		string(order.Status),
		order.CreatedAt,
		order.UpdatedAt,
		order.CompletedAt,
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
func (r *orderRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE id = $1`

	order, err := scanOrder(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.Debug().Str("order_id", id.String()).Msg("order not found")
			return nil, nil
		}
		r.logger.Error().Err(err).Str("order_id", id.String()).Msg("failed to query order")
		return nil, fmt.Errorf("failed to query order: %w", err)
	}

	return order, nil
}

// List returns orders oldest first, optionally filtered by status.
func (r *orderRepository) List(ctx context.Context, status model.OrderStatus) ([]model.Order, error) {
	query := `
		SELECT ` + orderColumns + `
		FROM orders
		WHERE ($1 = '' OR status = $1)
		ORDER BY created_at, id
	`

	rows, err := r.pool.Query(ctx, query, string(status))
	if err != nil {
		r.logger.Error().Err(err).Str("status", string(status)).Msg("failed to query orders")
		return nil, fmt.Errorf("failed to query orders: %w", err)
	}
	defer rows.Close()

	orders := []model.Order{}
	for rows.Next() {
		order, err := scanOrder(rows)
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
func (r *orderRepository) MarkCompleted(ctx context.Context, id uuid.UUID, at time.Time) error {
	query := `
		UPDATE orders
		SET status = 'completed', completed_at = $2, updated_at = $2
		WHERE id = $1 AND status = 'pending'
	`

	tag, err := r.pool.Exec(ctx, query, id, at)
	if err != nil {
		r.logger.Error().Err(err).Str("order_id", id.String()).Msg("failed to complete order")
		return fmt.Errorf("failed to complete order: %w", err)
	}

	if tag.RowsAffected() == 0 {
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
func (r *orderRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM orders WHERE id = $1`, id)
	if err != nil {
		r.logger.Error().Err(err).Str("order_id", id.String()).Msg("failed to delete order")
		return fmt.Errorf("failed to delete order: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return model.ErrOrderNotFound
	}

	r.logger.Debug().Str("order_id", id.String()).Msg("order deleted")

	return nil
}

func scanOrder(row pgx.Row) (*model.Order, error) {
	var (
		order  model.Order
		status string
	)
	err := row.Scan(
		&order.ID,
		&order.CourseID,
		&order.CourseTitle,
		&order.BuyerHandle,
		&status,
		&order.CreatedAt,
		&order.UpdatedAt,
		&order.CompletedAt,
	)
	if err != nil {
		return nil, err
	}
	order.Status = model.OrderStatus(status)
	return &order, nil
}
