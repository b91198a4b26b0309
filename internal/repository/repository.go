package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"coursehunter/internal/model"
	"coursehunter/internal/ratelimit"

	"github.com/google/uuid"
)

// OrderRepository defines the interface for order data access operations.
type OrderRepository interface {
	// Create inserts a new order.
	Create(ctx context.Context, order *model.Order) error

	// GetByID retrieves an order by its ID. It returns nil, nil when the order does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*model.Order, error)

	// List returns orders oldest first, optionally filtered by status ("" for all).
	List(ctx context.Context, status model.OrderStatus) ([]model.Order, error)

	// MarkCompleted moves a pending order to completed.
	// Returns model.ErrOrderNotFound or model.ErrOrderCompleted.
	MarkCompleted(ctx context.Context, id uuid.UUID, at time.Time) error

	// Delete removes an order. Returns model.ErrOrderNotFound if it does not exist.
	Delete(ctx context.Context, id uuid.UUID) error
}

// PurchaseHistoryRepository persists rate limiter entries, one per buyer handle.
type PurchaseHistoryRepository interface {
	// Get returns the entry for handle, or nil, nil when none exists.
	Get(ctx context.Context, handle string) (*ratelimit.Entry, error)

	// Save upserts an entry.
	Save(ctx context.Context, entry ratelimit.Entry) error

	// ListCoolingDown returns entries whose cooldown field is set.
	ListCoolingDown(ctx context.Context) ([]ratelimit.Entry, error)

	// ClearExpiredCooldowns nulls every cooldown ending strictly before now
	// in a single statement and returns the affected handles in sorted order.
	// Purchases are never written.
	ClearExpiredCooldowns(ctx context.Context, now time.Time) ([]string, error)
}

func marshalPurchases(purchases []ratelimit.Purchase) (string, error) {
	if purchases == nil {
		purchases = []ratelimit.Purchase{}
	}
	data, err := json.Marshal(purchases)
	if err != nil {
		return "", fmt.Errorf("failed to marshal purchases: %w", err)
	}
	return string(data), nil
}

func unmarshalPurchases(data []byte) ([]ratelimit.Purchase, error) {
	var purchases []ratelimit.Purchase
	if len(data) == 0 {
		return purchases, nil
	}
	if err := json.Unmarshal(data, &purchases); err != nil {
		return nil, fmt.Errorf("failed to unmarshal purchases: %w", err)
	}
	return purchases, nil
}
