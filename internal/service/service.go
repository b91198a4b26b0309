package service

import (
	"context"
	"time"

	"coursehunter/internal/catalog"
	"coursehunter/internal/model"

	"github.com/google/uuid"
)

// CatalogService defines read operations over the course catalog.
type CatalogService interface {
	// Search returns courses ranked against query. A blank query returns the whole catalog.
	Search(ctx context.Context, query string) []catalog.Course

	// GetByID retrieves a single course by ID.
	GetByID(ctx context.Context, id int) (*catalog.Course, error)
}

// OrderService defines the buyer side of ordering.
type OrderService interface {
	// Purchase places an order for courseID on behalf of handle, subject to the rate limit.
	Purchase(ctx context.Context, handle string, courseID int, now time.Time) (*PurchaseOutcome, error)

	// CooldownRemaining returns how long handle is still blocked, or zero.
	CooldownRemaining(ctx context.Context, handle string, now time.Time) (time.Duration, error)
}

// AdminService defines operator actions.
type AdminService interface {
	// Authenticate checks an operator access code.
	Authenticate(code string) error

	// ListOrders returns orders oldest first, optionally filtered by status.
	ListOrders(ctx context.Context, status model.OrderStatus) ([]model.Order, error)

	// Fulfill sends the course link for a pending order and marks it completed.
	Fulfill(ctx context.Context, id uuid.UUID, courseLink, customMessage string) (*model.Order, error)

	// DeleteOrder removes an order.
	DeleteOrder(ctx context.Context, id uuid.UUID) error
}

// RequestService forwards requests for courses missing from the catalog.
type RequestService interface {
	RequestCourse(ctx context.Context, handle string, req *model.CourseRequest, now time.Time) error
}

// PurchaseOutcome is the result of a purchase attempt. When Denied is set the
// buyer is cooling down and no order was created.
type PurchaseOutcome struct {
	Order         *model.Order
	CooldownUntil *time.Time
	Denied        bool
	RetryAfter    time.Duration
}
