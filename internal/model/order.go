package model

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// OrderStatus is the fulfilment state of an order.
type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusCompleted OrderStatus = "completed"
)

// ParseOrderStatus parses a status filter. An empty string means "any status".
func ParseOrderStatus(s string) (OrderStatus, error) {
	switch OrderStatus(s) {
	case "", OrderStatusPending, OrderStatusCompleted:
		return OrderStatus(s), nil
	default:
		return "", ErrInvalidStatus
	}
}

// Order represents a buyer's request for a course, awaiting operator fulfilment.
// CourseTitle is a snapshot of the catalog title at order time.
type Order struct {
	ID          uuid.UUID   `json:"id" db:"id"`
	CourseID    int         `json:"courseId" db:"course_id"`
	CourseTitle string      `json:"courseTitle" db:"course_title"`
	BuyerHandle string      `json:"buyerHandle" db:"buyer_handle"`
	Status      OrderStatus `json:"status" db:"status"`
	CreatedAt   time.Time   `json:"createdAt" db:"created_at"`
	UpdatedAt   time.Time   `json:"updatedAt" db:"updated_at"`
	CompletedAt *time.Time  `json:"completedAt,omitempty" db:"completed_at"`
}

// NewOrder creates a pending order. IDs are UUIDv7 so they sort by creation time.
func NewOrder(courseID int, courseTitle, buyerHandle string, now time.Time) (*Order, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("failed to generate order ID: %w", err)
	}

	return &Order{
		ID:          id,
		CourseID:    courseID,
		CourseTitle: courseTitle,
		BuyerHandle: buyerHandle,
		Status:      OrderStatusPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

// PurchaseRequest represents the request payload for ordering a course.
type PurchaseRequest struct {
	CourseID int `json:"courseId"`
}

// PurchaseResponse represents a successfully placed order.
// CooldownUntil is set when this purchase pushed the buyer over the rate limit.
type PurchaseResponse struct {
	Order         *Order     `json:"order"`
	CooldownUntil *time.Time `json:"cooldownUntil,omitempty"`
}

// CooldownResponse is returned when a buyer is blocked by the purchase rate limit.
type CooldownResponse struct {
	Error             string `json:"error"`
	Message           string `json:"message"`
	RetryAfterSeconds int64  `json:"retryAfterSeconds"`
	RetryAfterMinutes int64  `json:"retryAfterMinutes"`
}

// FulfillRequest carries the download link an operator sends for an order.
type FulfillRequest struct {
	CourseLink    string `json:"courseLink"`
	CustomMessage string `json:"customMessage,omitempty"`
}

// CourseRequest asks the operator to add a course missing from the catalog.
type CourseRequest struct {
	CourseName     string `json:"courseName"`
	AdditionalInfo string `json:"additionalInfo,omitempty"`
}
