package service

import (
	"context"
	"crypto/subtle"
	"fmt"
	"strings"
	"time"

	"coursehunter/internal/model"
	"coursehunter/internal/notify"
	"coursehunter/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// adminService implements AdminService.
type adminService struct {
	orderRepo  repository.OrderRepository
	sender     notify.Sender
	channelID  string
	accessCode string
	locks      *keyedMutex
	now        func() time.Time
	logger     zerolog.Logger
}

// NewAdminService creates a new admin service.
func NewAdminService(
	orderRepo repository.OrderRepository,
	sender notify.Sender,
	channelID string,
	accessCode string,
	logger zerolog.Logger,
) AdminService {
	return &adminService{
		orderRepo:  orderRepo,
		sender:     sender,
		channelID:  channelID,
		accessCode: accessCode,
		locks:      newKeyedMutex(),
		now:        time.Now,
		logger:     logger.With().Str("service", "admin").Logger(),
	}
}

// Authenticate compares code to the configured access code in constant time.
func (s *adminService) Authenticate(code string) error {
	if code == "" || subtle.ConstantTimeCompare([]byte(code), []byte(s.accessCode)) != 1 {
		s.logger.Warn().Msg("invalid admin access code")
		return model.ErrInvalidAccessCode
	}
	return nil
}

// ListOrders returns orders oldest first, optionally filtered by status.
func (s *adminService) ListOrders(ctx context.Context, status model.OrderStatus) ([]model.Order, error) {
	orders, err := s.orderRepo.List(ctx, status)
	if err != nil {
		s.logger.Error().Err(err).Str("status", string(status)).Msg("failed to list orders")
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	return orders, nil
}

// Fulfill sends the delivery message for a pending order, then marks it
// completed. If the message cannot be sent the order stays pending.
// Fulfilments of the same order run one at a time, so only one delivery
// message goes out per order.
func (s *adminService) Fulfill(ctx context.Context, id uuid.UUID, courseLink, customMessage string) (*model.Order, error) {
	courseLink = strings.TrimSpace(courseLink)
	if courseLink == "" {
		return nil, model.ErrCourseLinkRequired
	}

	unlock := s.locks.Lock(id.String())
	defer unlock()

	order, err := s.orderRepo.GetByID(ctx, id)
	if err != nil {
		s.logger.Error().Err(err).Str("order_id", id.String()).Msg("failed to get order")
		return nil, fmt.Errorf("failed to get order: %w", err)
	}
	if order == nil {
		return nil, model.ErrOrderNotFound
	}
	if order.Status == model.OrderStatusCompleted {
		return nil, model.ErrOrderCompleted
	}

	text := notify.CourseDeliveredMessage(order.ID, order.CourseTitle, order.BuyerHandle, courseLink, strings.TrimSpace(customMessage))
	if err := s.sender.Send(ctx, s.channelID, text); err != nil {
		s.logger.Error().Err(err).Str("order_id", id.String()).Msg("failed to send course link")
		return nil, fmt.Errorf("order %s: %w", id, model.ErrNotificationFailed)
	}

	now := s.now()
	if err := s.orderRepo.MarkCompleted(ctx, id, now); err != nil {
		s.logger.Error().Err(err).Str("order_id", id.String()).Msg("failed to mark order completed")
		return nil, err
	}

	order.Status = model.OrderStatusCompleted
	order.UpdatedAt = now
	order.CompletedAt = &now

	s.logger.Info().
		Str("order_id", id.String()).
		Str("buyer", order.BuyerHandle).
		Msg("order fulfilled")

	return order, nil
}

// DeleteOrder removes an order.
func (s *adminService) DeleteOrder(ctx context.Context, id uuid.UUID) error {
	if err := s.orderRepo.Delete(ctx, id); err != nil {
		return err
	}

	s.logger.Info().Str("order_id", id.String()).Msg("order deleted")

	return nil
}
