package service

import (
	"context"
	"fmt"
	"time"

	"coursehunter/internal/model"
	"coursehunter/internal/notify"
	"coursehunter/internal/ratelimit"
	"coursehunter/internal/repository"

	"github.com/rs/zerolog"
)

// OrderNotifications configures where order notifications go.
type OrderNotifications struct {
	Sender     notify.Sender
	ChannelID  string
	PriceLabel string
}

// orderService implements OrderService.
type orderService struct {
	orderRepo   repository.OrderRepository
	historyRepo repository.PurchaseHistoryRepository
	catalog     CatalogService
	limiter     *ratelimit.Limiter
	notifier    OrderNotifications
	locks       *keyedMutex
	logger      zerolog.Logger
}

// NewOrderService creates a new order service.
func NewOrderService(
	orderRepo repository.OrderRepository,
	historyRepo repository.PurchaseHistoryRepository,
	catalog CatalogService,
	limiter *ratelimit.Limiter,
	notifier OrderNotifications,
	logger zerolog.Logger,
) OrderService {
	return &orderService{
		orderRepo:   orderRepo,
		historyRepo: historyRepo,
		catalog:     catalog,
		limiter:     limiter,
		notifier:    notifier,
		locks:       newKeyedMutex(),
		logger:      logger.With().Str("service", "order").Logger(),
	}
}

// Purchase places an order. Requests for the same buyer are serialised.
//
// A buyer on cooldown gets a Denied outcome and a nil error. When the
// operator notification fails the order is kept and the outcome is returned
// together with an error wrapping model.ErrNotificationFailed.
func (s *orderService) Purchase(ctx context.Context, handle string, courseID int, now time.Time) (*PurchaseOutcome, error) {
	handle, err := model.NormalizeHandle(handle)
	if err != nil {
		return nil, err
	}

	unlock := s.locks.Lock(handle)
	defer unlock()

	history, err := s.loadHistory(ctx, handle)
	if err != nil {
		return nil, err
	}

	if s.limiter.IsOnCooldown(history, handle, now) {
		remaining := s.limiter.RemainingCooldown(history, handle, now)
		s.logger.Info().
			Str("buyer", handle).
			Dur("retry_after", remaining).
			Msg("purchase denied, buyer is cooling down")
		return &PurchaseOutcome{Denied: true, RetryAfter: remaining}, nil
	}

	course, err := s.catalog.GetByID(ctx, courseID)
	if err != nil {
		return nil, err
	}

	order, err := model.NewOrder(course.ID, course.Title, handle, now)
	if err != nil {
		return nil, err
	}

	if err := s.orderRepo.Create(ctx, order); err != nil {
		s.logger.Error().Err(err).Str("buyer", handle).Int("course_id", courseID).Msg("failed to create order")
		return nil, fmt.Errorf("failed to create order: %w", err)
	}

	cooldownUntil := s.limiter.RecordPurchase(history, handle, course.ID, now)
	if err := s.historyRepo.Save(ctx, history[handle]); err != nil {
		// The order is already stored, so the purchase goes ahead uncounted.
		s.logger.Error().Err(err).Str("buyer", handle).Msg("failed to save purchase history")
	}

	if cooldownUntil != nil {
		s.logger.Info().
			Str("buyer", handle).
			Time("cooldown_until", *cooldownUntil).
			Msg("purchase limit reached, cooldown armed")
	}

	outcome := &PurchaseOutcome{Order: order, CooldownUntil: cooldownUntil}

	text := notify.OrderPlacedMessage(order.ID, order.CourseTitle, handle, s.notifier.PriceLabel, now)
	if err := s.notifier.Sender.Send(ctx, s.notifier.ChannelID, text); err != nil {
		s.logger.Error().
			Err(err).
			Str("order_id", order.ID.String()).
			Msg("failed to notify operator of new order")
		return outcome, fmt.Errorf("order %s: %w", order.ID, model.ErrNotificationFailed)
	}

	s.logger.Info().
		Str("order_id", order.ID.String()).
		Str("buyer", handle).
		Int("course_id", course.ID).
		Msg("order placed successfully")

	return outcome, nil
}

// CooldownRemaining returns how long handle is still blocked, or zero.
func (s *orderService) CooldownRemaining(ctx context.Context, handle string, now time.Time) (time.Duration, error) {
	if handle == "" {
		return 0, nil
	}

	history, err := s.loadHistory(ctx, handle)
	if err != nil {
		return 0, err
	}

	return s.limiter.RemainingCooldown(history, handle, now), nil
}

func (s *orderService) loadHistory(ctx context.Context, handle string) (ratelimit.History, error) {
	entry, err := s.historyRepo.Get(ctx, handle)
	if err != nil {
		s.logger.Error().Err(err).Str("buyer", handle).Msg("failed to load purchase history")
		return nil, fmt.Errorf("failed to load purchase history: %w", err)
	}

	history := ratelimit.History{}
	if entry != nil {
		history[handle] = *entry
	}
	return history, nil
}
