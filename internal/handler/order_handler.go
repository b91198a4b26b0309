package handler

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"coursehunter/internal/model"
	"coursehunter/internal/service"
	"coursehunter/internal/session"

	"github.com/rs/zerolog"
)

// OrderHandler handles order-related HTTP requests.
type OrderHandler struct {
	service service.OrderService
	store   session.Store
	now     func() time.Time
	logger  zerolog.Logger
}

// NewOrderHandler creates a new order handler.
func NewOrderHandler(service service.OrderService, store session.Store, logger zerolog.Logger) *OrderHandler {
	return &OrderHandler{
		service: service,
		store:   store,
		now:     time.Now,
		logger:  logger.With().Str("handler", "order").Logger(),
	}
}

// Purchase handles POST /api/orders requests.
func (h *OrderHandler) Purchase(w http.ResponseWriter, r *http.Request) {
	state, err := h.store.Get(r)
	if err != nil {
		writeServiceError(w, err, h.logger)
		return
	}
	if state.BuyerHandle == "" {
		writeServiceError(w, model.ErrHandleRequired, h.logger)
		return
	}

	var req model.PurchaseRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeInvalidJSON(w, err, h.logger)
		return
	}
	if req.CourseID == 0 {
		writeError(w, http.StatusBadRequest, model.ErrCodeMissingField, "courseId is required", h.logger)
		return
	}

	outcome, err := h.service.Purchase(r.Context(), state.BuyerHandle, req.CourseID, h.now())
	if err != nil {
		if errors.Is(err, model.ErrNotificationFailed) && outcome != nil && outcome.Order != nil {
			h.markPurchased(w, r, state)
			h.logger.Warn().
				Str("order_id", outcome.Order.ID.String()).
				Msg("order stored but operator notification failed")
			writeJSON(w, http.StatusBadGateway, model.ErrorResponse{
				Error:   model.ErrCodeNotificationFailed,
				Message: model.ErrNotificationFailed.Message,
				OrderID: outcome.Order.ID.String(),
			})
			return
		}
		writeServiceError(w, err, h.logger)
		return
	}

	if outcome.Denied {
		w.Header().Set("Retry-After", strconv.FormatInt(ceilSeconds(outcome.RetryAfter), 10))
		minutes := ceilMinutes(outcome.RetryAfter)
		writeJSON(w, http.StatusTooManyRequests, model.CooldownResponse{
			Error:             model.ErrCodePurchaseLimitReached,
			Message:           fmt.Sprintf("You have reached the purchase limit. Please try again in %d minutes.", minutes),
			RetryAfterSeconds: ceilSeconds(outcome.RetryAfter),
			RetryAfterMinutes: minutes,
		})
		return
	}

	h.markPurchased(w, r, state)

	writeJSON(w, http.StatusCreated, model.PurchaseResponse{
		Order:         outcome.Order,
		CooldownUntil: outcome.CooldownUntil,
	})
}

func (h *OrderHandler) markPurchased(w http.ResponseWriter, r *http.Request, state session.State) {
	if state.HasPurchased {
		return
	}
	state.HasPurchased = true
	if err := h.store.Save(w, r, state); err != nil {
		h.logger.Error().Err(err).Msg("failed to save session after purchase")
	}
}
