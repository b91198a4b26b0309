package handler

import (
	"math"
	"net/http"
	"time"

	"coursehunter/internal/model"
	"coursehunter/internal/service"
	"coursehunter/internal/session"

	"github.com/rs/zerolog"
)

// SessionHandler manages the buyer's identity and per-browser flags.
type SessionHandler struct {
	store  session.Store
	orders service.OrderService
	now    func() time.Time
	logger zerolog.Logger
}

// NewSessionHandler creates a new session handler.
func NewSessionHandler(store session.Store, orders service.OrderService, logger zerolog.Logger) *SessionHandler {
	return &SessionHandler{
		store:  store,
		orders: orders,
		now:    time.Now,
		logger: logger.With().Str("handler", "session").Logger(),
	}
}

// Get handles GET /api/session requests.
func (h *SessionHandler) Get(w http.ResponseWriter, r *http.Request) {
	state, err := h.store.Get(r)
	if err != nil {
		writeServiceError(w, err, h.logger)
		return
	}
	h.respond(w, r, http.StatusOK, state)
}

// SetTelegram handles POST /api/session/telegram requests.
func (h *SessionHandler) SetTelegram(w http.ResponseWriter, r *http.Request) {
	var req model.SessionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeInvalidJSON(w, err, h.logger)
		return
	}

	handle, err := model.NormalizeHandle(req.Username)
	if err != nil {
		writeServiceError(w, err, h.logger)
		return
	}

	state, err := h.store.Get(r)
	if err != nil {
		writeServiceError(w, err, h.logger)
		return
	}
	state.BuyerHandle = handle

	if err := h.store.Save(w, r, state); err != nil {
		writeServiceError(w, err, h.logger)
		return
	}

	h.logger.Debug().Str("buyer", handle).Msg("telegram username set")
	h.respond(w, r, http.StatusOK, state)
}

// ClearTelegram handles DELETE /api/session/telegram requests.
func (h *SessionHandler) ClearTelegram(w http.ResponseWriter, r *http.Request) {
	state, err := h.store.Get(r)
	if err != nil {
		writeServiceError(w, err, h.logger)
		return
	}
	state.BuyerHandle = ""

	if err := h.store.Save(w, r, state); err != nil {
		writeServiceError(w, err, h.logger)
		return
	}

	h.respond(w, r, http.StatusOK, state)
}

// Forget handles DELETE /api/session requests. It drops the whole cookie,
// so the buyer handle and any admin login are gone.
func (h *SessionHandler) Forget(w http.ResponseWriter, r *http.Request) {
	if err := h.store.Clear(w, r); err != nil {
		writeServiceError(w, err, h.logger)
		return
	}

	h.logger.Debug().Msg("session cleared")
	w.WriteHeader(http.StatusNoContent)
}

func (h *SessionHandler) respond(w http.ResponseWriter, r *http.Request, status int, state session.State) {
	remaining, err := h.orders.CooldownRemaining(r.Context(), state.BuyerHandle, h.now())
	if err != nil {
		writeServiceError(w, err, h.logger)
		return
	}

	writeJSON(w, status, model.SessionResponse{
		Username:                 state.BuyerHandle,
		IsAdmin:                  state.IsAdmin,
		ShowAdminTab:             state.ShowAdminTab,
		HasPurchased:             state.HasPurchased,
		OnCooldown:               remaining > 0,
		CooldownRemainingSeconds: ceilSeconds(remaining),
	})
}

func ceilSeconds(d time.Duration) int64 {
	return int64(math.Ceil(d.Seconds()))
}

func ceilMinutes(d time.Duration) int64 {
	return int64(math.Ceil(d.Minutes()))
}
