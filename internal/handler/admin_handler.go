package handler

import (
	"net/http"

	"coursehunter/internal/model"
	"coursehunter/internal/service"
	"coursehunter/internal/session"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// OrderListResponse is the body of the admin order listing.
type OrderListResponse struct {
	Count  int           `json:"count"`
	Orders []model.Order `json:"orders"`
}

// AdminHandler handles operator HTTP requests.
type AdminHandler struct {
	service service.AdminService
	store   session.Store
	logger  zerolog.Logger
}

// NewAdminHandler creates a new admin handler.
func NewAdminHandler(service service.AdminService, store session.Store, logger zerolog.Logger) *AdminHandler {
	return &AdminHandler{
		service: service,
		store:   store,
		logger:  logger.With().Str("handler", "admin").Logger(),
	}
}

// Unlock handles POST /api/admin/unlock requests. A valid code reveals the admin tab.
func (h *AdminHandler) Unlock(w http.ResponseWriter, r *http.Request) {
	h.withAccessCode(w, r, func(state *session.State) {
		state.ShowAdminTab = true
	})
}

// Login handles POST /api/admin/login requests.
func (h *AdminHandler) Login(w http.ResponseWriter, r *http.Request) {
	h.withAccessCode(w, r, func(state *session.State) {
		state.IsAdmin = true
	})
}

// Logout handles POST /api/admin/logout requests.
func (h *AdminHandler) Logout(w http.ResponseWriter, r *http.Request) {
	state, err := h.store.Get(r)
	if err != nil {
		writeServiceError(w, err, h.logger)
		return
	}
	state.IsAdmin = false

	if err := h.store.Save(w, r, state); err != nil {
		writeServiceError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, adminStatus(state))
}

// ListOrders handles GET /api/admin/orders?status= requests.
func (h *AdminHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	status, err := model.ParseOrderStatus(r.URL.Query().Get("status"))
	if err != nil {
		writeServiceError(w, err, h.logger)
		return
	}

	orders, err := h.service.ListOrders(r.Context(), status)
	if err != nil {
		writeServiceError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, OrderListResponse{Count: len(orders), Orders: orders})
}

// Fulfill handles POST /api/admin/orders/{id}/fulfill requests.
func (h *AdminHandler) Fulfill(w http.ResponseWriter, r *http.Request) {
	id, ok := h.orderID(w, r)
	if !ok {
		return
	}

	var req model.FulfillRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeInvalidJSON(w, err, h.logger)
		return
	}

	order, err := h.service.Fulfill(r.Context(), id, req.CourseLink, req.CustomMessage)
	if err != nil {
		writeServiceError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, order)
}

// Delete handles DELETE /api/admin/orders/{id} requests.
func (h *AdminHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := h.orderID(w, r)
	if !ok {
		return
	}

	if err := h.service.DeleteOrder(r.Context(), id); err != nil {
		writeServiceError(w, err, h.logger)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *AdminHandler) withAccessCode(w http.ResponseWriter, r *http.Request, grant func(state *session.State)) {
	var req model.AccessCodeRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeInvalidJSON(w, err, h.logger)
		return
	}

	if err := h.service.Authenticate(req.AccessCode); err != nil {
		writeServiceError(w, err, h.logger)
		return
	}

	state, err := h.store.Get(r)
	if err != nil {
		writeServiceError(w, err, h.logger)
		return
	}
	grant(&state)

	if err := h.store.Save(w, r, state); err != nil {
		writeServiceError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, adminStatus(state))
}

func (h *AdminHandler) orderID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, model.ErrOrderNotFound, h.logger)
		return uuid.Nil, false
	}
	return id, true
}

func adminStatus(state session.State) model.SessionResponse {
	return model.SessionResponse{
		Username:     state.BuyerHandle,
		IsAdmin:      state.IsAdmin,
		ShowAdminTab: state.ShowAdminTab,
		HasPurchased: state.HasPurchased,
	}
}
