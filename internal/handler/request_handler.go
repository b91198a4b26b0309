package handler

import (
	"net/http"
	"time"

	"coursehunter/internal/model"
	"coursehunter/internal/service"
	"coursehunter/internal/session"

	"github.com/rs/zerolog"
)

// RequestHandler handles requests for courses missing from the catalog.
type RequestHandler struct {
	service service.RequestService
	store   session.Store
	now     func() time.Time
	logger  zerolog.Logger
}

// NewRequestHandler creates a new course request handler.
func NewRequestHandler(service service.RequestService, store session.Store, logger zerolog.Logger) *RequestHandler {
	return &RequestHandler{
		service: service,
		store:   store,
		now:     time.Now,
		logger:  logger.With().Str("handler", "course_request").Logger(),
	}
}

// Create handles POST /api/course-requests requests.
func (h *RequestHandler) Create(w http.ResponseWriter, r *http.Request) {
	state, err := h.store.Get(r)
	if err != nil {
		writeServiceError(w, err, h.logger)
		return
	}
	if state.BuyerHandle == "" {
		writeServiceError(w, model.ErrHandleRequired, h.logger)
		return
	}

	var req model.CourseRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeInvalidJSON(w, err, h.logger)
		return
	}

	if err := h.service.RequestCourse(r.Context(), state.BuyerHandle, &req, h.now()); err != nil {
		writeServiceError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]string{"status": "submitted"})
}
