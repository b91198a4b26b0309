package handler

import (
	"net/http"
	"strconv"

	"coursehunter/internal/catalog"
	"coursehunter/internal/model"
	"coursehunter/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

// CourseListResponse is the body of a catalog search.
type CourseListResponse struct {
	Query   string           `json:"query"`
	Count   int              `json:"count"`
	Courses []catalog.Course `json:"courses"`
}

// CatalogHandler handles catalog HTTP requests.
type CatalogHandler struct {
	service service.CatalogService
	logger  zerolog.Logger
}

// NewCatalogHandler creates a new catalog handler.
func NewCatalogHandler(service service.CatalogService, logger zerolog.Logger) *CatalogHandler {
	return &CatalogHandler{
		service: service,
		logger:  logger.With().Str("handler", "catalog").Logger(),
	}
}

// Search handles GET /api/courses?q= requests.
func (h *CatalogHandler) Search(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	courses := h.service.Search(r.Context(), query)

	writeJSON(w, http.StatusOK, CourseListResponse{
		Query:   query,
		Count:   len(courses),
		Courses: courses,
	})
}

// GetByID handles GET /api/courses/{id} requests.
func (h *CatalogHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, model.ErrCodeMissingField, "course ID must be an integer", h.logger)
		return
	}

	course, err := h.service.GetByID(r.Context(), id)
	if err != nil {
		writeServiceError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, course)
}
