package router

import (
	"net/http"

	"coursehunter/internal/handler"
	"coursehunter/internal/middleware"
	"coursehunter/internal/session"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
)

// Handlers groups the HTTP handlers mounted by New. Sessions and
// Authenticate guard the admin order routes.
type Handlers struct {
	Catalog      *handler.CatalogHandler
	Session      *handler.SessionHandler
	Order        *handler.OrderHandler
	Request      *handler.RequestHandler
	Admin        *handler.AdminHandler
	Sessions     session.Store
	Authenticate func(code string) error
}

// New creates a new HTTP router with all routes and middleware configured.
func New(h Handlers, logger zerolog.Logger) http.Handler {
	r := chi.NewRouter()

	// Apply middleware in order: Recovery -> RequestID -> Logging -> CORS
	r.Use(middleware.Recovery(logger))
	r.Use(chimiddleware.RequestID)
	r.Use(middleware.Logging(logger))
	r.Use(middleware.CORS)

	// Health check endpoint (no authentication required)
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status": "healthy"}`))
	})

	r.Route("/api", func(r chi.Router) {
		r.Get("/courses", h.Catalog.Search)
		r.Get("/courses/{id}", h.Catalog.GetByID)

		r.Get("/session", h.Session.Get)
		r.Delete("/session", h.Session.Forget)
		r.Post("/session/telegram", h.Session.SetTelegram)
		r.Delete("/session/telegram", h.Session.ClearTelegram)

		r.Post("/orders", h.Order.Purchase)
		r.Post("/course-requests", h.Request.Create)

		r.Route("/admin", func(r chi.Router) {
			r.Post("/unlock", h.Admin.Unlock)
			r.Post("/login", h.Admin.Login)
			r.Post("/logout", h.Admin.Logout)

			r.Group(func(r chi.Router) {
				r.Use(middleware.AdminAuth(h.Sessions, h.Authenticate, logger))

				r.Get("/orders", h.Admin.ListOrders)
				r.Post("/orders/{id}/fulfill", h.Admin.Fulfill)
				r.Delete("/orders/{id}", h.Admin.Delete)
			})
		})
	})

	return r
}
