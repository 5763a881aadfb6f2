// internal/infra/httpapi/server.go
package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	corslib "github.com/rs/cors"

	"padel_notifier/internal/infra/config"
)

// NewRouter builds the HTTP surface. metrics may be nil.
func NewRouter(cfg *config.HTTPConfig, h *Handler, metrics http.Handler) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	c := corslib.New(corslib.Options{
		AllowedOrigins: cfg.CORSAllowOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", apiKeyHeader},
	})
	r.Use(c.Handler)

	if cfg.RateLimitPerSec > 0 {
		r.Use(RateLimit(cfg.RateLimitPerSec, cfg.RateLimitBurst))
	}

	r.Get("/health", h.Health)
	if metrics != nil {
		r.Handle("/metrics", metrics)
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(RequireAPIKey(cfg.APIKey))

		r.Get("/locations/{locationID}/bookings", h.ListBookings)
		r.Get("/locations/{locationID}/availability", h.Availability)

		r.Post("/bookings", h.CreateBooking)
		r.Patch("/bookings/{bookingID}", h.UpdateBooking)

		r.Post("/notifications", h.CreateNotification)

		r.Put("/users/{userID}/devices/{platform}", h.RegisterDevice)
		r.Delete("/users/{userID}/devices/{platform}", h.UnregisterDevice)
		r.Post("/users/{userID}/telegram-link", h.IssueTelegramLink)
	})

	return r
}
