package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
	"github.com/rs/zerolog"
)

// RouterConfig holds the router-level knobs.
type RouterConfig struct {
	RateLimitPerMinute int
	Metrics            http.Handler
}

// NewRouter builds the chi router for the booking API.
func NewRouter(h *BookingHandler, cfg RouterConfig, lg zerolog.Logger) http.Handler {
	r := chi.NewRouter()

	// Global middleware stack
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(Logger(lg))
	r.Use(CORS)

	r.Get("/health", HealthCheck)
	if cfg.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", cfg.Metrics)
	}

	r.Group(func(r chi.Router) {
		if cfg.RateLimitPerMinute > 0 {
			r.Use(httprate.LimitByIP(cfg.RateLimitPerMinute, time.Minute))
		}

		r.Route("/customers", func(r chi.Router) {
			r.Post("/", h.RegisterCustomer)
			r.Get("/", h.ListCustomers)
		})

		r.Route("/events", func(r chi.Router) {
			r.Post("/", h.RegisterEvent)
			r.Get("/", h.ListEvents)
			r.Get("/{id}", h.GetEvent)
			r.Get("/{id}/seats", h.AvailableSeats)
			r.Get("/{id}/booking", h.CustomerBooking)
		})

		r.Post("/bookings", h.CreateBooking)

		r.Route("/blacklist", func(r chi.Router) {
			r.Post("/", h.AddToBlacklist)
			r.Delete("/", h.RemoveFromBlacklist)
		})

		r.Post("/snapshots", h.SaveSnapshot)
	})

	return r
}
