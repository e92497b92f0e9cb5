package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// SetupRoutes configures all routes. limiter is applied to POST /register
// only; pass nil when rate limiting is disabled.
func SetupRoutes(h *Handlers, limiter func(http.Handler) http.Handler) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/", h.Home)
	r.Get("/health", h.HealthCheck)

	if limiter != nil {
		r.With(limiter).Post("/register", h.Register)
	} else {
		r.Post("/register", h.Register)
	}

	// Tracking resources. All three always answer 200 with their fixed
	// payload, whatever the identifier.
	r.Get("/track/{trackingID}", h.TrackPixel)
	r.Get("/track.css/{trackingID}", h.TrackStylesheet)
	r.Get("/confirm-open/{trackingID}", h.ConfirmOpen)

	r.Get("/dashboard", h.Dashboard)

	return r
}
