package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/ignite/polite-popup/internal/config"
)

// SetupRoutes configures the router. All popup endpoints are anonymous and
// browser-facing, so CORS carries the configured site origins.
func SetupRoutes(h *Handlers, corsCfg config.CORSConfig) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)
	r.Use(middleware.RequestID)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   corsCfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Health check
	r.Get("/health", h.HandleHealth)

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/popup", func(r chi.Router) {
			r.Post("/trigger", h.HandleTrigger)
			r.Post("/scroll", h.HandleScroll)
			r.Get("/state", h.HandleState)
			r.Get("/beacon", h.HandleBeacon)
			r.Post("/subscribed", h.HandleSubscribed)
		})
		r.Get("/newsletter/preview", h.HandleNewsletterPreview)
	})

	return r
}
