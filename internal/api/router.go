// Package api assembles the chi router for the control plane.
package api

import (
	"net/http"

	"github.com/aurahome/aura/internal/api/handlers"
	"github.com/aurahome/aura/internal/api/middleware"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// NewRouter wires all routes and middleware.
func NewRouter(h *handlers.Handlers) http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Telemetry)
	r.Use(chimw.Recoverer)
	r.Use(chimw.Compress(5))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		MaxAge:         300,
	}))

	r.Get("/health", h.Health)
	r.Get("/version", h.Version)

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/assessments", h.CreateAssessment)
		r.Post("/actions", h.ApplyActions)

		r.Route("/home", func(r chi.Router) {
			r.Get("/state", h.GetHomeState)
			r.Post("/reset", h.ResetSystem)
		})

		r.Route("/homeowners", func(r chi.Router) {
			r.Get("/", h.ListHomeowners)
			r.Post("/", h.RegisterHomeowner)
		})

		r.Route("/pipeline", func(r chi.Router) {
			r.Post("/run", h.RunPipeline)
			r.Post("/run-with-calls", h.RunPipelineWithCalls)
		})
	})

	r.Post("/webhooks/telephony", h.TelephonyWebhook)

	return r
}
