/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route
  definitions. This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. Logger:     Request logging
  2. Recoverer:  Panic recovery (500 instead of crash)
  3. RequestID:  Unique ID per request for tracing
  4. CORS:       Cross-origin requests for frontend

ROUTE GROUPS:
  /api/members/*   Members, allowance review, payouts
  /api/chores/*    Chores and completions
  /api/schedule    Resolved per-day assignments
  /api/series/*    Task-series views and mutations

SECURITY NOTE:
  No authentication middleware currently. All endpoints are public;
  front this with the household's reverse proxy.

SEE ALSO:
  - handlers.go: Handler implementations
  - cmd/server/main.go: Server startup
*/
package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173", "http://localhost:8080"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	r.Route("/api", func(r chi.Router) {
		r.Route("/members", func(r chi.Router) {
			r.Get("/", h.ListMembers)
			r.Post("/", h.CreateMember)
			r.Get("/{id}/allowance", h.GetAllowanceReview)
			r.Post("/{id}/allowance/payout", h.SettleAllowance)
			r.Get("/{id}/payouts", h.ListPayouts)
		})

		r.Route("/chores", func(r chi.Router) {
			r.Get("/", h.ListChores)
			r.Post("/", h.CreateChore)
			r.Post("/{id}/completions", h.RecordCompletion)
		})

		r.Get("/schedule", h.GetSchedule)

		r.Route("/series", func(r chi.Router) {
			r.Get("/", h.ListSeries)
			r.Get("/{id}/tasks", h.GetSeriesTasks)
			r.Post("/{id}/tasks/{taskID}", h.SetTask)
		})
	})

	return r
}
