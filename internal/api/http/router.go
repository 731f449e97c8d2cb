package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/triage-engine/internal/api/http/handlers"
	"github.com/spec-kit/triage-engine/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Triage         *handlers.TriageHandler
	AuthMiddleware *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	api := app.Group("/api/v1", cfg.AuthMiddleware.Handle)
	api.Post("/tickets", cfg.Triage.CreateTicket)
	api.Get("/tickets", cfg.Triage.ListTickets)
	api.Get("/tickets/:id", cfg.Triage.GetTicket)
	api.Post("/tickets/:id/triage", cfg.Triage.TriageTicket)
}
