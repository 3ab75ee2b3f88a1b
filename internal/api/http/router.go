package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/jira-gateway/internal/api/http/handlers"
	"github.com/spec-kit/jira-gateway/internal/auth"
	"github.com/spec-kit/jira-gateway/internal/ratelimit"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Tickets        *handlers.TicketsHandler
	Webhook        *handlers.WebhookHandler
	AuthMiddleware *auth.APIKeyMiddleware
	RateLimit      *ratelimit.Middleware
}

// RegisterRoutes wires HTTP routes. Health probes bypass the rate limiter;
// everything else is admitted through it first, then the access gate for the
// Jira-facing endpoints.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	limited := app.Group("", cfg.RateLimit.Handle)
	limited.Post("/webhook", cfg.Webhook.Receive)

	protected := limited.Group("", cfg.AuthMiddleware.Handle)
	protected.Post("/generate", cfg.Tickets.CreateTickets)
	protected.Get("/issue-types", cfg.Tickets.IssueTypes)
}
