package http

import (
	nethttp "net/http"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"

	"github.com/studiodesk/studio-desk/internal/api/http/handlers"
	"github.com/studiodesk/studio-desk/internal/auth"
	"github.com/studiodesk/studio-desk/internal/domain"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Auth           *handlers.AuthHandler
	Tickets        *handlers.TicketsHandler
	Reference      *handlers.ReferenceHandler
	Analytics      *handlers.AnalyticsHandler
	Templates      *handlers.TemplatesHandler
	AuthMiddleware *auth.AuthMiddleware
	Metrics        nethttp.Handler
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	if cfg.Metrics != nil {
		app.Get("/metrics", adaptor.HTTPHandler(cfg.Metrics))
	}

	app.Post("/auth/login", cfg.Auth.Login)

	api := app.Group("/api", cfg.AuthMiddleware.Handle, auth.RequireRole(), handlers.SessionMiddleware())

	api.Get("/tickets", cfg.Tickets.ListTickets)
	api.Get("/tickets/stats", cfg.Tickets.Stats)
	api.Get("/tickets/export", auth.RequireRole(domain.UserRoleLead, domain.UserRoleAdmin), cfg.Tickets.Export)

	api.Get("/categories", cfg.Reference.Categories)
	api.Get("/studios", cfg.Reference.Studios)
	api.Get("/users", cfg.Reference.Users)

	api.Get("/analytics", cfg.Analytics.Snapshot)

	templates := api.Group("/templates")
	templates.Get("/", cfg.Templates.List)
	templates.Get("/categories", cfg.Templates.Categories)
	templates.Post("/", cfg.Templates.Create)
	templates.Post("/reset", cfg.Templates.Reset)
	templates.Post("/:id/duplicate", cfg.Templates.Duplicate)
	templates.Post("/:id/use", cfg.Templates.Use)
	templates.Delete("/:id", cfg.Templates.Delete)
}
