package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"

	"github.com/residence-ops/residence-tickets/internal/api/http/handlers"
	"github.com/residence-ops/residence-tickets/internal/auth"
	"github.com/residence-ops/residence-tickets/internal/observability"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Auth           *handlers.AuthHandler
	Tickets        *handlers.TicketsHandler
	Comments       *handlers.CommentsHandler
	Users          *handlers.UsersHandler
	AuthMiddleware *auth.AuthMiddleware
	Gate           *auth.Gate
	Metrics        *observability.Metrics
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	if cfg.Metrics != nil {
		app.Get("/metrics", adaptor.HTTPHandler(cfg.Metrics.Handler()))
	}

	authGroup := app.Group("/auth")
	authGroup.Post("/login", cfg.Auth.Login)
	authGroup.Post("/logout", cfg.Auth.Logout)

	// Authentication is attached per route so unknown paths still 404.
	route := func(op auth.Operation, h fiber.Handler) []fiber.Handler {
		return []fiber.Handler{cfg.AuthMiddleware.Handle, auth.RequireOperation(cfg.Gate, op), h}
	}

	app.Get("/tickets", route(auth.OpTicketRead, cfg.Tickets.ListTickets)...)
	app.Post("/tickets", route(auth.OpTicketCreate, cfg.Tickets.CreateTicket)...)
	app.Get("/tickets/:id", route(auth.OpTicketRead, cfg.Tickets.GetTicket)...)
	app.Patch("/tickets/:id", route(auth.OpTicketUpdate, cfg.Tickets.UpdateTicket)...)
	app.Get("/tickets/:id/comments", route(auth.OpCommentRead, cfg.Comments.ListComments)...)
	app.Post("/tickets/:id/comments", route(auth.OpCommentCreate, cfg.Comments.CreateComment)...)

	app.Get("/users", route(auth.OpUserRead, cfg.Users.ListUsers)...)
	app.Get("/users/:id", route(auth.OpUserRead, cfg.Users.GetUser)...)
	app.Get("/me", route(auth.OpUserRead, cfg.Users.Me)...)
}
