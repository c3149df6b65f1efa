package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/campus-helpdesk/internal/api/http/handlers"
	"github.com/spec-kit/campus-helpdesk/internal/auth"
	"github.com/spec-kit/campus-helpdesk/internal/domain"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Auth           *handlers.AuthHandler
	Tickets        *handlers.TicketsHandler
	Activities     *handlers.ActivitiesHandler
	Users          *handlers.UsersHandler
	Notifications  *handlers.NotificationsHandler
	Events         *handlers.EventsHandler
	Catalog        *handlers.CatalogHandler
	AuthMiddleware *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	app.Get("/catalog", cfg.Catalog.Get)

	authGroup := app.Group("/auth")
	authGroup.Post("/register", cfg.Auth.Register)
	authGroup.Post("/login", cfg.Auth.Login)
	authGroup.Get("/me", cfg.AuthMiddleware.Handle, cfg.Auth.Me)

	tickets := app.Group("/tickets", cfg.AuthMiddleware.Handle)
	tickets.Post("", cfg.Tickets.CreateTicket)
	tickets.Get("", cfg.Tickets.ListTickets)
	tickets.Get("/:id", cfg.Tickets.GetTicket)
	tickets.Patch("/:id", cfg.Tickets.PatchTicket)
	tickets.Get("/:id/comments", cfg.Activities.ListComments)
	tickets.Post("/:id/comments", cfg.Activities.AddComment)
	tickets.Get("/:id/feedback", cfg.Activities.GetFeedback)
	tickets.Post("/:id/feedback", cfg.Activities.SubmitFeedback)

	users := app.Group("/users", cfg.AuthMiddleware.Handle)
	users.Get("/preferences", cfg.Users.GetPreferences)
	users.Patch("/preferences", cfg.Users.PatchPreferences)
	users.Get("", auth.RequireAdmin(), cfg.Users.ListUsers)
	users.Get("/:id", cfg.Users.GetUser)
	users.Patch("/:id", cfg.Users.PatchUser)
	users.Patch("/:id/role", auth.RequireAdmin(), cfg.Users.PatchRole)

	admin := app.Group("/admin", cfg.AuthMiddleware.Handle, auth.RequireRole(domain.RoleAdmin))
	admin.Get("/notifications", cfg.Notifications.List)

	app.Get("/events", cfg.AuthMiddleware.Handle, cfg.Events.Stream)
}
