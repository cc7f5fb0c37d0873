package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"

	"github.com/spec-kit/queue-service/internal/api/http/handlers"
	"github.com/spec-kit/queue-service/internal/auth"
	"github.com/spec-kit/queue-service/internal/domain"
	"github.com/spec-kit/queue-service/internal/observability"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Auth           *handlers.AuthHandler
	Users          *handlers.UsersHandler
	Sectors        *handlers.SectorsHandler
	Kiosk          *handlers.KioskHandler
	Tickets        *handlers.TicketsHandler
	Display        *handlers.DisplayHandler
	Reports        *handlers.ReportsHandler
	AuthMiddleware *auth.AuthMiddleware
	Metrics        *observability.Metrics
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	if cfg.Metrics != nil {
		app.Get("/metrics", adaptor.HTTPHandler(cfg.Metrics.Handler()))
	}

	authn := cfg.AuthMiddleware.Handle
	can := auth.RequirePermission

	authGroup := app.Group("/auth")
	authGroup.Post("/login", cfg.Auth.Login)
	authGroup.Post("/logout", authn, cfg.Auth.Logout)
	authGroup.Get("/me", authn, cfg.Auth.Me)
	authGroup.Post("/password/change", authn, cfg.Auth.ChangePassword)

	kiosk := app.Group("/kiosk", authn, can(domain.PermIssueTickets))
	kiosk.Get("/sectors", cfg.Kiosk.Sectors)
	kiosk.Post("/tickets", cfg.Kiosk.Issue)

	sectors := app.Group("/sectors", authn)
	sectors.Get("/", cfg.Sectors.List)
	sectors.Post("/", can(domain.PermManageSectors), cfg.Sectors.Create)
	sectors.Patch("/:id", can(domain.PermManageSectors), cfg.Sectors.Update)
	sectors.Delete("/:id", can(domain.PermManageSectors), cfg.Sectors.Delete)
	sectors.Post("/:id/call-next", can(domain.PermServeTickets), cfg.Tickets.CallNext)

	tickets := app.Group("/tickets", authn, can(domain.PermServeTickets))
	tickets.Get("/", cfg.Tickets.ListTickets)
	tickets.Get("/:id", cfg.Tickets.GetTicket)
	tickets.Post("/:id/status", cfg.Tickets.UpdateStatus)
	tickets.Post("/:id/call", cfg.Tickets.CallTicket)
	tickets.Post("/:id/complete", cfg.Tickets.CompleteTicket)
	tickets.Post("/:id/forward", can(domain.PermForwardTickets), cfg.Tickets.ForwardTicket)
	tickets.Post("/:id/notes", cfg.Tickets.AddNote)
	tickets.Put("/:id/tags", cfg.Tickets.UpdateTags)

	app.Get("/display/public", cfg.Display.PublicBoard)
	app.Get("/display", authn, can(domain.PermViewDisplayPanel), cfg.Display.Board)

	reports := app.Group("/reports", authn, can(domain.PermViewReports))
	reports.Get("/overview", cfg.Reports.Overview)
	reports.Get("/sectors", cfg.Reports.Sectors)
	reports.Get("/users", cfg.Reports.Users)
	reports.Get("/timeline", cfg.Reports.Timeline)
	reports.Get("/daily", cfg.Reports.Daily)
	reports.Get("/dashboard", cfg.Reports.Dashboard)
	reports.Get("/logs", cfg.Reports.Logs)

	users := app.Group("/users", authn, can(domain.PermManageUsers))
	users.Get("/", cfg.Users.List)
	users.Post("/", cfg.Users.Create)
	users.Patch("/:id", cfg.Users.Update)
	users.Delete("/:id", cfg.Users.Delete)
}
