package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/deskline/helpdesk-service/internal/api/http/handlers"
	"github.com/deskline/helpdesk-service/internal/auth"
	"github.com/deskline/helpdesk-service/internal/domain"
)

// Addressee and assignee route groups. Both names of each pair serve the same role.
var (
	AddresseeGroups = []string{"/admin", "/manager"}
	AssigneeGroups  = []string{"/technician", "/staff"}
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	PathPrefix     string
	Health         *handlers.HealthHandler
	Users          *handlers.UsersHandler
	Tickets        *handlers.TicketsHandler
	AdminTickets   *handlers.AdminTicketsHandler
	StaffTickets   *handlers.StaffTicketsHandler
	AuthMiddleware *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	registerHealth(app.Group("/health"), cfg.Health)

	api := app.Group(cfg.PathPrefix)
	if cfg.PathPrefix != "" {
		registerHealth(api.Group("/health"), cfg.Health)
	}

	api.Post("/login", cfg.Users.Login)
	api.Get("/employees/find", cfg.Users.FindEmployee)
	api.Get("/admins", cfg.Users.ListAddressees)
	api.Get("/ip", cfg.Tickets.ClientIP)
	api.Post("/tickets", cfg.Tickets.Submit)

	for _, prefix := range AddresseeGroups {
		group := api.Group(prefix, cfg.AuthMiddleware.Handle, auth.RequireRole(domain.RoleAdmin))
		group.Get("/tickets", cfg.AdminTickets.List)
		group.Get("/tickets/counts", cfg.AdminTickets.Counts)
		group.Get("/tickets/:id", cfg.AdminTickets.Get)
		group.Patch("/tickets/:id/assign", cfg.AdminTickets.Assign)
		group.Patch("/tickets/:id/reject", cfg.AdminTickets.Reject)
		group.Delete("/tickets/:id/delete", cfg.AdminTickets.Delete)
		group.Delete("/tickets/:id", cfg.AdminTickets.Delete)
		group.Get("/technicians", cfg.Users.ListTechnicians)
		group.Get("/staff", cfg.Users.ListTechnicians)
	}

	for _, prefix := range AssigneeGroups {
		group := api.Group(prefix, cfg.AuthMiddleware.Handle, auth.RequireRole(domain.RoleTechnician))
		group.Get("/my-tickets", cfg.StaffTickets.List)
		group.Get("/my-tickets/counts", cfg.StaffTickets.Counts)
		group.Get("/tickets/:id", cfg.StaffTickets.Get)
		group.Patch("/tickets/:id/status", cfg.StaffTickets.UpdateStatus)
		group.Patch("/tickets/:id/fix", cfg.StaffTickets.Fix)
		group.Patch("/tickets/:id/reject", cfg.StaffTickets.Reject)
	}

	app.Use(NotFound)
}

func registerHealth(group fiber.Router, h *handlers.HealthHandler) {
	group.Get("", h.Health)
	group.Get("/ready", h.Ready)
	group.Get("/metrics", h.Metrics)
}
