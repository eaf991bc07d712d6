package router

import (
	"github.com/labstack/echo/v4"

	"github.com/ticketminer/box-office/internal/handler"
	"github.com/ticketminer/box-office/internal/middleware"
)

// RegisterAdmin registers the administrator endpoints under /v1/admin.
// All routes require a valid JWT carrying the ADMIN role.
func RegisterAdmin(e *echo.Echo, h *handler.AdminHandler, jwtSecret string) {
	g := e.Group(
		"/v1/admin",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(middleware.RoleAdmin),
	)

	g.POST("/events", h.CreateEvent)
	g.PATCH("/events/:id", h.UpdateEvent)
	g.PUT("/events/:id/seats", h.SetSeats)
	g.DELETE("/events/:id", h.DeleteEvent)
	g.GET("/events/:id/statistics", h.Statistics)
	g.GET("/events/:id/fees", h.EventFees)
	g.GET("/fees", h.RegistryFees)
	g.GET("/customers", h.ListCustomers)
	g.POST("/save", h.Save)
}
