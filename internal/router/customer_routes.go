package router

import (
	"github.com/labstack/echo/v4"

	"github.com/ticketminer/box-office/internal/handler"
	"github.com/ticketminer/box-office/internal/middleware"
)

// RegisterCustomer registers customer-scoped endpoints under /v1. All
// routes require a valid JWT and the CUSTOMER role. The rate limiter,
// when non-nil, throttles purchase sessions per customer.
func RegisterCustomer(e *echo.Echo, h *handler.CustomerHandler, jwtSecret string, rate echo.MiddlewareFunc) {
	g := e.Group(
		"/v1",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(middleware.RoleCustomer),
	)

	purchase := []echo.MiddlewareFunc{}
	if rate != nil {
		purchase = append(purchase, rate)
	}
	g.POST("/events/:id/purchase", h.Purchase, purchase...)

	g.GET("/tickets", h.MyTickets)
	g.POST("/tickets/:id/return", h.ReturnSeat)
	g.DELETE("/tickets/:id", h.CancelTicket)
}
