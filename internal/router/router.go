package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ticketminer/box-office/internal/handler"
	"github.com/ticketminer/box-office/internal/middleware"
)

// RegisterRoutes registers routes that do not require authentication:
// the health check used by load balancers and the Prometheus scrape
// endpoint.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
}

// RegisterAuth registers the authentication routes. Unauthenticated
// operations live under /v1/auth, while /v1/me requires a valid access
// token of either role.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string) {
	g := e.Group("/v1/auth")
	g.POST("/login", a.Login)

	auth := e.Group("/v1")
	auth.Use(middleware.JWTAuth(jwtSecret))
	auth.Use(middleware.RequireRole(middleware.RoleCustomer, middleware.RoleAdmin))
	auth.GET("/me", a.Me)
}

// RegisterPublic registers the unauthenticated browse endpoints so that
// guests can inspect events and remaining seats before logging in. The
// cache middleware, when non-nil, serves repeated reads from Redis.
func RegisterPublic(e *echo.Echo, p *handler.PublicHandler, cache echo.MiddlewareFunc) {
	mws := make([]echo.MiddlewareFunc, 0, 1)
	if cache != nil {
		mws = append(mws, cache)
	}
	e.GET("/v1/events", p.ListEvents, mws...)
	e.GET("/v1/events/:id", p.GetEvent, mws...)
	e.GET("/v1/events/:id/seats", p.EventSeats, mws...)
}
