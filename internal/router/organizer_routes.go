package router // router defines how HTTP routes are registered for the API

import (
	"github.com/iliyamo/event-attendance/internal/handler"    // organizer handlers
	"github.com/iliyamo/event-attendance/internal/middleware" // JWT + role middlewares
	"github.com/labstack/echo/v4"
)

// RegisterOrganizer registers ORGANIZER-scoped endpoints under
// /v1/organizer.  All routes require a valid JWT and ORGANIZER role.
func RegisterOrganizer(e *echo.Echo, o *handler.OrganizerHandler, jwtSecret string) {
	// Attach middlewares at group construction time for clarity.
	g := e.Group(
		"/v1/organizer",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole("ORGANIZER"),
	)

	// ---- Events ----
	g.POST("/events", o.CreateEvent)
	g.GET("/events", o.ListEvents)
	g.GET("/events/:id", o.GetEvent)
	g.PUT("/events/:id", o.UpdateEvent)
	g.PATCH("/events/:id", o.UpdateEvent) // allow partial/semantic updates via PATCH as well
	g.DELETE("/events/:id", o.DeleteEvent)

	// ---- Phase transitions ----
	g.POST("/events/:id/publish", o.PublishEvent)
	g.POST("/events/:id/cancel", o.CancelEvent)
}
