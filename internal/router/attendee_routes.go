package router

import (
	"github.com/iliyamo/event-attendance/internal/handler"
	"github.com/iliyamo/event-attendance/internal/middleware"
	"github.com/labstack/echo/v4"
)

// RegisterAttendee registers attendee-scoped endpoints under /v1.  All
// routes require a valid JWT and the ATTENDEE role.  Attendees can
// request admission to an event, change or withdraw a response, join or
// leave the waitlist, check their queue position and accept a promotion
// offer.  None of these routes may ever be cached: every response
// depends on capacity state that changes between requests.
func RegisterAttendee(e *echo.Echo, h *handler.AttendanceHandler, jwtSecret string) {
	g := e.Group(
		"/v1",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole("ATTENDEE"),
	)
	// Note: GET /v1/events and GET /v1/events/:id are registered on the
	// public router so that guests can browse upcoming events.
	// Attendee-specific endpoints begin here.
	g.POST("/events/:id/attend", h.Attend)
	g.PATCH("/events/:id/response", h.ChangeResponse)
	g.DELETE("/events/:id/response", h.Withdraw)

	// Waitlist membership and offer acceptance.  Confirmation races
	// against other confirmations and direct admissions; the services
	// resolve those inside a single store transaction.
	g.POST("/events/:id/waitlist", h.JoinWaitlist)
	g.DELETE("/events/:id/waitlist", h.LeaveWaitlist)
	g.GET("/events/:id/waitlist", h.WaitlistStatus)
	g.POST("/events/:id/waitlist/confirm", h.ConfirmOffer)
}
