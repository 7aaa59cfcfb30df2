package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4" // import the Echo web framework to handle routing
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/event-attendance/internal/config"     // cache and rate limit configuration
	"github.com/iliyamo/event-attendance/internal/handler"    // import the handlers that implement business logic
	"github.com/iliyamo/event-attendance/internal/middleware" // import middleware for JWT authentication and role enforcement
)

// RegisterRoutes registers routes that do not require authentication on the
// provided Echo instance.  Currently it exposes only a health check.
func RegisterRoutes(e *echo.Echo) {
	// Map the GET request at path "/healthz" to the Health handler.  This
	// endpoint can be used by load balancers or monitoring systems to verify
	// that the service is up and running.
	e.GET("/healthz", handler.Health)
}

// RegisterAuth registers all authentication‑related routes and applies the
// necessary middleware.  Unauthenticated operations live under /v1/auth,
// while protected endpoints live under /v1.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string) {
	// Route group under the /v1/auth prefix for operations that do not
	// require an existing session (register, login, refresh).  Each of
	// these handlers is responsible for generating or exchanging tokens.
	g := e.Group("/v1/auth")
	// Register a POST endpoint to handle user registration at /v1/auth/register.
	g.POST("/register", a.Register)
	// Register a POST endpoint to handle user login at /v1/auth/login.
	g.POST("/login", a.Login)
	// Refresh access tokens at /v1/auth/refresh.  This rotates the refresh token.
	g.POST("/refresh", a.Refresh)
	// Issue a new access token without rotating the refresh token.
	g.POST("/refresh-access", a.RefreshAccess)
	// Log out using a refresh token.  Logout does not require JWT
	// authentication; the handler accepts a JSON body containing a
	// `refresh_token` and will invalidate that token.
	g.POST("/logout", a.Logout)

	// Group for routes that require a valid access token.  All handlers
	// registered on this group execute the JWTAuth middleware before
	// being invoked.  Protected endpoints live under /v1.
	auth := e.Group("/v1")
	auth.Use(middleware.JWTAuth(jwtSecret))
	// Any authenticated role may hit these endpoints; the middleware
	// rejects requests with missing or unknown roles.
	auth.Use(middleware.RequireRole("ORGANIZER", "ATTENDEE"))
	// Return the authenticated user's information.
	auth.GET("/me", a.Me)

	// Additionally map POST /v1/logout to the same handler so clients can
	// call either /v1/auth/logout or /v1/logout with a valid refresh token
	// in the body to terminate a session.
	e.POST("/v1/logout", a.Logout)
}

// RegisterPublic registers unauthenticated browse endpoints on the provided
// Echo instance.  The PublicHandler returns sanitized event data for guests.
// Listing endpoints are cached and rate limited through Redis when a client
// is available; both middlewares degrade to pass-through on a nil client.
// Admission, waitlist and confirmation routes are never cached: their
// responses depend on per-user capacity state that changes between requests.
func RegisterPublic(e *echo.Echo, p *handler.PublicHandler, rdb *redis.Client) {
	cacheCfg := config.LoadCacheConfig()
	rateCfg := config.LoadRateLimitConfig()
	g := e.Group(
		"/v1",
		middleware.NewTokenBucket(rateCfg, rdb),
		middleware.NewRedisCache(cacheCfg, rdb),
	)
	// Upcoming events, soonest first.
	g.GET("/events", p.ListUpcoming)
	// Single event details with its effective phase.
	g.GET("/events/:id", p.GetEvent)
}
