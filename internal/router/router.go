package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4" // import the Echo web framework to handle routing

	"github.com/redvan/bus-reservation/internal/handler"    // import the handlers that implement business logic
	"github.com/redvan/bus-reservation/internal/middleware" // import middleware for JWT authentication and role enforcement
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
	// Create a route group under the /v1/auth prefix for operations that do
	// not require an existing session (register, login, refresh).  Each of
	// these handlers is responsible for generating or exchanging tokens.
	g := e.Group("/v1/auth")
	// Register a POST endpoint to handle user registration at /v1/auth/register.
	g.POST("/register", a.Register)
	// Register a POST endpoint to handle user login at /v1/auth/login.
	g.POST("/login", a.Login)
	// Register a POST endpoint to refresh access tokens at /v1/auth/refresh. This rotates the refresh token.
	g.POST("/refresh", a.Refresh)
	// Register a POST endpoint to issue a new access token without rotating the refresh token.
	g.POST("/refresh-access", a.RefreshAccess)
	// Register a POST endpoint to log out using a refresh token.  Logout does
	// not require JWT authentication; the handler accepts a JSON body
	// containing a `refresh_token` and will invalidate that token.
	g.POST("/logout", a.Logout)

	// Create another group for routes that require a valid access token.  All
	// handlers registered on this group will execute the JWTAuth middleware
	// before being invoked.  Protected endpoints live under /v1.
	auth := e.Group("/v1")
	// Apply the JWTAuth middleware to the protected group using the provided secret.
	auth.Use(middleware.JWTAuth(jwtSecret))
	// Any authenticated role may read its own profile.
	auth.Use(middleware.RequireRole("OPERATOR", "CUSTOMER"))
	// Register a GET endpoint at /v1/me that returns the authenticated user's information.
	auth.GET("/me", a.Me)

	// Additionally map POST /v1/logout to the same handler so clients can use
	// either /v1/auth/logout or /v1/logout with a refresh token in the body.
	e.POST("/v1/logout", a.Logout)
}

// RegisterPublic registers unauthenticated browse endpoints on the provided
// Echo instance.  The PublicHandler returns sanitized data for trips and seat
// maps.  These routes apply no JWT or role middleware; the optional
// middlewares parameter lets the caller attach rate limiting and response
// caching to exactly this group.
func RegisterPublic(e *echo.Echo, p *handler.PublicHandler, middlewares ...echo.MiddlewareFunc) {
	g := e.Group("/v1", middlewares...)
	// Search trips by origin, destination and service date.
	g.GET("/trips", p.SearchTrips)
	// Trip details by trip id.
	g.GET("/trips/:id", p.GetTrip)
	// Publicly view seat availability for a specific trip.  Seat state is
	// AVAILABLE, HELD or BOOKED; expired holds read as AVAILABLE.
	g.GET("/trips/:id/seats", p.GetTripSeats)
}
