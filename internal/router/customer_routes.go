package router

import (
	"github.com/labstack/echo/v4"

	"github.com/redvan/bus-reservation/internal/handler"
	"github.com/redvan/bus-reservation/internal/middleware"
)

// RegisterCustomer registers customer-scoped endpoints under /v1.  All routes
// require a valid JWT and the CUSTOMER role.  Customers can hold seats on a
// trip, release holds, commit a hold into a booking after payment, and view
// or cancel their own bookings.
func RegisterCustomer(e *echo.Echo, h *handler.CustomerHandler, jwtSecret string) {
	g := e.Group(
		"/v1",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole("CUSTOMER"),
	)
	// Note: GET /v1/trips, GET /v1/trips/:id and GET /v1/trips/:id/seats are
	// registered on the public router so that guests can browse before
	// signing in.  Customer-specific endpoints begin here.
	g.POST("/trips/:id/holds", h.HoldSeats)
	g.DELETE("/holds/:id", h.ReleaseHold)
	g.POST("/holds/:id/commit", h.CommitHold)

	// Booking endpoints let a customer view or cancel bookings belonging to
	// themselves.  Ownership is validated within the handler.
	g.GET("/my-bookings", h.ListBookings)
	g.GET("/bookings/:id", h.GetBooking)
	g.DELETE("/bookings/:id", h.CancelBooking)
}
