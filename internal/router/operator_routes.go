package router

import (
	"github.com/labstack/echo/v4"

	"github.com/redvan/bus-reservation/internal/handler"
	"github.com/redvan/bus-reservation/internal/middleware"
)

// RegisterOperator registers OPERATOR-scoped endpoints under /v1.
// All routes require a valid JWT and the OPERATOR role.  Operators
// publish trips with their seat layout and list the trips they own.
func RegisterOperator(e *echo.Echo, o *handler.OperatorHandler, jwtSecret string) {
	g := e.Group(
		"/v1",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole("OPERATOR"),
	)
	// Publishing a trip creates its full seat inventory in one step; trips
	// are immutable afterwards, so there is no update or delete route.
	g.POST("/trips", o.CreateTrip)
	g.GET("/operator/trips", o.ListMyTrips)
}
