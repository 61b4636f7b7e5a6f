package handler

import (
    "errors"   // sentinel comparisons
    "net/http" // HTTP status codes
    "sort"     // stable seat map ordering
    "strconv"  // path parameter parsing
    "strings"  // query normalization
    "time"     // date validation

    "github.com/labstack/echo/v4" // Echo web framework

    "github.com/redvan/bus-reservation/internal/model"       // domain types
    "github.com/redvan/bus-reservation/internal/repository"  // store interfaces
    "github.com/redvan/bus-reservation/internal/reservation" // seat availability
)

// PublicHandler serves unauthenticated browse endpoints: trip search,
// trip detail and the live seat map. Seat maps go through the
// coordinator so expired holds read as AVAILABLE.
type PublicHandler struct {
    Trips       repository.TripStore
    Coordinator *reservation.Coordinator
}

// NewPublicHandler constructs a PublicHandler.
func NewPublicHandler(trips repository.TripStore, coord *reservation.Coordinator) *PublicHandler {
    if trips == nil || coord == nil {
        panic("nil dependency passed to NewPublicHandler")
    }
    return &PublicHandler{Trips: trips, Coordinator: coord}
}

// SearchTrips handles GET /v1/trips?origin=&destination=&date=.
// All three filters are optional; an empty query lists everything.
func (h *PublicHandler) SearchTrips(c echo.Context) error {
    q := repository.TripSearchQuery{
        Origin:      strings.TrimSpace(c.QueryParam("origin")),
        Destination: strings.TrimSpace(c.QueryParam("destination")),
        ServiceDate: strings.TrimSpace(c.QueryParam("date")),
    }
    if q.ServiceDate != "" {
        if _, err := time.Parse("2006-01-02", q.ServiceDate); err != nil {
            return c.JSON(http.StatusBadRequest, echo.Map{"error": "date must be YYYY-MM-DD"})
        }
    }
    trips, err := h.Trips.Search(c.Request().Context(), q)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to search trips"})
    }
    items := make([]echo.Map, 0, len(trips))
    for i := range trips {
        items = append(items, tripView(&trips[i]))
    }
    return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// GetTrip handles GET /v1/trips/:id.
func (h *PublicHandler) GetTrip(c echo.Context) error {
    tripID, err := strconv.ParseUint(c.Param("id"), 10, 64)
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid trip id"})
    }
    trip, err := h.Trips.GetByID(c.Request().Context(), tripID)
    if err != nil {
        if errors.Is(err, repository.ErrTripNotFound) {
            return c.JSON(http.StatusNotFound, echo.Map{"error": "trip not found"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load trip"})
    }
    return c.JSON(http.StatusOK, tripView(trip))
}

// GetTripSeats handles GET /v1/trips/:id/seats. It returns the seat
// map with per-seat state. Holds past their expiry are swept before
// the read, so the response never shows a stale HELD seat.
func (h *PublicHandler) GetTripSeats(c echo.Context) error {
    tripID, err := strconv.ParseUint(c.Param("id"), 10, 64)
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid trip id"})
    }
    seats, err := h.Coordinator.SeatAvailability(c.Request().Context(), tripID)
    if err != nil {
        if errors.Is(err, repository.ErrTripNotFound) {
            return c.JSON(http.StatusNotFound, echo.Map{"error": "trip not found"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load seats"})
    }
    labels := make([]string, 0, len(seats))
    for label := range seats {
        labels = append(labels, label)
    }
    sort.Strings(labels)
    items := make([]echo.Map, 0, len(labels))
    available := 0
    for _, label := range labels {
        if seats[label].State == model.SeatAvailable {
            available++
        }
        items = append(items, echo.Map{
            "seat_label": label,
            "state":      seats[label].State,
        })
    }
    return c.JSON(http.StatusOK, echo.Map{
        "trip_id":   tripID,
        "available": available,
        "seats":     items,
    })
}
