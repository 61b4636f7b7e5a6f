package handler

import (
    "net/http" // HTTP status codes
    "strings"  // input normalization
    "time"     // departure timestamp parsing

    "github.com/labstack/echo/v4" // Echo web framework

    "github.com/redvan/bus-reservation/internal/model"      // domain types
    "github.com/redvan/bus-reservation/internal/repository" // store interfaces
)

// maxLayoutRows and maxLayoutCols bound the seat layout an operator
// may publish. Intercity buses top out well below these.
const (
    maxLayoutRows = 26
    maxLayoutCols = 10
)

// OperatorHandler exposes trip publishing for users with the
// OPERATOR role. Trips are immutable once published, so there is no
// update endpoint; a wrong trip is abandoned and republished.
type OperatorHandler struct {
    Trips repository.TripStore // trip persistence
}

// NewOperatorHandler constructs an OperatorHandler. The trip store
// must be non-nil.
func NewOperatorHandler(trips repository.TripStore) *OperatorHandler {
    if trips == nil {
        panic("nil trip store passed to NewOperatorHandler")
    }
    return &OperatorHandler{Trips: trips}
}

type createTripReq struct {
    Origin      string `json:"origin"`
    Destination string `json:"destination"`
    ServiceDate string `json:"service_date"` // YYYY-MM-DD
    DepartsAt   string `json:"departs_at"`   // RFC3339
    VehicleID   string `json:"vehicle_id"`
    FareCents   uint32 `json:"fare_cents"`
    SeatRows    int    `json:"seat_rows"`
    SeatCols    int    `json:"seat_cols"`
}

// CreateTrip handles POST /v1/trips. It publishes a trip together
// with its full seat inventory: one AVAILABLE seat per label of the
// rows × cols layout. Returns 201 with the trip and its seat labels.
func (h *OperatorHandler) CreateTrip(c echo.Context) error {
    operatorID, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    var req createTripReq
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
    }
    req.Origin = strings.TrimSpace(req.Origin)
    req.Destination = strings.TrimSpace(req.Destination)
    req.VehicleID = strings.TrimSpace(req.VehicleID)
    if req.Origin == "" || req.Destination == "" || req.VehicleID == "" {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "origin, destination and vehicle_id are required"})
    }
    if _, err := time.Parse("2006-01-02", req.ServiceDate); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "service_date must be YYYY-MM-DD"})
    }
    departsAt, err := time.Parse(time.RFC3339, req.DepartsAt)
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "departs_at must be RFC3339"})
    }
    if req.SeatRows < 1 || req.SeatRows > maxLayoutRows || req.SeatCols < 1 || req.SeatCols > maxLayoutCols {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid seat layout"})
    }

    trip := &model.Trip{
        OperatorID:  operatorID,
        Origin:      req.Origin,
        Destination: req.Destination,
        ServiceDate: req.ServiceDate,
        DepartsAt:   departsAt.UTC(),
        VehicleID:   req.VehicleID,
        FareCents:   req.FareCents,
        SeatRows:    req.SeatRows,
        SeatCols:    req.SeatCols,
    }
    labels := layoutLabels(req.SeatRows, req.SeatCols)
    if err := h.Trips.Create(c.Request().Context(), trip, labels); err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to create trip"})
    }
    return c.JSON(http.StatusCreated, echo.Map{
        "trip":  tripView(trip),
        "seats": labels,
    })
}

// ListMyTrips handles GET /v1/operator/trips. It returns all trips
// published by the authenticated operator.
func (h *OperatorHandler) ListMyTrips(c echo.Context) error {
    operatorID, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    trips, err := h.Trips.ListByOperator(c.Request().Context(), operatorID)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load trips"})
    }
    items := make([]echo.Map, 0, len(trips))
    for i := range trips {
        items = append(items, tripView(&trips[i]))
    }
    return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// tripView shapes a trip for JSON responses.
func tripView(t *model.Trip) echo.Map {
    return echo.Map{
        "id":           t.ID,
        "origin":       t.Origin,
        "destination":  t.Destination,
        "service_date": t.ServiceDate,
        "departs_at":   t.DepartsAt.Format(time.RFC3339),
        "vehicle_id":   t.VehicleID,
        "fare_cents":   t.FareCents,
        "seat_rows":    t.SeatRows,
        "seat_cols":    t.SeatCols,
    }
}
