package handler

import (
    "context"  // background context for the event publish
    "errors"   // sentinel comparisons
    "log"      // best-effort publish failures
    "net/http" // HTTP status codes
    "strconv"  // path parameter parsing
    "time"     // TTL and departure checks

    "github.com/labstack/echo/v4" // Echo web framework

    "github.com/redvan/bus-reservation/internal/model"       // domain types
    "github.com/redvan/bus-reservation/internal/payment"     // charge gateway
    "github.com/redvan/bus-reservation/internal/queue"       // event payloads
    "github.com/redvan/bus-reservation/internal/repository"  // store interfaces
    "github.com/redvan/bus-reservation/internal/reservation" // hold/commit core
    queue_publisher "github.com/redvan/bus-reservation/internal/service"
)

// maxHoldTTLSec caps the client-requested hold TTL. Anything longer
// would let one browser tab lock seats through the whole sales window.
const maxHoldTTLSec = 1800

// CustomerHandler exposes the reservation flow to authenticated
// customers: hold seats, pay and commit, list and cancel bookings.
// Payment runs in the handler, between hold and commit; the core
// never sees the gateway.
type CustomerHandler struct {
    Coordinator *reservation.Coordinator
    Finalizer   *reservation.Finalizer
    Trips       repository.TripStore
    Holds       repository.HoldStore
    Bookings    repository.BookingStore
    Gateway     payment.Gateway
}

// NewCustomerHandler constructs a CustomerHandler. All dependencies
// must be non-nil.
func NewCustomerHandler(coord *reservation.Coordinator, fin *reservation.Finalizer, trips repository.TripStore, holds repository.HoldStore, bookings repository.BookingStore, gw payment.Gateway) *CustomerHandler {
    if coord == nil || fin == nil || trips == nil || holds == nil || bookings == nil || gw == nil {
        panic("nil dependency passed to NewCustomerHandler")
    }
    return &CustomerHandler{
        Coordinator: coord,
        Finalizer:   fin,
        Trips:       trips,
        Holds:       holds,
        Bookings:    bookings,
        Gateway:     gw,
    }
}

type holdReq struct {
    SeatLabels       []string `json:"seat_labels"`
    IdempotencyToken string   `json:"idempotency_token"`
    TTLSeconds       int      `json:"ttl_seconds"` // optional, server default when 0
}

// HoldSeats handles POST /v1/trips/:id/holds. All requested seats are
// claimed atomically or the request fails with 409 naming the seats
// that were unavailable. Replaying the same idempotency token returns
// the original hold with 200 instead of 201.
func (h *CustomerHandler) HoldSeats(c echo.Context) error {
    userID, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    tripID, err := strconv.ParseUint(c.Param("id"), 10, 64)
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid trip id"})
    }
    var req holdReq
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
    }
    if req.TTLSeconds < 0 || req.TTLSeconds > maxHoldTTLSec {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "ttl_seconds out of range"})
    }

    hold, err := h.Coordinator.RequestHold(c.Request().Context(), reservation.HoldRequest{
        TripID:           tripID,
        UserID:           userID,
        SeatLabels:       req.SeatLabels,
        IdempotencyToken: req.IdempotencyToken,
        TTL:              time.Duration(req.TTLSeconds) * time.Second,
    })
    if err != nil {
        if seats, ok := repository.IsSeatConflict(err); ok {
            return c.JSON(http.StatusConflict, echo.Map{
                "error":       "seats unavailable",
                "unavailable": seats,
            })
        }
        switch {
        case errors.Is(err, repository.ErrTripNotFound):
            return c.JSON(http.StatusNotFound, echo.Map{"error": "trip not found"})
        case errors.Is(err, reservation.ErrEmptySeatSet),
            errors.Is(err, reservation.ErrInvalidToken),
            errors.Is(err, reservation.ErrTokenReuse):
            return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to hold seats"})
    }

    // A replayed idempotency token lands here too, with the original
    // hold; the response is identical either way.
    return c.JSON(http.StatusCreated, holdView(hold))
}

// ReleaseHold handles DELETE /v1/holds/:id. Releasing a hold you do
// not own is 403; releasing an already-released or expired hold is a
// 204 no-op.
func (h *CustomerHandler) ReleaseHold(c echo.Context) error {
    userID, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    holdID := c.Param("id")
    hold, err := h.Holds.GetByID(c.Request().Context(), holdID)
    if err != nil {
        if errors.Is(err, repository.ErrHoldNotFound) {
            return c.JSON(http.StatusNotFound, echo.Map{"error": "hold not found"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load hold"})
    }
    if hold.UserID != userID {
        return c.JSON(http.StatusForbidden, echo.Map{"error": "not your hold"})
    }
    if err := h.Coordinator.ReleaseHold(c.Request().Context(), holdID); err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to release hold"})
    }
    return c.NoContent(http.StatusNoContent)
}

type commitReq struct {
    PaymentMethod string            `json:"payment_method"`
    Passengers    []model.Passenger `json:"passengers"`
}

// CommitHold handles POST /v1/holds/:id/commit. The fare is computed
// server-side from the trip, charged through the gateway, and only a
// CONFIRMED charge reaches the finalizer. A charge that confirms
// after the hold expired is surfaced as 410 and logged by the
// finalizer for manual reconciliation.
func (h *CustomerHandler) CommitHold(c echo.Context) error {
    userID, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    holdID := c.Param("id")
    var req commitReq
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
    }

    ctx := c.Request().Context()
    hold, err := h.Holds.GetByID(ctx, holdID)
    if err != nil {
        if errors.Is(err, repository.ErrHoldNotFound) {
            return c.JSON(http.StatusNotFound, echo.Map{"error": "hold not found"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load hold"})
    }
    if hold.UserID != userID {
        return c.JSON(http.StatusForbidden, echo.Map{"error": "not your hold"})
    }
    trip, err := h.Trips.GetByID(ctx, hold.TripID)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load trip"})
    }
    fare := trip.FareCents * uint32(len(hold.SeatLabels))

    // Retried commit after payment already went through: skip the
    // charge and let the finalizer return the existing booking.
    var paymentRef string
    if hold.Status == model.HoldCommitted {
        if booking, berr := h.Bookings.GetByHoldID(ctx, hold.ID); berr == nil {
            paymentRef = booking.PaymentRef
        }
    }
    if paymentRef == "" {
        result, err := h.Gateway.Charge(ctx, &payment.ChargeRequest{
            AmountCents: fare,
            Currency:    "USD",
            Reference:   hold.ID,
            Method:      req.PaymentMethod,
        })
        if err != nil {
            return c.JSON(http.StatusBadGateway, echo.Map{"error": "payment processor unavailable"})
        }
        switch result.Status {
        case payment.StatusDeclined:
            return c.JSON(http.StatusPaymentRequired, echo.Map{
                "error":  "payment declined",
                "reason": result.Reason,
            })
        case payment.StatusPending:
            return c.JSON(http.StatusAccepted, echo.Map{
                "status":      "payment pending",
                "payment_ref": result.PaymentRef,
            })
        }
        paymentRef = result.PaymentRef
    }

    booking, err := h.Finalizer.Commit(ctx, reservation.CommitInput{
        HoldID:     hold.ID,
        PaymentRef: paymentRef,
        Passengers: req.Passengers,
        FareCents:  fare,
    })
    if err != nil {
        switch {
        case errors.Is(err, reservation.ErrHoldExpired):
            return c.JSON(http.StatusGone, echo.Map{"error": "hold expired before commit"})
        case errors.Is(err, reservation.ErrHoldNotActive):
            return c.JSON(http.StatusGone, echo.Map{"error": "hold was released"})
        case errors.Is(err, reservation.ErrPassengerMismatch):
            return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to commit hold"})
    }

    // Best effort: the booking stands whether or not the event lands.
    event := queue.BookingConfirmedEvent{
        BookingID:   booking.ID,
        HoldID:      booking.HoldID,
        UserID:      booking.UserID,
        TripID:      booking.TripID,
        Origin:      trip.Origin,
        Destination: trip.Destination,
        ServiceDate: trip.ServiceDate,
        DepartsAt:   trip.DepartsAt.Format(time.RFC3339),
        VehicleID:   trip.VehicleID,
        SeatLabels:  booking.SeatLabels(),
        FareCents:   booking.FareCents,
        PaymentRef:  booking.PaymentRef,
        ConfirmedAt: time.Now().UTC().Format(time.RFC3339),
    }
    if err := queue_publisher.PublishBookingConfirmed(context.Background(), event); err != nil {
        log.Printf("customer: publish booking.confirmed for booking %d: %v", booking.ID, err)
    }

    return c.JSON(http.StatusCreated, bookingView(booking))
}

// ListBookings handles GET /v1/bookings for the authenticated user.
func (h *CustomerHandler) ListBookings(c echo.Context) error {
    userID, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    bookings, err := h.Bookings.ListByUser(c.Request().Context(), userID)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load bookings"})
    }
    items := make([]echo.Map, 0, len(bookings))
    for i := range bookings {
        items = append(items, bookingView(&bookings[i]))
    }
    return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// GetBooking handles GET /v1/bookings/:id.
func (h *CustomerHandler) GetBooking(c echo.Context) error {
    userID, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    bookingID, err := strconv.ParseUint(c.Param("id"), 10, 64)
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid booking id"})
    }
    booking, err := h.Bookings.GetByID(c.Request().Context(), bookingID)
    if err != nil {
        if errors.Is(err, repository.ErrBookingNotFound) {
            return c.JSON(http.StatusNotFound, echo.Map{"error": "booking not found"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load booking"})
    }
    if booking.UserID != userID {
        return c.JSON(http.StatusForbidden, echo.Map{"error": "not your booking"})
    }
    return c.JSON(http.StatusOK, bookingView(booking))
}

// CancelBooking handles DELETE /v1/bookings/:id. Cancellation is
// refused once the trip has departed. Cancelling an already
// cancelled booking succeeds without side effects.
func (h *CustomerHandler) CancelBooking(c echo.Context) error {
    userID, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    bookingID, err := strconv.ParseUint(c.Param("id"), 10, 64)
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid booking id"})
    }
    ctx := c.Request().Context()
    booking, err := h.Bookings.GetByID(ctx, bookingID)
    if err != nil {
        if errors.Is(err, repository.ErrBookingNotFound) {
            return c.JSON(http.StatusNotFound, echo.Map{"error": "booking not found"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load booking"})
    }
    if booking.UserID != userID {
        return c.JSON(http.StatusForbidden, echo.Map{"error": "not your booking"})
    }
    trip, err := h.Trips.GetByID(ctx, booking.TripID)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load trip"})
    }
    if !trip.DepartsAt.After(time.Now().UTC()) {
        return c.JSON(http.StatusConflict, echo.Map{"error": "trip already departed"})
    }
    cancelled, err := h.Finalizer.Cancel(ctx, bookingID)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to cancel booking"})
    }
    return c.JSON(http.StatusOK, bookingView(cancelled))
}

// holdView shapes a hold for JSON responses. The holder token stays
// server-side; clients only ever see the hold id.
func holdView(h *model.Hold) echo.Map {
    return echo.Map{
        "hold_id":    h.ID,
        "trip_id":    h.TripID,
        "seats":      h.SeatLabels,
        "status":     h.Status,
        "expires_at": h.ExpiresAt.UTC().Format(time.RFC3339),
    }
}

// bookingView shapes a booking for JSON responses.
func bookingView(b *model.Booking) echo.Map {
    return echo.Map{
        "booking_id":  b.ID,
        "hold_id":     b.HoldID,
        "trip_id":     b.TripID,
        "seats":       b.SeatLabels(),
        "passengers":  b.Passengers,
        "fare_cents":  b.FareCents,
        "payment_ref": b.PaymentRef,
        "status":      b.Status,
        "created_at":  b.CreatedAt.UTC().Format(time.RFC3339),
    }
}
