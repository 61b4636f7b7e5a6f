package handler

import (
    "context"
    "encoding/json"
    "net/http"
    "net/http/httptest"
    "strings"
    "testing"
    "time"

    "github.com/labstack/echo/v4"
    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"

    "github.com/redvan/bus-reservation/internal/model"
    "github.com/redvan/bus-reservation/internal/payment"
    "github.com/redvan/bus-reservation/internal/repository"
    "github.com/redvan/bus-reservation/internal/reservation"
)

// handlerEnv wires the customer handler against the in-memory stores
// with the mock payment gateway.
type handlerEnv struct {
    e        *echo.Echo
    handler  *CustomerHandler
    inv      *repository.MemoryInventory
    holds    *repository.MemoryHolds
    bookings *repository.MemoryBookings
    tripID   uint64
}

func newHandlerEnv(t *testing.T) *handlerEnv {
    t.Helper()
    inv := repository.NewMemoryInventory()
    ledger := repository.NewMemoryLedger()
    holds := repository.NewMemoryHolds()
    bookings := repository.NewMemoryBookings()

    trip := &model.Trip{
        OperatorID:  1,
        Origin:      "Springfield",
        Destination: "Shelbyville",
        ServiceDate: "2026-03-15",
        DepartsAt:   time.Now().UTC().Add(24 * time.Hour),
        VehicleID:   "BUS-42",
        FareCents:   2500,
        SeatRows:    2,
        SeatCols:    2,
    }
    require.NoError(t, inv.Create(context.Background(), trip, []string{"A1", "A2", "B1", "B2"}))

    coord := reservation.NewCoordinator(inv, ledger, holds)
    fin := reservation.NewFinalizer(inv, ledger, holds, bookings, reservation.SystemClock())
    gateway := payment.NewMockGateway(nil)

    return &handlerEnv{
        e:        echo.New(),
        handler:  NewCustomerHandler(coord, fin, inv, holds, bookings, gateway),
        inv:      inv,
        holds:    holds,
        bookings: bookings,
        tripID:   trip.ID,
    }
}

// request runs one handler with an authenticated user and returns the
// response recorder.
func (env *handlerEnv) request(t *testing.T, userID uint64, method, body string, h echo.HandlerFunc, paramName, paramValue string) *httptest.ResponseRecorder {
    t.Helper()
    req := httptest.NewRequest(method, "/", strings.NewReader(body))
    req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
    rec := httptest.NewRecorder()
    c := env.e.NewContext(req, rec)
    c.Set("user_id", userID)
    if paramName != "" {
        c.SetParamNames(paramName)
        c.SetParamValues(paramValue)
    }
    require.NoError(t, h(c))
    return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
    t.Helper()
    var body map[string]any
    require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
    return body
}

func TestHoldSeatsAndConflict(t *testing.T) {
    env := newHandlerEnv(t)
    tripParam := jsonUint(env.tripID)

    rec := env.request(t, 10, http.MethodPost,
        `{"seat_labels":["A1","A2"],"idempotency_token":"tok-h1"}`,
        env.handler.HoldSeats, "id", tripParam)
    require.Equal(t, http.StatusCreated, rec.Code)
    body := decodeBody(t, rec)
    assert.NotEmpty(t, body["hold_id"])
    assert.Equal(t, "ACTIVE", body["status"])

    // Overlapping request from another user names only the contested seats.
    rec = env.request(t, 11, http.MethodPost,
        `{"seat_labels":["A2","B1"],"idempotency_token":"tok-h2"}`,
        env.handler.HoldSeats, "id", tripParam)
    require.Equal(t, http.StatusConflict, rec.Code)
    body = decodeBody(t, rec)
    assert.Equal(t, []any{"A2"}, body["unavailable"])
}

func TestHoldSeatsValidation(t *testing.T) {
    env := newHandlerEnv(t)
    tripParam := jsonUint(env.tripID)

    rec := env.request(t, 10, http.MethodPost,
        `{"seat_labels":["A1"],"idempotency_token":""}`,
        env.handler.HoldSeats, "id", tripParam)
    assert.Equal(t, http.StatusBadRequest, rec.Code)

    rec = env.request(t, 10, http.MethodPost,
        `{"seat_labels":["A1"],"idempotency_token":"tok-bad-trip"}`,
        env.handler.HoldSeats, "id", "99999")
    assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestReleaseHoldOwnership(t *testing.T) {
    env := newHandlerEnv(t)
    tripParam := jsonUint(env.tripID)

    rec := env.request(t, 10, http.MethodPost,
        `{"seat_labels":["B2"],"idempotency_token":"tok-rel"}`,
        env.handler.HoldSeats, "id", tripParam)
    require.Equal(t, http.StatusCreated, rec.Code)
    holdID := decodeBody(t, rec)["hold_id"].(string)

    // Another user cannot release it.
    rec = env.request(t, 11, http.MethodDelete, "", env.handler.ReleaseHold, "id", holdID)
    assert.Equal(t, http.StatusForbidden, rec.Code)

    // The owner can, and a repeat release stays a success.
    rec = env.request(t, 10, http.MethodDelete, "", env.handler.ReleaseHold, "id", holdID)
    assert.Equal(t, http.StatusNoContent, rec.Code)
    rec = env.request(t, 10, http.MethodDelete, "", env.handler.ReleaseHold, "id", holdID)
    assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestCommitHoldCreatesBooking(t *testing.T) {
    env := newHandlerEnv(t)
    tripParam := jsonUint(env.tripID)

    rec := env.request(t, 10, http.MethodPost,
        `{"seat_labels":["A1","B1"],"idempotency_token":"tok-commit"}`,
        env.handler.HoldSeats, "id", tripParam)
    require.Equal(t, http.StatusCreated, rec.Code)
    holdID := decodeBody(t, rec)["hold_id"].(string)

    commitBody := `{"payment_method":"card","passengers":[` +
        `{"seat_label":"A1","full_name":"Ana Ruiz","phone":"555-0101"},` +
        `{"seat_label":"B1","full_name":"Ben Okafor","phone":"555-0102"}]}`
    rec = env.request(t, 10, http.MethodPost, commitBody, env.handler.CommitHold, "id", holdID)
    require.Equal(t, http.StatusCreated, rec.Code)
    body := decodeBody(t, rec)
    assert.Equal(t, "CONFIRMED", body["status"])
    // 2 seats at 2500 cents each.
    assert.Equal(t, float64(5000), body["fare_cents"])
    assert.NotEmpty(t, body["payment_ref"])

    // The booking is visible in the user's list and denied to others.
    rec = env.request(t, 10, http.MethodGet, "", env.handler.ListBookings, "", "")
    require.Equal(t, http.StatusOK, rec.Code)
    items := decodeBody(t, rec)["items"].([]any)
    require.Len(t, items, 1)
    bookingID := items[0].(map[string]any)["booking_id"]

    rec = env.request(t, 11, http.MethodGet, "", env.handler.GetBooking, "id", jsonNumber(bookingID))
    assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestCommitHoldNotOwned(t *testing.T) {
    env := newHandlerEnv(t)
    tripParam := jsonUint(env.tripID)

    rec := env.request(t, 10, http.MethodPost,
        `{"seat_labels":["A2"],"idempotency_token":"tok-own"}`,
        env.handler.HoldSeats, "id", tripParam)
    require.Equal(t, http.StatusCreated, rec.Code)
    holdID := decodeBody(t, rec)["hold_id"].(string)

    rec = env.request(t, 11, http.MethodPost, `{"payment_method":"card"}`, env.handler.CommitHold, "id", holdID)
    assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestCancelBookingRoundTrip(t *testing.T) {
    env := newHandlerEnv(t)
    tripParam := jsonUint(env.tripID)

    rec := env.request(t, 10, http.MethodPost,
        `{"seat_labels":["A1"],"idempotency_token":"tok-cancel"}`,
        env.handler.HoldSeats, "id", tripParam)
    require.Equal(t, http.StatusCreated, rec.Code)
    holdID := decodeBody(t, rec)["hold_id"].(string)

    rec = env.request(t, 10, http.MethodPost, `{"payment_method":"card"}`, env.handler.CommitHold, "id", holdID)
    require.Equal(t, http.StatusCreated, rec.Code)
    bookingID := decodeBody(t, rec)["booking_id"]

    rec = env.request(t, 10, http.MethodDelete, "", env.handler.CancelBooking, "id", jsonNumber(bookingID))
    require.Equal(t, http.StatusOK, rec.Code)
    assert.Equal(t, "CANCELLED", decodeBody(t, rec)["status"])

    // The freed seat can be held again.
    rec = env.request(t, 11, http.MethodPost,
        `{"seat_labels":["A1"],"idempotency_token":"tok-rehold"}`,
        env.handler.HoldSeats, "id", tripParam)
    assert.Equal(t, http.StatusCreated, rec.Code)
}

// jsonUint formats a uint64 path parameter.
func jsonUint(v uint64) string {
    b, _ := json.Marshal(v)
    return string(b)
}

// jsonNumber formats a decoded JSON number back into a path parameter.
func jsonNumber(v any) string {
    b, _ := json.Marshal(v)
    return string(b)
}
