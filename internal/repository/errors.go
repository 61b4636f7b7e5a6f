// Package repository defines error types that are reused across multiple
// stores. These sentinel values allow higher layers such as the
// reservation coordinator and the handlers to distinguish between
// different failure scenarios. For example, ErrTripNotFound indicates
// that a trip id is unknown, while a SeatConflictError signals that a
// conditional seat transition failed because some seats were not in
// the expected state.
package repository

import (
    "errors"
    "fmt"
    "strings"
)

// ErrTripNotFound is returned when a trip id does not exist.
// Handlers should translate this into an HTTP 404 response.
var ErrTripNotFound = errors.New("trip not found")

// ErrHoldNotFound is returned when a hold id or idempotency token
// does not match any stored hold.
var ErrHoldNotFound = errors.New("hold not found")

// ErrBookingNotFound is returned when a booking id does not exist.
var ErrBookingNotFound = errors.New("booking not found")

// ErrTokenExists is returned by HoldStore.Create when another hold
// already carries the same idempotency token. Callers re-read the
// existing hold so that retried requests stay idempotent.
var ErrTokenExists = errors.New("idempotency token already used")

// ErrDuplicateHold is returned by BookingStore.Create when a booking
// for the same hold already exists. The unique constraint on hold_id
// is what makes a retried commit idempotent.
var ErrDuplicateHold = errors.New("booking already exists for hold")

// SeatConflictError reports a failed compare-and-swap over a seat
// set. It names every seat that did not match the expected state so
// the caller can show the client exactly which seats to re-select.
// A conflict is a normal outcome of concurrent holds, not a fault.
type SeatConflictError struct {
    Seats []string // labels of the seats that failed the precondition
}

func (e *SeatConflictError) Error() string {
    return fmt.Sprintf("seats unavailable: %s", strings.Join(e.Seats, ","))
}

// IsSeatConflict reports whether err is (or wraps) a SeatConflictError
// and returns the conflicting seat labels when it is.
func IsSeatConflict(err error) ([]string, bool) {
    var sc *SeatConflictError
    if errors.As(err, &sc) {
        return sc.Seats, true
    }
    return nil, false
}
