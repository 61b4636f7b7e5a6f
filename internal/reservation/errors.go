// Package reservation implements the seat reservation core: the
// coordinator that moves seats between AVAILABLE, HELD and BOOKED
// through the inventory store's compare-and-swap, and the finalizer
// that converts a paid hold into a permanent booking.
//
// The error values below, together with the repository sentinels and
// SeatConflictError, form the full failure taxonomy. None of them is
// retried inside the core; a conflict is a normal outcome the caller
// resolves by re-querying availability.
package reservation

import "errors"

// ErrEmptySeatSet rejects hold requests that name no seats after
// deduplication. Surfaced before touching storage.
var ErrEmptySeatSet = errors.New("seat set is empty")

// ErrInvalidToken rejects missing or oversized idempotency tokens.
var ErrInvalidToken = errors.New("invalid idempotency token")

// ErrTokenReuse is returned when a request replays an idempotency
// token with a different trip or seat set than the original hold.
var ErrTokenReuse = errors.New("idempotency token reused with different request")

// ErrHoldExpired is returned when a hold's TTL elapsed before the
// commit. The caller must restart the hold flow; the core never
// re-holds seats on its own.
var ErrHoldExpired = errors.New("hold expired")

// ErrHoldNotActive is returned when committing a hold that was
// explicitly released.
var ErrHoldNotActive = errors.New("hold is no longer active")

// ErrPaymentRefRequired rejects commits without a payment reference.
var ErrPaymentRefRequired = errors.New("payment reference required")

// ErrPassengerMismatch rejects commits whose passenger list does not
// cover exactly the held seats.
var ErrPassengerMismatch = errors.New("passengers do not match held seats")
