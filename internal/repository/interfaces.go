package repository

import (
    "context"
    "time"

    "github.com/redvan/bus-reservation/internal/model"
)

// InventoryStore is the durable source of truth for current seat
// state per trip. Its compare-and-swap is the sole mutual-exclusion
// mechanism in the system: requests arrive from independent client
// processes, so no in-process lock can serialize them.
type InventoryStore interface {
    // SeatStates returns every seat of the trip keyed by label.
    // It fails only with ErrTripNotFound for an unknown trip id.
    SeatStates(ctx context.Context, tripID uint64) (map[string]model.TripSeat, error)
    // CompareAndSwapSeats transitions all named seats from the
    // expected state to the next state in one atomic step. When the
    // expected state is not AVAILABLE the transition is additionally
    // guarded by the holder token. If any seat fails the
    // precondition the whole call fails with a SeatConflictError and
    // no seat is mutated. The holdExpiresAt timestamp is stored only
    // for transitions into HELD.
    CompareAndSwapSeats(ctx context.Context, tripID uint64, labels []string, expected, next model.SeatState, holderToken string, holdExpiresAt *time.Time) error
}

// LedgerStore is the append-only record of hold lifecycle
// transitions. Entries are immutable once written.
type LedgerStore interface {
    // Append writes one ledger entry and fills in its generated id.
    Append(ctx context.Context, entry *model.LedgerEntry) error
    // FindCreated looks up the "created" entry carrying the given
    // idempotency token. It returns (nil, nil) when no such entry
    // exists; absence is not an error.
    FindCreated(ctx context.Context, idempotencyToken string) (*model.LedgerEntry, error)
    // ListByHold returns all entries for a hold in append order.
    ListByHold(ctx context.Context, holdID string) ([]model.LedgerEntry, error)
}

// HoldStore persists holds and their seat sets.
type HoldStore interface {
    // Create inserts a new hold. It fails with ErrTokenExists when
    // another hold already carries the same idempotency token.
    Create(ctx context.Context, hold *model.Hold) error
    // GetByID returns a hold or ErrHoldNotFound.
    GetByID(ctx context.Context, id string) (*model.Hold, error)
    // GetByIdempotencyToken returns the hold created with the given
    // token or ErrHoldNotFound.
    GetByIdempotencyToken(ctx context.Context, token string) (*model.Hold, error)
    // UpdateStatus transitions a hold from one status to another.
    // It reports false without error when the hold was not in the
    // from status, which keeps release and expiry idempotent.
    UpdateStatus(ctx context.Context, id string, from, to model.HoldStatus) (bool, error)
    // ListExpired returns ACTIVE holds whose expiry has passed.
    // A zero tripID means all trips.
    ListExpired(ctx context.Context, tripID uint64, now time.Time) ([]model.Hold, error)
}

// BookingStore persists permanent booking records. Bookings are
// only ever created from committed holds and are never deleted.
type BookingStore interface {
    // Create inserts a booking and fills in its generated id. It
    // fails with ErrDuplicateHold when a booking for the same hold
    // already exists.
    Create(ctx context.Context, booking *model.Booking) error
    // GetByID returns a booking or ErrBookingNotFound.
    GetByID(ctx context.Context, id uint64) (*model.Booking, error)
    // GetByHoldID returns the booking committed from the given hold
    // or ErrBookingNotFound.
    GetByHoldID(ctx context.Context, holdID string) (*model.Booking, error)
    // ListByUser returns the user's bookings, newest first.
    ListByUser(ctx context.Context, userID uint64) ([]model.Booking, error)
    // UpdateStatus transitions a booking between statuses. It
    // reports false without error when the booking was not in the
    // from status.
    UpdateStatus(ctx context.Context, id uint64, from, to model.BookingStatus) (bool, error)
}

// TripSearchQuery defines filters for searching published trips.
type TripSearchQuery struct {
    Origin      string
    Destination string
    ServiceDate string
}

// TripStore persists trips and their seat layouts.
type TripStore interface {
    // Create inserts a trip together with one AVAILABLE seat row per
    // label and fills in the generated trip id.
    Create(ctx context.Context, trip *model.Trip, seatLabels []string) error
    // GetByID returns a trip or ErrTripNotFound.
    GetByID(ctx context.Context, id uint64) (*model.Trip, error)
    // Search returns trips matching the query, soonest first.
    Search(ctx context.Context, q TripSearchQuery) ([]model.Trip, error)
    // ListByOperator returns trips published by an operator.
    ListByOperator(ctx context.Context, operatorID uint64) ([]model.Trip, error)
}
