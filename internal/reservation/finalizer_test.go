package reservation

import (
    "context"
    "testing"
    "time"

    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"

    "github.com/redvan/bus-reservation/internal/model"
    "github.com/redvan/bus-reservation/internal/repository"
)

// finalizerEnv extends testEnv with a booking store and a finalizer
// sharing the same clock.
type finalizerEnv struct {
    *testEnv
    bookings *repository.MemoryBookings
    fin      *Finalizer
}

func newFinalizerEnv(t *testing.T) *finalizerEnv {
    t.Helper()
    env := newTestEnv(t)
    bookings := repository.NewMemoryBookings()
    fin := NewFinalizer(env.inventory, env.ledger, env.holds, bookings, env.clock)
    return &finalizerEnv{testEnv: env, bookings: bookings, fin: fin}
}

func (e *finalizerEnv) holdSeats(t *testing.T, token string, labels ...string) *model.Hold {
    t.Helper()
    hold, err := e.coord.RequestHold(context.Background(), HoldRequest{
        TripID:           e.tripID,
        UserID:           9,
        SeatLabels:       labels,
        IdempotencyToken: token,
    })
    require.NoError(t, err)
    return hold
}

func TestCommitCreatesBooking(t *testing.T) {
    env := newFinalizerEnv(t)
    ctx := context.Background()
    hold := env.holdSeats(t, "tok-commit", "A1", "A2")

    booking, err := env.fin.Commit(ctx, CommitInput{
        HoldID:     hold.ID,
        PaymentRef: "txn-001",
        Passengers: []model.Passenger{
            {SeatLabel: "A1", FullName: "Ana Ruiz", Phone: "555-0101"},
            {SeatLabel: "A2", FullName: "Ben Okafor", Phone: "555-0102"},
        },
        FareCents: 5000,
    })
    require.NoError(t, err)
    assert.Equal(t, hold.ID, booking.HoldID)
    assert.Equal(t, model.BookingConfirmed, booking.Status)
    assert.Equal(t, "txn-001", booking.PaymentRef)
    assert.ElementsMatch(t, []string{"A1", "A2"}, booking.SeatLabels())

    assert.Equal(t, model.SeatBooked, env.seatState(t, "A1"))
    assert.Equal(t, model.SeatBooked, env.seatState(t, "A2"))

    got, err := env.holds.GetByID(ctx, hold.ID)
    require.NoError(t, err)
    assert.Equal(t, model.HoldCommitted, got.Status)

    entries, err := env.ledger.ListByHold(ctx, hold.ID)
    require.NoError(t, err)
    require.Len(t, entries, 2)
    assert.Equal(t, model.LedgerCommitted, entries[1].Kind)
}

func TestCommitIdempotentRetry(t *testing.T) {
    env := newFinalizerEnv(t)
    ctx := context.Background()
    hold := env.holdSeats(t, "tok-retry", "B1")

    in := CommitInput{HoldID: hold.ID, PaymentRef: "txn-002", FareCents: 2500}
    first, err := env.fin.Commit(ctx, in)
    require.NoError(t, err)

    second, err := env.fin.Commit(ctx, in)
    require.NoError(t, err)
    assert.Equal(t, first.ID, second.ID)

    // Only one booking exists for the user.
    list, err := env.bookings.ListByUser(ctx, hold.UserID)
    require.NoError(t, err)
    assert.Len(t, list, 1)
}

func TestCommitExpiredHold(t *testing.T) {
    env := newFinalizerEnv(t)
    ctx := context.Background()
    hold := env.holdSeats(t, "tok-late", "B2")

    env.clock.Advance(10 * time.Minute)

    _, err := env.fin.Commit(ctx, CommitInput{HoldID: hold.ID, PaymentRef: "txn-003", FareCents: 2500})
    assert.ErrorIs(t, err, ErrHoldExpired)

    // The late payment freed the seat instead of booking it.
    assert.Equal(t, model.SeatAvailable, env.seatState(t, "B2"))
    got, err := env.holds.GetByID(ctx, hold.ID)
    require.NoError(t, err)
    assert.Equal(t, model.HoldExpired, got.Status)
}

func TestCommitReleasedHold(t *testing.T) {
    env := newFinalizerEnv(t)
    ctx := context.Background()
    hold := env.holdSeats(t, "tok-gone", "B3")
    require.NoError(t, env.coord.ReleaseHold(ctx, hold.ID))

    _, err := env.fin.Commit(ctx, CommitInput{HoldID: hold.ID, PaymentRef: "txn-004", FareCents: 2500})
    assert.ErrorIs(t, err, ErrHoldNotActive)
}

func TestCommitValidation(t *testing.T) {
    env := newFinalizerEnv(t)
    ctx := context.Background()
    hold := env.holdSeats(t, "tok-valid", "A3", "A4")

    _, err := env.fin.Commit(ctx, CommitInput{HoldID: hold.ID, FareCents: 5000})
    assert.ErrorIs(t, err, ErrPaymentRefRequired)

    // One passenger for two seats.
    _, err = env.fin.Commit(ctx, CommitInput{
        HoldID:     hold.ID,
        PaymentRef: "txn-005",
        Passengers: []model.Passenger{{SeatLabel: "A3", FullName: "Solo"}},
        FareCents:  5000,
    })
    assert.ErrorIs(t, err, ErrPassengerMismatch)

    // Passenger on a seat the hold does not cover.
    _, err = env.fin.Commit(ctx, CommitInput{
        HoldID:     hold.ID,
        PaymentRef: "txn-005",
        Passengers: []model.Passenger{
            {SeatLabel: "A3", FullName: "Ana"},
            {SeatLabel: "B1", FullName: "Ben"},
        },
        FareCents: 5000,
    })
    assert.ErrorIs(t, err, ErrPassengerMismatch)

    // Failed commits leave the hold and its seats untouched.
    assert.Equal(t, model.SeatHeld, env.seatState(t, "A3"))
    got, err := env.holds.GetByID(ctx, hold.ID)
    require.NoError(t, err)
    assert.Equal(t, model.HoldActive, got.Status)
}

func TestCommitUnknownHold(t *testing.T) {
    env := newFinalizerEnv(t)
    _, err := env.fin.Commit(context.Background(), CommitInput{HoldID: "no-such-hold", PaymentRef: "txn-006"})
    assert.ErrorIs(t, err, repository.ErrHoldNotFound)
}

func TestCancelReturnsSeats(t *testing.T) {
    env := newFinalizerEnv(t)
    ctx := context.Background()
    hold := env.holdSeats(t, "tok-cancel", "B1", "B2")

    booking, err := env.fin.Commit(ctx, CommitInput{HoldID: hold.ID, PaymentRef: "txn-007", FareCents: 5000})
    require.NoError(t, err)

    cancelled, err := env.fin.Cancel(ctx, booking.ID)
    require.NoError(t, err)
    assert.Equal(t, model.BookingCancelled, cancelled.Status)
    assert.Equal(t, model.SeatAvailable, env.seatState(t, "B1"))
    assert.Equal(t, model.SeatAvailable, env.seatState(t, "B2"))

    // The record survives cancellation and cancelling again is a no-op.
    again, err := env.fin.Cancel(ctx, booking.ID)
    require.NoError(t, err)
    assert.Equal(t, model.BookingCancelled, again.Status)

    // The freed seats can be held by someone else.
    _, err = env.coord.RequestHold(ctx, HoldRequest{
        TripID:           env.tripID,
        UserID:           2,
        SeatLabels:       []string{"B1"},
        IdempotencyToken: "tok-rehold",
    })
    assert.NoError(t, err)
}

func TestCommitSynthesizesPassengers(t *testing.T) {
    env := newFinalizerEnv(t)
    hold := env.holdSeats(t, "tok-nopax", "A1")

    booking, err := env.fin.Commit(context.Background(), CommitInput{
        HoldID:     hold.ID,
        PaymentRef: "txn-008",
        FareCents:  2500,
    })
    require.NoError(t, err)
    require.Len(t, booking.Passengers, 1)
    assert.Equal(t, "A1", booking.Passengers[0].SeatLabel)
    assert.Empty(t, booking.Passengers[0].FullName)
}
