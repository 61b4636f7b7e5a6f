package reservation

import (
    "context"
    "errors"
    "log"

    "github.com/redvan/bus-reservation/internal/model"
    "github.com/redvan/bus-reservation/internal/repository"
)

// Finalizer converts a paid hold into a permanent booking and
// handles cancellation. It never talks to the payment processor
// itself; the surrounding application calls Commit only after it has
// received a confirmed charge.
type Finalizer struct {
    inventory repository.InventoryStore
    ledger    repository.LedgerStore
    holds     repository.HoldStore
    bookings  repository.BookingStore
    clock     Clock
}

// NewFinalizer constructs a Finalizer. All stores must be non-nil.
func NewFinalizer(inv repository.InventoryStore, ledger repository.LedgerStore, holds repository.HoldStore, bookings repository.BookingStore, clock Clock) *Finalizer {
    if inv == nil || ledger == nil || holds == nil || bookings == nil {
        panic("nil store passed to NewFinalizer")
    }
    if clock == nil {
        clock = SystemClock()
    }
    return &Finalizer{inventory: inv, ledger: ledger, holds: holds, bookings: bookings, clock: clock}
}

// CommitInput carries the parameters for finalizing one hold.
type CommitInput struct {
    HoldID     string
    PaymentRef string
    Passengers []model.Passenger // one per held seat; synthesized when empty
    FareCents  uint32
}

// Commit verifies the hold is still HELD and unexpired, moves its
// seats HELD→BOOKED and writes the booking and the "committed"
// ledger entry, in that order. The two steps are visible but
// idempotent: retrying after a partial failure finds the existing
// booking through the unique hold id instead of creating a second
// one. A payment that confirms after the hold expired is a
// reportable failure, never an automatic re-hold.
func (f *Finalizer) Commit(ctx context.Context, in CommitInput) (*model.Booking, error) {
    if in.PaymentRef == "" {
        return nil, ErrPaymentRefRequired
    }
    hold, err := f.holds.GetByID(ctx, in.HoldID)
    if err != nil {
        return nil, err
    }
    switch hold.Status {
    case model.HoldCommitted:
        // Retried commit: hand back the booking that already exists.
        return f.bookings.GetByHoldID(ctx, hold.ID)
    case model.HoldReleased:
        return nil, ErrHoldNotActive
    case model.HoldExpired:
        return nil, ErrHoldExpired
    }

    now := f.clock.Now()
    if !hold.ExpiresAt.After(now) {
        f.expire(ctx, hold)
        log.Printf("finalizer: payment %s confirmed after hold %s expired; manual reconciliation required", in.PaymentRef, hold.ID)
        return nil, ErrHoldExpired
    }

    passengers, err := passengersFor(hold, in.Passengers)
    if err != nil {
        return nil, err
    }

    err = f.inventory.CompareAndSwapSeats(ctx, hold.TripID, hold.SeatLabels,
        model.SeatHeld, model.SeatBooked, hold.HolderToken, nil)
    if err != nil {
        if _, ok := repository.IsSeatConflict(err); ok {
            // The seats moved under us: either a concurrent commit of
            // the same hold already booked them, or a sweep expired
            // the hold between our check and the swap.
            if booking, berr := f.bookings.GetByHoldID(ctx, hold.ID); berr == nil {
                return booking, nil
            }
            return nil, ErrHoldExpired
        }
        return nil, err
    }

    booking := &model.Booking{
        HoldID:     hold.ID,
        TripID:     hold.TripID,
        UserID:     hold.UserID,
        Passengers: passengers,
        FareCents:  in.FareCents,
        PaymentRef: in.PaymentRef,
        Status:     model.BookingConfirmed,
    }
    if err := f.bookings.Create(ctx, booking); err != nil {
        if errors.Is(err, repository.ErrDuplicateHold) {
            return f.bookings.GetByHoldID(ctx, hold.ID)
        }
        return nil, err
    }
    if _, err := f.holds.UpdateStatus(ctx, hold.ID, model.HoldActive, model.HoldCommitted); err != nil {
        return nil, err
    }
    if err := f.ledger.Append(ctx, &model.LedgerEntry{
        Kind:       model.LedgerCommitted,
        HoldID:     hold.ID,
        TripID:     hold.TripID,
        SeatLabels: hold.SeatLabels,
    }); err != nil {
        return nil, err
    }
    return booking, nil
}

// Cancel transitions a booking to CANCELLED and returns its seats to
// the pool. The record is kept; nothing is deleted. Cancelling an
// already-cancelled booking is a no-op success.
func (f *Finalizer) Cancel(ctx context.Context, bookingID uint64) (*model.Booking, error) {
    booking, err := f.bookings.GetByID(ctx, bookingID)
    if err != nil {
        return nil, err
    }
    if booking.Status == model.BookingCancelled {
        return booking, nil
    }
    changed, err := f.bookings.UpdateStatus(ctx, booking.ID, model.BookingConfirmed, model.BookingCancelled)
    if err != nil {
        return nil, err
    }
    if !changed {
        // A concurrent cancel won; report the current record.
        return f.bookings.GetByID(ctx, bookingID)
    }
    hold, err := f.holds.GetByID(ctx, booking.HoldID)
    if err != nil {
        return nil, err
    }
    err = f.inventory.CompareAndSwapSeats(ctx, booking.TripID, hold.SeatLabels,
        model.SeatBooked, model.SeatAvailable, hold.HolderToken, nil)
    if err != nil {
        if _, ok := repository.IsSeatConflict(err); !ok {
            return nil, err
        }
    }
    booking.Status = model.BookingCancelled
    return booking, nil
}

// expire mirrors the coordinator's lazy expiry for the one hold the
// finalizer observed past its TTL.
func (f *Finalizer) expire(ctx context.Context, hold *model.Hold) {
    err := f.inventory.CompareAndSwapSeats(ctx, hold.TripID, hold.SeatLabels,
        model.SeatHeld, model.SeatAvailable, hold.HolderToken, nil)
    if err != nil {
        if _, ok := repository.IsSeatConflict(err); !ok {
            log.Printf("finalizer: expire seats for hold %s: %v", hold.ID, err)
            return
        }
    }
    changed, err := f.holds.UpdateStatus(ctx, hold.ID, model.HoldActive, model.HoldExpired)
    if err != nil {
        log.Printf("finalizer: expire hold %s: %v", hold.ID, err)
        return
    }
    if changed {
        _ = f.ledger.Append(ctx, &model.LedgerEntry{
            Kind:       model.LedgerExpired,
            HoldID:     hold.ID,
            TripID:     hold.TripID,
            SeatLabels: hold.SeatLabels,
        })
    }
}

// passengersFor validates that the provided passengers cover exactly
// the held seats, synthesizing label-only entries when none were
// provided.
func passengersFor(hold *model.Hold, provided []model.Passenger) ([]model.Passenger, error) {
    if len(provided) == 0 {
        out := make([]model.Passenger, 0, len(hold.SeatLabels))
        for _, l := range hold.SeatLabels {
            out = append(out, model.Passenger{SeatLabel: l})
        }
        return out, nil
    }
    if len(provided) != len(hold.SeatLabels) {
        return nil, ErrPassengerMismatch
    }
    held := make(map[string]bool, len(hold.SeatLabels))
    for _, l := range hold.SeatLabels {
        held[l] = true
    }
    for _, p := range provided {
        if !held[p.SeatLabel] {
            return nil, ErrPassengerMismatch
        }
        held[p.SeatLabel] = false
    }
    return provided, nil
}
