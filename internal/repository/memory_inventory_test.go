package repository

import (
    "context"
    "testing"
    "time"

    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"

    "github.com/redvan/bus-reservation/internal/model"
)

func seedTrip(t *testing.T, inv *MemoryInventory) uint64 {
    t.Helper()
    trip := &model.Trip{
        OperatorID:  1,
        Origin:      "Springfield",
        Destination: "Shelbyville",
        ServiceDate: "2026-03-15",
        DepartsAt:   time.Date(2026, 3, 15, 8, 0, 0, 0, time.UTC),
        VehicleID:   "BUS-7",
        FareCents:   1500,
        SeatRows:    1,
        SeatCols:    4,
    }
    require.NoError(t, inv.Create(context.Background(), trip, []string{"A1", "A2", "A3", "A4"}))
    return trip.ID
}

func TestCompareAndSwapAllOrNothing(t *testing.T) {
    inv := NewMemoryInventory()
    tripID := seedTrip(t, inv)
    ctx := context.Background()
    exp := time.Now().UTC().Add(5 * time.Minute)

    // Claim A1 so the multi-seat swap below has a partial conflict.
    require.NoError(t, inv.CompareAndSwapSeats(ctx, tripID, []string{"A1"},
        model.SeatAvailable, model.SeatHeld, "holder-x", &exp))

    err := inv.CompareAndSwapSeats(ctx, tripID, []string{"A1", "A2"},
        model.SeatAvailable, model.SeatHeld, "holder-y", &exp)
    require.Error(t, err)
    seats, ok := IsSeatConflict(err)
    require.True(t, ok)
    assert.Equal(t, []string{"A1"}, seats)

    // A2 stayed untouched with its version intact.
    states, err := inv.SeatStates(ctx, tripID)
    require.NoError(t, err)
    assert.Equal(t, model.SeatAvailable, states["A2"].State)
    assert.Zero(t, states["A2"].Version)
}

func TestCompareAndSwapHolderTokenGuard(t *testing.T) {
    inv := NewMemoryInventory()
    tripID := seedTrip(t, inv)
    ctx := context.Background()
    exp := time.Now().UTC().Add(5 * time.Minute)

    require.NoError(t, inv.CompareAndSwapSeats(ctx, tripID, []string{"A3"},
        model.SeatAvailable, model.SeatHeld, "holder-x", &exp))

    // A different holder cannot transition the seat.
    err := inv.CompareAndSwapSeats(ctx, tripID, []string{"A3"},
        model.SeatHeld, model.SeatBooked, "holder-y", nil)
    _, ok := IsSeatConflict(err)
    assert.True(t, ok)

    // The owning holder can.
    require.NoError(t, inv.CompareAndSwapSeats(ctx, tripID, []string{"A3"},
        model.SeatHeld, model.SeatBooked, "holder-x", nil))

    states, err := inv.SeatStates(ctx, tripID)
    require.NoError(t, err)
    assert.Equal(t, model.SeatBooked, states["A3"].State)
    assert.Equal(t, uint32(2), states["A3"].Version)
}

func TestCompareAndSwapClearsHoldFields(t *testing.T) {
    inv := NewMemoryInventory()
    tripID := seedTrip(t, inv)
    ctx := context.Background()
    exp := time.Now().UTC().Add(5 * time.Minute)

    require.NoError(t, inv.CompareAndSwapSeats(ctx, tripID, []string{"A4"},
        model.SeatAvailable, model.SeatHeld, "holder-x", &exp))
    states, _ := inv.SeatStates(ctx, tripID)
    require.NotNil(t, states["A4"].HolderToken)
    require.NotNil(t, states["A4"].HoldExpiresAt)

    require.NoError(t, inv.CompareAndSwapSeats(ctx, tripID, []string{"A4"},
        model.SeatHeld, model.SeatAvailable, "holder-x", nil))
    states, _ = inv.SeatStates(ctx, tripID)
    assert.Nil(t, states["A4"].HolderToken)
    assert.Nil(t, states["A4"].HoldExpiresAt)
}

func TestSeatStatesUnknownTrip(t *testing.T) {
    inv := NewMemoryInventory()
    _, err := inv.SeatStates(context.Background(), 42)
    assert.ErrorIs(t, err, ErrTripNotFound)
}

func TestTripSearchFilters(t *testing.T) {
    inv := NewMemoryInventory()
    ctx := context.Background()
    mk := func(origin, dest, date string) {
        trip := &model.Trip{
            OperatorID:  1,
            Origin:      origin,
            Destination: dest,
            ServiceDate: date,
            DepartsAt:   time.Date(2026, 3, 15, 8, 0, 0, 0, time.UTC),
            VehicleID:   "BUS-1",
            FareCents:   1000,
            SeatRows:    1,
            SeatCols:    2,
        }
        require.NoError(t, inv.Create(ctx, trip, []string{"A1", "A2"}))
    }
    mk("Springfield", "Shelbyville", "2026-03-15")
    mk("Springfield", "Capital City", "2026-03-15")
    mk("Shelbyville", "Capital City", "2026-03-16")

    all, err := inv.Search(ctx, TripSearchQuery{})
    require.NoError(t, err)
    assert.Len(t, all, 3)

    got, err := inv.Search(ctx, TripSearchQuery{Origin: "Springfield"})
    require.NoError(t, err)
    assert.Len(t, got, 2)

    got, err = inv.Search(ctx, TripSearchQuery{Origin: "Springfield", Destination: "Capital City"})
    require.NoError(t, err)
    assert.Len(t, got, 1)

    got, err = inv.Search(ctx, TripSearchQuery{ServiceDate: "2026-03-16"})
    require.NoError(t, err)
    assert.Len(t, got, 1)
}
