package reservation

import (
    "context"
    "sync"
    "testing"
    "time"

    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"

    "github.com/redvan/bus-reservation/internal/model"
    "github.com/redvan/bus-reservation/internal/repository"
)

// fakeClock is a settable Clock for driving hold expiry in tests.
type fakeClock struct {
    mu  sync.Mutex
    now time.Time
}

func newFakeClock() *fakeClock {
    return &fakeClock{now: time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)}
}

func (f *fakeClock) Now() time.Time {
    f.mu.Lock()
    defer f.mu.Unlock()
    return f.now
}

func (f *fakeClock) Advance(d time.Duration) {
    f.mu.Lock()
    defer f.mu.Unlock()
    f.now = f.now.Add(d)
}

// testEnv bundles the in-memory stores behind one coordinator with a
// single published trip.
type testEnv struct {
    inventory *repository.MemoryInventory
    ledger    *repository.MemoryLedger
    holds     *repository.MemoryHolds
    clock     *fakeClock
    coord     *Coordinator
    tripID    uint64
}

func newTestEnv(t *testing.T) *testEnv {
    t.Helper()
    inv := repository.NewMemoryInventory()
    ledger := repository.NewMemoryLedger()
    holds := repository.NewMemoryHolds()
    clock := newFakeClock()

    trip := &model.Trip{
        OperatorID:  1,
        Origin:      "Springfield",
        Destination: "Shelbyville",
        ServiceDate: "2026-03-15",
        DepartsAt:   clock.Now().Add(24 * time.Hour),
        VehicleID:   "BUS-42",
        FareCents:   2500,
        SeatRows:    2,
        SeatCols:    4,
    }
    labels := []string{"A1", "A2", "A3", "A4", "B1", "B2", "B3", "B4"}
    require.NoError(t, inv.Create(context.Background(), trip, labels))

    coord := NewCoordinator(inv, ledger, holds, WithClock(clock))
    return &testEnv{
        inventory: inv,
        ledger:    ledger,
        holds:     holds,
        clock:     clock,
        coord:     coord,
        tripID:    trip.ID,
    }
}

func (e *testEnv) seatState(t *testing.T, label string) model.SeatState {
    t.Helper()
    seats, err := e.inventory.SeatStates(context.Background(), e.tripID)
    require.NoError(t, err)
    seat, ok := seats[label]
    require.True(t, ok, "seat %s missing", label)
    return seat.State
}

func TestRequestHoldClaimsAllSeats(t *testing.T) {
    env := newTestEnv(t)
    ctx := context.Background()

    hold, err := env.coord.RequestHold(ctx, HoldRequest{
        TripID:           env.tripID,
        UserID:           7,
        SeatLabels:       []string{"a1", "A2", "A1"}, // mixed case and a duplicate
        IdempotencyToken: "tok-claim",
    })
    require.NoError(t, err)
    assert.Equal(t, []string{"A1", "A2"}, hold.SeatLabels)
    assert.Equal(t, model.HoldActive, hold.Status)
    assert.NotEmpty(t, hold.HolderToken)

    assert.Equal(t, model.SeatHeld, env.seatState(t, "A1"))
    assert.Equal(t, model.SeatHeld, env.seatState(t, "A2"))
    assert.Equal(t, model.SeatAvailable, env.seatState(t, "A3"))

    entries, err := env.ledger.ListByHold(ctx, hold.ID)
    require.NoError(t, err)
    require.Len(t, entries, 1)
    assert.Equal(t, model.LedgerCreated, entries[0].Kind)
}

func TestRequestHoldAllOrNothing(t *testing.T) {
    env := newTestEnv(t)
    ctx := context.Background()

    _, err := env.coord.RequestHold(ctx, HoldRequest{
        TripID:           env.tripID,
        UserID:           1,
        SeatLabels:       []string{"A1", "A2"},
        IdempotencyToken: "tok-first",
    })
    require.NoError(t, err)

    // The second client overlaps on A2 only; the whole request fails
    // and the conflict names just the contested seat.
    _, err = env.coord.RequestHold(ctx, HoldRequest{
        TripID:           env.tripID,
        UserID:           2,
        SeatLabels:       []string{"A2", "A3"},
        IdempotencyToken: "tok-second",
    })
    require.Error(t, err)
    seats, ok := repository.IsSeatConflict(err)
    require.True(t, ok)
    assert.Equal(t, []string{"A2"}, seats)

    // A3 was part of the failed request and must stay free.
    assert.Equal(t, model.SeatAvailable, env.seatState(t, "A3"))
}

func TestRequestHoldIdempotentReplay(t *testing.T) {
    env := newTestEnv(t)
    ctx := context.Background()

    req := HoldRequest{
        TripID:           env.tripID,
        UserID:           3,
        SeatLabels:       []string{"B1", "B2"},
        IdempotencyToken: "tok-replay",
    }
    first, err := env.coord.RequestHold(ctx, req)
    require.NoError(t, err)

    second, err := env.coord.RequestHold(ctx, req)
    require.NoError(t, err)
    assert.Equal(t, first.ID, second.ID)
    assert.Equal(t, first.SeatLabels, second.SeatLabels)

    // Still exactly one created entry; the replay wrote nothing.
    entries, err := env.ledger.ListByHold(ctx, first.ID)
    require.NoError(t, err)
    assert.Len(t, entries, 1)
}

func TestRequestHoldTokenReuseRejected(t *testing.T) {
    env := newTestEnv(t)
    ctx := context.Background()

    _, err := env.coord.RequestHold(ctx, HoldRequest{
        TripID:           env.tripID,
        UserID:           3,
        SeatLabels:       []string{"B1"},
        IdempotencyToken: "tok-reuse",
    })
    require.NoError(t, err)

    _, err = env.coord.RequestHold(ctx, HoldRequest{
        TripID:           env.tripID,
        UserID:           3,
        SeatLabels:       []string{"B2"}, // different seat set, same token
        IdempotencyToken: "tok-reuse",
    })
    assert.ErrorIs(t, err, ErrTokenReuse)
}

func TestRequestHoldValidation(t *testing.T) {
    env := newTestEnv(t)
    ctx := context.Background()

    _, err := env.coord.RequestHold(ctx, HoldRequest{
        TripID:           env.tripID,
        SeatLabels:       []string{"A1"},
        IdempotencyToken: "",
    })
    assert.ErrorIs(t, err, ErrInvalidToken)

    _, err = env.coord.RequestHold(ctx, HoldRequest{
        TripID:           env.tripID,
        SeatLabels:       []string{" ", ""},
        IdempotencyToken: "tok-blank",
    })
    assert.ErrorIs(t, err, ErrEmptySeatSet)

    _, err = env.coord.RequestHold(ctx, HoldRequest{
        TripID:           9999,
        SeatLabels:       []string{"A1"},
        IdempotencyToken: "tok-ghost",
    })
    assert.ErrorIs(t, err, repository.ErrTripNotFound)
}

func TestRequestHoldUnknownSeatConflicts(t *testing.T) {
    env := newTestEnv(t)

    _, err := env.coord.RequestHold(context.Background(), HoldRequest{
        TripID:           env.tripID,
        SeatLabels:       []string{"Z9"},
        IdempotencyToken: "tok-z9",
    })
    require.Error(t, err)
    seats, ok := repository.IsSeatConflict(err)
    require.True(t, ok)
    assert.Equal(t, []string{"Z9"}, seats)
}

func TestReleaseHoldIdempotent(t *testing.T) {
    env := newTestEnv(t)
    ctx := context.Background()

    hold, err := env.coord.RequestHold(ctx, HoldRequest{
        TripID:           env.tripID,
        UserID:           5,
        SeatLabels:       []string{"A4"},
        IdempotencyToken: "tok-release",
    })
    require.NoError(t, err)

    require.NoError(t, env.coord.ReleaseHold(ctx, hold.ID))
    assert.Equal(t, model.SeatAvailable, env.seatState(t, "A4"))

    // Releasing again is a no-op, not an error.
    require.NoError(t, env.coord.ReleaseHold(ctx, hold.ID))

    got, err := env.holds.GetByID(ctx, hold.ID)
    require.NoError(t, err)
    assert.Equal(t, model.HoldReleased, got.Status)

    entries, err := env.ledger.ListByHold(ctx, hold.ID)
    require.NoError(t, err)
    require.Len(t, entries, 2)
    assert.Equal(t, model.LedgerReleased, entries[1].Kind)
}

func TestReleaseUnknownHold(t *testing.T) {
    env := newTestEnv(t)
    err := env.coord.ReleaseHold(context.Background(), "no-such-hold")
    assert.ErrorIs(t, err, repository.ErrHoldNotFound)
}

func TestExpiredHoldFreesSeatsLazily(t *testing.T) {
    env := newTestEnv(t)
    ctx := context.Background()

    first, err := env.coord.RequestHold(ctx, HoldRequest{
        TripID:           env.tripID,
        UserID:           1,
        SeatLabels:       []string{"A1"},
        IdempotencyToken: "tok-expire-1",
        TTL:              2 * time.Minute,
    })
    require.NoError(t, err)

    env.clock.Advance(3 * time.Minute)

    // A new hold on the same seat triggers lazy expiry and succeeds.
    second, err := env.coord.RequestHold(ctx, HoldRequest{
        TripID:           env.tripID,
        UserID:           2,
        SeatLabels:       []string{"A1"},
        IdempotencyToken: "tok-expire-2",
    })
    require.NoError(t, err)
    assert.NotEqual(t, first.ID, second.ID)

    got, err := env.holds.GetByID(ctx, first.ID)
    require.NoError(t, err)
    assert.Equal(t, model.HoldExpired, got.Status)

    entries, err := env.ledger.ListByHold(ctx, first.ID)
    require.NoError(t, err)
    require.Len(t, entries, 2)
    assert.Equal(t, model.LedgerExpired, entries[1].Kind)
}

func TestSeatAvailabilityAppliesExpiry(t *testing.T) {
    env := newTestEnv(t)
    ctx := context.Background()

    _, err := env.coord.RequestHold(ctx, HoldRequest{
        TripID:           env.tripID,
        UserID:           1,
        SeatLabels:       []string{"B3"},
        IdempotencyToken: "tok-avail",
        TTL:              time.Minute,
    })
    require.NoError(t, err)

    seats, err := env.coord.SeatAvailability(ctx, env.tripID)
    require.NoError(t, err)
    assert.Equal(t, model.SeatHeld, seats["B3"].State)

    env.clock.Advance(2 * time.Minute)

    seats, err = env.coord.SeatAvailability(ctx, env.tripID)
    require.NoError(t, err)
    assert.Equal(t, model.SeatAvailable, seats["B3"].State)
}

func TestExpireSweep(t *testing.T) {
    env := newTestEnv(t)
    ctx := context.Background()

    for i, label := range []string{"A1", "A2"} {
        _, err := env.coord.RequestHold(ctx, HoldRequest{
            TripID:           env.tripID,
            UserID:           uint64(i + 1),
            SeatLabels:       []string{label},
            IdempotencyToken: "tok-sweep-" + label,
            TTL:              time.Minute,
        })
        require.NoError(t, err)
    }
    _, err := env.coord.RequestHold(ctx, HoldRequest{
        TripID:           env.tripID,
        UserID:           3,
        SeatLabels:       []string{"A3"},
        IdempotencyToken: "tok-sweep-long",
        TTL:              time.Hour,
    })
    require.NoError(t, err)

    env.clock.Advance(5 * time.Minute)

    n, err := env.coord.ExpireSweep(ctx, env.clock.Now())
    require.NoError(t, err)
    assert.Equal(t, 2, n)

    assert.Equal(t, model.SeatAvailable, env.seatState(t, "A1"))
    assert.Equal(t, model.SeatAvailable, env.seatState(t, "A2"))
    assert.Equal(t, model.SeatHeld, env.seatState(t, "A3"))

    // Sweeping again finds nothing.
    n, err = env.coord.ExpireSweep(ctx, env.clock.Now())
    require.NoError(t, err)
    assert.Zero(t, n)
}

func TestConcurrentHoldsSingleWinner(t *testing.T) {
    env := newTestEnv(t)
    ctx := context.Background()

    const clients = 16
    var wg sync.WaitGroup
    errs := make([]error, clients)
    for i := 0; i < clients; i++ {
        wg.Add(1)
        go func(i int) {
            defer wg.Done()
            _, errs[i] = env.coord.RequestHold(ctx, HoldRequest{
                TripID:           env.tripID,
                UserID:           uint64(i + 1),
                SeatLabels:       []string{"B4"},
                IdempotencyToken: "tok-race-" + string(rune('a'+i)),
            })
        }(i)
    }
    wg.Wait()

    won := 0
    for _, err := range errs {
        if err == nil {
            won++
            continue
        }
        _, ok := repository.IsSeatConflict(err)
        assert.True(t, ok, "unexpected error: %v", err)
    }
    assert.Equal(t, 1, won)
    assert.Equal(t, model.SeatHeld, env.seatState(t, "B4"))
}
