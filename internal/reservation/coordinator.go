package reservation

import (
    "context"
    "crypto/rand"
    "encoding/hex"
    "errors"
    "sort"
    "strings"
    "time"

    "github.com/google/uuid"

    "github.com/redvan/bus-reservation/internal/model"
    "github.com/redvan/bus-reservation/internal/repository"
)

// maxTokenLen bounds client-supplied idempotency tokens. Anything
// longer is rejected before touching storage.
const maxTokenLen = 128

// defaultHoldTTL applies when a request does not name a TTL. It must
// comfortably exceed the expected payment round-trip.
const defaultHoldTTL = 5 * time.Minute

// Coordinator enforces the per-seat state machine. Every transition
// it performs is a single atomic conditional write against the
// inventory store; there is no multi-step critical section and no
// in-process locking, so concurrent coordinators on independent
// processes stay correct.
type Coordinator struct {
    inventory repository.InventoryStore
    ledger    repository.LedgerStore
    holds     repository.HoldStore
    clock     Clock
    ttl       time.Duration
}

// CoordinatorOption customises a Coordinator.
type CoordinatorOption func(*Coordinator)

// WithClock overrides the wall clock, used by tests.
func WithClock(c Clock) CoordinatorOption {
    return func(co *Coordinator) { co.clock = c }
}

// WithDefaultTTL overrides the default hold TTL.
func WithDefaultTTL(d time.Duration) CoordinatorOption {
    return func(co *Coordinator) {
        if d > 0 {
            co.ttl = d
        }
    }
}

// NewCoordinator constructs a Coordinator. All stores must be non-nil.
func NewCoordinator(inv repository.InventoryStore, ledger repository.LedgerStore, holds repository.HoldStore, opts ...CoordinatorOption) *Coordinator {
    if inv == nil || ledger == nil || holds == nil {
        panic("nil store passed to NewCoordinator")
    }
    c := &Coordinator{
        inventory: inv,
        ledger:    ledger,
        holds:     holds,
        clock:     SystemClock(),
        ttl:       defaultHoldTTL,
    }
    for _, opt := range opts {
        opt(c)
    }
    return c
}

// HoldRequest carries the parameters of one hold attempt.
type HoldRequest struct {
    TripID           uint64
    UserID           uint64
    SeatLabels       []string
    IdempotencyToken string
    TTL              time.Duration // zero means the coordinator default
}

// RequestHold claims all requested seats for one hold, or none of
// them. A replayed idempotency token returns the original hold
// unchanged. Any seat that is not AVAILABLE aborts the whole request
// with a SeatConflictError naming the unavailable seats.
func (c *Coordinator) RequestHold(ctx context.Context, req HoldRequest) (*model.Hold, error) {
    token := strings.TrimSpace(req.IdempotencyToken)
    if token == "" || len(token) > maxTokenLen {
        return nil, ErrInvalidToken
    }
    labels := dedupLabels(req.SeatLabels)
    if len(labels) == 0 {
        return nil, ErrEmptySeatSet
    }

    // Exactly-once under client retry: a "created" ledger entry with
    // this token means the hold already happened.
    if entry, err := c.ledger.FindCreated(ctx, token); err != nil {
        return nil, err
    } else if entry != nil {
        prior, err := c.holds.GetByID(ctx, entry.HoldID)
        if err != nil {
            return nil, err
        }
        if prior.TripID != req.TripID || !sameSeatSet(prior.SeatLabels, labels) {
            return nil, ErrTokenReuse
        }
        return prior, nil
    }

    // Unknown trips must fail before any mutation.
    if _, err := c.inventory.SeatStates(ctx, req.TripID); err != nil {
        return nil, err
    }

    now := c.clock.Now()
    if err := c.expireTrip(ctx, req.TripID, now); err != nil {
        return nil, err
    }

    ttl := req.TTL
    if ttl <= 0 {
        ttl = c.ttl
    }
    holderToken, err := newHolderToken()
    if err != nil {
        return nil, err
    }
    hold := &model.Hold{
        ID:               uuid.NewString(),
        TripID:           req.TripID,
        UserID:           req.UserID,
        SeatLabels:       labels,
        HolderToken:      holderToken,
        IdempotencyToken: token,
        Status:           model.HoldActive,
        ExpiresAt:        now.Add(ttl),
    }

    expiresAt := hold.ExpiresAt
    if err := c.inventory.CompareAndSwapSeats(ctx, req.TripID, labels,
        model.SeatAvailable, model.SeatHeld, holderToken, &expiresAt); err != nil {
        return nil, err
    }

    if err := c.holds.Create(ctx, hold); err != nil {
        // Undo the claim before reporting; the guard token ensures we
        // only release seats we actually hold.
        _ = c.inventory.CompareAndSwapSeats(ctx, req.TripID, labels,
            model.SeatHeld, model.SeatAvailable, holderToken, nil)
        if errors.Is(err, repository.ErrTokenExists) {
            // A concurrent retry with the same token won the race.
            prior, gerr := c.holds.GetByIdempotencyToken(ctx, token)
            if gerr != nil {
                return nil, gerr
            }
            if prior.TripID != req.TripID || !sameSeatSet(prior.SeatLabels, labels) {
                return nil, ErrTokenReuse
            }
            return prior, nil
        }
        return nil, err
    }

    if err := c.ledger.Append(ctx, &model.LedgerEntry{
        Kind:             model.LedgerCreated,
        HoldID:           hold.ID,
        TripID:           hold.TripID,
        SeatLabels:       labels,
        IdempotencyToken: token,
    }); err != nil {
        return nil, err
    }
    return hold, nil
}

// ReleaseHold returns a hold's seats to the pool. It is idempotent:
// releasing an already-released, expired or committed hold is a
// no-op success. Only an unknown hold id is an error.
func (c *Coordinator) ReleaseHold(ctx context.Context, holdID string) error {
    hold, err := c.holds.GetByID(ctx, holdID)
    if err != nil {
        return err
    }
    if hold.Status != model.HoldActive {
        return nil
    }
    now := c.clock.Now()
    if !hold.ExpiresAt.After(now) {
        // Past expiry: apply the expiry transition instead, then
        // report success since the seats are free either way.
        return c.expireHold(ctx, hold)
    }
    // The CAS may conflict when a concurrent release or sweep got
    // there first; the seats are free in that case too.
    err = c.inventory.CompareAndSwapSeats(ctx, hold.TripID, hold.SeatLabels,
        model.SeatHeld, model.SeatAvailable, hold.HolderToken, nil)
    if err != nil {
        if _, ok := repository.IsSeatConflict(err); !ok {
            return err
        }
    }
    changed, err := c.holds.UpdateStatus(ctx, hold.ID, model.HoldActive, model.HoldReleased)
    if err != nil {
        return err
    }
    if changed {
        return c.ledger.Append(ctx, &model.LedgerEntry{
            Kind:       model.LedgerReleased,
            HoldID:     hold.ID,
            TripID:     hold.TripID,
            SeatLabels: hold.SeatLabels,
        })
    }
    return nil
}

// ExpireSweep transitions every ACTIVE hold whose expiry has passed
// back to AVAILABLE and records an "expired" ledger entry per hold.
// Expiry is otherwise applied lazily on access, so running the sweep
// is a convenience, not a correctness requirement. It returns the
// number of holds expired.
func (c *Coordinator) ExpireSweep(ctx context.Context, now time.Time) (int, error) {
    expired, err := c.holds.ListExpired(ctx, 0, now)
    if err != nil {
        return 0, err
    }
    n := 0
    for i := range expired {
        if err := c.expireHold(ctx, &expired[i]); err != nil {
            return n, err
        }
        n++
    }
    return n, nil
}

// SeatAvailability returns the current state of every seat on a
// trip, applying expiry to any stale holds first so that a reader
// never observes an expired HELD seat.
func (c *Coordinator) SeatAvailability(ctx context.Context, tripID uint64) (map[string]model.TripSeat, error) {
    if err := c.expireTrip(ctx, tripID, c.clock.Now()); err != nil {
        return nil, err
    }
    return c.inventory.SeatStates(ctx, tripID)
}

// expireTrip lazily applies expiry to stale holds on one trip before
// new holds are attempted against it.
func (c *Coordinator) expireTrip(ctx context.Context, tripID uint64, now time.Time) error {
    stale, err := c.holds.ListExpired(ctx, tripID, now)
    if err != nil {
        return err
    }
    for i := range stale {
        if err := c.expireHold(ctx, &stale[i]); err != nil {
            return err
        }
    }
    return nil
}

// expireHold moves one expired hold's seats back to AVAILABLE and
// marks the hold EXPIRED. Safe to call concurrently; the status
// transition decides which caller writes the ledger entry.
func (c *Coordinator) expireHold(ctx context.Context, hold *model.Hold) error {
    err := c.inventory.CompareAndSwapSeats(ctx, hold.TripID, hold.SeatLabels,
        model.SeatHeld, model.SeatAvailable, hold.HolderToken, nil)
    if err != nil {
        if _, ok := repository.IsSeatConflict(err); !ok {
            return err
        }
    }
    changed, err := c.holds.UpdateStatus(ctx, hold.ID, model.HoldActive, model.HoldExpired)
    if err != nil {
        return err
    }
    if changed {
        return c.ledger.Append(ctx, &model.LedgerEntry{
            Kind:       model.LedgerExpired,
            HoldID:     hold.ID,
            TripID:     hold.TripID,
            SeatLabels: hold.SeatLabels,
        })
    }
    return nil
}

// dedupLabels trims, uppercases and deduplicates seat labels while
// preserving a stable sorted order.
func dedupLabels(labels []string) []string {
    seen := make(map[string]struct{}, len(labels))
    out := make([]string, 0, len(labels))
    for _, l := range labels {
        l = strings.ToUpper(strings.TrimSpace(l))
        if l == "" {
            continue
        }
        if _, ok := seen[l]; !ok {
            seen[l] = struct{}{}
            out = append(out, l)
        }
    }
    sort.Strings(out)
    return out
}

// sameSeatSet compares two label slices as sets.
func sameSeatSet(a, b []string) bool {
    if len(a) != len(b) {
        return false
    }
    set := make(map[string]struct{}, len(a))
    for _, l := range a {
        set[strings.ToUpper(l)] = struct{}{}
    }
    for _, l := range b {
        if _, ok := set[strings.ToUpper(l)]; !ok {
            return false
        }
    }
    return true
}

// newHolderToken returns a 64 character random hex string used to
// guard seat transitions belonging to one hold.
func newHolderToken() (string, error) {
    b := make([]byte, 32)
    if _, err := rand.Read(b); err != nil {
        return "", err
    }
    return hex.EncodeToString(b), nil
}
