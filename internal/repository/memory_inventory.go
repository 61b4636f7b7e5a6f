package repository

import (
    "context"
    "sort"
    "strings"
    "sync"
    "time"

    "github.com/redvan/bus-reservation/internal/model"
)

// MemoryInventory implements TripStore and InventoryStore with
// in-memory maps. It is used by tests and for local development
// without a database. The mutex gives the same all-or-nothing
// guarantee for CompareAndSwapSeats that the MySQL implementation
// gets from its transaction.
type MemoryInventory struct {
    mu     sync.Mutex
    nextID uint64
    trips  map[uint64]*model.Trip
    seats  map[uint64]map[string]*model.TripSeat
}

// NewMemoryInventory creates an empty in-memory trip/seat store.
func NewMemoryInventory() *MemoryInventory {
    return &MemoryInventory{
        trips: make(map[uint64]*model.Trip),
        seats: make(map[uint64]map[string]*model.TripSeat),
    }
}

// Create stores the trip and one AVAILABLE seat per label.
func (m *MemoryInventory) Create(ctx context.Context, trip *model.Trip, seatLabels []string) error {
    m.mu.Lock()
    defer m.mu.Unlock()
    m.nextID++
    trip.ID = m.nextID
    trip.CreatedAt = time.Now().UTC()
    t := *trip
    m.trips[trip.ID] = &t
    seats := make(map[string]*model.TripSeat, len(seatLabels))
    now := time.Now().UTC()
    for _, l := range seatLabels {
        seats[l] = &model.TripSeat{
            TripID:    trip.ID,
            Label:     l,
            State:     model.SeatAvailable,
            CreatedAt: now,
            UpdatedAt: now,
        }
    }
    m.seats[trip.ID] = seats
    return nil
}

// GetByID returns a copy of the trip or ErrTripNotFound.
func (m *MemoryInventory) GetByID(ctx context.Context, id uint64) (*model.Trip, error) {
    m.mu.Lock()
    defer m.mu.Unlock()
    t, ok := m.trips[id]
    if !ok {
        return nil, ErrTripNotFound
    }
    cp := *t
    return &cp, nil
}

// Search filters trips by origin, destination and service date.
func (m *MemoryInventory) Search(ctx context.Context, q TripSearchQuery) ([]model.Trip, error) {
    m.mu.Lock()
    defer m.mu.Unlock()
    var out []model.Trip
    for _, t := range m.trips {
        if q.Origin != "" && !strings.EqualFold(q.Origin, t.Origin) {
            continue
        }
        if q.Destination != "" && !strings.EqualFold(q.Destination, t.Destination) {
            continue
        }
        if q.ServiceDate != "" && q.ServiceDate != t.ServiceDate {
            continue
        }
        out = append(out, *t)
    }
    sort.Slice(out, func(i, j int) bool { return out[i].DepartsAt.Before(out[j].DepartsAt) })
    return out, nil
}

// ListByOperator returns trips created by the operator.
func (m *MemoryInventory) ListByOperator(ctx context.Context, operatorID uint64) ([]model.Trip, error) {
    m.mu.Lock()
    defer m.mu.Unlock()
    var out []model.Trip
    for _, t := range m.trips {
        if t.OperatorID == operatorID {
            out = append(out, *t)
        }
    }
    sort.Slice(out, func(i, j int) bool { return out[i].DepartsAt.Before(out[j].DepartsAt) })
    return out, nil
}

// SeatStates returns copies of all seats of a trip keyed by label.
func (m *MemoryInventory) SeatStates(ctx context.Context, tripID uint64) (map[string]model.TripSeat, error) {
    m.mu.Lock()
    defer m.mu.Unlock()
    seats, ok := m.seats[tripID]
    if !ok {
        return nil, ErrTripNotFound
    }
    out := make(map[string]model.TripSeat, len(seats))
    for l, s := range seats {
        out[l] = *s
    }
    return out, nil
}

// CompareAndSwapSeats checks every named seat against the expected
// state (and holder token) under the lock, then applies the whole
// transition or none of it.
func (m *MemoryInventory) CompareAndSwapSeats(ctx context.Context, tripID uint64, labels []string, expected, next model.SeatState, holderToken string, holdExpiresAt *time.Time) error {
    if len(labels) == 0 {
        return nil
    }
    m.mu.Lock()
    defer m.mu.Unlock()
    seats, ok := m.seats[tripID]
    if !ok {
        return ErrTripNotFound
    }
    conflict := &SeatConflictError{}
    for _, l := range labels {
        s, ok := seats[l]
        if !ok {
            conflict.Seats = append(conflict.Seats, l)
            continue
        }
        matches := s.State == expected
        if matches && expected != model.SeatAvailable {
            matches = s.HolderToken != nil && *s.HolderToken == holderToken
        }
        if !matches {
            conflict.Seats = append(conflict.Seats, l)
        }
    }
    if len(conflict.Seats) > 0 {
        return conflict
    }
    now := time.Now().UTC()
    for _, l := range labels {
        s := seats[l]
        s.State = next
        s.Version++
        s.UpdatedAt = now
        if next == model.SeatAvailable {
            s.HolderToken = nil
            s.HoldExpiresAt = nil
        } else {
            token := holderToken
            s.HolderToken = &token
            if next == model.SeatHeld && holdExpiresAt != nil {
                exp := holdExpiresAt.UTC()
                s.HoldExpiresAt = &exp
            } else {
                s.HoldExpiresAt = nil
            }
        }
    }
    return nil
}
