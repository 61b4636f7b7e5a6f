package repository

import (
    "context"
    "sync"
    "time"

    "github.com/redvan/bus-reservation/internal/model"
)

// MemoryHolds implements HoldStore with in-memory maps, mirroring
// the MySQL contract including the unique idempotency token.
type MemoryHolds struct {
    mu      sync.Mutex
    holds   map[string]*model.Hold
    byToken map[string]string // idempotency token -> hold id
}

// NewMemoryHolds creates an empty in-memory hold store.
func NewMemoryHolds() *MemoryHolds {
    return &MemoryHolds{
        holds:   make(map[string]*model.Hold),
        byToken: make(map[string]string),
    }
}

// Create stores the hold, enforcing idempotency token uniqueness.
func (m *MemoryHolds) Create(ctx context.Context, hold *model.Hold) error {
    m.mu.Lock()
    defer m.mu.Unlock()
    if _, exists := m.byToken[hold.IdempotencyToken]; exists {
        return ErrTokenExists
    }
    hold.CreatedAt = time.Now().UTC()
    cp := *hold
    cp.SeatLabels = append([]string(nil), hold.SeatLabels...)
    m.holds[hold.ID] = &cp
    m.byToken[hold.IdempotencyToken] = hold.ID
    return nil
}

// GetByID returns a copy of the hold or ErrHoldNotFound.
func (m *MemoryHolds) GetByID(ctx context.Context, id string) (*model.Hold, error) {
    m.mu.Lock()
    defer m.mu.Unlock()
    h, ok := m.holds[id]
    if !ok {
        return nil, ErrHoldNotFound
    }
    return copyHold(h), nil
}

// GetByIdempotencyToken returns the hold created with the token.
func (m *MemoryHolds) GetByIdempotencyToken(ctx context.Context, token string) (*model.Hold, error) {
    m.mu.Lock()
    defer m.mu.Unlock()
    id, ok := m.byToken[token]
    if !ok {
        return nil, ErrHoldNotFound
    }
    return copyHold(m.holds[id]), nil
}

// UpdateStatus transitions the hold when it is in the from status.
func (m *MemoryHolds) UpdateStatus(ctx context.Context, id string, from, to model.HoldStatus) (bool, error) {
    m.mu.Lock()
    defer m.mu.Unlock()
    h, ok := m.holds[id]
    if !ok || h.Status != from {
        return false, nil
    }
    h.Status = to
    return true, nil
}

// ListExpired returns ACTIVE holds past their expiry, optionally
// narrowed to one trip.
func (m *MemoryHolds) ListExpired(ctx context.Context, tripID uint64, now time.Time) ([]model.Hold, error) {
    m.mu.Lock()
    defer m.mu.Unlock()
    var out []model.Hold
    for _, h := range m.holds {
        if h.Status != model.HoldActive {
            continue
        }
        if tripID != 0 && h.TripID != tripID {
            continue
        }
        if h.ExpiresAt.After(now) {
            continue
        }
        out = append(out, *copyHold(h))
    }
    return out, nil
}

func copyHold(h *model.Hold) *model.Hold {
    cp := *h
    cp.SeatLabels = append([]string(nil), h.SeatLabels...)
    return &cp
}
