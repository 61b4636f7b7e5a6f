package repository

import (
    "context"
    "sync"
    "time"

    "github.com/redvan/bus-reservation/internal/model"
)

// MemoryLedger implements LedgerStore with an in-memory append-only
// slice.
type MemoryLedger struct {
    mu      sync.Mutex
    entries []model.LedgerEntry
}

// NewMemoryLedger creates an empty in-memory ledger.
func NewMemoryLedger() *MemoryLedger { return &MemoryLedger{} }

// Append stores one entry and assigns its id.
func (m *MemoryLedger) Append(ctx context.Context, entry *model.LedgerEntry) error {
    m.mu.Lock()
    defer m.mu.Unlock()
    entry.ID = uint64(len(m.entries) + 1)
    entry.CreatedAt = time.Now().UTC()
    cp := *entry
    cp.SeatLabels = append([]string(nil), entry.SeatLabels...)
    m.entries = append(m.entries, cp)
    return nil
}

// FindCreated returns the "created" entry with the token, or nil.
func (m *MemoryLedger) FindCreated(ctx context.Context, idempotencyToken string) (*model.LedgerEntry, error) {
    m.mu.Lock()
    defer m.mu.Unlock()
    for i := range m.entries {
        e := m.entries[i]
        if e.Kind == model.LedgerCreated && e.IdempotencyToken == idempotencyToken {
            cp := e
            cp.SeatLabels = append([]string(nil), e.SeatLabels...)
            return &cp, nil
        }
    }
    return nil, nil
}

// ListByHold returns all entries of a hold in append order.
func (m *MemoryLedger) ListByHold(ctx context.Context, holdID string) ([]model.LedgerEntry, error) {
    m.mu.Lock()
    defer m.mu.Unlock()
    var out []model.LedgerEntry
    for _, e := range m.entries {
        if e.HoldID == holdID {
            cp := e
            cp.SeatLabels = append([]string(nil), e.SeatLabels...)
            out = append(out, cp)
        }
    }
    return out, nil
}
