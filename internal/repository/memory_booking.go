package repository

import (
    "context"
    "sort"
    "sync"
    "time"

    "github.com/redvan/bus-reservation/internal/model"
)

// MemoryBookings implements BookingStore with in-memory maps,
// including the unique hold id constraint that makes retried
// commits idempotent.
type MemoryBookings struct {
    mu       sync.Mutex
    nextID   uint64
    bookings map[uint64]*model.Booking
    byHold   map[string]uint64 // hold id -> booking id
}

// NewMemoryBookings creates an empty in-memory booking store.
func NewMemoryBookings() *MemoryBookings {
    return &MemoryBookings{
        bookings: make(map[uint64]*model.Booking),
        byHold:   make(map[string]uint64),
    }
}

// Create stores the booking, enforcing hold id uniqueness.
func (m *MemoryBookings) Create(ctx context.Context, booking *model.Booking) error {
    m.mu.Lock()
    defer m.mu.Unlock()
    if _, exists := m.byHold[booking.HoldID]; exists {
        return ErrDuplicateHold
    }
    m.nextID++
    booking.ID = m.nextID
    booking.CreatedAt = time.Now().UTC()
    booking.UpdatedAt = booking.CreatedAt
    cp := copyBooking(booking)
    m.bookings[booking.ID] = cp
    m.byHold[booking.HoldID] = booking.ID
    return nil
}

// GetByID returns a copy of the booking or ErrBookingNotFound.
func (m *MemoryBookings) GetByID(ctx context.Context, id uint64) (*model.Booking, error) {
    m.mu.Lock()
    defer m.mu.Unlock()
    b, ok := m.bookings[id]
    if !ok {
        return nil, ErrBookingNotFound
    }
    return copyBooking(b), nil
}

// GetByHoldID returns the booking committed from the hold.
func (m *MemoryBookings) GetByHoldID(ctx context.Context, holdID string) (*model.Booking, error) {
    m.mu.Lock()
    defer m.mu.Unlock()
    id, ok := m.byHold[holdID]
    if !ok {
        return nil, ErrBookingNotFound
    }
    return copyBooking(m.bookings[id]), nil
}

// ListByUser returns the user's bookings, newest first.
func (m *MemoryBookings) ListByUser(ctx context.Context, userID uint64) ([]model.Booking, error) {
    m.mu.Lock()
    defer m.mu.Unlock()
    var out []model.Booking
    for _, b := range m.bookings {
        if b.UserID == userID {
            out = append(out, *copyBooking(b))
        }
    }
    sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
    return out, nil
}

// UpdateStatus transitions the booking when it is in the from status.
func (m *MemoryBookings) UpdateStatus(ctx context.Context, id uint64, from, to model.BookingStatus) (bool, error) {
    m.mu.Lock()
    defer m.mu.Unlock()
    b, ok := m.bookings[id]
    if !ok || b.Status != from {
        return false, nil
    }
    b.Status = to
    b.UpdatedAt = time.Now().UTC()
    return true, nil
}

func copyBooking(b *model.Booking) *model.Booking {
    cp := *b
    cp.Passengers = append([]model.Passenger(nil), b.Passengers...)
    return &cp
}
