package repository

import (
    "context"
    "database/sql"
    "strings"

    "github.com/redvan/bus-reservation/internal/model"
)

// BookingRepo is the MySQL implementation of BookingStore. The
// bookings table carries a unique index on hold_id; the duplicate-key
// error from the insert is what keeps a retried commit from creating
// a second booking for the same hold.
type BookingRepo struct {
    db *sql.DB
}

// NewBookingRepo returns a BookingRepo bound to the provided database.
func NewBookingRepo(db *sql.DB) *BookingRepo { return &BookingRepo{db: db} }

// Create inserts the booking and its passenger seat rows in one
// transaction, populating the generated booking ID.
func (r *BookingRepo) Create(ctx context.Context, booking *model.Booking) error {
    tx, err := r.db.BeginTx(ctx, nil)
    if err != nil {
        return err
    }
    committed := false
    defer func() {
        if !committed {
            _ = tx.Rollback()
        }
    }()
    const ins = `INSERT INTO bookings (hold_id, trip_id, user_id, fare_cents, payment_ref, status)
                 VALUES (?, ?, ?, ?, ?, ?)`
    res, err := tx.ExecContext(ctx, ins,
        booking.HoldID, booking.TripID, booking.UserID,
        booking.FareCents, booking.PaymentRef, string(booking.Status))
    if err != nil {
        if strings.Contains(strings.ToLower(err.Error()), "1062") {
            return ErrDuplicateHold
        }
        return err
    }
    id, err := res.LastInsertId()
    if err != nil {
        return err
    }
    booking.ID = uint64(id)
    if len(booking.Passengers) > 0 {
        query := `INSERT INTO booking_seats (booking_id, seat_label, passenger_name, passenger_phone) VALUES `
        args := make([]interface{}, 0, len(booking.Passengers)*4)
        for i, p := range booking.Passengers {
            if i > 0 {
                query += ","
            }
            query += "(?, ?, ?, ?)"
            args = append(args, booking.ID, p.SeatLabel, p.FullName, p.Phone)
        }
        if _, err := tx.ExecContext(ctx, query, args...); err != nil {
            return err
        }
    }
    if err := tx.Commit(); err != nil {
        return err
    }
    committed = true
    return nil
}

// GetByID returns a booking with its passengers or ErrBookingNotFound.
func (r *BookingRepo) GetByID(ctx context.Context, id uint64) (*model.Booking, error) {
    return r.getWhere(ctx, "id = ?", id)
}

// GetByHoldID returns the booking committed from the given hold or
// ErrBookingNotFound.
func (r *BookingRepo) GetByHoldID(ctx context.Context, holdID string) (*model.Booking, error) {
    return r.getWhere(ctx, "hold_id = ?", holdID)
}

func (r *BookingRepo) getWhere(ctx context.Context, cond string, arg interface{}) (*model.Booking, error) {
    q := `SELECT id, hold_id, trip_id, user_id, fare_cents, payment_ref, status, created_at, updated_at
          FROM bookings WHERE ` + cond + ` LIMIT 1`
    var b model.Booking
    err := r.db.QueryRowContext(ctx, q, arg).Scan(
        &b.ID, &b.HoldID, &b.TripID, &b.UserID,
        &b.FareCents, &b.PaymentRef, &b.Status, &b.CreatedAt, &b.UpdatedAt)
    if err == sql.ErrNoRows {
        return nil, ErrBookingNotFound
    }
    if err != nil {
        return nil, err
    }
    passengers, err := r.passengers(ctx, b.ID)
    if err != nil {
        return nil, err
    }
    b.Passengers = passengers
    return &b, nil
}

func (r *BookingRepo) passengers(ctx context.Context, bookingID uint64) ([]model.Passenger, error) {
    rows, err := r.db.QueryContext(ctx,
        `SELECT seat_label, passenger_name, passenger_phone FROM booking_seats
         WHERE booking_id = ? ORDER BY seat_label`, bookingID)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    var passengers []model.Passenger
    for rows.Next() {
        var p model.Passenger
        if err := rows.Scan(&p.SeatLabel, &p.FullName, &p.Phone); err != nil {
            return nil, err
        }
        passengers = append(passengers, p)
    }
    return passengers, rows.Err()
}

// ListByUser returns all bookings of a user, newest first.
func (r *BookingRepo) ListByUser(ctx context.Context, userID uint64) ([]model.Booking, error) {
    const q = `SELECT id, hold_id, trip_id, user_id, fare_cents, payment_ref, status, created_at, updated_at
               FROM bookings WHERE user_id = ? ORDER BY id DESC`
    rows, err := r.db.QueryContext(ctx, q, userID)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    var bookings []model.Booking
    for rows.Next() {
        var b model.Booking
        if err := rows.Scan(&b.ID, &b.HoldID, &b.TripID, &b.UserID,
            &b.FareCents, &b.PaymentRef, &b.Status, &b.CreatedAt, &b.UpdatedAt); err != nil {
            return nil, err
        }
        bookings = append(bookings, b)
    }
    if err := rows.Err(); err != nil {
        return nil, err
    }
    for i := range bookings {
        passengers, err := r.passengers(ctx, bookings[i].ID)
        if err != nil {
            return nil, err
        }
        bookings[i].Passengers = passengers
    }
    return bookings, nil
}

// UpdateStatus transitions a booking from one status to another.
// False without error means the booking was not in the from status.
func (r *BookingRepo) UpdateStatus(ctx context.Context, id uint64, from, to model.BookingStatus) (bool, error) {
    res, err := r.db.ExecContext(ctx,
        `UPDATE bookings SET status = ? WHERE id = ? AND status = ?`,
        string(to), id, string(from))
    if err != nil {
        return false, err
    }
    n, err := res.RowsAffected()
    if err != nil {
        return false, err
    }
    return n == 1, nil
}
