package repository

import (
    "context"
    "database/sql"
    "strings"

    "github.com/redvan/bus-reservation/internal/model"
)

// TripRepo is the MySQL implementation of TripStore. Publishing a
// trip inserts the trip row together with one AVAILABLE trip_seats
// row per seat label, so the inventory is complete the moment the
// trip becomes visible. Trips are never updated afterwards.
type TripRepo struct {
    db *sql.DB
}

// NewTripRepo returns a TripRepo bound to the provided database.
func NewTripRepo(db *sql.DB) *TripRepo { return &TripRepo{db: db} }

// Create inserts the trip and its seat rows in one transaction and
// populates the generated trip ID.
func (r *TripRepo) Create(ctx context.Context, trip *model.Trip, seatLabels []string) error {
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
    const ins = `INSERT INTO trips (operator_id, origin, destination, service_date, departs_at, vehicle_id, fare_cents, seat_rows, seat_cols)
                 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
    res, err := tx.ExecContext(ctx, ins,
        trip.OperatorID, trip.Origin, trip.Destination, trip.ServiceDate,
        trip.DepartsAt.UTC(), trip.VehicleID, trip.FareCents, trip.SeatRows, trip.SeatCols)
    if err != nil {
        return err
    }
    id, err := res.LastInsertId()
    if err != nil {
        return err
    }
    trip.ID = uint64(id)
    if len(seatLabels) > 0 {
        query := `INSERT INTO trip_seats (trip_id, seat_label, state) VALUES `
        args := make([]interface{}, 0, len(seatLabels)*3)
        for i, l := range seatLabels {
            if i > 0 {
                query += ","
            }
            query += "(?, ?, ?)"
            args = append(args, trip.ID, l, string(model.SeatAvailable))
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

// GetByID fetches a trip by id or returns ErrTripNotFound.
func (r *TripRepo) GetByID(ctx context.Context, id uint64) (*model.Trip, error) {
    const q = `SELECT id, operator_id, origin, destination, service_date, departs_at, vehicle_id, fare_cents, seat_rows, seat_cols, created_at
               FROM trips WHERE id = ? LIMIT 1`
    var t model.Trip
    err := r.db.QueryRowContext(ctx, q, id).Scan(
        &t.ID, &t.OperatorID, &t.Origin, &t.Destination, &t.ServiceDate,
        &t.DepartsAt, &t.VehicleID, &t.FareCents, &t.SeatRows, &t.SeatCols, &t.CreatedAt)
    if err == sql.ErrNoRows {
        return nil, ErrTripNotFound
    }
    if err != nil {
        return nil, err
    }
    return &t, nil
}

// Search returns trips matching the filters, soonest departure
// first. Origin and destination match case-insensitively; an empty
// filter matches everything.
func (r *TripRepo) Search(ctx context.Context, q TripSearchQuery) ([]model.Trip, error) {
    where := []string{}
    args := []interface{}{}
    if q.Origin != "" {
        where = append(where, "LOWER(origin) = ?")
        args = append(args, strings.ToLower(strings.TrimSpace(q.Origin)))
    }
    if q.Destination != "" {
        where = append(where, "LOWER(destination) = ?")
        args = append(args, strings.ToLower(strings.TrimSpace(q.Destination)))
    }
    if q.ServiceDate != "" {
        where = append(where, "service_date = ?")
        args = append(args, q.ServiceDate)
    }
    cond := "1=1"
    if len(where) > 0 {
        cond = strings.Join(where, " AND ")
    }
    query := `SELECT id, operator_id, origin, destination, service_date, departs_at, vehicle_id, fare_cents, seat_rows, seat_cols, created_at
              FROM trips WHERE ` + cond + ` ORDER BY departs_at`
    return r.list(ctx, query, args...)
}

// ListByOperator returns trips published by an operator, soonest first.
func (r *TripRepo) ListByOperator(ctx context.Context, operatorID uint64) ([]model.Trip, error) {
    const q = `SELECT id, operator_id, origin, destination, service_date, departs_at, vehicle_id, fare_cents, seat_rows, seat_cols, created_at
               FROM trips WHERE operator_id = ? ORDER BY departs_at`
    return r.list(ctx, q, operatorID)
}

func (r *TripRepo) list(ctx context.Context, query string, args ...interface{}) ([]model.Trip, error) {
    rows, err := r.db.QueryContext(ctx, query, args...)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    var trips []model.Trip
    for rows.Next() {
        var t model.Trip
        if err := rows.Scan(&t.ID, &t.OperatorID, &t.Origin, &t.Destination, &t.ServiceDate,
            &t.DepartsAt, &t.VehicleID, &t.FareCents, &t.SeatRows, &t.SeatCols, &t.CreatedAt); err != nil {
            return nil, err
        }
        trips = append(trips, t)
    }
    return trips, rows.Err()
}
