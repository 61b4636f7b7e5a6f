package repository

import (
    "context"
    "database/sql"
    "errors"
    "strings"
    "time"

    "github.com/go-sql-driver/mysql"

    "github.com/redvan/bus-reservation/internal/model"
)

// casMaxRetries bounds the number of attempts when the database
// reports a deadlock or lock wait timeout during a compare-and-swap.
// After the last attempt the failure surfaces as a conflict so the
// caller re-queries availability instead of spinning.
const casMaxRetries = 3

// InventoryRepo is the MySQL implementation of InventoryStore. Seat
// state lives in the trip_seats table; every transition bumps the
// version column so concurrent writers can never apply a lost
// update.  All timestamps are stored in UTC.
type InventoryRepo struct {
    db *sql.DB
}

// NewInventoryRepo returns an InventoryRepo bound to the provided database.
func NewInventoryRepo(db *sql.DB) *InventoryRepo { return &InventoryRepo{db: db} }

// SeatStates returns all seats of a trip keyed by label. Unknown
// trip ids fail with ErrTripNotFound; a published trip always has at
// least one seat row, so an empty result identifies a missing trip.
func (r *InventoryRepo) SeatStates(ctx context.Context, tripID uint64) (map[string]model.TripSeat, error) {
    const q = `SELECT id, trip_id, seat_label, state, holder_token, hold_expires_at, version, created_at, updated_at
               FROM trip_seats WHERE trip_id = ?`
    rows, err := r.db.QueryContext(ctx, q, tripID)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    seats := make(map[string]model.TripSeat)
    for rows.Next() {
        var (
            s      model.TripSeat
            holder sql.NullString
            expiry sql.NullTime
        )
        if err := rows.Scan(&s.ID, &s.TripID, &s.Label, &s.State, &holder, &expiry, &s.Version, &s.CreatedAt, &s.UpdatedAt); err != nil {
            return nil, err
        }
        if holder.Valid {
            h := holder.String
            s.HolderToken = &h
        }
        if expiry.Valid {
            t := expiry.Time
            s.HoldExpiresAt = &t
        }
        seats[s.Label] = s
    }
    if err := rows.Err(); err != nil {
        return nil, err
    }
    if len(seats) == 0 {
        return nil, ErrTripNotFound
    }
    return seats, nil
}

// CompareAndSwapSeats applies one conditional multi-seat transition.
// The UPDATE touches only rows that still match the expected state
// (and the holder token when the expected state is not AVAILABLE);
// when fewer rows than requested match, the transaction is rolled
// back and the current states are read to name the offending seats.
// Deadlocks and lock wait timeouts are retried a bounded number of
// times before surfacing.
func (r *InventoryRepo) CompareAndSwapSeats(ctx context.Context, tripID uint64, labels []string, expected, next model.SeatState, holderToken string, holdExpiresAt *time.Time) error {
    if len(labels) == 0 {
        return nil
    }
    var err error
    for attempt := 0; attempt < casMaxRetries; attempt++ {
        err = r.casOnce(ctx, tripID, labels, expected, next, holderToken, holdExpiresAt)
        if err == nil || !isRetryableMySQL(err) {
            return err
        }
    }
    // Bounded retries exhausted; report as a conflict over the whole set.
    return &SeatConflictError{Seats: append([]string(nil), labels...)}
}

func (r *InventoryRepo) casOnce(ctx context.Context, tripID uint64, labels []string, expected, next model.SeatState, holderToken string, holdExpiresAt *time.Time) error {
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

    // The token stored on the row after the transition: transitions to
    // AVAILABLE detach the holder, everything else keeps or sets it.
    var nextToken interface{}
    if next != model.SeatAvailable {
        nextToken = holderToken
    }
    var nextExpiry interface{}
    if next == model.SeatHeld && holdExpiresAt != nil {
        nextExpiry = holdExpiresAt.UTC()
    }

    query := `UPDATE trip_seats SET state = ?, holder_token = ?, hold_expires_at = ?, version = version + 1
              WHERE trip_id = ? AND state = ? AND seat_label IN (` + placeholders(len(labels)) + `)`
    args := []interface{}{string(next), nextToken, nextExpiry, tripID, string(expected)}
    for _, l := range labels {
        args = append(args, l)
    }
    if expected != model.SeatAvailable {
        query += ` AND holder_token = ?`
        args = append(args, holderToken)
    }

    res, err := tx.ExecContext(ctx, query, args...)
    if err != nil {
        return err
    }
    affected, err := res.RowsAffected()
    if err != nil {
        return err
    }
    if affected != int64(len(labels)) {
        // Partial match: roll back and name the seats that failed.
        _ = tx.Rollback()
        return r.conflictFor(ctx, tripID, labels, expected, holderToken)
    }
    if err := tx.Commit(); err != nil {
        return err
    }
    committed = true
    return nil
}

// conflictFor reads the current state of the requested seats and
// builds a SeatConflictError naming every seat that no longer meets
// the precondition. Labels missing from trip_seats entirely are also
// reported as conflicting.
func (r *InventoryRepo) conflictFor(ctx context.Context, tripID uint64, labels []string, expected model.SeatState, holderToken string) error {
    query := `SELECT seat_label, state, holder_token FROM trip_seats
              WHERE trip_id = ? AND seat_label IN (` + placeholders(len(labels)) + `)`
    args := []interface{}{tripID}
    for _, l := range labels {
        args = append(args, l)
    }
    rows, err := r.db.QueryContext(ctx, query, args...)
    if err != nil {
        return err
    }
    defer rows.Close()
    ok := make(map[string]bool, len(labels))
    for rows.Next() {
        var (
            label  string
            state  string
            holder sql.NullString
        )
        if err := rows.Scan(&label, &state, &holder); err != nil {
            return err
        }
        matches := state == string(expected)
        if matches && expected != model.SeatAvailable {
            matches = holder.Valid && holder.String == holderToken
        }
        ok[label] = matches
    }
    if err := rows.Err(); err != nil {
        return err
    }
    conflict := &SeatConflictError{}
    for _, l := range labels {
        if !ok[l] {
            conflict.Seats = append(conflict.Seats, l)
        }
    }
    if len(conflict.Seats) == 0 {
        // A concurrent writer finished the same transition between our
        // UPDATE and this read; treat the full set as conflicting.
        conflict.Seats = append([]string(nil), labels...)
    }
    return conflict
}

// placeholders returns a comma-joined list of n SQL placeholders.
func placeholders(n int) string {
    return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}

// isRetryableMySQL reports whether err is a MySQL deadlock (1213) or
// lock wait timeout (1205), both of which are safe to retry.
func isRetryableMySQL(err error) bool {
    var me *mysql.MySQLError
    if errors.As(err, &me) {
        return me.Number == 1213 || me.Number == 1205
    }
    return false
}
