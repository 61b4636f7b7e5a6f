package repository

import (
    "context"
    "database/sql"
    "strings"
    "time"

    "github.com/redvan/bus-reservation/internal/model"
)

// HoldRepo is the MySQL implementation of HoldStore. Holds live in
// the holds table with one hold_seats row per claimed seat. The
// idempotency_token column carries a unique index; the duplicate-key
// error from the insert is how concurrent retries of the same
// request collapse into a single hold.
type HoldRepo struct {
    db *sql.DB
}

// NewHoldRepo returns a HoldRepo bound to the provided database.
func NewHoldRepo(db *sql.DB) *HoldRepo { return &HoldRepo{db: db} }

// Create inserts the hold and its seat rows in one transaction.
func (r *HoldRepo) Create(ctx context.Context, hold *model.Hold) error {
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
    const ins = `INSERT INTO holds (id, trip_id, user_id, holder_token, idempotency_token, status, expires_at)
                 VALUES (?, ?, ?, ?, ?, ?, ?)`
    _, err = tx.ExecContext(ctx, ins,
        hold.ID, hold.TripID, hold.UserID, hold.HolderToken,
        hold.IdempotencyToken, string(hold.Status), hold.ExpiresAt.UTC())
    if err != nil {
        if strings.Contains(strings.ToLower(err.Error()), "1062") {
            return ErrTokenExists
        }
        return err
    }
    if len(hold.SeatLabels) > 0 {
        query := `INSERT INTO hold_seats (hold_id, seat_label) VALUES `
        args := make([]interface{}, 0, len(hold.SeatLabels)*2)
        for i, l := range hold.SeatLabels {
            if i > 0 {
                query += ","
            }
            query += "(?, ?)"
            args = append(args, hold.ID, l)
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

// GetByID returns a hold with its seat labels or ErrHoldNotFound.
func (r *HoldRepo) GetByID(ctx context.Context, id string) (*model.Hold, error) {
    return r.getWhere(ctx, "id = ?", id)
}

// GetByIdempotencyToken returns the hold carrying the given token or
// ErrHoldNotFound.
func (r *HoldRepo) GetByIdempotencyToken(ctx context.Context, token string) (*model.Hold, error) {
    return r.getWhere(ctx, "idempotency_token = ?", token)
}

func (r *HoldRepo) getWhere(ctx context.Context, cond string, arg interface{}) (*model.Hold, error) {
    q := `SELECT id, trip_id, user_id, holder_token, idempotency_token, status, expires_at, created_at
          FROM holds WHERE ` + cond + ` LIMIT 1`
    var h model.Hold
    err := r.db.QueryRowContext(ctx, q, arg).Scan(
        &h.ID, &h.TripID, &h.UserID, &h.HolderToken,
        &h.IdempotencyToken, &h.Status, &h.ExpiresAt, &h.CreatedAt)
    if err == sql.ErrNoRows {
        return nil, ErrHoldNotFound
    }
    if err != nil {
        return nil, err
    }
    labels, err := r.seatLabels(ctx, h.ID)
    if err != nil {
        return nil, err
    }
    h.SeatLabels = labels
    return &h, nil
}

func (r *HoldRepo) seatLabels(ctx context.Context, holdID string) ([]string, error) {
    rows, err := r.db.QueryContext(ctx,
        `SELECT seat_label FROM hold_seats WHERE hold_id = ? ORDER BY seat_label`, holdID)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    var labels []string
    for rows.Next() {
        var l string
        if err := rows.Scan(&l); err != nil {
            return nil, err
        }
        labels = append(labels, l)
    }
    return labels, rows.Err()
}

// UpdateStatus moves a hold from one status to another. A false
// result without error means the hold was not in the from status,
// which callers treat as an idempotent no-op.
func (r *HoldRepo) UpdateStatus(ctx context.Context, id string, from, to model.HoldStatus) (bool, error) {
    res, err := r.db.ExecContext(ctx,
        `UPDATE holds SET status = ? WHERE id = ? AND status = ?`,
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

// ListExpired returns ACTIVE holds whose expiry is at or before now.
// A zero tripID widens the scan to all trips, which is what the
// periodic sweep uses.
func (r *HoldRepo) ListExpired(ctx context.Context, tripID uint64, now time.Time) ([]model.Hold, error) {
    q := `SELECT id, trip_id, user_id, holder_token, idempotency_token, status, expires_at, created_at
          FROM holds WHERE status = ? AND expires_at <= ?`
    args := []interface{}{string(model.HoldActive), now.UTC()}
    if tripID != 0 {
        q += ` AND trip_id = ?`
        args = append(args, tripID)
    }
    rows, err := r.db.QueryContext(ctx, q, args...)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    var holds []model.Hold
    for rows.Next() {
        var h model.Hold
        if err := rows.Scan(&h.ID, &h.TripID, &h.UserID, &h.HolderToken,
            &h.IdempotencyToken, &h.Status, &h.ExpiresAt, &h.CreatedAt); err != nil {
            return nil, err
        }
        holds = append(holds, h)
    }
    if err := rows.Err(); err != nil {
        return nil, err
    }
    for i := range holds {
        labels, err := r.seatLabels(ctx, holds[i].ID)
        if err != nil {
            return nil, err
        }
        holds[i].SeatLabels = labels
    }
    return holds, nil
}
