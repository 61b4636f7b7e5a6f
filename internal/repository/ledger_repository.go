package repository

import (
    "context"
    "database/sql"
    "strings"

    "github.com/redvan/bus-reservation/internal/model"
)

// LedgerRepo is the MySQL implementation of LedgerStore. Entries are
// append-only; there is no update or delete path. Seat labels are
// stored comma-joined since the ledger is only ever read back whole.
type LedgerRepo struct {
    db *sql.DB
}

// NewLedgerRepo returns a LedgerRepo bound to the provided database.
func NewLedgerRepo(db *sql.DB) *LedgerRepo { return &LedgerRepo{db: db} }

// Append inserts one entry and populates its generated ID.
func (r *LedgerRepo) Append(ctx context.Context, entry *model.LedgerEntry) error {
    const q = `INSERT INTO ledger_entries (kind, hold_id, trip_id, seat_labels, idempotency_token)
               VALUES (?, ?, ?, ?, ?)`
    var token interface{}
    if entry.IdempotencyToken != "" {
        token = entry.IdempotencyToken
    }
    res, err := r.db.ExecContext(ctx, q,
        string(entry.Kind), entry.HoldID, entry.TripID,
        strings.Join(entry.SeatLabels, ","), token)
    if err != nil {
        return err
    }
    id, err := res.LastInsertId()
    if err != nil {
        return err
    }
    entry.ID = uint64(id)
    return nil
}

// FindCreated returns the "created" entry carrying the given
// idempotency token, or (nil, nil) when no attempt with that token
// has been recorded.
func (r *LedgerRepo) FindCreated(ctx context.Context, idempotencyToken string) (*model.LedgerEntry, error) {
    const q = `SELECT id, kind, hold_id, trip_id, seat_labels, idempotency_token, created_at
               FROM ledger_entries WHERE kind = ? AND idempotency_token = ? LIMIT 1`
    entry, err := r.scanOne(r.db.QueryRowContext(ctx, q, string(model.LedgerCreated), idempotencyToken))
    if err == sql.ErrNoRows {
        return nil, nil
    }
    return entry, err
}

// ListByHold returns every entry for a hold in append order.
func (r *LedgerRepo) ListByHold(ctx context.Context, holdID string) ([]model.LedgerEntry, error) {
    const q = `SELECT id, kind, hold_id, trip_id, seat_labels, idempotency_token, created_at
               FROM ledger_entries WHERE hold_id = ? ORDER BY id`
    rows, err := r.db.QueryContext(ctx, q, holdID)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    var entries []model.LedgerEntry
    for rows.Next() {
        var (
            e      model.LedgerEntry
            labels string
            token  sql.NullString
        )
        if err := rows.Scan(&e.ID, &e.Kind, &e.HoldID, &e.TripID, &labels, &token, &e.CreatedAt); err != nil {
            return nil, err
        }
        if labels != "" {
            e.SeatLabels = strings.Split(labels, ",")
        }
        if token.Valid {
            e.IdempotencyToken = token.String
        }
        entries = append(entries, e)
    }
    return entries, rows.Err()
}

type rowScanner interface {
    Scan(dest ...interface{}) error
}

func (r *LedgerRepo) scanOne(row rowScanner) (*model.LedgerEntry, error) {
    var (
        e      model.LedgerEntry
        labels string
        token  sql.NullString
    )
    if err := row.Scan(&e.ID, &e.Kind, &e.HoldID, &e.TripID, &labels, &token, &e.CreatedAt); err != nil {
        return nil, err
    }
    if labels != "" {
        e.SeatLabels = strings.Split(labels, ",")
    }
    if token.Valid {
        e.IdempotencyToken = token.String
    }
    return &e, nil
}
