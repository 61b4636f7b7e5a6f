package model

import "time"

// LedgerKind names the hold lifecycle transition a ledger entry
// records.
type LedgerKind string

const (
    LedgerCreated   LedgerKind = "created"
    LedgerCommitted LedgerKind = "committed"
    LedgerReleased  LedgerKind = "released"
    LedgerExpired   LedgerKind = "expired"
)

// LedgerEntry is one immutable row of the reservation ledger.  One
// entry is appended per hold lifecycle transition and entries are
// never updated or deleted.  The "created" entry carries the
// client's idempotency token, which is how a retried hold request is
// recognised and answered with its prior result.
//
// Fields:
//  ID               – primary key identifier.
//  Kind             – which transition this entry records.
//  HoldID           – hold the transition belongs to.
//  TripID           – trip whose seats were affected.
//  SeatLabels       – seats affected by the transition.
//  IdempotencyToken – client token; set only on "created" entries.
//  CreatedAt        – when the entry was appended.
type LedgerEntry struct {
    ID               uint64     // ledger_entries.id
    Kind             LedgerKind // ledger_entries.kind
    HoldID           string     // ledger_entries.hold_id
    TripID           uint64     // ledger_entries.trip_id
    SeatLabels       []string   // ledger_entries.seat_labels (comma-joined)
    IdempotencyToken string     // ledger_entries.idempotency_token
    CreatedAt        time.Time  // ledger_entries.created_at
}
