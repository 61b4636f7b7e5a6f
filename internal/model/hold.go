package model

import "time"

// HoldStatus enumerates the lifecycle of a hold.  A hold starts
// ACTIVE, then moves to exactly one terminal status.
type HoldStatus string

const (
    HoldActive    HoldStatus = "ACTIVE"    // seats are held, payment pending
    HoldCommitted HoldStatus = "COMMITTED" // converted into a booking
    HoldReleased  HoldStatus = "RELEASED"  // explicitly released by the holder
    HoldExpired   HoldStatus = "EXPIRED"   // TTL elapsed before commit
)

// Hold represents a time-bounded exclusive claim over a set of seats
// on one trip.  Holds are created with a client-supplied idempotency
// token so that a retried request returns the original hold instead
// of claiming seats twice.  The holder token is a server-generated
// secret stamped onto the claimed seats; every later transition on
// those seats is guarded by it.
//
// Fields:
//  ID               – public hold identifier (UUID).
//  TripID           – trip whose seats are claimed.
//  UserID           – authenticated user who requested the hold.
//  SeatLabels       – labels of the claimed seats, deduplicated.
//  HolderToken      – opaque token guarding seat transitions.
//  IdempotencyToken – client-supplied token, unique across holds.
//  Status           – current lifecycle status.
//  ExpiresAt        – when the hold stops being valid.
//  CreatedAt        – when the hold was created.
type Hold struct {
    ID               string     // holds.id (UUID)
    TripID           uint64     // holds.trip_id
    UserID           uint64     // holds.user_id
    SeatLabels       []string   // hold_seats.seat_label rows
    HolderToken      string     // holds.holder_token
    IdempotencyToken string     // holds.idempotency_token
    Status           HoldStatus // holds.status
    ExpiresAt        time.Time  // holds.expires_at
    CreatedAt        time.Time  // holds.created_at
}
