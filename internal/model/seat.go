package model

import "time"

// SeatState enumerates the lifecycle states of a trip seat.  A seat
// is AVAILABLE until a hold claims it, HELD while a hold is pending
// payment and BOOKED once a booking has been committed.  The only
// legal transitions are AVAILABLE→HELD, HELD→BOOKED, HELD→AVAILABLE
// (release or expiry) and BOOKED→AVAILABLE (cancellation).
type SeatState string

const (
    SeatAvailable SeatState = "AVAILABLE" // free for new holds
    SeatHeld      SeatState = "HELD"      // claimed by an unexpired hold
    SeatBooked    SeatState = "BOOKED"    // part of a committed booking
)

// TripSeat describes one seat of one trip.  Seats are uniquely
// identified by (trip id, seat label) where labels follow the
// row-letter plus column-number scheme, e.g. "A1" or "C4".  At most
// one holder token may be attached to a seat at any instant; the
// token and the expiry are null while the seat is AVAILABLE.
//
// Fields:
//  ID            – primary key identifier.
//  TripID        – trip to which this seat belongs.
//  Label         – seat label within the vehicle, unique per trip.
//  State         – current seat state.
//  HolderToken   – token of the hold owning the seat (nullable).
//  HoldExpiresAt – when the owning hold expires (nullable).
//  Version       – optimistic locking counter, bumped on every
//                  state transition.
//  CreatedAt     – timestamp when the row was inserted.
//  UpdatedAt     – timestamp of last modification.
type TripSeat struct {
    ID            uint64     // trip_seats.id
    TripID        uint64     // trip_seats.trip_id
    Label         string     // trip_seats.seat_label
    State         SeatState  // trip_seats.state
    HolderToken   *string    // trip_seats.holder_token (nullable)
    HoldExpiresAt *time.Time // trip_seats.hold_expires_at (nullable)
    Version       uint32     // trip_seats.version
    CreatedAt     time.Time  // trip_seats.created_at
    UpdatedAt     time.Time  // trip_seats.updated_at
}
