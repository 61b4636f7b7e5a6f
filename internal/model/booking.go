package model

import "time"

// BookingStatus enumerates booking states.  Bookings are never
// deleted; cancellation is a status transition so the audit history
// is preserved.
type BookingStatus string

const (
    BookingConfirmed BookingStatus = "CONFIRMED"
    BookingCancelled BookingStatus = "CANCELLED"
)

// Passenger carries the traveller details collected at commit time.
// One passenger occupies exactly one seat of the booking.
type Passenger struct {
    SeatLabel string `json:"seat_label"` // booking_seats.seat_label
    FullName  string `json:"full_name"`  // booking_seats.passenger_name
    Phone     string `json:"phone"`      // booking_seats.passenger_phone
}

// Booking is the permanent record produced by committing a hold with
// a confirmed payment.  The hold ID is unique across bookings, which
// is what makes a retried commit idempotent: the second attempt finds
// the existing row instead of inserting a duplicate.
//
// Fields:
//  ID         – primary key identifier.
//  HoldID     – hold this booking was committed from (unique).
//  TripID     – trip being travelled.
//  UserID     – user who owns the booking.
//  Passengers – traveller details, one per seat.
//  FareCents  – total fare in cents for all seats.
//  PaymentRef – reference returned by the payment processor.
//  Status     – CONFIRMED or CANCELLED.
//  CreatedAt  – creation timestamp.
//  UpdatedAt  – last update timestamp.
type Booking struct {
    ID         uint64        // bookings.id
    HoldID     string        // bookings.hold_id (unique)
    TripID     uint64        // bookings.trip_id
    UserID     uint64        // bookings.user_id
    Passengers []Passenger   // booking_seats rows
    FareCents  uint32        // bookings.fare_cents
    PaymentRef string        // bookings.payment_ref
    Status     BookingStatus // bookings.status
    CreatedAt  time.Time     // bookings.created_at
    UpdatedAt  time.Time     // bookings.updated_at
}

// SeatLabels returns the seat labels covered by the booking in
// passenger order.
func (b *Booking) SeatLabels() []string {
    labels := make([]string, 0, len(b.Passengers))
    for _, p := range b.Passengers {
        labels = append(labels, p.SeatLabel)
    }
    return labels
}
