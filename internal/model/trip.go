package model

import "time"

// Trip represents one scheduled bus departure.  A trip is identified
// by its route endpoints, service date, departure time and the
// vehicle assigned to it.  Trips are created by operators and are
// immutable once published; passengers never mutate them.
//
// Fields:
//  ID          – primary key identifier.
//  OperatorID  – user ID of the operator who published the trip.
//  Origin      – route origin city.
//  Destination – route destination city.
//  ServiceDate – calendar date of the departure (YYYY-MM-DD).
//  DepartsAt   – full departure timestamp in UTC.
//  VehicleID   – carrier vehicle identifier (e.g. licence plate).
//  FareCents   – price per seat in cents.
//  SeatRows    – number of seat rows in the vehicle.
//  SeatCols    – number of seats per row.
//  CreatedAt   – creation timestamp.
type Trip struct {
    ID          uint64    // trips.id
    OperatorID  uint64    // trips.operator_id
    Origin      string    // trips.origin
    Destination string    // trips.destination
    ServiceDate string    // trips.service_date
    DepartsAt   time.Time // trips.departs_at
    VehicleID   string    // trips.vehicle_id
    FareCents   uint32    // trips.fare_cents
    SeatRows    int       // trips.seat_rows
    SeatCols    int       // trips.seat_cols
    CreatedAt   time.Time // trips.created_at
}
