package queue

// BookingConfirmedEvent is published when a hold is committed into a
// booking. It contains enough information for downstream consumers to
// log, notify, or trigger analytics without querying the primary
// database.
type BookingConfirmedEvent struct {
    BookingID   uint64   `json:"booking_id"`
    HoldID      string   `json:"hold_id"`
    UserID      uint64   `json:"user_id"`
    TripID      uint64   `json:"trip_id"`
    Origin      string   `json:"origin"`
    Destination string   `json:"destination"`
    ServiceDate string   `json:"service_date"`
    DepartsAt   string   `json:"departs_at"`
    VehicleID   string   `json:"vehicle_id"`
    SeatLabels  []string `json:"seats"`
    FareCents   uint32   `json:"fare_cents"`
    PaymentRef  string   `json:"payment_ref"`
    ConfirmedAt string   `json:"confirmed_at"`
}
