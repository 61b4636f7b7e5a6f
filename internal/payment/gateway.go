// Package payment defines the payment processor boundary. The
// reservation core never calls it; handlers charge through a Gateway
// after a hold succeeds and commit the hold only on a Confirmed
// result.
package payment

import "context"

// ChargeStatus is the outcome of a charge attempt.
type ChargeStatus string

const (
    StatusConfirmed ChargeStatus = "CONFIRMED" // funds captured
    StatusDeclined  ChargeStatus = "DECLINED"  // processor rejected the charge
    StatusPending   ChargeStatus = "PENDING"   // outcome not yet known
)

// ChargeRequest describes one charge. Reference is the caller's
// correlation value (the hold id) that the processor echoes back.
type ChargeRequest struct {
    AmountCents uint32
    Currency    string
    Reference   string
    Method      string
}

// ChargeResult carries the processor's answer. PaymentRef is the
// processor-side transaction id recorded on the booking.
type ChargeResult struct {
    Status     ChargeStatus
    PaymentRef string
    Reason     string // set when the charge was declined
}

// Gateway is implemented by payment processor integrations. The
// charge has unknown latency and may fail; callers must size hold
// TTLs to comfortably exceed the expected round-trip.
type Gateway interface {
    Charge(ctx context.Context, req *ChargeRequest) (*ChargeResult, error)
}
