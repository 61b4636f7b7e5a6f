package payment

import (
    "context"
    "fmt"
    "math/rand"
    "sync"
    "time"

    "github.com/google/uuid"
)

// MockGateway implements Gateway for development and load testing.
// It confirms charges at a configurable rate and keeps every
// transaction in memory for inspection.
type MockGateway struct {
    config       *MockGatewayConfig
    transactions sync.Map // payment ref -> *ChargeResult
}

// MockGatewayConfig holds configuration for the mock gateway.
type MockGatewayConfig struct {
    // SuccessRate is the probability of a confirmed charge (0.0 to 1.0).
    SuccessRate float64
    // DelayMs is the simulated processing delay in milliseconds.
    DelayMs int
    // DeclineReasons is the pool of reasons attached to declined charges.
    DeclineReasons []string
}

// DefaultMockGatewayConfig returns the defaults used when no config
// is supplied.
func DefaultMockGatewayConfig() *MockGatewayConfig {
    return &MockGatewayConfig{
        SuccessRate: 1.0,
        DelayMs:     0,
        DeclineReasons: []string{
            "insufficient_funds",
            "card_declined",
            "expired_card",
        },
    }
}

// NewMockGateway creates a mock gateway, clamping the success rate
// into [0, 1].
func NewMockGateway(config *MockGatewayConfig) *MockGateway {
    if config == nil {
        config = DefaultMockGatewayConfig()
    }
    if config.SuccessRate < 0 {
        config.SuccessRate = 0
    }
    if config.SuccessRate > 1 {
        config.SuccessRate = 1
    }
    return &MockGateway{config: config}
}

// Charge simulates a payment charge.
func (g *MockGateway) Charge(ctx context.Context, req *ChargeRequest) (*ChargeResult, error) {
    if req == nil {
        return nil, fmt.Errorf("charge request is required")
    }
    if g.config.DelayMs > 0 {
        select {
        case <-ctx.Done():
            return nil, ctx.Err()
        case <-time.After(time.Duration(g.config.DelayMs) * time.Millisecond):
        }
    }

    result := &ChargeResult{
        PaymentRef: fmt.Sprintf("mock_txn_%s", uuid.New().String()[:8]),
    }
    if rand.Float64() < g.config.SuccessRate {
        result.Status = StatusConfirmed
    } else {
        result.Status = StatusDeclined
        if len(g.config.DeclineReasons) > 0 {
            result.Reason = g.config.DeclineReasons[rand.Intn(len(g.config.DeclineReasons))]
        } else {
            result.Reason = "payment_failed"
        }
    }
    g.transactions.Store(result.PaymentRef, result)
    return result, nil
}

// Lookup returns a previously processed transaction by payment ref.
func (g *MockGateway) Lookup(paymentRef string) (*ChargeResult, bool) {
    v, ok := g.transactions.Load(paymentRef)
    if !ok {
        return nil, false
    }
    return v.(*ChargeResult), true
}
