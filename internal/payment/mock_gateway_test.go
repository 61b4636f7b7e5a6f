package payment

import (
    "context"
    "testing"

    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"
)

func TestMockGatewayConfirmsByDefault(t *testing.T) {
    g := NewMockGateway(nil)

    result, err := g.Charge(context.Background(), &ChargeRequest{
        AmountCents: 5000,
        Currency:    "USD",
        Reference:   "hold-123",
        Method:      "card",
    })
    require.NoError(t, err)
    assert.Equal(t, StatusConfirmed, result.Status)
    assert.NotEmpty(t, result.PaymentRef)
    assert.Empty(t, result.Reason)

    looked, ok := g.Lookup(result.PaymentRef)
    require.True(t, ok)
    assert.Equal(t, result, looked)
}

func TestMockGatewayDeclines(t *testing.T) {
    g := NewMockGateway(&MockGatewayConfig{
        SuccessRate:    0,
        DeclineReasons: []string{"insufficient_funds"},
    })

    result, err := g.Charge(context.Background(), &ChargeRequest{AmountCents: 100, Currency: "USD"})
    require.NoError(t, err)
    assert.Equal(t, StatusDeclined, result.Status)
    assert.Equal(t, "insufficient_funds", result.Reason)
}

func TestMockGatewayRejectsNilRequest(t *testing.T) {
    g := NewMockGateway(nil)
    _, err := g.Charge(context.Background(), nil)
    assert.Error(t, err)
}

func TestMockGatewayClampsSuccessRate(t *testing.T) {
    g := NewMockGateway(&MockGatewayConfig{SuccessRate: 7})
    result, err := g.Charge(context.Background(), &ChargeRequest{AmountCents: 100, Currency: "USD"})
    require.NoError(t, err)
    assert.Equal(t, StatusConfirmed, result.Status)
}

func TestMockGatewayLookupUnknownRef(t *testing.T) {
    g := NewMockGateway(nil)
    _, ok := g.Lookup("missing")
    assert.False(t, ok)
}
