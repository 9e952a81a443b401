package native

import (
	go_context "context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourorg/payment-bridge/internal/adapter"
	"github.com/yourorg/payment-bridge/internal/description"
	"github.com/yourorg/payment-bridge/internal/outcome"
	"github.com/yourorg/payment-bridge/internal/request"
)

type presenterFunc func(string) error

func (f presenterFunc) Present(s string) error { return f(s) }

func TestNewAdapter_NilPresenterPanics(t *testing.T) {
	assert.Panics(t, func() { NewAdapter(nil) })
}

func TestAdapter_Launch_EncodesRequest(t *testing.T) {
	var presented string
	a := NewAdapter(presenterFunc(func(s string) error {
		presented = s
		return nil
	}))
	assert.Equal(t, "native", a.GetName())

	fee := decimal.RequireFromString("10.00")
	amount := decimal.RequireFromString("50.125")
	req := &request.PaymentRequest{
		Kind:       request.KindRecurring,
		Sandbox:    true,
		MerchantID: "1210001",
		Currency:   description.CurrencyLKR,
		Amount:     &amount,
		StartupFee: &fee,
		Recurrence: &description.Recurrence{Unit: description.UnitMonth, Period: 1},
		Duration:   &description.Duration{Unit: description.UnitYear, Count: 1},
		Items:      []request.Item{{Name: "Gym", Quantity: 1, Amount: &amount}},
	}
	require.NoError(t, a.Launch(go_context.Background(), req, adapter.EventSinkFunc(func(outcome.NativeEvent) {})))

	var got map[string]any
	require.NoError(t, json.Unmarshal([]byte(presented), &got))
	assert.Equal(t, "recurring", got["kind"])
	assert.Equal(t, "50.125", got["amount"], "amounts are never rounded")
	assert.Equal(t, "10.00", got["startup_fee"])
	assert.Equal(t, "1 Month", got["recurrence"])
	assert.Equal(t, "1 Year", got["duration"])
	assert.Len(t, got["item_list"], 1)
}

func TestAdapter_Deliver_RoutesToLatestSink(t *testing.T) {
	a := NewAdapter(presenterFunc(func(string) error { return nil }))
	assert.False(t, a.Deliver(outcome.ClosedEvent()), "nothing launched yet")

	var first, second int
	require.NoError(t, a.Launch(go_context.Background(), &request.PaymentRequest{}, adapter.EventSinkFunc(func(outcome.NativeEvent) { first++ })))
	require.NoError(t, a.Launch(go_context.Background(), &request.PaymentRequest{}, adapter.EventSinkFunc(func(outcome.NativeEvent) { second++ })))

	assert.True(t, a.Deliver(outcome.ClosedEvent()))
	assert.Equal(t, 0, first)
	assert.Equal(t, 1, second)
}

func TestAdapter_Launch_PresenterError(t *testing.T) {
	a := NewAdapter(presenterFunc(func(string) error { return errors.New("no activity") }))
	err := a.Launch(go_context.Background(), &request.PaymentRequest{}, adapter.EventSinkFunc(func(outcome.NativeEvent) {}))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "native: presenter failed: no activity")
}
