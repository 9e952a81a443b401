// Package mobile is the gomobile-bound surface of the payment bridge. Its API only
// uses types gomobile can bind (strings, numbers, bools, errors and interfaces), so
// Kotlin and Swift hosts can drive a payment attempt and feed the platform SDK's
// callbacks back in.
//
// Typical host flow:
//
//	b := mobile.NewBridge(presenter)
//	b.StartPayment(`{"merchant_id":"1210001","amount":"50.00",...}`, callback)
//	// later, from the SDK's result handler:
//	b.OnResponseReceived(true, `{"payment_no":320025071278,"status":2}`, "")
package mobile

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/yourorg/payment-bridge/internal/adapter/native"
	"github.com/yourorg/payment-bridge/internal/bridge"
	"github.com/yourorg/payment-bridge/internal/description"
	"github.com/yourorg/payment-bridge/internal/logger"
	"github.com/yourorg/payment-bridge/internal/outcome"
	"github.com/yourorg/payment-bridge/internal/request"
)

// Callback receives the outcome of a payment attempt. Exactly one method is called
// per StartPayment.
type Callback interface {
	OnCompleted(paymentReference string)
	OnError(message string)
	OnDismissed()
}

// Presenter shows the platform SDK's payment UI for a JSON-encoded request.
type Presenter interface {
	Present(requestJSON string) error
}

// Bridge drives one payment attempt at a time.
type Bridge struct {
	dispatcher *bridge.Dispatcher
	sdk        *native.Adapter
}

// NewBridge creates a Bridge defaulting to LKR and the sandbox environment.
func NewBridge(p Presenter) *Bridge {
	return NewBridgeWithDefaults(p, string(description.DefaultCurrency), true)
}

// NewBridgeWithDefaults creates a Bridge with the given fallback currency and
// environment. An unknown currency code falls back to LKR.
func NewBridgeWithDefaults(p Presenter, defaultCurrency string, defaultSandbox bool) *Bridge {
	currency := description.DefaultCurrency
	if description.IsKnownCurrency(defaultCurrency) {
		currency = description.Currency(defaultCurrency)
	}
	sdk := native.NewAdapter(p)
	d := bridge.NewDispatcher(sdk,
		bridge.WithBuilder(request.NewBuilder(
			request.WithDefaultCurrency(currency),
			request.WithDefaultSandbox(defaultSandbox),
		)),
		bridge.WithLogger(logger.WithComponent("mobile")),
	)
	return &Bridge{dispatcher: d, sdk: sdk}
}

// StartPayment starts an attempt for the JSON payment description and returns its
// id. On any failure before the SDK is shown, cb.OnError is called before
// StartPayment returns and the id is empty.
func (b *Bridge) StartPayment(descriptionJSON string, cb Callback) string {
	callbacks := bridge.Callbacks{}
	if cb != nil {
		callbacks = bridge.Callbacks{
			OnCompleted: cb.OnCompleted,
			OnError:     cb.OnError,
			OnDismissed: cb.OnDismissed,
		}
	}

	var raw map[string]any
	if err := json.Unmarshal([]byte(descriptionJSON), &raw); err != nil || raw == nil {
		if callbacks.OnError != nil {
			callbacks.OnError(fmt.Sprintf("Could not parse payment object: %s", describeDecodeError(err)))
		}
		return ""
	}

	id, _ := b.dispatcher.Start(context.Background(), raw, callbacks)
	return id
}

func describeDecodeError(err error) string {
	if err == nil {
		return "expected a JSON object"
	}
	return err.Error()
}

// statusPayload is the JSON form of the SDK's response data.
type statusPayload struct {
	PaymentNo any    `json:"payment_no"`
	Status    int    `json:"status"`
	Message   string `json:"message"`
}

// OnResponseReceived reports the SDK's response callback. payloadJSON is the
// response data ({"payment_no", "status", "message"}) or empty when there was none.
func (b *Bridge) OnResponseReceived(success bool, payloadJSON string, message string) {
	resp := outcome.Response{Success: success, Message: message}
	if payloadJSON != "" {
		dec := json.NewDecoder(bytes.NewReader([]byte(payloadJSON)))
		dec.UseNumber()
		var p statusPayload
		if err := dec.Decode(&p); err == nil {
			resp.Payload = &outcome.StatusPayload{PaymentNo: p.PaymentNo, Status: p.Status, Message: p.Message}
		}
	}
	b.sdk.Deliver(outcome.ResponseEvent(resp))
}

// OnErrorReceived reports the SDK's structured error callback.
func (b *Bridge) OnErrorReceived(code int, description string) {
	b.sdk.Deliver(outcome.ErrorEvent(code, description))
}

// OnClosed reports that the SDK UI finished without returning any data.
func (b *Bridge) OnClosed() {
	b.sdk.Deliver(outcome.ClosedEvent())
}

// DeliverEnvelope resolves the pending attempt from a scripting-side envelope
// ({"success", "jscallback", "jsdata"}). Malformed JSON resolves it as an unknown
// callback.
func (b *Bridge) DeliverEnvelope(envelopeJSON string) {
	var env outcome.Envelope
	if err := json.Unmarshal([]byte(envelopeJSON), &env); err != nil {
		env = outcome.Envelope{}
	}
	b.sdk.Deliver(outcome.EventFor(outcome.FromEnvelope(env)))
}

// IsPending reports whether an attempt is waiting for the SDK.
func (b *Bridge) IsPending() bool {
	return b.dispatcher.State() == bridge.StatePending
}
