// Package adapter defines the boundary between the bridge and the native payment SDK.
// Implementations present the payment UI (or talk to the checkout endpoint directly)
// and report back through an EventSink. They never interpret results themselves;
// mapping native events to outcomes belongs to the outcome package.
package adapter

import (
	"context"

	"github.com/yourorg/payment-bridge/internal/outcome"
	"github.com/yourorg/payment-bridge/internal/request"
)

// EventSink receives native events for one payment attempt. Deliver may be called
// from any goroutine; events after the first are dropped by the bridge.
type EventSink interface {
	Deliver(ev outcome.NativeEvent)
}

// EventSinkFunc adapts a plain function to EventSink.
type EventSinkFunc func(ev outcome.NativeEvent)

func (f EventSinkFunc) Deliver(ev outcome.NativeEvent) { f(ev) }

// NativeSDK is implemented by each payment SDK integration.
type NativeSDK interface {
	// Launch hands req to the SDK. It may return before the attempt finishes; the
	// result arrives later through sink. A non-nil error means the SDK never started
	// and no event will be delivered for this attempt.
	Launch(ctx context.Context, req *request.PaymentRequest, sink EventSink) error

	// GetName returns the name of the integration (e.g. "checkout", "mock").
	GetName() string
}
