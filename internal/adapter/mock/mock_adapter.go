package mock

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/yourorg/payment-bridge/internal/adapter"
	"github.com/yourorg/payment-bridge/internal/outcome"
	"github.com/yourorg/payment-bridge/internal/request"
)

// MockAdapter is a NativeSDK for tests and local runs. It records every launch and,
// unless LaunchFunc is set, completes the attempt immediately with a fresh reference.
type MockAdapter struct {
	Name       string
	LaunchFunc func(ctx context.Context, req *request.PaymentRequest, sink adapter.EventSink) error

	mu       sync.Mutex
	launches []*request.PaymentRequest
	sinks    []adapter.EventSink
}

// NewMockAdapter creates a new MockAdapter.
func NewMockAdapter(name string) *MockAdapter {
	return &MockAdapter{Name: name}
}

// Launch implements adapter.NativeSDK.
func (m *MockAdapter) Launch(ctx context.Context, req *request.PaymentRequest, sink adapter.EventSink) error {
	m.mu.Lock()
	m.launches = append(m.launches, req)
	m.sinks = append(m.sinks, sink)
	m.mu.Unlock()

	if m.LaunchFunc != nil {
		return m.LaunchFunc(ctx, req, sink)
	}
	sink.Deliver(outcome.ResponseEvent(outcome.Response{
		Success: true,
		Payload: &outcome.StatusPayload{PaymentNo: uuid.NewString(), Status: outcome.StatusSuccess},
	}))
	return nil
}

// GetName implements adapter.NativeSDK.
func (m *MockAdapter) GetName() string {
	return m.Name
}

// Launches returns the requests handed to the adapter so far.
func (m *MockAdapter) Launches() []*request.PaymentRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*request.PaymentRequest, len(m.launches))
	copy(out, m.launches)
	return out
}

// LastSink returns the sink of the most recent launch, or nil if there was none.
func (m *MockAdapter) LastSink() adapter.EventSink {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.sinks) == 0 {
		return nil
	}
	return m.sinks[len(m.sinks)-1]
}

// Hold is a LaunchFunc that accepts the launch and delivers nothing, leaving the
// attempt pending until the test delivers through LastSink.
func Hold(context.Context, *request.PaymentRequest, adapter.EventSink) error {
	return nil
}
