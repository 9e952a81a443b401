package bridge

import (
	go_context "context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/yourorg/payment-bridge/internal/adapter"
	mockadapter "github.com/yourorg/payment-bridge/internal/adapter/mock"
	"github.com/yourorg/payment-bridge/internal/outcome"
	"github.com/yourorg/payment-bridge/internal/request"
)

// recorder captures which callback ran and with what.
type recorder struct {
	mu        sync.Mutex
	completed []string
	errors    []string
	dismissed int
}

func (r *recorder) callbacks() Callbacks {
	return Callbacks{
		OnCompleted: func(ref string) {
			r.mu.Lock()
			defer r.mu.Unlock()
			r.completed = append(r.completed, ref)
		},
		OnError: func(msg string) {
			r.mu.Lock()
			defer r.mu.Unlock()
			r.errors = append(r.errors, msg)
		},
		OnDismissed: func() {
			r.mu.Lock()
			defer r.mu.Unlock()
			r.dismissed++
		},
	}
}

func (r *recorder) calls() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.completed) + len(r.errors) + r.dismissed
}

// MockObserver is a testify mock for Observer.
type MockObserver struct {
	mock.Mock
}

func (m *MockObserver) AttemptFinished(ctx go_context.Context, s Summary) {
	m.Called(ctx, s)
}

func validDescription() map[string]any {
	return map[string]any{
		"merchant_id": "1210001",
		"order_id":    "ItemNo12345",
		"items":       "Hello from Go",
		"amount":      "50.00",
		"currency":    "USD",
	}
}

func heldDispatcher(opts ...Option) (*Dispatcher, *mockadapter.MockAdapter) {
	sdk := mockadapter.NewMockAdapter("mock")
	sdk.LaunchFunc = mockadapter.Hold
	return NewDispatcher(sdk, opts...), sdk
}

func TestNewDispatcher_NilSDKPanics(t *testing.T) {
	assert.Panics(t, func() { NewDispatcher(nil) })
}

func TestDispatcher_Start_CompletesThroughSink(t *testing.T) {
	d, sdk := heldDispatcher()
	rec := &recorder{}

	id, err := d.Start(go_context.Background(), validDescription(), rec.callbacks())
	require.NoError(t, err)
	assert.NotEmpty(t, id)
	assert.Equal(t, StatePending, d.State())
	require.Len(t, sdk.Launches(), 1)
	assert.Equal(t, request.KindCheckout, sdk.Launches()[0].Kind)

	sdk.LastSink().Deliver(outcome.ResponseEvent(outcome.Response{
		Success: true,
		Payload: &outcome.StatusPayload{PaymentNo: 1500.0},
	}))

	assert.Equal(t, StateIdle, d.State())
	assert.Equal(t, []string{"1500"}, rec.completed)
	assert.Empty(t, rec.errors)
	assert.Zero(t, rec.dismissed)
}

func TestDispatcher_Start_DefaultMockCompletesSynchronously(t *testing.T) {
	d := NewDispatcher(mockadapter.NewMockAdapter("mock"))
	rec := &recorder{}

	_, err := d.Start(go_context.Background(), validDescription(), rec.callbacks())
	require.NoError(t, err)
	assert.Equal(t, StateIdle, d.State())
	require.Len(t, rec.completed, 1)
	assert.NotEmpty(t, rec.completed[0])
}

func TestDispatcher_Start_ValidationFailureNeverLaunches(t *testing.T) {
	d, sdk := heldDispatcher()
	rec := &recorder{}

	raw := validDescription()
	delete(raw, "merchant_id")
	id, err := d.Start(go_context.Background(), raw, rec.callbacks())

	require.Error(t, err)
	var verr *request.ValidationError
	assert.True(t, errors.As(err, &verr))
	assert.Empty(t, id)
	assert.Equal(t, []string{"Cannot find parameter, 'merchant_id' in payment object"}, rec.errors, "onError runs before Start returns")
	assert.Equal(t, StateIdle, d.State())
	assert.Empty(t, sdk.Launches())
}

func TestDispatcher_Start_RejectsWhilePending(t *testing.T) {
	d, sdk := heldDispatcher()
	first, second := &recorder{}, &recorder{}

	_, err := d.Start(go_context.Background(), validDescription(), first.callbacks())
	require.NoError(t, err)

	_, err = d.Start(go_context.Background(), validDescription(), second.callbacks())
	assert.ErrorIs(t, err, ErrAttemptInFlight)
	assert.Equal(t, []string{MessageInFlight}, second.errors)
	assert.Len(t, sdk.Launches(), 1)

	sdk.LastSink().Deliver(outcome.ClosedEvent())
	assert.Equal(t, 1, first.dismissed, "the original attempt is untouched")
	assert.Equal(t, 1, second.calls())
}

func TestDispatcher_DuplicateEventsAreDropped(t *testing.T) {
	d, sdk := heldDispatcher()
	rec := &recorder{}

	_, err := d.Start(go_context.Background(), validDescription(), rec.callbacks())
	require.NoError(t, err)
	sink := sdk.LastSink()

	sink.Deliver(outcome.ErrorEvent(outcome.CodeValidation, "Oparation Canceld"))
	sink.Deliver(outcome.ErrorEvent(outcome.CodeServerResponse, "late"))
	assert.False(t, d.Deliver(outcome.ClosedEvent()), "idle dispatcher drops events")

	assert.Equal(t, 1, rec.dismissed)
	assert.Equal(t, 1, rec.calls())
}

func TestDispatcher_StaleSinkCannotFinishNewAttempt(t *testing.T) {
	d, sdk := heldDispatcher()
	first, second := &recorder{}, &recorder{}

	_, err := d.Start(go_context.Background(), validDescription(), first.callbacks())
	require.NoError(t, err)
	staleSink := sdk.LastSink()
	staleSink.Deliver(outcome.ClosedEvent())

	_, err = d.Start(go_context.Background(), validDescription(), second.callbacks())
	require.NoError(t, err)
	staleSink.Deliver(outcome.ErrorEvent(500, "from the first attempt"))

	assert.Equal(t, StatePending, d.State())
	assert.Zero(t, second.calls())

	assert.True(t, d.Deliver(outcome.ResponseEvent(outcome.Response{Message: "Card declined"})))
	assert.Equal(t, []string{"Card declined"}, second.errors)
}

func TestDispatcher_ConcurrentDeliveryInvokesOnce(t *testing.T) {
	d, sdk := heldDispatcher()
	rec := &recorder{}

	_, err := d.Start(go_context.Background(), validDescription(), rec.callbacks())
	require.NoError(t, err)
	sink := sdk.LastSink()

	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if i%2 == 0 {
				sink.Deliver(outcome.ClosedEvent())
			} else {
				d.Deliver(outcome.ErrorEvent(500, "boom"))
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 1, rec.calls())
	assert.Equal(t, StateIdle, d.State())
}

func TestDispatcher_LaunchErrorIsDeliveredAsFailure(t *testing.T) {
	sdk := mockadapter.NewMockAdapter("broken")
	sdk.LaunchFunc = func(go_context.Context, *request.PaymentRequest, adapter.EventSink) error {
		return errors.New("no activity")
	}
	d := NewDispatcher(sdk)
	rec := &recorder{}

	id, err := d.Start(go_context.Background(), validDescription(), rec.callbacks())
	require.NoError(t, err)
	assert.NotEmpty(t, id)
	assert.Equal(t, []string{"Server Error: no activity"}, rec.errors)
	assert.Equal(t, StateIdle, d.State())
}

func TestDispatcher_NilCallbacksAreSkipped(t *testing.T) {
	d, sdk := heldDispatcher()
	_, err := d.Start(go_context.Background(), validDescription(), Callbacks{})
	require.NoError(t, err)
	assert.NotPanics(t, func() { sdk.LastSink().Deliver(outcome.ClosedEvent()) })
	assert.Equal(t, StateIdle, d.State())
}

func TestDispatcher_NotifiesObservers(t *testing.T) {
	obs := new(MockObserver)
	d, sdk := heldDispatcher(WithObservers(obs))
	rec := &recorder{}

	raw := validDescription()
	raw["recurrence"] = "1 Month"
	raw["duration"] = "Forever"
	id, err := d.Start(go_context.Background(), raw, rec.callbacks())
	require.NoError(t, err)

	obs.On("AttemptFinished", mock.Anything, mock.MatchedBy(func(s Summary) bool {
		return s.AttemptID == id &&
			s.Kind == request.KindRecurring &&
			s.SDK == "mock" &&
			s.OrderID == "ItemNo12345" &&
			s.Currency == "USD" &&
			s.Amount != nil && s.Amount.String() == "50" &&
			s.Outcome == outcome.Failed("Validation Error: Card expired")
	})).Return().Once()

	sdk.LastSink().Deliver(outcome.ErrorEvent(outcome.CodeValidation, "Card expired"))
	obs.AssertExpectations(t)
	assert.Equal(t, []string{"Validation Error: Card expired"}, rec.errors)
}

func TestDispatcher_ValidationFailureSkipsObservers(t *testing.T) {
	obs := new(MockObserver)
	d, _ := heldDispatcher(WithObservers(obs))
	_, err := d.Start(go_context.Background(), map[string]any{}, Callbacks{})
	require.Error(t, err)
	obs.AssertNotCalled(t, "AttemptFinished", mock.Anything, mock.Anything)
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "idle", StateIdle.String())
	assert.Equal(t, "pending", StatePending.String())
}

func TestDispatcher_StartUntyped(t *testing.T) {
	d, sdk := heldDispatcher()
	rec := &recorder{}

	id, err := d.StartUntyped(go_context.Background(), map[any]any{
		"merchant_id": "1210001",
		"amount":      "50.00",
		"order_id":    nil,
		42:            "answer",
	}, rec.callbacks())
	require.NoError(t, err)
	assert.NotEmpty(t, id)
	require.Len(t, sdk.Launches(), 1)
	assert.Equal(t, "1210001", sdk.Launches()[0].MerchantID)
	assert.Empty(t, sdk.Launches()[0].OrderID)

	_, err = NewDispatcher(mockadapter.NewMockAdapter("mock")).StartUntyped(go_context.Background(), map[any]any{1: "x"}, rec.callbacks())
	require.Error(t, err)
	assert.Equal(t, []string{"Cannot find parameter, 'merchant_id' in payment object"}, rec.errors)
}
