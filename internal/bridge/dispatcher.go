// Package bridge connects a caller's payment description to the native SDK and
// routes the SDK's answer back to exactly one of the caller's callbacks.
//
// A Dispatcher holds at most one pending attempt. Start builds and validates the
// request, stores the callbacks and launches the SDK; the first native event for
// that attempt is normalized and delivered, and the slot is cleared. Later events
// for the same attempt, or events arriving while idle, are logged and dropped.
package bridge

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/yourorg/payment-bridge/internal/adapter"
	"github.com/yourorg/payment-bridge/internal/description"
	"github.com/yourorg/payment-bridge/internal/outcome"
	"github.com/yourorg/payment-bridge/internal/request"
)

// MessageInFlight is passed to OnError when Start is called while an attempt is pending.
const MessageInFlight = "Payment already in progress"

// ErrAttemptInFlight is returned by Start while another attempt is pending.
var ErrAttemptInFlight = errors.New("bridge: payment attempt already in flight")

// State is the dispatcher's lifecycle state.
type State int

const (
	StateIdle State = iota
	StatePending
)

func (s State) String() string {
	if s == StatePending {
		return "pending"
	}
	return "idle"
}

type pendingAttempt struct {
	id        string
	req       *request.PaymentRequest
	callbacks Callbacks
	started   time.Time
	span      trace.Span
}

// Dispatcher is safe for concurrent use.
type Dispatcher struct {
	sdk        adapter.NativeSDK
	builder    *request.Builder
	normalizer *outcome.Normalizer
	logger     *slog.Logger
	observers  []Observer

	mu      sync.Mutex
	pending *pendingAttempt
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

func WithBuilder(b *request.Builder) Option {
	return func(d *Dispatcher) {
		if b != nil {
			d.builder = b
		}
	}
}

func WithNormalizer(n *outcome.Normalizer) Option {
	return func(d *Dispatcher) {
		if n != nil {
			d.normalizer = n
		}
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(d *Dispatcher) {
		if l != nil {
			d.logger = l
		}
	}
}

// WithObservers appends observers notified after each delivered outcome.
func WithObservers(obs ...Observer) Option {
	return func(d *Dispatcher) {
		for _, o := range obs {
			if o != nil {
				d.observers = append(d.observers, o)
			}
		}
	}
}

// NewDispatcher creates a Dispatcher launching attempts on sdk.
func NewDispatcher(sdk adapter.NativeSDK, opts ...Option) *Dispatcher {
	if sdk == nil {
		panic("NativeSDK cannot be nil")
	}
	d := &Dispatcher{
		sdk:        sdk,
		builder:    request.NewBuilder(),
		normalizer: outcome.DefaultNormalizer(),
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(d)
	}
	d.logger = d.logger.With("sdk", sdk.GetName())
	return d
}

// State reports whether an attempt is pending.
func (d *Dispatcher) State() State {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.pending != nil {
		return StatePending
	}
	return StateIdle
}

// Start validates raw and launches a payment attempt, returning its id.
//
// If raw cannot be turned into a request, OnError runs before Start returns, the
// *request.ValidationError is returned and the SDK is never called. If an attempt is
// already pending, OnError runs with MessageInFlight and ErrAttemptInFlight is
// returned. Otherwise the outcome arrives later through cb.
func (d *Dispatcher) Start(ctx context.Context, raw map[string]any, cb Callbacks) (string, error) {
	ctx, span := otel.Tracer("bridge").Start(ctx, "Dispatcher.Start")

	req, err := d.builder.Build(ctx, raw)
	if err != nil {
		d.logger.Warn("payment description rejected", "error", err)
		span.SetStatus(codes.Error, err.Error())
		span.End()
		cb.fail(err.Error())
		return "", err
	}

	d.mu.Lock()
	if d.pending != nil {
		inFlight := d.pending.id
		d.mu.Unlock()
		d.logger.Warn("payment attempt rejected, another attempt is pending", "pending_attempt_id", inFlight)
		span.SetStatus(codes.Error, MessageInFlight)
		span.End()
		cb.fail(MessageInFlight)
		return "", ErrAttemptInFlight
	}
	p := &pendingAttempt{
		id:        uuid.NewString(),
		req:       req,
		callbacks: cb,
		started:   time.Now(),
		span:      span,
	}
	d.pending = p
	d.mu.Unlock()

	span.SetAttributes(
		attribute.String("payment.attempt_id", p.id),
		attribute.String("payment.kind", req.Kind.String()),
	)
	attemptsTotal.WithLabelValues(req.Kind.String()).Inc()
	d.logger.Info("payment attempt started", "attempt_id", p.id, "kind", req.Kind.String(), "sandbox", req.Sandbox)

	if err := d.sdk.Launch(ctx, req, &attemptSink{d: d, attemptID: p.id}); err != nil {
		d.logger.Error("native SDK launch failed", "attempt_id", p.id, "error", err)
		d.finish(p.id, outcome.ErrorEvent(0, err.Error()))
	}
	return p.id, nil
}

// StartUntyped is Start for hosts whose maps may carry non-string keys. Those
// values are kept under unkt_key_<n> placeholders and nil values read as absent.
func (d *Dispatcher) StartUntyped(ctx context.Context, raw map[any]any, cb Callbacks) (string, error) {
	return d.Start(ctx, description.Normalize(raw), cb)
}

// Deliver applies ev to whichever attempt is pending. It is meant for hosts that
// cannot keep the per-attempt sink. It reports whether ev was delivered.
func (d *Dispatcher) Deliver(ev outcome.NativeEvent) bool {
	return d.finish("", ev)
}

// finish delivers ev to the pending attempt if it matches attemptID (any attempt
// when attemptID is empty). The slot is cleared under the lock; normalization,
// the callback and observers run after it is released.
func (d *Dispatcher) finish(attemptID string, ev outcome.NativeEvent) bool {
	d.mu.Lock()
	p := d.pending
	if p == nil || (attemptID != "" && p.id != attemptID) {
		d.mu.Unlock()
		droppedEventsTotal.Inc()
		d.logger.Warn("lost reference to callback, dropping native event", "attempt_id", attemptID, "event_type", int(ev.Type))
		return false
	}
	d.pending = nil
	d.mu.Unlock()

	o := d.normalizer.Normalize(ev)
	elapsed := time.Since(p.started)

	kind := p.req.Kind.String()
	outcomesTotal.WithLabelValues(kind, o.Kind.String()).Inc()
	attemptDurationSeconds.Observe(elapsed.Seconds())

	p.span.SetAttributes(attribute.String("payment.outcome", o.Kind.String()))
	if o.Kind == outcome.KindFailed {
		p.span.SetStatus(codes.Error, o.Message)
	}
	p.span.End()

	d.logger.Info("payment attempt finished",
		"attempt_id", p.id,
		"kind", kind,
		"outcome", o.Kind.String(),
		"message", o.Message,
		"duration", elapsed,
	)

	p.callbacks.dispatch(o)

	if len(d.observers) > 0 {
		s := Summary{
			AttemptID: p.id,
			Kind:      p.req.Kind,
			SDK:       d.sdk.GetName(),
			OrderID:   p.req.OrderID,
			Currency:  p.req.Currency,
			Amount:    p.req.Amount,
			Outcome:   o,
			StartedAt: p.started,
			Duration:  elapsed,
		}
		ctx := trace.ContextWithSpan(context.Background(), p.span)
		for _, obs := range d.observers {
			obs.AttemptFinished(ctx, s)
		}
	}
	return true
}

// attemptSink is the EventSink handed to the SDK for one attempt.
type attemptSink struct {
	d         *Dispatcher
	attemptID string
}

func (s *attemptSink) Deliver(ev outcome.NativeEvent) {
	s.d.finish(s.attemptID, ev)
}
