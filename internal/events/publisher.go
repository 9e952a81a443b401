// Package events publishes finished payment attempts to Kafka.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"

	"github.com/yourorg/payment-bridge/internal/bridge"
	"github.com/yourorg/payment-bridge/internal/outcome"
)

const defaultWriteTimeout = 5 * time.Second

// OutcomeEvent is the message value written for each finished attempt.
type OutcomeEvent struct {
	AttemptID  string           `json:"attempt_id"`
	OrderID    string           `json:"order_id,omitempty"`
	Kind       string           `json:"kind"`
	SDK        string           `json:"sdk"`
	Outcome    string           `json:"outcome"`
	Envelope   outcome.Envelope `json:"envelope"`
	Amount     *decimal.Decimal `json:"amount,omitempty"`
	Currency   string           `json:"currency"`
	StartedAt  time.Time        `json:"started_at"`
	DurationMs int64            `json:"duration_ms"`
}

func newOutcomeEvent(s bridge.Summary) OutcomeEvent {
	return OutcomeEvent{
		AttemptID:  s.AttemptID,
		OrderID:    s.OrderID,
		Kind:       s.Kind.String(),
		SDK:        s.SDK,
		Outcome:    s.Outcome.Kind.String(),
		Envelope:   outcome.ToEnvelope(s.Outcome),
		Amount:     s.Amount,
		Currency:   string(s.Currency),
		StartedAt:  s.StartedAt,
		DurationMs: s.Duration.Milliseconds(),
	}
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Publisher implements bridge.Observer by writing one message per attempt, keyed by
// attempt id. Write failures are logged; they never reach the payment caller.
type Publisher struct {
	writer  messageWriter
	logger  *slog.Logger
	timeout time.Duration
}

// batchTimeout bounds how long a message waits for a batch to fill. The writer's
// default of one second would hold every payment reply that long.
const batchTimeout = 10 * time.Millisecond

// NewPublisher creates a Publisher with a long-lived writer for topic.
func NewPublisher(brokers []string, topic string, logger *slog.Logger) *Publisher {
	if logger == nil {
		logger = slog.Default()
	}
	return newPublisher(newWriter(brokers, topic, logger), logger)
}

// newWriter builds an asynchronous writer. Broker failures surface through the
// completion callback, so payment callers never wait on Kafka.
func newWriter(brokers []string, topic string, logger *slog.Logger) *kafka.Writer {
	return &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.LeastBytes{},
		RequiredAcks: kafka.RequireOne,
		BatchTimeout: batchTimeout,
		Async:        true,
		Completion: func(messages []kafka.Message, err error) {
			if err == nil {
				return
			}
			for _, m := range messages {
				logger.Error("outcome event not delivered", "attempt_id", string(m.Key), "error", err)
			}
		},
	}
}

func newPublisher(w messageWriter, logger *slog.Logger) *Publisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Publisher{writer: w, logger: logger, timeout: defaultWriteTimeout}
}

// Publish writes the event for s.
func (p *Publisher) Publish(ctx context.Context, s bridge.Summary) error {
	value, err := json.Marshal(newOutcomeEvent(s))
	if err != nil {
		return fmt.Errorf("events: failed to encode outcome event: %w", err)
	}
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()
	if err := p.writer.WriteMessages(ctx, kafka.Message{Key: []byte(s.AttemptID), Value: value, Time: time.Now()}); err != nil {
		return fmt.Errorf("events: failed to publish outcome for attempt %s: %w", s.AttemptID, err)
	}
	return nil
}

// AttemptFinished implements bridge.Observer.
func (p *Publisher) AttemptFinished(ctx context.Context, s bridge.Summary) {
	if err := p.Publish(context.WithoutCancel(ctx), s); err != nil {
		p.logger.Error("outcome event not published", "attempt_id", s.AttemptID, "error", err)
	}
}

func (p *Publisher) Close() error {
	return p.writer.Close()
}
