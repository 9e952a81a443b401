package bridge

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/yourorg/payment-bridge/internal/description"
	"github.com/yourorg/payment-bridge/internal/outcome"
	"github.com/yourorg/payment-bridge/internal/request"
)

// Summary describes a finished attempt.
type Summary struct {
	AttemptID string
	Kind      request.Kind
	SDK       string
	OrderID   string
	Currency  description.Currency
	Amount    *decimal.Decimal
	Outcome   outcome.Outcome
	StartedAt time.Time
	Duration  time.Duration
}

// Observer is told about every attempt once its outcome has been delivered.
// Observers run on the delivering goroutine after the caller's callback.
type Observer interface {
	AttemptFinished(ctx context.Context, s Summary)
}

// ObserverFunc adapts a plain function to Observer.
type ObserverFunc func(ctx context.Context, s Summary)

func (f ObserverFunc) AttemptFinished(ctx context.Context, s Summary) { f(ctx, s) }
