package bridge

import "github.com/yourorg/payment-bridge/internal/outcome"

// Callbacks are the caller's one-shot continuations. Exactly one of them runs per
// attempt. Nil callbacks are skipped.
type Callbacks struct {
	OnCompleted func(paymentReference string)
	OnError     func(message string)
	OnDismissed func()
}

func (c Callbacks) dispatch(o outcome.Outcome) {
	switch o.Kind {
	case outcome.KindCompleted:
		if c.OnCompleted != nil {
			c.OnCompleted(o.PaymentReference)
		}
	case outcome.KindDismissed:
		if c.OnDismissed != nil {
			c.OnDismissed()
		}
	default:
		c.fail(o.Message)
	}
}

func (c Callbacks) fail(message string) {
	if c.OnError != nil {
		c.OnError(message)
	}
}
