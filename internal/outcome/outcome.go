// Package outcome maps the native SDK's success, error and cancellation events onto
// the three-way result the scripting layer understands: Completed, Failed or Dismissed.
package outcome

import "fmt"

// Kind is the normalized result of one payment attempt.
type Kind int

const (
	KindCompleted Kind = iota + 1
	KindFailed
	KindDismissed
)

func (k Kind) String() string {
	switch k {
	case KindCompleted:
		return "completed"
	case KindFailed:
		return "failed"
	case KindDismissed:
		return "dismissed"
	default:
		return "unknown"
	}
}

// Messages produced by the normalizer itself rather than copied from the SDK.
const (
	MessageUnknownPaymentError = "Unknown Payment Error"
	MessageUnmappedSuccess     = "Internal Error: Could not map success response"
	MessageUnknownCallback     = "Unknown callback"
	MessageNullError           = "Null Error"
)

// Outcome is produced exactly once per attempt and consumed by exactly one callback.
type Outcome struct {
	Kind             Kind
	PaymentReference string
	Message          string
}

func Completed(reference string) Outcome {
	return Outcome{Kind: KindCompleted, PaymentReference: reference}
}

// Failed builds a failure outcome. An empty message becomes MessageNullError so the
// caller always receives something printable.
func Failed(message string) Outcome {
	if message == "" {
		message = MessageNullError
	}
	return Outcome{Kind: KindFailed, Message: message}
}

func Dismissed() Outcome {
	return Outcome{Kind: KindDismissed}
}

func (o Outcome) String() string {
	switch o.Kind {
	case KindCompleted:
		return fmt.Sprintf("completed(%s)", o.PaymentReference)
	case KindFailed:
		return fmt.Sprintf("failed(%s)", o.Message)
	default:
		return o.Kind.String()
	}
}
