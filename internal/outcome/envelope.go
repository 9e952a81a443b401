package outcome

// Callback types carried in an envelope.
const (
	CallbackComplete = "complete"
	CallbackError    = "error"
	CallbackDismiss  = "dismiss"
)

// Envelope is the flat result shape handed across the scripting boundary.
type Envelope struct {
	Success  bool   `json:"success"`
	Callback string `json:"jscallback"`
	Data     string `json:"jsdata,omitempty"`
}

// ToEnvelope encodes o for the scripting side.
func ToEnvelope(o Outcome) Envelope {
	switch o.Kind {
	case KindCompleted:
		return Envelope{Success: true, Callback: CallbackComplete, Data: o.PaymentReference}
	case KindDismissed:
		return Envelope{Callback: CallbackDismiss}
	default:
		return Envelope{Callback: CallbackError, Data: o.Message}
	}
}

// FromEnvelope decodes an envelope. A successful envelope always completes; an
// unrecognized callback type fails with MessageUnknownCallback.
func FromEnvelope(e Envelope) Outcome {
	if e.Success {
		return Completed(e.Data)
	}
	switch e.Callback {
	case CallbackError:
		return Failed(e.Data)
	case CallbackDismiss:
		return Dismissed()
	default:
		return Failed(MessageUnknownCallback)
	}
}

// EventFor re-encodes an already normalized outcome as a native event that
// normalizes back to the same outcome. Hosts that resolve results on the scripting
// side use it to feed envelopes through the regular delivery path.
func EventFor(o Outcome) NativeEvent {
	switch o.Kind {
	case KindCompleted:
		return ResponseEvent(Response{Success: true, Payload: &StatusPayload{PaymentNo: o.PaymentReference, Status: StatusSuccess}})
	case KindDismissed:
		return ClosedEvent()
	default:
		return ResponseEvent(Response{Message: o.Message})
	}
}
