package outcome

// EventType says which channel of the native SDK produced an event.
type EventType int

const (
	EventUnknown EventType = iota
	// EventResponse is the SDK's response callback, successful or not.
	EventResponse
	// EventError is the SDK's structured error (delegate) callback.
	EventError
	// EventClosed means the SDK UI finished without returning any data.
	EventClosed
)

// Error codes used by the native SDK's structured errors.
const (
	CodeValidation     = 401
	CodeServerResponse = 501
)

// Status values carried in a response payload.
const (
	StatusSuccess = 2
	StatusHold    = 3
)

// StatusPayload is the data attached to an SDK response.
type StatusPayload struct {
	// PaymentNo is the SDK's payment reference. Depending on the platform it arrives
	// as a number or a string.
	PaymentNo any
	Status    int
	Message   string
}

// completed reports whether the payload confirms the payment. Zero means the SDK
// sent no status, which is taken at its word; any other status must be success or hold.
func (p *StatusPayload) completed() bool {
	return p.Status == 0 || p.Status == StatusSuccess || p.Status == StatusHold
}

// Response is the SDK's response callback.
type Response struct {
	Success bool
	Payload *StatusPayload
	Message string
}

// NativeError is the SDK's structured error callback.
type NativeError struct {
	Code        int
	Description string
}

// NativeEvent is one event delivered by the native SDK for a payment attempt.
type NativeEvent struct {
	Type     EventType
	Response *Response
	Error    *NativeError
}

func ResponseEvent(resp Response) NativeEvent {
	return NativeEvent{Type: EventResponse, Response: &resp}
}

func ErrorEvent(code int, description string) NativeEvent {
	return NativeEvent{Type: EventError, Error: &NativeError{Code: code, Description: description}}
}

func ClosedEvent() NativeEvent {
	return NativeEvent{Type: EventClosed}
}
