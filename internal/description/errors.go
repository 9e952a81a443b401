package description

import "strings"

// FieldError is a parse failure for a single key of a payment description.
type FieldError struct {
	Field  string
	Reason string
}

func (e *FieldError) Error() string {
	return e.Reason
}

// FieldErrors collects every field failure found while validating one description.
// The first entry is the one surfaced to callers that only accept a single message.
type FieldErrors []*FieldError

func (fe FieldErrors) Error() string {
	if len(fe) == 0 {
		return ""
	}
	return fe[0].Reason
}

// Reasons returns every failure reason in the order they were found.
func (fe FieldErrors) Reasons() []string {
	reasons := make([]string, 0, len(fe))
	for _, e := range fe {
		reasons = append(reasons, e.Reason)
	}
	return reasons
}

// Summary joins all reasons, for logs and the HTTP harness.
func (fe FieldErrors) Summary() string {
	return strings.Join(fe.Reasons(), "; ")
}

func newFieldError(field, reason string) *FieldError {
	return &FieldError{Field: field, Reason: reason}
}
