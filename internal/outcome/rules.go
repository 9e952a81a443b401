package outcome

import (
	"fmt"
	"sort"
	"strings"

	"github.com/Knetic/govaluate"
)

// MessageMode says how a matched rule turns the error description into a message.
type MessageMode int

const (
	// MessageNone produces no message. Used for Dismissed.
	MessageNone MessageMode = iota
	// MessageVerbatim passes the description through unchanged.
	MessageVerbatim
	// MessagePrefixed prepends Text to the description.
	MessagePrefixed
	// MessageLabeled uses Text, followed by ": description" when the description is non-empty.
	MessageLabeled
)

// ErrorRule maps native errors onto an outcome. Expression is a govaluate expression
// over the parameters `code` (number) and `description` (string).
type ErrorRule struct {
	ID         string
	Expression string
	Priority   int // lower value is evaluated first; ties keep table order
	Result     Kind
	Mode       MessageMode
	Text       string
}

func (r ErrorRule) apply(desc string) Outcome {
	switch r.Result {
	case KindDismissed:
		return Dismissed()
	case KindCompleted:
		return Completed(desc)
	}
	switch r.Mode {
	case MessageVerbatim:
		return Failed(desc)
	case MessagePrefixed:
		return Failed(r.Text + desc)
	case MessageLabeled:
		if desc == "" {
			return Failed(r.Text)
		}
		return Failed(r.Text + ": " + desc)
	default:
		return Failed("")
	}
}

// DefaultErrorRules is the native SDK's error mapping. A user cancellation arrives as a
// validation error carrying the SDK's own (misspelled) cancellation text.
var DefaultErrorRules = []ErrorRule{
	{
		ID:         "user_cancelled",
		Expression: "code == 401 && description == 'Oparation Canceld'",
		Priority:   1,
		Result:     KindDismissed,
	},
	{
		ID:         "validation_passthrough",
		Expression: "code == 401 && (description == 'Invalid' || description == 'Unable to connect to the internet')",
		Priority:   2,
		Result:     KindFailed,
		Mode:       MessageVerbatim,
	},
	{
		ID:         "validation",
		Expression: "code == 401",
		Priority:   3,
		Result:     KindFailed,
		Mode:       MessagePrefixed,
		Text:       "Validation Error: ",
	},
	{
		ID:         "server_response",
		Expression: "code == 501",
		Priority:   4,
		Result:     KindFailed,
		Mode:       MessageLabeled,
		Text:       "Server Response Error",
	},
	{
		ID:         "server",
		Expression: "true",
		Priority:   5,
		Result:     KindFailed,
		Mode:       MessageLabeled,
		Text:       "Server Error",
	},
}

// fallbackRule applies when nothing in a custom table matches.
var fallbackRule = ErrorRule{ID: "server", Result: KindFailed, Mode: MessageLabeled, Text: "Server Error"}

type compiledRule struct {
	rule ErrorRule
	expr *govaluate.EvaluableExpression
}

func compileRules(rules []ErrorRule) ([]compiledRule, error) {
	ordered := make([]ErrorRule, len(rules))
	copy(ordered, rules)
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].Priority < ordered[j].Priority })

	compiled := make([]compiledRule, 0, len(ordered))
	for _, r := range ordered {
		if strings.TrimSpace(r.Expression) == "" {
			return nil, fmt.Errorf("error rule ID '%s' has an empty expression", r.ID)
		}
		expr, err := govaluate.NewEvaluableExpression(r.Expression)
		if err != nil {
			return nil, fmt.Errorf("failed to compile rule ID '%s': %w", r.ID, err)
		}
		compiled = append(compiled, compiledRule{rule: r, expr: expr})
	}
	return compiled, nil
}
