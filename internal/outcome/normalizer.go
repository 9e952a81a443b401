package outcome

import (
	"encoding/json"
	"math"
	"strconv"

	"github.com/spf13/cast"
)

// Normalizer turns native events into outcomes. It is safe for concurrent use once built.
type Normalizer struct {
	rules []compiledRule
}

// NewNormalizer compiles the error table. Rules are evaluated by ascending Priority.
// A nil or empty table maps every native error through the "Server Error" fallback.
func NewNormalizer(rules []ErrorRule) (*Normalizer, error) {
	compiled, err := compileRules(rules)
	if err != nil {
		return nil, err
	}
	return &Normalizer{rules: compiled}, nil
}

// DefaultNormalizer returns a Normalizer over DefaultErrorRules.
func DefaultNormalizer() *Normalizer {
	n, err := NewNormalizer(DefaultErrorRules)
	if err != nil {
		panic("outcome: default error rules do not compile: " + err.Error())
	}
	return n
}

// Normalize maps ev onto exactly one outcome. The first matching case wins.
func (n *Normalizer) Normalize(ev NativeEvent) Outcome {
	switch ev.Type {
	case EventResponse:
		if ev.Response != nil {
			return n.normalizeResponse(*ev.Response)
		}
	case EventError:
		if ev.Error != nil {
			return n.normalizeError(*ev.Error)
		}
	case EventClosed:
		return Dismissed()
	}
	return Failed(MessageUnknownPaymentError)
}

func (n *Normalizer) normalizeResponse(resp Response) Outcome {
	if resp.Success {
		if resp.Payload == nil {
			return Failed(MessageUnmappedSuccess)
		}
		if resp.Payload.completed() {
			return Completed(FormatReference(resp.Payload.PaymentNo))
		}
	}
	if resp.Payload != nil && resp.Payload.Message != "" {
		return Failed(resp.Payload.Message)
	}
	if resp.Message != "" {
		return Failed(resp.Message)
	}
	return Failed(MessageUnknownPaymentError)
}

func (n *Normalizer) normalizeError(e NativeError) Outcome {
	params := map[string]interface{}{
		"code":        float64(e.Code),
		"description": e.Description,
	}
	for _, cr := range n.rules {
		result, err := cr.expr.Evaluate(params)
		if err != nil {
			continue
		}
		if matched, ok := result.(bool); ok && matched {
			return cr.rule.apply(e.Description)
		}
	}
	return fallbackRule.apply(e.Description)
}

// FormatReference renders a payment reference. Whole-number floats lose their decimal
// point (1500.0 becomes "1500"); other values render with their shortest exact text.
func FormatReference(v any) string {
	switch ref := v.(type) {
	case nil:
		return ""
	case string:
		return ref
	case json.Number:
		if i, err := ref.Int64(); err == nil {
			return strconv.FormatInt(i, 10)
		}
		if f, err := ref.Float64(); err == nil {
			return formatFloat(f, 64)
		}
		return ref.String()
	case float64:
		return formatFloat(ref, 64)
	case float32:
		return formatFloat(float64(ref), 32)
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return cast.ToString(ref)
	}
	if f, err := cast.ToFloat64E(v); err == nil {
		return formatFloat(f, 64)
	}
	return cast.ToString(v)
}

func formatFloat(f float64, bitSize int) string {
	if !math.IsInf(f, 0) && f == math.Trunc(f) {
		return strconv.FormatFloat(f, 'f', 0, 64)
	}
	return strconv.FormatFloat(f, 'f', -1, bitSize)
}
