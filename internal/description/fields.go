package description

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// Currency is a currency code accepted by the payment SDK.
type Currency string

const (
	CurrencyLKR Currency = "LKR"
	CurrencyUSD Currency = "USD"
	CurrencyGBP Currency = "GBP"
	CurrencyEUR Currency = "EUR"
	CurrencyAUD Currency = "AUD"

	DefaultCurrency = CurrencyLKR
)

var knownCurrencies = map[Currency]struct{}{
	CurrencyLKR: {},
	CurrencyUSD: {},
	CurrencyGBP: {},
	CurrencyEUR: {},
	CurrencyAUD: {},
}

// IsKnownCurrency reports whether code is one of the supported currencies.
func IsKnownCurrency(code string) bool {
	_, ok := knownCurrencies[Currency(code)]
	return ok
}

// Unit is the calendar unit of a recurrence or duration.
type Unit int

const (
	UnitWeek Unit = iota + 1
	UnitMonth
	UnitYear
)

func (u Unit) String() string {
	switch u {
	case UnitWeek:
		return "Week"
	case UnitMonth:
		return "Month"
	case UnitYear:
		return "Year"
	default:
		return "Unknown"
	}
}

func parseUnit(word string) (Unit, bool) {
	switch strings.ToLower(word) {
	case "week":
		return UnitWeek, true
	case "month":
		return UnitMonth, true
	case "year":
		return UnitYear, true
	}
	return 0, false
}

// Recurrence is how often a recurring payment is charged, e.g. every 2 months.
type Recurrence struct {
	Unit   Unit
	Period int
}

func (r Recurrence) String() string {
	return fmt.Sprintf("%d %s", r.Period, r.Unit)
}

// Duration is how long a recurring payment keeps charging.
type Duration struct {
	Forever bool
	Unit    Unit
	Count   int
}

func (d Duration) String() string {
	if d.Forever {
		return "Forever"
	}
	return fmt.Sprintf("%d %s", d.Count, d.Unit)
}

// ParseText returns v when it is a string. Anything else counts as "not set".
func ParseText(v any) (string, bool) {
	s, ok := v.(string)
	return s, ok
}

// ParseBool returns v when it is a bool. Anything else counts as "not set".
func ParseBool(v any) (bool, bool) {
	b, ok := v.(bool)
	return b, ok
}

// ParseAmount parses a decimal string verbatim, without scaling or rounding.
func ParseAmount(field string, v any) (decimal.Decimal, error) {
	s, ok := ParseText(v)
	if !ok {
		return decimal.Decimal{}, newFieldError(field, "Could not parse "+field)
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Decimal{}, newFieldError(field, "Could not parse "+field)
	}
	return d, nil
}

// ParseCurrency maps v to a known currency, falling back to def when v is absent or unknown.
func ParseCurrency(v any, def Currency) Currency {
	s, ok := ParseText(v)
	if !ok || !IsKnownCurrency(s) {
		return def
	}
	return Currency(s)
}

func positiveInt(token string) (int, bool) {
	n, err := strconv.Atoi(token)
	if err != nil || n <= 0 {
		return 0, false
	}
	return n, true
}

// ParseRecurrence parses "<n> week|month|year".
func ParseRecurrence(v any) (Recurrence, error) {
	s, ok := ParseText(v)
	if !ok {
		return Recurrence{}, newFieldError(KeyRecurrence, "Could not parse recurrence")
	}
	tokens := strings.Split(s, " ")
	if len(tokens) != 2 {
		return Recurrence{}, newFieldError(KeyRecurrence, "Invalid recurrence")
	}
	period, ok := positiveInt(tokens[0])
	if !ok {
		return Recurrence{}, newFieldError(KeyRecurrence, "Recurrence number is invalid")
	}
	unit, ok := parseUnit(tokens[1])
	if !ok {
		return Recurrence{}, newFieldError(KeyRecurrence, "Recurrence word is invalid")
	}
	return Recurrence{Unit: unit, Period: period}, nil
}

// ParseDuration parses "forever" or "<n> week|month|year".
// A leading "forever" wins regardless of a second token.
func ParseDuration(v any) (Duration, error) {
	s, ok := ParseText(v)
	if !ok {
		return Duration{}, newFieldError(KeyDuration, "Could not parse duration")
	}
	tokens := strings.Split(s, " ")
	if len(tokens) != 1 && len(tokens) != 2 {
		return Duration{}, newFieldError(KeyDuration, "Invalid duration")
	}
	if strings.EqualFold(tokens[0], "forever") {
		return Duration{Forever: true}, nil
	}
	if len(tokens) != 2 {
		return Duration{}, newFieldError(KeyDuration, "Invalid duration")
	}
	count, ok := positiveInt(tokens[0])
	if !ok {
		return Duration{}, newFieldError(KeyDuration, "Duration number is invalid")
	}
	unit, ok := parseUnit(tokens[1])
	if !ok {
		return Duration{}, newFieldError(KeyDuration, "Duration word is invalid")
	}
	return Duration{Unit: unit, Count: count}, nil
}
