// Package description turns the loosely-typed payment description supplied by the
// scripting layer into a typed record. Parsers never panic; every failure is reported
// through the error return so the request builder can decide whether it is fatal.
package description

import (
	"fmt"
	"sort"
)

// Keys of the payment description, as sent by the scripting layer.
const (
	KeySandbox         = "sandbox"
	KeyMerchantID      = "merchant_id"
	KeyNotifyURL       = "notify_url"
	KeyOrderID         = "order_id"
	KeyItems           = "items"
	KeyAmount          = "amount"
	KeyCurrency        = "currency"
	KeyFirstName       = "first_name"
	KeyLastName        = "last_name"
	KeyEmail           = "email"
	KeyPhone           = "phone"
	KeyAddress         = "address"
	KeyCity            = "city"
	KeyCountry         = "country"
	KeyDeliveryAddress = "delivery_address"
	KeyDeliveryCity    = "delivery_city"
	KeyDeliveryCountry = "delivery_country"
	KeyCustom1         = "custom_1"
	KeyCustom2         = "custom_2"
	KeyRecurrence      = "recurrence"
	KeyDuration        = "duration"
	KeyStartupFee      = "startup_fee"
	KeyPreapprove      = "preapprove"
	KeyAuthorize       = "authorize"
)

// UnknownKeyPrefix names values whose key was not a string.
const UnknownKeyPrefix = "unkt_key_"

// Normalize converts a map with arbitrary key types into a PaymentDescription.
// Non-string keys get a placeholder key (unkt_key_0, unkt_key_1, ...) so their values
// are kept. Placeholders are numbered in the order of the keys' printed form, then
// their type, then their Go-syntax form, so 1 and 1.0 always number the same way.
// Nil values are dropped and so read as absent.
func Normalize(raw map[any]any) map[string]any {
	out := make(map[string]any, len(raw))
	var unknown []any
	for k, v := range raw {
		if v == nil {
			continue
		}
		if sk, ok := k.(string); ok {
			out[sk] = v
			continue
		}
		unknown = append(unknown, k)
	}
	sort.Slice(unknown, func(i, j int) bool {
		return keyOrder(unknown[i], unknown[j])
	})
	for i, k := range unknown {
		out[fmt.Sprintf("%s%d", UnknownKeyPrefix, i)] = raw[k]
	}
	return out
}

func keyOrder(a, b any) bool {
	if sa, sb := fmt.Sprint(a), fmt.Sprint(b); sa != sb {
		return sa < sb
	}
	if ta, tb := fmt.Sprintf("%T", a), fmt.Sprintf("%T", b); ta != tb {
		return ta < tb
	}
	return fmt.Sprintf("%#v", a) < fmt.Sprintf("%#v", b)
}

// Description is the typed view of a PaymentDescription. Text fields are empty when
// the key was absent or not a string. Fields that need kind-dependent validation
// (amounts, recurrence, duration) are kept raw and parsed by the request builder.
type Description struct {
	Sandbox    *bool
	Preapprove bool
	Authorize  bool

	MerchantID string
	NotifyURL  string
	OrderID    string
	Items      string
	Currency   Currency

	FirstName string
	LastName  string
	Email     string
	Phone     string
	Address   string
	City      string
	Country   string

	DeliveryAddress string
	DeliveryCity    string
	DeliveryCountry string

	Custom1 string
	Custom2 string

	Recurrence string
	Duration   string

	raw map[string]any
}

// Parse reads every known key of raw in one pass.
func Parse(raw map[string]any, defaultCurrency Currency) Description {
	text := func(key string) string {
		s, _ := ParseText(raw[key])
		return s
	}

	d := Description{
		MerchantID:      text(KeyMerchantID),
		NotifyURL:       text(KeyNotifyURL),
		OrderID:         text(KeyOrderID),
		Items:           text(KeyItems),
		Currency:        ParseCurrency(raw[KeyCurrency], defaultCurrency),
		FirstName:       text(KeyFirstName),
		LastName:        text(KeyLastName),
		Email:           text(KeyEmail),
		Phone:           text(KeyPhone),
		Address:         text(KeyAddress),
		City:            text(KeyCity),
		Country:         text(KeyCountry),
		DeliveryAddress: text(KeyDeliveryAddress),
		DeliveryCity:    text(KeyDeliveryCity),
		DeliveryCountry: text(KeyDeliveryCountry),
		Custom1:         text(KeyCustom1),
		Custom2:         text(KeyCustom2),
		Recurrence:      text(KeyRecurrence),
		Duration:        text(KeyDuration),
		raw:             raw,
	}
	if b, ok := ParseBool(raw[KeySandbox]); ok {
		d.Sandbox = &b
	}
	d.Preapprove, _ = ParseBool(raw[KeyPreapprove])
	d.Authorize, _ = ParseBool(raw[KeyAuthorize])
	return d
}

// Value returns the raw value stored under key.
func (d Description) Value(key string) (any, bool) {
	v, ok := d.raw[key]
	return v, ok && v != nil
}

// Raw returns the underlying PaymentDescription.
func (d Description) Raw() map[string]any {
	return d.raw
}
