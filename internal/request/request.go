// Package request classifies a payment description into one of the request kinds the
// native SDK understands and assembles a fully-typed PaymentRequest for it.
package request

import (
	"github.com/shopspring/decimal"

	"github.com/yourorg/payment-bridge/internal/description"
)

// Kind selects the payment flow the native SDK runs.
type Kind int

const (
	KindCheckout Kind = iota
	KindRecurring
	KindPreapproval
)

func (k Kind) String() string {
	switch k {
	case KindCheckout:
		return "checkout"
	case KindRecurring:
		return "recurring"
	case KindPreapproval:
		return "preapproval"
	default:
		return "unknown"
	}
}

// Classify picks the request kind. Preapproval wins whenever preapprove is true;
// otherwise a non-empty recurrence and duration make it Recurring; everything else
// is a one-time Checkout.
func Classify(d description.Description) Kind {
	if d.Preapprove {
		return KindPreapproval
	}
	if d.Recurrence != "" && d.Duration != "" {
		return KindRecurring
	}
	return KindCheckout
}

// Address is a postal address as the SDK models it.
type Address struct {
	Address string
	City    string
	Country string
}

// Customer holds the identity, billing and delivery fields of the payer.
type Customer struct {
	FirstName       string
	LastName        string
	Email           string
	Phone           string
	Address         Address
	DeliveryAddress Address
}

// Item is one line of the order. Amount is nil for preapprovals.
type Item struct {
	ID       string
	Name     string
	Quantity int
	Amount   *decimal.Decimal
}

// PaymentRequest is what gets handed to the native SDK. It is built once per attempt
// and not modified afterwards.
type PaymentRequest struct {
	Kind       Kind
	Sandbox    bool
	HoldOnCard bool

	MerchantID       string
	NotifyURL        string
	OrderID          string
	ItemsDescription string
	Items            []Item
	Currency         description.Currency
	Amount           *decimal.Decimal

	Customer Customer

	Custom1 string
	Custom2 string

	// Recurring only.
	StartupFee *decimal.Decimal
	Recurrence *description.Recurrence
	Duration   *description.Duration
}

// FormatAmount renders an amount with exactly the precision it was given, so
// "50.00" stays "50.00" and "10.005" stays "10.005". Nothing is rounded.
func FormatAmount(d decimal.Decimal) string {
	if exp := d.Exponent(); exp < 0 {
		return d.StringFixed(-exp)
	}
	return d.String()
}
