package request

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/yourorg/payment-bridge/internal/description"
)

// ValidationError reports a payment description that could not be turned into a
// request. Error returns the first failure; Fields returns all of them.
type ValidationError struct {
	Kind   Kind
	Errors description.FieldErrors
}

func (e *ValidationError) Error() string {
	return e.Errors.Error()
}

func (e *ValidationError) Unwrap() error {
	return e.Errors
}

// Fields returns every field-level failure in the order they were found.
func (e *ValidationError) Fields() description.FieldErrors {
	return e.Errors
}

// Builder constructs a PaymentRequest from an untyped payment description.
type Builder struct {
	defaultCurrency description.Currency
	defaultSandbox  bool
}

// Option configures a Builder.
type Option func(*Builder)

// WithDefaultCurrency sets the currency used when the description has none or an unknown one.
func WithDefaultCurrency(c description.Currency) Option {
	return func(b *Builder) {
		if c != "" {
			b.defaultCurrency = c
		}
	}
}

// WithDefaultSandbox sets the environment used when the description has no sandbox flag.
func WithDefaultSandbox(sandbox bool) Option {
	return func(b *Builder) {
		b.defaultSandbox = sandbox
	}
}

// NewBuilder creates a Builder. Without options it defaults to LKR and the sandbox.
func NewBuilder(opts ...Option) *Builder {
	b := &Builder{
		defaultCurrency: description.DefaultCurrency,
		defaultSandbox:  true,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Build classifies raw, validates it in one pass and returns the assembled request.
// On failure it returns a *ValidationError and no request.
func (b *Builder) Build(ctx context.Context, raw map[string]any) (*PaymentRequest, error) {
	tracer := otel.Tracer("request")
	_, span := tracer.Start(ctx, "Builder.Build")
	defer span.End()

	start := time.Now()
	d := description.Parse(raw, b.defaultCurrency)
	kind := Classify(d)
	span.SetAttributes(attribute.String("payment.kind", kind.String()))

	req, errs := b.assemble(d, kind)
	buildDurationSeconds.Observe(time.Since(start).Seconds())

	if len(errs) > 0 {
		buildsTotal.WithLabelValues(kind.String(), "invalid").Inc()
		span.SetStatus(codes.Error, errs.Error())
		return nil, &ValidationError{Kind: kind, Errors: errs}
	}
	buildsTotal.WithLabelValues(kind.String(), "ok").Inc()
	return req, nil
}

func missing(field string) *description.FieldError {
	return &description.FieldError{
		Field:  field,
		Reason: fmt.Sprintf("Cannot find parameter, '%s' in payment object", field),
	}
}

func asFieldError(field string, err error) *description.FieldError {
	if fe, ok := err.(*description.FieldError); ok {
		return fe
	}
	return &description.FieldError{Field: field, Reason: err.Error()}
}

func (b *Builder) assemble(d description.Description, kind Kind) (*PaymentRequest, description.FieldErrors) {
	var errs description.FieldErrors

	if d.MerchantID == "" {
		errs = append(errs, missing(description.KeyMerchantID))
	}

	var amount *decimal.Decimal
	if kind != KindPreapproval {
		if v, ok := d.Value(description.KeyAmount); !ok {
			errs = append(errs, missing(description.KeyAmount))
		} else if a, err := description.ParseAmount(description.KeyAmount, v); err != nil {
			errs = append(errs, asFieldError(description.KeyAmount, err))
		} else {
			amount = &a
		}
	}

	var (
		startupFee *decimal.Decimal
		recurrence *description.Recurrence
		duration   *description.Duration
	)
	if kind == KindRecurring {
		if v, ok := d.Value(description.KeyStartupFee); ok {
			if fee, err := description.ParseAmount(description.KeyStartupFee, v); err != nil {
				errs = append(errs, asFieldError(description.KeyStartupFee, err))
			} else {
				startupFee = &fee
			}
		}
		if r, err := description.ParseRecurrence(d.Recurrence); err != nil {
			errs = append(errs, asFieldError(description.KeyRecurrence, err))
		} else {
			recurrence = &r
		}
		if du, err := description.ParseDuration(d.Duration); err != nil {
			errs = append(errs, asFieldError(description.KeyDuration, err))
		} else {
			duration = &du
		}
	}

	indexed, err := d.LineItems()
	if err != nil {
		errs = append(errs, asFieldError("items", err))
	}

	if len(errs) > 0 {
		return nil, errs
	}

	items := make([]Item, 0, 1+len(indexed))
	items = append(items, Item{Name: d.Items, Quantity: 1, Amount: amount})
	for _, it := range indexed {
		items = append(items, Item{ID: it.Number, Name: it.Name, Quantity: it.Quantity, Amount: it.Amount})
	}

	sandbox := b.defaultSandbox
	if d.Sandbox != nil {
		sandbox = *d.Sandbox
	}

	return &PaymentRequest{
		Kind:             kind,
		Sandbox:          sandbox,
		HoldOnCard:       kind == KindCheckout && d.Authorize,
		MerchantID:       d.MerchantID,
		NotifyURL:        d.NotifyURL,
		OrderID:          d.OrderID,
		ItemsDescription: d.Items,
		Items:            items,
		Currency:         d.Currency,
		Amount:           amount,
		Customer: Customer{
			FirstName: d.FirstName,
			LastName:  d.LastName,
			Email:     d.Email,
			Phone:     d.Phone,
			Address: Address{
				Address: d.Address,
				City:    d.City,
				Country: d.Country,
			},
			DeliveryAddress: Address{
				Address: d.DeliveryAddress,
				City:    d.DeliveryCity,
				Country: d.DeliveryCountry,
			},
		},
		Custom1:    d.Custom1,
		Custom2:    d.Custom2,
		StartupFee: startupFee,
		Recurrence: recurrence,
		Duration:   duration,
	}, nil
}
