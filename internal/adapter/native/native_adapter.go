// Package native hands payment requests to a platform SDK living outside Go (the
// Android or iOS host app) and routes that SDK's callbacks back to the attempt.
package native

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/yourorg/payment-bridge/internal/adapter"
	"github.com/yourorg/payment-bridge/internal/outcome"
	"github.com/yourorg/payment-bridge/internal/request"
)

// Presenter is implemented by the host app. Present shows the SDK's payment UI for
// the JSON-encoded request and returns once the UI is up.
type Presenter interface {
	Present(requestJSON string) error
}

// Adapter implements adapter.NativeSDK on top of a host Presenter.
type Adapter struct {
	presenter Presenter

	mu   sync.Mutex
	sink adapter.EventSink
}

func NewAdapter(p Presenter) *Adapter {
	if p == nil {
		panic("presenter cannot be nil")
	}
	return &Adapter{presenter: p}
}

func (a *Adapter) GetName() string {
	return "native"
}

// Launch encodes req and presents it. Events reported later through Deliver go to sink.
func (a *Adapter) Launch(_ context.Context, req *request.PaymentRequest, sink adapter.EventSink) error {
	if req == nil {
		return errors.New("native: payment request cannot be nil")
	}
	data, err := json.Marshal(toWire(req))
	if err != nil {
		return fmt.Errorf("native: failed to encode payment request: %w", err)
	}

	a.mu.Lock()
	a.sink = sink
	a.mu.Unlock()

	if err := a.presenter.Present(string(data)); err != nil {
		return fmt.Errorf("native: presenter failed: %w", err)
	}
	return nil
}

// Deliver forwards an SDK callback to the most recently launched attempt. It reports
// false when no attempt has been launched yet.
func (a *Adapter) Deliver(ev outcome.NativeEvent) bool {
	a.mu.Lock()
	sink := a.sink
	a.mu.Unlock()
	if sink == nil {
		return false
	}
	sink.Deliver(ev)
	return true
}

type wireItem struct {
	Number   string `json:"item_number,omitempty"`
	Name     string `json:"item_name"`
	Quantity int    `json:"quantity"`
	Amount   string `json:"amount,omitempty"`
}

// wireRequest is the JSON shape the host SDK bindings decode.
type wireRequest struct {
	Kind             string     `json:"kind"`
	Sandbox          bool       `json:"sandbox"`
	HoldOnCard       bool       `json:"hold_on_card,omitempty"`
	MerchantID       string     `json:"merchant_id"`
	NotifyURL        string     `json:"notify_url,omitempty"`
	OrderID          string     `json:"order_id,omitempty"`
	ItemsDescription string     `json:"items,omitempty"`
	Currency         string     `json:"currency"`
	Amount           string     `json:"amount,omitempty"`
	FirstName        string     `json:"first_name,omitempty"`
	LastName         string     `json:"last_name,omitempty"`
	Email            string     `json:"email,omitempty"`
	Phone            string     `json:"phone,omitempty"`
	Address          string     `json:"address,omitempty"`
	City             string     `json:"city,omitempty"`
	Country          string     `json:"country,omitempty"`
	DeliveryAddress  string     `json:"delivery_address,omitempty"`
	DeliveryCity     string     `json:"delivery_city,omitempty"`
	DeliveryCountry  string     `json:"delivery_country,omitempty"`
	Custom1          string     `json:"custom_1,omitempty"`
	Custom2          string     `json:"custom_2,omitempty"`
	Recurrence       string     `json:"recurrence,omitempty"`
	Duration         string     `json:"duration,omitempty"`
	StartupFee       string     `json:"startup_fee,omitempty"`
	Items            []wireItem `json:"item_list"`
}

func toWire(req *request.PaymentRequest) wireRequest {
	w := wireRequest{
		Kind:             req.Kind.String(),
		Sandbox:          req.Sandbox,
		HoldOnCard:       req.HoldOnCard,
		MerchantID:       req.MerchantID,
		NotifyURL:        req.NotifyURL,
		OrderID:          req.OrderID,
		ItemsDescription: req.ItemsDescription,
		Currency:         string(req.Currency),
		FirstName:        req.Customer.FirstName,
		LastName:         req.Customer.LastName,
		Email:            req.Customer.Email,
		Phone:            req.Customer.Phone,
		Address:          req.Customer.Address.Address,
		City:             req.Customer.Address.City,
		Country:          req.Customer.Address.Country,
		DeliveryAddress:  req.Customer.DeliveryAddress.Address,
		DeliveryCity:     req.Customer.DeliveryAddress.City,
		DeliveryCountry:  req.Customer.DeliveryAddress.Country,
		Custom1:          req.Custom1,
		Custom2:          req.Custom2,
		Items:            make([]wireItem, 0, len(req.Items)),
	}
	if req.Amount != nil {
		w.Amount = request.FormatAmount(*req.Amount)
	}
	if req.Recurrence != nil {
		w.Recurrence = req.Recurrence.String()
	}
	if req.Duration != nil {
		w.Duration = req.Duration.String()
	}
	if req.StartupFee != nil {
		w.StartupFee = request.FormatAmount(*req.StartupFee)
	}
	for _, it := range req.Items {
		wi := wireItem{Number: it.ID, Name: it.Name, Quantity: it.Quantity}
		if it.Amount != nil {
			wi.Amount = request.FormatAmount(*it.Amount)
		}
		w.Items = append(w.Items, wi)
	}
	return w
}
