// Package checkout is a NativeSDK that posts the payment form straight to the
// hosted checkout endpoint and reports the JSON status it answers with. It is
// used where no native UI exists (server harness, headless hosts).
package checkout

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/yourorg/payment-bridge/internal/adapter"
	"github.com/yourorg/payment-bridge/internal/adapter/circuitbreaker"
	"github.com/yourorg/payment-bridge/internal/outcome"
	"github.com/yourorg/payment-bridge/internal/request"
)

const (
	SandboxBaseURL = "https://sandbox.payhere.lk"
	LiveBaseURL    = "https://www.payhere.lk"

	checkoutPath   = "/pay/checkout"
	authorizePath  = "/pay/authorize"
	preapprovePath = "/pay/preapprove"

	defaultTimeout = 30 * time.Second
)

// Descriptions reported when the endpoint could not be used. They mirror the
// native SDK's own texts so the error table treats them the same way.
const (
	descNoNetwork   = "Unable to connect to the internet"
	descCircuitOpen = "Checkout endpoint temporarily unavailable"
	descBadResponse = "Could not decode checkout response"
)

// codeUnavailable is reported when the circuit for an endpoint is open.
const codeUnavailable = http.StatusServiceUnavailable

// Adapter implements adapter.NativeSDK over HTTP.
type Adapter struct {
	httpClient *http.Client
	sandboxURL string
	liveURL    string
	breaker    *circuitbreaker.CircuitBreaker
}

// Option configures an Adapter.
type Option func(*Adapter)

// WithBaseURLs overrides the sandbox and live endpoints.
func WithBaseURLs(sandbox, live string) Option {
	return func(a *Adapter) {
		if sandbox != "" {
			a.sandboxURL = sandbox
		}
		if live != "" {
			a.liveURL = live
		}
	}
}

// WithCircuitBreaker replaces the default breaker, e.g. to share it between adapters.
func WithCircuitBreaker(cb *circuitbreaker.CircuitBreaker) Option {
	return func(a *Adapter) {
		if cb != nil {
			a.breaker = cb
		}
	}
}

// NewAdapter creates an Adapter. A nil client gets a default with a 30s timeout.
func NewAdapter(client *http.Client, opts ...Option) *Adapter {
	if client == nil {
		client = &http.Client{Timeout: defaultTimeout}
	}
	a := &Adapter{
		httpClient: client,
		sandboxURL: SandboxBaseURL,
		liveURL:    LiveBaseURL,
		breaker:    circuitbreaker.NewCircuitBreaker(circuitbreaker.Config{}),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// GetName returns the name of the integration.
func (a *Adapter) GetName() string {
	return "checkout"
}

func (a *Adapter) baseURL(sandbox bool) string {
	if sandbox {
		return a.sandboxURL
	}
	return a.liveURL
}

func endpointPath(req *request.PaymentRequest) string {
	switch {
	case req.Kind == request.KindPreapproval:
		return preapprovePath
	case req.HoldOnCard:
		return authorizePath
	default:
		return checkoutPath
	}
}

// Launch posts the form on a new goroutine and delivers exactly one event to sink.
// The attempt is bounded by the HTTP client's timeout, not by ctx's deadline, so a
// caller that stops waiting does not cut the attempt short.
func (a *Adapter) Launch(ctx context.Context, req *request.PaymentRequest, sink adapter.EventSink) error {
	if req == nil {
		return errors.New("checkout: payment request cannot be nil")
	}
	if sink == nil {
		return errors.New("checkout: event sink cannot be nil")
	}
	go func() {
		sink.Deliver(a.post(context.WithoutCancel(ctx), req))
	}()
	return nil
}

func (a *Adapter) post(ctx context.Context, req *request.PaymentRequest) outcome.NativeEvent {
	base := a.baseURL(req.Sandbox)
	ctx, span := otel.Tracer("checkout").Start(ctx, "Adapter.Launch")
	defer span.End()
	span.SetAttributes(
		attribute.String("payment.kind", req.Kind.String()),
		attribute.Bool("payment.sandbox", req.Sandbox),
	)

	if !a.breaker.AllowRequest(base) {
		span.SetStatus(codes.Error, "circuit open")
		return outcome.ErrorEvent(codeUnavailable, descCircuitOpen)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, base+endpointPath(req), bytes.NewBufferString(buildForm(req).Encode()))
	if err != nil {
		// A malformed base URL is a configuration problem, not an endpoint failure.
		span.SetStatus(codes.Error, err.Error())
		return outcome.ErrorEvent(0, fmt.Sprintf("checkout: failed to create http request: %v", err))
	}
	httpReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("Idempotency-Key", uuid.NewString())

	resp, err := a.httpClient.Do(httpReq)
	if err != nil {
		a.breaker.RecordFailure(base)
		span.SetStatus(codes.Error, err.Error())
		return outcome.ErrorEvent(outcome.CodeValidation, descNoNetwork)
	}
	defer resp.Body.Close()
	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))

	if resp.StatusCode >= http.StatusInternalServerError {
		a.breaker.RecordFailure(base)
	} else {
		a.breaker.RecordSuccess(base)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return outcome.ErrorEvent(resp.StatusCode, descBadResponse)
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return decodeStatus(body)
	}
	span.SetStatus(codes.Error, fmt.Sprintf("HTTP %d", resp.StatusCode))
	return decodeError(resp.StatusCode, body)
}

// statusResponse is the JSON answer for a processed payment.
type statusResponse struct {
	StatusCode int    `json:"status_code"`
	PaymentNo  any    `json:"payment_no"`
	Message    string `json:"message"`
}

// errorResponse is the JSON answer for a rejected request.
type errorResponse struct {
	Error struct {
		Code        int    `json:"code"`
		Description string `json:"description"`
	} `json:"error"`
}

func decodeStatus(body []byte) outcome.NativeEvent {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	var sr statusResponse
	if err := dec.Decode(&sr); err != nil {
		return outcome.ResponseEvent(outcome.Response{Message: descBadResponse})
	}
	success := sr.StatusCode == outcome.StatusSuccess || sr.StatusCode == outcome.StatusHold
	resp := outcome.Response{Success: success, Message: sr.Message}
	if sr.PaymentNo != nil || !success {
		resp.Payload = &outcome.StatusPayload{PaymentNo: sr.PaymentNo, Status: sr.StatusCode, Message: sr.Message}
	}
	return outcome.ResponseEvent(resp)
}

func decodeError(httpStatus int, body []byte) outcome.NativeEvent {
	var er errorResponse
	if err := json.Unmarshal(body, &er); err == nil && (er.Error.Code != 0 || er.Error.Description != "") {
		code := er.Error.Code
		if code == 0 {
			code = httpStatus
		}
		return outcome.ErrorEvent(code, er.Error.Description)
	}
	return outcome.ErrorEvent(httpStatus, "")
}

func buildForm(req *request.PaymentRequest) url.Values {
	form := url.Values{}
	set := func(k, v string) {
		if v != "" {
			form.Set(k, v)
		}
	}
	set("merchant_id", req.MerchantID)
	set("notify_url", req.NotifyURL)
	set("order_id", req.OrderID)
	set("items", req.ItemsDescription)
	set("currency", string(req.Currency))
	if req.Amount != nil {
		form.Set("amount", request.FormatAmount(*req.Amount))
	}

	c := req.Customer
	set("first_name", c.FirstName)
	set("last_name", c.LastName)
	set("email", c.Email)
	set("phone", c.Phone)
	set("address", c.Address.Address)
	set("city", c.Address.City)
	set("country", c.Address.Country)
	set("delivery_address", c.DeliveryAddress.Address)
	set("delivery_city", c.DeliveryAddress.City)
	set("delivery_country", c.DeliveryAddress.Country)
	set("custom_1", req.Custom1)
	set("custom_2", req.Custom2)

	// The first item mirrors the order line; the rest are numbered from 1.
	for i, it := range req.Items[min(1, len(req.Items)):] {
		n := strconv.Itoa(i + 1)
		set("item_number_"+n, it.ID)
		set("item_name_"+n, it.Name)
		form.Set("quantity_"+n, strconv.Itoa(it.Quantity))
		if it.Amount != nil {
			form.Set("amount_"+n, request.FormatAmount(*it.Amount))
		}
	}

	if req.Kind == request.KindRecurring {
		if req.Recurrence != nil {
			form.Set("recurrence", req.Recurrence.String())
		}
		if req.Duration != nil {
			form.Set("duration", req.Duration.String())
		}
		if req.StartupFee != nil {
			form.Set("startup_fee", request.FormatAmount(*req.StartupFee))
		}
	}
	return form
}
