package request

import (
	go_context "context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourorg/payment-bridge/internal/description"
)

func checkoutDescription() map[string]any {
	return map[string]any{
		"sandbox":          true,
		"merchant_id":      "1210001",
		"notify_url":       "https://example.com/notify",
		"order_id":         "ItemNo12345",
		"items":            "Hello from Go",
		"amount":           "50.00",
		"currency":         "LKR",
		"first_name":       "Saman",
		"last_name":        "Perera",
		"email":            "samanp@gmail.com",
		"phone":            "0771234567",
		"address":          "No.1, Galle Road",
		"city":             "Colombo",
		"country":          "Sri Lanka",
		"delivery_address": "No. 46, Galle road, Kalutara South",
		"delivery_city":    "Kalutara",
		"delivery_country": "Sri Lanka",
		"custom_1":         "c1",
		"custom_2":         "c2",
	}
}

func with(base map[string]any, kv ...any) map[string]any {
	out := make(map[string]any, len(base)+len(kv)/2)
	for k, v := range base {
		out[k] = v
	}
	for i := 0; i+1 < len(kv); i += 2 {
		out[kv[i].(string)] = kv[i+1]
	}
	return out
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		raw  map[string]any
		want Kind
	}{
		{"preapprove wins over recurring", map[string]any{"preapprove": true, "recurrence": "1 Month", "duration": "1 Year"}, KindPreapproval},
		{"preapprove alone", map[string]any{"preapprove": true}, KindPreapproval},
		{"recurring", map[string]any{"recurrence": "1 Month", "duration": "forever"}, KindRecurring},
		{"recurring with preapprove false", map[string]any{"preapprove": false, "recurrence": "1 Month", "duration": "1 Year"}, KindRecurring},
		{"malformed recurrence is still recurring", map[string]any{"recurrence": "x", "duration": "y"}, KindRecurring},
		{"empty duration", map[string]any{"recurrence": "1 Month", "duration": ""}, KindCheckout},
		{"recurrence only", map[string]any{"recurrence": "1 Month"}, KindCheckout},
		{"non-bool preapprove", map[string]any{"preapprove": "true"}, KindCheckout},
		{"empty", map[string]any{}, KindCheckout},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := description.Parse(tt.raw, description.DefaultCurrency)
			assert.Equal(t, tt.want, Classify(d))
		})
	}
}

func TestBuilder_Build_Checkout(t *testing.T) {
	b := NewBuilder()
	req, err := b.Build(go_context.Background(), checkoutDescription())
	require.NoError(t, err)
	require.NotNil(t, req)

	assert.Equal(t, KindCheckout, req.Kind)
	assert.True(t, req.Sandbox)
	assert.False(t, req.HoldOnCard)
	assert.Equal(t, "1210001", req.MerchantID)
	assert.Equal(t, description.CurrencyLKR, req.Currency)
	require.NotNil(t, req.Amount)
	assert.Equal(t, "50", req.Amount.String())
	assert.Equal(t, "Kalutara", req.Customer.DeliveryAddress.City)
	assert.Equal(t, "Colombo", req.Customer.Address.City)
	assert.Nil(t, req.Recurrence)
	assert.Nil(t, req.StartupFee)

	require.Len(t, req.Items, 1)
	assert.Equal(t, "Hello from Go", req.Items[0].Name)
	assert.Equal(t, 1, req.Items[0].Quantity)
	assert.Equal(t, req.Amount, req.Items[0].Amount)
}

func TestBuilder_Build_Recurring(t *testing.T) {
	b := NewBuilder(WithDefaultCurrency(description.CurrencyUSD))
	raw := with(checkoutDescription(), "recurrence", "1 Month", "duration", "1 Year", "startup_fee", "10.00")
	delete(raw, "currency")

	req, err := b.Build(go_context.Background(), raw)
	require.NoError(t, err)

	assert.Equal(t, KindRecurring, req.Kind)
	assert.Equal(t, description.CurrencyUSD, req.Currency)
	require.NotNil(t, req.Recurrence)
	assert.Equal(t, description.Recurrence{Unit: description.UnitMonth, Period: 1}, *req.Recurrence)
	require.NotNil(t, req.Duration)
	assert.Equal(t, description.Duration{Unit: description.UnitYear, Count: 1}, *req.Duration)
	require.NotNil(t, req.StartupFee)
	assert.Equal(t, "10", req.StartupFee.String())
}

func TestBuilder_Build_RecurringWithoutStartupFee(t *testing.T) {
	raw := with(checkoutDescription(), "recurrence", "2 week", "duration", "Forever")
	req, err := NewBuilder().Build(go_context.Background(), raw)
	require.NoError(t, err)
	assert.Nil(t, req.StartupFee, "startup fee is optional")
	assert.True(t, req.Duration.Forever)
}

func TestBuilder_Build_Preapproval(t *testing.T) {
	raw := with(checkoutDescription(), "preapprove", true, "recurrence", "1 Month", "duration", "1 Year")
	delete(raw, "amount")

	req, err := NewBuilder().Build(go_context.Background(), raw)
	require.NoError(t, err)

	assert.Equal(t, KindPreapproval, req.Kind)
	assert.Nil(t, req.Amount)
	assert.Nil(t, req.Recurrence, "preapproval never carries recurring fields")
	require.Len(t, req.Items, 1)
	assert.Nil(t, req.Items[0].Amount)
}

func TestBuilder_Build_AuthorizeAndSandbox(t *testing.T) {
	raw := with(checkoutDescription(), "authorize", true, "sandbox", false)
	req, err := NewBuilder().Build(go_context.Background(), raw)
	require.NoError(t, err)
	assert.True(t, req.HoldOnCard)
	assert.False(t, req.Sandbox)

	raw = with(checkoutDescription(), "authorize", true, "recurrence", "1 Month", "duration", "1 Year")
	req, err = NewBuilder().Build(go_context.Background(), raw)
	require.NoError(t, err)
	assert.Equal(t, KindRecurring, req.Kind)
	assert.False(t, req.HoldOnCard, "hold on card only applies to checkout")

	delete(raw, "sandbox")
	req, err = NewBuilder(WithDefaultSandbox(false)).Build(go_context.Background(), raw)
	require.NoError(t, err)
	assert.False(t, req.Sandbox)
}

func TestBuilder_Build_IndexedItems(t *testing.T) {
	raw := with(checkoutDescription(), "item_name_1", "Extra", "amount_1", "5.00", "quantity_1", "2")
	req, err := NewBuilder().Build(go_context.Background(), raw)
	require.NoError(t, err)
	require.Len(t, req.Items, 2)
	assert.Equal(t, "Hello from Go", req.Items[0].Name)
	assert.Equal(t, "Extra", req.Items[1].Name)
	assert.Equal(t, 2, req.Items[1].Quantity)
}

func TestBuilder_Build_Failures(t *testing.T) {
	tests := []struct {
		name       string
		raw        map[string]any
		wantReason string
		wantCount  int
	}{
		{
			name:       "missing merchant id",
			raw:        with(checkoutDescription(), "merchant_id", nil),
			wantReason: "Cannot find parameter, 'merchant_id' in payment object",
			wantCount:  1,
		},
		{
			name:       "missing amount",
			raw:        with(checkoutDescription(), "amount", nil),
			wantReason: "Cannot find parameter, 'amount' in payment object",
			wantCount:  1,
		},
		{
			name:       "malformed amount",
			raw:        with(checkoutDescription(), "amount", "fifty"),
			wantReason: "Could not parse amount",
			wantCount:  1,
		},
		{
			name:       "merchant id reported before amount",
			raw:        with(checkoutDescription(), "merchant_id", 1210001, "amount", "fifty"),
			wantReason: "Cannot find parameter, 'merchant_id' in payment object",
			wantCount:  2,
		},
		{
			name:       "bad recurrence",
			raw:        with(checkoutDescription(), "recurrence", "2", "duration", "1 Year"),
			wantReason: "Invalid recurrence",
			wantCount:  1,
		},
		{
			name:       "recurrence reported before duration",
			raw:        with(checkoutDescription(), "recurrence", "x month", "duration", "abc week"),
			wantReason: "Recurrence number is invalid",
			wantCount:  2,
		},
		{
			name:       "bad duration",
			raw:        with(checkoutDescription(), "recurrence", "1 Month", "duration", "3 decades"),
			wantReason: "Duration word is invalid",
			wantCount:  1,
		},
		{
			name:       "malformed startup fee",
			raw:        with(checkoutDescription(), "recurrence", "1 Month", "duration", "1 Year", "startup_fee", "free"),
			wantReason: "Could not parse startup_fee",
			wantCount:  1,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.raw {
				if v == nil {
					delete(tt.raw, k)
				}
			}
			req, err := NewBuilder().Build(go_context.Background(), tt.raw)
			require.Error(t, err)
			assert.Nil(t, req, "no partial request on failure")
			assert.Equal(t, tt.wantReason, err.Error())

			var verr *ValidationError
			require.True(t, errors.As(err, &verr))
			assert.Len(t, verr.Fields(), tt.wantCount)
		})
	}
}

func TestBuilder_Build_PreapprovalIgnoresAmount(t *testing.T) {
	raw := with(checkoutDescription(), "preapprove", true, "amount", "not a number")
	req, err := NewBuilder().Build(go_context.Background(), raw)
	require.NoError(t, err)
	assert.Nil(t, req.Amount)
}

func TestBuilder_Build_KeepsAmountPrecision(t *testing.T) {
	raw := with(checkoutDescription(), "amount", "10.005")
	req, err := NewBuilder().Build(go_context.Background(), raw)
	require.NoError(t, err)
	require.NotNil(t, req.Amount)
	assert.Equal(t, "10.005", FormatAmount(*req.Amount))
	assert.Equal(t, "10.005", FormatAmount(*req.Items[0].Amount))
}

func TestFormatAmount(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"50.00", "50.00"},
		{"10.005", "10.005"},
		{"50", "50"},
		{"0.1", "0.1"},
		{"-3.250", "-3.250"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatAmount(decimal.RequireFromString(tt.in)))
		})
	}
}
