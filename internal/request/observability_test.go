package request_test

import (
	go_context "context"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/yourorg/payment-bridge/internal/request"
)

func TestBuilder_Metrics(t *testing.T) {
	// Metrics are registered globally through promauto, so measure deltas.
	okCounter := request.GetBuildsTotal().WithLabelValues("checkout", "ok")
	invalidCounter := request.GetBuildsTotal().WithLabelValues("checkout", "invalid")
	initialOK := testutil.ToFloat64(okCounter)
	initialInvalid := testutil.ToFloat64(invalidCounter)

	b := request.NewBuilder()
	_, err := b.Build(go_context.Background(), map[string]any{"merchant_id": "1210001", "amount": "10"})
	if err != nil {
		t.Fatalf("Build() failed: %v", err)
	}
	_, err = b.Build(go_context.Background(), map[string]any{"amount": "10"})
	if err == nil {
		t.Fatal("Build() without merchant_id should fail")
	}

	if got := testutil.ToFloat64(okCounter); got != initialOK+1 {
		t.Errorf("ok builds expected to increment by 1, got initial=%f, final=%f", initialOK, got)
	}
	if got := testutil.ToFloat64(invalidCounter); got != initialInvalid+1 {
		t.Errorf("invalid builds expected to increment by 1, got initial=%f, final=%f", initialInvalid, got)
	}
	if got := testutil.CollectAndCount(request.GetBuildDurationSeconds()); got != 1 {
		t.Errorf("build duration histogram expected to be collected once, got %d", got)
	}
}
