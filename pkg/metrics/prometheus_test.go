package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecorderProviderCalls(t *testing.T) {
	reg := prometheus.NewRegistry()
	r := New(reg)

	r.RecordProviderCall("yahoo", "history", true, 0.2)
	r.RecordProviderCall("yahoo", "history", false, 1.5)
	r.RecordProviderCall("yahoo", "history", false, 0.1)

	if got := testutil.ToFloat64(r.providerCalls.WithLabelValues("yahoo", "history", "error")); got != 2 {
		t.Fatalf("error calls = %v, want 2", got)
	}
	if got := testutil.ToFloat64(r.providerCalls.WithLabelValues("yahoo", "history", "ok")); got != 1 {
		t.Fatalf("ok calls = %v, want 1", got)
	}
}

func TestRecorderFallbackAndPrice(t *testing.T) {
	r := New(prometheus.NewRegistry())
	r.RecordFallback("crypto")
	r.RecordLastPrice("AAPL", 187.5)

	if got := testutil.ToFloat64(r.fallbacks.WithLabelValues("crypto")); got != 1 {
		t.Fatalf("fallbacks = %v", got)
	}
	if got := testutil.ToFloat64(r.lastPrice.WithLabelValues("AAPL")); got != 187.5 {
		t.Fatalf("last price = %v", got)
	}
}
