package metrics

import (
	"testing"

	"PivotScreener/internal/domain/models"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecorder(t *testing.T) {
	reg := prometheus.NewRegistry()
	r := NewWithRegisterer(reg)

	r.RecordScreened("BTC/USDT", models.CategoryCompletelyBullish)
	r.RecordScreened("ETH/USDT", models.CategoryCompletelyBullish)
	r.RecordScreened("SOL/USDT", models.CategoryGraduallyBullish)
	r.RecordFailure("fetch")
	r.RecordLastClose("BTC/USDT", 64000)
	r.RecordLatency("build_report", 0.2)

	if got := testutil.ToFloat64(r.screened.WithLabelValues("CompletelyBullish")); got != 2 {
		t.Errorf("screened CompletelyBullish = %v, want 2", got)
	}
	if got := testutil.ToFloat64(r.category.WithLabelValues("SOL/USDT")); got != float64(models.CategoryGraduallyBullish) {
		t.Errorf("category gauge = %v", got)
	}
	if got := testutil.ToFloat64(r.failures.WithLabelValues("fetch")); got != 1 {
		t.Errorf("failures = %v, want 1", got)
	}
	if got := testutil.ToFloat64(r.lastClose.WithLabelValues("BTC/USDT")); got != 64000 {
		t.Errorf("last close = %v", got)
	}
	if n := testutil.CollectAndCount(r.latency); n != 1 {
		t.Errorf("latency series = %d, want 1", n)
	}
}
