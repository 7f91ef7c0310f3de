package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestEchoMetrics_CountsByRouteTemplate(t *testing.T) {
	reg := prometheus.NewRegistry()
	e := echo.New()
	e.Use(EchoMetrics(reg, nil, time.Second))
	e.GET("/api/report", func(c echo.Context) error { return c.String(http.StatusOK, "ok") })

	for i := 0; i < 3; i++ {
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/report?tf=1d", nil))
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d", rec.Code)
		}
	}

	m := newHTTPMetrics(reg)
	if got := testutil.ToFloat64(m.requests.WithLabelValues("/api/report", http.MethodGet, "200")); got != 3 {
		t.Fatalf("requests = %v, want 3", got)
	}
	if got := testutil.ToFloat64(m.inFlight.WithLabelValues("/api/report", http.MethodGet)); got != 0 {
		t.Fatalf("in flight = %v, want 0", got)
	}
}

func TestStatusClass(t *testing.T) {
	tests := map[int]string{101: "1xx", 200: "2xx", 304: "3xx", 429: "4xx", 502: "5xx"}
	for code, want := range tests {
		if got := statusClass(code); got != want {
			t.Errorf("statusClass(%d) = %s, want %s", code, got, want)
		}
	}
}
