package http

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
)

type ipHandler struct{}

func (ipHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/ip", func(c echo.Context) error { return c.String(http.StatusOK, c.RealIP()) })
}

func TestServerClientIP(t *testing.T) {
	tests := []struct {
		name    string
		trust   bool
		remote  string
		headers map[string]string
		want    string
	}{
		{"direct ignores x-real-ip", false, "192.0.2.1:4711", map[string]string{echo.HeaderXRealIP: "binance"}, "192.0.2.1"},
		{"direct ignores x-forwarded-for", false, "192.0.2.1:4711", map[string]string{echo.HeaderXForwardedFor: "198.51.100.9"}, "192.0.2.1"},
		{"trusted private proxy", true, "10.0.0.5:4711", map[string]string{echo.HeaderXForwardedFor: "198.51.100.9"}, "198.51.100.9"},
		{"public peer is not a proxy", true, "192.0.2.1:4711", map[string]string{echo.HeaderXForwardedFor: "198.51.100.9"}, "192.0.2.1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewServer(ipHandler{}, WithMetrics("", nil, nil), WithTrustProxy(tt.trust))
			req := httptest.NewRequest(http.MethodGet, "/ip", nil)
			req.RemoteAddr = tt.remote
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			rec := httptest.NewRecorder()
			s.echo.ServeHTTP(rec, req)
			if got := rec.Body.String(); got != tt.want {
				t.Errorf("RealIP = %q, want %q", got, tt.want)
			}
		})
	}
}
