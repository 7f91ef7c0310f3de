package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
)

func TestCORS(t *testing.T) {
	e := echo.New()
	e.Use(CORS(CORSConfig{
		AllowOrigins: []string{"https://dash.example.com"},
		AllowMethods: []string{http.MethodGet},
		MaxAge:       10 * time.Minute,
	}))
	e.GET("/api/report", func(c echo.Context) error { return c.NoContent(http.StatusOK) })

	tests := []struct {
		name       string
		method     string
		origin     string
		wantCode   int
		wantOrigin string
		wantMaxAge string
	}{
		{"allowed origin", http.MethodGet, "https://dash.example.com", http.StatusOK, "https://dash.example.com", ""},
		{"foreign origin", http.MethodGet, "https://evil.example.net", http.StatusOK, "", ""},
		{"same origin", http.MethodGet, "", http.StatusOK, "", ""},
		{"preflight", http.MethodOptions, "https://dash.example.com", http.StatusNoContent, "https://dash.example.com", "600"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, "/api/report", nil)
			if tt.origin != "" {
				req.Header.Set(echo.HeaderOrigin, tt.origin)
			}
			rec := httptest.NewRecorder()
			e.ServeHTTP(rec, req)

			if rec.Code != tt.wantCode {
				t.Errorf("code = %d, want %d", rec.Code, tt.wantCode)
			}
			if got := rec.Header().Get(echo.HeaderAccessControlAllowOrigin); got != tt.wantOrigin {
				t.Errorf("allow-origin = %q, want %q", got, tt.wantOrigin)
			}
			if got := rec.Header().Get(echo.HeaderAccessControlMaxAge); got != tt.wantMaxAge {
				t.Errorf("max-age = %q, want %q", got, tt.wantMaxAge)
			}
		})
	}
}
