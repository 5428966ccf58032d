package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

// =============================================================================
// Metrics Auth Middleware Tests
// =============================================================================

func TestMetricsAuthMiddleware(t *testing.T) {
	tests := []struct {
		name       string
		setAuth    func(r *http.Request)
		wantStatus int
	}{
		{"valid credentials", func(r *http.Request) { r.SetBasicAuth("admin", "secret123") }, http.StatusOK},
		{"no credentials", func(r *http.Request) {}, http.StatusUnauthorized},
		{"wrong username", func(r *http.Request) { r.SetBasicAuth("root", "secret123") }, http.StatusUnauthorized},
		{"wrong password", func(r *http.Request) { r.SetBasicAuth("admin", "secret") }, http.StatusUnauthorized},
		{"empty credentials", func(r *http.Request) { r.SetBasicAuth("", "") }, http.StatusUnauthorized},
		{"malformed header", func(r *http.Request) { r.Header.Set("Authorization", "Basic !!!notbase64") }, http.StatusUnauthorized},
		{"bearer token", func(r *http.Request) { r.Header.Set("Authorization", "Bearer admin:secret123") }, http.StatusUnauthorized},
		{"injected newline", func(r *http.Request) { r.SetBasicAuth("admin\r\nX-Injected: 1", "secret123") }, http.StatusUnauthorized},
	}

	mw := NewMetricsAuthMiddleware("admin", "secret123")
	wrapped := mw.Handler(okHandler())

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/metrics", nil)
			tt.setAuth(req)
			rec := httptest.NewRecorder()
			wrapped.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Fatalf("expected %d, got %d", tt.wantStatus, rec.Code)
			}
			if tt.wantStatus == http.StatusUnauthorized {
				if got := rec.Header().Get("WWW-Authenticate"); got != `Basic realm="jyotai-metrics"` {
					t.Errorf("unexpected WWW-Authenticate header %q", got)
				}
				if got := rec.Header().Get("Content-Type"); got != "application/json" {
					t.Errorf("expected JSON body, got %q", got)
				}
			}
		})
	}
}

func TestMetricsAuthMiddleware_DisabledWhenNoCredentials(t *testing.T) {
	wrapped := NewMetricsAuthMiddleware("", "").Handler(okHandler())

	rec := httptest.NewRecorder()
	wrapped.ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	if rec.Code != http.StatusOK {
		t.Errorf("expected 200 with auth disabled, got %d", rec.Code)
	}
}
