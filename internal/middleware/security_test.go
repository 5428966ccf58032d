package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

// =============================================================================
// Security Headers Middleware Tests
// =============================================================================

func serveWithSecurityHeaders(isSecure bool, method, path string) *httptest.ResponseRecorder {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"ok":true}`))
	})
	req := httptest.NewRequest(method, path, nil)
	rec := httptest.NewRecorder()
	NewSecurityHeadersMiddleware(isSecure).Handler(handler).ServeHTTP(rec, req)
	return rec
}

func TestSecurityHeadersMiddleware_SetsAllHeaders(t *testing.T) {
	rec := serveWithSecurityHeaders(false, "GET", "/gallery")

	expected := map[string]string{
		"X-Frame-Options":              "DENY",
		"X-Content-Type-Options":       "nosniff",
		"Referrer-Policy":              "strict-origin-when-cross-origin",
		"Permissions-Policy":           "geolocation=(), microphone=(), camera=()",
		"Cross-Origin-Resource-Policy": "cross-origin",
	}
	for header, want := range expected {
		if got := rec.Header().Get(header); got != want {
			t.Errorf("%s = %q, want %q", header, got, want)
		}
	}
}

func TestSecurityHeadersMiddleware_HSTS(t *testing.T) {
	if got := serveWithSecurityHeaders(true, "GET", "/").Header().Get("Strict-Transport-Security"); !strings.Contains(got, "max-age=31536000") {
		t.Errorf("expected HSTS in production, got %q", got)
	}
	if got := serveWithSecurityHeaders(false, "GET", "/").Header().Get("Strict-Transport-Security"); got != "" {
		t.Errorf("HSTS should not be set in development, got %q", got)
	}
}

func TestSecurityHeadersMiddleware_CSPLocksDownScripts(t *testing.T) {
	csp := serveWithSecurityHeaders(false, "GET", "/").Header().Get("Content-Security-Policy")

	for _, directive := range []string{"default-src 'none'", "frame-ancestors 'none'", "img-src 'self' data:"} {
		if !strings.Contains(csp, directive) {
			t.Errorf("CSP missing %q: %s", directive, csp)
		}
	}
	if strings.Contains(csp, "script-src") {
		t.Errorf("CSP should not allow any scripts: %s", csp)
	}
}

func TestSecurityHeadersMiddleware_PassesThroughRequests(t *testing.T) {
	rec := serveWithSecurityHeaders(false, "POST", "/predict")

	if rec.Code != http.StatusOK {
		t.Errorf("expected status 200, got %d", rec.Code)
	}
	if rec.Body.String() != `{"ok":true}` {
		t.Errorf("body should be preserved, got %s", rec.Body.String())
	}
	if rec.Header().Get("Content-Type") != "application/json" {
		t.Error("handler headers should be preserved")
	}
}

func TestSecurityHeadersMiddleware_CacheControl(t *testing.T) {
	if got := serveWithSecurityHeaders(false, "GET", "/user/asha@example.com").Header().Get("Cache-Control"); got != "no-store" {
		t.Errorf("API responses should be no-store, got %q", got)
	}
	if got := serveWithSecurityHeaders(false, "GET", "/files/predictions/p1/memes/a.svg").Header().Get("Cache-Control"); got != "" {
		t.Errorf("stored files should keep their cache headers, got %q", got)
	}
}
