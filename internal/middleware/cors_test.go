package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestCORS(t *testing.T) {
	wrapped := CORS([]string{"https://jyotai.app"}, discardLogger())(okHandler())

	t.Run("preflight from allowed origin", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodOptions, "/predict", nil)
		req.Header.Set("Origin", "https://jyotai.app")
		req.Header.Set("Access-Control-Request-Method", http.MethodPost)
		req.Header.Set("Access-Control-Request-Headers", "Content-Type")
		rec := httptest.NewRecorder()
		wrapped.ServeHTTP(rec, req)

		if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "https://jyotai.app" {
			t.Errorf("expected allowed origin, got %q", got)
		}
		if rec.Code != http.StatusNoContent {
			t.Errorf("expected 204 for preflight, got %d", rec.Code)
		}
	})

	t.Run("other origin", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/gallery", nil)
		req.Header.Set("Origin", "https://evil.example")
		rec := httptest.NewRecorder()
		wrapped.ServeHTTP(rec, req)

		if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "" {
			t.Errorf("origin should not be allowed, got %q", got)
		}
	})

	t.Run("wildcard when unset", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/gallery", nil)
		req.Header.Set("Origin", "https://anyone.example")
		rec := httptest.NewRecorder()
		CORS(nil, discardLogger())(okHandler()).ServeHTTP(rec, req)

		if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "*" {
			t.Errorf("expected wildcard, got %q", got)
		}
	})
}

func TestStack_Order(t *testing.T) {
	var order []string
	tag := func(name string) func(http.Handler) http.Handler {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		}
	}

	h := Stack(tag("outer"), tag("inner"))(okHandler())
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	if len(order) != 2 || order[0] != "outer" || order[1] != "inner" {
		t.Errorf("expected [outer inner], got %v", order)
	}
}
