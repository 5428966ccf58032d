package middleware

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

// =============================================================================
// Request Logging Middleware Tests
// =============================================================================

// serveLogged runs one request through the logging middleware and returns
// the recorder and the captured log output.
func serveLogged(t *testing.T, req *http.Request, status int) (*httptest.ResponseRecorder, string) {
	t.Helper()
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
	})

	if req.RemoteAddr == "" {
		req.RemoteAddr = "192.168.1.1:12345"
	}
	rec := httptest.NewRecorder()
	NewRequestLoggingMiddleware(logger).Handler(handler).ServeHTTP(rec, req)
	return rec, buf.String()
}

func TestRequestLoggingMiddleware_LogsBasicInfo(t *testing.T) {
	req := httptest.NewRequest("POST", "/predict", nil)
	req.Header.Set("User-Agent", "Mozilla/5.0 TestBrowser")
	_, logOutput := serveLogged(t, req, http.StatusOK)

	for _, want := range []string{"POST", "/predict", "status=200", "duration_ms", "TestBrowser", "request_id"} {
		if !strings.Contains(logOutput, want) {
			t.Errorf("log should contain %q, got: %s", want, logOutput)
		}
	}
}

func TestRequestLoggingMiddleware_LogsClientIP(t *testing.T) {
	req := httptest.NewRequest("GET", "/api/gallery", nil)
	req.RemoteAddr = "10.0.0.1:8080"
	req.Header.Set("X-Forwarded-For", "203.0.113.195")
	_, logOutput := serveLogged(t, req, http.StatusOK)

	if !strings.Contains(logOutput, "203.0.113.195") {
		t.Errorf("log should contain client IP from X-Forwarded-For, got: %s", logOutput)
	}
}

func TestRequestLoggingMiddleware_LevelByStatus(t *testing.T) {
	tests := []struct {
		status int
		level  string
	}{
		{http.StatusOK, "level=INFO"},
		{http.StatusForbidden, "level=INFO"},
		{http.StatusNotFound, "level=INFO"},
		{http.StatusInternalServerError, "level=ERROR"},
	}
	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			_, logOutput := serveLogged(t, httptest.NewRequest("POST", "/predict", nil), tt.status)
			if !strings.Contains(logOutput, tt.level) {
				t.Errorf("status %d should log at %s, got: %s", tt.status, tt.level, logOutput)
			}
		})
	}
}

func TestRequestLoggingMiddleware_RedactsSensitiveQueryParams(t *testing.T) {
	tests := []struct {
		name   string
		target string
		secret string
		path   string
	}{
		{"checkout session", "/upgrade?session_id=cs_secret123", "cs_secret123", "/upgrade"},
		{"date of birth", "/lifepath?dob=1990-05-15", "1990-05-15", "/lifepath"},
		{"email", "/gallery?email=asha@example.com&limit=5", "asha@example.com", "limit=5"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, logOutput := serveLogged(t, httptest.NewRequest("GET", tt.target, nil), http.StatusOK)
			if strings.Contains(logOutput, tt.secret) {
				t.Errorf("log should NOT contain %q, got: %s", tt.secret, logOutput)
			}
			if !strings.Contains(logOutput, tt.path) {
				t.Errorf("log should contain %q, got: %s", tt.path, logOutput)
			}
		})
	}
}

func TestRequestLoggingMiddleware_PassesRequestThrough(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))

	handlerCalled := false
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		handlerCalled = true
		w.Header().Set("X-Custom", "value")
		w.WriteHeader(http.StatusAccepted)
		_, _ = w.Write([]byte(`{"status":"pending"}`))
	})

	req := httptest.NewRequest("POST", "/generate-pdf", nil)
	rec := httptest.NewRecorder()
	NewRequestLoggingMiddleware(logger).Handler(handler).ServeHTTP(rec, req)

	if !handlerCalled {
		t.Error("handler should have been called")
	}
	if rec.Code != http.StatusAccepted {
		t.Errorf("expected status 202, got %d", rec.Code)
	}
	if rec.Header().Get("X-Custom") != "value" {
		t.Error("custom header should be preserved")
	}
	if rec.Body.String() != `{"status":"pending"}` {
		t.Errorf("response body should be preserved, got: %s", rec.Body.String())
	}
}

func TestRequestLoggingMiddleware_RequestID(t *testing.T) {
	rec, _ := serveLogged(t, httptest.NewRequest("GET", "/gallery", nil), http.StatusOK)
	if rec.Header().Get(RequestIDHeader) == "" {
		t.Error("expected a generated request ID")
	}

	req := httptest.NewRequest("GET", "/gallery", nil)
	req.Header.Set(RequestIDHeader, "proxy-abc")
	rec, logOutput := serveLogged(t, req, http.StatusOK)
	if got := rec.Header().Get(RequestIDHeader); got != "proxy-abc" {
		t.Errorf("incoming request ID should be kept, got %q", got)
	}
	if !strings.Contains(logOutput, "proxy-abc") {
		t.Errorf("log should contain the request ID, got: %s", logOutput)
	}
}

func TestRequestLoggingMiddleware_SkipsNoisyPaths(t *testing.T) {
	for _, path := range []string{"/health", "/ready", "/metrics", "/files/reports/a.pdf"} {
		t.Run(path, func(t *testing.T) {
			_, logOutput := serveLogged(t, httptest.NewRequest("GET", path, nil), http.StatusOK)
			if logOutput != "" {
				t.Errorf("%s should not be logged, got: %s", path, logOutput)
			}
		})
	}
}

func TestRedactPath(t *testing.T) {
	tests := []struct {
		path, query, want string
	}{
		{"/user/asha@example.com", "", "/user/[REDACTED]"},
		{"/api/user/asha@example.com/history", "limit=5", "/api/user/[REDACTED]/history?limit=5"},
		{"/user/updatePlan", "", "/user/updatePlan"},
		{"/lifepath", "dob=1990-05-15", "/lifepath?dob=[REDACTED]"},
		{"/gallery", "flag&limit=3", "/gallery?limit=3"},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			if got := RedactPath(tt.path, tt.query); got != tt.want {
				t.Errorf("RedactPath(%q, %q) = %q, want %q", tt.path, tt.query, got, tt.want)
			}
		})
	}
}

func TestRequestLoggingMiddleware_RequestIDInContext(t *testing.T) {
	var seen string
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = RequestID(r.Context())
	})
	req := httptest.NewRequest("GET", "/health", nil)
	req.Header.Set(RequestIDHeader, "health-check-1")
	NewRequestLoggingMiddleware(slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))).Handler(handler).ServeHTTP(httptest.NewRecorder(), req)

	if seen != "health-check-1" {
		t.Errorf("handlers should see the request ID even on unlogged paths, got %q", seen)
	}
}
