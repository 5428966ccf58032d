package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
)

// RequestIDHeader carries the request ID. Incoming values are kept so that
// IDs assigned by a proxy survive.
const RequestIDHeader = "X-Request-ID"

const maxRequestIDLen = 64

type requestIDKey struct{}

// RequestID returns the ID assigned by the logging middleware, or "".
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

// unloggedPrefixes are probes and artifact downloads.
var unloggedPrefixes = []string{"/health", "/ready", "/metrics", "/files/"}

// RequestLoggingMiddleware writes one access log line per request and
// assigns the request ID handlers log with.
type RequestLoggingMiddleware struct {
	logger *slog.Logger
}

func NewRequestLoggingMiddleware(logger *slog.Logger) *RequestLoggingMiddleware {
	return &RequestLoggingMiddleware{logger: logger}
}

func (m *RequestLoggingMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get(RequestIDHeader)
		if requestID == "" || len(requestID) > maxRequestIDLen {
			requestID = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, requestID)
		r = r.WithContext(context.WithValue(r.Context(), requestIDKey{}, requestID))

		if skipLogging(r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}

		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		level := slog.LevelInfo
		if rec.status >= http.StatusInternalServerError {
			level = slog.LevelError
		}
		m.logger.Log(r.Context(), level, "request",
			"request_id", requestID,
			"method", r.Method,
			"path", RedactPath(r.URL.Path, r.URL.RawQuery),
			"status", rec.status,
			"duration_ms", time.Since(start).Milliseconds(),
			"ip", getClientIP(r),
			"user_agent", r.UserAgent(),
		)
	})
}

func skipLogging(path string) bool {
	for _, prefix := range unloggedPrefixes {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}

// statusRecorder remembers the first status written.
type statusRecorder struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
}

func (rw *statusRecorder) WriteHeader(code int) {
	if !rw.wroteHeader {
		rw.status = code
		rw.wroteHeader = true
	}
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *statusRecorder) Unwrap() http.ResponseWriter {
	return rw.ResponseWriter
}

// =============================================================================
// Redaction
// =============================================================================

// redactedParams never reach the logs. Emails and dates of birth identify
// users; session_id is a Stripe checkout session.
var redactedParams = map[string]bool{
	"token":         true,
	"code":          true,
	"key":           true,
	"secret":        true,
	"password":      true,
	"api_key":       true,
	"apikey":        true,
	"access_token":  true,
	"refresh_token": true,
	"session_id":    true,
	"email":         true,
	"dob":           true,
}

var userPathEmail = regexp.MustCompile(`^(/(?:api/)?user/)[^/]+@[^/]+`)

const redacted = "[REDACTED]"

// RedactPath masks the email in /user/{email} paths and the values of
// sensitive query parameters. Parameters without a value are dropped.
func RedactPath(path, rawQuery string) string {
	path = userPathEmail.ReplaceAllString(path, "${1}"+redacted)
	if rawQuery == "" {
		return path
	}

	var kept []string
	for _, part := range strings.Split(rawQuery, "&") {
		name, _, ok := strings.Cut(part, "=")
		if !ok {
			continue
		}
		if redactedParams[strings.ToLower(name)] {
			part = name + "=" + redacted
		}
		kept = append(kept, part)
	}
	if len(kept) == 0 {
		return path
	}
	return path + "?" + strings.Join(kept, "&")
}
