package middleware

import (
	"net/http"
	"strings"
)

// apiCSP allows no scripts. SVG memes carry inline styles and data images.
const apiCSP = "default-src 'none'; style-src 'unsafe-inline'; img-src 'self' data:; " +
	"frame-ancestors 'none'; base-uri 'none'; form-action 'none'"

// baseSecurityHeaders are set on every response.
var baseSecurityHeaders = [][2]string{
	{"X-Frame-Options", "DENY"},
	{"X-Content-Type-Options", "nosniff"},
	{"Referrer-Policy", "strict-origin-when-cross-origin"},
	{"Content-Security-Policy", apiCSP},
	{"Cross-Origin-Resource-Policy", "cross-origin"},
	{"Permissions-Policy", "geolocation=(), microphone=(), camera=()"},
}

// SecurityHeadersMiddleware adds HTTP security headers to all responses.
type SecurityHeadersMiddleware struct {
	isSecure bool // HSTS is only sent behind HTTPS
}

// NewSecurityHeadersMiddleware creates a new security headers middleware.
func NewSecurityHeadersMiddleware(isSecure bool) *SecurityHeadersMiddleware {
	return &SecurityHeadersMiddleware{isSecure: isSecure}
}

// Handler sets the headers before calling next. API responses are no-store;
// stored artifacts under /files/ keep their own caching.
func (m *SecurityHeadersMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		for _, kv := range baseSecurityHeaders {
			h.Set(kv[0], kv[1])
		}
		if m.isSecure {
			h.Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		}
		if !strings.HasPrefix(r.URL.Path, "/files/") {
			h.Set("Cache-Control", "no-store")
		}
		next.ServeHTTP(w, r)
	})
}
