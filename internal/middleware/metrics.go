package middleware

import (
	"crypto/subtle"
	"encoding/json"
	"net/http"
)

const metricsRealm = `Basic realm="jyotai-metrics"`

// MetricsAuthMiddleware puts /metrics behind HTTP basic auth. With no
// credentials configured the endpoint is open.
type MetricsAuthMiddleware struct {
	username, password []byte
}

func NewMetricsAuthMiddleware(username, password string) *MetricsAuthMiddleware {
	return &MetricsAuthMiddleware{username: []byte(username), password: []byte(password)}
}

func (m *MetricsAuthMiddleware) enabled() bool {
	return len(m.username) > 0 || len(m.password) > 0
}

// Handler wraps the Prometheus handler.
func (m *MetricsAuthMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if m.enabled() && !m.authorized(r) {
			w.Header().Set("WWW-Authenticate", metricsRealm)
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			_ = json.NewEncoder(w).Encode(map[string]string{"error": "Unauthorized", "code": "unauthorized"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

// authorized compares both fields in constant time, always evaluating both.
func (m *MetricsAuthMiddleware) authorized(r *http.Request) bool {
	user, pass, ok := r.BasicAuth()
	if !ok {
		return false
	}
	userOK := subtle.ConstantTimeCompare([]byte(user), m.username)
	passOK := subtle.ConstantTimeCompare([]byte(pass), m.password)
	return userOK&passOK == 1
}
