package metrics

import (
	"net/http"
	"regexp"
	"strconv"
	"time"
)

// Identifiers that would otherwise give every request its own label value.
var routeRewrites = []struct {
	pattern     *regexp.Regexp
	replacement string
}{
	{regexp.MustCompile(`[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}`), "{id}"},
	{regexp.MustCompile(`pred_[0-9]+_[0-9a-z]+`), "{id}"},
	{regexp.MustCompile(`/user/[^/]+@[^/]+`), "/user/{email}"},
}

// normalizePath collapses identifiers in path into placeholders.
func normalizePath(path string) string {
	for _, rw := range routeRewrites {
		path = rw.pattern.ReplaceAllString(path, rw.replacement)
	}
	return path
}

type statusCapture struct {
	http.ResponseWriter
	status int
}

func (s *statusCapture) WriteHeader(code int) {
	if s.status == 0 {
		s.status = code
	}
	s.ResponseWriter.WriteHeader(code)
}

func (s *statusCapture) Write(b []byte) (int, error) {
	if s.status == 0 {
		s.status = http.StatusOK
	}
	return s.ResponseWriter.Write(b)
}

func (s *statusCapture) Unwrap() http.ResponseWriter {
	return s.ResponseWriter
}

func (s *statusCapture) code() string {
	if s.status == 0 {
		return "200"
	}
	return strconv.Itoa(s.status)
}

// Middleware records request counts, latency and in-flight requests. The
// /metrics scrape itself is not counted.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/metrics" {
			next.ServeHTTP(w, r)
			return
		}

		HTTPRequestsInFlight.Inc()
		start := time.Now()
		sc := &statusCapture{ResponseWriter: w}
		defer func() {
			HTTPRequestsInFlight.Dec()
			route := normalizePath(r.URL.Path)
			HTTPRequestsTotal.WithLabelValues(r.Method, route, sc.code()).Inc()
			HTTPRequestDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
		}()

		next.ServeHTTP(sc, r)
	})
}
