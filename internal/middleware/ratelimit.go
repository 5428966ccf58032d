package middleware

import (
	"encoding/json"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/DukeRupert/jyotai/internal/domain"
	"golang.org/x/time/rate"
)

const rateLimitMessage = "Too many requests. Please try again later."

// =============================================================================
// Rate Limiter
// =============================================================================

// RateLimiter allows maxAttempts requests per key in each fixed window. The
// window starts at a key's first request.
type RateLimiter struct {
	maxAttempts int
	window      time.Duration
	logger      *slog.Logger
	now         func() time.Time

	mu      sync.Mutex
	windows map[string]fixedWindow

	done      chan struct{}
	closeOnce sync.Once
}

type fixedWindow struct {
	start time.Time
	count int
}

func (w fixedWindow) expired(now time.Time, length time.Duration) bool {
	return now.Sub(w.start) >= length
}

// NewRateLimiter starts a janitor goroutine that lives until Close.
func NewRateLimiter(maxAttempts int, window time.Duration, logger *slog.Logger) *RateLimiter {
	rl := &RateLimiter{
		maxAttempts: maxAttempts,
		window:      window,
		logger:      logger,
		now:         time.Now,
		windows:     make(map[string]fixedWindow),
		done:        make(chan struct{}),
	}
	go rl.janitor()
	return rl
}

// Allow counts one request for key and reports whether it is within limit.
func (rl *RateLimiter) Allow(key string) bool {
	ok, _ := rl.take(key)
	return ok
}

// take counts one request. When the limit is hit it also returns how long
// the caller should wait.
func (rl *RateLimiter) take(key string) (bool, time.Duration) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	w, ok := rl.windows[key]
	if !ok || w.expired(now, rl.window) {
		rl.windows[key] = fixedWindow{start: now, count: 1}
		return true, 0
	}
	if w.count >= rl.maxAttempts {
		return false, rl.window - now.Sub(w.start)
	}
	w.count++
	rl.windows[key] = w
	return true, 0
}

// Reset forgets key.
func (rl *RateLimiter) Reset(key string) {
	rl.mu.Lock()
	delete(rl.windows, key)
	rl.mu.Unlock()
}

// TimeUntilReset returns how long until key's window ends, or 0.
func (rl *RateLimiter) TimeUntilReset(key string) time.Duration {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	w, ok := rl.windows[key]
	if !ok || w.expired(now, rl.window) {
		return 0
	}
	return rl.window - now.Sub(w.start)
}

// Close stops the janitor. It is safe to call more than once.
func (rl *RateLimiter) Close() {
	rl.closeOnce.Do(func() { close(rl.done) })
}

func (rl *RateLimiter) janitor() {
	ticker := time.NewTicker(rl.window)
	defer ticker.Stop()

	for {
		select {
		case <-rl.done:
			return
		case <-ticker.C:
			rl.mu.Lock()
			now := rl.now()
			for key, w := range rl.windows {
				if w.expired(now, rl.window) {
					delete(rl.windows, key)
				}
			}
			rl.mu.Unlock()
		}
	}
}

// =============================================================================
// Rate Limit Middleware
// =============================================================================

// RateLimitMiddleware answers 429 once a client IP exhausts its window.
type RateLimitMiddleware struct {
	limiter *RateLimiter
	logger  *slog.Logger
}

func NewRateLimitMiddleware(limiter *RateLimiter, logger *slog.Logger) *RateLimitMiddleware {
	return &RateLimitMiddleware{limiter: limiter, logger: logger}
}

// Limit rate limits every request by client IP.
func (m *RateLimitMiddleware) Limit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		clientIP := getClientIP(r)
		ok, wait := m.limiter.take(clientIP)
		if ok {
			next.ServeHTTP(w, r)
			return
		}

		m.logger.Warn("rate limit exceeded", "ip", clientIP, "path", r.URL.Path, "method", r.Method)
		seconds := int((wait + time.Second - 1) / time.Second)
		w.Header().Set("Retry-After", strconv.Itoa(max(seconds, 1)))
		writeRateLimited(w)
	})
}

// LimitPaths applies Limit only to the given paths, matched with or without
// the /api prefix. Other requests pass straight through.
func (m *RateLimitMiddleware) LimitPaths(paths ...string) func(http.Handler) http.Handler {
	set := make(map[string]struct{}, len(paths))
	for _, p := range paths {
		set[p] = struct{}{}
	}
	return func(next http.Handler) http.Handler {
		limited := m.Limit(next)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			path := strings.TrimPrefix(r.URL.Path, "/api")
			if _, ok := set[path]; ok && r.Method == http.MethodPost {
				limited.ServeHTTP(w, r)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// =============================================================================
// Global Rate Limit
// =============================================================================

// GlobalRateLimit caps the request rate across all clients with a token
// bucket. Health probes and metrics scrapes are not counted.
func GlobalRateLimit(rps float64, burst int, logger *slog.Logger) func(http.Handler) http.Handler {
	limiter := rate.NewLimiter(rate.Limit(rps), burst)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if isProbe(r.URL.Path) {
				next.ServeHTTP(w, r)
				return
			}
			if !limiter.Allow() {
				logger.Warn("global rate limit exceeded", "path", r.URL.Path, "method", r.Method)
				w.Header().Set("Retry-After", "1")
				writeRateLimited(w)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func writeRateLimited(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusTooManyRequests)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"error": rateLimitMessage,
		"code":  domain.ERATELIMIT,
	})
}

// =============================================================================
// Helpers
// =============================================================================

// getClientIP prefers the first X-Forwarded-For hop, then X-Real-IP, then
// the peer address.
func getClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}
	if xri := strings.TrimSpace(r.Header.Get("X-Real-IP")); xri != "" {
		return xri
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}

// isProbe reports whether path is an infrastructure endpoint.
func isProbe(path string) bool {
	switch path {
	case "/health", "/ready", "/metrics":
		return true
	}
	return false
}
