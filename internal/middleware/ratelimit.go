package middleware

import (
	"log/slog"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/vhu/portal/internal/metrics"
)

// RateLimiter counts requests per client in fixed windows.
type RateLimiter struct {
	mu      sync.Mutex
	clients map[string]*window
	limit   int
	period  time.Duration
	now     func() time.Time
	pruned  time.Time
}

type window struct {
	start time.Time
	count int
}

func NewRateLimiter(limit int, period time.Duration) *RateLimiter {
	return &RateLimiter{
		clients: make(map[string]*window),
		limit:   limit,
		period:  period,
		now:     time.Now,
	}
}

// Allow records a request from client and reports whether it is within
// the limit of the current window.
func (rl *RateLimiter) Allow(client string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	rl.prune(now)

	w, ok := rl.clients[client]
	if !ok || now.Sub(w.start) >= rl.period {
		rl.clients[client] = &window{start: now, count: 1}
		return true
	}
	if w.count >= rl.limit {
		return false
	}
	w.count++
	return true
}

// prune drops finished windows at most once per period. Callers hold mu.
func (rl *RateLimiter) prune(now time.Time) {
	if now.Sub(rl.pruned) < rl.period {
		return
	}
	for client, w := range rl.clients {
		if now.Sub(w.start) >= rl.period {
			delete(rl.clients, client)
		}
	}
	rl.pruned = now
}

// RateLimit allows limit requests per period per client IP.
// Used for uploads: RateLimit(30, time.Minute)
func RateLimit(limit int, period time.Duration) func(http.HandlerFunc) http.HandlerFunc {
	limiter := NewRateLimiter(limit, period)

	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			ip := clientIP(r)
			if !limiter.Allow(ip) {
				slog.Warn("rate limit exceeded", "ip", ip, "path", r.URL.Path)
				metrics.RecordRateLimitHit()
				writeError(w, http.StatusTooManyRequests, "too many requests, please try again later")
				return
			}
			next(w, r)
		}
	}
}

// clientIP prefers the proxy headers set by the reverse proxy in front of
// the portal.
func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
