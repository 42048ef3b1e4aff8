package middleware

import (
	"context"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"
)

// RealIP returns the client address for rate-limit keys: X-Real-IP, then the
// first X-Forwarded-For hop, then RemoteAddr. Household installs normally sit
// behind a reverse proxy that sets one of the headers.
func RealIP(r *http.Request) string {
	if ip := strings.TrimSpace(r.Header.Get("X-Real-IP")); ip != "" {
		return ip
	}
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// window counts hits for one key until it expires.
type window struct {
	count     int
	expiresAt time.Time
}

// RateLimiter keeps fixed-window counters in memory. Allow counts every
// request; Fail, Exceeded and Reset count only failures, which is what PIN
// lockout needs.
type RateLimiter struct {
	mu      sync.Mutex
	windows map[string]*window
	now     func() time.Time
}

func NewRateLimiter() *RateLimiter {
	return &RateLimiter{
		windows: make(map[string]*window),
		now:     time.Now,
	}
}

// hit adds one to key's counter, opening a new window if needed, and returns
// the new count.
func (rl *RateLimiter) hit(key string, d time.Duration) int {
	now := rl.now()
	w, ok := rl.windows[key]
	if !ok || now.After(w.expiresAt) {
		w = &window{expiresAt: now.Add(d)}
		rl.windows[key] = w
	}
	w.count++
	return w.count
}

// Allow records a request for key and reports whether it is within limit for
// the current window.
func (rl *RateLimiter) Allow(key string, limit int, d time.Duration) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return rl.hit(key, d) <= limit
}

// Fail records one failed attempt for key.
func (rl *RateLimiter) Fail(key string, d time.Duration) {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	rl.hit(key, d)
}

// Exceeded reports whether key already has limit or more hits in an unexpired
// window. It does not count as a hit.
func (rl *RateLimiter) Exceeded(key string, limit int) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	w, ok := rl.windows[key]
	return ok && !rl.now().After(w.expiresAt) && w.count >= limit
}

// Reset forgets key, e.g. after a successful PIN entry.
func (rl *RateLimiter) Reset(key string) {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	delete(rl.windows, key)
}

// Cleanup removes expired windows.
func (rl *RateLimiter) Cleanup() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	for key, w := range rl.windows {
		if now.After(w.expiresAt) {
			delete(rl.windows, key)
		}
	}
}

// Run calls Cleanup every interval until ctx is done.
func (rl *RateLimiter) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			rl.Cleanup()
		}
	}
}

// RateLimit rejects requests over limit per key and window with 429.
func RateLimit(limiter *RateLimiter, keyFunc func(*http.Request) string, limit int, d time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiter.Allow(keyFunc(r), limit, d) {
				w.Header().Set("Retry-After", strconv.Itoa(int(d.Seconds())))
				writeError(w, http.StatusTooManyRequests, "too many requests")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
