package api

import (
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"
)

// RateLimiter is a fixed-window counter keyed by client address. A window
// starts with a key's first request and is reset lazily by the first request
// after it expires. The table lives in process memory only, so separate
// instances do not share counts.
type RateLimiter struct {
	mu      sync.Mutex
	window  time.Duration
	max     int
	entries map[string]*rateEntry
	now     func() time.Time
}

type rateEntry struct {
	count   int
	resetAt time.Time
}

// NewRateLimiter allows max requests per key per window.
func NewRateLimiter(max int, window time.Duration) *RateLimiter {
	return &RateLimiter{
		window:  window,
		max:     max,
		entries: make(map[string]*rateEntry),
		now:     time.Now,
	}
}

// Allow counts one request for key. When the request is over the limit it
// returns false and the time until the window resets.
func (l *RateLimiter) Allow(key string) (bool, time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	e, ok := l.entries[key]
	if !ok {
		e = &rateEntry{resetAt: now.Add(l.window)}
		l.entries[key] = e
	}
	if now.After(e.resetAt) {
		e.count = 0
		e.resetAt = now.Add(l.window)
	}
	e.count++
	if e.count > l.max {
		return false, e.resetAt.Sub(now)
	}
	return true, 0
}

// Sweep drops entries whose window has expired and returns how many were
// removed. Dropping an expired entry is equivalent to the lazy reset Allow
// would do, so sweeping never changes a decision.
func (l *RateLimiter) Sweep() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	removed := 0
	for key, e := range l.entries {
		if now.After(e.resetAt) {
			delete(l.entries, key)
			removed++
		}
	}
	return removed
}

// Len returns the number of tracked keys.
func (l *RateLimiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}

// Middleware answers 429 with Retry-After once a client is over the limit.
func (l *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		addr := clientAddress(r)
		allowed, retryAfter := l.Allow(addr)
		if !allowed {
			slog.Warn("rate limit exceeded",
				"path", r.URL.Path,
				"remote_addr", addr,
			)
			secs := int(retryAfter.Round(time.Second) / time.Second)
			if secs < 1 {
				secs = 1
			}
			w.Header().Set("Retry-After", strconv.Itoa(secs))
			writeText(w, http.StatusTooManyRequests, "Too Many Requests")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// clientAddress picks the key for rate limiting: the first X-Forwarded-For
// entry, then Client-Ip, then the host of the connection address.
func clientAddress(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		if first := strings.TrimSpace(strings.Split(xff, ",")[0]); first != "" {
			return first
		}
	}
	if ip := strings.TrimSpace(r.Header.Get("Client-Ip")); ip != "" {
		return ip
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil && host != "" {
		return host
	}
	if r.RemoteAddr != "" {
		return r.RemoteAddr
	}
	return "unknown"
}
