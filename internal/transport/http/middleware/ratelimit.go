package middleware

import (
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"hrpay/internal/transport/http/api"
)

type KeyFunc func(r *http.Request) string

type window struct {
	count int
	reset time.Time
}

// Limiter is a fixed window request counter per key.
type Limiter struct {
	limit  int
	period time.Duration
	key    KeyFunc
	now    func() time.Time

	mu      sync.Mutex
	windows map[string]*window
}

func NewLimiter(limit int, period time.Duration, key KeyFunc) *Limiter {
	if key == nil {
		key = ClientIP
	}
	return &Limiter{limit: limit, period: period, key: key, now: time.Now, windows: map[string]*window{}}
}

// Allow counts the request and reports whether it fits the window, and the
// seconds until the window resets.
func (l *Limiter) Allow(r *http.Request) (bool, int) {
	if l.limit <= 0 {
		return true, 0
	}
	key := l.key(r)
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()
	w, ok := l.windows[key]
	if !ok || !now.Before(w.reset) {
		if len(l.windows) > 10000 {
			l.sweep(now)
		}
		w = &window{reset: now.Add(l.period)}
		l.windows[key] = w
	}
	w.count++
	return w.count <= l.limit, max(int(w.reset.Sub(now).Seconds()), 1)
}

func (l *Limiter) sweep(now time.Time) {
	for key, w := range l.windows {
		if !now.Before(w.reset) {
			delete(l.windows, key)
		}
	}
}

func (l *Limiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		allowed, retryAfter := l.Allow(r)
		if !allowed {
			w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
			slog.Warn("rate limit exceeded", "path", r.URL.Path, "method", r.Method, "limit", l.limit)
			api.Fail(w, http.StatusTooManyRequests, "rate_limited", "too many requests", GetRequestID(r.Context()))
			return
		}
		next.ServeHTTP(w, r)
	})
}

// ActorOrIP keys authenticated requests by user and the rest by client IP.
func ActorOrIP(r *http.Request) string {
	if user, ok := GetUser(r.Context()); ok && user.UserID != "" {
		return "user:" + user.TenantID + ":" + user.UserID
	}
	return ClientIP(r)
}

// ClientIP is the socket peer address. Forwarding headers are honoured only
// through TrustedRealIP, which rewrites RemoteAddr for configured proxies.
func ClientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(strings.TrimSpace(r.RemoteAddr))
	if err == nil && host != "" {
		return host
	}
	return strings.TrimSpace(r.RemoteAddr)
}
