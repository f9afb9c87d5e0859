package middleware

import (
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"
)

// tokenBucket: per-client bucket (max tokens = burst, refill rate per second).
type tokenBucket struct {
	tokens float64
	last   time.Time
}

type limiter struct {
	rate  float64 // tokens per second
	burst float64
	ttl   time.Duration
	now   func() time.Time

	mu        sync.Mutex
	m         map[string]*tokenBucket
	lastSweep time.Time
}

func newLimiter(rps float64, burst int, ttl time.Duration) *limiter {
	if burst < 1 {
		burst = 1
	}
	return &limiter{
		rate:  rps,
		burst: float64(burst),
		ttl:   ttl,
		now:   time.Now,
		m:     make(map[string]*tokenBucket),
	}
}

// allow takes a token for key. When refused it also returns how long until
// the next token.
func (l *limiter) allow(key string) (bool, time.Duration) {
	now := l.now()
	l.mu.Lock()
	defer l.mu.Unlock()

	l.sweep(now)
	tb := l.m[key]
	if tb == nil {
		tb = &tokenBucket{tokens: l.burst, last: now}
		l.m[key] = tb
	}
	elapsed := now.Sub(tb.last).Seconds()
	tb.tokens = min(l.burst, tb.tokens+elapsed*l.rate)
	tb.last = now

	if tb.tokens >= 1.0 {
		tb.tokens -= 1.0
		return true, 0
	}
	wait := time.Duration((1.0 - tb.tokens) / l.rate * float64(time.Second))
	return false, wait
}

// sweep drops buckets idle for longer than ttl, at most once per ttl.
func (l *limiter) sweep(now time.Time) {
	if now.Sub(l.lastSweep) < l.ttl {
		return
	}
	l.lastSweep = now
	for k, tb := range l.m {
		if now.Sub(tb.last) > l.ttl {
			delete(l.m, k)
		}
	}
}

// RateLimit returns a middleware that rate-limits by client IP.
// Example: RateLimit(120, 20) => 120 req/min with burst 20. reqPerMin <= 0
// disables limiting.
func RateLimit(reqPerMin int, burst int) func(http.Handler) http.Handler {
	if reqPerMin <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}
	l := newLimiter(float64(reqPerMin)/60.0, burst, 10*time.Minute)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ok, wait := l.allow(clientIP(r))
			if !ok {
				secs := int(wait.Seconds() + 0.999)
				w.Header().Set("Retry-After", strconv.Itoa(max(secs, 1)))
				deny(w, http.StatusTooManyRequests, "rate limit exceeded")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func clientIP(r *http.Request) string {
	// honor X-Forwarded-For if behind a proxy
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
