package api

import (
	"log/slog"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Stale buckets are swept opportunistically from allow; an IP idle past
// the threshold starts over with a fresh burst on its next request.
const (
	limiterSweepEvery   = 3 * time.Minute
	limiterIdleAfter    = 15 * time.Minute
	defaultRefillPerSec = 1.0
)

// ipLimiter hands out one token bucket per client IP. A single-user app
// still sees bursty traffic (the dashboard fires several requests per page
// load), so limits are per IP rather than global. Safe for concurrent use.
type ipLimiter struct {
	mu        sync.Mutex
	buckets   map[string]*ipBucket
	refill    rate.Limit
	burst     int
	lastSweep time.Time
}

type ipBucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// newIPLimiter creates a limiter that grants each IP an initial allowance
// of burst requests, refilling at refillPerSec tokens per second.
func newIPLimiter(refillPerSec float64, burst int) *ipLimiter {
	return &ipLimiter{
		buckets:   make(map[string]*ipBucket),
		refill:    rate.Limit(refillPerSec),
		burst:     burst,
		lastSweep: time.Now(),
	}
}

// allow reports whether a request from ip may proceed, spending one token.
func (l *ipLimiter) allow(ip string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	if now.Sub(l.lastSweep) > limiterSweepEvery {
		l.sweep(now)
	}

	b, ok := l.buckets[ip]
	if !ok {
		b = &ipBucket{limiter: rate.NewLimiter(l.refill, l.burst)}
		l.buckets[ip] = b
	}
	b.lastSeen = now
	return b.limiter.Allow()
}

// sweep drops buckets for IPs not seen recently. Caller holds mu.
func (l *ipLimiter) sweep(now time.Time) {
	for ip, b := range l.buckets {
		if now.Sub(b.lastSeen) > limiterIdleAfter {
			delete(l.buckets, ip)
		}
	}
	l.lastSweep = now
}

// rateLimitMiddleware rejects requests from IPs that have spent their
// token bucket, answering 429 with a Retry-After hint.
func rateLimitMiddleware(l *ipLimiter, trustProxy bool, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := clientIP(r, trustProxy)
			if !l.allow(ip) {
				logger.Warn("rate limit exceeded", "ip", ip, "method", r.Method, "path", r.URL.Path)
				w.Header().Set("Retry-After", "1")
				WriteError(w, http.StatusTooManyRequests, "rate_limited", "too many requests", logger)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// clientIP resolves the address used as the rate-limit key.
//
// Behind a reverse proxy (trustProxy true) the proxy's headers identify the
// real client: X-Real-IP first, then the leading entry of X-Forwarded-For.
// Header values must parse as IPs, otherwise an attacker could mint
// arbitrary bucket keys. With trustProxy false only RemoteAddr counts,
// since anyone can send the headers directly.
func clientIP(r *http.Request, trustProxy bool) string {
	if trustProxy {
		if xri := r.Header.Get("X-Real-IP"); xri != "" {
			if ip := net.ParseIP(strings.TrimSpace(xri)); ip != nil {
				return ip.String()
			}
		}
		if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
			first := xff
			if head, _, ok := strings.Cut(xff, ","); ok {
				first = head
			}
			if ip := net.ParseIP(strings.TrimSpace(first)); ip != nil {
				return ip.String()
			}
		}
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
