package middleware

import (
	"context"
	"net"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// LimitExceededHandler writes the response for a rejected request
type LimitExceededHandler func(w http.ResponseWriter, r *http.Request)

// IPRateLimiter keeps a token bucket per client address
type IPRateLimiter struct {
	mu     sync.Mutex
	limits map[string]*rate.Limiter
	rate   rate.Limit
	burst  int
}

// NewIPRateLimiter allows r events per second per address with bursts of b
func NewIPRateLimiter(r rate.Limit, b int) *IPRateLimiter {
	return &IPRateLimiter{
		limits: make(map[string]*rate.Limiter),
		rate:   r,
		burst:  b,
	}
}

// Limiter returns the bucket for ip, creating it on first use
func (l *IPRateLimiter) Limiter(ip string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()
	limiter, ok := l.limits[ip]
	if !ok {
		limiter = rate.NewLimiter(l.rate, l.burst)
		l.limits[ip] = limiter
	}
	return limiter
}

// Cleanup drops buckets that have refilled completely. It returns the number removed.
func (l *IPRateLimiter) Cleanup(now time.Time) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	removed := 0
	for ip, limiter := range l.limits {
		if limiter.TokensAt(now) >= float64(limiter.Burst()) {
			delete(l.limits, ip)
			removed++
		}
	}
	return removed
}

// RunCleanup calls Cleanup every interval until ctx is done
func (l *IPRateLimiter) RunCleanup(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			l.Cleanup(now)
		}
	}
}

// Middleware rejects requests over the limit with onLimit
func (l *IPRateLimiter) Middleware(onLimit LimitExceededHandler) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip, _, err := net.SplitHostPort(r.RemoteAddr)
			if err != nil || ip == "" {
				ip = r.RemoteAddr
			}
			if !l.Limiter(ip).Allow() {
				onLimit(w, r)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
