/*
Package limiter throttles requests per client IP.

Two backends share the Limiter interface: an in-process token bucket per IP
(golang.org/x/time/rate) for single-instance deployments, and a Redis fixed
window for deployments running several replicas.
*/
package limiter

import (
	"context"
	"net"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"userdash/internal/pkg/errs"
	"userdash/internal/pkg/logx"
	"userdash/internal/pkg/resp"
)

// Limiter decides whether one more request for key may proceed.
type Limiter interface {
	Allow(ctx context.Context, key string) bool
}

// IPRateLimiter keeps one token bucket per key.
type IPRateLimiter struct {
	mu     sync.RWMutex
	limits map[string]*rate.Limiter
	r      rate.Limit
	b      int
}

// NewIPRateLimiter creates a limiter allowing r events per second with burst b.
// Idle buckets are evicted every cleanupEvery until ctx is cancelled.
func NewIPRateLimiter(ctx context.Context, r rate.Limit, b int, cleanupEvery time.Duration) *IPRateLimiter {
	i := &IPRateLimiter{
		limits: make(map[string]*rate.Limiter),
		r:      r,
		b:      b,
	}

	go i.cleanUpVisitors(ctx, cleanupEvery)

	return i
}

// GetLimiter returns the bucket for key, creating it on first use.
func (i *IPRateLimiter) GetLimiter(key string) *rate.Limiter {
	i.mu.RLock()
	limiter, exists := i.limits[key]
	i.mu.RUnlock()

	if exists {
		return limiter
	}

	i.mu.Lock()
	defer i.mu.Unlock()

	limiter, exists = i.limits[key]
	if !exists {
		limiter = rate.NewLimiter(i.r, i.b)
		i.limits[key] = limiter
	}

	return limiter
}

// Allow implements Limiter.
func (i *IPRateLimiter) Allow(_ context.Context, key string) bool {
	return i.GetLimiter(key).Allow()
}

// Len reports the number of tracked keys.
func (i *IPRateLimiter) Len() int {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return len(i.limits)
}

// evictIdle drops buckets that have refilled completely.
func (i *IPRateLimiter) evictIdle(now time.Time) int {
	i.mu.Lock()
	defer i.mu.Unlock()

	removed := 0
	for key, limiter := range i.limits {
		if limiter.TokensAt(now) >= float64(limiter.Burst()) {
			delete(i.limits, key)
			removed++
		}
	}
	return removed
}

func (i *IPRateLimiter) cleanUpVisitors(ctx context.Context, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			removed := i.evictIdle(now)
			logx.Debug("rate limiter cleanup", "removed", removed, "active", i.Len())
		}
	}
}

// clientIP returns the host part of r.RemoteAddr. Run chi's RealIP
// middleware first when behind a proxy.
func clientIP(r *http.Request) string {
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		ip = r.RemoteAddr
	}
	if ip == "" {
		ip = "unknown_ip"
	}
	return ip
}

// Middleware answers 429 once the caller's IP is over the limit.
func Middleware(l Limiter) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := clientIP(r)

			if !l.Allow(r.Context(), ip) {
				logx.Ctx(r.Context()).Warn().Str("ip", ip).Msg("rate limit exceeded")
				resp.RespondError(w, r, errs.NewError(errs.ErrRateLimitExceeded))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
