package middleware

import (
	"context"
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"storefront-backend/pkg/logger"
	"storefront-backend/pkg/utils"

	"golang.org/x/time/rate"
)

type RateLimitConfig struct {
	RPS           float64
	Burst         int
	CleanupPeriod time.Duration // how often idle clients are swept
	ClientTTL     time.Duration // idle time after which a client is forgotten
	// Exempt lists exact paths that bypass the limiter, such as health checks.
	Exempt []string
}

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter is a per-IP token bucket. Its sweep goroutine runs until
// Shutdown is called or the parent context ends.
type RateLimiter struct {
	cfg    RateLimitConfig
	limit  rate.Limit
	exempt map[string]bool

	mu       sync.Mutex
	visitors map[string]*visitor

	cancel context.CancelFunc
}

func NewRateLimiter(ctx context.Context, cfg RateLimitConfig) *RateLimiter {
	if cfg.CleanupPeriod <= 0 {
		cfg.CleanupPeriod = time.Minute
	}
	if cfg.ClientTTL <= 0 {
		cfg.ClientTTL = 3 * time.Minute
	}

	rl := &RateLimiter{
		cfg:      cfg,
		limit:    rate.Limit(cfg.RPS),
		exempt:   make(map[string]bool, len(cfg.Exempt)),
		visitors: make(map[string]*visitor),
	}
	for _, p := range cfg.Exempt {
		rl.exempt[p] = true
	}

	ctx, rl.cancel = context.WithCancel(ctx)
	go rl.sweepLoop(ctx)
	return rl
}

func (rl *RateLimiter) Middleware() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if rl.exempt[r.URL.Path] {
				next.ServeHTTP(w, r)
				return
			}

			ip := getClientIP(r)
			if !rl.allow(ip, time.Now()) {
				logger.WithContext(r.Context()).Warn().Str("ip", ip).Str("path", r.URL.Path).Msg("Rate limit exceeded")
				w.Header().Set("Retry-After", strconv.Itoa(rl.retryAfter()))
				utils.WriteError(w, http.StatusTooManyRequests, "Too Many Requests")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func (rl *RateLimiter) allow(ip string, now time.Time) bool {
	rl.mu.Lock()
	v, ok := rl.visitors[ip]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(rl.limit, rl.cfg.Burst)}
		rl.visitors[ip] = v
	}
	v.lastSeen = now
	rl.mu.Unlock()

	return v.limiter.AllowN(now, 1)
}

// retryAfter is the whole number of seconds until one token is available.
func (rl *RateLimiter) retryAfter() int {
	if rl.limit <= 0 {
		return 1
	}
	return int(math.Max(1, math.Ceil(1/float64(rl.limit))))
}

// Clients reports how many client IPs are currently tracked.
func (rl *RateLimiter) Clients() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.visitors)
}

func (rl *RateLimiter) sweepLoop(ctx context.Context) {
	ticker := time.NewTicker(rl.cfg.CleanupPeriod)
	defer ticker.Stop()

	for {
		select {
		case now := <-ticker.C:
			rl.sweep(now)
		case <-ctx.Done():
			return
		}
	}
}

func (rl *RateLimiter) sweep(now time.Time) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	for ip, v := range rl.visitors {
		if now.Sub(v.lastSeen) > rl.cfg.ClientTTL {
			delete(rl.visitors, ip)
		}
	}
}

// Shutdown stops the sweep goroutine.
func (rl *RateLimiter) Shutdown() {
	rl.cancel()
}
