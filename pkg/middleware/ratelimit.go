package middleware

import (
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/utafrali/cadastro/pkg/httputil"
	"github.com/utafrali/cadastro/pkg/logger"
)

// RateLimitConfig holds the per-client token bucket settings.
type RateLimitConfig struct {
	RPS     float64
	Burst   int
	IdleTTL time.Duration
}

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter enforces a token bucket per client IP. Buckets idle for longer
// than IdleTTL are evicted by a background sweep until Close is called.
type RateLimiter struct {
	mu       sync.Mutex
	visitors map[string]*visitor
	limit    rate.Limit
	burst    int
	ttl      time.Duration
	now      func() time.Time

	done      chan struct{}
	closeOnce sync.Once
}

// NewRateLimiter creates a limiter and starts its eviction sweep.
func NewRateLimiter(cfg RateLimitConfig) *RateLimiter {
	ttl := cfg.IdleTTL
	if ttl <= 0 {
		ttl = 3 * time.Minute
	}
	rl := &RateLimiter{
		visitors: make(map[string]*visitor),
		limit:    rate.Limit(cfg.RPS),
		burst:    cfg.Burst,
		ttl:      ttl,
		now:      time.Now,
		done:     make(chan struct{}),
	}
	go rl.sweepLoop()
	return rl
}

// Close stops the eviction sweep.
func (rl *RateLimiter) Close() {
	rl.closeOnce.Do(func() { close(rl.done) })
}

// Middleware rejects requests over the client's budget with 429.
func (rl *RateLimiter) Middleware(l *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := clientIP(r)
			if !rl.limiterFor(ip).Allow() {
				l.WarnContext(r.Context(), "rate limit exceeded",
					slog.String("ip", ip),
					slog.String("path", r.URL.Path),
				)
				w.Header().Set("Retry-After", "1")
				httputil.WriteJSON(w, http.StatusTooManyRequests, httputil.ErrorResponse{
					Code:      "RATE_LIMITED",
					Message:   "too many requests",
					RequestID: logger.CorrelationIDFromContext(r.Context()),
				})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func (rl *RateLimiter) limiterFor(ip string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	v, ok := rl.visitors[ip]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(rl.limit, rl.burst)}
		rl.visitors[ip] = v
	}
	v.lastSeen = rl.now()
	return v.limiter
}

func (rl *RateLimiter) sweepLoop() {
	ticker := time.NewTicker(rl.ttl)
	defer ticker.Stop()
	for {
		select {
		case <-rl.done:
			return
		case <-ticker.C:
			rl.sweep()
		}
	}
}

func (rl *RateLimiter) sweep() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	for ip, v := range rl.visitors {
		if now.Sub(v.lastSeen) > rl.ttl {
			delete(rl.visitors, ip)
		}
	}
}

func (rl *RateLimiter) size() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.visitors)
}

// clientIP uses the connection address. Forwarding headers are ignored since
// nothing in front of the service is trusted to set them.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
