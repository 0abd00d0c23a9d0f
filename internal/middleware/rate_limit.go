package middleware

import (
	"encoding/json"
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/filmfriends/backend/internal/logging"
)

// RateLimiter decides whether client may perform another request in scope.
// When it may not, retryAfter is how long until a token frees up.
type RateLimiter interface {
	Allow(scope, client string) (ok bool, retryAfter time.Duration)
}

// Limit is a token bucket refilled at PerSecond with room for Burst tokens.
type Limit struct {
	PerSecond float64
	Burst     int
}

type bucketKey struct {
	scope  string
	client string
}

type bucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// ScopedRateLimiter keeps one bucket per scope and client, so a client
// exhausting its friend mutations can still post events.
type ScopedRateLimiter struct {
	limit Limit
	idle  time.Duration
	now   func() time.Time

	mu        sync.Mutex
	buckets   map[bucketKey]*bucket
	lastSweep time.Time
}

// NewScopedRateLimiter returns a limiter applying limit in every scope.
// Buckets unused for idle are dropped.
func NewScopedRateLimiter(limit Limit, idle time.Duration) *ScopedRateLimiter {
	if limit.PerSecond <= 0 {
		limit.PerSecond = 1
	}
	if limit.Burst <= 0 {
		limit.Burst = 1
	}
	if idle <= 0 {
		idle = 5 * time.Minute
	}
	return &ScopedRateLimiter{
		limit:   limit,
		idle:    idle,
		now:     time.Now,
		buckets: make(map[bucketKey]*bucket),
	}
}

// WithNowFunc allows tests to override the time source.
func (l *ScopedRateLimiter) WithNowFunc(now func() time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.now = now
}

// Allow implements RateLimiter.
func (l *ScopedRateLimiter) Allow(scope, client string) (bool, time.Duration) {
	if client == "" {
		client = "unknown"
	}

	l.mu.Lock()
	now := l.now()
	if now.Sub(l.lastSweep) >= l.idle {
		l.sweepLocked(now)
	}
	key := bucketKey{scope: scope, client: client}
	b, ok := l.buckets[key]
	if !ok {
		b = &bucket{limiter: rate.NewLimiter(rate.Limit(l.limit.PerSecond), l.limit.Burst)}
		l.buckets[key] = b
	}
	b.lastSeen = now
	l.mu.Unlock()

	res := b.limiter.ReserveN(now, 1)
	if delay := res.DelayFrom(now); delay > 0 {
		res.CancelAt(now)
		return false, delay
	}
	return true, 0
}

// Buckets reports how many buckets are currently tracked.
func (l *ScopedRateLimiter) Buckets() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.buckets)
}

func (l *ScopedRateLimiter) sweepLocked(now time.Time) {
	for key, b := range l.buckets {
		if now.Sub(b.lastSeen) > l.idle {
			delete(l.buckets, key)
		}
	}
	l.lastSweep = now
}

// RateLimit rejects requests from a client over its budget in scope with
// 429 and a Retry-After header. A nil limiter lets everything through.
func RateLimit(limiter RateLimiter, scope string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if limiter == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			client := ClientIP(r)
			ok, retryAfter := limiter.Allow(scope, client)
			if ok {
				next.ServeHTTP(w, r)
				return
			}

			logging.FromContext(r.Context()).Warn("rate limited", "scope", scope, "client", client, "retry_after", retryAfter)
			w.Header().Set("Retry-After", strconv.Itoa(retryAfterSeconds(retryAfter)))
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusTooManyRequests)
			_ = json.NewEncoder(w).Encode(map[string]string{"error": "too many requests"})
		})
	}
}

func retryAfterSeconds(d time.Duration) int {
	return max(1, int(math.Ceil(d.Seconds())))
}

// ClientIP returns the first X-Forwarded-For hop, falling back to the host
// part of RemoteAddr.
func ClientIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		first, _, _ := strings.Cut(forwarded, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}

	addr := strings.TrimSpace(r.RemoteAddr)
	if host, _, err := net.SplitHostPort(addr); err == nil && host != "" {
		return host
	}
	return addr
}

var _ RateLimiter = (*ScopedRateLimiter)(nil)
