package middleware

import (
	"context"
	"math"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"
)

// TokenBucket holds fractional tokens so that slow refill rates still
// accumulate between calls.
type TokenBucket struct {
	mu       sync.Mutex
	capacity float64
	tokens   float64
	perSec   float64
	last     time.Time
	now      func() time.Time
}

func NewTokenBucket(capacity, refillPerSecond int) *TokenBucket {
	return newBucket(capacity, refillPerSecond, time.Now)
}

func newBucket(capacity, refillPerSecond int, now func() time.Time) *TokenBucket {
	return &TokenBucket{
		capacity: float64(capacity),
		tokens:   float64(capacity),
		perSec:   float64(refillPerSecond),
		last:     now(),
		now:      now,
	}
}

// Allow takes one token if available.
func (tb *TokenBucket) Allow() bool {
	tb.mu.Lock()
	defer tb.mu.Unlock()

	now := tb.now()
	tb.tokens = math.Min(tb.capacity, tb.tokens+now.Sub(tb.last).Seconds()*tb.perSec)
	tb.last = now
	if tb.tokens < 1 {
		return false
	}
	tb.tokens--
	return true
}

// RetryAfter is how long until the next token, rounded up to whole seconds.
func (tb *TokenBucket) RetryAfter() time.Duration {
	tb.mu.Lock()
	defer tb.mu.Unlock()
	if tb.perSec <= 0 {
		return time.Minute
	}
	secs := math.Ceil((1 - tb.tokens) / tb.perSec)
	if secs < 1 {
		secs = 1
	}
	return time.Duration(secs) * time.Second
}

func (tb *TokenBucket) idleSince(t time.Time) bool {
	tb.mu.Lock()
	defer tb.mu.Unlock()
	return tb.last.Before(t)
}

// RateLimiter keeps one bucket per client address.
type RateLimiter struct {
	mu       sync.Mutex
	buckets  map[string]*TokenBucket
	capacity int
	perSec   int
	now      func() time.Time
}

func NewRateLimiter(capacity, refillPerSecond int) *RateLimiter {
	return &RateLimiter{
		buckets:  make(map[string]*TokenBucket),
		capacity: capacity,
		perSec:   refillPerSecond,
		now:      time.Now,
	}
}

func (rl *RateLimiter) bucket(key string) *TokenBucket {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	b, ok := rl.buckets[key]
	if !ok {
		b = newBucket(rl.capacity, rl.perSec, rl.now)
		rl.buckets[key] = b
	}
	return b
}

// Prune drops buckets untouched for longer than idle and reports how many
// remain.
func (rl *RateLimiter) Prune(idle time.Duration) int {
	cutoff := rl.now().Add(-idle)
	rl.mu.Lock()
	defer rl.mu.Unlock()
	for key, b := range rl.buckets {
		if b.idleSince(cutoff) {
			delete(rl.buckets, key)
		}
	}
	return len(rl.buckets)
}

// PruneEvery calls Prune(idle) on every tick until ctx is done.
func (rl *RateLimiter) PruneEvery(ctx context.Context, every, idle time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			rl.Prune(idle)
		}
	}
}

// RateLimitMiddleware limits analysis uploads per client IP. Only POST
// requests spend tokens: reads and health checks are never limited. Idle
// buckets are pruned in the background until ctx is cancelled.
func RateLimitMiddleware(ctx context.Context, capacity, refillPerSecond int) func(http.Handler) http.Handler {
	limiter := NewRateLimiter(capacity, refillPerSecond)
	go limiter.PruneEvery(ctx, 5*time.Minute, 10*time.Minute)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost {
				next.ServeHTTP(w, r)
				return
			}
			b := limiter.bucket(clientIP(r))
			if !b.Allow() {
				w.Header().Set("Retry-After", strconv.Itoa(int(b.RetryAfter().Seconds())))
				http.Error(w, "rate limit exceeded, please try again later", http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// clientIP strips the port from RemoteAddr so one client maps to one bucket.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
