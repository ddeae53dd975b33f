package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type fakeNow struct{ t time.Time }

func (f *fakeNow) now() time.Time { return f.t }

func TestTokenBucketExhausts(t *testing.T) {
	tb := NewTokenBucket(2, 0)
	assert.True(t, tb.Allow())
	assert.True(t, tb.Allow())
	assert.False(t, tb.Allow())
	assert.Equal(t, time.Minute, tb.RetryAfter())
}

func TestTokenBucketRefillsFractionally(t *testing.T) {
	clock := &fakeNow{t: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	tb := newBucket(1, 1, clock.now)
	assert.True(t, tb.Allow())
	assert.False(t, tb.Allow())

	// two half-second waits add up to one token
	clock.t = clock.t.Add(500 * time.Millisecond)
	assert.False(t, tb.Allow())
	clock.t = clock.t.Add(500 * time.Millisecond)
	assert.True(t, tb.Allow())
	assert.Equal(t, time.Second, tb.RetryAfter())
}

func TestRateLimiterPrune(t *testing.T) {
	clock := &fakeNow{t: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	rl := NewRateLimiter(1, 1)
	rl.now = clock.now

	rl.bucket("a").Allow()
	clock.t = clock.t.Add(time.Hour)
	rl.bucket("b").Allow()

	assert.Equal(t, 1, rl.Prune(10*time.Minute))
}

func TestRateLimitMiddlewareKeysByIP(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	h := RateLimitMiddleware(ctx, 1, 0)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	do := func(method, addr, path string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(method, path, nil)
		req.RemoteAddr = addr
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec
	}

	assert.Equal(t, http.StatusNoContent, do(http.MethodPost, "10.0.0.1:1111", "/v1/analyze").Code)
	limited := do(http.MethodPost, "10.0.0.1:2222", "/v1/analyze")
	assert.Equal(t, http.StatusTooManyRequests, limited.Code)
	assert.Equal(t, "60", limited.Header().Get("Retry-After"))
	assert.Equal(t, http.StatusNoContent, do(http.MethodPost, "10.0.0.2:1111", "/v1/analyze").Code)
	assert.Equal(t, http.StatusNoContent, do(http.MethodGet, "10.0.0.1:3333", "/v1/sessions/u/history").Code)
}

func TestPruneEveryStopsOnCancel(t *testing.T) {
	rl := NewRateLimiter(1, 0)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		rl.PruneEvery(ctx, time.Millisecond, time.Hour)
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("PruneEvery kept running after cancel")
	}
}

func TestPruneEveryDropsIdleBuckets(t *testing.T) {
	rl := NewRateLimiter(1, 0)
	rl.bucket("10.0.0.1")
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go rl.PruneEvery(ctx, time.Millisecond, -time.Hour)

	assert.Eventually(t, func() bool {
		rl.mu.Lock()
		defer rl.mu.Unlock()
		return len(rl.buckets) == 0
	}, time.Second, 5*time.Millisecond)
}
