package httpx

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time          { return c.t }
func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func TestRateLimiter_BurstThenRefill(t *testing.T) {
	clock := &fakeClock{t: time.Date(2026, 10, 16, 10, 0, 0, 0, time.UTC)}
	rl := NewRateLimiterWithClock(5, time.Minute, clock.Now)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		if ok, _ := rl.Allow(ctx, "1.2.3.4"); !ok {
			t.Fatalf("request %d should be allowed", i+1)
		}
	}
	if ok, _ := rl.Allow(ctx, "1.2.3.4"); ok {
		t.Fatal("6th request within the window should be rejected")
	}
	if ok, _ := rl.Allow(ctx, "5.6.7.8"); !ok {
		t.Fatal("other clients have their own budget")
	}

	clock.Advance(13 * time.Second)
	if ok, _ := rl.Allow(ctx, "1.2.3.4"); !ok {
		t.Fatal("one token should be back after window/limit")
	}
	if ok, _ := rl.Allow(ctx, "1.2.3.4"); ok {
		t.Fatal("only one token should have been refilled")
	}
}

func TestRateLimiter_ForgetsIdleClients(t *testing.T) {
	clock := &fakeClock{t: time.Date(2026, 10, 16, 10, 0, 0, 0, time.UTC)}
	rl := NewRateLimiterWithClock(2, time.Minute, clock.Now)
	ctx := context.Background()

	_, _ = rl.Allow(ctx, "a")
	_, _ = rl.Allow(ctx, "b")
	clock.Advance(2 * time.Minute)
	_, _ = rl.Allow(ctx, "c")

	rl.mu.Lock()
	defer rl.mu.Unlock()
	if len(rl.visitors) != 1 {
		t.Fatalf("expected idle visitors to be dropped, have %d", len(rl.visitors))
	}
}

func TestRateLimitMiddleware(t *testing.T) {
	clock := &fakeClock{t: time.Date(2026, 10, 16, 10, 0, 0, 0, time.UTC)}
	rejected := 0
	h := RateLimit(NewRateLimiterWithClock(1, time.Minute, clock.Now), RateLimitOptions{
		OnReject: func(*http.Request) { rejected++ },
	})(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	do := func(xff string) int {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/book", nil)
		req.Header.Set("X-Forwarded-For", xff)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec.Code
	}
	if code := do("10.0.0.1, 172.16.0.1"); code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", code)
	}
	if code := do("10.0.0.1"); code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", code)
	}
	if code := do("10.0.0.2"); code != http.StatusNoContent {
		t.Fatalf("expected 204 for another client, got %d", code)
	}
	if rejected != 1 {
		t.Fatalf("expected OnReject once, got %d", rejected)
	}
}

func TestRedisRateLimiter(t *testing.T) {
	s, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis: %v", err)
	}
	defer s.Close()

	client := redis.NewClient(&redis.Options{Addr: s.Addr()})
	defer client.Close()

	rl := NewRedisRateLimiter(client, 2, time.Minute, "test")
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		ok, err := rl.Allow(ctx, "1.2.3.4")
		if err != nil || !ok {
			t.Fatalf("request %d: ok=%v err=%v", i+1, ok, err)
		}
	}
	if ok, err := rl.Allow(ctx, "1.2.3.4"); err != nil || ok {
		t.Fatalf("3rd request: expected rejection, got ok=%v err=%v", ok, err)
	}
	if ttl := s.TTL("test:1.2.3.4"); ttl <= 0 || ttl > time.Minute {
		t.Fatalf("expected window expiry on the key, got %s", ttl)
	}

	s.FastForward(time.Minute)
	if ok, err := rl.Allow(ctx, "1.2.3.4"); err != nil || !ok {
		t.Fatalf("after window: ok=%v err=%v", ok, err)
	}
	if err := RedisReadyCheck(client)(ctx); err != nil {
		t.Fatalf("ready check: %v", err)
	}
}

func TestRedisRateLimiter_FailOpen(t *testing.T) {
	s, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis: %v", err)
	}
	client := redis.NewClient(&redis.Options{Addr: s.Addr(), MaxRetries: -1})
	defer client.Close()
	s.Close()

	next := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) })
	rl := NewRedisRateLimiter(client, 1, time.Minute, "")

	rec := httptest.NewRecorder()
	RateLimit(rl, RateLimitOptions{FailOpen: true})(next).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("fail-open: expected 200, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	RateLimit(rl, RateLimitOptions{})(next).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("fail-closed: expected 503, got %d", rec.Code)
	}
}
