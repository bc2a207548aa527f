//go:build !integration

package redis

import (
	"context"
	"testing"
	"time"
)

// fakeClient is an in-memory stand-in for the redis client.
type fakeClient struct {
	counts  map[string]int64
	expires map[string]time.Duration
}

func newFakeClient() *fakeClient {
	return &fakeClient{counts: map[string]int64{}, expires: map[string]time.Duration{}}
}

func (f *fakeClient) Ping(ctx context.Context) error { return nil }

func (f *fakeClient) Incr(ctx context.Context, key string) (int64, error) {
	f.counts[key]++
	return f.counts[key], nil
}

func (f *fakeClient) Expire(ctx context.Context, key string, expiration time.Duration) error {
	f.expires[key] = expiration
	return nil
}

func (f *fakeClient) Del(ctx context.Context, keys ...string) error {
	for _, k := range keys {
		delete(f.counts, k)
	}
	return nil
}

func (f *fakeClient) Close() error { return nil }

func TestRateLimiter_AllowsUpToLimit(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	rl := NewRateLimiter(newFakeClient())
	key := RedeemKey("u1")

	for i := 0; i < 3; i++ {
		ok, err := rl.Allow(ctx, key, 3, time.Minute)
		if err != nil || !ok {
			t.Fatalf("attempt %d: ok=%v err=%v", i+1, ok, err)
		}
	}
	ok, err := rl.Allow(ctx, key, 3, time.Minute)
	if err != nil {
		t.Fatalf("Allow: %v", err)
	}
	if ok {
		t.Fatalf("fourth attempt must be rejected")
	}
}

func TestRateLimiter_SetsWindowOnFirstHit(t *testing.T) {
	t.Parallel()

	cli := newFakeClient()
	rl := NewRateLimiter(cli)
	key := RedeemKey("u1")

	if _, err := rl.Allow(context.Background(), key, 10, time.Minute); err != nil {
		t.Fatalf("Allow: %v", err)
	}
	if cli.expires[key] != time.Minute {
		t.Fatalf("expiry not set on first hit: %v", cli.expires[key])
	}
}

func TestRateLimiter_KeysAreIndependent(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	rl := NewRateLimiter(newFakeClient())

	if ok, _ := rl.Allow(ctx, RedeemKey("u1"), 1, time.Minute); !ok {
		t.Fatalf("u1 first attempt rejected")
	}
	if ok, _ := rl.Allow(ctx, RedeemKey("u1"), 1, time.Minute); ok {
		t.Fatalf("u1 second attempt allowed")
	}
	if ok, _ := rl.Allow(ctx, RedeemKey("u2"), 1, time.Minute); !ok {
		t.Fatalf("u2 must not share u1's window")
	}
}

func TestRateLimiter_NilIsNoop(t *testing.T) {
	t.Parallel()

	var rl *RateLimiter
	for i := 0; i < 100; i++ {
		ok, err := rl.Allow(context.Background(), "any", 1, time.Minute)
		if err != nil || !ok {
			t.Fatalf("nil limiter must allow everything: ok=%v err=%v", ok, err)
		}
	}
}
