package ratelimit

import (
	"context"
	"fmt"
	"testing"
	"time"
)

func TestAllowRefill(t *testing.T) {
	l := New()
	now := time.Unix(1700000000, 0)
	l.now = func() time.Time { return now }

	for i := 0; i < 3; i++ {
		if !l.Allow("binance", 3, 1) {
			t.Fatalf("token %d should be allowed", i)
		}
	}
	if l.Allow("binance", 3, 1) {
		t.Fatal("bucket should be empty")
	}
	if !l.Allow("other", 1, 1) {
		t.Fatal("keys must not share buckets")
	}

	now = now.Add(time.Second)
	if !l.Allow("binance", 3, 1) {
		t.Fatal("one token should refill after a second")
	}
	if l.Allow("binance", 3, 1) {
		t.Fatal("only one token should refill")
	}
}

func TestWaitHonorsContext(t *testing.T) {
	l := New()
	if err := l.Wait(context.Background(), "k", 1, 0.001); err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if err := l.Wait(ctx, "k", 1, 0.001); err != context.DeadlineExceeded {
		t.Fatalf("err = %v, want deadline exceeded", err)
	}
}

func TestWaitBlocksUntilRefill(t *testing.T) {
	l := New()
	_ = l.Wait(context.Background(), "k", 1, 50)
	start := time.Now()
	if err := l.Wait(context.Background(), "k", 1, 50); err != nil {
		t.Fatal(err)
	}
	if time.Since(start) < 10*time.Millisecond {
		t.Fatal("second token returned without waiting")
	}
}

func TestIdleBucketsAreEvicted(t *testing.T) {
	l := New(WithIdleTTL(time.Minute))
	now := time.Unix(1700000000, 0)
	l.now = func() time.Time { return now }

	for i := 0; i < 100; i++ {
		l.Allow(fmt.Sprintf("10.0.0.%d", i), 5, 1)
	}
	if l.Len() != 100 {
		t.Fatalf("buckets = %d, want 100", l.Len())
	}

	// a drained bucket that has not refilled yet must survive the sweep
	slow := "203.0.113.7"
	for l.Allow(slow, 2, 0.001) {
	}

	now = now.Add(2 * time.Minute)
	if !l.Allow("fresh", 5, 1) {
		t.Fatal("fresh key should be allowed")
	}
	if l.Len() != 2 {
		t.Fatalf("buckets after sweep = %d, want 2 (drained + fresh)", l.Len())
	}
	if l.Allow(slow, 2, 0.001) {
		t.Fatal("eviction must not hand a drained key a new full bucket")
	}
}
