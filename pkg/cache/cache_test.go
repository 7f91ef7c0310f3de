package cache

import (
	"context"
	"errors"
	"testing"
	"time"
)

type payload struct {
	Symbol string    `json:"symbol"`
	Closes []float64 `json:"closes"`
}

func TestMemoryCache_RoundTripAndCopy(t *testing.T) {
	ctx := context.Background()
	mc := NewMemoryCache()
	defer mc.Close()

	in := payload{Symbol: "BTC/USDT", Closes: []float64{1, 2, 3}}
	if err := mc.Set(ctx, "bars:BTC/USDT:1d:365", in, time.Minute); err != nil {
		t.Fatalf("set: %v", err)
	}
	in.Closes[0] = 99

	var out payload
	if err := mc.Get(ctx, "bars:BTC/USDT:1d:365", &out); err != nil {
		t.Fatalf("get: %v", err)
	}
	if out.Symbol != "BTC/USDT" || out.Closes[0] != 1 {
		t.Fatalf("unexpected value %+v", out)
	}
}

func TestMemoryCache_Expiry(t *testing.T) {
	ctx := context.Background()
	mc := NewMemoryCache()
	defer mc.Close()

	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	mc.now = func() time.Time { return now }

	_ = mc.Set(ctx, "k", "v", time.Second)
	now = now.Add(2 * time.Second)

	var s string
	if err := mc.Get(ctx, "k", &s); !errors.Is(err, ErrCacheMiss) {
		t.Fatalf("expected miss after expiry, got %v", err)
	}
}

func TestMemoryCache_EvictsLeastRecentlyUsed(t *testing.T) {
	ctx := context.Background()
	mc := NewMemoryCache(WithMemoryMaxSize(2))
	defer mc.Close()

	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	mc.now = func() time.Time { now = now.Add(time.Millisecond); return now }

	_ = mc.Set(ctx, "a", 1, time.Minute)
	_ = mc.Set(ctx, "b", 2, time.Minute)
	var v int
	_ = mc.Get(ctx, "a", &v) // a is now more recent than b
	_ = mc.Set(ctx, "c", 3, time.Minute)

	if err := mc.Get(ctx, "b", &v); !errors.Is(err, ErrCacheMiss) {
		t.Fatalf("expected b evicted, got %v", err)
	}
	if err := mc.Get(ctx, "a", &v); err != nil || v != 1 {
		t.Fatalf("expected a kept, got %v %v", v, err)
	}
}

func TestMemoryCache_DeleteByPattern(t *testing.T) {
	ctx := context.Background()
	mc := NewMemoryCache()
	defer mc.Close()

	_ = mc.Set(ctx, GenerateKeyWithParams("bars", "BTC/USDT", "1d", 365), 1, 0)
	_ = mc.Set(ctx, GenerateKeyWithParams("bars", "ETH/USDT", "1h", 30), 1, 0)
	_ = mc.Set(ctx, "symbols:all", 1, 0)

	if err := mc.DeleteByPattern(ctx, BuildPattern("bars:")); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if mc.Len() != 1 {
		t.Fatalf("expected only symbols key left, have %d entries", mc.Len())
	}
}

func TestGlobMatch(t *testing.T) {
	tests := []struct {
		pattern, s string
		want       bool
	}{
		{"bars:*", "bars:BTC/USDT:1d:365", true},
		{"bars:*:1d:*", "bars:BTC/USDT:1d:365", true},
		{"bars:*:1h:*", "bars:BTC/USDT:1d:365", false},
		{"symbols:?ll", "symbols:all", true},
		{"exact", "exact", true},
		{"exact", "exactly", false},
	}
	for _, tt := range tests {
		if got := globMatch(tt.pattern, tt.s); got != tt.want {
			t.Errorf("globMatch(%q, %q) = %v, want %v", tt.pattern, tt.s, got, tt.want)
		}
	}
}

func TestLayeredCache_FallsBackToRemote(t *testing.T) {
	ctx := context.Background()
	remote := NewMemoryCache()
	lc := NewLayeredCache(remote)
	defer lc.Close()

	_ = remote.Set(ctx, "k", payload{Symbol: "ETH/USDT"}, time.Minute)

	var out payload
	if err := lc.Get(ctx, "k", &out); err != nil || out.Symbol != "ETH/USDT" {
		t.Fatalf("expected remote hit, got %+v %v", out, err)
	}
	_ = remote.Delete(ctx, "k")
	out = payload{}
	if err := lc.Get(ctx, "k", &out); err != nil || out.Symbol != "ETH/USDT" {
		t.Fatalf("expected L1 hit after promotion, got %+v %v", out, err)
	}
}
