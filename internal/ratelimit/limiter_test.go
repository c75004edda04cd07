package ratelimit

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/af-corp/aegis-docai/internal/config"
	"github.com/af-corp/aegis-docai/internal/kv/kvtest"
)

func newTestLimiter(failOpen bool) (*Limiter, *kvtest.Store, *time.Time) {
	now := time.Date(2026, 3, 1, 10, 0, 5, 0, time.UTC)
	store := kvtest.New()
	store.Now = func() time.Time { return now }
	cfg := func() config.RateLimitConfig {
		return config.RateLimitConfig{Enabled: true, RequestsPerWindow: 3, Window: time.Minute, FailOpen: failOpen}
	}
	l := NewLimiter(store, cfg)
	l.now = func() time.Time { return now }
	return l, store, &now
}

func TestLimiter_NilStore_AlwaysAllows(t *testing.T) {
	l := NewLimiter(nil, func() config.RateLimitConfig { return config.RateLimitConfig{} })
	for i := 0; i < 100; i++ {
		result, err := l.Check(context.Background(), "t1", 10, time.Minute)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !result.Allowed {
			t.Fatalf("expected allowed on check %d", i)
		}
	}
}

func TestLimiter_LimitThenRejectThenNextWindow(t *testing.T) {
	l, _, now := newTestLimiter(true)
	ctx := context.Background()

	for i := 1; i <= 3; i++ {
		result, err := l.Check(ctx, "t1", 3, time.Minute)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !result.Allowed {
			t.Fatalf("request %d should be allowed", i)
		}
		if result.Remaining != int64(3-i) {
			t.Errorf("request %d: remaining = %d, want %d", i, result.Remaining, 3-i)
		}
	}

	result, err := l.Check(ctx, "t1", 3, time.Minute)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Allowed {
		t.Fatal("4th request in the same window should be rejected")
	}
	if result.RetryAfter != 55*time.Second {
		t.Errorf("RetryAfter = %s, want 55s", result.RetryAfter)
	}
	wantReset := time.Date(2026, 3, 1, 10, 1, 0, 0, time.UTC)
	if !result.ResetAt.Equal(wantReset) {
		t.Errorf("ResetAt = %s, want %s", result.ResetAt, wantReset)
	}

	*now = now.Add(time.Minute)
	result, _ = l.Check(ctx, "t1", 3, time.Minute)
	if !result.Allowed {
		t.Error("first request of the next window should be allowed")
	}
}

func TestLimiter_TenantsAreIndependent(t *testing.T) {
	l, _, _ := newTestLimiter(true)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		l.Check(ctx, "t1", 3, time.Minute)
	}
	if r, _ := l.Check(ctx, "t1", 3, time.Minute); r.Allowed {
		t.Error("t1 should be exhausted")
	}
	if r, _ := l.Check(ctx, "t2", 3, time.Minute); !r.Allowed {
		t.Error("t2 must not be throttled by t1's traffic")
	}
}

func TestLimiter_ConcurrentCallersNeverExceedLimit(t *testing.T) {
	l, _, _ := newTestLimiter(true)
	ctx := context.Background()

	var allowed atomic.Int64
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if r, _ := l.Check(ctx, "t1", 3, time.Minute); r.Allowed {
				allowed.Add(1)
			}
		}()
	}
	wg.Wait()

	if got := allowed.Load(); got != 3 {
		t.Errorf("allowed = %d, want 3", got)
	}
}

func TestLimiter_StoreDown(t *testing.T) {
	tests := []struct {
		name     string
		failOpen bool
	}{
		{"fail open admits", true},
		{"fail closed rejects", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, store, _ := newTestLimiter(tt.failOpen)
			store.SetDown(true)

			result, err := l.Check(context.Background(), "t1", 3, time.Minute)
			if err == nil {
				t.Error("expected store error to be reported")
			}
			if result.Allowed != tt.failOpen {
				t.Errorf("Allowed = %v, want %v", result.Allowed, tt.failOpen)
			}
		})
	}
}

func TestKey_EscapesTenant(t *testing.T) {
	if Key("a:b", 7) == Key("a", 7) {
		t.Error("keys must differ")
	}
	if got := Key("a:b", 7); got != "docai:rl:a%3Ab:7" {
		t.Errorf("unexpected key %q", got)
	}
}
