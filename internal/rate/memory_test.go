package rate

import (
	"context"
	"testing"
	"time"
)

func TestMemoryLimiterWindow(t *testing.T) {
	lim := NewMemory(2, time.Minute)
	ctx := context.Background()
	now := time.Now()

	allowed, _, err := lim.Allow(ctx, "ip", now)
	if err != nil || !allowed {
		t.Fatalf("expected allow on first call")
	}

	allowed, _, err = lim.Allow(ctx, "ip", now)
	if err != nil || !allowed {
		t.Fatalf("expected allow on second call")
	}

	allowed, retryAfter, err := lim.Allow(ctx, "ip", now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if allowed {
		t.Fatalf("expected rate limited")
	}
	if retryAfter <= 0 {
		t.Fatalf("expected retryAfter > 0")
	}

	allowed, _, err = lim.Allow(ctx, "ip", now.Add(2*time.Minute))
	if err != nil || !allowed {
		t.Fatalf("expected allow after window")
	}
}

func TestMemoryLimiterIndependentKeys(t *testing.T) {
	lim := NewMemory(1, time.Minute)
	ctx := context.Background()
	now := time.Now()

	if allowed, _, _ := lim.Allow(ctx, "a", now); !allowed {
		t.Fatalf("expected allow for a")
	}
	if allowed, _, _ := lim.Allow(ctx, "a", now); allowed {
		t.Fatalf("expected a limited")
	}
	if allowed, _, _ := lim.Allow(ctx, "b", now); !allowed {
		t.Fatalf("expected b unaffected")
	}
}
