package ratelimit

import (
	"testing"
	"time"
)

func TestAllowConsumesAndRefills(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	l := New()
	l.now = func() time.Time { return now }

	for i := 0; i < 3; i++ {
		if !l.Allow("10.0.0.1", 3, 0.5) {
			t.Fatalf("attempt %d should pass", i+1)
		}
	}
	if l.Allow("10.0.0.1", 3, 0.5) {
		t.Fatalf("fourth attempt should be throttled")
	}
	if !l.Allow("10.0.0.2", 3, 0.5) {
		t.Fatalf("other keys are independent")
	}

	now = now.Add(2 * time.Second)
	if !l.Allow("10.0.0.1", 3, 0.5) {
		t.Fatalf("one token should have refilled")
	}
	if l.Allow("10.0.0.1", 3, 0.5) {
		t.Fatalf("only one token should have refilled")
	}
}

func TestResetAndPrune(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	l := New()
	l.now = func() time.Time { return now }

	l.Allow("a", 1, 0)
	if l.Allow("a", 1, 0) {
		t.Fatalf("bucket should be empty")
	}
	l.Reset("a")
	if !l.Allow("a", 1, 0) {
		t.Fatalf("reset should restore the bucket")
	}

	l.Allow("b", 1, 0)
	now = now.Add(time.Hour)
	if n := l.Prune(time.Minute); n != 2 {
		t.Fatalf("expected 2 pruned buckets, got %d", n)
	}
}
