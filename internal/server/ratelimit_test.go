package server

import (
	"testing"
	"time"
)

func TestRateLimiterWindow(t *testing.T) {
	now := time.Date(2026, 10, 16, 9, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }

	rl := newRateLimiter(2, clock)
	if !rl.allow() || !rl.allow() {
		t.Fatalf("first two lines should pass")
	}
	if rl.allow() {
		t.Fatalf("third line in the window should be dropped")
	}

	now = now.Add(rateWindow)
	if !rl.allow() {
		t.Fatalf("a new window should reset the counter")
	}
}

func TestRateLimiterDisabled(t *testing.T) {
	rl := newRateLimiter(0, time.Now)
	for i := 0; i < 1000; i++ {
		if !rl.allow() {
			t.Fatalf("disabled limiter dropped line %d", i)
		}
	}

	var missing *rateLimiter
	if !missing.allow() {
		t.Fatalf("nil limiter should allow")
	}
}
