package ws

import (
	"testing"
	"time"
)

// TestRateLimiterBurst verifies the bucket allows its capacity and then refuses.
func TestRateLimiterBurst(t *testing.T) {
	rl := newRateLimiter(3, time.Hour)

	for i := 0; i < 3; i++ {
		if !rl.allow() {
			t.Fatalf("Expected call %d to be allowed", i+1)
		}
	}
	if rl.allow() {
		t.Error("Expected call beyond burst to be refused")
	}
}

// TestRateLimiterRefill verifies tokens come back over time.
func TestRateLimiterRefill(t *testing.T) {
	rl := newRateLimiter(1, 20*time.Millisecond)

	if !rl.allow() {
		t.Fatal("Expected first call allowed")
	}
	if rl.allow() {
		t.Fatal("Expected second call refused")
	}

	time.Sleep(40 * time.Millisecond)
	if !rl.allow() {
		t.Error("Expected call allowed after refill")
	}
}
