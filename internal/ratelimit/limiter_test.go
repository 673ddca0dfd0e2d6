package ratelimit

import (
	"errors"
	"sync"
	"testing"
	"time"
)

// fixedClock returns a limiter whose clock is controlled by the returned pointer.
func fixedClock(l *Limiter) *time.Time {
	now := time.Unix(1_700_000_000, 0)
	l.nowFunc = func() time.Time { return now }
	return &now
}

func TestAllow_Burst(t *testing.T) {
	l := NewLimiter(1.0, 3)
	fixedClock(l)

	for i := 0; i < 3; i++ {
		if !l.Allow("k") {
			t.Errorf("request %d should be allowed (within burst)", i+1)
		}
	}
	if l.Allow("k") {
		t.Error("request after burst exhaustion should be rejected")
	}
}

func TestAllow_Refill(t *testing.T) {
	tests := []struct {
		name    string
		rate    float64
		burst   int
		used    int
		advance time.Duration
		allowed int
	}{
		{"full refill", 10, 2, 2, 200 * time.Millisecond, 2},
		{"partial refill", 2, 5, 5, 250 * time.Millisecond, 0},
		{"one token", 2, 5, 5, 500 * time.Millisecond, 1},
		{"capped at burst", 100, 3, 3, 10 * time.Second, 3},
		{"zero rate never refills", 0, 2, 2, time.Hour, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := NewLimiter(tt.rate, tt.burst)
			now := fixedClock(l)

			for i := 0; i < tt.used; i++ {
				l.Allow("k")
			}
			*now = now.Add(tt.advance)

			got := 0
			for l.Allow("k") {
				got++
				if got > tt.burst {
					break
				}
			}
			if got != tt.allowed {
				t.Errorf("allowed %d after refill, want %d", got, tt.allowed)
			}
		})
	}
}

func TestAllow_IndependentKeys(t *testing.T) {
	l := NewLimiter(1.0, 1)
	fixedClock(l)

	l.Allow("a")
	if l.Allow("a") {
		t.Error("a should be exhausted")
	}
	if !l.Allow("b") {
		t.Error("b should be allowed (independent bucket)")
	}
}

func TestTokensAndReset(t *testing.T) {
	l := NewLimiter(4.0, 4)
	now := fixedClock(l)

	if got := l.Tokens("k"); got != 4 {
		t.Errorf("Tokens() on new key = %v, want 4", got)
	}
	l.Allow("k")
	l.Allow("k")
	if got := l.Tokens("k"); got != 2 {
		t.Errorf("Tokens() after two calls = %v, want 2", got)
	}

	*now = now.Add(250 * time.Millisecond)
	if got := l.Tokens("k"); got != 3 {
		t.Errorf("Tokens() after refill = %v, want 3", got)
	}

	l.Reset("k")
	if got := l.Tokens("k"); got != 4 {
		t.Errorf("Tokens() after Reset = %v, want 4", got)
	}
}

func TestAllow_ConcurrentAccess(t *testing.T) {
	l := NewLimiter(0, 100)

	var wg sync.WaitGroup
	allowed := make(chan bool, 200)
	for i := 0; i < 200; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			allowed <- l.Allow("concurrent-key")
		}()
	}
	wg.Wait()
	close(allowed)

	count := 0
	for a := range allowed {
		if a {
			count++
		}
	}
	if count != 100 {
		t.Errorf("allowed %d requests, want exactly 100 with zero refill", count)
	}
}

func TestNewToolLimiters(t *testing.T) {
	limiters := NewToolLimiters()

	tests := []struct {
		tool  string
		burst int
	}{
		{ToolPlace, 10},
		{ToolRegister, 50},
		{ToolUnregister, 50},
		{ToolBounds, 20},
		{ToolAddPending, 100},
		{ToolDrainPending, 5},
		{ToolCapacity, 20},
	}

	if len(limiters) != len(tests) {
		t.Errorf("got %d limiters, want %d", len(limiters), len(tests))
	}
	for _, tt := range tests {
		t.Run(tt.tool, func(t *testing.T) {
			limiter, ok := limiters[tt.tool]
			if !ok {
				t.Fatalf("missing rate limiter for tool: %s", tt.tool)
			}
			if limiter.burst != tt.burst {
				t.Errorf("burst = %d, want %d", limiter.burst, tt.burst)
			}
		})
	}
}

func TestCheckLimit(t *testing.T) {
	limiters := NewToolLimiters()

	if err := CheckLimit(limiters, ToolPlace); err != nil {
		t.Errorf("unexpected error for %s: %v", ToolPlace, err)
	}
	if err := CheckLimit(limiters, "unknown_tool"); err != nil {
		t.Errorf("unexpected error for unknown tool: %v", err)
	}

	limiters[ToolDrainPending] = NewLimiter(0, 1)
	if err := CheckLimit(limiters, ToolDrainPending); err != nil {
		t.Fatalf("first drain should pass: %v", err)
	}
	err := CheckLimit(limiters, ToolDrainPending)
	if !errors.Is(err, ErrRateLimited) {
		t.Errorf("expected ErrRateLimited after burst exhaustion, got %v", err)
	}
}
