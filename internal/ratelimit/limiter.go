// Package ratelimit provides per-key token bucket rate limiting for the
// cellgrid MCP tools.
package ratelimit

import (
	"errors"
	"fmt"
	"sync"
	"time"
)

// ErrRateLimited is wrapped by CheckLimit when a tool call is rejected.
var ErrRateLimited = errors.New("rate limit exceeded")

// Limiter implements a per-key token bucket rate limiter.
// Each key gets its own bucket with the configured rate and burst.
// It is safe for concurrent use.
type Limiter struct {
	mu      sync.Mutex
	buckets map[string]*bucket
	rate    float64          // tokens per second
	burst   int              // max burst size (also initial token count)
	nowFunc func() time.Time // injectable clock for testing
}

type bucket struct {
	tokens    float64
	lastCheck time.Time
}

// NewLimiter creates a rate limiter with the given rate (tokens/sec) and burst size.
// The burst size also serves as the initial number of tokens available.
func NewLimiter(rate float64, burst int) *Limiter {
	return &Limiter{
		buckets: make(map[string]*bucket),
		rate:    rate,
		burst:   burst,
		nowFunc: time.Now,
	}
}

// PerMinute creates a limiter allowing n calls per minute with the given burst.
func PerMinute(n int, burst int) *Limiter {
	return NewLimiter(float64(n)/60.0, burst)
}

// Allow reports whether a request for key may proceed, consuming one token
// if so.
func (l *Limiter) Allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	b := l.refillLocked(key)
	if b.tokens < 1.0 {
		return false
	}
	b.tokens--
	return true
}

// Tokens returns the tokens currently available for key after refill.
func (l *Limiter) Tokens(key string) float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.refillLocked(key).tokens
}

// Reset drops the bucket for key so the next call starts with a full burst.
func (l *Limiter) Reset(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.buckets, key)
}

func (l *Limiter) refillLocked(key string) *bucket {
	now := l.nowFunc()

	b, ok := l.buckets[key]
	if !ok {
		b = &bucket{tokens: float64(l.burst), lastCheck: now}
		l.buckets[key] = b
		return b
	}

	if elapsed := now.Sub(b.lastCheck).Seconds(); elapsed > 0 {
		b.tokens = min(b.tokens+l.rate*elapsed, float64(l.burst))
		b.lastCheck = now
	}
	return b
}

// Tool names exposed by the cellgrid MCP server.
const (
	ToolPlace        = "cellgrid_place"
	ToolRegister     = "cellgrid_register"
	ToolUnregister   = "cellgrid_unregister"
	ToolBounds       = "cellgrid_bounds"
	ToolAddPending   = "cellgrid_add_pending"
	ToolDrainPending = "cellgrid_drain_pending"
	ToolCapacity     = "cellgrid_capacity"
)

// ToolLimiters maps tool names to their rate limiters.
type ToolLimiters map[string]*Limiter

// NewToolLimiters creates the default set of per-tool rate limiters.
// Read-only tools get the most headroom; draining is the most expensive
// call and gets the least.
func NewToolLimiters() ToolLimiters {
	return ToolLimiters{
		ToolPlace:        PerMinute(120, 10),
		ToolRegister:     PerMinute(600, 50),
		ToolUnregister:   PerMinute(600, 50),
		ToolBounds:       PerMinute(600, 20),
		ToolAddPending:   PerMinute(1200, 100),
		ToolDrainPending: PerMinute(60, 5),
		ToolCapacity:     PerMinute(600, 20),
	}
}

// CheckLimit checks the rate limit for a given tool name.
// Returns nil if allowed, or an error wrapping ErrRateLimited.
// Tools without a configured limiter are always allowed.
func CheckLimit(limiters ToolLimiters, toolName string) error {
	limiter, ok := limiters[toolName]
	if !ok {
		return nil
	}

	if !limiter.Allow(toolName) {
		return fmt.Errorf("%w for %s, please try again shortly", ErrRateLimited, toolName)
	}

	return nil
}
