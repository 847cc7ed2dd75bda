package ratelimit

import (
	"context"
	"sync"
	"time"
)

// DefaultWaveInterval is the minimum pause between successive request waves.
const DefaultWaveInterval = 1 * time.Second

// Gate enforces a minimum delay between successive waves of outbound
// requests. It is deliberately not a token bucket: one slot is granted at a
// time, and a slot is granted no sooner than the configured interval after
// the previous one. The first slot is granted immediately.
type Gate struct {
	mu       sync.Mutex
	interval time.Duration
	last     time.Time
}

// NewGate creates a gate with the given minimum interval between slots.
// A non-positive interval falls back to DefaultWaveInterval.
func NewGate(interval time.Duration) *Gate {
	if interval <= 0 {
		interval = DefaultWaveInterval
	}
	return &Gate{interval: interval}
}

// Wait blocks until the next slot is available or the context is done.
func (g *Gate) Wait(ctx context.Context) error {
	g.mu.Lock()
	now := time.Now()
	var wait time.Duration
	if !g.last.IsZero() {
		if elapsed := now.Sub(g.last); elapsed < g.interval {
			wait = g.interval - elapsed
		}
	}
	prev := g.last
	g.last = now.Add(wait)
	reserved := g.last
	g.mu.Unlock()

	if wait <= 0 {
		return nil
	}

	timer := time.NewTimer(wait)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		// Release the slot so a cancelled caller does not delay the next
		// wave. Only roll back if nobody reserved after us.
		g.mu.Lock()
		if g.last.Equal(reserved) {
			g.last = prev
		}
		g.mu.Unlock()
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Interval returns the configured minimum interval between slots.
func (g *Gate) Interval() time.Duration {
	return g.interval
}
