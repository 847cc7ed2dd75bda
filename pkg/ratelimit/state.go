// Package ratelimit implements Reddit API rate limit tracking and request
// pacing. It monitors the X-Ratelimit-Remaining and X-Ratelimit-Reset
// response headers to keep bulk migrations inside the per-account request
// budget, and provides a fixed-delay gate for pacing request waves.
package ratelimit

import (
	"time"
)

// Thresholds for rate limit decisions. Reddit grants OAuth clients a budget
// of roughly 600 requests per 10-minute window.
const (
	// RemainingCritical blocks all requests when the remaining budget falls
	// below this value, so a bulk migration never burns the last requests of
	// a window.
	RemainingCritical = 5

	// RemainingWarning applies throttling when the remaining budget falls
	// below this value.
	RemainingWarning = 30

	// RemainingHealthy indicates normal operation. At or above this value no
	// restrictions apply.
	RemainingHealthy = 100
)

// State represents the most recently observed Reddit rate limit window.
type State struct {
	// Remaining is the number of requests left in the current window,
	// extracted from the X-Ratelimit-Remaining header.
	Remaining int `json:"remaining"`

	// ResetAt is the timestamp when the window resets, calculated from the
	// X-Ratelimit-Reset header (seconds until reset).
	ResetAt time.Time `json:"reset_at"`

	// LastUpdate is when this state was last refreshed from headers.
	LastUpdate time.Time `json:"last_update"`

	// IsHealthy is true when Remaining >= RemainingHealthy.
	IsHealthy bool `json:"is_healthy"`
}

// IsStale returns true if the state data is older than the given duration.
func (s *State) IsStale(maxAge time.Duration) bool {
	return time.Since(s.LastUpdate) > maxAge
}

// NeedsCriticalBlock returns true if requests should be blocked until the
// window resets.
func (s *State) NeedsCriticalBlock() bool {
	return s.Remaining < RemainingCritical
}

// NeedsThrottling returns true if requests should be slowed down.
func (s *State) NeedsThrottling() bool {
	return s.Remaining < RemainingWarning && !s.NeedsCriticalBlock()
}

// TimeUntilReset returns the duration until the window resets.
// Returns 0 if the reset time has already passed.
func (s *State) TimeUntilReset() time.Duration {
	duration := time.Until(s.ResetAt)
	if duration < 0 {
		return 0
	}
	return duration
}

// UpdateHealth updates the IsHealthy field based on current Remaining.
func (s *State) UpdateHealth() {
	s.IsHealthy = s.Remaining >= RemainingHealthy
}
