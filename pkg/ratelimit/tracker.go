package ratelimit

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
)

// Prometheus metrics for rate limit tracking.
var (
	rateLimitRemaining = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "subshift_ratelimit_remaining",
		Help: "Requests remaining in the current Reddit rate limit window",
	})

	rateLimitBlocksTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "subshift_ratelimit_blocks_total",
		Help: "Total number of requests blocked due to critical remaining budget",
	})

	rateLimitThrottlesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "subshift_ratelimit_throttles_total",
		Help: "Total number of requests throttled due to low remaining budget",
	})
)

// Tracker monitors the Reddit rate limit budget and gates requests.
// The migration runs inside a single process, so state is held in memory
// behind a mutex rather than in a shared store.
type Tracker struct {
	mu       sync.RWMutex
	state    State
	throttle time.Duration
	logger   zerolog.Logger
}

// NewTracker creates a new rate limit tracker. Until headers have been
// observed the tracker assumes a healthy budget.
func NewTracker(logger zerolog.Logger) *Tracker {
	return &Tracker{
		state: State{
			Remaining:  600,
			ResetAt:    time.Now().Add(600 * time.Second),
			LastUpdate: time.Now(),
			IsHealthy:  true,
		},
		throttle: 1 * time.Second,
		logger:   logger,
	}
}

// GetState returns a copy of the current rate limit state.
func (t *Tracker) GetState() State {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.state
}

// UpdateFromHeaders parses Reddit rate limit headers and updates the state.
// Responses without rate limit headers are ignored.
func (t *Tracker) UpdateFromHeaders(headers http.Header) error {
	remainStr := headers.Get("X-Ratelimit-Remaining")
	if remainStr == "" {
		return nil
	}

	// Reddit reports the remaining budget as a float ("596.0").
	remainFloat, err := strconv.ParseFloat(remainStr, 64)
	if err != nil {
		return &HeaderError{Header: "X-Ratelimit-Remaining", Value: remainStr, Err: err}
	}
	remain := int(remainFloat)

	resetSeconds := 0
	if resetStr := headers.Get("X-Ratelimit-Reset"); resetStr != "" {
		resetSeconds, err = strconv.Atoi(resetStr)
		if err != nil {
			return &HeaderError{Header: "X-Ratelimit-Reset", Value: resetStr, Err: err}
		}
	}

	now := time.Now()
	state := State{
		Remaining:  remain,
		ResetAt:    now.Add(time.Duration(resetSeconds) * time.Second),
		LastUpdate: now,
	}
	state.UpdateHealth()

	t.mu.Lock()
	t.state = state
	t.mu.Unlock()

	rateLimitRemaining.Set(float64(remain))

	switch {
	case state.NeedsCriticalBlock():
		t.logger.Error().
			Int("remaining", remain).
			Time("reset_at", state.ResetAt).
			Msg("Reddit rate limit critical - requests will be blocked")
	case state.NeedsThrottling():
		t.logger.Warn().
			Int("remaining", remain).
			Time("reset_at", state.ResetAt).
			Msg("Reddit rate limit low - requests will be throttled")
	default:
		t.logger.Debug().
			Int("remaining", remain).
			Time("reset_at", state.ResetAt).
			Msg("Reddit rate limit state updated")
	}

	return nil
}

// ShouldAllowRequest checks if a request should be allowed based on the
// current budget. Returns false if the request must be blocked until the
// window resets. In the warning band the caller is slowed down by a fixed
// throttle delay before true is returned.
func (t *Tracker) ShouldAllowRequest() bool {
	state := t.GetState()

	// Observed state expires with the window it described.
	if state.IsStale(state.TimeUntilReset() + time.Minute) {
		return true
	}

	if state.NeedsCriticalBlock() {
		t.logger.Error().
			Int("remaining", state.Remaining).
			Dur("wait", state.TimeUntilReset()).
			Msg("Reddit rate limit critical - blocking request")
		rateLimitBlocksTotal.Inc()
		return false
	}

	if state.NeedsThrottling() {
		t.logger.Warn().
			Int("remaining", state.Remaining).
			Msg("Reddit rate limit low - throttling request")
		rateLimitThrottlesTotal.Inc()
		time.Sleep(t.throttle)
	}

	return true
}

// HeaderError reports a rate limit header that could not be parsed.
type HeaderError struct {
	Header string
	Value  string
	Err    error
}

func (e *HeaderError) Error() string {
	return "parse " + e.Header + " header value " + strconv.Quote(e.Value) + ": " + e.Err.Error()
}

func (e *HeaderError) Unwrap() error {
	return e.Err
}
