// Package reddit provides the Reddit API client used by the migration
// engine: listing pagination, bulk subscription management, per-item
// save/unsave operations, and credential verification. All requests go
// through a shared rate limit tracker and carry bounded timeouts.
package reddit

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/subshift/subshift/pkg/logging"
	"github.com/subshift/subshift/pkg/ratelimit"
)

// Prometheus metrics for Reddit API operations.
var (
	redditRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "subshift_reddit_requests_total",
		Help: "Total Reddit API requests by endpoint and status",
	}, []string{"endpoint", "status"})

	redditRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "subshift_reddit_request_duration_seconds",
		Help:    "Reddit API request duration in seconds by endpoint",
		Buckets: []float64{0.1, 0.5, 1, 2, 5, 10},
	}, []string{"endpoint"})

	redditErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "subshift_reddit_errors_total",
		Help: "Total Reddit API errors by class",
	}, []string{"class"})
)

// Credential is a bearer token bound to one Reddit account. The username is
// resolved lazily via Me when not supplied by the caller.
type Credential struct {
	Token    string
	Username string
}

// Suffix returns the last characters of the token for log context.
func (c Credential) Suffix() string {
	return logging.TokenSuffix(c.Token, 6)
}

// Config holds the client configuration.
type Config struct {
	// User-Agent header. Reddit rejects requests without a descriptive one.
	UserAgent string

	// OAuthBaseURL is the authenticated API host (default https://oauth.reddit.com).
	OAuthBaseURL string

	// BaseURL is the unauthenticated host used for cookie verification
	// (default https://www.reddit.com).
	BaseURL string

	// Timeout bounds each individual HTTP request.
	Timeout time.Duration

	// Tracker gates requests on the observed rate limit budget. Optional.
	Tracker *ratelimit.Tracker
}

// DefaultConfig returns a safe default configuration.
func DefaultConfig(userAgent string) Config {
	return Config{
		UserAgent:    userAgent,
		OAuthBaseURL: "https://oauth.reddit.com",
		BaseURL:      "https://www.reddit.com",
		Timeout:      10 * time.Second,
	}
}

// Client is the Reddit API client.
type Client struct {
	httpClient *http.Client
	config     Config
	logger     zerolog.Logger
}

// New creates a new Reddit client.
func New(cfg Config) (*Client, error) {
	if cfg.UserAgent == "" {
		return nil, fmt.Errorf("user-agent is required")
	}
	if cfg.OAuthBaseURL == "" {
		cfg.OAuthBaseURL = "https://oauth.reddit.com"
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://www.reddit.com"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}

	return &Client{
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		config: cfg,
		logger: log.With().Str("component", "reddit-client").Logger(),
	}, nil
}

// do performs an authenticated request against the OAuth API host.
// Responses with status >= 400 are drained, closed and returned as an
// *APIError; the caller owns the body otherwise.
func (c *Client) do(ctx context.Context, method, path string, cred Credential, body []byte, contentType string) (*http.Response, error) {
	endpoint := trimQuery(path)

	if c.config.Tracker != nil && !c.config.Tracker.ShouldAllowRequest() {
		redditRequestsTotal.WithLabelValues(endpoint, "blocked").Inc()
		return nil, ErrBudgetExhausted
	}

	startTime := time.Now()
	defer func() {
		redditRequestDuration.WithLabelValues(endpoint).Observe(time.Since(startTime).Seconds())
	}()

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.config.OAuthBaseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+cred.Token)
	req.Header.Set("User-Agent", c.config.UserAgent)
	req.Header.Set("Accept", "application/json")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	c.logger.Debug().
		Str("endpoint", endpoint).
		Str("method", method).
		Str("token_suffix", cred.Suffix()).
		Msg("Executing Reddit request")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		redditErrorsTotal.WithLabelValues(string(ErrorClassNetwork)).Inc()
		redditRequestsTotal.WithLabelValues(endpoint, "network_error").Inc()
		c.logger.Warn().Err(err).Str("endpoint", endpoint).Msg("HTTP request failed")
		return nil, networkError(endpoint, err)
	}

	if c.config.Tracker != nil {
		if err := c.config.Tracker.UpdateFromHeaders(resp.Header); err != nil {
			c.logger.Warn().Err(err).Msg("Failed to update rate limit from headers")
		}
	}

	redditRequestsTotal.WithLabelValues(endpoint, fmt.Sprintf("%d", resp.StatusCode)).Inc()

	if resp.StatusCode >= 400 {
		return nil, c.responseError(resp, endpoint)
	}

	return resp, nil
}

// doForm performs a form-encoded POST against the OAuth API host.
func (c *Client) doForm(ctx context.Context, path string, cred Credential, form url.Values) (*http.Response, error) {
	return c.do(ctx, http.MethodPost, path, cred, []byte(form.Encode()), "application/x-www-form-urlencoded")
}

// responseError drains and closes an error response and converts it into an
// *APIError with the appropriate class.
func (c *Client) responseError(resp *http.Response, endpoint string) *APIError {
	class := ClassifyStatus(resp.StatusCode)
	redditErrorsTotal.WithLabelValues(string(class)).Inc()

	// Keep a short prefix of the body for context; Reddit error payloads
	// are small JSON objects.
	bodyBytes, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	resp.Body.Close()

	c.logger.Warn().
		Str("endpoint", endpoint).
		Int("status", resp.StatusCode).
		Str("error_class", string(class)).
		Msg("Reddit request error")

	return &APIError{
		StatusCode: resp.StatusCode,
		Class:      class,
		Endpoint:   endpoint,
		Message:    strings.TrimSpace(string(bodyBytes)),
	}
}

// drainAndClose consumes the rest of a response body before closing it so
// the underlying connection can go back into the keep-alive pool.
func drainAndClose(resp *http.Response) {
	io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
	resp.Body.Close()
}

// trimQuery strips the query string so metric labels stay low-cardinality.
func trimQuery(path string) string {
	if i := strings.IndexByte(path, '?'); i >= 0 {
		return path[:i]
	}
	return path
}

// SetHTTPClient sets a custom HTTP client (for testing).
func (c *Client) SetHTTPClient(client *http.Client) {
	c.httpClient = client
}
