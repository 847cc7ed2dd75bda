package reddit

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// meResponse covers both identity endpoints: the OAuth /api/v1/me endpoint
// returns the name at the top level, the cookie-based /api/me.json wraps it
// in a data object.
type meResponse struct {
	Name string `json:"name"`
	Data struct {
		Name string `json:"name"`
	} `json:"data"`
}

func (m meResponse) username() string {
	if m.Name != "" {
		return m.Name
	}
	return m.Data.Name
}

// Me verifies the credential against the identity endpoint and returns the
// account's username. An auth-classed error here means the token is invalid
// or expired.
func (c *Client) Me(ctx context.Context, cred Credential) (string, error) {
	resp, err := c.do(ctx, http.MethodGet, "/api/v1/me", cred, nil, "")
	if err != nil {
		return "", fmt.Errorf("verify credential: %w", err)
	}
	defer resp.Body.Close()

	var me meResponse
	if err := json.NewDecoder(resp.Body).Decode(&me); err != nil {
		return "", fmt.Errorf("decode identity response: %w", err)
	}

	name := me.username()
	if name == "" {
		return "", fmt.Errorf("identity response contained no username")
	}

	c.logger.Debug().
		Str("username", name).
		Str("token_suffix", cred.Suffix()).
		Msg("Credential verified")

	return name, nil
}

// VerifyCookie checks a raw session cookie against the non-OAuth identity
// endpoint and returns the account's username. Used by the cookie helper
// flow where the caller has a browser session instead of a bearer token.
func (c *Client) VerifyCookie(ctx context.Context, cookie string) (string, error) {
	endpoint := c.config.BaseURL + "/api/me.json"

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", fmt.Errorf("build cookie verification request: %w", err)
	}
	req.Header.Set("Cookie", cookie)
	req.Header.Set("User-Agent", c.config.UserAgent)
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	redditRequestDuration.WithLabelValues("/api/me.json").Observe(time.Since(start).Seconds())
	if err != nil {
		return "", networkError("/api/me.json", err)
	}

	redditRequestsTotal.WithLabelValues("/api/me.json", fmt.Sprintf("%d", resp.StatusCode)).Inc()

	if resp.StatusCode >= 400 {
		return "", c.responseError(resp, "/api/me.json")
	}
	defer resp.Body.Close()

	var me meResponse
	if err := json.NewDecoder(resp.Body).Decode(&me); err != nil {
		return "", fmt.Errorf("decode cookie identity response: %w", err)
	}

	name := me.username()
	if name == "" {
		return "", fmt.Errorf("cookie session is not logged in")
	}

	return name, nil
}
