package reddit

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

// SubredditAction selects the direction of a subscription change.
type SubredditAction string

const (
	ActionSubscribe   SubredditAction = "sub"
	ActionUnsubscribe SubredditAction = "unsub"
)

// PostAction selects the direction of a saved-post change.
type PostAction string

const (
	ActionSave   PostAction = "save"
	ActionUnsave PostAction = "unsave"
)

// ManageSubredditChunk subscribes or unsubscribes a batch of subreddits in a
// single request. Fullnames are joined with commas as the API expects.
func (c *Client) ManageSubredditChunk(ctx context.Context, cred Credential, fullnames []string, action SubredditAction) error {
	if len(fullnames) == 0 {
		return nil
	}

	form := url.Values{}
	form.Set("sr", strings.Join(fullnames, ","))
	form.Set("action", string(action))
	form.Set("api_type", "json")

	resp, err := c.doForm(ctx, "/api/subscribe", cred, form)
	if err != nil {
		return fmt.Errorf("%s %d subreddits: %w", action, len(fullnames), err)
	}
	drainAndClose(resp)

	c.logger.Debug().
		Str("action", string(action)).
		Int("count", len(fullnames)).
		Msg("Subscription chunk applied")

	return nil
}

// ManagePost saves or unsaves a single item by fullname. Works for posts
// (t3) and comments (t1) alike.
func (c *Client) ManagePost(ctx context.Context, cred Credential, fullname string, action PostAction) error {
	form := url.Values{}
	form.Set("id", fullname)

	resp, err := c.doForm(ctx, "/api/"+string(action), cred, form)
	if err != nil {
		return fmt.Errorf("%s %s: %w", action, fullname, err)
	}
	drainAndClose(resp)

	return nil
}

// FollowUser adds a user to the account's friends list, which is how
// following works on the API.
func (c *Client) FollowUser(ctx context.Context, cred Credential, username string) error {
	body, err := json.Marshal(map[string]string{"name": username})
	if err != nil {
		return fmt.Errorf("encode follow request for %s: %w", username, err)
	}

	path := "/api/v1/me/friends/" + url.PathEscape(username)
	resp, err := c.do(ctx, http.MethodPut, path, cred, body, "application/json")
	if err != nil {
		return fmt.Errorf("follow %s: %w", username, err)
	}
	drainAndClose(resp)

	return nil
}

// UnfollowUser removes a user from the account's friends list.
func (c *Client) UnfollowUser(ctx context.Context, cred Credential, username string) error {
	path := "/api/v1/me/friends/" + url.PathEscape(username)
	resp, err := c.do(ctx, http.MethodDelete, path, cred, nil, "")
	if err != nil {
		return fmt.Errorf("unfollow %s: %w", username, err)
	}
	drainAndClose(resp)

	return nil
}
