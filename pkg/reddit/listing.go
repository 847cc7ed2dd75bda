package reddit

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
)

const (
	// listingPageSize is the maximum page size Reddit listings support.
	listingPageSize = 100

	// maxListingPages caps pagination so a misbehaving cursor cannot loop
	// forever.
	maxListingPages = 100
)

// listingEnvelope mirrors the Reddit listing response shape:
// {"data": {"after": cursor|null, "children": [{"kind": ..., "data": {...}}]}}.
type listingEnvelope struct {
	Kind string `json:"kind"`
	Data struct {
		After    string         `json:"after"`
		Children []listingChild `json:"children"`
	} `json:"data"`
}

type listingChild struct {
	Kind string `json:"kind"`
	Data struct {
		Name          string `json:"name"`
		DisplayName   string `json:"display_name"`
		Title         string `json:"title"`
		SubredditType string `json:"subreddit_type"`
		Subreddit     string `json:"subreddit"`
		Permalink     string `json:"permalink"`
	} `json:"data"`
}

// SubredditNames holds the identifiers collected from the subscription
// listing. Followed users appear in the same listing as subreddits of type
// "user" and are kept separate because they use a different endpoint.
type SubredditNames struct {
	FullNames     []string
	DisplayNames  []string
	FollowedUsers []string
}

// SubredditSummary describes one subscribed subreddit for the selection UI.
type SubredditSummary struct {
	FullName    string `json:"full_name"`
	DisplayName string `json:"display_name"`
	Title       string `json:"title"`
}

// SavedPostSummary describes one saved post for the selection UI.
type SavedPostSummary struct {
	FullName  string `json:"full_name"`
	Title     string `json:"title"`
	Subreddit string `json:"subreddit"`
	Permalink string `json:"permalink"`
}

// fetchPages drains a listing endpoint page by page, invoking visit for
// every child. The continuation cursor is always the server-provided
// "after" token; item names are never reused as cursors. The walk ends when
// the server stops returning a cursor or a page comes back empty.
func (c *Client) fetchPages(ctx context.Context, cred Credential, path string, visit func(listingChild)) error {
	after := ""

	for page := 1; ; page++ {
		if page > maxListingPages {
			return fmt.Errorf("listing %s exceeded %d pages, possible cursor loop", path, maxListingPages)
		}

		query := url.Values{}
		query.Set("limit", fmt.Sprintf("%d", listingPageSize))
		if after != "" {
			query.Set("after", after)
		}

		resp, err := c.do(ctx, http.MethodGet, path+"?"+query.Encode(), cred, nil, "")
		if err != nil {
			return fmt.Errorf("fetch page %d of %s: %w", page, path, err)
		}

		var envelope listingEnvelope
		err = json.NewDecoder(resp.Body).Decode(&envelope)
		resp.Body.Close()
		if err != nil {
			return fmt.Errorf("decode page %d of %s: %w", page, path, err)
		}

		c.logger.Debug().
			Str("endpoint", path).
			Int("page", page).
			Int("children", len(envelope.Data.Children)).
			Str("after", envelope.Data.After).
			Msg("Fetched listing page")

		for _, child := range envelope.Data.Children {
			visit(child)
		}

		if envelope.Data.After == "" || len(envelope.Data.Children) == 0 {
			return nil
		}
		after = envelope.Data.After
	}
}

// SubredditNames fetches every subscription identifier of the account,
// split into subreddits and followed users.
func (c *Client) SubredditNames(ctx context.Context, cred Credential) (SubredditNames, error) {
	var names SubredditNames

	err := c.fetchPages(ctx, cred, "/subreddits/mine/subscriber.json", func(child listingChild) {
		if child.Data.SubredditType == "user" {
			if child.Data.DisplayName != "" {
				names.FollowedUsers = append(names.FollowedUsers, child.Data.DisplayName)
			}
			return
		}
		if child.Data.Name != "" {
			names.FullNames = append(names.FullNames, child.Data.Name)
		}
		if child.Data.DisplayName != "" {
			names.DisplayNames = append(names.DisplayNames, child.Data.DisplayName)
		}
	})
	if err != nil {
		return SubredditNames{}, fmt.Errorf("fetch subscribed subreddits: %w", err)
	}

	c.logger.Info().
		Int("subreddits", len(names.FullNames)).
		Int("followed_users", len(names.FollowedUsers)).
		Msg("Fetched subscription listing")

	return names, nil
}

// SavedPostNames fetches the fullnames of everything the account has saved,
// posts and comments alike.
func (c *Client) SavedPostNames(ctx context.Context, cred Credential) ([]string, error) {
	if cred.Username == "" {
		return nil, fmt.Errorf("username is required to list saved posts")
	}

	var fullnames []string
	path := fmt.Sprintf("/user/%s/saved.json", url.PathEscape(cred.Username))

	err := c.fetchPages(ctx, cred, path, func(child listingChild) {
		if child.Data.Name != "" {
			fullnames = append(fullnames, child.Data.Name)
		}
	})
	if err != nil {
		return nil, fmt.Errorf("fetch saved posts for %s: %w", cred.Username, err)
	}

	c.logger.Info().
		Str("username", cred.Username).
		Int("saved", len(fullnames)).
		Msg("Fetched saved listing")

	return fullnames, nil
}

// Subreddits fetches subscription summaries for the selection UI.
func (c *Client) Subreddits(ctx context.Context, cred Credential) ([]SubredditSummary, error) {
	var summaries []SubredditSummary

	err := c.fetchPages(ctx, cred, "/subreddits/mine/subscriber.json", func(child listingChild) {
		if child.Data.SubredditType == "user" || child.Data.Name == "" {
			return
		}
		summaries = append(summaries, SubredditSummary{
			FullName:    child.Data.Name,
			DisplayName: child.Data.DisplayName,
			Title:       child.Data.Title,
		})
	})
	if err != nil {
		return nil, fmt.Errorf("fetch subreddit summaries: %w", err)
	}

	return summaries, nil
}

// SavedPosts fetches saved post summaries for the selection UI. Only actual
// posts (kind t3) are listed; saved comments are migrated but not browsed.
func (c *Client) SavedPosts(ctx context.Context, cred Credential) ([]SavedPostSummary, error) {
	if cred.Username == "" {
		return nil, fmt.Errorf("username is required to list saved posts")
	}

	var summaries []SavedPostSummary
	path := fmt.Sprintf("/user/%s/saved.json", url.PathEscape(cred.Username))

	err := c.fetchPages(ctx, cred, path, func(child listingChild) {
		if child.Kind != "t3" || child.Data.Name == "" {
			return
		}
		summaries = append(summaries, SavedPostSummary{
			FullName:  child.Data.Name,
			Title:     child.Data.Title,
			Subreddit: child.Data.Subreddit,
			Permalink: child.Data.Permalink,
		})
	})
	if err != nil {
		return nil, fmt.Errorf("fetch saved post summaries: %w", err)
	}

	return summaries, nil
}
