package cache

import (
	"fmt"
	"strings"
)

// Kind names a cached listing type.
type Kind string

const (
	KindSubreddits Kind = "subreddits"
	KindSavedPosts Kind = "saved_posts"
)

// Key identifies one cached listing: an account's subreddits or saved
// posts.
type Key struct {
	Username string
	Kind     Kind
}

// String generates a deterministic cache key string.
// Format: subshift:listing:<username>:<kind>
//
// Example:
//
//	subshift:listing:alice:subreddits
func (k Key) String() string {
	return fmt.Sprintf("subshift:listing:%s:%s", strings.ToLower(k.Username), k.Kind)
}
