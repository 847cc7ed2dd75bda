// Package migrate orchestrates account migrations: credential verification,
// listing collection, chunked subscription transfer and per-item saved post
// transfer, with per-stage outcome reporting.
package migrate

import (
	"errors"
	"fmt"

	"github.com/subshift/subshift/pkg/reddit"
)

// ErrInvalidRequest marks a request rejected before any network call.
var ErrInvalidRequest = errors.New("invalid migration request")

// SelectionMode controls which items of a content kind take part in a
// migration.
type SelectionMode string

const (
	// SelectAll migrates everything the source account has.
	SelectAll SelectionMode = "all"

	// SelectCustom migrates exactly the identifiers listed by the caller.
	SelectCustom SelectionMode = "custom"

	// SelectNone skips the content kind entirely.
	SelectNone SelectionMode = "none"
)

// SelectionSet names the items of one content kind to migrate. Items are
// consulted only in custom mode and must be fullnames.
type SelectionSet struct {
	Mode  SelectionMode `json:"mode"`
	Items []string      `json:"items,omitempty"`
}

func (s SelectionSet) validate(kind string) error {
	switch s.Mode {
	case SelectAll, SelectNone:
		return nil
	case SelectCustom:
		if len(s.Items) == 0 {
			return fmt.Errorf("%s: custom selection requires at least one item", kind)
		}
		return nil
	default:
		return fmt.Errorf("%s: unknown selection mode %q", kind, s.Mode)
	}
}

// DeleteOptions selects which content kinds are removed from the source
// account after they have been copied to the destination.
type DeleteOptions struct {
	Subreddits bool `json:"subreddits"`
	Posts      bool `json:"posts"`
}

// Request describes one migration run.
type Request struct {
	Source reddit.Credential
	Dest   reddit.Credential

	Subreddits SelectionSet
	Posts      SelectionSet
	Delete     DeleteOptions

	// ChunkSize overrides the subscribe batch size. Zero means the default.
	ChunkSize int
}

// Validate checks the request before any network traffic happens.
func (r Request) Validate() error {
	if r.Source.Token == "" {
		return fmt.Errorf("source token is required")
	}
	if r.Dest.Token == "" {
		return fmt.Errorf("destination token is required")
	}
	if err := r.Subreddits.validate("subreddits"); err != nil {
		return err
	}
	if err := r.Posts.validate("posts"); err != nil {
		return err
	}
	if r.Subreddits.Mode == SelectNone && r.Posts.Mode == SelectNone {
		return fmt.Errorf("nothing selected to migrate")
	}
	return nil
}

// OutcomeReport is the per-operation result summary exposed to callers.
type OutcomeReport struct {
	SuccessCount int      `json:"successCount"`
	FailedCount  int      `json:"failedCount"`
	FailedItems  []string `json:"failedItems,omitempty"`
}

// Result is the full migration report. Reports are present only for the
// operations that actually ran; a nil report means the operation was not
// part of this run.
type Result struct {
	MigrationID string `json:"migration_id"`
	SourceUser  string `json:"source_user"`
	DestUser    string `json:"dest_user"`

	SubscribeSubreddits   *OutcomeReport `json:"subscribeSubreddit,omitempty"`
	UnsubscribeSubreddits *OutcomeReport `json:"unsubscribeSubreddit,omitempty"`
	FollowUsers           *OutcomeReport `json:"followUser,omitempty"`
	UnfollowUsers         *OutcomeReport `json:"unfollowUser,omitempty"`
	SavePosts             *OutcomeReport `json:"savePost,omitempty"`
	UnsavePosts           *OutcomeReport `json:"unsavePost,omitempty"`

	// Per-kind listing failures. A set field means that content kind was
	// aborted before any write happened; the other kind still ran.
	SubredditError string `json:"subredditError,omitempty"`
	PostError      string `json:"postError,omitempty"`
}
