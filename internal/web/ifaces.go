// Package web exposes the migration service over HTTP: migration runs,
// listing browsing for the selection UI, cookie verification and the
// operational endpoints.
package web

import (
	"context"

	"github.com/subshift/subshift/pkg/migrate"
	"github.com/subshift/subshift/pkg/reddit"
)

// Migrator runs migrations. Implemented by migrate.Orchestrator.
type Migrator interface {
	Run(ctx context.Context, req migrate.Request) (*migrate.Result, error)
}

// ListingAPI is the slice of the Reddit client the browse and verification
// handlers depend on.
type ListingAPI interface {
	Me(ctx context.Context, cred reddit.Credential) (string, error)
	VerifyCookie(ctx context.Context, cookie string) (string, error)
	SubredditNames(ctx context.Context, cred reddit.Credential) (reddit.SubredditNames, error)
	SavedPostNames(ctx context.Context, cred reddit.Credential) ([]string, error)
	Subreddits(ctx context.Context, cred reddit.Credential) ([]reddit.SubredditSummary, error)
	SavedPosts(ctx context.Context, cred reddit.Credential) ([]reddit.SavedPostSummary, error)
}
