package migrate

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"

	"github.com/subshift/subshift/pkg/batch"
	"github.com/subshift/subshift/pkg/ratelimit"
	"github.com/subshift/subshift/pkg/reddit"
)

// Prometheus metrics for migration runs.
var (
	migrationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "subshift_migrations_total",
		Help: "Total migration runs by result",
	}, []string{"result"})

	migrationDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "subshift_migration_duration_seconds",
		Help:    "End-to-end migration duration in seconds",
		Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600},
	})
)

// API is the slice of the Reddit client the orchestrator depends on.
type API interface {
	Me(ctx context.Context, cred reddit.Credential) (string, error)
	SubredditNames(ctx context.Context, cred reddit.Credential) (reddit.SubredditNames, error)
	SavedPostNames(ctx context.Context, cred reddit.Credential) ([]string, error)
	ManageSubredditChunk(ctx context.Context, cred reddit.Credential, fullnames []string, action reddit.SubredditAction) error
	ManagePost(ctx context.Context, cred reddit.Credential, fullname string, action reddit.PostAction) error
	FollowUser(ctx context.Context, cred reddit.Credential, username string) error
	UnfollowUser(ctx context.Context, cred reddit.Credential, username string) error
}

// Config tunes the execution engine behind a migration.
type Config struct {
	// ChunkSize is the default subscribe batch size. Requests may override
	// it per run.
	ChunkSize int

	// Concurrency is the number of requests issued per wave.
	Concurrency int

	// WaveInterval paces consecutive waves.
	WaveInterval time.Duration
}

// DefaultConfig returns the conservative defaults.
func DefaultConfig() Config {
	return Config{
		ChunkSize:    batch.DefaultChunkSize,
		Concurrency:  batch.DefaultConcurrency,
		WaveInterval: ratelimit.DefaultWaveInterval,
	}
}

// Orchestrator runs migrations against a Reddit API.
type Orchestrator struct {
	api      API
	executor *batch.Executor
	config   Config
	logger   zerolog.Logger
}

// New creates an orchestrator.
func New(api API, cfg Config, logger zerolog.Logger) *Orchestrator {
	if cfg.ChunkSize <= 0 {
		cfg.ChunkSize = batch.DefaultChunkSize
	}
	gate := ratelimit.NewGate(cfg.WaveInterval)
	return &Orchestrator{
		api:      api,
		executor: batch.NewExecutor(cfg.Concurrency, gate, logger),
		config:   cfg,
		logger:   logger.With().Str("component", "orchestrator").Logger(),
	}
}

// Run executes one migration. Credential problems abort the whole run
// before any write; a listing failure aborts only its content kind and the
// other kind still proceeds.
func (o *Orchestrator) Run(ctx context.Context, req Request) (*Result, error) {
	if err := req.Validate(); err != nil {
		migrationsTotal.WithLabelValues("invalid").Inc()
		return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}

	start := time.Now()
	defer func() {
		migrationDuration.Observe(time.Since(start).Seconds())
	}()

	sourceUser, err := o.api.Me(ctx, req.Source)
	if err != nil {
		migrationsTotal.WithLabelValues("auth_failed").Inc()
		return nil, fmt.Errorf("source credential rejected: %w", err)
	}
	destUser, err := o.api.Me(ctx, req.Dest)
	if err != nil {
		migrationsTotal.WithLabelValues("auth_failed").Inc()
		return nil, fmt.Errorf("destination credential rejected: %w", err)
	}
	req.Source.Username = sourceUser
	req.Dest.Username = destUser

	result := &Result{
		MigrationID: uuid.NewString(),
		SourceUser:  sourceUser,
		DestUser:    destUser,
	}

	logger := o.logger.With().Str("migration_id", result.MigrationID).Logger()
	logger.Info().
		Str("source_user", sourceUser).
		Str("dest_user", destUser).
		Str("subreddit_mode", string(req.Subreddits.Mode)).
		Str("post_mode", string(req.Posts.Mode)).
		Msg("Starting migration")

	o.runSubredditStage(ctx, req, result, logger)
	o.runPostStage(ctx, req, result, logger)

	if result.SubredditError != "" || result.PostError != "" {
		migrationsTotal.WithLabelValues("partial").Inc()
	} else {
		migrationsTotal.WithLabelValues("completed").Inc()
	}

	logger.Info().
		Dur("elapsed", time.Since(start)).
		Msg("Migration finished")

	return result, nil
}

func (o *Orchestrator) runSubredditStage(ctx context.Context, req Request, result *Result, logger zerolog.Logger) {
	if req.Subreddits.Mode == SelectNone {
		return
	}

	var fullnames, followedUsers []string
	switch req.Subreddits.Mode {
	case SelectAll:
		names, err := o.api.SubredditNames(ctx, req.Source)
		if err != nil {
			logger.Error().Err(err).Msg("Subreddit listing failed, skipping subreddit stage")
			result.SubredditError = err.Error()
			return
		}
		fullnames = names.FullNames
		followedUsers = names.FollowedUsers
	case SelectCustom:
		fullnames = req.Subreddits.Items
	}

	chunkSize := req.ChunkSize
	if chunkSize <= 0 {
		chunkSize = o.config.ChunkSize
	}
	chunks := batch.Split(fullnames, chunkSize)

	logger.Info().
		Int("subreddits", len(fullnames)).
		Int("chunks", len(chunks)).
		Int("followed_users", len(followedUsers)).
		Msg("Subscribing destination account")

	subscribe := o.executor.SubscriptionChunks(ctx, chunks, func(ctx context.Context, chunk []string) error {
		return o.api.ManageSubredditChunk(ctx, req.Dest, chunk, reddit.ActionSubscribe)
	})
	result.SubscribeSubreddits = report(subscribe)

	if len(followedUsers) > 0 {
		follow := o.executor.ItemOperations(ctx, followedUsers, func(ctx context.Context, username string) error {
			return o.api.FollowUser(ctx, req.Dest, username)
		})
		result.FollowUsers = report(follow)
	}

	if req.Delete.Subreddits {
		unsubscribe := o.executor.SubscriptionChunks(ctx, chunks, func(ctx context.Context, chunk []string) error {
			return o.api.ManageSubredditChunk(ctx, req.Source, chunk, reddit.ActionUnsubscribe)
		})
		result.UnsubscribeSubreddits = report(unsubscribe)

		if len(followedUsers) > 0 {
			unfollow := o.executor.ItemOperations(ctx, followedUsers, func(ctx context.Context, username string) error {
				return o.api.UnfollowUser(ctx, req.Source, username)
			})
			result.UnfollowUsers = report(unfollow)
		}
	}
}

func (o *Orchestrator) runPostStage(ctx context.Context, req Request, result *Result, logger zerolog.Logger) {
	if req.Posts.Mode == SelectNone {
		return
	}

	var fullnames []string
	switch req.Posts.Mode {
	case SelectAll:
		names, err := o.api.SavedPostNames(ctx, req.Source)
		if err != nil {
			logger.Error().Err(err).Msg("Saved listing failed, skipping post stage")
			result.PostError = err.Error()
			return
		}
		fullnames = names
	case SelectCustom:
		fullnames = req.Posts.Items
	}

	// The listing returns newest first. Saving oldest first keeps the
	// destination account's saved order matching the source.
	ordered := reversed(fullnames)

	logger.Info().
		Int("posts", len(ordered)).
		Msg("Saving posts on destination account")

	save := o.executor.ItemOperations(ctx, ordered, func(ctx context.Context, fullname string) error {
		return o.api.ManagePost(ctx, req.Dest, fullname, reddit.ActionSave)
	})
	result.SavePosts = report(save)

	if req.Delete.Posts {
		unsave := o.executor.ItemOperations(ctx, fullnames, func(ctx context.Context, fullname string) error {
			return o.api.ManagePost(ctx, req.Source, fullname, reddit.ActionUnsave)
		})
		result.UnsavePosts = report(unsave)
	}
}

func report(outcome batch.Outcome) *OutcomeReport {
	return &OutcomeReport{
		SuccessCount: outcome.SuccessCount,
		FailedCount:  outcome.FailedCount,
		FailedItems:  outcome.FailedItems,
	}
}

func reversed(items []string) []string {
	if len(items) == 0 {
		return nil
	}
	out := make([]string, len(items))
	for i, item := range items {
		out[len(items)-1-i] = item
	}
	return out
}
