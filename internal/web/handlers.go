package web

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/subshift/subshift/pkg/cache"
	"github.com/subshift/subshift/pkg/migrate"
	"github.com/subshift/subshift/pkg/reddit"
)

type migrateRequest struct {
	SourceToken string `json:"source_token" validate:"required"`
	DestToken   string `json:"dest_token" validate:"required"`

	MigrateSubreddits bool `json:"migrate_subreddits"`
	MigratePosts      bool `json:"migrate_posts"`
	DeleteSubreddits  bool `json:"delete_subreddits"`
	DeletePosts       bool `json:"delete_posts"`

	ChunkSize int `json:"chunk_size" validate:"gte=0,lte=100"`
}

type migrateCustomRequest struct {
	migrateRequest
	Subreddits []string `json:"subreddits"`
	Posts      []string `json:"posts"`
}

type accountRequest struct {
	Token string `json:"token" validate:"required"`
}

type cookieRequest struct {
	Cookie string `json:"cookie" validate:"required"`
}

func (s *Server) decode(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return err
	}
	return s.validate.Struct(v)
}

func selectionMode(enabled bool) migrate.SelectionMode {
	if enabled {
		return migrate.SelectAll
	}
	return migrate.SelectNone
}

// handleMigrate runs a whole-account migration.
func (s *Server) handleMigrate(w http.ResponseWriter, r *http.Request) {
	var req migrateRequest
	if err := s.decode(r, &req); err != nil {
		writeMappedError(w, err)
		return
	}

	result, err := s.migrator.Run(r.Context(), migrate.Request{
		Source:     reddit.Credential{Token: req.SourceToken},
		Dest:       reddit.Credential{Token: req.DestToken},
		Subreddits: migrate.SelectionSet{Mode: selectionMode(req.MigrateSubreddits)},
		Posts:      migrate.SelectionSet{Mode: selectionMode(req.MigratePosts)},
		Delete: migrate.DeleteOptions{
			Subreddits: req.DeleteSubreddits,
			Posts:      req.DeletePosts,
		},
		ChunkSize: req.ChunkSize,
	})
	if err != nil {
		writeMappedError(w, err)
		return
	}

	s.invalidateListings(r.Context(), result)
	writeJSON(w, http.StatusOK, result)
}

// handleMigrateCustom runs a migration restricted to the listed items.
func (s *Server) handleMigrateCustom(w http.ResponseWriter, r *http.Request) {
	var req migrateCustomRequest
	if err := s.decode(r, &req); err != nil {
		writeMappedError(w, err)
		return
	}

	subreddits := migrate.SelectionSet{Mode: migrate.SelectNone}
	if len(req.Subreddits) > 0 {
		subreddits = migrate.SelectionSet{Mode: migrate.SelectCustom, Items: req.Subreddits}
	}
	posts := migrate.SelectionSet{Mode: migrate.SelectNone}
	if len(req.Posts) > 0 {
		posts = migrate.SelectionSet{Mode: migrate.SelectCustom, Items: req.Posts}
	}

	result, err := s.migrator.Run(r.Context(), migrate.Request{
		Source:     reddit.Credential{Token: req.SourceToken},
		Dest:       reddit.Credential{Token: req.DestToken},
		Subreddits: subreddits,
		Posts:      posts,
		Delete: migrate.DeleteOptions{
			Subreddits: req.DeleteSubreddits,
			Posts:      req.DeletePosts,
		},
		ChunkSize: req.ChunkSize,
	})
	if err != nil {
		writeMappedError(w, err)
		return
	}

	s.invalidateListings(r.Context(), result)
	writeJSON(w, http.StatusOK, result)
}

type verifyCookieResponse struct {
	Username string `json:"username"`
	Token    string `json:"token"`
}

// handleVerifyCookie extracts the bearer token from a browser cookie and
// confirms the session is logged in. The cookie itself is never stored.
func (s *Server) handleVerifyCookie(w http.ResponseWriter, r *http.Request) {
	var req cookieRequest
	if err := s.decode(r, &req); err != nil {
		writeMappedError(w, err)
		return
	}

	token, err := extractBearerToken(req.Cookie)
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_COOKIE", err.Error())
		return
	}

	username, err := s.listings.VerifyCookie(r.Context(), req.Cookie)
	if err != nil {
		writeMappedError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, verifyCookieResponse{
		Username: username,
		Token:    token,
	})
}

type accountCountsResponse struct {
	Username      string `json:"username"`
	Subreddits    int    `json:"subreddits"`
	FollowedUsers int    `json:"followed_users"`
	SavedPosts    int    `json:"saved_posts"`
}

// handleAccountCounts reports how much an account holds, for the
// confirmation screen before a migration.
func (s *Server) handleAccountCounts(w http.ResponseWriter, r *http.Request) {
	var req accountRequest
	if err := s.decode(r, &req); err != nil {
		writeMappedError(w, err)
		return
	}

	cred := reddit.Credential{Token: req.Token}
	username, err := s.listings.Me(r.Context(), cred)
	if err != nil {
		writeMappedError(w, err)
		return
	}
	cred.Username = username

	names, err := s.listings.SubredditNames(r.Context(), cred)
	if err != nil {
		writeMappedError(w, err)
		return
	}
	saved, err := s.listings.SavedPostNames(r.Context(), cred)
	if err != nil {
		writeMappedError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, accountCountsResponse{
		Username:      username,
		Subreddits:    len(names.FullNames),
		FollowedUsers: len(names.FollowedUsers),
		SavedPosts:    len(saved),
	})
}

// handleSubreddits lists an account's subscriptions for the selection UI.
func (s *Server) handleSubreddits(w http.ResponseWriter, r *http.Request) {
	s.serveListing(w, r, cache.KindSubreddits, func(ctx context.Context, cred reddit.Credential) (any, error) {
		return s.listings.Subreddits(ctx, cred)
	})
}

// handleSavedPosts lists an account's saved posts for the selection UI.
func (s *Server) handleSavedPosts(w http.ResponseWriter, r *http.Request) {
	s.serveListing(w, r, cache.KindSavedPosts, func(ctx context.Context, cred reddit.Credential) (any, error) {
		return s.listings.SavedPosts(ctx, cred)
	})
}

// serveListing answers a browse request from the cache when possible and
// falls back to a full listing walk.
func (s *Server) serveListing(w http.ResponseWriter, r *http.Request, kind cache.Kind, fetch func(context.Context, reddit.Credential) (any, error)) {
	var req accountRequest
	if err := s.decode(r, &req); err != nil {
		writeMappedError(w, err)
		return
	}

	cred := reddit.Credential{Token: req.Token}
	username, err := s.listings.Me(r.Context(), cred)
	if err != nil {
		writeMappedError(w, err)
		return
	}
	cred.Username = username

	key := cache.Key{Username: username, Kind: kind}
	if s.cache != nil {
		if entry, err := s.cache.Get(r.Context(), key); err == nil {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			w.Write(entry.Data)
			return
		}
	}

	listing, err := fetch(r.Context(), cred)
	if err != nil {
		writeMappedError(w, err)
		return
	}

	if s.cache != nil {
		if payload, err := json.Marshal(listing); err == nil {
			if err := s.cache.Set(r.Context(), key, payload); err != nil {
				s.logger.Warn().Err(err).Str("kind", string(kind)).Msg("Listing cache write failed")
			}
		}
	}

	writeJSON(w, http.StatusOK, listing)
}

// invalidateListings drops cached listings for both accounts after a
// migration changed them.
func (s *Server) invalidateListings(ctx context.Context, result *migrate.Result) {
	if s.cache == nil || result == nil {
		return
	}
	for _, username := range []string{result.SourceUser, result.DestUser} {
		for _, kind := range []cache.Kind{cache.KindSubreddits, cache.KindSavedPosts} {
			if err := s.cache.Delete(ctx, cache.Key{Username: username, Kind: kind}); err != nil {
				s.logger.Warn().Err(err).Str("username", username).Msg("Listing cache invalidation failed")
			}
		}
	}
}
