// Package testutil provides testing utilities for the migration service.
package testutil

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
)

// Account is the canned state of one mock Reddit account.
type Account struct {
	Username   string
	Subreddits []MockSubreddit
	SavedPosts []MockPost
}

// MockSubreddit is one entry of the mock subscription listing.
type MockSubreddit struct {
	FullName    string
	DisplayName string
	// Type is the subreddit_type field; "user" marks a followed user.
	Type string
}

// MockPost is one entry of the mock saved listing.
type MockPost struct {
	FullName  string
	Kind      string // "t3" for posts, "t1" for comments
	Title     string
	Subreddit string
}

// MockReddit is a configurable in-process Reddit API for tests. It serves
// the listing, subscription, save and identity endpoints for a set of
// accounts keyed by bearer token, and records every write for assertions.
type MockReddit struct {
	server   *httptest.Server
	mu       sync.RWMutex
	accounts map[string]*Account // bearer token -> account
	pageSize int

	// Per-request rate limit headers. Zero values omit the headers.
	RemainingHeader string
	ResetHeader     string

	// Tracking
	RequestCount    int
	SubscribeForms  []map[string]string
	SavedIDs        []string
	UnsavedIDs      []string
	FollowedUsers   []string
	UnfollowedUsers []string
}

// NewMockReddit creates a mock Reddit server. Accounts are registered with
// AddAccount before use.
func NewMockReddit() *MockReddit {
	mock := &MockReddit{
		accounts: make(map[string]*Account),
		pageSize: 100,
	}
	mock.server = httptest.NewServer(http.HandlerFunc(mock.route))
	return mock
}

// URL returns the mock server URL.
func (m *MockReddit) URL() string {
	return m.server.URL
}

// Close shuts down the mock server.
func (m *MockReddit) Close() {
	m.server.Close()
}

// SetPageSize overrides the listing page size so pagination can be
// exercised with small fixtures.
func (m *MockReddit) SetPageSize(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pageSize = n
}

// AddAccount registers an account reachable with the given bearer token.
func (m *MockReddit) AddAccount(token string, account *Account) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.accounts[token] = account
}

func (m *MockReddit) route(w http.ResponseWriter, r *http.Request) {
	m.mu.Lock()
	m.RequestCount++
	m.mu.Unlock()

	account := m.authenticate(w, r)
	if account == nil {
		return
	}

	if m.RemainingHeader != "" {
		w.Header().Set("X-Ratelimit-Remaining", m.RemainingHeader)
	}
	if m.ResetHeader != "" {
		w.Header().Set("X-Ratelimit-Reset", m.ResetHeader)
	}

	path := r.URL.Path
	switch {
	case path == "/api/v1/me":
		json.NewEncoder(w).Encode(map[string]string{"name": account.Username})
	case path == "/subreddits/mine/subscriber.json":
		m.serveSubredditListing(w, r, account)
	case strings.HasPrefix(path, "/user/") && strings.HasSuffix(path, "/saved.json"):
		m.serveSavedListing(w, r, account)
	case path == "/api/subscribe":
		m.handleSubscribe(w, r)
	case path == "/api/save" || path == "/api/unsave":
		m.handleSaveUnsave(w, r)
	case strings.HasPrefix(path, "/api/v1/me/friends/"):
		m.handleFriends(w, r)
	default:
		http.Error(w, fmt.Sprintf(`{"message":"no route for %s"}`, path), http.StatusNotFound)
	}
}

func (m *MockReddit) authenticate(w http.ResponseWriter, r *http.Request) *Account {
	auth := r.Header.Get("Authorization")
	token := strings.TrimPrefix(auth, "Bearer ")
	if token == "" || token == auth {
		http.Error(w, `{"message":"Unauthorized"}`, http.StatusUnauthorized)
		return nil
	}

	m.mu.RLock()
	account, ok := m.accounts[token]
	m.mu.RUnlock()
	if !ok {
		http.Error(w, `{"message":"Unauthorized"}`, http.StatusUnauthorized)
		return nil
	}
	return account
}

type listingPayload struct {
	Kind string `json:"kind"`
	Data struct {
		After    string            `json:"after"`
		Children []json.RawMessage `json:"children"`
	} `json:"data"`
}

// page slices one listing page out of the full child list based on the
// after cursor, which is the fullname of the last item of the previous
// page, matching the real API.
func (m *MockReddit) page(children []json.RawMessage, names []string, after string) ([]json.RawMessage, string) {
	start := 0
	if after != "" {
		for i, name := range names {
			if name == after {
				start = i + 1
				break
			}
		}
	}

	m.mu.RLock()
	size := m.pageSize
	m.mu.RUnlock()

	end := start + size
	if end > len(children) {
		end = len(children)
	}
	pageChildren := children[start:end]

	next := ""
	if end < len(children) && len(pageChildren) > 0 {
		next = names[end-1]
	}
	return pageChildren, next
}

func writeListing(w http.ResponseWriter, children []json.RawMessage, after string) {
	var payload listingPayload
	payload.Kind = "Listing"
	payload.Data.After = after
	payload.Data.Children = children
	json.NewEncoder(w).Encode(payload)
}

func (m *MockReddit) serveSubredditListing(w http.ResponseWriter, r *http.Request, account *Account) {
	children := make([]json.RawMessage, 0, len(account.Subreddits))
	names := make([]string, 0, len(account.Subreddits))
	for _, sr := range account.Subreddits {
		srType := sr.Type
		if srType == "" {
			srType = "public"
		}
		child, _ := json.Marshal(map[string]any{
			"kind": "t5",
			"data": map[string]any{
				"name":           sr.FullName,
				"display_name":   sr.DisplayName,
				"subreddit_type": srType,
				"title":          sr.DisplayName,
			},
		})
		children = append(children, child)
		names = append(names, sr.FullName)
	}

	pageChildren, next := m.page(children, names, r.URL.Query().Get("after"))
	writeListing(w, pageChildren, next)
}

func (m *MockReddit) serveSavedListing(w http.ResponseWriter, r *http.Request, account *Account) {
	children := make([]json.RawMessage, 0, len(account.SavedPosts))
	names := make([]string, 0, len(account.SavedPosts))
	for _, post := range account.SavedPosts {
		kind := post.Kind
		if kind == "" {
			kind = "t3"
		}
		child, _ := json.Marshal(map[string]any{
			"kind": kind,
			"data": map[string]any{
				"name":      post.FullName,
				"title":     post.Title,
				"subreddit": post.Subreddit,
				"permalink": "/r/" + post.Subreddit + "/" + post.FullName,
			},
		})
		children = append(children, child)
		names = append(names, post.FullName)
	}

	pageChildren, next := m.page(children, names, r.URL.Query().Get("after"))
	writeListing(w, pageChildren, next)
}

func (m *MockReddit) handleSubscribe(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, `{"message":"bad form"}`, http.StatusBadRequest)
		return
	}

	form := map[string]string{
		"sr":       r.PostForm.Get("sr"),
		"action":   r.PostForm.Get("action"),
		"api_type": r.PostForm.Get("api_type"),
	}

	m.mu.Lock()
	m.SubscribeForms = append(m.SubscribeForms, form)
	m.mu.Unlock()

	w.Write([]byte(`{}`))
}

func (m *MockReddit) handleSaveUnsave(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, `{"message":"bad form"}`, http.StatusBadRequest)
		return
	}
	id := r.PostForm.Get("id")

	m.mu.Lock()
	if r.URL.Path == "/api/save" {
		m.SavedIDs = append(m.SavedIDs, id)
	} else {
		m.UnsavedIDs = append(m.UnsavedIDs, id)
	}
	m.mu.Unlock()

	w.Write([]byte(`{}`))
}

func (m *MockReddit) handleFriends(w http.ResponseWriter, r *http.Request) {
	username := strings.TrimPrefix(r.URL.Path, "/api/v1/me/friends/")

	m.mu.Lock()
	switch r.Method {
	case http.MethodPut:
		m.FollowedUsers = append(m.FollowedUsers, username)
	case http.MethodDelete:
		m.UnfollowedUsers = append(m.UnfollowedUsers, username)
	}
	m.mu.Unlock()

	if r.Method == http.MethodDelete {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	w.Write([]byte(`{}`))
}

// Snapshot returns copies of the recorded write operations for assertions.
func (m *MockReddit) Snapshot() (subscribes []map[string]string, saved, unsaved []string) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	subscribes = append(subscribes, m.SubscribeForms...)
	saved = append(saved, m.SavedIDs...)
	unsaved = append(unsaved, m.UnsavedIDs...)
	return subscribes, saved, unsaved
}
