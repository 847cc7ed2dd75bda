package migrate

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/subshift/subshift/pkg/reddit"
)

// mockAPI records calls and answers from canned data. Safe for concurrent
// use since the executor fans calls out in waves.
type mockAPI struct {
	mu sync.Mutex

	users        map[string]string // token -> username
	subreddits   reddit.SubredditNames
	savedPosts   []string
	listingErr   error
	savedErr     error
	subscribeErr error
	postErr      error

	subscribeCalls   [][]string
	unsubscribeCalls [][]string
	saveCalls        []string
	unsaveCalls      []string
	followCalls      []string
	unfollowCalls    []string
}

func (m *mockAPI) Me(ctx context.Context, cred reddit.Credential) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	name, ok := m.users[cred.Token]
	if !ok {
		return "", &reddit.APIError{StatusCode: 401, Class: reddit.ErrorClassAuth, Endpoint: "/api/v1/me"}
	}
	return name, nil
}

func (m *mockAPI) SubredditNames(ctx context.Context, cred reddit.Credential) (reddit.SubredditNames, error) {
	if m.listingErr != nil {
		return reddit.SubredditNames{}, m.listingErr
	}
	return m.subreddits, nil
}

func (m *mockAPI) SavedPostNames(ctx context.Context, cred reddit.Credential) ([]string, error) {
	if m.savedErr != nil {
		return nil, m.savedErr
	}
	return m.savedPosts, nil
}

func (m *mockAPI) ManageSubredditChunk(ctx context.Context, cred reddit.Credential, fullnames []string, action reddit.SubredditAction) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if action == reddit.ActionSubscribe {
		if m.subscribeErr != nil {
			return m.subscribeErr
		}
		m.subscribeCalls = append(m.subscribeCalls, fullnames)
	} else {
		m.unsubscribeCalls = append(m.unsubscribeCalls, fullnames)
	}
	return nil
}

func (m *mockAPI) ManagePost(ctx context.Context, cred reddit.Credential, fullname string, action reddit.PostAction) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if action == reddit.ActionSave {
		if m.postErr != nil && fullname == "t3_bad" {
			return m.postErr
		}
		m.saveCalls = append(m.saveCalls, fullname)
	} else {
		m.unsaveCalls = append(m.unsaveCalls, fullname)
	}
	return nil
}

func (m *mockAPI) FollowUser(ctx context.Context, cred reddit.Credential, username string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.followCalls = append(m.followCalls, username)
	return nil
}

func (m *mockAPI) UnfollowUser(ctx context.Context, cred reddit.Credential, username string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.unfollowCalls = append(m.unfollowCalls, username)
	return nil
}

func newMockAPI() *mockAPI {
	return &mockAPI{
		users: map[string]string{
			"src-token": "alice",
			"dst-token": "bob",
		},
	}
}

func testOrchestrator(api API) *Orchestrator {
	cfg := DefaultConfig()
	cfg.WaveInterval = time.Millisecond
	return New(api, cfg, zerolog.Nop())
}

func baseRequest() Request {
	return Request{
		Source:     reddit.Credential{Token: "src-token"},
		Dest:       reddit.Credential{Token: "dst-token"},
		Subreddits: SelectionSet{Mode: SelectAll},
		Posts:      SelectionSet{Mode: SelectAll},
	}
}

func TestRun_FullMigration(t *testing.T) {
	api := newMockAPI()
	api.subreddits = reddit.SubredditNames{
		FullNames:     []string{"t5_a", "t5_b", "t5_c"},
		FollowedUsers: []string{"carol"},
	}
	api.savedPosts = []string{"t3_new", "t1_mid", "t3_old"}

	result, err := testOrchestrator(api).Run(context.Background(), baseRequest())
	if err != nil {
		t.Fatalf("Run() failed: %v", err)
	}

	if result.MigrationID == "" {
		t.Error("MigrationID should be set")
	}
	if result.SourceUser != "alice" || result.DestUser != "bob" {
		t.Errorf("users = %s/%s, want alice/bob", result.SourceUser, result.DestUser)
	}

	if result.SubscribeSubreddits == nil || result.SubscribeSubreddits.SuccessCount != 3 {
		t.Errorf("SubscribeSubreddits = %+v, want 3 successes", result.SubscribeSubreddits)
	}
	if result.FollowUsers == nil || result.FollowUsers.SuccessCount != 1 {
		t.Errorf("FollowUsers = %+v, want 1 success", result.FollowUsers)
	}
	if result.SavePosts == nil || result.SavePosts.SuccessCount != 3 {
		t.Errorf("SavePosts = %+v, want 3 successes", result.SavePosts)
	}

	// Delete was not requested, so no source-side reports.
	if result.UnsubscribeSubreddits != nil || result.UnsavePosts != nil || result.UnfollowUsers != nil {
		t.Error("delete reports should be absent when deletion is off")
	}

	// Saves run oldest first so the destination keeps the source order.
	want := []string{"t3_old", "t1_mid", "t3_new"}
	if len(api.saveCalls) != len(want) {
		t.Fatalf("saveCalls = %v, want %v", api.saveCalls, want)
	}
	for i := range want {
		if api.saveCalls[i] != want[i] {
			t.Errorf("saveCalls[%d] = %s, want %s", i, api.saveCalls[i], want[i])
		}
	}
}

func TestRun_DeleteFromSource(t *testing.T) {
	api := newMockAPI()
	api.subreddits = reddit.SubredditNames{
		FullNames:     []string{"t5_a", "t5_b"},
		FollowedUsers: []string{"carol"},
	}
	api.savedPosts = []string{"t3_x"}

	req := baseRequest()
	req.Delete = DeleteOptions{Subreddits: true, Posts: true}

	result, err := testOrchestrator(api).Run(context.Background(), req)
	if err != nil {
		t.Fatalf("Run() failed: %v", err)
	}

	if result.UnsubscribeSubreddits == nil || result.UnsubscribeSubreddits.SuccessCount != 2 {
		t.Errorf("UnsubscribeSubreddits = %+v, want 2 successes", result.UnsubscribeSubreddits)
	}
	if result.UnfollowUsers == nil || result.UnfollowUsers.SuccessCount != 1 {
		t.Errorf("UnfollowUsers = %+v, want 1 success", result.UnfollowUsers)
	}
	if result.UnsavePosts == nil || result.UnsavePosts.SuccessCount != 1 {
		t.Errorf("UnsavePosts = %+v, want 1 success", result.UnsavePosts)
	}
	if len(api.unsubscribeCalls) == 0 || len(api.unsaveCalls) != 1 {
		t.Errorf("source cleanup calls missing: unsubscribe=%v unsave=%v",
			api.unsubscribeCalls, api.unsaveCalls)
	}
}

func TestRun_AuthFailureAbortsBeforeAnyWrite(t *testing.T) {
	api := newMockAPI()
	api.subreddits = reddit.SubredditNames{FullNames: []string{"t5_a"}}

	req := baseRequest()
	req.Source.Token = "wrong-token"

	result, err := testOrchestrator(api).Run(context.Background(), req)
	if err == nil {
		t.Fatal("expected an error for a rejected credential")
	}
	if !reddit.IsAuth(err) {
		t.Errorf("error %v should classify as auth", err)
	}
	if result != nil {
		t.Error("result should be nil on auth failure")
	}
	if len(api.subscribeCalls) != 0 || len(api.saveCalls) != 0 {
		t.Error("no writes should happen on auth failure")
	}
}

func TestRun_ListingFailureSkipsOnlyThatKind(t *testing.T) {
	api := newMockAPI()
	api.listingErr = errors.New("listing exploded")
	api.savedPosts = []string{"t3_x", "t3_y"}

	result, err := testOrchestrator(api).Run(context.Background(), baseRequest())
	if err != nil {
		t.Fatalf("Run() failed: %v", err)
	}

	if result.SubredditError == "" {
		t.Error("SubredditError should record the listing failure")
	}
	if result.SubscribeSubreddits != nil {
		t.Error("no subscribe report when the subreddit listing failed")
	}
	if result.SavePosts == nil || result.SavePosts.SuccessCount != 2 {
		t.Errorf("SavePosts = %+v, post stage should still run", result.SavePosts)
	}
}

func TestRun_CustomSelection(t *testing.T) {
	api := newMockAPI()

	req := baseRequest()
	req.Subreddits = SelectionSet{Mode: SelectCustom, Items: []string{"t5_x", "t5_y"}}
	req.Posts = SelectionSet{Mode: SelectCustom, Items: []string{"t3_a"}}

	result, err := testOrchestrator(api).Run(context.Background(), req)
	if err != nil {
		t.Fatalf("Run() failed: %v", err)
	}

	// Custom mode must not hit the listing endpoints.
	if result.SubscribeSubreddits.SuccessCount != 2 {
		t.Errorf("SubscribeSubreddits = %+v, want the 2 custom items", result.SubscribeSubreddits)
	}
	if result.SavePosts.SuccessCount != 1 {
		t.Errorf("SavePosts = %+v, want the 1 custom item", result.SavePosts)
	}
	if result.FollowUsers != nil {
		t.Error("custom mode carries no followed users")
	}
}

func TestRun_NoneModeSkipsKind(t *testing.T) {
	api := newMockAPI()
	api.savedPosts = []string{"t3_x"}

	req := baseRequest()
	req.Subreddits = SelectionSet{Mode: SelectNone}

	result, err := testOrchestrator(api).Run(context.Background(), req)
	if err != nil {
		t.Fatalf("Run() failed: %v", err)
	}

	if result.SubscribeSubreddits != nil {
		t.Error("subreddit stage should not run in none mode")
	}
	if len(api.subscribeCalls) != 0 {
		t.Errorf("subscribeCalls = %v, want none", api.subscribeCalls)
	}
	if result.SavePosts == nil {
		t.Error("post stage should still run")
	}
}

func TestRun_SubscribeFailureReportsChunkItems(t *testing.T) {
	api := newMockAPI()
	api.subreddits = reddit.SubredditNames{FullNames: []string{"t5_a", "t5_b"}}
	api.subscribeErr = errors.New("subscribe rejected")

	req := baseRequest()
	req.Posts = SelectionSet{Mode: SelectNone}

	result, err := testOrchestrator(api).Run(context.Background(), req)
	if err != nil {
		t.Fatalf("Run() failed: %v", err)
	}

	if result.SubscribeSubreddits.FailedCount != 2 {
		t.Errorf("SubscribeSubreddits = %+v, want both items failed", result.SubscribeSubreddits)
	}
	if len(result.SubscribeSubreddits.FailedItems) != 2 {
		t.Errorf("FailedItems = %v, want both fullnames", result.SubscribeSubreddits.FailedItems)
	}
}

func TestRun_PartialSaveFailure(t *testing.T) {
	api := newMockAPI()
	api.savedPosts = []string{"t3_good1", "t3_bad", "t3_good2"}
	api.postErr = errors.New("save rejected")

	req := baseRequest()
	req.Subreddits = SelectionSet{Mode: SelectNone}

	result, err := testOrchestrator(api).Run(context.Background(), req)
	if err != nil {
		t.Fatalf("Run() failed: %v", err)
	}

	if result.SavePosts.SuccessCount != 2 || result.SavePosts.FailedCount != 1 {
		t.Errorf("SavePosts = %+v, want 2 successes and 1 failure", result.SavePosts)
	}
	if len(result.SavePosts.FailedItems) != 1 || result.SavePosts.FailedItems[0] != "t3_bad" {
		t.Errorf("FailedItems = %v, want [t3_bad]", result.SavePosts.FailedItems)
	}
}

func TestRequestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Request)
		wantErr bool
	}{
		{"valid", func(r *Request) {}, false},
		{"missing source token", func(r *Request) { r.Source.Token = "" }, true},
		{"missing dest token", func(r *Request) { r.Dest.Token = "" }, true},
		{"custom without items", func(r *Request) {
			r.Subreddits = SelectionSet{Mode: SelectCustom}
		}, true},
		{"unknown mode", func(r *Request) {
			r.Posts = SelectionSet{Mode: "sometimes"}
		}, true},
		{"both none", func(r *Request) {
			r.Subreddits = SelectionSet{Mode: SelectNone}
			r.Posts = SelectionSet{Mode: SelectNone}
		}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := baseRequest()
			tt.mutate(&req)
			err := req.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestRun_InvalidRequestMakesNoCalls(t *testing.T) {
	api := newMockAPI()

	req := baseRequest()
	req.Source.Token = ""

	_, err := testOrchestrator(api).Run(context.Background(), req)
	if err == nil {
		t.Fatal("expected a validation error")
	}
	if !errors.Is(err, ErrInvalidRequest) {
		t.Errorf("error %v should wrap ErrInvalidRequest", err)
	}
	if len(api.subscribeCalls)+len(api.saveCalls) != 0 {
		t.Error("invalid requests must not reach the API")
	}
}

func TestReversed(t *testing.T) {
	got := reversed([]string{"a", "b", "c"})
	want := []string{"c", "b", "a"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("reversed = %v, want %v", got, want)
		}
	}
	if reversed(nil) != nil {
		t.Error("reversed(nil) should be nil")
	}
}
