package reddit

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
)

func TestManageSubredditChunk_FormEncoding(t *testing.T) {
	var gotPath, gotContentType string
	var gotForm map[string][]string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotContentType = r.Header.Get("Content-Type")
		if err := r.ParseForm(); err != nil {
			t.Fatalf("ParseForm failed: %v", err)
		}
		gotForm = r.PostForm
		fmt.Fprint(w, `{}`)
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	err := client.ManageSubredditChunk(context.Background(), Credential{Token: "t"},
		[]string{"t5_aaa", "t5_bbb", "t5_ccc"}, ActionSubscribe)
	if err != nil {
		t.Fatalf("ManageSubredditChunk() failed: %v", err)
	}

	if gotPath != "/api/subscribe" {
		t.Errorf("path = %s, want /api/subscribe", gotPath)
	}
	if gotContentType != "application/x-www-form-urlencoded" {
		t.Errorf("content-type = %s", gotContentType)
	}
	if got := gotForm["sr"]; len(got) != 1 || got[0] != "t5_aaa,t5_bbb,t5_ccc" {
		t.Errorf("sr = %v, want comma-joined fullnames", got)
	}
	if got := gotForm["action"]; len(got) != 1 || got[0] != "sub" {
		t.Errorf("action = %v, want sub", got)
	}
	if got := gotForm["api_type"]; len(got) != 1 || got[0] != "json" {
		t.Errorf("api_type = %v, want json", got)
	}
}

func TestManageSubredditChunk_UnsubscribeAction(t *testing.T) {
	var gotAction string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		r.ParseForm()
		gotAction = r.PostForm.Get("action")
		fmt.Fprint(w, `{}`)
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	err := client.ManageSubredditChunk(context.Background(), Credential{Token: "t"},
		[]string{"t5_aaa"}, ActionUnsubscribe)
	if err != nil {
		t.Fatalf("ManageSubredditChunk() failed: %v", err)
	}
	if gotAction != "unsub" {
		t.Errorf("action = %s, want unsub", gotAction)
	}
}

func TestManageSubredditChunk_EmptyChunkIsNoop(t *testing.T) {
	called := false
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	if err := client.ManageSubredditChunk(context.Background(), Credential{Token: "t"}, nil, ActionSubscribe); err != nil {
		t.Fatalf("empty chunk should succeed, got %v", err)
	}
	if called {
		t.Error("empty chunk should not issue a request")
	}
}

func TestManagePost(t *testing.T) {
	tests := []struct {
		action   PostAction
		wantPath string
	}{
		{ActionSave, "/api/save"},
		{ActionUnsave, "/api/unsave"},
	}

	for _, tt := range tests {
		t.Run(string(tt.action), func(t *testing.T) {
			var gotPath, gotID string
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				gotPath = r.URL.Path
				r.ParseForm()
				gotID = r.PostForm.Get("id")
				fmt.Fprint(w, `{}`)
			}))
			defer server.Close()

			client := newTestClient(t, server.URL)
			if err := client.ManagePost(context.Background(), Credential{Token: "t"}, "t3_abc", tt.action); err != nil {
				t.Fatalf("ManagePost() failed: %v", err)
			}
			if gotPath != tt.wantPath {
				t.Errorf("path = %s, want %s", gotPath, tt.wantPath)
			}
			if gotID != "t3_abc" {
				t.Errorf("id = %s, want t3_abc", gotID)
			}
		})
	}
}

func TestManagePost_ReusesConnections(t *testing.T) {
	var newConns atomic.Int32
	server := httptest.NewUnstartedServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{}`)
	}))
	server.Config.ConnState = func(_ net.Conn, state http.ConnState) {
		if state == http.StateNew {
			newConns.Add(1)
		}
	}
	server.Start()
	defer server.Close()

	client := newTestClient(t, server.URL)
	for i := 0; i < 5; i++ {
		fullname := fmt.Sprintf("t3_%03d", i)
		if err := client.ManagePost(context.Background(), Credential{Token: "t"}, fullname, ActionSave); err != nil {
			t.Fatalf("ManagePost() failed: %v", err)
		}
	}

	// Bodies are drained before close, so sequential requests share one
	// keep-alive connection.
	if got := newConns.Load(); got != 1 {
		t.Errorf("server saw %d new connections, want 1", got)
	}
}

func TestFollowUser(t *testing.T) {
	var gotMethod, gotPath string
	var gotBody map[string]string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotPath = r.URL.Path
		raw, _ := io.ReadAll(r.Body)
		json.Unmarshal(raw, &gotBody)
		fmt.Fprint(w, `{}`)
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	if err := client.FollowUser(context.Background(), Credential{Token: "t"}, "someuser"); err != nil {
		t.Fatalf("FollowUser() failed: %v", err)
	}

	if gotMethod != http.MethodPut {
		t.Errorf("method = %s, want PUT", gotMethod)
	}
	if gotPath != "/api/v1/me/friends/someuser" {
		t.Errorf("path = %s", gotPath)
	}
	if gotBody["name"] != "someuser" {
		t.Errorf("body name = %q, want someuser", gotBody["name"])
	}
}

func TestUnfollowUser(t *testing.T) {
	var gotMethod, gotPath string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotPath = r.URL.Path
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	if err := client.UnfollowUser(context.Background(), Credential{Token: "t"}, "someuser"); err != nil {
		t.Fatalf("UnfollowUser() failed: %v", err)
	}

	if gotMethod != http.MethodDelete {
		t.Errorf("method = %s, want DELETE", gotMethod)
	}
	if gotPath != "/api/v1/me/friends/someuser" {
		t.Errorf("path = %s", gotPath)
	}
}
