package gateways

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestPullRequestBaseRef(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/repos/octocat/FooLib/pulls/42" {
			http.NotFound(w, r)
			return
		}
		if got := r.Header.Get("Authorization"); got != "Bearer token123" {
			t.Errorf("Authorization header = %q", got)
		}
		if got := r.Header.Get("Accept"); got != "application/vnd.github+json" {
			t.Errorf("Accept header = %q", got)
		}
		_, _ = w.Write([]byte(`{"number": 42, "base": {"ref": "main"}, "head": {"sha": "abc123"}}`))
	}))
	defer server.Close()

	client := NewGitHubClient("token123")
	client.baseURL = server.URL

	ref, err := client.PullRequestBaseRef(context.Background(), "octocat/FooLib", 42)
	if err != nil {
		t.Fatalf("PullRequestBaseRef() error: %v", err)
	}
	if ref != "main" {
		t.Errorf("base ref = %s, want main", ref)
	}
}

func TestPullRequestBaseRefUnauthorized(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "" {
			t.Error("no Authorization header expected without a token")
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	client := NewGitHubClient("")
	client.baseURL = server.URL

	_, err := client.PullRequestBaseRef(context.Background(), "octocat/PrivateLib", 1)
	if err == nil {
		t.Fatal("expected an error")
	}
	if !strings.Contains(err.Error(), "github-token") {
		t.Errorf("error should point at the github-token input, got %q", err)
	}
}

func TestReadPullRequestEvent(t *testing.T) {
	payload := `{
		"pull_request": {
			"number": 7,
			"head": {"sha": "1234567890abcdef"}
		}
	}`
	path := filepath.Join(t.TempDir(), "event.json")
	if err := os.WriteFile(path, []byte(payload), 0600); err != nil {
		t.Fatal(err)
	}

	event, err := ReadPullRequestEvent(path)
	if err != nil {
		t.Fatalf("ReadPullRequestEvent() error: %v", err)
	}
	if event.Number != 7 {
		t.Errorf("Number = %d, want 7", event.Number)
	}
	if event.HeadSHA != "1234567890abcdef" {
		t.Errorf("HeadSHA = %s", event.HeadSHA)
	}
}

func TestReadPullRequestEventErrors(t *testing.T) {
	if _, err := ReadPullRequestEvent(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Error("expected an error for a missing payload file")
	}

	path := filepath.Join(t.TempDir(), "push.json")
	if err := os.WriteFile(path, []byte(`{"ref": "refs/heads/main"}`), 0600); err != nil {
		t.Fatal(err)
	}
	if _, err := ReadPullRequestEvent(path); err == nil {
		t.Error("expected an error for a non-pull-request payload")
	}
}
