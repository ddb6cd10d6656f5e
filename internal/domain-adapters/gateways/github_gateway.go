package gateways

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
)

// GitHubClient calls the GitHub REST API. Requests are one-shot with no
// retry and no client timeout; a failed baseline lookup is fatal to the run.
type GitHubClient struct {
	client    *http.Client
	token     string
	userAgent string
	baseURL   string
}

// NewGitHubClient creates a GitHub API client. The token may be empty, in
// which case requests are unauthenticated.
func NewGitHubClient(token string) *GitHubClient {
	return &GitHubClient{
		client:    &http.Client{},
		token:     token,
		userAgent: "sketchci/1.0",
		baseURL:   "https://api.github.com",
	}
}

// PullRequestBaseRef returns the name of the base branch of the given pull
// request in repo ("owner/name" form).
func (c *GitHubClient) PullRequestBaseRef(ctx context.Context, repo string, number int) (string, error) {
	url := fmt.Sprintf("%s/repos/%s/pulls/%d", c.baseURL, repo, number)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("User-Agent", c.userAgent)
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("GitHub API request failed: %w", err)
	}
	//nolint:errcheck // Defer close on HTTP response body
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unable to access repository data, please specify the github-token input in your workflow configuration (GitHub API returned %d for %s)", resp.StatusCode, url)
	}

	var pull struct {
		Base struct {
			Ref string `json:"ref"`
		} `json:"base"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&pull); err != nil {
		return "", fmt.Errorf("failed to decode pull request data: %w", err)
	}
	if pull.Base.Ref == "" {
		return "", fmt.Errorf("pull request %d in %s has no base branch", number, repo)
	}

	return pull.Base.Ref, nil
}

// PullRequestEvent is the subset of a pull_request webhook payload needed to
// locate the baseline for a deltas comparison.
type PullRequestEvent struct {
	Number  int
	HeadSHA string
}

// ReadPullRequestEvent parses the workflow event payload file at path.
func ReadPullRequestEvent(path string) (*PullRequestEvent, error) {
	//nolint:gosec // G304: path comes from the GITHUB_EVENT_PATH environment variable
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read event payload: %w", err)
	}

	var payload struct {
		PullRequest struct {
			Number int `json:"number"`
			Head   struct {
				SHA string `json:"sha"`
			} `json:"head"`
		} `json:"pull_request"`
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, fmt.Errorf("failed to parse event payload: %w", err)
	}
	if payload.PullRequest.Number == 0 {
		return nil, fmt.Errorf("event payload at %s does not describe a pull request", path)
	}

	return &PullRequestEvent{
		Number:  payload.PullRequest.Number,
		HeadSHA: payload.PullRequest.Head.SHA,
	}, nil
}
