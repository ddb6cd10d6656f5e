package gateways

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

// VersionFetcher resolves the "latest" toolchain version indicator to a
// concrete release tag, so the download URL can be constructed.
type VersionFetcher struct {
	client    *http.Client
	userAgent string
	baseURL   string
}

// NewVersionFetcher creates a version fetcher against the GitHub API.
func NewVersionFetcher() *VersionFetcher {
	return &VersionFetcher{
		client:    &http.Client{},
		userAgent: "sketchci/1.0",
		baseURL:   "https://api.github.com",
	}
}

// LatestRelease returns the tag of the latest published release of repo
// ("owner/name" form), with any leading "v" stripped.
func (vf *VersionFetcher) LatestRelease(ctx context.Context, repo string) (string, error) {
	url := fmt.Sprintf("%s/repos/%s/releases/latest", vf.baseURL, repo)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("User-Agent", vf.userAgent)

	resp, err := vf.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("release lookup for %s failed: %w", repo, err)
	}
	//nolint:errcheck // Defer close on HTTP response body
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("release lookup for %s failed: HTTP %d", repo, resp.StatusCode)
	}

	var release struct {
		TagName string `json:"tag_name"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&release); err != nil {
		return "", fmt.Errorf("failed to decode release data: %w", err)
	}
	if release.TagName == "" {
		return "", fmt.Errorf("no releases found for %s", repo)
	}

	return strings.TrimPrefix(release.TagName, "v"), nil
}
