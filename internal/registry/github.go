package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

const githubAPIBase = "https://api.github.com"

// GitHubReleases resolves the latest release tag of a repository.
type GitHubReleases struct {
	cfg clientConfig
}

// NewGitHubReleases creates a GitHub Releases client.
func NewGitHubReleases(opts ...Option) *GitHubReleases {
	return &GitHubReleases{cfg: newConfig(githubAPIBase, opts)}
}

type githubRelease struct {
	TagName string `json:"tag_name"`
}

// Latest returns the latest release tag of repo ("owner/name") with the
// leading "v" removed.
func (g *GitHubReleases) Latest(ctx context.Context, repo string) (string, error) {
	if strings.Count(repo, "/") != 1 {
		return "", fmt.Errorf("repository %q must be owner/name", repo)
	}

	endpoint := fmt.Sprintf("%s/repos/%s/releases/latest", strings.TrimRight(g.cfg.baseURL, "/"), repo)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}

	req.Header.Set("Accept", "application/vnd.github.v3+json")
	req.Header.Set("User-Agent", g.cfg.userAgent)
	if g.cfg.token != "" {
		req.Header.Set("Authorization", "token "+g.cfg.token)
	}

	resp, err := g.cfg.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetching release: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return "", fmt.Errorf("%s: %w", repo, ErrNotFound)
	}
	if resp.StatusCode == http.StatusForbidden && resp.Header.Get("X-RateLimit-Remaining") == "0" {
		return "", ErrRateLimited
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("GitHub API returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("reading response body: %w", err)
	}

	var release githubRelease
	if err := json.Unmarshal(body, &release); err != nil {
		return "", fmt.Errorf("parsing release JSON: %w", err)
	}

	tag := strings.TrimSpace(strings.TrimLeft(release.TagName, "v"))
	if tag == "" {
		return "", fmt.Errorf("%s: release has no tag: %w", repo, ErrNotFound)
	}
	return tag, nil
}
