// Package github opens pull requests through the GitHub REST API.
package github

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/statcan/zonetool/internal/branding"
)

const apiBase = "https://api.github.com"

// ErrPullRequestExists is returned when GitHub already has an open pull
// request for the head branch.
var ErrPullRequestExists = errors.New("pull request already exists")

// PullRequest is the payload of a pull request to open.
type PullRequest struct {
	Title string `json:"title"`
	Head  string `json:"head"`
	Base  string `json:"base"`
	Body  string `json:"body"`
}

// Client talks to the GitHub pulls API.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client (useful for testing).
func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) {
		cl.httpClient = c
	}
}

// WithBaseURL points the client at a GitHub Enterprise or test server.
func WithBaseURL(url string) Option {
	return func(cl *Client) {
		cl.baseURL = url
	}
}

// New creates a Client authenticating with token.
func New(token string, opts ...Option) *Client {
	c := &Client{
		baseURL:    apiBase,
		token:      token,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type createdPullRequest struct {
	Number  int    `json:"number"`
	HTMLURL string `json:"html_url"`
}

// CreatePullRequest opens pr against owner/repo and returns its web URL.
func (c *Client) CreatePullRequest(ctx context.Context, owner, repo string, pr PullRequest) (string, error) {
	if c.token == "" {
		return "", fmt.Errorf("a GitHub token is required to open pull requests (set GITHUB_TOKEN)")
	}

	payload, err := json.Marshal(pr)
	if err != nil {
		return "", fmt.Errorf("marshaling pull request: %w", err)
	}

	url := fmt.Sprintf("%s/repos/%s/%s/pulls", strings.TrimRight(c.baseURL, "/"), owner, repo)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Authorization", "token "+c.token)
	req.Header.Set("Accept", "application/vnd.github.v3+json")
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", branding.UserAgent())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("creating pull request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("reading response body: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusCreated:
	case resp.StatusCode == http.StatusUnprocessableEntity && strings.Contains(string(body), "pull request already exists"):
		return "", fmt.Errorf("%s: %w", pr.Head, ErrPullRequestExists)
	default:
		return "", fmt.Errorf("failed to create pull request: %d %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var created createdPullRequest
	if err := json.Unmarshal(body, &created); err != nil {
		return "", fmt.Errorf("parsing pull request JSON: %w", err)
	}
	return created.HTMLURL, nil
}
