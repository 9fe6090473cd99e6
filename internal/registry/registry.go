// Package registry looks up the latest published version of an editor
// extension. Two sources are supported: the Open VSX registry, keyed by
// "namespace.name", and GitHub Releases, keyed by "owner/repo".
//
// Callers treat every error as "latest version unknown"; the sentinel errors
// exist so that reports can say why.
package registry

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/statcan/zonetool/internal/branding"
)

var (
	// ErrNotFound is returned when the registry has no such extension or release.
	ErrNotFound = errors.New("not found")
	// ErrInvalidID is returned for an Open VSX id without a namespace.
	ErrInvalidID = errors.New("extension id must be namespace.name")
	// ErrRateLimited is returned when GitHub refuses the request for quota reasons.
	ErrRateLimited = errors.New("GitHub API rate limit exceeded. Set GITHUB_TOKEN for higher limits")
)

// DefaultTimeout bounds each registry request.
const DefaultTimeout = 30 * time.Second

// Lookup resolves a key to the latest version string.
type Lookup interface {
	Latest(ctx context.Context, key string) (string, error)
}

// LookupFunc adapts a function to Lookup.
type LookupFunc func(ctx context.Context, key string) (string, error)

// Latest calls f.
func (f LookupFunc) Latest(ctx context.Context, key string) (string, error) {
	return f(ctx, key)
}

type clientConfig struct {
	baseURL    string
	httpClient *http.Client
	token      string
	userAgent  string
}

// Option configures a registry client.
type Option func(*clientConfig)

// WithHTTPClient sets a custom HTTP client (useful for testing).
func WithHTTPClient(c *http.Client) Option {
	return func(cfg *clientConfig) {
		cfg.httpClient = c
	}
}

// WithBaseURL points the client at a different API root, such as a mirror.
func WithBaseURL(url string) Option {
	return func(cfg *clientConfig) {
		cfg.baseURL = url
	}
}

// WithToken sets a bearer token. Only GitHub uses it.
func WithToken(token string) Option {
	return func(cfg *clientConfig) {
		cfg.token = token
	}
}

// WithTimeout replaces the HTTP client with one using the given timeout.
func WithTimeout(d time.Duration) Option {
	return func(cfg *clientConfig) {
		cfg.httpClient = &http.Client{Timeout: d}
	}
}

func newConfig(defaultBase string, opts []Option) clientConfig {
	cfg := clientConfig{
		baseURL:    defaultBase,
		httpClient: &http.Client{Timeout: DefaultTimeout},
		userAgent:  branding.UserAgent(),
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}
