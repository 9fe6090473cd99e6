package registry

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestSplitID(t *testing.T) {
	tests := []struct {
		id        string
		namespace string
		name      string
		wantErr   bool
	}{
		{"ms-python.python", "ms-python", "python", false},
		{"redhat.vscode-yaml", "redhat", "vscode-yaml", false},
		{"a.b.c", "a", "b.c", false},
		{"nodot", "", "", true},
		{".name", "", "", true},
		{"ns.", "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			ns, name, err := SplitID(tt.id)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidID) {
					t.Errorf("expected ErrInvalidID, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if ns != tt.namespace || name != tt.name {
				t.Errorf("SplitID(%q) = (%q, %q), want (%q, %q)", tt.id, ns, name, tt.namespace, tt.name)
			}
		})
	}
}

func TestOpenVSX_Latest(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/ms-python/python/latest":
			fmt.Fprint(w, `{"namespace":"ms-python","name":"python","version":" 2023.1.0 "}`)
		case "/api/empty/ext/latest":
			fmt.Fprint(w, `{"name":"ext"}`)
		case "/api/broken/ext/latest":
			fmt.Fprint(w, `{not json`)
		case "/api/down/ext/latest":
			w.WriteHeader(http.StatusInternalServerError)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	o := NewOpenVSX(WithBaseURL(server.URL+"/api"), WithHTTPClient(server.Client()))
	ctx := context.Background()

	version, err := o.Latest(ctx, "ms-python.python")
	if err != nil {
		t.Fatalf("Latest failed: %v", err)
	}
	if version != "2023.1.0" {
		t.Errorf("version = %q, want %q", version, "2023.1.0")
	}

	if _, err := o.Latest(ctx, "missing.ext"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if _, err := o.Latest(ctx, "empty.ext"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound for empty version, got %v", err)
	}
	if _, err := o.Latest(ctx, "broken.ext"); err == nil {
		t.Error("expected error for malformed JSON")
	}
	if _, err := o.Latest(ctx, "down.ext"); err == nil || !strings.Contains(err.Error(), "500") {
		t.Errorf("expected status 500 error, got %v", err)
	}
	if _, err := o.Latest(ctx, "nodot"); !errors.Is(err, ErrInvalidID) {
		t.Errorf("expected ErrInvalidID, got %v", err)
	}
}

func TestGitHubReleases_Latest(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "token secret" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		switch r.URL.Path {
		case "/repos/foo/bar/releases/latest":
			fmt.Fprint(w, `{"tag_name":"v1.3.0","html_url":"https://github.com/foo/bar/releases/tag/v1.3.0"}`)
		case "/repos/foo/plain/releases/latest":
			fmt.Fprint(w, `{"tag_name":"2.0"}`)
		case "/repos/foo/limited/releases/latest":
			w.Header().Set("X-RateLimit-Remaining", "0")
			w.WriteHeader(http.StatusForbidden)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	g := NewGitHubReleases(WithBaseURL(server.URL), WithHTTPClient(server.Client()), WithToken("secret"))
	ctx := context.Background()

	tag, err := g.Latest(ctx, "foo/bar")
	if err != nil {
		t.Fatalf("Latest failed: %v", err)
	}
	if tag != "1.3.0" {
		t.Errorf("tag = %q, want %q", tag, "1.3.0")
	}

	if tag, _ := g.Latest(ctx, "foo/plain"); tag != "2.0" {
		t.Errorf("tag = %q, want %q", tag, "2.0")
	}
	if _, err := g.Latest(ctx, "foo/limited"); !errors.Is(err, ErrRateLimited) {
		t.Errorf("expected ErrRateLimited, got %v", err)
	}
	if _, err := g.Latest(ctx, "foo/missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if _, err := g.Latest(ctx, "not-a-repo"); err == nil {
		t.Error("expected error for malformed repo")
	}
}

func TestGitHubReleases_NoTokenNoHeader(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "" {
			t.Errorf("unexpected Authorization header %q", r.Header.Get("Authorization"))
		}
		fmt.Fprint(w, `{"tag_name":"v1.0.0"}`)
	}))
	defer server.Close()

	g := NewGitHubReleases(WithBaseURL(server.URL), WithHTTPClient(server.Client()))
	if _, err := g.Latest(context.Background(), "o/r"); err != nil {
		t.Fatalf("Latest failed: %v", err)
	}
}

func TestCached(t *testing.T) {
	calls := map[string]int{}
	next := LookupFunc(func(ctx context.Context, key string) (string, error) {
		calls[key]++
		if key == "bad.ext" {
			return "", ErrNotFound
		}
		return "1.0." + key, nil
	})

	c, err := NewCached(next, 0)
	if err != nil {
		t.Fatalf("NewCached: %v", err)
	}
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if v, err := c.Latest(ctx, "a.b"); err != nil || v != "1.0.a.b" {
			t.Fatalf("Latest(a.b) = %q, %v", v, err)
		}
		if _, err := c.Latest(ctx, "bad.ext"); !errors.Is(err, ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	}

	if calls["a.b"] != 1 || calls["bad.ext"] != 1 {
		t.Errorf("expected one call per key, got %v", calls)
	}
	if c.Len() != 2 {
		t.Errorf("Len() = %d, want 2", c.Len())
	}
}

func TestCached_SkipsCancelled(t *testing.T) {
	calls := 0
	next := LookupFunc(func(ctx context.Context, key string) (string, error) {
		calls++
		return "", ctx.Err()
	})
	c, err := NewCached(next, 4)
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	c.Latest(ctx, "a.b")
	c.Latest(ctx, "a.b")

	if calls != 2 {
		t.Errorf("expected cancelled answers not to be cached, got %d calls", calls)
	}
}
