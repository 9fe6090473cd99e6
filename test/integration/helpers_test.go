//go:build integration

package integration_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"testing"
)

// testEnv is a working clone pushing to a local bare remote.
type testEnv struct {
	RemoteDir  string // bare repository acting as origin
	WorkDir    string // clone the updater operates on
	Dockerfile string // absolute path of the Dockerfile in WorkDir
}

const dockerfileRel = "images/mid/Dockerfile"

const dockerfileText = `FROM jupyter/base-notebook
RUN code-server --install-extension ms-python.python@2023.1.0 && \
    code-server --install-extension redhat.vscode-yaml@1.14.0 && \
    code-server --install-extension golang.go && \
    code-server --install-extension /tmp/local-tool.vsix
RUN wget https://github.com/acme/tool/releases/download/v1.0.0/tool-1.0.0.vsix && \
    code-server --install-extension tool-1.0.0.vsix
`

// setupRepo creates a bare remote and a clone whose master branch holds the
// Dockerfile above.
func setupRepo(t *testing.T) *testEnv {
	t.Helper()
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not installed")
	}

	root := t.TempDir()
	env := &testEnv{
		RemoteDir: filepath.Join(root, "remote.git"),
		WorkDir:   filepath.Join(root, "work"),
	}
	env.Dockerfile = filepath.Join(env.WorkDir, dockerfileRel)

	t.Setenv("GIT_AUTHOR_NAME", "test")
	t.Setenv("GIT_AUTHOR_EMAIL", "test@example.com")
	t.Setenv("GIT_COMMITTER_NAME", "test")
	t.Setenv("GIT_COMMITTER_EMAIL", "test@example.com")

	runGit(t, root, "init", "--bare", env.RemoteDir)
	runGit(t, root, "init", env.WorkDir)
	runGit(t, env.WorkDir, "symbolic-ref", "HEAD", "refs/heads/master")
	writeFile(t, env.Dockerfile, dockerfileText)
	runGit(t, env.WorkDir, "add", dockerfileRel)
	runGit(t, env.WorkDir, "commit", "-m", "initial")
	runGit(t, env.WorkDir, "remote", "add", "origin", env.RemoteDir)
	runGit(t, env.WorkDir, "push", "origin", "master")
	return env
}

func runGit(t *testing.T, dir string, args ...string) string {
	t.Helper()
	cmd := exec.Command("git", args...)
	cmd.Dir = dir
	out, err := cmd.CombinedOutput()
	if err != nil {
		t.Fatalf("git %s: %v\n%s", strings.Join(args, " "), err, out)
	}
	return string(out)
}

// remoteFile returns path as committed on branch in the bare remote.
func remoteFile(t *testing.T, env *testEnv, branch, path string) string {
	t.Helper()
	return runGit(t, env.RemoteDir, "show", branch+":"+path)
}

// fakeGitHub serves Open VSX, GitHub releases and GitHub pulls from one
// server and records the pull requests it receives.
type fakeGitHub struct {
	*httptest.Server

	mu    sync.Mutex
	pulls []map[string]string
}

func newFakeGitHub(t *testing.T, versions map[string]string, releases map[string]string) *fakeGitHub {
	t.Helper()
	f := &fakeGitHub{}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/{namespace}/{name}/latest", func(w http.ResponseWriter, r *http.Request) {
		v, ok := versions[r.PathValue("namespace")+"."+r.PathValue("name")]
		if !ok {
			http.NotFound(w, r)
			return
		}
		json.NewEncoder(w).Encode(map[string]string{"version": v})
	})
	mux.HandleFunc("GET /repos/{owner}/{repo}/releases/latest", func(w http.ResponseWriter, r *http.Request) {
		tag, ok := releases[r.PathValue("owner")+"/"+r.PathValue("repo")]
		if !ok {
			http.NotFound(w, r)
			return
		}
		json.NewEncoder(w).Encode(map[string]string{"tag_name": tag})
	})
	mux.HandleFunc("POST /repos/{owner}/{repo}/pulls", func(w http.ResponseWriter, r *http.Request) {
		var pr map[string]string
		if err := json.NewDecoder(r.Body).Decode(&pr); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		f.mu.Lock()
		f.pulls = append(f.pulls, pr)
		n := len(f.pulls)
		f.mu.Unlock()

		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(map[string]any{
			"number":   n,
			"html_url": "https://github.example/pull/" + pr["head"],
		})
	})

	f.Server = httptest.NewServer(mux)
	t.Cleanup(f.Close)
	return f
}

func (f *fakeGitHub) pullRequests() []map[string]string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]map[string]string(nil), f.pulls...)
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("creating directory for %s: %v", path, err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("writing %s: %v", path, err)
	}
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading %s: %v", path, err)
	}
	return string(data)
}
