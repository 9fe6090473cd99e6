// Package gitops drives the git command line for the extension updater:
// identity setup, resetting to the base branch, branching, committing and
// pushing. Every call shells out to git in the repository directory.
package gitops

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// Runner executes a command in dir and returns its combined output.
type Runner interface {
	Run(ctx context.Context, dir, name string, args ...string) ([]byte, error)
}

// ExecRunner runs commands with os/exec.
type ExecRunner struct{}

// Run executes name with args in dir.
func (ExecRunner) Run(ctx context.Context, dir, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir
	return cmd.CombinedOutput()
}

// Repo is a git working tree.
type Repo struct {
	Dir    string
	Remote string
	runner Runner
}

// Option configures a Repo.
type Option func(*Repo)

// WithRunner replaces the command runner (useful for testing).
func WithRunner(r Runner) Option {
	return func(repo *Repo) {
		repo.runner = r
	}
}

// Open returns a Repo rooted at dir pushing to remote. It fails if git is
// not installed.
func Open(dir, remote string, opts ...Option) (*Repo, error) {
	repo := &Repo{Dir: dir, Remote: remote, runner: ExecRunner{}}
	for _, opt := range opts {
		opt(repo)
	}
	if _, ok := repo.runner.(ExecRunner); ok {
		if err := ensureGit(); err != nil {
			return nil, err
		}
	}
	if repo.Remote == "" {
		repo.Remote = "origin"
	}
	return repo, nil
}

func (r *Repo) git(ctx context.Context, step string, args ...string) error {
	output, err := r.runner.Run(ctx, r.Dir, "git", args...)
	if err != nil {
		return fmt.Errorf("%s: %w\n%s", step, err, strings.TrimSpace(string(output)))
	}
	return nil
}

// ConfigureIdentity sets the local user.name and user.email used for commits.
func (r *Repo) ConfigureIdentity(ctx context.Context, name, email string) error {
	if err := r.git(ctx, "setting git user.name", "config", "user.name", name); err != nil {
		return err
	}
	return r.git(ctx, "setting git user.email", "config", "user.email", email)
}

// ResetToBase fetches base from the remote and force-checks it out, so each
// update branch starts from the remote tip with a clean working tree.
func (r *Repo) ResetToBase(ctx context.Context, base string) error {
	if err := r.git(ctx, "fetching "+base, "fetch", r.Remote, base); err != nil {
		return err
	}
	if err := r.git(ctx, "checking out "+base, "checkout", "-B", base, r.Remote+"/"+base); err != nil {
		return err
	}
	return r.git(ctx, "resetting working tree", "reset", "--hard", r.Remote+"/"+base)
}

// CreateBranch creates and switches to a new branch. It fails when the branch
// already exists.
func (r *Repo) CreateBranch(ctx context.Context, name string) error {
	return r.git(ctx, "creating branch "+name, "checkout", "-b", name)
}

// Add stages paths.
func (r *Repo) Add(ctx context.Context, paths ...string) error {
	args := append([]string{"add", "--"}, paths...)
	return r.git(ctx, "staging changes", args...)
}

// Commit records the staged changes with message.
func (r *Repo) Commit(ctx context.Context, message string) error {
	return r.git(ctx, "committing", "commit", "-m", message)
}

// Push publishes branch to the remote.
func (r *Repo) Push(ctx context.Context, branch string) error {
	return r.git(ctx, "pushing "+branch, "push", r.Remote, branch)
}

// BranchName derives the per-extension branch, e.g. "update/ms-python-python-2023.1.0".
func BranchName(id, version string) string {
	short := strings.TrimSuffix(id, ".vsix")
	short = strings.NewReplacer(".", "-", "/", "-", "@", "-").Replace(short)
	return fmt.Sprintf("update/%s-%s", short, version)
}

// ensureGit checks that git is available on PATH.
func ensureGit() error {
	if _, err := exec.LookPath("git"); err != nil {
		return fmt.Errorf("git is required but not found in PATH")
	}
	return nil
}
