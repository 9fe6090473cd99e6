package extupdate

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/statcan/zonetool/internal/github"
	"github.com/statcan/zonetool/internal/gitops"
)

// Rewriter applies a version bump to the build file.
type Rewriter interface {
	ReplaceInstall(id, oldVersion, newVersion string) (bool, error)
	ReplaceRelease(repo, oldVersion, newVersion string) (bool, error)
}

// Git is the subset of git operations the updater needs.
type Git interface {
	ConfigureIdentity(ctx context.Context, name, email string) error
	ResetToBase(ctx context.Context, base string) error
	CreateBranch(ctx context.Context, name string) error
	Add(ctx context.Context, paths ...string) error
	Commit(ctx context.Context, message string) error
	Push(ctx context.Context, branch string) error
}

// PullRequester opens pull requests.
type PullRequester interface {
	CreatePullRequest(ctx context.Context, owner, repo string, pr github.PullRequest) (string, error)
}

// Target names the repository and branches pull requests are opened for.
type Target struct {
	Owner       string
	Name        string
	Base        string
	BatchBranch string
	Username    string
	Email       string
}

// Updater applies outdated entries from a Report.
type Updater struct {
	Dockerfile string
	Rewriter   Rewriter
	Git        Git
	Pulls      PullRequester
	Target     Target
	// Out receives progress messages.
	Out io.Writer
}

// EntryError records an update that could not be completed.
type EntryError struct {
	Update Update
	Err    error
}

// Outcome summarizes an Apply run.
type Outcome struct {
	Applied      []Update
	NotFound     []Update // rewrite found no matching text
	Failed       []EntryError
	PullRequests []string
}

// Rewrite bumps one entry in the build file. It reports false when the
// old directive text is not present.
func (u *Updater) Rewrite(up Update) (bool, error) {
	switch up.Kind {
	case KindMarketplace:
		return u.Rewriter.ReplaceInstall(up.ID, up.OldVersion, up.NewVersion)
	case KindHosted:
		return u.Rewriter.ReplaceRelease(up.Repo, up.OldVersion, up.NewVersion)
	default:
		return false, fmt.Errorf("cannot rewrite %s entry %s", up.Kind, up.ID)
	}
}

// RewriteAll rewrites every update in place without touching git.
func (u *Updater) RewriteAll(updates []Update) *Outcome {
	out := &Outcome{}
	for _, up := range updates {
		u.rewriteInto(out, up)
	}
	return out
}

func (u *Updater) rewriteInto(out *Outcome, up Update) bool {
	changed, err := u.Rewrite(up)
	switch {
	case err != nil:
		out.Failed = append(out.Failed, EntryError{Update: up, Err: err})
		u.printf("Error updating %s: %v\n", up.ID, err)
		return false
	case !changed:
		out.NotFound = append(out.NotFound, up)
		u.printf("No directive for %s@%s found in %s, skipping\n", up.ID, up.OldVersion, u.Dockerfile)
		return false
	}
	out.Applied = append(out.Applied, up)
	u.printf("Updated %s: %s -> %s\n", up.ID, up.OldVersion, up.NewVersion)
	return true
}

// BatchMessage is the commit message and pull request body used when all
// updates share one branch.
func BatchMessage(updates []Update) string {
	var b strings.Builder
	b.WriteString("Update VSCode extensions in Dockerfile:\n")
	for _, up := range updates {
		fmt.Fprintf(&b, "- %s: %s -> %s\n", up.ID, up.OldVersion, up.NewVersion)
	}
	return b.String()
}

// ApplyBatch rewrites all updates, then commits them on a single branch and
// opens one pull request. It refuses to continue if the batch branch exists.
func (u *Updater) ApplyBatch(ctx context.Context, updates []Update) (*Outcome, error) {
	out := u.RewriteAll(updates)
	if len(out.Applied) == 0 {
		u.printf("No updates to commit.\n")
		return out, nil
	}

	t := u.Target
	if err := u.Git.ConfigureIdentity(ctx, t.Username, t.Email); err != nil {
		return out, err
	}
	if err := u.Git.CreateBranch(ctx, t.BatchBranch); err != nil {
		if strings.Contains(err.Error(), "already exists") {
			return out, fmt.Errorf("branch %s already exists, delete it or check it out to continue: %w", t.BatchBranch, err)
		}
		return out, err
	}

	message := BatchMessage(out.Applied)
	if err := u.Git.Add(ctx, u.Dockerfile); err != nil {
		return out, err
	}
	if err := u.Git.Commit(ctx, message); err != nil {
		return out, err
	}
	if err := u.Git.Push(ctx, t.BatchBranch); err != nil {
		return out, err
	}

	url, err := u.Pulls.CreatePullRequest(ctx, t.Owner, t.Name, github.PullRequest{
		Title: "Automated: Update VSCode Extensions",
		Head:  t.BatchBranch,
		Base:  t.Base,
		Body:  message,
	})
	if err != nil {
		return out, fmt.Errorf("failed to create pull request: %w", err)
	}
	out.PullRequests = append(out.PullRequests, url)
	u.printf("Pull request created: %s\n", url)
	return out, nil
}

// ApplyEach gives every update its own branch, commit and pull request,
// each starting from a fresh copy of the base branch. A failing entry is
// recorded and the remaining entries still run.
func (u *Updater) ApplyEach(ctx context.Context, updates []Update) (*Outcome, error) {
	out := &Outcome{}
	if len(updates) == 0 {
		return out, nil
	}

	t := u.Target
	if err := u.Git.ConfigureIdentity(ctx, t.Username, t.Email); err != nil {
		return out, err
	}

	for _, up := range updates {
		if err := u.applyOne(ctx, out, up); err != nil {
			out.Failed = append(out.Failed, EntryError{Update: up, Err: err})
			u.printf("Failed to update %s: %v\n", up.ID, err)
		}
	}
	return out, nil
}

func (u *Updater) applyOne(ctx context.Context, out *Outcome, up Update) error {
	t := u.Target
	branch := gitops.BranchName(up.ID, up.NewVersion)

	if err := u.Git.ResetToBase(ctx, t.Base); err != nil {
		return err
	}
	if err := u.Git.CreateBranch(ctx, branch); err != nil {
		return err
	}
	if !u.rewriteInto(out, up) {
		return nil
	}

	message := fmt.Sprintf("Update %s to %s", up.ID, up.NewVersion)
	if err := u.Git.Add(ctx, u.Dockerfile); err != nil {
		return err
	}
	if err := u.Git.Commit(ctx, message); err != nil {
		return err
	}
	if err := u.Git.Push(ctx, branch); err != nil {
		return err
	}

	url, err := u.Pulls.CreatePullRequest(ctx, t.Owner, t.Name, github.PullRequest{
		Title: "Automated: " + message,
		Head:  branch,
		Base:  t.Base,
		Body:  fmt.Sprintf("This PR updates `%s` from `%s` to `%s`.", up.ID, up.OldVersion, up.NewVersion),
	})
	if errors.Is(err, github.ErrPullRequestExists) {
		u.printf("PR already exists for %s\n", branch)
		return nil
	}
	if err != nil {
		return err
	}
	out.PullRequests = append(out.PullRequests, url)
	u.printf("PR created: %s\n", url)
	return nil
}

func (u *Updater) printf(format string, args ...any) {
	if u.Out == nil {
		return
	}
	fmt.Fprintf(u.Out, format, args...)
}
