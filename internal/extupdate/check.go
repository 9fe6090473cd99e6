// Package extupdate ties the extension tooling together: it extracts the
// directives of a Dockerfile, asks the registries for their latest versions,
// reconciles the answers into a Report, and applies the resulting updates
// through the rewriter, git and GitHub.
package extupdate

import (
	"context"
	"errors"

	"github.com/statcan/zonetool/internal/directive"
	"github.com/statcan/zonetool/internal/reconcile"
	"github.com/statcan/zonetool/internal/registry"
)

// Kind identifies where a directive's version comes from.
type Kind string

const (
	KindMarketplace Kind = "marketplace"
	KindStandalone  Kind = "standalone"
	KindHosted      Kind = "hosted"
)

// Status is the outcome of checking one directive.
type Status string

const (
	StatusCurrent  Status = "up-to-date"
	StatusUpdate   Status = "update"
	StatusUnknown  Status = "unknown"
	StatusUnpinned Status = "unpinned" // marketplace install without @version
	StatusManual   Status = "manual"
)

// Row is one checked directive.
type Row struct {
	Kind    Kind   `json:"kind" yaml:"kind"`
	ID      string `json:"id" yaml:"id"`
	Repo    string `json:"repo,omitempty" yaml:"repo,omitempty"`
	Current string `json:"current,omitempty" yaml:"current,omitempty"`
	Latest  string `json:"latest,omitempty" yaml:"latest,omitempty"`
	Status  Status `json:"status" yaml:"status"`
	Change  string `json:"change,omitempty" yaml:"change,omitempty"`
	Error   string `json:"error,omitempty" yaml:"error,omitempty"`
}

// Update is an outdated directive that can be rewritten.
type Update struct {
	reconcile.Result `yaml:",inline"`
	Kind             Kind   `json:"kind" yaml:"kind"`
	Repo             string `json:"repo,omitempty" yaml:"repo,omitempty"`
}

// Report is the result of checking one Dockerfile.
type Report struct {
	Dockerfile  string   `json:"dockerfile" yaml:"dockerfile"`
	Marketplace []Row    `json:"marketplace" yaml:"marketplace"`
	Standalone  []Row    `json:"standalone" yaml:"standalone"`
	Hosted      []Row    `json:"hosted" yaml:"hosted"`
	Outdated    []Update `json:"outdated" yaml:"outdated"`
}

// Checker resolves latest versions for extracted directives.
type Checker struct {
	Marketplace registry.Lookup
	Releases    registry.Lookup
	// Semver annotates each outdated row with its semver direction.
	Semver bool
}

// Check looks up every directive in x, one at a time and in file order.
// Lookup failures mark the row unknown and never stop the run.
func (c *Checker) Check(ctx context.Context, dockerfile string, x directive.Extraction) *Report {
	report := &Report{Dockerfile: dockerfile}

	var marketCandidates []reconcile.Candidate
	var hostedUpdates []Update
	for _, e := range x.Marketplace {
		latest, err := c.Marketplace.Latest(ctx, e.ID)
		cand := reconcile.Candidate{ID: e.ID, Declared: e.Version, Latest: latest}
		marketCandidates = append(marketCandidates, cand)
		report.Marketplace = append(report.Marketplace, c.row(KindMarketplace, e.ID, "", cand, err))
	}

	for _, s := range x.Standalone {
		report.Standalone = append(report.Standalone, Row{Kind: KindStandalone, ID: s.ID, Status: StatusManual})
	}

	for _, h := range x.Hosted {
		latest, err := c.Releases.Latest(ctx, h.Repo)
		cand := reconcile.Candidate{ID: h.File, Declared: h.Version, Latest: latest}
		report.Hosted = append(report.Hosted, c.row(KindHosted, h.File, h.Repo, cand, err))
		// Reconciled one at a time so each result keeps its own repo.
		for _, r := range reconcile.Reconcile([]reconcile.Candidate{cand}) {
			hostedUpdates = append(hostedUpdates, Update{Result: r, Kind: KindHosted, Repo: h.Repo})
		}
	}

	for _, r := range reconcile.Reconcile(marketCandidates) {
		report.Outdated = append(report.Outdated, Update{Result: r, Kind: KindMarketplace})
	}
	report.Outdated = append(report.Outdated, hostedUpdates...)
	return report
}

func (c *Checker) row(kind Kind, id, repo string, cand reconcile.Candidate, err error) Row {
	row := Row{Kind: kind, ID: id, Repo: repo, Current: cand.Declared, Latest: cand.Latest}
	switch {
	case err != nil || cand.Latest == "":
		row.Status = StatusUnknown
		if err != nil {
			row.Error = errorText(err)
		}
	case cand.Declared == "":
		row.Status = StatusUnpinned
	case cand.Outdated():
		row.Status = StatusUpdate
		if c.Semver {
			row.Change = reconcile.Direction(cand.Declared, cand.Latest).String()
		}
	default:
		row.Status = StatusCurrent
	}
	return row
}

func errorText(err error) string {
	switch {
	case errors.Is(err, registry.ErrNotFound):
		return "not found"
	case errors.Is(err, registry.ErrInvalidID):
		return "invalid extension id"
	case errors.Is(err, registry.ErrRateLimited):
		return "rate limited"
	default:
		return err.Error()
	}
}
