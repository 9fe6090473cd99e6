package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/statcan/zonetool/internal/config"
	"github.com/statcan/zonetool/internal/directive"
	"github.com/statcan/zonetool/internal/dockerfile"
	"github.com/statcan/zonetool/internal/extupdate"
	"github.com/statcan/zonetool/internal/github"
	"github.com/statcan/zonetool/internal/gitops"
	"github.com/statcan/zonetool/internal/registry"
)

var (
	extDockerfile string
	extOutput     string
	extSemver     bool
	extNoPR       bool
	extDryRun     bool
	extPerEntry   bool
)

func init() {
	for _, c := range []*cobra.Command{extensionsCheckCmd, extensionsUpdateCmd} {
		c.Flags().StringVar(&extDockerfile, "dockerfile", "", "Dockerfile to scan (default from config, relative to repo.dir)")
		c.Flags().StringVarP(&extOutput, "output", "o", extupdate.FormatText, "Report format: text, json or yaml")
		c.Flags().BoolVar(&extSemver, "semver", false, "Annotate updates as upgrade or downgrade")
	}
	extensionsUpdateCmd.Flags().BoolVar(&extNoPR, "no-pr", false, "Rewrite the Dockerfile without committing or opening pull requests")
	extensionsUpdateCmd.Flags().BoolVar(&extDryRun, "dry-run", false, "Report what would change without touching any file")
	extensionsUpdateCmd.Flags().BoolVar(&extPerEntry, "per-extension", false, "Open one branch and pull request per outdated extension")

	extensionsCmd.AddCommand(extensionsCheckCmd)
	extensionsCmd.AddCommand(extensionsUpdateCmd)
	rootCmd.AddCommand(extensionsCmd)
}

var extensionsCmd = &cobra.Command{
	Use:     "extensions",
	Aliases: []string{"ext"},
	Short:   "Check and update VS Code extensions pinned in the Dockerfile",
}

var extensionsCheckCmd = &cobra.Command{
	Use:   "check",
	Short: "Report installed extensions and their latest versions",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		path := dockerfilePath()
		report, err := checkDockerfile(cmd, path)
		if err != nil {
			return err
		}
		return extupdate.Write(cmd.OutOrStdout(), report, extOutput)
	},
}

var extensionsUpdateCmd = &cobra.Command{
	Use:   "update",
	Short: "Bump outdated extensions and open pull requests",
	Long: `Check the Dockerfile, rewrite every outdated extension to its latest version,
then commit the change on a branch and open a pull request.

By default all updates share one branch (branch.batch). With --per-extension
each update gets its own branch from a fresh copy of the base branch.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		path := dockerfilePath()
		report, err := checkDockerfile(cmd, path)
		if err != nil {
			return err
		}
		if err := extupdate.Write(cmd.OutOrStdout(), report, extOutput); err != nil {
			return err
		}
		if len(report.Outdated) == 0 {
			return nil
		}
		if extDryRun {
			fmt.Fprintf(cmd.ErrOrStderr(), "Dry run: %d update(s) not applied\n", len(report.Outdated))
			return nil
		}

		updater := &extupdate.Updater{
			Dockerfile: repoRelative(path),
			Rewriter:   dockerfile.New(path),
			Out:        cmd.ErrOrStderr(),
			Target: extupdate.Target{
				Owner:       config.Get(config.KeyRepoOwner),
				Name:        config.Get(config.KeyRepoName),
				Base:        config.Get(config.KeyBaseBranch),
				BatchBranch: config.Get(config.KeyBatchBranch),
				Username:    config.Get(config.KeyGitUsername),
				Email:       config.Get(config.KeyGitEmail),
			},
		}

		var outcome *extupdate.Outcome
		if extNoPR {
			outcome = updater.RewriteAll(report.Outdated)
		} else {
			token := config.GitHubToken()
			if token == "" {
				return errors.New("GITHUB_TOKEN is not set; export it or use --no-pr to only rewrite the Dockerfile")
			}
			repo, err := gitops.Open(config.Get(config.KeyRepoDir), config.Get(config.KeyGitRemote))
			if err != nil {
				return err
			}
			updater.Git = repo
			updater.Pulls = github.New(token, github.WithBaseURL(config.Get(config.KeyGitHubAPIURL)))

			if extPerEntry {
				outcome, err = updater.ApplyEach(cmd.Context(), report.Outdated)
			} else {
				outcome, err = updater.ApplyBatch(cmd.Context(), report.Outdated)
			}
			if err != nil {
				return err
			}
		}

		if n := len(outcome.Failed); n > 0 {
			return fmt.Errorf("%d of %d update(s) failed", n, len(report.Outdated))
		}
		return nil
	},
}

// dockerfilePath resolves --dockerfile, falling back to the configured path
// under repo.dir.
func dockerfilePath() string {
	if extDockerfile != "" {
		return extDockerfile
	}
	path := config.Get(config.KeyDockerfile)
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(config.Get(config.KeyRepoDir), path)
}

// repoRelative expresses path relative to repo.dir for git add.
func repoRelative(path string) string {
	absRepo, err := filepath.Abs(config.Get(config.KeyRepoDir))
	if err != nil {
		return path
	}
	absPath, err := filepath.Abs(path)
	if err != nil {
		return path
	}
	rel, err := filepath.Rel(absRepo, absPath)
	if err != nil {
		return path
	}
	return rel
}

func checkDockerfile(cmd *cobra.Command, path string) (*extupdate.Report, error) {
	x, err := directive.ExtractFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("dockerfile not found at %s", path)
		}
		return nil, err
	}

	checker, err := newChecker()
	if err != nil {
		return nil, err
	}
	return checker.Check(cmd.Context(), path, x), nil
}

func newChecker() (*extupdate.Checker, error) {
	var common []registry.Option
	if d := config.GetDuration(config.KeyRegistryTimeout); d > 0 {
		common = append(common, registry.WithTimeout(d))
	}
	size := config.GetInt(config.KeyRegistryCacheSize)

	openvsxOpts := append([]registry.Option{registry.WithBaseURL(config.Get(config.KeyOpenVSXURL))}, common...)
	marketplace, err := registry.NewCached(registry.NewOpenVSX(openvsxOpts...), size)
	if err != nil {
		return nil, err
	}

	githubOpts := append([]registry.Option{
		registry.WithBaseURL(config.Get(config.KeyGitHubAPIURL)),
		registry.WithToken(config.GitHubToken()),
	}, common...)
	releases, err := registry.NewCached(registry.NewGitHubReleases(githubOpts...), size)
	if err != nil {
		return nil, err
	}

	return &extupdate.Checker{Marketplace: marketplace, Releases: releases, Semver: extSemver}, nil
}
