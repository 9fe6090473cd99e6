package cli

import (
	"fmt"
	"io"
	"os"
	"os/exec"

	"github.com/spf13/cobra"
	"github.com/statcan/zonetool/internal/config"
	"github.com/statcan/zonetool/internal/directive"
)

func init() {
	rootCmd.AddCommand(doctorCmd)
}

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check that the environment can run every zonetool command",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		failed := 0

		fmt.Fprintln(out, "Config check:")
		if err := config.Load(configFile); err != nil {
			fmt.Fprintf(out, "  [FAIL] %v\n", err)
			failed++
		} else if _, err := os.Stat(config.LoadedFile()); err != nil {
			fmt.Fprintf(out, "  [INFO] no config file at %s, using defaults\n", config.LoadedFile())
		} else if result, err := config.ValidateFile(config.LoadedFile()); err != nil || !result.Valid {
			fmt.Fprintf(out, "  [FAIL] %s is invalid (run `zonetool config validate`)\n", config.LoadedFile())
			failed++
		} else {
			fmt.Fprintf(out, "  [ OK ] %s is valid\n", config.LoadedFile())
		}

		fmt.Fprintln(out, "Runtime check:")
		checkBinary(out, "git")
		checkBinary(out, "kubectl")

		fmt.Fprintln(out, "Extensions check:")
		path := dockerfilePath()
		if x, err := directive.ExtractFile(path); err != nil {
			fmt.Fprintf(out, "  [FAIL] %v\n", err)
			failed++
		} else {
			fmt.Fprintf(out, "  [ OK ] %s: %d marketplace, %d standalone, %d hosted\n",
				path, len(x.Marketplace), len(x.Standalone), len(x.Hosted))
		}
		if config.GitHubToken() == "" {
			fmt.Fprintln(out, "  [WARN] GITHUB_TOKEN not set: pull requests disabled and GitHub rate limits apply")
		} else {
			fmt.Fprintln(out, "  [ OK ] GitHub token configured")
		}

		fmt.Fprintln(out, "Notebook check:")
		for _, name := range []string{"NB_PREFIX", "NB_NAMESPACE"} {
			if os.Getenv(name) == "" {
				fmt.Fprintf(out, "  [WARN] %s not set: `zonetool resources` needs it\n", name)
			} else {
				fmt.Fprintf(out, "  [ OK ] %s set\n", name)
			}
		}
		root := config.Get(config.KeyCheckpointRoot)
		if info, err := os.Stat(root); err != nil || !info.IsDir() {
			fmt.Fprintf(out, "  [WARN] checkpoint root %s does not exist\n", root)
		} else {
			fmt.Fprintf(out, "  [ OK ] checkpoint root %s\n", root)
		}

		if failed > 0 {
			return fmt.Errorf("%d check(s) failed", failed)
		}
		return nil
	},
}

func checkBinary(out io.Writer, name string) {
	path, err := exec.LookPath(name)
	if err != nil {
		fmt.Fprintf(out, "  [MISS] %s not found\n", name)
		return
	}
	fmt.Fprintf(out, "  [ OK ] %s found at %s\n", name, path)
}
