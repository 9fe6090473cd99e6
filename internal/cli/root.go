package cli

import (
	"github.com/spf13/cobra"
	"github.com/statcan/zonetool/internal/branding"
	"github.com/statcan/zonetool/internal/config"
)

var (
	buildVersion string
	buildCommit  string
	buildDate    string

	configFile string
)

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "Config file (default ~/"+branding.HomeDir()+"/config.yaml)")
}

var rootCmd = &cobra.Command{
	Use:   branding.CLIName(),
	Short: branding.Description(),
	Long: branding.DisplayName() + ` maintains the zone container images: it keeps the VS Code
extensions pinned in the Dockerfile current, patches notebook server resources,
and manages centralized notebook checkpoints.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// These must work even when the config file is broken.
		switch cmd.Name() {
		case "version", "validate", "doctor":
			return nil
		}
		return config.Load(configFile)
	},
}

// configPath is the file named by --config, or the default location.
func configPath() string {
	if configFile != "" {
		return configFile
	}
	return config.FilePath()
}

// Execute runs the root command with build info injected via ldflags.
func Execute(version, commit, date string) error {
	buildVersion = version
	buildCommit = commit
	buildDate = date
	return rootCmd.Execute()
}
