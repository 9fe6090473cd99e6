package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/statcan/zonetool/internal/config"
)

func init() {
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configGetCmd)
	configCmd.AddCommand(configValidateCmd)
	rootCmd.AddCommand(configCmd)
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage settings",
	Long: `Read and write zonetool configuration stored at ~/.zonetool/config.yaml.
Every key can also be set through the environment, e.g. repo.owner as
ZONETOOL_REPO_OWNER.`,
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, value := args[0], args[1]
		if err := config.Set(key, value); err != nil {
			return fmt.Errorf("setting config key %q: %w", key, err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Set %s = %s\n", key, value)
		return nil
	},
}

var configGetCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Get a configuration value",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Fprintln(cmd.OutOrStdout(), config.Get(args[0]))
		return nil
	},
}

var configValidateCmd = &cobra.Command{
	Use:   "validate [file]",
	Short: "Check a config file against the config schema",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := configPath()
		if len(args) == 1 {
			path = args[0]
		}
		return validateConfig(cmd, path)
	},
}

func validateConfig(cmd *cobra.Command, path string) error {
	out := cmd.OutOrStdout()
	result, err := config.ValidateFile(path)
	if err != nil {
		return err
	}
	if result.Valid {
		fmt.Fprintf(out, "%s is valid\n", path)
		return nil
	}

	fmt.Fprintf(out, "%s has %d validation issue(s):\n", path, len(result.Issues))
	for _, issue := range result.Issues {
		fmt.Fprintf(out, "  - %s\n", issue)
	}
	return fmt.Errorf("config %s has %d validation issue(s)", path, len(result.Issues))
}
