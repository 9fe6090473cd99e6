package cli

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/statcan/zonetool/internal/checkpoints"
	"github.com/statcan/zonetool/internal/config"
)

var (
	checkpointID   string
	checkpointJSON bool
)

func init() {
	checkpointsRestoreCmd.Flags().StringVar(&checkpointID, "id", checkpoints.DefaultID, "Checkpoint to restore")
	checkpointsDeleteCmd.Flags().StringVar(&checkpointID, "id", checkpoints.DefaultID, "Checkpoint to delete")
	checkpointsListCmd.Flags().BoolVar(&checkpointJSON, "json", false, "Print checkpoints as JSON")

	checkpointsCmd.AddCommand(checkpointsPathCmd)
	checkpointsCmd.AddCommand(checkpointsCreateCmd)
	checkpointsCmd.AddCommand(checkpointsListCmd)
	checkpointsCmd.AddCommand(checkpointsRestoreCmd)
	checkpointsCmd.AddCommand(checkpointsDeleteCmd)
	rootCmd.AddCommand(checkpointsCmd)
}

var checkpointsCmd = &cobra.Command{
	Use:   "checkpoints",
	Short: "Manage notebook checkpoints kept in the central checkpoint directory",
	Long: `Notebook checkpoints are stored under checkpoints.root instead of next to
each notebook. Paths are given relative to checkpoints.content_root.`,
}

func centralized() *checkpoints.Centralized {
	return &checkpoints.Centralized{
		Root:        config.Get(config.KeyCheckpointRoot),
		ContentRoot: config.Get(config.KeyCheckpointContent),
		Fanout:      config.GetInt(config.KeyCheckpointFanout),
		Store:       checkpoints.DirStore{},
	}
}

var checkpointsPathCmd = &cobra.Command{
	Use:   "path <notebook>",
	Short: "Print the checkpoint directory of a notebook",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Fprintln(cmd.OutOrStdout(), centralized().Dir(args[0]))
		return nil
	},
}

var checkpointsCreateCmd = &cobra.Command{
	Use:   "create <notebook>",
	Short: "Checkpoint a notebook",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cp, err := centralized().Create(args[0])
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Created checkpoint %s of %s at %s\n", cp.ID, args[0], cp.LastModified.Format(time.RFC3339))
		return nil
	},
}

var checkpointsListCmd = &cobra.Command{
	Use:   "list <notebook>",
	Short: "List the checkpoints of a notebook",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		list, err := centralized().List(args[0])
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if checkpointJSON {
			if list == nil {
				list = []checkpoints.Checkpoint{}
			}
			data, err := json.MarshalIndent(list, "", "  ")
			if err != nil {
				return fmt.Errorf("marshaling checkpoints: %w", err)
			}
			fmt.Fprintln(out, string(data))
			return nil
		}

		if len(list) == 0 {
			fmt.Fprintf(out, "No checkpoints for %s\n", args[0])
			return nil
		}
		for _, cp := range list {
			fmt.Fprintf(out, "%s\t%s\n", cp.ID, cp.LastModified.Format(time.RFC3339))
		}
		return nil
	},
}

var checkpointsRestoreCmd = &cobra.Command{
	Use:   "restore <notebook>",
	Short: "Restore a notebook from a checkpoint",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := centralized().Restore(checkpointID, args[0]); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Restored %s from checkpoint %s\n", args[0], checkpointID)
		return nil
	},
}

var checkpointsDeleteCmd = &cobra.Command{
	Use:   "delete <notebook>",
	Short: "Delete a notebook checkpoint",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := centralized().Delete(checkpointID, args[0]); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Deleted checkpoint %s of %s\n", checkpointID, args[0])
		return nil
	},
}
