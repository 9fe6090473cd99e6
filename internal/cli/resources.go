package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
	"github.com/statcan/zonetool/internal/config"
	"github.com/statcan/zonetool/internal/resources"
)

var resourcesDryRun bool

func init() {
	resourcesCmd.Flags().BoolVar(&resourcesDryRun, "dry-run", false, "Print the kubectl command without running it")
	rootCmd.AddCommand(resourcesCmd)
}

var resourcesCmd = &cobra.Command{
	Use:   "resources <cpu_request> <ram_request> [cpu_limit] [ram_limit]",
	Short: "Patch the CPU and RAM of the current notebook server",
	Long: `Patch the resources of the notebook server this command runs in. CPU is given
in cores, RAM in GiB. Limits default to the requested amounts.

The notebook is identified by $NB_PREFIX and $NB_NAMESPACE.`,
	Example: "  zonetool resources 1 4\n  zonetool resources 0.5 2 2 8",
	Args:    cobra.RangeArgs(2, 4),
	RunE: func(cmd *cobra.Command, args []string) error {
		req, err := parseResourceArgs(args)
		if err != nil {
			return err
		}
		req.CPUBounds = resources.Bounds{
			Min: config.GetFloat(config.KeyCPUMin),
			Max: config.GetFloat(config.KeyCPUMax),
		}
		req.RAMBounds = resources.Bounds{
			Min: config.GetFloat(config.KeyRAMMin),
			Max: config.GetFloat(config.KeyRAMMax),
		}

		code, err := resources.Adjust(cmd.Context(), req, resources.ShellRunner{}, cmd.OutOrStdout(), resourcesDryRun)
		if err != nil {
			return err
		}
		if code != 0 {
			return fmt.Errorf("kubectl exited with status %d", code)
		}
		return nil
	},
}

// parseResourceArgs reads cpu_request ram_request [cpu_limit] [ram_limit].
func parseResourceArgs(args []string) (resources.Request, error) {
	names := []string{"cpu_request", "ram_request", "cpu_limit", "ram_limit"}
	values := make([]float64, len(args))
	for i, arg := range args {
		v, err := strconv.ParseFloat(arg, 64)
		if err != nil {
			return resources.Request{}, fmt.Errorf("invalid %s %q: must be a number", names[i], arg)
		}
		values[i] = v
	}

	req := resources.Request{CPURequest: values[0], RAMRequest: values[1]}
	if len(values) > 2 {
		req.CPULimit = &values[2]
	}
	if len(values) > 3 {
		req.RAMLimit = &values[3]
	}
	return req, nil
}
