package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"bmcprobe/internal/commands"
	"bmcprobe/internal/logging"
)

//nolint:gochecknoglobals // Cobra CLI pattern for subcommand
var systemCmd = &cobra.Command{
	Use:   "system",
	Short: "Show the ComputerSystem power state and health",
	Long:  `Read the Redfish ComputerSystem and check that it reports Status and PowerState.`,
	Args:  cobra.NoArgs,
	RunE:  runSystem,
}

//nolint:gochecknoinits // Cobra CLI pattern for command registration
func init() {
	rootCmd.AddCommand(systemCmd)
}

func runSystem(cmd *cobra.Command, _ []string) error {
	a, err := requireApp()
	if err != nil {
		return err
	}
	ctx := cmd.Context()

	req, err := resolveCheckRequest(ctx, a)
	if err != nil {
		return err
	}

	systemCommand := commands.NewSystemCommand(
		a.RedfishServiceFactory,
		logging.WithOperation(a.Logger, "system", a.RunID),
	)
	result, err := systemCommand.Execute(ctx, commands.SystemRequest{CheckRequest: req})
	if result != nil {
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "System:      %s\n", result.System.ID)
		fmt.Fprintf(out, "Power state: %s\n", result.System.PowerState)
		if status := result.System.Status; status != nil {
			fmt.Fprintf(out, "State:       %s\n", status.State)
			fmt.Fprintf(out, "Health:      %s\n", status.Health)
		}
	}
	return err
}
