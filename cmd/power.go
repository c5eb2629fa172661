package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"bmcprobe/internal/commands"
	"bmcprobe/internal/domain"
	"bmcprobe/internal/logging"
)

//nolint:gochecknoglobals // Cobra CLI pattern for subcommand
var powerCmd = &cobra.Command{
	Use:   "power [on|off|<reset-type>]",
	Short: "Reset the system and wait for the resulting power state",
	Long: `Send ComputerSystem.Reset and poll PowerState until it matches.

"on" sends On and "off" sends ForceOff. Any Redfish reset type
(GracefulShutdown, ForceRestart, GracefulRestart, PowerCycle) may be
given directly. Defaults to on.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runPower,
}

//nolint:gochecknoinits // Cobra CLI pattern for command registration
func init() {
	rootCmd.AddCommand(powerCmd)
}

// resetTypeArg maps the power argument onto a Redfish reset type.
func resetTypeArg(args []string) string {
	if len(args) == 0 {
		return domain.ResetOn
	}
	switch strings.ToLower(args[0]) {
	case "on":
		return domain.ResetOn
	case "off":
		return domain.ResetForceOff
	default:
		return args[0]
	}
}

func runPower(cmd *cobra.Command, args []string) error {
	a, err := requireApp()
	if err != nil {
		return err
	}
	ctx := cmd.Context()

	resetType := resetTypeArg(args)
	if _, err := commands.ExpectedPowerState(resetType); err != nil {
		return err
	}

	req, err := resolveCheckRequest(ctx, a)
	if err != nil {
		return err
	}

	powerCommand := commands.NewPowerCommand(
		a.RedfishServiceFactory,
		a.Poller,
		logging.WithOperation(a.Logger, "power", a.RunID),
	)
	result, err := powerCommand.Execute(ctx, commands.PowerRequest{
		CheckRequest: req,
		ResetType:    resetType,
		Timeout:      viper.GetDuration("timeout"),
		Interval:     viper.GetDuration("interval"),
	})
	if result != nil && result.Attempts > 0 {
		fmt.Fprintf(cmd.OutOrStdout(), "%s: power state %s after %d reads (%s), expected %s\n",
			result.ResetType, result.FinalState, result.Attempts, result.Elapsed.Round(time.Millisecond), result.ExpectedState)
	}
	return err
}
