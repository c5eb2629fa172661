package cmd

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"bmcprobe/internal/commands"
	"bmcprobe/internal/logging"
)

//nolint:gochecknoglobals // Cobra CLI pattern for subcommand
var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Read the power state of every saved target",
	Long: `Query every target in the targets file concurrently. Passwords are
collected up front; --password (or BMCPROBE_PASSWORD) is used for all targets.`,
	Args: cobra.NoArgs,
	RunE: runSweep,
}

//nolint:gochecknoinits // Cobra CLI pattern for command registration
func init() {
	rootCmd.AddCommand(sweepCmd)
}

func runSweep(cmd *cobra.Command, _ []string) error {
	a, err := requireApp()
	if err != nil {
		return err
	}

	sweepCommand := commands.NewSweepCommand(
		a.ConfigRepo,
		a.PasswordReader,
		a.PowerSweeper,
		logging.WithOperation(a.Logger, "sweep", a.RunID),
	)
	result, err := sweepCommand.Execute(cmd.Context(), commands.SweepRequest{
		Password:        viper.GetString("password"),
		InsecureSkipTLS: viper.GetBool("insecure"),
	})
	if err != nil {
		return err
	}

	if len(result.Results) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No targets configured. Use 'bmcprobe target add' to add one.")
		return nil
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "TARGET\tPOWER\tHEALTH\tTIME\tERROR")
	for _, r := range result.Results {
		errText := ""
		if r.Err != nil {
			errText = r.Err.Error()
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			r.Target.URL, r.PowerState, r.Health, r.Duration.Round(time.Millisecond), errText)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	if result.Failed > 0 {
		return fmt.Errorf("%d of %d targets failed", result.Failed, len(result.Results))
	}
	return nil
}
