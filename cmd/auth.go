package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"bmcprobe/internal/commands"
	"bmcprobe/internal/logging"
)

//nolint:gochecknoglobals // Cobra CLI pattern for subcommand
var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Create and release a Redfish session",
	Long:  `Authenticate against the BMC session service and log out again.`,
	Args:  cobra.NoArgs,
	RunE:  runAuth,
}

//nolint:gochecknoinits // Cobra CLI pattern for command registration
func init() {
	rootCmd.AddCommand(authCmd)
}

func runAuth(cmd *cobra.Command, _ []string) error {
	a, err := requireApp()
	if err != nil {
		return err
	}
	ctx := cmd.Context()

	req, err := resolveCheckRequest(ctx, a)
	if err != nil {
		return err
	}

	authCommand := commands.NewAuthCommand(
		a.RedfishServiceFactory,
		logging.WithOperation(a.Logger, "auth", a.RunID),
	)
	result, err := authCommand.Execute(ctx, commands.AuthRequest{CheckRequest: req})
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Authenticated to %s as %s (%s)\n",
		result.BaseURL, req.Credential.Username, result.Elapsed.Round(time.Millisecond))
	return nil
}
