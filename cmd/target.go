package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"bmcprobe/internal/commands"
)

//nolint:gochecknoglobals // Cobra CLI pattern for subcommand
var targetCmd = &cobra.Command{
	Use:   "target",
	Short: "Manage saved BMC targets",
	Long:  `Add, list and remove the BMC targets stored in $HOME/.config/bmcprobe/targets.yaml.`,
}

//nolint:gochecknoglobals // Cobra CLI pattern for subcommand
var targetAddCmd = &cobra.Command{
	Use:   "add <url>",
	Short: "Save a BMC target",
	Args:  cobra.ExactArgs(1),
	RunE:  runTargetAdd,
}

//nolint:gochecknoglobals // Cobra CLI pattern for subcommand
var targetListCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved BMC targets",
	Args:  cobra.NoArgs,
	RunE:  runTargetList,
}

//nolint:gochecknoglobals // Cobra CLI pattern for subcommand
var targetRemoveCmd = &cobra.Command{
	Use:   "remove <id|url>",
	Short: "Remove a saved BMC target",
	Args:  cobra.ExactArgs(1),
	RunE:  runTargetRemove,
}

//nolint:gochecknoinits // Cobra CLI pattern for command registration
func init() {
	rootCmd.AddCommand(targetCmd)
	targetCmd.AddCommand(targetAddCmd, targetListCmd, targetRemoveCmd)

	targetAddCmd.Flags().String("system-id", "", "ComputerSystem member id (default \"system\")")
	targetAddCmd.Flags().String("chassis-id", "", "Chassis member id (default \"chassis\")")
}

func runTargetAdd(cmd *cobra.Command, args []string) error {
	a, err := requireApp()
	if err != nil {
		return err
	}

	username := viper.GetString("username")
	systemID, _ := cmd.Flags().GetString("system-id")
	chassisID, _ := cmd.Flags().GetString("chassis-id")

	addCommand := commands.NewTargetAddCommand(a.ConfigRepo, a.Logger)
	target, err := addCommand.Execute(cmd.Context(), commands.TargetAddRequest{
		URL:       args[0],
		Username:  username,
		SystemID:  systemID,
		ChassisID: chassisID,
	})
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Added target %s (ID: %s)\n", target.URL, target.ID())
	return nil
}

func runTargetList(cmd *cobra.Command, _ []string) error {
	a, err := requireApp()
	if err != nil {
		return err
	}

	listCommand := commands.NewTargetListCommand(a.ConfigRepo, a.Logger)
	result, err := listCommand.Execute(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to list targets: %w", err)
	}

	if result.Count == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No targets configured. Use 'bmcprobe target add' to add one.")
		return nil
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Configured targets (%d):\n\n", result.Count)
	for i, target := range result.Targets {
		fmt.Fprintf(cmd.OutOrStdout(), "%d. %s\n", i+1, target.URL)
		fmt.Fprintf(cmd.OutOrStdout(), "   ID: %s\n", target.ID())
		fmt.Fprintf(cmd.OutOrStdout(), "   Username: %s\n", target.Username)
		fmt.Fprintf(cmd.OutOrStdout(), "   System: %s  Chassis: %s\n", target.System(), target.Chassis())
		if i < len(result.Targets)-1 {
			fmt.Fprintln(cmd.OutOrStdout())
		}
	}
	return nil
}

func runTargetRemove(cmd *cobra.Command, args []string) error {
	a, err := requireApp()
	if err != nil {
		return err
	}
	if args[0] == "" {
		return errors.New("a target ID or URL must be specified")
	}

	removeCommand := commands.NewTargetRemoveCommand(a.ConfigRepo, a.Logger)
	if err := removeCommand.Execute(cmd.Context(), commands.TargetRemoveRequest{Ref: args[0]}); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Removed target %s\n", args[0])
	return nil
}
