package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"bmcprobe/internal/adapters/ipmitool"
	"bmcprobe/internal/commands"
	"bmcprobe/internal/logging"
)

//nolint:gochecknoglobals // Cobra CLI pattern for subcommand
var sensorsCmd = &cobra.Command{
	Use:   "sensors",
	Short: "Check chassis sensors",
}

//nolint:gochecknoglobals // Cobra CLI pattern for subcommand
var sensorsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List chassis sensors and their readings",
	Args:  cobra.NoArgs,
	RunE:  runSensorsList,
}

//nolint:gochecknoglobals // Cobra CLI pattern for subcommand
var temperatureCmd = &cobra.Command{
	Use:   "temperature",
	Short: "Check that the CPU temperature is within range",
	Long: `Find the CPU temperature sensor and check its reading is within
[--min, --max]. A BMC without such a sensor passes.`,
	Args: cobra.NoArgs,
	RunE: runTemperature,
}

//nolint:gochecknoglobals // Cobra CLI pattern for subcommand
var alignCmd = &cobra.Command{
	Use:   "align",
	Short: "Compare the Redfish CPU temperature with ipmitool",
	Long: `Read the CPU temperature through ipmitool and sample the Redfish
sensor until both agree within --tolerance or the timeout elapses.`,
	Args: cobra.NoArgs,
	RunE: runAlign,
}

//nolint:gochecknoinits // Cobra CLI pattern for command registration
func init() {
	rootCmd.AddCommand(sensorsCmd)
	sensorsCmd.AddCommand(sensorsListCmd, temperatureCmd, alignCmd)

	sensorsCmd.PersistentFlags().StringSlice("match", nil, "Sensor name regex (repeatable); defaults depend on the check")

	temperatureCmd.Flags().Float64("min", commands.DefaultMinTemperature, "Lowest acceptable reading (°C)")
	temperatureCmd.Flags().Float64("max", commands.DefaultMaxTemperature, "Highest acceptable reading (°C)")

	alignCmd.Flags().Float64("tolerance", commands.DefaultTolerance, "Largest acceptable difference (°C)")
	alignCmd.Flags().String("ipmi-sensor", ipmitool.DefaultSensorName, "ipmitool sensor name")
	alignCmd.Flags().String("ipmi-host", "", "Read the sensor remotely over lanplus from this host")
	alignCmd.Flags().String("ipmi-username", "", "lanplus username (defaults to --username)")
	alignCmd.Flags().String("ipmi-password", "", "lanplus password (defaults to the BMC password)")
}

func runSensorsList(cmd *cobra.Command, _ []string) error {
	a, err := requireApp()
	if err != nil {
		return err
	}
	ctx := cmd.Context()

	req, err := resolveCheckRequest(ctx, a)
	if err != nil {
		return err
	}
	patterns, _ := cmd.Flags().GetStringSlice("match")

	listCommand := commands.NewSensorListCommand(
		a.RedfishServiceFactory,
		logging.WithOperation(a.Logger, "sensors-list", a.RunID),
	)
	sensors, err := listCommand.Execute(ctx, commands.SensorListRequest{CheckRequest: req, Patterns: patterns})
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tREADING\tUNITS")
	for _, sensor := range sensors {
		reading := "n/a"
		if value, ok := sensor.Value(); ok {
			reading = fmt.Sprintf("%.2f", value)
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", sensor.ID, sensor.Name, reading, sensor.ReadingUnits)
	}
	return w.Flush()
}

func runTemperature(cmd *cobra.Command, _ []string) error {
	a, err := requireApp()
	if err != nil {
		return err
	}
	ctx := cmd.Context()

	req, err := resolveCheckRequest(ctx, a)
	if err != nil {
		return err
	}
	patterns, _ := cmd.Flags().GetStringSlice("match")
	minTemp, _ := cmd.Flags().GetFloat64("min")
	maxTemp, _ := cmd.Flags().GetFloat64("max")

	temperatureCommand := commands.NewTemperatureCommand(
		a.RedfishServiceFactory,
		logging.WithOperation(a.Logger, "temperature", a.RunID),
	)
	result, err := temperatureCommand.Execute(ctx, commands.TemperatureRequest{
		CheckRequest: req,
		Patterns:     patterns,
		Min:          minTemp,
		Max:          maxTemp,
	})
	if result != nil {
		if result.Found {
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %.1f°C (range %.1f-%.1f)\n",
				result.Sensor.Name, result.Reading, result.Min, result.Max)
		} else {
			fmt.Fprintln(cmd.OutOrStdout(), "CPU temperature sensor not found; check skipped")
		}
	}
	return err
}

func runAlign(cmd *cobra.Command, _ []string) error {
	a, err := requireApp()
	if err != nil {
		return err
	}
	ctx := cmd.Context()

	req, err := resolveCheckRequest(ctx, a)
	if err != nil {
		return err
	}
	patterns, _ := cmd.Flags().GetStringSlice("match")
	tolerance, _ := cmd.Flags().GetFloat64("tolerance")
	ipmiSensor, _ := cmd.Flags().GetString("ipmi-sensor")

	remote := ipmitool.Remote{}
	if host, _ := cmd.Flags().GetString("ipmi-host"); host != "" {
		remote.Host = host
		remote.Username, _ = cmd.Flags().GetString("ipmi-username")
		if remote.Username == "" {
			remote.Username = req.Credential.Username
		}
		remote.Password, _ = cmd.Flags().GetString("ipmi-password")
		if remote.Password == "" {
			remote.Password = req.Credential.Secret
		}
	}

	logger := logging.WithOperation(a.Logger, "align", a.RunID)
	reader := ipmitool.NewReader(a.IPMIRunner, ipmitool.Options{Remote: remote}, logger)

	alignCommand := commands.NewAlignCommand(a.RedfishServiceFactory, a.Poller, reader, logger)
	result, err := alignCommand.Execute(ctx, commands.AlignRequest{
		CheckRequest: req,
		Patterns:     patterns,
		IPMISensor:   ipmiSensor,
		Tolerance:    tolerance,
		Timeout:      viper.GetDuration("timeout"),
		Interval:     viper.GetDuration("interval"),
	})
	if result != nil {
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Redfish: %s\n", formatReading(result.Redfish, result.RedfishFound))
		fmt.Fprintf(out, "IPMI:    %s\n", formatReading(result.OutOfBand, result.OutOfBandFound))
		if result.RedfishFound && result.OutOfBandFound {
			fmt.Fprintf(out, "Diff:    %.1f°C (tolerance %.1f)\n", result.Difference, tolerance)
		}
	}
	return err
}

func formatReading(value float64, found bool) string {
	if !found {
		return "not found"
	}
	return fmt.Sprintf("%.1f°C", value)
}
