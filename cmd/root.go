// Package cmd is the bmcprobe command line.
package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"bmcprobe/internal/app"
	"bmcprobe/internal/logging"
)

const envPrefix = "BMCPROBE"

//nolint:gochecknoglobals // Cobra CLI pattern for persistent flag variables
var (
	cfgFile string

	application *app.App
)

// VersionInfo holds build information.
type VersionInfo struct {
	Version string
	Commit  string
	Date    string
	BuiltBy string
}

//nolint:gochecknoglobals // Package-level version info for CLI commands
var versionInfo = VersionInfo{
	Version: "dev",
	Commit:  "none",
	Date:    "unknown",
	BuiltBy: "unknown",
}

// SetVersionInfo updates the build information.
func SetVersionInfo(v, c, d, b string) {
	versionInfo.Version = v
	versionInfo.Commit = c
	versionInfo.Date = d
	versionInfo.BuiltBy = b
}

// GetVersionInfo returns the current version information.
func GetVersionInfo() VersionInfo {
	return versionInfo
}

// GetApp returns the initialized application instance.
func GetApp() *app.App {
	return application
}

//nolint:gochecknoglobals // Cobra CLI pattern for root command
var rootCmd = &cobra.Command{
	Use:   "bmcprobe",
	Short: "Verify a BMC through its Redfish API",
	Long: `bmcprobe runs verification checks against OpenBMC-style management
controllers: session authentication, system inventory, power control and
sensor readings, cross-checked with ipmitool where available.`,
	SilenceUsage: true,
}

// Execute runs the root command, cancelling on SIGINT or SIGTERM.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}

//nolint:gochecknoinits // Cobra CLI pattern for flag initialization
func init() {
	cobra.OnInitialize(initConfig)

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "config file (default is $HOME/.config/bmcprobe/config.yaml)")
	flags.BoolP("verbose", "v", false, "Enable verbose logging")
	flags.String("log-format", logging.FormatText, "Log format: text or json")
	flags.String("url", "", "BMC base URL, e.g. https://10.0.0.5")
	flags.StringP("target", "t", "", "Saved target ID or URL to use instead of --url")
	flags.String("username", "root", "BMC username")
	flags.String("password", "", "BMC password (prompted when empty)")
	flags.Bool("insecure", false, "Skip TLS certificate verification")
	flags.Duration("timeout", 0, "Condition wait timeout (default depends on the check)")
	flags.Duration("interval", 0, "Condition poll interval (default depends on the check)")
	flags.Duration("http-timeout", 0, "Timeout for a single BMC request")
	flags.Int("retries", 2, "Retries for failed resource reads")

	for _, name := range []string{
		"verbose", "log-format", "url", "target", "username", "password",
		"insecure", "timeout", "interval", "http-timeout", "retries",
	} {
		_ = viper.BindPFlag(name, flags.Lookup(name))
	}
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		cobra.CheckErr(err)

		viper.AddConfigPath(filepath.Join(home, ".config", "bmcprobe"))
		viper.SetConfigType("yaml")
		viper.SetConfigName("config")
	}

	viper.SetEnvPrefix(envPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	// Read config file silently (ignore error if config file doesn't exist)
	_ = viper.ReadInConfig()

	var err error
	application, err = app.NewApp(context.Background(), appOptions()...)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize application: %v\n", err)
		os.Exit(1)
	}
}

// appOptions translates the bound flags into app options.
func appOptions() []app.Option {
	opts := []app.Option{
		app.WithLogFormat(viper.GetString("log-format")),
		app.WithRetries(viper.GetInt("retries")),
	}
	if viper.GetBool("verbose") {
		opts = append(opts, app.WithVerbose(true))
	}
	if timeout := viper.GetDuration("http-timeout"); timeout > 0 {
		opts = append(opts, app.WithHTTPTimeout(timeout))
	}
	return opts
}
