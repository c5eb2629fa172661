// Package app wires bmcprobe's dependencies.
package app

import (
	"context"
	"io"
	"log/slog"
	"strconv"
	"time"

	"bmcprobe/internal/adapters/filesystem"
	"bmcprobe/internal/adapters/ipmitool"
	"bmcprobe/internal/domain"
	"bmcprobe/internal/errors"
	"bmcprobe/internal/logging"
	"bmcprobe/internal/services/poll"
)

// App contains all application dependencies.
type App struct {
	// Core configuration dependencies (always needed)
	ConfigRepo     domain.ConfigRepository
	ConfigProvider domain.ConfigProvider

	// Factories for creating services on-demand
	RedfishServiceFactory domain.RedfishServiceFactory
	PowerSweeper          domain.PowerSweeper

	// Polling and out-of-band reads
	Poller     *poll.Poller
	IPMIRunner ipmitool.Runner

	// I/O dependencies
	PasswordReader domain.PasswordReader

	// Logging
	Logger *slog.Logger
	RunID  string

	// Configuration
	Config *Config
}

// Config holds application configuration.
type Config struct {
	LogLevel  slog.Level
	LogFormat string
	LogOutput io.Writer
	Verbose   bool

	HTTPTimeout       time.Duration
	Retries           int
	RequestsPerSecond float64
	SweepWorkers      int

	// FileSystem defaults to the OS filesystem.
	FileSystem *filesystem.Adapter
	// PollClock defaults to the wall clock.
	PollClock poll.Clock
}

// Option is a functional option for configuring the App.
type Option func(*Config)

// WithLogLevel sets the logging level.
func WithLogLevel(level slog.Level) Option {
	return func(cfg *Config) {
		cfg.LogLevel = level
	}
}

// WithVerbose enables verbose logging.
func WithVerbose(verbose bool) Option {
	return func(cfg *Config) {
		cfg.Verbose = verbose
		if verbose {
			cfg.LogLevel = slog.LevelDebug
		}
	}
}

// WithLogFormat selects the text or json log handler.
func WithLogFormat(format string) Option {
	return func(cfg *Config) {
		cfg.LogFormat = format
	}
}

// WithLogOutput redirects log output.
func WithLogOutput(w io.Writer) Option {
	return func(cfg *Config) {
		cfg.LogOutput = w
	}
}

// WithHTTPTimeout sets the per-request timeout.
func WithHTTPTimeout(timeout time.Duration) Option {
	return func(cfg *Config) {
		cfg.HTTPTimeout = timeout
	}
}

// WithRetries sets how often resource reads are retried.
func WithRetries(retries int) Option {
	return func(cfg *Config) {
		cfg.Retries = retries
	}
}

// WithRateLimit sets the per-target request rate.
func WithRateLimit(requestsPerSecond float64) Option {
	return func(cfg *Config) {
		cfg.RequestsPerSecond = requestsPerSecond
	}
}

// WithSweepWorkers bounds how many targets a sweep queries at once.
func WithSweepWorkers(workers int) Option {
	return func(cfg *Config) {
		cfg.SweepWorkers = workers
	}
}

// WithFileSystem replaces the OS filesystem.
func WithFileSystem(fs *filesystem.Adapter) Option {
	return func(cfg *Config) {
		cfg.FileSystem = fs
	}
}

// WithPollClock replaces the clock used by the poller.
func WithPollClock(clock poll.Clock) Option {
	return func(cfg *Config) {
		cfg.PollClock = clock
	}
}

// NewApp creates a new App with the given options.
func NewApp(ctx context.Context, opts ...Option) (*App, error) {
	cfg := &Config{
		LogLevel:  slog.LevelInfo,
		LogFormat: logging.FormatText,
		Verbose:   false,
		Retries:   defaultRetryCount,
	}

	// Apply options.
	for _, opt := range opts {
		opt(cfg)
	}

	return NewAppWithConfig(ctx, cfg)
}

// Validate rejects settings no component can work with.
func (c *Config) Validate() error {
	if c.LogFormat != "" && c.LogFormat != logging.FormatText && c.LogFormat != logging.FormatJSON {
		return errors.NewConfigurationError("log-format", c.LogFormat, "must be text or json", nil)
	}
	if c.Retries < 0 {
		return errors.NewConfigurationError("retries", strconv.Itoa(c.Retries), "must not be negative", nil)
	}
	if c.HTTPTimeout < 0 {
		return errors.NewConfigurationError("http-timeout", c.HTTPTimeout.String(), "must not be negative", nil)
	}
	if c.SweepWorkers < 0 {
		return errors.NewConfigurationError("sweep-workers", strconv.Itoa(c.SweepWorkers), "must not be negative", nil)
	}
	return nil
}
