package app

import (
	"context"
	"log/slog"
	"os"

	"github.com/google/uuid"

	"bmcprobe/internal/adapters/filesystem"
	"bmcprobe/internal/adapters/ipmitool"
	"bmcprobe/internal/adapters/terminal"
	"bmcprobe/internal/logging"
	"bmcprobe/internal/services/config"
	"bmcprobe/internal/services/poll"
	"bmcprobe/internal/services/sweep"
)

// NewAppWithConfig creates a new App with the given configuration, wiring all dependencies.
func NewAppWithConfig(ctx context.Context, cfg *Config) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	runID := uuid.NewString()

	logger := slog.New(logging.NewHandler(cfg.LogOutput, cfg.LogFormat, cfg.LogLevel)).With("run_id", runID)

	fs := cfg.FileSystem
	if fs == nil {
		fs = filesystem.New()
	}

	redfishServiceFactory := NewRedfishServiceFactory(logger, cfg)
	powerSweeper := sweep.NewOrchestrator(redfishServiceFactory, cfg.SweepWorkers, logger)

	var pollOpts []poll.Option
	if cfg.PollClock != nil {
		pollOpts = append(pollOpts, poll.WithClock(cfg.PollClock))
	}
	poller := poll.New(logger, pollOpts...)

	// Create password reader with environment variable support.
	passwordReader := terminal.NewAdapter(os.Stdin, os.Stderr)

	configProvider := config.NewProvider(fs)
	targetsPath, err := configProvider.GetTargetsPath()
	if err != nil {
		return nil, err
	}
	configRepo, err := config.NewRepository(fs, targetsPath, logger)
	if err != nil {
		return nil, err
	}

	logger.DebugContext(ctx, "Initializing bmcprobe",
		"logLevel", cfg.LogLevel.String(),
		"verbose", cfg.Verbose,
		"targetsPath", targetsPath)

	return &App{
		ConfigRepo:            configRepo,
		ConfigProvider:        configProvider,
		RedfishServiceFactory: redfishServiceFactory,
		PowerSweeper:          powerSweeper,
		Poller:                poller,
		IPMIRunner:            ipmitool.ExecRunner{},
		PasswordReader:        passwordReader,
		Logger:                logger,
		RunID:                 runID,
		Config:                cfg,
	}, nil
}
