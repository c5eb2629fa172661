package commands

import (
	"context"
	"fmt"
	"log/slog"

	"bmcprobe/internal/domain"
)

// SweepCommand reads the power state of every configured target.
type SweepCommand struct {
	configRepo     domain.ConfigRepository
	passwordReader domain.PasswordReader
	sweeper        domain.PowerSweeper
	logger         *slog.Logger
}

// NewSweepCommand creates a new sweep command.
func NewSweepCommand(
	configRepo domain.ConfigRepository,
	passwordReader domain.PasswordReader,
	sweeper domain.PowerSweeper,
	logger *slog.Logger,
) *SweepCommand {
	return &SweepCommand{
		configRepo:     configRepo,
		passwordReader: passwordReader,
		sweeper:        sweeper,
		logger:         logger,
	}
}

// SweepRequest contains the parameters for the sweep command. A non-empty
// Password is used for every target instead of prompting.
type SweepRequest struct {
	Password        string
	InsecureSkipTLS bool
}

// SweepResult holds one entry per configured target.
type SweepResult struct {
	Results []domain.SweepResult
	Failed  int
}

// Execute runs the sweep command. Per-target failures are reported in the
// result, not returned.
func (c *SweepCommand) Execute(ctx context.Context, req SweepRequest) (*SweepResult, error) {
	targets, err := c.configRepo.GetTargets(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get targets: %w", err)
	}

	if len(targets) == 0 {
		c.logger.InfoContext(ctx, "No targets configured")
		return &SweepResult{}, nil
	}

	credentials, err := c.collectCredentials(ctx, targets, req.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to collect passwords: %w", err)
	}

	results := c.sweeper.SweepTargets(ctx, targets, credentials, req.InsecureSkipTLS)

	result := &SweepResult{Results: results}
	for _, r := range results {
		if r.Err != nil {
			result.Failed++
		}
	}

	c.logger.InfoContext(ctx, "Sweep finished",
		"targets", len(targets),
		"failed", result.Failed)
	return result, nil
}

// collectCredentials prompts for passwords for all targets upfront.
func (c *SweepCommand) collectCredentials(
	ctx context.Context,
	targets []domain.Target,
	password string,
) (map[string]domain.Credential, error) {
	credentials := make(map[string]domain.Credential, len(targets))

	for _, target := range targets {
		secret := password
		if secret == "" {
			var err error
			secret, err = c.passwordReader.ReadPassword(ctx,
				fmt.Sprintf("Password for %s@%s: ", target.Username, target.URL))
			if err != nil {
				return nil, fmt.Errorf("failed to read password for %s: %w", target.URL, err)
			}
		}
		credentials[target.ID()] = domain.Credential{Username: target.Username, Secret: secret}
	}

	return credentials, nil
}
