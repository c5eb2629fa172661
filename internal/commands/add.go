package commands

import (
	"context"
	"fmt"
	"log/slog"

	"bmcprobe/internal/domain"
)

// TargetAddCommand handles adding BMC targets to the targets file.
type TargetAddCommand struct {
	configRepo domain.ConfigRepository
	logger     *slog.Logger
}

// NewTargetAddCommand creates a new target add command.
func NewTargetAddCommand(configRepo domain.ConfigRepository, logger *slog.Logger) *TargetAddCommand {
	return &TargetAddCommand{
		configRepo: configRepo,
		logger:     logger,
	}
}

// TargetAddRequest contains the parameters for the target add command.
type TargetAddRequest struct {
	URL       string
	Username  string
	SystemID  string
	ChassisID string
}

// Execute runs the target add command.
func (c *TargetAddCommand) Execute(ctx context.Context, req TargetAddRequest) (domain.Target, error) {
	target := domain.Target{
		URL:       req.URL,
		Username:  req.Username,
		SystemID:  req.SystemID,
		ChassisID: req.ChassisID,
	}

	c.logger.InfoContext(ctx, "Adding new target",
		"id", target.ID(),
		"url", req.URL,
		"username", req.Username)

	if err := c.configRepo.AddTarget(ctx, target); err != nil {
		return domain.Target{}, fmt.Errorf("failed to add target: %w", err)
	}

	added, err := c.configRepo.FindTarget(ctx, target.ID())
	if err != nil {
		return domain.Target{}, fmt.Errorf("failed to read back target: %w", err)
	}

	c.logger.InfoContext(ctx, "Successfully added target", "id", added.ID(), "url", added.URL)
	return added, nil
}
