package commands

import (
	"context"
	"fmt"
	"log/slog"

	"bmcprobe/internal/domain"
)

// TargetListCommand handles listing configured BMC targets.
type TargetListCommand struct {
	configRepo domain.ConfigRepository
	logger     *slog.Logger
}

// NewTargetListCommand creates a new target list command.
func NewTargetListCommand(configRepo domain.ConfigRepository, logger *slog.Logger) *TargetListCommand {
	return &TargetListCommand{
		configRepo: configRepo,
		logger:     logger,
	}
}

// TargetListResult contains the result of the target list command.
type TargetListResult struct {
	Targets []domain.Target
	Count   int
}

// Execute runs the target list command.
func (c *TargetListCommand) Execute(ctx context.Context) (*TargetListResult, error) {
	c.logger.DebugContext(ctx, "Listing configured targets")

	targets, err := c.configRepo.GetTargets(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get targets: %w", err)
	}

	c.logger.DebugContext(ctx, "Retrieved target list", "count", len(targets))
	return &TargetListResult{
		Targets: targets,
		Count:   len(targets),
	}, nil
}
