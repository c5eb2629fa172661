package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"bmcprobe/internal/domain"
)

// TargetRemoveCommand handles removing BMC targets from the targets file.
type TargetRemoveCommand struct {
	configRepo domain.ConfigRepository
	logger     *slog.Logger
}

// NewTargetRemoveCommand creates a new target remove command.
func NewTargetRemoveCommand(configRepo domain.ConfigRepository, logger *slog.Logger) *TargetRemoveCommand {
	return &TargetRemoveCommand{
		configRepo: configRepo,
		logger:     logger,
	}
}

// TargetRemoveRequest identifies the target by ID or URL.
type TargetRemoveRequest struct {
	Ref string
}

// Execute runs the target remove command.
func (c *TargetRemoveCommand) Execute(ctx context.Context, req TargetRemoveRequest) error {
	if req.Ref == "" {
		return errors.New("a target ID or URL must be specified")
	}

	c.logger.InfoContext(ctx, "Removing target", "ref", req.Ref)

	if err := c.configRepo.RemoveTarget(ctx, req.Ref); err != nil {
		return fmt.Errorf("failed to remove target: %w", err)
	}

	c.logger.InfoContext(ctx, "Successfully removed target", "ref", req.Ref)
	return nil
}
