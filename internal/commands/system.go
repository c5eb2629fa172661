package commands

import (
	"context"
	"fmt"
	"log/slog"

	"bmcprobe/internal/domain"
	"bmcprobe/internal/errors"
)

// SystemCommand reads the ComputerSystem and checks its basic fields.
type SystemCommand struct {
	factory domain.RedfishServiceFactory
	logger  *slog.Logger
}

// NewSystemCommand creates a new system command.
func NewSystemCommand(factory domain.RedfishServiceFactory, logger *slog.Logger) *SystemCommand {
	return &SystemCommand{
		factory: factory,
		logger:  logger,
	}
}

// SystemRequest contains the parameters for the system command.
type SystemRequest struct {
	CheckRequest
}

// SystemResult contains the system resource that was read.
type SystemResult struct {
	System domain.System
}

// Execute runs the system command. The system must report Status and
// PowerState.
func (c *SystemCommand) Execute(ctx context.Context, req SystemRequest) (*SystemResult, error) {
	var result SystemResult

	err := withSession(ctx, c.factory, c.logger, req.CheckRequest,
		func(ctx context.Context, services domain.RedfishServices, _ domain.Session) error {
			system, err := services.Systems.GetSystem(ctx)
			if err != nil {
				return err
			}
			result.System = system
			return nil
		})
	if err != nil {
		return nil, fmt.Errorf("failed to read system: %w", err)
	}

	if result.System.Status == nil {
		return &result, fmt.Errorf("system %q has no Status: %w", result.System.ID, errors.ErrConditionNotMet)
	}
	if result.System.PowerState == "" {
		return &result, fmt.Errorf("system %q has no PowerState: %w", result.System.ID, errors.ErrConditionNotMet)
	}

	c.logger.InfoContext(ctx, "System check passed",
		"id", result.System.ID,
		"powerState", result.System.PowerState,
		"health", result.System.Status.Health)
	return &result, nil
}
