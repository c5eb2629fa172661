package commands

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"bmcprobe/internal/domain"
	"bmcprobe/internal/errors"
)

// AuthCommand checks that a session can be created on the BMC.
type AuthCommand struct {
	factory domain.RedfishServiceFactory
	logger  *slog.Logger
}

// NewAuthCommand creates a new auth command.
func NewAuthCommand(factory domain.RedfishServiceFactory, logger *slog.Logger) *AuthCommand {
	return &AuthCommand{
		factory: factory,
		logger:  logger,
	}
}

// AuthRequest contains the parameters for the auth command.
type AuthRequest struct {
	CheckRequest
}

// AuthResult describes the session that was created and released.
type AuthResult struct {
	BaseURL  string
	Location string
	Elapsed  time.Duration
}

// Execute runs the auth command.
func (c *AuthCommand) Execute(ctx context.Context, req AuthRequest) (*AuthResult, error) {
	started := time.Now()
	result := &AuthResult{BaseURL: req.Target.BaseURL()}

	c.logger.InfoContext(ctx, "Checking authentication", "username", req.Credential.Username)

	err := withSession(ctx, c.factory, c.logger, req.CheckRequest,
		func(_ context.Context, services domain.RedfishServices, sess domain.Session) error {
			token, err := services.Sessions.CurrentToken()
			if err != nil {
				return err
			}
			if token == "" || sess.Token == "" {
				return fmt.Errorf("session has an empty token: %w", errors.ErrConditionNotMet)
			}
			result.Location = sess.Location
			return nil
		})
	if err != nil {
		return nil, fmt.Errorf("authentication check failed: %w", err)
	}

	result.Elapsed = time.Since(started)
	c.logger.InfoContext(ctx, "Authentication check passed", "elapsed", result.Elapsed)
	return result, nil
}
