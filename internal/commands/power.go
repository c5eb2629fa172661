package commands

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"bmcprobe/internal/domain"
	"bmcprobe/internal/errors"
	"bmcprobe/internal/services/poll"
)

// Power check defaults.
const (
	DefaultPowerTimeout  = 30 * time.Second
	DefaultPowerInterval = 3 * time.Second
)

// resetTargets maps each reset type to the power state it should reach.
var resetTargets = map[string]string{
	domain.ResetOn:               domain.PowerStateOn,
	domain.ResetForceRestart:     domain.PowerStateOn,
	domain.ResetGracefulRestart:  domain.PowerStateOn,
	domain.ResetPowerCycle:       domain.PowerStateOn,
	domain.ResetForceOff:         domain.PowerStateOff,
	domain.ResetGracefulShutdown: domain.PowerStateOff,
}

// cyclingResets start and end in the same power state; the check has to see
// the system leave that state before it counts the return.
var cyclingResets = map[string]bool{
	domain.ResetForceRestart:    true,
	domain.ResetGracefulRestart: true,
	domain.ResetPowerCycle:      true,
}

// ExpectedPowerState returns the state a reset type should settle in.
func ExpectedPowerState(resetType string) (string, error) {
	for known, state := range resetTargets {
		if strings.EqualFold(known, resetType) {
			return state, nil
		}
	}
	return "", errors.NewValidationError("resetType", resetType, "enum",
		fmt.Sprintf("unsupported reset type %q", resetType))
}

// canonicalResetType returns the reset type with Redfish casing.
func canonicalResetType(resetType string) string {
	for known := range resetTargets {
		if strings.EqualFold(known, resetType) {
			return known
		}
	}
	return resetType
}

// PowerCommand sends a reset and waits for the system to reach the
// matching power state.
type PowerCommand struct {
	factory domain.RedfishServiceFactory
	poller  *poll.Poller
	logger  *slog.Logger
}

// NewPowerCommand creates a new power command.
func NewPowerCommand(
	factory domain.RedfishServiceFactory,
	poller *poll.Poller,
	logger *slog.Logger,
) *PowerCommand {
	return &PowerCommand{
		factory: factory,
		poller:  poller,
		logger:  logger,
	}
}

// PowerRequest contains the parameters for the power command.
type PowerRequest struct {
	CheckRequest
	ResetType string
	Timeout   time.Duration
	Interval  time.Duration
}

// PowerResult describes how the system settled.
type PowerResult struct {
	ResetType     string
	ExpectedState string
	FinalState    string
	Attempts      int
	Elapsed       time.Duration
}

// Execute runs the power command. Not reaching the expected state in time
// returns ErrConditionNotMet with the last observed state.
func (c *PowerCommand) Execute(ctx context.Context, req PowerRequest) (*PowerResult, error) {
	resetType := req.ResetType
	if resetType == "" {
		resetType = domain.ResetOn
	}
	resetType = canonicalResetType(resetType)

	expected, err := ExpectedPowerState(resetType)
	if err != nil {
		return nil, err
	}

	cfg := poll.Config{Timeout: req.Timeout, Interval: req.Interval}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultPowerTimeout
	}
	if cfg.Interval == 0 {
		cfg.Interval = min(DefaultPowerInterval, cfg.Timeout)
	}
	if validateErr := cfg.Validate(); validateErr != nil {
		return nil, validateErr
	}

	result := &PowerResult{ResetType: resetType, ExpectedState: expected}

	err = withSession(ctx, c.factory, c.logger, req.CheckRequest,
		func(ctx context.Context, services domain.RedfishServices, _ domain.Session) error {
			if resetErr := services.Power.Reset(ctx, resetType); resetErr != nil {
				return resetErr
			}

			c.logger.InfoContext(ctx, "Waiting for power state",
				"expected", expected,
				"timeout", cfg.Timeout,
				"interval", cfg.Interval)

			reached := powerStateReached(expected, cyclingResets[resetType])
			polled, waitErr := poll.WaitFor(ctx, c.poller, services.Systems.GetSystem, reached, cfg)
			result.FinalState = polled.Value.PowerState
			result.Attempts = polled.Attempts
			result.Elapsed = polled.Elapsed
			if waitErr != nil {
				return waitErr
			}

			if !polled.Satisfied && cyclingResets[resetType] && result.FinalState == expected {
				return fmt.Errorf("power state never left %q within %s after %s: %w",
					expected, polled.Elapsed, resetType, errors.ErrConditionNotMet)
			}
			if !polled.Satisfied {
				return fmt.Errorf("power state is %q after %s, want %q: %w",
					result.FinalState, polled.Elapsed, expected, errors.ErrConditionNotMet)
			}
			return nil
		})
	if err != nil {
		return result, fmt.Errorf("power check failed: %w", err)
	}

	c.logger.InfoContext(ctx, "Power check passed",
		"state", result.FinalState,
		"attempts", result.Attempts,
		"elapsed", result.Elapsed)
	return result, nil
}

// powerStateReached reports when the system is in the expected state. With
// cycle set, the expected state only counts after a read showed another one.
func powerStateReached(expected string, cycle bool) func(domain.System) bool {
	left := !cycle
	return func(s domain.System) bool {
		if s.PowerState != expected {
			left = true
			return false
		}
		return left
	}
}
