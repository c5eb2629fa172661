package commands

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"bmcprobe/internal/adapters/ipmitool"
	"bmcprobe/internal/domain"
	"bmcprobe/internal/errors"
	"bmcprobe/internal/services/poll"
)

// Alignment check defaults.
const (
	DefaultTolerance     = 5.0
	DefaultAlignTimeout  = 15 * time.Second
	DefaultAlignInterval = 3 * time.Second
)

// AlignCommand compares the Redfish CPU temperature with the out-of-band
// reading.
type AlignCommand struct {
	factory   domain.RedfishServiceFactory
	poller    *poll.Poller
	outOfBand domain.OutOfBandReader
	logger    *slog.Logger
}

// NewAlignCommand creates a new align command.
func NewAlignCommand(
	factory domain.RedfishServiceFactory,
	poller *poll.Poller,
	outOfBand domain.OutOfBandReader,
	logger *slog.Logger,
) *AlignCommand {
	return &AlignCommand{
		factory:   factory,
		poller:    poller,
		outOfBand: outOfBand,
		logger:    logger,
	}
}

// AlignRequest contains the parameters for the align command.
type AlignRequest struct {
	CheckRequest
	Patterns   []string
	IPMISensor string
	Tolerance  float64
	Timeout    time.Duration
	Interval   time.Duration
}

// AlignResult holds both readings and how they compared.
type AlignResult struct {
	Redfish        float64
	RedfishFound   bool
	OutOfBand      float64
	OutOfBandFound bool
	Difference     float64
	Attempts       int
}

// reading is one Redfish sample.
type reading struct {
	value float64
	found bool
}

// Execute runs the align command. The Redfish side is sampled until it
// comes within tolerance, so a settling sensor converges.
func (c *AlignCommand) Execute(ctx context.Context, req AlignRequest) (*AlignResult, error) {
	tolerance := req.Tolerance
	if tolerance == 0 {
		tolerance = DefaultTolerance
	}
	ipmiSensor := req.IPMISensor
	if ipmiSensor == "" {
		ipmiSensor = ipmitool.DefaultSensorName
	}
	cfg := poll.Config{Timeout: req.Timeout, Interval: req.Interval}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultAlignTimeout
	}
	if cfg.Interval == 0 {
		cfg.Interval = min(DefaultAlignInterval, cfg.Timeout)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	sensorFilter, err := sensorFilter(req.Patterns, c.logger)
	if err != nil {
		return nil, err
	}

	result := &AlignResult{}
	result.OutOfBand, result.OutOfBandFound, err = c.outOfBand.ReadSensor(ctx, ipmiSensor)
	if err != nil {
		return nil, fmt.Errorf("out-of-band read failed: %w", err)
	}

	err = withSession(ctx, c.factory, c.logger, req.CheckRequest,
		func(ctx context.Context, services domain.RedfishServices, _ domain.Session) error {
			var sampled bool
			var lastErr error
			fetch := func(ctx context.Context) (reading, error) {
				sensor, findErr := services.Sensors.FindSensor(ctx, sensorFilter)
				if findErr != nil {
					lastErr = findErr
					return reading{}, findErr
				}
				sampled = true
				if sensor == nil {
					return reading{}, nil
				}
				value, found := sensor.Value()
				return reading{value: value, found: found}, nil
			}

			// Without an out-of-band value there is nothing to converge on.
			aligned := func(r reading) bool {
				return !r.found || !result.OutOfBandFound ||
					math.Abs(r.value-result.OutOfBand) <= tolerance
			}

			polled, waitErr := poll.WaitFor(ctx, c.poller, fetch, aligned, cfg)
			result.Redfish, result.RedfishFound = polled.Value.value, polled.Value.found
			result.Attempts = polled.Attempts
			if waitErr != nil {
				return waitErr
			}
			if !sampled {
				return fmt.Errorf("no Redfish sensor sample after %d attempts: %w", polled.Attempts, lastErr)
			}
			return nil
		})
	if err != nil {
		return nil, fmt.Errorf("alignment check failed: %w", err)
	}

	switch {
	case !result.RedfishFound && !result.OutOfBandFound:
		c.logger.InfoContext(ctx, "CPU temperature missing on both Redfish and IPMI, check passes")
		return result, nil
	case !result.RedfishFound:
		return result, fmt.Errorf("CPU temperature sensor not found in Redfish: %w", errors.ErrConditionNotMet)
	case !result.OutOfBandFound:
		return result, fmt.Errorf("sensor %q not found in IPMI: %w", ipmiSensor, errors.ErrConditionNotMet)
	}

	result.Difference = math.Abs(result.Redfish - result.OutOfBand)
	if result.Difference > tolerance {
		return result, fmt.Errorf("CPU temperature difference too large: Redfish=%.1f, IPMI=%.1f (tolerance %.1f): %w",
			result.Redfish, result.OutOfBand, tolerance, errors.ErrConditionNotMet)
	}

	c.logger.InfoContext(ctx, "Sensor alignment check passed",
		"redfish", result.Redfish,
		"ipmi", result.OutOfBand,
		"difference", result.Difference)
	return result, nil
}
