package commands

import (
	"context"
	"fmt"
	"log/slog"

	"bmcprobe/internal/domain"
	"bmcprobe/internal/errors"
	"bmcprobe/internal/services/filter"
)

// Temperature range defaults in degrees Celsius.
const (
	DefaultMinTemperature = 20.0
	DefaultMaxTemperature = 85.0
)

// TemperatureCommand checks the CPU temperature reported over Redfish.
type TemperatureCommand struct {
	factory domain.RedfishServiceFactory
	logger  *slog.Logger
}

// NewTemperatureCommand creates a new temperature command.
func NewTemperatureCommand(factory domain.RedfishServiceFactory, logger *slog.Logger) *TemperatureCommand {
	return &TemperatureCommand{
		factory: factory,
		logger:  logger,
	}
}

// TemperatureRequest contains the parameters for the temperature command.
// Zero Min and Max select the defaults.
type TemperatureRequest struct {
	CheckRequest
	Patterns []string
	Min      float64
	Max      float64
}

// TemperatureResult contains the sensor that was checked, if any.
type TemperatureResult struct {
	Sensor  *domain.Sensor
	Reading float64
	Found   bool
	Min     float64
	Max     float64
}

// Execute runs the temperature command. A missing sensor passes.
func (c *TemperatureCommand) Execute(ctx context.Context, req TemperatureRequest) (*TemperatureResult, error) {
	result := &TemperatureResult{Min: req.Min, Max: req.Max}
	if result.Min == 0 && result.Max == 0 {
		result.Min, result.Max = DefaultMinTemperature, DefaultMaxTemperature
	}
	if result.Min > result.Max {
		return nil, errors.NewValidationError("min", fmt.Sprint(result.Min), "range",
			fmt.Sprintf("min %.1f exceeds max %.1f", result.Min, result.Max))
	}

	sensorFilter, err := sensorFilter(req.Patterns, c.logger)
	if err != nil {
		return nil, err
	}

	err = withSession(ctx, c.factory, c.logger, req.CheckRequest,
		func(ctx context.Context, services domain.RedfishServices, _ domain.Session) error {
			sensor, findErr := services.Sensors.FindSensor(ctx, sensorFilter)
			if findErr != nil {
				return findErr
			}
			result.Sensor = sensor
			if sensor != nil {
				result.Reading, result.Found = sensor.Value()
			}
			return nil
		})
	if err != nil {
		return nil, fmt.Errorf("temperature check failed: %w", err)
	}

	if !result.Found {
		c.logger.InfoContext(ctx, "CPU temperature sensor not found, check passes")
		return result, nil
	}

	if result.Reading < result.Min || result.Reading > result.Max {
		return result, fmt.Errorf("CPU temperature %.1f°C outside [%.1f, %.1f]: %w",
			result.Reading, result.Min, result.Max, errors.ErrConditionNotMet)
	}

	c.logger.InfoContext(ctx, "Temperature check passed",
		"sensor", result.Sensor.Name,
		"reading", result.Reading)
	return result, nil
}

// sensorFilter builds a name filter, defaulting to the CPU temperature
// patterns.
func sensorFilter(patterns []string, logger *slog.Logger) (domain.SensorFilter, error) {
	if len(patterns) == 0 {
		return filter.NewCPUTemperatureFilter(logger), nil
	}
	nameFilter, err := filter.NewNameFilter(patterns, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create sensor filter: %w", err)
	}
	return nameFilter, nil
}
