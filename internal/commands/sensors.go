package commands

import (
	"context"
	"fmt"
	"log/slog"

	"bmcprobe/internal/domain"
	"bmcprobe/internal/services/filter"
)

// SensorListCommand lists the chassis sensors.
type SensorListCommand struct {
	factory domain.RedfishServiceFactory
	logger  *slog.Logger
}

// NewSensorListCommand creates a new sensor list command.
func NewSensorListCommand(factory domain.RedfishServiceFactory, logger *slog.Logger) *SensorListCommand {
	return &SensorListCommand{
		factory: factory,
		logger:  logger,
	}
}

// SensorListRequest contains the parameters for the sensor list command.
// Without patterns every sensor is listed.
type SensorListRequest struct {
	CheckRequest
	Patterns []string
}

// Execute runs the sensor list command.
func (c *SensorListCommand) Execute(ctx context.Context, req SensorListRequest) ([]domain.Sensor, error) {
	var sensorFilter domain.SensorFilter = filter.MatchAll{}
	if len(req.Patterns) > 0 {
		nameFilter, err := filter.NewNameFilter(req.Patterns, c.logger)
		if err != nil {
			return nil, fmt.Errorf("failed to create sensor filter: %w", err)
		}
		sensorFilter = nameFilter
	}

	var matched []domain.Sensor
	err := withSession(ctx, c.factory, c.logger, req.CheckRequest,
		func(ctx context.Context, services domain.RedfishServices, _ domain.Session) error {
			sensors, err := services.Sensors.ListSensors(ctx)
			if err != nil {
				return err
			}
			for _, sensor := range sensors {
				if sensorFilter.Matches(sensor.Name) {
					matched = append(matched, sensor)
				}
			}
			return nil
		})
	if err != nil {
		return nil, fmt.Errorf("failed to list sensors: %w", err)
	}

	c.logger.DebugContext(ctx, "Listed sensors", "matched", len(matched))
	return matched, nil
}
