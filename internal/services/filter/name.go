// Package filter selects Redfish sensors by name.
package filter

import (
	"errors"
	"fmt"
	"log/slog"
	"regexp"
)

// CPUTemperaturePatterns match the CPU temperature sensor names reported by
// OpenBMC and most vendor firmware.
var CPUTemperaturePatterns = []string{
	`(?i)CPU[ _]?Temp(erature)?`,
	`(?i)Processor[ _]?Temp(erature)?`,
}

// NameFilter matches sensor names against a list of regex patterns.
type NameFilter struct {
	patterns []*regexp.Regexp
	logger   *slog.Logger
}

// NewNameFilter creates a filter that matches when any pattern matches.
func NewNameFilter(patterns []string, logger *slog.Logger) (*NameFilter, error) {
	if len(patterns) == 0 {
		return nil, errors.New("no patterns provided for name filter")
	}

	compiledPatterns := make([]*regexp.Regexp, 0, len(patterns))
	for _, pattern := range patterns {
		compiled, err := regexp.Compile(pattern)
		if err != nil {
			return nil, fmt.Errorf("invalid regex pattern %q: %w", pattern, err)
		}
		compiledPatterns = append(compiledPatterns, compiled)
	}

	return &NameFilter{
		patterns: compiledPatterns,
		logger:   logger,
	}, nil
}

// NewCPUTemperatureFilter matches the CPU temperature sensor.
func NewCPUTemperatureFilter(logger *slog.Logger) *NameFilter {
	f, err := NewNameFilter(CPUTemperaturePatterns, logger)
	if err != nil {
		panic(err)
	}
	return f
}

// Matches returns true if the sensor name matches any pattern.
func (f *NameFilter) Matches(sensorName string) bool {
	for _, pattern := range f.patterns {
		if pattern.MatchString(sensorName) {
			f.logger.Debug("Sensor name matched",
				"sensor", sensorName,
				"pattern", pattern.String())
			return true
		}
	}
	return false
}

// Patterns returns the source of every compiled pattern.
func (f *NameFilter) Patterns() []string {
	sources := make([]string, len(f.patterns))
	for i, p := range f.patterns {
		sources[i] = p.String()
	}
	return sources
}
