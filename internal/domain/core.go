package domain

import (
	"context"
	"time"
)

// RedfishServices are the per-run services bound to one BMC target. Each
// set owns its own SessionManager.
type RedfishServices struct {
	Target   Target
	Sessions SessionManager
	Systems  SystemReader
	Power    PowerController
	Sensors  SensorReader
}

// RedfishServiceFactory creates Redfish services with the appropriate HTTP configuration.
type RedfishServiceFactory interface {
	CreateServices(target Target, insecureSkipTLS bool) RedfishServices
}

// SweepResult is the power state observed for one target during a sweep.
type SweepResult struct {
	Target     Target
	PowerState string
	Health     string
	Duration   time.Duration
	Err        error
}

// PowerSweeper reads the power state of many targets.
type PowerSweeper interface {
	SweepTargets(
		ctx context.Context,
		targets []Target,
		credentials map[string]Credential,
		insecureSkipTLS bool,
	) []SweepResult
}
