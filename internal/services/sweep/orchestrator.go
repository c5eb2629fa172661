// Package sweep reads the power state of many BMC targets concurrently.
package sweep

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"bmcprobe/internal/domain"
	"bmcprobe/internal/services/session"
)

// DefaultWorkers is the number of targets queried at once.
const DefaultWorkers = 5

// Orchestrator runs power-state reads against many targets. Every target
// gets its own services and session manager.
type Orchestrator struct {
	factory domain.RedfishServiceFactory
	workers int
	logger  *slog.Logger
}

// NewOrchestrator creates a sweep orchestrator. workers <= 0 selects
// DefaultWorkers.
func NewOrchestrator(
	factory domain.RedfishServiceFactory,
	workers int,
	logger *slog.Logger,
) *Orchestrator {
	if workers <= 0 {
		workers = DefaultWorkers
	}
	return &Orchestrator{
		factory: factory,
		workers: workers,
		logger:  logger,
	}
}

// task is one target queued for a worker.
type task struct {
	index      int
	target     domain.Target
	credential domain.Credential
	found      bool
}

// SweepTargets returns one result per target, in input order. Per-target
// failures are reported in SweepResult.Err.
func (o *Orchestrator) SweepTargets(
	ctx context.Context,
	targets []domain.Target,
	credentials map[string]domain.Credential,
	insecureSkipTLS bool,
) []domain.SweepResult {
	if len(targets) == 0 {
		return nil
	}

	workers := min(o.workers, len(targets))
	o.logger.InfoContext(ctx, "Starting power sweep",
		"targets", len(targets),
		"workers", workers)

	taskChan := make(chan task, len(targets))
	results := make([]domain.SweepResult, len(targets))

	var wg sync.WaitGroup
	for i := range workers {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			for t := range taskChan {
				o.logger.DebugContext(ctx, "Worker processing target",
					"worker", workerID,
					"bmc", t.target.URL)
				// Each index is written by exactly one worker.
				results[t.index] = o.sweepTarget(ctx, t, insecureSkipTLS)
			}
		}(i)
	}

	for i, target := range targets {
		credential, found := credentials[target.ID()]
		taskChan <- task{index: i, target: target, credential: credential, found: found}
	}
	close(taskChan)
	wg.Wait()

	var failed int
	for _, result := range results {
		if result.Err != nil {
			failed++
			o.logger.ErrorContext(ctx, "Failed to read power state",
				"bmc", result.Target.URL,
				"error", result.Err)
		}
	}

	o.logger.InfoContext(ctx, "Power sweep completed",
		"successful", len(targets)-failed,
		"failed", failed,
		"total", len(targets))

	return results
}

func (o *Orchestrator) sweepTarget(ctx context.Context, t task, insecureSkipTLS bool) domain.SweepResult {
	result := domain.SweepResult{Target: t.target}
	if !t.found {
		result.Err = fmt.Errorf("no credential provided for %s", t.target.URL)
		return result
	}

	started := time.Now()
	services := o.factory.CreateServices(t.target, insecureSkipTLS)

	result.Err = session.Scope(ctx, services.Sessions, t.credential, t.target.BaseURL(), o.logger,
		func(ctx context.Context, _ domain.Session) error {
			system, err := services.Systems.GetSystem(ctx)
			if err != nil {
				return err
			}
			result.PowerState = system.PowerState
			if system.Status != nil {
				result.Health = system.Status.Health
			}
			return nil
		})
	result.Duration = time.Since(started)
	return result
}
