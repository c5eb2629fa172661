// Package poll waits for a remote resource to reach a target state.
//
// WaitFor repeatedly fetches a value and evaluates a predicate over it until
// the predicate holds or the configured timeout elapses. Running out of time
// is reported through Result.Satisfied, not as an error: a BMC that is slow
// to power on is an expected outcome the caller decides how to treat.
package poll

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"bmcprobe/internal/errors"
)

// Config bounds a single WaitFor call.
type Config struct {
	Timeout  time.Duration
	Interval time.Duration
}

// Validate checks 0 < Interval <= Timeout.
func (c Config) Validate() error {
	switch {
	case c.Timeout <= 0:
		return errors.NewInvalidConfigError(c.Timeout, c.Interval, "timeout must be positive")
	case c.Interval <= 0:
		return errors.NewInvalidConfigError(c.Timeout, c.Interval, "interval must be positive")
	case c.Interval > c.Timeout:
		return errors.NewInvalidConfigError(c.Timeout, c.Interval, "interval must not exceed timeout")
	}
	return nil
}

// Result is the outcome of a WaitFor call. Value is the last successfully
// fetched value, or the zero value when every fetch failed.
type Result[T any] struct {
	Value     T
	Satisfied bool
	Elapsed   time.Duration
	Attempts  int
}

// Clock abstracts time so tests can run without sleeping.
type Clock interface {
	Now() time.Time
	After(d time.Duration) <-chan time.Time
}

type realClock struct{}

func (realClock) Now() time.Time                         { return time.Now() }
func (realClock) After(d time.Duration) <-chan time.Time { return time.After(d) }

// Poller carries the clock and logger used by WaitFor.
type Poller struct {
	clock  Clock
	logger *slog.Logger
}

// Option configures a Poller.
type Option func(*Poller)

// WithClock replaces the wall clock.
func WithClock(clock Clock) Option {
	return func(p *Poller) {
		p.clock = clock
	}
}

// New creates a Poller using the wall clock.
func New(logger *slog.Logger, opts ...Option) *Poller {
	p := &Poller{
		clock:  realClock{},
		logger: logger,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// WaitFor calls fetch until predicate returns true or cfg.Timeout elapses.
//
// A failing fetch is logged and counts as "not yet satisfied". The deadline
// is checked after every fetch, and the last sleep is clipped to the time
// remaining, so one final fetch always happens at or just past the deadline.
// Context cancellation is checked before every attempt and interrupts the
// sleep; it is the only way WaitFor returns an error after validation.
func WaitFor[T any](
	ctx context.Context,
	p *Poller,
	fetch func(ctx context.Context) (T, error),
	predicate func(T) bool,
	cfg Config,
) (Result[T], error) {
	var result Result[T]
	if err := cfg.Validate(); err != nil {
		return result, err
	}

	start := p.clock.Now()
	deadline := start.Add(cfg.Timeout)

	for {
		if err := ctx.Err(); err != nil {
			result.Elapsed = p.clock.Now().Sub(start)
			return result, fmt.Errorf("poll cancelled after %d attempts: %w", result.Attempts, err)
		}

		result.Attempts++
		value, err := fetch(ctx)
		if err != nil {
			p.logger.WarnContext(ctx, "Fetch failed, retrying",
				"error", errors.NewFetchError(result.Attempts, err))
		} else {
			result.Value = value
			if predicate(value) {
				result.Satisfied = true
				result.Elapsed = p.clock.Now().Sub(start)
				return result, nil
			}
		}

		now := p.clock.Now()
		if !now.Before(deadline) {
			result.Elapsed = now.Sub(start)
			p.logger.DebugContext(ctx, "Poll deadline reached",
				"attempts", result.Attempts,
				"elapsed", result.Elapsed)
			return result, nil
		}

		wait := min(cfg.Interval, deadline.Sub(now))
		p.logger.DebugContext(ctx, "Condition not met, waiting",
			"attempt", result.Attempts,
			"wait", wait)

		select {
		case <-ctx.Done():
		case <-p.clock.After(wait):
		}
	}
}
