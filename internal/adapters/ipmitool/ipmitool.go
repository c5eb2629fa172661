// Package ipmitool reads BMC sensors out of band through the ipmitool CLI.
package ipmitool

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"time"
)

// DefaultTimeout bounds a single ipmitool invocation.
const DefaultTimeout = 10 * time.Second

// DefaultSensorName is the IPMI name of the CPU temperature sensor on OpenBMC.
const DefaultSensorName = "CPU Temp"

// PasswordEnv is read by `ipmitool -E` in place of a -P argument.
const PasswordEnv = "IPMI_PASSWORD"

// Runner executes a command with extra environment variables and returns
// its standard output.
type Runner interface {
	Run(ctx context.Context, env []string, name string, args ...string) ([]byte, error)
}

// ExecRunner runs commands with os/exec.
type ExecRunner struct{}

// Run executes the command, returning stdout even when it exits non-zero.
// env is appended to the current process environment.
func (ExecRunner) Run(ctx context.Context, env []string, name string, args ...string) ([]byte, error) {
	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, name, args...)
	if len(env) > 0 {
		cmd.Env = append(os.Environ(), env...)
	}
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return stdout.Bytes(), fmt.Errorf("%w: %s", err, msg)
		}
		return stdout.Bytes(), err
	}
	return stdout.Bytes(), nil
}

// Remote holds lanplus connection settings. A zero value reads the local BMC.
type Remote struct {
	Host     string
	Username string
	Password string
}

// Options configures a Reader.
type Options struct {
	Binary  string
	Timeout time.Duration
	Remote  Remote
}

// Reader reads sensor values with `ipmitool sensor get`.
type Reader struct {
	runner Runner
	opts   Options
	logger *slog.Logger
}

// NewReader creates a sensor reader.
func NewReader(runner Runner, opts Options, logger *slog.Logger) *Reader {
	if opts.Binary == "" {
		opts.Binary = "ipmitool"
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	return &Reader{
		runner: runner,
		opts:   opts,
		logger: logger,
	}
}

// ReadSensor returns the current reading of the named sensor. found is false
// when ipmitool printed no reading for it.
func (r *Reader) ReadSensor(ctx context.Context, name string) (float64, bool, error) {
	ctx, cancel := context.WithTimeout(ctx, r.opts.Timeout)
	defer cancel()

	args, env := r.command(name)
	r.logger.DebugContext(ctx, "Running ipmitool",
		"sensor", name,
		"remote", r.opts.Remote.Host != "")

	output, runErr := r.runner.Run(ctx, env, r.opts.Binary, args...)
	if runErr != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return 0, false, fmt.Errorf("ipmitool sensor get %q: %w", name, ctxErr)
		}
		var exitErr *exec.ExitError
		if !errors.As(runErr, &exitErr) {
			return 0, false, fmt.Errorf("ipmitool sensor get %q: %w", name, runErr)
		}
		// ipmitool exits non-zero for unknown sensors; the output decides.
		r.logger.DebugContext(ctx, "ipmitool exited non-zero", "sensor", name, "error", runErr)
	}

	value, found, err := ParseSensorReading(output)
	if err != nil {
		return 0, false, fmt.Errorf("ipmitool sensor get %q: %w", name, err)
	}
	if !found {
		r.logger.InfoContext(ctx, "ipmitool reported no reading", "sensor", name)
	}
	return value, found, nil
}

// command builds the argv and environment. The lanplus password travels in
// the environment so it never shows up in the process list.
func (r *Reader) command(name string) ([]string, []string) {
	var args, env []string
	if remote := r.opts.Remote; remote.Host != "" {
		args = append(args, "-I", "lanplus", "-H", remote.Host)
		if remote.Username != "" {
			args = append(args, "-U", remote.Username)
		}
		if remote.Password != "" {
			args = append(args, "-E")
			env = append(env, PasswordEnv+"="+remote.Password)
		}
	}
	return append(args, "sensor", "get", name), env
}

// ParseSensorReading extracts the value of the "Sensor Reading" line of
// `ipmitool sensor get` output.
func ParseSensorReading(output []byte) (float64, bool, error) {
	scanner := bufio.NewScanner(bytes.NewReader(output))
	for scanner.Scan() {
		key, value, ok := strings.Cut(scanner.Text(), ":")
		if !ok || strings.TrimSpace(key) != "Sensor Reading" {
			continue
		}

		fields := strings.Fields(value)
		if len(fields) == 0 || strings.EqualFold(fields[0], "na") {
			return 0, false, nil
		}

		reading, err := strconv.ParseFloat(fields[0], 64)
		if err != nil {
			return 0, false, fmt.Errorf("invalid sensor reading %q: %w", fields[0], err)
		}
		return reading, true, nil
	}
	return 0, false, scanner.Err()
}
