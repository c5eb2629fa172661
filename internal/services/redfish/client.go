// Package redfish reads and drives the Redfish resources bmcprobe checks:
// the ComputerSystem, its reset action and the chassis sensor collection.
package redfish

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"bmcprobe/internal/domain"
	"bmcprobe/internal/errors"
)

const maxErrorBody = 4096

// Client handles Redfish resource operations for one BMC target.
type Client struct {
	httpAdapter domain.HTTPAdapter
	tokens      domain.TokenSource
	target      domain.Target
	logger      *slog.Logger
}

// NewClient creates a new Redfish client. Tokens come from the session
// manager, which is told about every response status.
func NewClient(
	httpAdapter domain.HTTPAdapter,
	tokens domain.TokenSource,
	target domain.Target,
	logger *slog.Logger,
) *Client {
	return &Client{
		httpAdapter: httpAdapter,
		tokens:      tokens,
		target:      target,
		logger:      logger,
	}
}

// SystemPath returns the ComputerSystem resource path.
func (c *Client) SystemPath() string {
	return "/redfish/v1/Systems/" + c.target.System()
}

// SensorsPath returns the chassis sensor collection path.
func (c *Client) SensorsPath() string {
	return "/redfish/v1/Chassis/" + c.target.Chassis() + "/Sensors"
}

// GetSystem reads the ComputerSystem resource.
func (c *Client) GetSystem(ctx context.Context) (domain.System, error) {
	var system domain.System
	if err := c.getJSON(ctx, c.SystemPath(), &system); err != nil {
		return domain.System{}, fmt.Errorf("failed to get system: %w", err)
	}

	c.logger.DebugContext(ctx, "Fetched system",
		"id", system.ID,
		"powerState", system.PowerState)
	return system, nil
}

// resetRequest is the body of a ComputerSystem.Reset action.
type resetRequest struct {
	ResetType string `json:"ResetType"`
}

// Reset sends ComputerSystem.Reset with the given reset type.
func (c *Client) Reset(ctx context.Context, resetType string) error {
	actionURL := c.target.BaseURL() + c.SystemPath() + "/Actions/ComputerSystem.Reset"

	c.logger.InfoContext(ctx, "Sending reset action", "resetType", resetType)

	resp, err := c.do(ctx, func(token string) (*http.Response, error) {
		return c.httpAdapter.PostWithAuth(ctx, actionURL, token, resetRequest{ResetType: resetType})
	})
	if err != nil {
		return fmt.Errorf("reset request failed: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK, http.StatusAccepted, http.StatusNoContent:
		c.logger.InfoContext(ctx, "Reset action accepted",
			"resetType", resetType,
			"status", resp.StatusCode)
		return nil
	default:
		return statusError(resp, http.MethodPost, actionURL)
	}
}

// collection is a Redfish resource collection.
type collection struct {
	Members []struct {
		ODataID string `json:"@odata.id"`
	} `json:"Members"`
}

// ListSensors reads every member of the sensor collection.
func (c *Client) ListSensors(ctx context.Context) ([]domain.Sensor, error) {
	members, err := c.sensorMembers(ctx)
	if err != nil {
		return nil, err
	}

	sensors := make([]domain.Sensor, 0, len(members))
	for _, member := range members {
		sensor, err := c.getSensor(ctx, member)
		if err != nil {
			return nil, err
		}
		sensors = append(sensors, sensor)
	}

	c.logger.DebugContext(ctx, "Fetched sensors", "count", len(sensors))
	return sensors, nil
}

// FindSensor returns the first sensor whose name matches the filter, or nil
// when none does. Members after the match are not fetched.
func (c *Client) FindSensor(ctx context.Context, filter domain.SensorFilter) (*domain.Sensor, error) {
	members, err := c.sensorMembers(ctx)
	if err != nil {
		return nil, err
	}

	for _, member := range members {
		sensor, err := c.getSensor(ctx, member)
		if err != nil {
			return nil, err
		}
		if filter.Matches(sensor.Name) {
			c.logger.DebugContext(ctx, "Sensor matched", "name", sensor.Name, "id", sensor.ID)
			return &sensor, nil
		}
	}

	c.logger.DebugContext(ctx, "No sensor matched", "scanned", len(members))
	return nil, nil
}

func (c *Client) sensorMembers(ctx context.Context) ([]string, error) {
	var coll collection
	if err := c.getJSON(ctx, c.SensorsPath(), &coll); err != nil {
		return nil, fmt.Errorf("failed to list sensors: %w", err)
	}

	members := make([]string, 0, len(coll.Members))
	for _, member := range coll.Members {
		if member.ODataID == "" {
			c.logger.WarnContext(ctx, "Skipping sensor member without @odata.id")
			continue
		}
		members = append(members, member.ODataID)
	}
	return members, nil
}

func (c *Client) getSensor(ctx context.Context, path string) (domain.Sensor, error) {
	var sensor domain.Sensor
	if err := c.getJSON(ctx, path, &sensor); err != nil {
		return domain.Sensor{}, fmt.Errorf("failed to get sensor %s: %w", path, err)
	}
	return sensor, nil
}

// getJSON fetches a resource path (or absolute URL) and decodes it.
func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	resourceURL := c.resolve(path)

	resp, err := c.do(ctx, func(token string) (*http.Response, error) {
		return c.httpAdapter.GetWithAuth(ctx, resourceURL, token)
	})
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return statusError(resp, http.MethodGet, resourceURL)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode %s: %w", resourceURL, err)
	}
	return nil
}

// do sends an authenticated request. A 401 invalidates the session and the
// request is sent once more with a freshly acquired token.
func (c *Client) do(ctx context.Context, send func(token string) (*http.Response, error)) (*http.Response, error) {
	for attempt := 1; ; attempt++ {
		token, err := c.tokens.Token(ctx)
		if err != nil {
			return nil, err
		}

		resp, err := send(token)
		if err != nil {
			return nil, err
		}
		c.tokens.Observe(resp.StatusCode)

		if resp.StatusCode != http.StatusUnauthorized || attempt > 1 {
			return resp, nil
		}

		c.logger.DebugContext(ctx, "Token rejected, retrying with a new session")
		_, _ = io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
	}
}

func (c *Client) resolve(path string) string {
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return path
	}
	return c.target.BaseURL() + "/" + strings.TrimLeft(path, "/")
}

func statusError(resp *http.Response, method, url string) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	return errors.NewHTTPError(resp.StatusCode, method, url, strings.TrimSpace(string(body)))
}
