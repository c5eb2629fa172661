package domain

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"net/url"
	"strings"
)

// Default Redfish member ids used by OpenBMC.
const (
	DefaultSystemID  = "system"
	DefaultChassisID = "chassis"
)

// ConfigRepository manages the saved BMC targets.
type ConfigRepository interface {
	GetTargets(ctx context.Context) ([]Target, error)
	FindTarget(ctx context.Context, ref string) (Target, error)
	AddTarget(ctx context.Context, target Target) error
	RemoveTarget(ctx context.Context, ref string) error
	SaveConfig(ctx context.Context) error
	LoadConfig(ctx context.Context) error
}

// ConfigProvider provides configuration paths.
type ConfigProvider interface {
	GetConfigPath() (string, error)
	GetTargetsPath() (string, error)
}

// Target is a BMC endpoint in the targets file.
type Target struct {
	URL       string `yaml:"url"`
	Username  string `yaml:"username"`
	SystemID  string `yaml:"systemId,omitempty"`
	ChassisID string `yaml:"chassisId,omitempty"`
}

// BaseURL returns the URL without trailing slashes.
func (t Target) BaseURL() string {
	return strings.TrimRight(t.URL, "/")
}

// System returns the configured system id or the OpenBMC default.
func (t Target) System() string {
	if t.SystemID == "" {
		return DefaultSystemID
	}
	return t.SystemID
}

// Chassis returns the configured chassis id or the OpenBMC default.
func (t Target) Chassis() string {
	if t.ChassisID == "" {
		return DefaultChassisID
	}
	return t.ChassisID
}

// ID returns a deterministic 8-character ID generated from the host and port.
func (t Target) ID() string {
	hash := sha256.Sum256([]byte(t.hostPort()))
	return hex.EncodeToString(hash[:])[:8]
}

func (t Target) hostPort() string {
	parsedURL, err := url.Parse(t.URL)
	if err != nil || parsedURL.Host == "" {
		return t.URL
	}
	return parsedURL.Host
}
