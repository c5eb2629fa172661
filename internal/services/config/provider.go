package config

import (
	"fmt"
	"path/filepath"
)

// HomeDirProvider resolves the user's home directory.
type HomeDirProvider interface {
	UserHomeDir() (string, error)
}

// Provider provides configuration paths.
type Provider struct {
	home HomeDirProvider
}

// NewProvider creates a new configuration provider.
func NewProvider(home HomeDirProvider) *Provider {
	return &Provider{
		home: home,
	}
}

// GetConfigDir returns the bmcprobe configuration directory.
func (p *Provider) GetConfigDir() (string, error) {
	homeDir, err := p.home.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(homeDir, ".config", "bmcprobe"), nil
}

// GetConfigPath returns the path to the viper configuration file.
func (p *Provider) GetConfigPath() (string, error) {
	dir, err := p.GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

// GetTargetsPath returns the path to the saved targets file.
func (p *Provider) GetTargetsPath() (string, error) {
	dir, err := p.GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "targets.yaml"), nil
}
