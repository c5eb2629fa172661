// Package config persists the BMC targets bmcprobe knows about.
package config

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"

	"bmcprobe/internal/domain"
	bmcerrors "bmcprobe/internal/errors"
	"bmcprobe/internal/migrations"
)

const (
	dirPermissions  = 0o700 // Owner-only access for security
	filePermissions = 0o600 // Read/write owner only
	configVersion   = "1"
)

// Repository handles targets file persistence.
type Repository struct {
	fs          afero.Fs
	targetsPath string
	config      *Config
	migrator    *migrations.Migrator
	logger      *slog.Logger
}

// Config represents the targets file structure.
type Config struct {
	Version string          `yaml:"version"`
	Targets []domain.Target `yaml:"targets"`
}

// NewRepository creates a new targets repository.
func NewRepository(
	fs afero.Fs,
	targetsPath string,
	logger *slog.Logger,
) (*Repository, error) {
	repo := &Repository{
		fs:          fs,
		targetsPath: targetsPath,
		config:      &Config{Version: configVersion, Targets: []domain.Target{}},
		migrator:    migrations.NewMigrator(logger),
		logger:      logger,
	}

	configDir := filepath.Dir(targetsPath)
	if err := fs.MkdirAll(configDir, dirPermissions); err != nil {
		return nil, fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := repo.LoadConfig(context.Background()); err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			logger.Warn("Failed to load existing targets, starting empty", "error", err)
		}
	}

	return repo, nil
}

// GetTargets returns all configured targets.
func (r *Repository) GetTargets(ctx context.Context) ([]domain.Target, error) {
	r.logger.DebugContext(ctx, "Getting targets from config", "count", len(r.config.Targets))
	return r.config.Targets, nil
}

// FindTarget looks a target up by ID or URL.
func (r *Repository) FindTarget(ctx context.Context, ref string) (domain.Target, error) {
	idx := r.indexOf(ref)
	if idx < 0 {
		return domain.Target{}, fmt.Errorf("target %s: %w", ref, bmcerrors.ErrNotFound)
	}
	r.logger.DebugContext(ctx, "Found target", "ref", ref, "url", r.config.Targets[idx].URL)
	return r.config.Targets[idx], nil
}

// AddTarget validates and adds a new target.
func (r *Repository) AddTarget(ctx context.Context, target domain.Target) error {
	target.URL = strings.TrimRight(strings.TrimSpace(target.URL), "/")
	if err := ValidateTarget(target); err != nil {
		return err
	}

	for _, existing := range r.config.Targets {
		if existing.ID() == target.ID() {
			return fmt.Errorf("target %s already exists in configuration", target.URL)
		}
	}

	r.config.Targets = append(r.config.Targets, target)
	r.logger.InfoContext(ctx, "Added target to configuration", "url", target.URL, "id", target.ID())

	if err := r.SaveConfig(ctx); err != nil {
		r.config.Targets = r.config.Targets[:len(r.config.Targets)-1] // Rollback
		return fmt.Errorf("failed to save configuration after adding target: %w", err)
	}

	return nil
}

// RemoveTarget removes a target by ID or URL.
func (r *Repository) RemoveTarget(ctx context.Context, ref string) error {
	idx := r.indexOf(ref)
	if idx < 0 {
		return fmt.Errorf("target %s: %w", ref, bmcerrors.ErrNotFound)
	}

	oldTargets := slices.Clone(r.config.Targets)
	removed := r.config.Targets[idx]
	r.config.Targets = slices.Delete(r.config.Targets, idx, idx+1)

	r.logger.InfoContext(ctx, "Removed target from configuration", "id", removed.ID(), "url", removed.URL)

	if err := r.SaveConfig(ctx); err != nil {
		r.config.Targets = oldTargets // Rollback
		return fmt.Errorf("failed to save configuration after removing target: %w", err)
	}

	return nil
}

// SaveConfig saves the current targets to disk.
func (r *Repository) SaveConfig(ctx context.Context) error {
	data, err := yaml.Marshal(r.config)
	if err != nil {
		return fmt.Errorf("failed to marshal configuration: %w", err)
	}

	if writeErr := afero.WriteFile(r.fs, r.targetsPath, data, filePermissions); writeErr != nil {
		return fmt.Errorf("failed to write configuration file: %w", writeErr)
	}

	r.logger.DebugContext(ctx, "Configuration saved", "path", r.targetsPath)
	return nil
}

// LoadConfig loads the targets from disk.
func (r *Repository) LoadConfig(ctx context.Context) error {
	data, err := afero.ReadFile(r.fs, r.targetsPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			r.logger.DebugContext(ctx, "Targets file does not exist", "path", r.targetsPath)
			return os.ErrNotExist
		}
		return fmt.Errorf("failed to read configuration file: %w", err)
	}

	targets, migrated, err := r.migrator.Migrate(ctx, data, configVersion)
	if err != nil {
		return fmt.Errorf("failed to migrate configuration: %w", err)
	}
	if migrated {
		return r.adoptMigrated(ctx, targets)
	}

	var config Config
	if unmarshalErr := yaml.Unmarshal(data, &config); unmarshalErr != nil {
		return fmt.Errorf("failed to unmarshal configuration: %w", unmarshalErr)
	}
	if config.Targets == nil {
		config.Targets = []domain.Target{}
	}

	r.config = &config
	r.logger.DebugContext(ctx, "Configuration loaded",
		"path", r.targetsPath,
		"version", config.Version,
		"targets", len(config.Targets))
	return nil
}

// adoptMigrated replaces the loaded targets with migrated ones and rewrites
// the file in the current layout.
func (r *Repository) adoptMigrated(ctx context.Context, targets []domain.Target) error {
	r.config = &Config{Version: configVersion, Targets: targets}

	if err := r.SaveConfig(ctx); err != nil {
		return fmt.Errorf("failed to save migrated configuration: %w", err)
	}
	if err := r.migrator.FixPermissions(ctx, r.fs, r.targetsPath); err != nil {
		r.logger.WarnContext(ctx, "Migrated targets file may be readable by others", "error", err)
	}

	r.logger.InfoContext(ctx, "Targets file migrated",
		"path", r.targetsPath,
		"version", configVersion,
		"targets", len(targets))
	return nil
}

func (r *Repository) indexOf(ref string) int {
	ref = strings.TrimRight(strings.TrimSpace(ref), "/")
	return slices.IndexFunc(r.config.Targets, func(t domain.Target) bool {
		return t.ID() == ref || t.BaseURL() == ref
	})
}

// ValidateTarget checks that a target has an http(s) URL with a host and a
// username.
func ValidateTarget(target domain.Target) error {
	parsed, err := url.Parse(target.URL)
	if err != nil || parsed.Host == "" {
		return bmcerrors.NewValidationError("url", target.URL, "url", "must be an absolute URL with a host")
	}
	if parsed.Scheme != "https" && parsed.Scheme != "http" {
		return bmcerrors.NewValidationError("url", target.URL, "scheme", "scheme must be http or https")
	}
	if strings.TrimSpace(target.Username) == "" {
		return bmcerrors.NewValidationError("username", "", "required", "username is required")
	}
	return nil
}
