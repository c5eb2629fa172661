package migrations

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"

	"bmcprobe/internal/domain"
)

const (
	legacyVersion   = "0"
	dirPermissions  = 0o700
	filePermissions = 0o600
)

// Migrator upgrades targets file contents between versions.
type Migrator struct {
	logger *slog.Logger
}

// NewMigrator creates a new targets file migrator.
func NewMigrator(logger *slog.Logger) *Migrator {
	return &Migrator{
		logger: logger,
	}
}

// Migrate converts data to the current version.
// Returns: targets, wasMigrated, error. Targets is nil when no migration
// was needed.
func (m *Migrator) Migrate(
	ctx context.Context,
	data []byte,
	currentVersion string,
) ([]domain.Target, bool, error) {
	version, err := m.detectVersion(data)
	if err != nil {
		return nil, false, fmt.Errorf("failed to detect targets file version: %w", err)
	}

	m.logger.DebugContext(ctx, "Detected targets file version", "version", version, "current", currentVersion)

	if version == currentVersion {
		return nil, false, nil
	}

	switch version {
	case legacyVersion:
		targets, err := migrateFromV0(data)
		if err != nil {
			return nil, false, fmt.Errorf("failed to migrate unversioned targets file: %w", err)
		}
		m.logger.InfoContext(ctx, "Migrated unversioned targets file", "targets", len(targets))
		return targets, true, nil
	default:
		return nil, false, fmt.Errorf("unsupported targets file version: %s", version)
	}
}

func (m *Migrator) detectVersion(data []byte) (string, error) {
	var versionCheck struct {
		Version string `yaml:"version"`
	}

	if err := yaml.Unmarshal(data, &versionCheck); err != nil {
		return "", err
	}

	if versionCheck.Version == "" {
		return legacyVersion, nil
	}
	return versionCheck.Version, nil
}

// FixPermissions restricts the targets file and its directory to the owner.
// Older releases wrote both with the default umask.
func (m *Migrator) FixPermissions(ctx context.Context, fs afero.Fs, targetsPath string) error {
	if err := fs.Chmod(targetsPath, filePermissions); err != nil {
		m.logger.WarnContext(ctx, "Failed to fix targets file permissions",
			"path", targetsPath, "error", err)
		return fmt.Errorf("failed to fix targets file permissions: %w", err)
	}

	dir := filepath.Dir(targetsPath)
	if err := fs.Chmod(dir, dirPermissions); err != nil {
		m.logger.WarnContext(ctx, "Failed to fix config directory permissions",
			"path", dir, "error", err)
		return fmt.Errorf("failed to fix config directory permissions: %w", err)
	}

	m.logger.InfoContext(ctx, "Fixed permissions after migration", "path", targetsPath)
	return nil
}
