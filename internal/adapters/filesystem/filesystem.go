// Package filesystem provides the afero-backed filesystem used for the
// bmcprobe configuration files.
package filesystem

import (
	"os"

	"github.com/spf13/afero"
)

// Adapter is an afero filesystem that also knows the user's home directory.
type Adapter struct {
	afero.Fs
	homeDir string
}

// New creates an adapter over the OS filesystem.
func New() *Adapter {
	return &Adapter{Fs: afero.NewOsFs()}
}

// NewMemory creates an in-memory adapter rooted at the given home directory.
func NewMemory(homeDir string) *Adapter {
	return &Adapter{Fs: afero.NewMemMapFs(), homeDir: homeDir}
}

// UserHomeDir returns the user's home directory.
func (a *Adapter) UserHomeDir() (string, error) {
	if a.homeDir != "" {
		return a.homeDir, nil
	}
	return os.UserHomeDir()
}
