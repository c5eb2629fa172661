package filesystem

import (
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMemory(t *testing.T) {
	fs := NewMemory("/home/operator")

	home, err := fs.UserHomeDir()
	require.NoError(t, err)
	assert.Equal(t, "/home/operator", home)

	require.NoError(t, afero.WriteFile(fs, "/home/operator/file", []byte("data"), 0o600))
	data, err := afero.ReadFile(fs, "/home/operator/file")
	require.NoError(t, err)
	assert.Equal(t, "data", string(data))
}

func TestNew_UsesOSFilesystem(t *testing.T) {
	fs := New()

	_, ok := fs.Fs.(*afero.OsFs)
	assert.True(t, ok)
}
