package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	// No config file in the test working directory: defaults apply.
	t.Setenv("CONFIG_ENV", "nonexistent")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "release", cfg.Mode)
	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, "./web", cfg.StaticPath)
	assert.Equal(t, "./uploads", cfg.UploadPath)
	assert.Equal(t, int64(32768), cfg.ReadLimit)
	assert.Equal(t, 64, cfg.SendBuffer)
	assert.Equal(t, 16, cfg.CodeAttempts)
	assert.False(t, cfg.StrictMembership)
	assert.NotEmpty(t, cfg.Secret)
}

func TestLoad_MalformedFile(t *testing.T) {
	// A config file that parses as yaml but cannot unmarshal into Config
	// must surface an error so startup can fail fast.
	dir := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(dir, "config"), 0o755))
	require.NoError(t, os.WriteFile(
		filepath.Join(dir, "config", "config.broken.yaml"),
		[]byte("port: notanumber\n"),
		0o644,
	))
	oldWD, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(oldWD) })
	t.Setenv("CONFIG_ENV", "broken")

	cfg, err := Load()
	require.Error(t, err)
	assert.Nil(t, cfg)
}
