package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/moyu-x/file-mover/internal"
)

func TestLoad_Defaults(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("HOME", t.TempDir())

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, internal.DefaultDatabasePath, cfg.Database.Path)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Empty(t, cfg.Logging.File)
	assert.False(t, cfg.Operation.Verify)
	assert.Empty(t, cfg.Operation.Excludes)
	assert.Equal(t, internal.DefaultEventBuffer, cfg.Worker.EventBuffer)
	assert.Same(t, cfg, Get())
}

func TestLoad_File(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
database:
  path: /var/lib/file-mover/history.db
logging:
  level: debug
  file: /tmp/file-mover.log
operation:
  verify: true
  excludes:
    - "**/node_modules"
    - ".git"
  custom_extensions:
    - heic
worker:
  event_buffer: 16
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/var/lib/file-mover/history.db", cfg.Database.Path)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "/tmp/file-mover.log", cfg.Logging.File)
	assert.True(t, cfg.Operation.Verify)
	assert.Equal(t, []string{"**/node_modules", ".git"}, cfg.Operation.Excludes)
	assert.Equal(t, []string{"heic"}, cfg.Operation.CustomExtensions)
	assert.Equal(t, 16, cfg.Worker.EventBuffer)
}

func TestLoad_EnvOverride(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("HOME", t.TempDir())
	t.Setenv("FILE_MOVER_LOGGING_LEVEL", "warn")
	t.Setenv("FILE_MOVER_OPERATION_VERIFY", "true")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "warn", cfg.Logging.Level)
	assert.True(t, cfg.Operation.Verify)
}

func TestLoad_BadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("logging: [unclosed"), 0644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoad_ExplicitMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

// chdir mirrors testing.T.Chdir (Go 1.24+) for older toolchains.
func chdir(t *testing.T, dir string) {
	t.Helper()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })
}
