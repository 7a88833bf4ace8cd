package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nonexistent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, defaultMemoryLimitMB, cfg.DefaultMemoryLimitMB)
	assert.Equal(t, defaultEventChannelDepth, cfg.EventChannelDepth)
	assert.Equal(t, defaultUnloadGrace, cfg.UnloadGrace)
}

func TestLoadExplicitFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "wassette.yaml")
	contents := `
cache_dir: /var/cache/wassette
default_memory_limit_mb: 512
event_channel_depth: 1024
unload_grace: 10s
oci_registries:
  - registry: ghcr.io
    username: bot
    password: token
`
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/var/cache/wassette", cfg.CacheDir)
	assert.Equal(t, 512, cfg.DefaultMemoryLimitMB)
	assert.Equal(t, 1024, cfg.EventChannelDepth)
	assert.Equal(t, 10*time.Second, cfg.UnloadGrace)
	require.Len(t, cfg.OCIRegistries, 1)
	assert.Equal(t, "ghcr.io", cfg.OCIRegistries[0].Registry)
}

func TestDefaultHasSafeValues(t *testing.T) {
	cfg := Default()
	assert.Positive(t, cfg.DefaultMemoryLimitMB)
	assert.Positive(t, cfg.EventChannelDepth)
	assert.Positive(t, cfg.UnloadGrace)
	assert.Empty(t, cfg.OCIRegistries)
}
