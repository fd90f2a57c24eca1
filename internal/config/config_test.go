package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadAppliesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "crossref.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
scan_paths = ["src"]

[watch]
rebuilds_per_minute = 10
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, []string{"src"}, cfg.ScanPaths)
	assert.Equal(t, 500*time.Millisecond, cfg.Watch.Debounce)
	assert.Equal(t, float64(10), cfg.Watch.RebuildsPerMinute)
	assert.Greater(t, cfg.Workers, 0)
	assert.Contains(t, cfg.Exclude.Dirs, ".git")
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.toml"))
	require.Error(t, err)
}

func TestLoadRejectsMalformedToml(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.toml")
	require.NoError(t, os.WriteFile(path, []byte("scan_paths = [unclosed"), 0o644))
	_, err := Load(path)
	require.Error(t, err)
}

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.Equal(t, []string{"."}, cfg.ScanPaths)
	assert.Empty(t, cfg.Storage.Path, "persistence is opt-in")
}
