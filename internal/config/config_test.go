package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func chdir(t *testing.T, dir string) {
	t.Helper()
	old, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(old) }) //nolint:errcheck
}

func TestLoadDefaults(t *testing.T) {
	chdir(t, t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 1000, cfg.Fetch.PerHostDelayMS)
	assert.Equal(t, 3, cfg.Fetch.MaxAttempts)
	assert.True(t, cfg.Fetch.RespectRobots)
	assert.Equal(t, 0.90, cfg.Dedup.Threshold)
	assert.Equal(t, 0.35, cfg.Scoring.Weights.Intent)
	assert.Equal(t, 70, cfg.Scoring.Thresholds.High)
	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.Equal(t, "json", cfg.Export.Format)
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	content := `
fetch:
  per_host_delay_ms: 250
dedup:
  threshold: 0.85
sources:
  - name: directory
    type: jsondir
    endpoint: https://directory.example/companies.json
store:
  driver: none
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(content), 0o644))
	chdir(t, dir)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 250, cfg.Fetch.PerHostDelayMS)
	assert.Equal(t, 0.85, cfg.Dedup.Threshold)
	require.Len(t, cfg.Sources, 1)
	assert.Equal(t, "directory", cfg.Sources[0].Name)
	assert.Equal(t, "none", cfg.Store.Driver)
}

func TestLoadEnvOverride(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("LEADSCOUT_FETCH_MAX_ATTEMPTS", "5")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 5, cfg.Fetch.MaxAttempts)
}

func TestValidate(t *testing.T) {
	chdir(t, t.TempDir())
	cfg, err := Load()
	require.NoError(t, err)

	bad := *cfg
	bad.Fetch.PerHostDelayMS = 0
	assert.Error(t, bad.Validate())

	bad = *cfg
	bad.Dedup.Threshold = 1.2
	assert.Error(t, bad.Validate())

	bad = *cfg
	bad.Scoring.Weights.Intent = 0.9
	assert.Error(t, bad.Validate())

	bad = *cfg
	bad.Store.Driver = "redis"
	assert.Error(t, bad.Validate())

	bad = *cfg
	bad.Sources = []SourceConfig{{Name: "x"}, {Name: "x"}}
	assert.Error(t, bad.Validate())
}
