package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func chdirTemp(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) }) //nolint:errcheck
	return dir
}

func TestLoadDefaults(t *testing.T) {
	// Change to temp dir so no config.yaml is found
	chdirTemp(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 1000, cfg.Extract.BatchSize)
	assert.Equal(t, 500, cfg.Extract.TagsMaxLen)
	assert.Equal(t, "号", cfg.Extract.HouseNumberSuffix)
	assert.Empty(t, cfg.Classify.RulesFile)
	assert.Equal(t, 20, cfg.Search.DefaultLimit)
	assert.InDelta(t, 5000, cfg.Search.DefaultRadiusM, 0.001)
	assert.InDelta(t, 50000, cfg.Search.MaxRadiusM, 0.001)
	assert.Equal(t, "poi_data.db", cfg.Store.Path)
	assert.Equal(t, "1.0", cfg.Store.Version)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
	assert.NoError(t, cfg.Validate())
}

func TestLoadFromYAML(t *testing.T) {
	dir := chdirTemp(t)

	yaml := `
extract:
  batch_size: 250
  house_number_suffix: ""
classify:
  rules_file: rules.yaml
log:
  level: debug
  format: json
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 250, cfg.Extract.BatchSize)
	assert.Equal(t, "", cfg.Extract.HouseNumberSuffix)
	assert.Equal(t, "rules.yaml", cfg.Classify.RulesFile)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	// Defaults still apply for unset values
	assert.Equal(t, 500, cfg.Extract.TagsMaxLen)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	dir := chdirTemp(t)

	yaml := `
extract:
  batch_size: 250
log:
  level: debug
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	t.Setenv("AMAP_EXTRACT_BATCH_SIZE", "5000")
	t.Setenv("AMAP_LOG_LEVEL", "warn")

	cfg, err := Load()
	require.NoError(t, err)

	// Env overrides file
	assert.Equal(t, 5000, cfg.Extract.BatchSize)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestLoadEnvOverridesDefaults(t *testing.T) {
	chdirTemp(t)

	t.Setenv("AMAP_SEARCH_DEFAULT_LIMIT", "50")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 50, cfg.Search.DefaultLimit)
}

func TestLoadInvalidYAML(t *testing.T) {
	dir := chdirTemp(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("extract: [unclosed"), 0644))

	_, err := Load()
	assert.Error(t, err)
}

func TestInitLoggerConsole(t *testing.T) {
	err := InitLogger(LogConfig{Level: "debug", Format: "console"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerJSON(t *testing.T) {
	err := InitLogger(LogConfig{Level: "info", Format: "json"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerInvalidLevel(t *testing.T) {
	err := InitLogger(LogConfig{Level: "invalid", Format: "json"})
	assert.Error(t, err)
}

// validDefaults returns a Config with all defaults populated for validation tests.
func validDefaults() *Config {
	cfg := &Config{}
	cfg.Extract.BatchSize = 1000
	cfg.Extract.TagsMaxLen = 500
	cfg.Search.DefaultLimit = 20
	cfg.Search.DefaultRadiusM = 5000
	cfg.Search.MaxRadiusM = 50000
	cfg.Store.Version = "1.0"
	return cfg
}

func TestValidate_Defaults(t *testing.T) {
	assert.NoError(t, validDefaults().Validate())
}

func TestValidate_ReportsAllProblems(t *testing.T) {
	cfg := validDefaults()
	cfg.Extract.BatchSize = 0
	cfg.Search.DefaultLimit = -1
	cfg.Store.Version = ""

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "extract.batch_size must be at least 1")
	assert.Contains(t, err.Error(), "search.default_limit must be at least 1")
	assert.Contains(t, err.Error(), "store.version is required")
}

func TestValidate_RadiusOrder(t *testing.T) {
	cfg := validDefaults()
	cfg.Search.MaxRadiusM = 1000

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "search.max_radius_m")
}

func TestValidate_RadiusCeiling(t *testing.T) {
	cfg := validDefaults()
	cfg.Search.MaxRadiusM = 100000

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "must not exceed 50000")
}
