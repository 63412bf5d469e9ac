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
	// Change to temp dir so no chokepoint.yaml is found
	chdirTemp(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ".", cfg.Input.Dir)
	assert.Equal(t, "link.csv", cfg.Input.Links)
	assert.Equal(t, "node.csv", cfg.Input.Nodes)
	assert.Equal(t, "demand.csv", cfg.Input.Demand)
	assert.Equal(t, "zone.csv", cfg.Input.Zones)
	assert.Equal(t, "poi.csv", cfg.Input.POIs)
	assert.Equal(t, "utf-8", cfg.Input.Encoding)
	assert.Equal(t, ',', cfg.Input.DelimiterRune())
	assert.False(t, cfg.Input.Strict)
	assert.Equal(t, 30, cfg.Fetch.TimeoutSecs)
	assert.Equal(t, 3, cfg.Fetch.MaxRetries)
	assert.InDelta(t, 10.0, cfg.Analysis.CapacityFactor, 0.0001)
	assert.InDelta(t, 1.0, cfg.Analysis.OverloadThreshold, 0.0001)
	assert.Equal(t, 1, cfg.Analysis.CriticalOverloadCount)
	assert.Equal(t, 3, cfg.Analysis.CriticalDegree)
	assert.Equal(t, "default", cfg.Analysis.ZeroCapacity)
	assert.InDelta(t, 100.0, cfg.Overlay.BufferRadius, 0.0001)
	assert.Equal(t, 16, cfg.Overlay.QuadSegs)
	assert.Empty(t, cfg.Overlay.NodesCRS)
	assert.Equal(t, "table", cfg.Output.Format)
	assert.False(t, cfg.Store.Enabled)
	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.Equal(t, "chokepoint.db", cfg.Store.DatabaseURL)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
}

func TestLoadFromYAML(t *testing.T) {
	dir := chdirTemp(t)

	yaml := `
input:
  dir: Urban_Data/csv
  strict: true
analysis:
  critical_degree: 5
  zero_capacity: skip
overlay:
  buffer_radius: 250
  zones_crs: EPSG:3857
log:
  level: debug
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "chokepoint.yaml"), []byte(yaml), 0644))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "Urban_Data/csv", cfg.Input.Dir)
	assert.True(t, cfg.Input.Strict)
	assert.Equal(t, 5, cfg.Analysis.CriticalDegree)
	assert.Equal(t, "skip", cfg.Analysis.ZeroCapacity)
	assert.InDelta(t, 250.0, cfg.Overlay.BufferRadius, 0.0001)
	assert.Equal(t, "EPSG:3857", cfg.Overlay.ZonesCRS)
	assert.Equal(t, "debug", cfg.Log.Level)
	// Defaults still apply for unset values
	assert.Equal(t, "link.csv", cfg.Input.Links)
	assert.InDelta(t, 10.0, cfg.Analysis.CapacityFactor, 0.0001)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	dir := chdirTemp(t)

	yaml := `
input:
  dir: from-file
log:
  level: debug
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "chokepoint.yaml"), []byte(yaml), 0644))

	t.Setenv("CHOKEPOINT_INPUT_DIR", "from-env")
	t.Setenv("CHOKEPOINT_LOG_LEVEL", "warn")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "from-env", cfg.Input.Dir)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestLoadDotEnv(t *testing.T) {
	dir := chdirTemp(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("CHOKEPOINT_OVERLAY_POIS_CRS=EPSG:4326\n"), 0644))
	t.Cleanup(func() { os.Unsetenv("CHOKEPOINT_OVERLAY_POIS_CRS") }) //nolint:errcheck

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "EPSG:4326", cfg.Overlay.POIsCRS)
}

func TestLoadRejectsInvalid(t *testing.T) {
	chdirTemp(t)
	t.Setenv("CHOKEPOINT_ANALYSIS_ZERO_CAPACITY", "ignore")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "zero_capacity")
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Input:    InputConfig{Delimiter: ","},
			Analysis: AnalysisConfig{ZeroCapacity: "fail"},
			Overlay:  OverlayConfig{BufferRadius: 100, QuadSegs: 16},
			Store:    StoreConfig{Driver: "postgres"},
		}
	}

	assert.NoError(t, valid().Validate())

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantMsg string
	}{
		{"zero radius", func(c *Config) { c.Overlay.BufferRadius = 0 }, "buffer_radius"},
		{"no segments", func(c *Config) { c.Overlay.QuadSegs = 0 }, "quad_segs"},
		{"long delimiter", func(c *Config) { c.Input.Delimiter = ";;" }, "delimiter"},
		{"unknown driver", func(c *Config) { c.Store.Driver = "mysql" }, "store.driver"},
		{"unknown policy", func(c *Config) { c.Analysis.ZeroCapacity = "" }, "zero_capacity"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantMsg)
		})
	}
}

func TestDelimiterRune(t *testing.T) {
	assert.Equal(t, ';', InputConfig{Delimiter: ";"}.DelimiterRune())
	assert.Equal(t, ',', InputConfig{}.DelimiterRune())
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
