package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "position-engine/internal/errors"
)

func TestDefault_IsValid(t *testing.T) {
	require.NoError(t, Default().Validate())
}

func TestLoad_CreatesTemplateAndUsesDefaults(t *testing.T) {
	dir := t.TempDir()

	cfg, err := Load(dir)
	require.NoError(t, err)

	_, statErr := os.Stat(filepath.Join(dir, "config.toml"))
	assert.NoError(t, statErr, "template should be written")
	assert.Equal(t, 0.7, cfg.PCRBBI.InitialPosition)
	assert.Equal(t, 3, cfg.PCRBBI.SellMinRun)
}

func TestLoad_TemplateRoundTrip(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.toml"), []byte(configTemplate), 0644))

	cfg, err := Load(dir)
	require.NoError(t, err)

	def := Default()
	assert.Equal(t, def.PCRBBI, cfg.PCRBBI)
	assert.Equal(t, def.Amplitude, cfg.Amplitude)
	assert.Equal(t, def.Weekly, cfg.Weekly)
	assert.Equal(t, def.Accumulation, cfg.Accumulation)
	assert.Equal(t, def.Combine, cfg.Combine)
	assert.Equal(t, def.Columns, cfg.Columns)
}

func TestLoad_OverridesFromFile(t *testing.T) {
	dir := t.TempDir()
	content := `
[pcr_bbi]
initial_position = 0.4
delta = 0.2

[columns]
date = "trade_date"
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.toml"), []byte(content), 0644))

	cfg, err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, 0.4, cfg.PCRBBI.InitialPosition)
	assert.Equal(t, 0.2, cfg.PCRBBI.Delta)
	assert.Equal(t, "trade_date", cfg.Columns.Date)
	// Unset keys keep their defaults.
	assert.Equal(t, 0.90, cfg.PCRBBI.SellPercentileAbove)
	assert.Equal(t, "close", cfg.Columns.Close)
}

func TestLoad_EnvOverride(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("POSENGINE_INITIAL_POSITION", "0.3")

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, 0.3, cfg.PCRBBI.InitialPosition)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"initial position above limit", func(c *Config) { c.PCRBBI.InitialPosition = 1.2 }},
		{"negative initial position", func(c *Config) { c.PCRBBI.InitialPosition = -0.1 }},
		{"zero sell run", func(c *Config) { c.PCRBBI.SellMinRun = 0 }},
		{"zero required hits", func(c *Config) { c.Amplitude.RequiredHits = 0 }},
		{"partial above full", func(c *Config) { c.Accumulation.PartialExitGain = 0.2 }},
		{"too many totals", func(c *Config) { c.Combine.Totals = []string{"a", "b", "c", "d"} }},
		{"zero delta", func(c *Config) { c.Weekly.Delta = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.True(t, apperrors.Is(err, apperrors.ErrConfigInvalid))
		})
	}
}
