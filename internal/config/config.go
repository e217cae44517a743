// Package config provides configuration management for the position engine.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/spf13/viper"

	apperrors "position-engine/internal/errors"
)

// Config holds all application configuration.
type Config struct {
	Columns      ColumnConfig       `mapstructure:"columns"`
	PCRBBI       PCRBBIConfig       `mapstructure:"pcr_bbi"`
	Amplitude    AmplitudeConfig    `mapstructure:"amplitude"`
	Weekly       WeeklyConfig       `mapstructure:"weekly"`
	Accumulation AccumulationConfig `mapstructure:"accumulation"`
	Combine      CombineConfig      `mapstructure:"combine"`
	Logging      LoggingConfig      `mapstructure:"logging"`
	Store        StoreConfig        `mapstructure:"store"`
}

// ColumnConfig maps logical fields to input CSV headers.
type ColumnConfig struct {
	Date          string   `mapstructure:"date"`
	Close         string   `mapstructure:"close"`
	BBI           string   `mapstructure:"bbi"`
	PCRPercentile string   `mapstructure:"pcr_percentile"`
	PCR           string   `mapstructure:"pcr"`
	Accumulation  string   `mapstructure:"accumulation"`
	Amplitude     string   `mapstructure:"amplitude"`
	Change        string   `mapstructure:"change"`
	WeeklyClose   string   `mapstructure:"weekly_close"`
	WeeklyBBI     string   `mapstructure:"weekly_bbi"`
	MACD          string   `mapstructure:"macd"`
	DateFormats   []string `mapstructure:"date_formats"`
}

// PCRBBIConfig holds the band-based PCR/BBI crossover parameters.
type PCRBBIConfig struct {
	InitialPosition     float64 `mapstructure:"initial_position"`
	PositionLimit       float64 `mapstructure:"position_limit"`
	SellPercentileAbove float64 `mapstructure:"sell_percentile_above"`
	SellRatioAbove      float64 `mapstructure:"sell_ratio_above"`
	SellMinRun          int     `mapstructure:"sell_min_run"`
	BuyPercentileBelow  float64 `mapstructure:"buy_percentile_below"`
	BuyMinRun           int     `mapstructure:"buy_min_run"`
	Delta               float64 `mapstructure:"delta"`
}

// AmplitudeConfig holds the amplitude-drop crossover parameters.
type AmplitudeConfig struct {
	InitialPosition   float64 `mapstructure:"initial_position"`
	AmplitudeAbove    float64 `mapstructure:"amplitude_above"`
	ChangeBelow       float64 `mapstructure:"change_below"`
	RequiredHits      int     `mapstructure:"required_hits"`
	ConfirmWindowDays int     `mapstructure:"confirm_window_days"`
	TimeoutDays       int     `mapstructure:"timeout_days"`
	Delta             float64 `mapstructure:"delta"`
}

// WeeklyConfig holds the weekly BBI/MACD parameters.
type WeeklyConfig struct {
	InitialPosition float64 `mapstructure:"initial_position"`
	MarkMultiplier  float64 `mapstructure:"mark_multiplier"`
	WarningWeeks    int     `mapstructure:"warning_weeks"`
	MACDAbove       float64 `mapstructure:"macd_above"`
	Delta           float64 `mapstructure:"delta"`
}

// AccumulationConfig holds the accumulation-value swing parameters.
type AccumulationConfig struct {
	ScoreAbove      float64 `mapstructure:"score_above"`
	FullExitGain    float64 `mapstructure:"full_exit_gain"`
	PartialExitGain float64 `mapstructure:"partial_exit_gain"`
	PartialFraction float64 `mapstructure:"partial_fraction"`
	MaxHoldDays     int     `mapstructure:"max_hold_days"`
}

// CombineConfig names the per-strategy totals summed into the combined column.
type CombineConfig struct {
	Totals []string `mapstructure:"totals"`
	Output string   `mapstructure:"output"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level      string `mapstructure:"level"`
	File       bool   `mapstructure:"file"`
	FilePath   string `mapstructure:"file_path"`
	MaxSize    int    `mapstructure:"max_size"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAge     int    `mapstructure:"max_age"`
}

// StoreConfig holds run-history storage configuration.
type StoreConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

// DefaultConfigDir returns the default configuration directory.
func DefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".config/position-engine"
	}
	return filepath.Join(home, ".config", "position-engine")
}

// Default returns the configuration used when no file overrides a value.
func Default() *Config {
	dir := DefaultConfigDir()
	return &Config{
		Columns: ColumnConfig{
			Date:          "date",
			Close:         "close",
			BBI:           "bbi",
			PCRPercentile: "pcr_percentile",
			PCR:           "pcr",
			Accumulation:  "accumulation",
			Amplitude:     "amplitude_pct",
			Change:        "change_pct",
			WeeklyClose:   "weekly_close",
			WeeklyBBI:     "weekly_bbi",
			MACD:          "macd",
			DateFormats:   []string{"2006-01-02", "2006/01/02", "2006/1/2", "20060102", "2006-01-02 15:04:05"},
		},
		PCRBBI: PCRBBIConfig{
			InitialPosition:     0.7,
			PositionLimit:       1.0,
			SellPercentileAbove: 0.90,
			SellRatioAbove:      1.0,
			SellMinRun:          3,
			BuyPercentileBelow:  0.15,
			BuyMinRun:           1,
			Delta:               0.10,
		},
		Amplitude: AmplitudeConfig{
			InitialPosition:   0.15,
			AmplitudeAbove:    2.5,
			ChangeBelow:       0,
			RequiredHits:      3,
			ConfirmWindowDays: 30,
			TimeoutDays:       60,
			Delta:             0.15,
		},
		Weekly: WeeklyConfig{
			InitialPosition: 0,
			MarkMultiplier:  1.05,
			WarningWeeks:    5,
			MACDAbove:       0,
			Delta:           0.15,
		},
		Accumulation: AccumulationConfig{
			ScoreAbove:      80,
			FullExitGain:    0.10,
			PartialExitGain: 0.08,
			PartialFraction: 0.5,
			MaxHoldDays:     60,
		},
		Combine: CombineConfig{
			Totals: []string{"accumulation_total", "amplitude_total", "weekly_total"},
			Output: "combined_total",
		},
		Logging: LoggingConfig{
			Level:      "info",
			File:       true,
			FilePath:   filepath.Join(dir, "logs", "engine.log"),
			MaxSize:    50,
			MaxBackups: 7,
			MaxAge:     30,
		},
		Store: StoreConfig{
			Enabled: true,
			Path:    filepath.Join(dir, "runs.db"),
		},
	}
}

// Load loads configuration from the specified directory.
// If configDir is empty, uses the default config directory.
func Load(configDir string) (*Config, error) {
	if configDir == "" {
		configDir = DefaultConfigDir()
	}

	cfg := Default()
	if err := loadConfigFile(configDir, "config", cfg); err != nil {
		return nil, fmt.Errorf("loading config.toml: %w", err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

func loadConfigFile(configDir, name string, target *Config) error {
	v := viper.New()
	v.SetConfigName(name)
	v.SetConfigType("toml")
	v.AddConfigPath(configDir)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			// Config file not found, create template and keep defaults
			return createTemplateConfig(configDir, name)
		}
		return err
	}

	return v.Unmarshal(target)
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("POSENGINE_INITIAL_POSITION"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.PCRBBI.InitialPosition = f
		}
	}
	if v := os.Getenv("POSENGINE_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("POSENGINE_DB_PATH"); v != "" {
		cfg.Store.Path = v
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.PCRBBI.PositionLimit <= 0 || c.PCRBBI.PositionLimit > 1 {
		return invalid("pcr_bbi.position_limit", c.PCRBBI.PositionLimit, "must be in (0, 1]")
	}
	if c.PCRBBI.InitialPosition < 0 || c.PCRBBI.InitialPosition > c.PCRBBI.PositionLimit {
		return invalid("pcr_bbi.initial_position", c.PCRBBI.InitialPosition,
			fmt.Sprintf("must be between 0 and %.2f", c.PCRBBI.PositionLimit))
	}
	if c.PCRBBI.SellMinRun < 1 || c.PCRBBI.BuyMinRun < 1 {
		return invalid("pcr_bbi.min_run", fmt.Sprintf("%d/%d", c.PCRBBI.SellMinRun, c.PCRBBI.BuyMinRun), "must be at least 1")
	}
	if c.Amplitude.InitialPosition < 0 || c.Amplitude.InitialPosition > 1 {
		return invalid("amplitude.initial_position", c.Amplitude.InitialPosition, "must be between 0 and 1")
	}
	if c.Amplitude.RequiredHits < 1 {
		return invalid("amplitude.required_hits", c.Amplitude.RequiredHits, "must be at least 1")
	}
	if c.Amplitude.ConfirmWindowDays < 1 || c.Amplitude.TimeoutDays < 1 {
		return invalid("amplitude.windows", fmt.Sprintf("%d/%d", c.Amplitude.ConfirmWindowDays, c.Amplitude.TimeoutDays), "must be positive")
	}
	if c.Weekly.InitialPosition < 0 || c.Weekly.InitialPosition > 1 {
		return invalid("weekly.initial_position", c.Weekly.InitialPosition, "must be between 0 and 1")
	}
	if c.Weekly.WarningWeeks < 0 {
		return invalid("weekly.warning_weeks", c.Weekly.WarningWeeks, "must be non-negative")
	}
	if c.Accumulation.PartialExitGain > c.Accumulation.FullExitGain {
		return invalid("accumulation.partial_exit_gain", c.Accumulation.PartialExitGain, "must not exceed full_exit_gain")
	}
	if c.Accumulation.PartialFraction <= 0 || c.Accumulation.PartialFraction > 1 {
		return invalid("accumulation.partial_fraction", c.Accumulation.PartialFraction, "must be in (0, 1]")
	}
	for _, d := range []float64{c.PCRBBI.Delta, c.Amplitude.Delta, c.Weekly.Delta} {
		if d <= 0 || d > 1 {
			return invalid("delta", d, "strategy deltas must be in (0, 1]")
		}
	}
	if len(c.Combine.Totals) == 0 || len(c.Combine.Totals) > 3 {
		return invalid("combine.totals", len(c.Combine.Totals), "must name one to three total columns")
	}
	if c.Columns.Date == "" {
		return invalid("columns.date", c.Columns.Date, "must not be empty")
	}
	return nil
}

func invalid(field string, value interface{}, message string) error {
	return fmt.Errorf("%w: %v", apperrors.ErrConfigInvalid, apperrors.NewValidationError(field, value, message))
}
