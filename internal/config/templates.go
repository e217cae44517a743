package config

import (
	"fmt"
	"os"
	"path/filepath"
)

const configTemplate = `# Position Engine Configuration

[columns]
# Input CSV headers for each logical field
date = "date"
close = "close"
bbi = "bbi"
pcr_percentile = "pcr_percentile"
pcr = "pcr"
accumulation = "accumulation"
amplitude = "amplitude_pct"
change = "change_pct"
weekly_close = "weekly_close"
weekly_bbi = "weekly_bbi"
macd = "macd"
date_formats = ["2006-01-02", "2006/01/02", "2006/1/2", "20060102", "2006-01-02 15:04:05"]

[pcr_bbi]
# Starting position, must lie within [0, position_limit]
initial_position = 0.7
position_limit = 1.0
# Sell band: percentile above AND ratio above, for at least sell_min_run days
sell_percentile_above = 0.90
sell_ratio_above = 1.0
sell_min_run = 3
# Buy band: percentile below, for at least buy_min_run days
buy_percentile_below = 0.15
buy_min_run = 1
delta = 0.10

[amplitude]
initial_position = 0.15
# Observation: amplitude (%) above AND change (%) below
amplitude_above = 2.5
change_below = 0.0
# Observations needed before the warning arms
required_hits = 3
# Trading days to see a close/BBI cross-under after arming
confirm_window_days = 30
# Trading days after which an unarmed anchor resets
timeout_days = 60
delta = 0.15

[weekly]
initial_position = 0.0
# Mark price = close at BBI cross-over times this multiplier
mark_multiplier = 1.05
# Weeks after the warning during which MACD may confirm a buy
warning_weeks = 5
macd_above = 0.0
delta = 0.15

[accumulation]
score_above = 80.0
full_exit_gain = 0.10
partial_exit_gain = 0.08
partial_fraction = 0.5
max_hold_days = 60

[combine]
totals = ["accumulation_total", "amplitude_total", "weekly_total"]
output = "combined_total"

[logging]
# debug, info, warn, error
level = "info"
file = true
max_size = 50
max_backups = 7
max_age = 30

[store]
# Persist every run to SQLite
enabled = true
`

func createTemplateConfig(configDir, name string) error {
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	path := filepath.Join(configDir, name+".toml")
	if err := os.WriteFile(path, []byte(configTemplate), 0644); err != nil {
		return fmt.Errorf("writing config template: %w", err)
	}

	return nil
}
