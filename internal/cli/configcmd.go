package cli

import (
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"position-engine/internal/config"
	"position-engine/pkg/utils"
)

func newConfigCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration management",
		Long:  "View and validate the engine configuration.",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if output.IsJSON() {
				return output.JSON(app.Config)
			}
			showConfig(output, app.Config)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Show configuration file path",
		Run: func(cmd *cobra.Command, args []string) {
			output := NewOutput(cmd)
			path := filepath.Join(app.ConfigDir, "config.toml")
			if output.IsJSON() {
				output.JSON(map[string]string{"path": path})
			} else {
				output.Println(path)
			}
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "validate",
		Short: "Validate configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if err := app.Config.Validate(); err != nil {
				output.Error("Configuration validation failed: %v", err)
				return err
			}
			if output.IsJSON() {
				output.JSON(map[string]bool{"valid": true})
			} else {
				output.Success("Configuration is valid")
			}
			return nil
		},
	})

	return cmd
}

func showConfig(output *Output, cfg *config.Config) {
	output.Bold("PCR/BBI")
	output.Printf("  Initial position:  %s (limit %s)\n", utils.FormatPosition(cfg.PCRBBI.InitialPosition), utils.FormatPosition(cfg.PCRBBI.PositionLimit))
	output.Printf("  Sell band:         percentile > %.2f, ratio > %.2f, %d+ rows\n", cfg.PCRBBI.SellPercentileAbove, cfg.PCRBBI.SellRatioAbove, cfg.PCRBBI.SellMinRun)
	output.Printf("  Buy band:          percentile < %.2f, %d+ rows\n", cfg.PCRBBI.BuyPercentileBelow, cfg.PCRBBI.BuyMinRun)
	output.Printf("  Step:              %s\n", utils.FormatPosition(cfg.PCRBBI.Delta))
	output.Println()

	output.Bold("Amplitude")
	output.Printf("  Initial position:  %s\n", utils.FormatPosition(cfg.Amplitude.InitialPosition))
	output.Printf("  Observation:       amplitude > %.2f, change < %.2f\n", cfg.Amplitude.AmplitudeAbove, cfg.Amplitude.ChangeBelow)
	output.Printf("  Hits / windows:    %d within %d days, timeout %d days\n", cfg.Amplitude.RequiredHits, cfg.Amplitude.ConfirmWindowDays, cfg.Amplitude.TimeoutDays)
	output.Printf("  Step:              %s\n", utils.FormatPosition(cfg.Amplitude.Delta))
	output.Println()

	output.Bold("Weekly")
	output.Printf("  Initial position:  %s\n", utils.FormatPosition(cfg.Weekly.InitialPosition))
	output.Printf("  Mark:              close x %.2f, warning %d weeks\n", cfg.Weekly.MarkMultiplier, cfg.Weekly.WarningWeeks)
	output.Printf("  MACD above:        %.2f\n", cfg.Weekly.MACDAbove)
	output.Printf("  Step:              %s\n", utils.FormatPosition(cfg.Weekly.Delta))
	output.Println()

	output.Bold("Accumulation")
	output.Printf("  Trigger:           score > %.0f\n", cfg.Accumulation.ScoreAbove)
	output.Printf("  Exits:             +%s full, +%s partial (%s), %d days max\n",
		utils.FormatPosition(cfg.Accumulation.FullExitGain), utils.FormatPosition(cfg.Accumulation.PartialExitGain),
		utils.FormatPosition(cfg.Accumulation.PartialFraction), cfg.Accumulation.MaxHoldDays)
	output.Println()

	output.Bold("Output")
	output.Printf("  Combined:          %s = %s\n", cfg.Combine.Output, strings.Join(cfg.Combine.Totals, " + "))
	output.Printf("  Run history:       %v (%s)\n", cfg.Store.Enabled, cfg.Store.Path)
	output.Printf("  Log level:         %s\n", cfg.Logging.Level)
}
