// Command posengine runs the position engine CLI.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/fatih/color"

	"position-engine/internal/cli"
	"position-engine/internal/config"
	"position-engine/internal/logging"
)

func main() {
	configDir := os.Getenv("POSENGINE_CONFIG_DIR")
	if configDir == "" {
		configDir = config.DefaultConfigDir()
	}

	cfg, err := config.Load(configDir)
	if err != nil {
		fmt.Fprintln(os.Stderr, color.RedString("Error: %v", err))
		os.Exit(1)
	}

	logger := logging.NewLoggerWithConfig(logging.LogConfig{
		Level:      cfg.Logging.Level,
		Console:    true,
		File:       cfg.Logging.File,
		FilePath:   cfg.Logging.FilePath,
		MaxSize:    cfg.Logging.MaxSize,
		MaxBackups: cfg.Logging.MaxBackups,
		MaxAge:     cfg.Logging.MaxAge,
	})

	if err := cli.NewRootCmd(cfg, configDir, logger).ExecuteContext(context.Background()); err != nil {
		logger.Debug().Err(err).Msg("Command failed")
		fmt.Fprintln(os.Stderr, color.RedString("Error: %v", err))
		os.Exit(1)
	}
}
