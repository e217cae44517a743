// Package cli provides the command-line interface for the position engine.
package cli

import (
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"position-engine/internal/config"
	"position-engine/internal/logging"
	"position-engine/internal/store"
)

// Version information
const (
	Version   = "0.1.0"
	BuildDate = "2024-06-01"
)

// App holds the application dependencies.
type App struct {
	Config    *config.Config
	ConfigDir string
	Logger    zerolog.Logger
	Store     store.RunStore
}

// NewRootCmd creates the root command for the CLI.
func NewRootCmd(cfg *config.Config, configDir string, logger zerolog.Logger) *cobra.Command {
	app := &App{
		Config:    cfg,
		ConfigDir: configDir,
		Logger:    logger,
	}

	rootCmd := &cobra.Command{
		Use:   "posengine",
		Short: "Position engine - signal detection and position accounting",
		Long: `posengine replays daily and weekly market indicator tables through four
rule-based strategies and writes the resulting position ledgers.

Each strategy detects a signal, defers it to a Friday, and books a fixed
position change on that day. The output CSV carries every input column plus
per-strategy labels, deltas, totals and a combined total.

Use 'posengine run --daily FILE' to process a dataset.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			debug, _ := cmd.Flags().GetBool("debug")
			if debug {
				logging.SetDebugLevel()
				app.Logger = app.Logger.Level(zerolog.DebugLevel)
			}
			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if app.Store != nil {
				err := app.Store.Close()
				app.Store = nil
				return err
			}
			return nil
		},
	}

	rootCmd.PersistentFlags().Bool("json", false, "output in JSON format")
	rootCmd.PersistentFlags().Bool("debug", false, "enable debug logging")

	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newConfigCmd(app))
	rootCmd.AddCommand(newRunCmd(app))
	rootCmd.AddCommand(newHistoryCmd(app))
	rootCmd.AddCommand(newExamplesCmd())

	return rootCmd
}

// runStore opens the run-history store on first use.
func (a *App) runStore() (store.RunStore, error) {
	if a.Store != nil {
		return a.Store, nil
	}
	if err := os.MkdirAll(filepath.Dir(a.Config.Store.Path), 0755); err != nil {
		return nil, err
	}
	s, err := store.NewSQLiteStore(a.Config.Store.Path)
	if err != nil {
		return nil, err
	}
	a.Logger.Debug().Str("path", a.Config.Store.Path).Msg("SQLite store initialized")
	a.Store = s
	return s, nil
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			output := NewOutput(cmd)
			if output.IsJSON() {
				output.JSON(map[string]string{
					"version":    Version,
					"build_date": BuildDate,
				})
			} else {
				output.Printf("posengine v%s\n", Version)
				output.Dim("Build date: %s", BuildDate)
			}
		},
	}
}
