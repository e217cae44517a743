// Package logging provides structured logging functionality.
package logging

import (
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"
)

// LogConfig holds logging configuration.
type LogConfig struct {
	Level      string
	Console    bool
	File       bool
	FilePath   string
	MaxSize    int // megabytes
	MaxBackups int
	MaxAge     int // days
}

// NewLoggerWithConfig creates a new logger with the specified configuration.
func NewLoggerWithConfig(cfg LogConfig) zerolog.Logger {
	var writers []io.Writer

	if cfg.Console {
		consoleWriter := zerolog.ConsoleWriter{
			Out:        os.Stderr,
			TimeFormat: time.RFC3339,
			FormatLevel: func(i interface{}) string {
				if ll, ok := i.(string); ok {
					switch ll {
					case "debug":
						return "\033[36mDBG\033[0m"
					case "info":
						return "\033[32mINF\033[0m"
					case "warn":
						return "\033[33mWRN\033[0m"
					case "error":
						return "\033[31mERR\033[0m"
					default:
						return ll
					}
				}
				return "???"
			},
		}
		writers = append(writers, consoleWriter)
	}

	// File writer with rotation
	if cfg.File && cfg.FilePath != "" {
		logDir := filepath.Dir(cfg.FilePath)
		if err := os.MkdirAll(logDir, 0755); err == nil {
			writers = append(writers, &lumberjack.Logger{
				Filename:   cfg.FilePath,
				MaxSize:    cfg.MaxSize,
				MaxBackups: cfg.MaxBackups,
				MaxAge:     cfg.MaxAge,
				Compress:   true,
			})
		}
	}

	var writer io.Writer
	switch len(writers) {
	case 0:
		writer = io.Discard
	case 1:
		writer = writers[0]
	default:
		writer = zerolog.MultiLevelWriter(writers...)
	}

	zerolog.SetGlobalLevel(parseLevel(cfg.Level))

	return zerolog.New(writer).
		With().
		Timestamp().
		Logger()
}

func parseLevel(level string) zerolog.Level {
	switch level {
	case "debug":
		return zerolog.DebugLevel
	case "info":
		return zerolog.InfoLevel
	case "warn":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

// SetDebugLevel sets the global log level to debug.
func SetDebugLevel() {
	zerolog.SetGlobalLevel(zerolog.DebugLevel)
}

// WithStrategy adds a strategy name to the logger context.
func WithStrategy(logger zerolog.Logger, strategy string) zerolog.Logger {
	return logger.With().Str("strategy", strategy).Logger()
}

// WithOperation adds an operation name to the logger context.
func WithOperation(logger zerolog.Logger, operation string) zerolog.Logger {
	return logger.With().Str("operation", operation).Logger()
}

// WithRun adds a run ID to the logger context.
func WithRun(logger zerolog.Logger, runID string) zerolog.Logger {
	return logger.With().Str("run_id", runID).Logger()
}

const dateLayout = "2006-01-02"

// LogScheduled logs a detection that produced an execution date.
func LogScheduled(logger zerolog.Logger, action string, detected, scheduled time.Time) {
	logger.Info().
		Str("event", "scheduled").
		Str("action", action).
		Str("detected", detected.Format(dateLayout)).
		Str("execute_on", scheduled.Format(dateLayout)).
		Msg("Execution scheduled")
}

// LogExecution logs a position change applied to a ledger.
func LogExecution(logger zerolog.Logger, action string, date time.Time, requested, applied, total float64) {
	logger.Info().
		Str("event", "execution").
		Str("action", action).
		Str("date", date.Format(dateLayout)).
		Float64("requested", requested).
		Float64("applied", applied).
		Float64("total", total).
		Msg("Position adjusted")
}

// LogClipped logs an action that the ledger bounds reduced or skipped.
func LogClipped(logger zerolog.Logger, action string, date time.Time, requested, applied, total float64) {
	logger.Info().
		Str("event", "clipped").
		Str("action", action).
		Str("date", date.Format(dateLayout)).
		Float64("requested", requested).
		Float64("applied", applied).
		Float64("total", total).
		Msg("Position adjustment clipped at limit")
}

// LogSignalLost logs a detection whose execution date is not a trading row.
func LogSignalLost(logger zerolog.Logger, action string, detected, scheduled time.Time) {
	logger.Info().
		Str("event", "signal_lost").
		Str("action", action).
		Str("detected", detected.Format(dateLayout)).
		Str("execute_on", scheduled.Format(dateLayout)).
		Msg("Execution date not in dataset, signal dropped")
}

// LogBand logs a detected qualifying band.
func LogBand(logger zerolog.Logger, label string, start, end time.Time) {
	logger.Debug().
		Str("event", "band").
		Str("band", label).
		Str("start", start.Format(dateLayout)).
		Str("end", end.Format(dateLayout)).
		Msg("Band detected")
}
