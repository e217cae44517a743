// Package store provides dataset loading and run-history persistence.
package store

import (
	"context"
	"time"

	"position-engine/internal/models"
	"position-engine/internal/trading"
)

// RunStore defines the interface for run-history persistence.
type RunStore interface {
	// Runs
	SaveRun(ctx context.Context, result *trading.Result, meta RunMeta) error
	ListRuns(ctx context.Context, filter RunFilter) ([]RunRecord, error)
	GetRun(ctx context.Context, id string) (*RunRecord, error)

	// Per-row totals and executions
	GetRunRows(ctx context.Context, runID string) ([]RunRow, error)
	GetExecutions(ctx context.Context, runID string) ([]models.Execution, error)

	Close() error
}

// RunMeta describes where a run's data came from and went.
type RunMeta struct {
	DailyPath  string
	WeeklyPath string
	OutputPath string
}

// RunRecord is one stored run with its per-strategy summaries.
type RunRecord struct {
	ID            string
	StartedAt     time.Time
	Duration      time.Duration
	DailyPath     string
	WeeklyPath    string
	OutputPath    string
	Rows          int
	Weeks         int
	Executions    int
	CombinedFinal float64
	Summaries     []trading.Summary
}

// RunRow holds the ledger totals of one daily row.
type RunRow struct {
	Index        int
	Date         time.Time
	PCRBBI       float64
	Accumulation float64
	Amplitude    float64
	Weekly       float64
	Combined     float64
}

// RunFilter represents filters for listing runs.
type RunFilter struct {
	Since time.Time
	Limit int
}
