// Package trading provides position accounting and the pipeline that runs
// every strategy over a dataset.
package trading

import (
	"time"

	"position-engine/internal/models"
)

// Result is the outcome of one pipeline run.
type Result struct {
	RunID     string
	StartedAt time.Time
	Duration  time.Duration

	Daily  *models.Series
	Weekly *models.Series

	// Ledgers holds the per-strategy ledgers on the daily axis, keyed by
	// strategy name. The weekly entry is the projection of WeeklyLedger.
	Ledgers      map[string]*Ledger
	WeeklyLedger *Ledger
	Combined     *Combined

	// Labels and WeeklyLabels hold per-row output labels keyed by column.
	Labels       []map[string]string
	WeeklyLabels []map[string]string

	Executions []models.Execution
	Summaries  []Summary
}

// Summary counts what happened to one strategy's actions during a run.
type Summary struct {
	Strategy string
	Applied  int
	Clipped  int
	Skipped  int
	Lost     int
	Initial  float64
	Final    float64
}

// Actions returns the number of detections the strategy produced.
func (s Summary) Actions() int {
	return s.Applied + s.Clipped + s.Skipped + s.Lost
}

// Summary returns the summary for the named strategy.
func (r *Result) Summary(strategy string) (Summary, bool) {
	for _, s := range r.Summaries {
		if s.Strategy == strategy {
			return s, true
		}
	}
	return Summary{}, false
}

// Label returns the label stored for daily row i under key.
func (r *Result) Label(i int, key string) string {
	if i < 0 || i >= len(r.Labels) {
		return ""
	}
	return r.Labels[i][key]
}

// ExecutionsFor returns the executions recorded for one strategy.
func (r *Result) ExecutionsFor(strategy string) []models.Execution {
	var out []models.Execution
	for _, e := range r.Executions {
		if e.Strategy == strategy {
			out = append(out, e)
		}
	}
	return out
}
