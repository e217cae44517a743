package store

import (
	"context"
	"fmt"
	"math"
	"path/filepath"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"position-engine/internal/models"
	"position-engine/internal/strategy"
	"position-engine/internal/trading"
)

// Property: for any run, saving it and reading it back yields the same
// per-row totals and the same executions in the same order.
func TestProperty_RunRoundTrip(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "runs_property.db")

	store, err := NewSQLiteStore(dbPath)
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	defer store.Close()

	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 50
	parameters.Rng.Seed(time.Now().UnixNano())

	properties := gopter.NewProperties(parameters)

	properties.Property("run round-trip: save then read produces equivalent rows", prop.ForAll(
		func(deltas []float64, execCount int) bool {
			ctx := context.Background()
			result, err := buildResult(fmt.Sprintf("run-%d", time.Now().UnixNano()), deltas, execCount)
			if err != nil {
				t.Logf("Failed to build result: %v", err)
				return false
			}

			if err := store.SaveRun(ctx, result, RunMeta{DailyPath: "daily.csv"}); err != nil {
				t.Logf("Failed to save run: %v", err)
				return false
			}

			rows, err := store.GetRunRows(ctx, result.RunID)
			if err != nil || len(rows) != len(deltas) {
				t.Logf("GetRunRows: %d rows, err %v", len(rows), err)
				return false
			}
			pcr := result.Ledgers[strategy.NamePCRBBI]
			for i, r := range rows {
				if r.Index != i || math.Abs(r.PCRBBI-pcr.Total(i)) > 1e-9 {
					t.Logf("Row mismatch at %d: %+v", i, r)
					return false
				}
				if math.Abs(r.Combined-result.Combined.Totals[i]) > 1e-9 {
					return false
				}
			}

			execs, err := store.GetExecutions(ctx, result.RunID)
			if err != nil || len(execs) != len(result.Executions) {
				return false
			}
			for i, e := range execs {
				orig := result.Executions[i]
				if e.Strategy != orig.Strategy || e.Status != orig.Status || e.Action != orig.Action {
					return false
				}
				if !e.ScheduledFor.Equal(orig.ScheduledFor) || !e.DetectedAt.Equal(orig.DetectedAt) {
					return false
				}
			}
			return true
		},
		gen.SliceOfN(15, gen.Float64Range(-0.2, 0.2)),
		gen.IntRange(0, 5),
	))

	properties.TestingRun(t)
}

// buildResult assembles a run with one ledger per strategy over weekdays
// starting 2024-01-01.
func buildResult(id string, deltas []float64, execCount int) (*trading.Result, error) {
	var dates []time.Time
	for d := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC); len(dates) < len(deltas); d = d.AddDate(0, 0, 1) {
		if d.Weekday() != time.Saturday && d.Weekday() != time.Sunday {
			dates = append(dates, d)
		}
	}

	daily := &models.Series{Name: "daily.csv", Columns: []string{"date", "close"}}
	for i, d := range dates {
		daily.Rows = append(daily.Rows, models.TradingRow{Date: d, Close: 100, Indicators: map[string]float64{}})
		daily.Raw = append(daily.Raw, map[string]string{"date": d.Format("2006-01-02"), "close": fmt.Sprint(100 + i)})
	}

	result := &trading.Result{
		RunID:     id,
		StartedAt: time.Now(),
		Daily:     daily,
		Ledgers:   make(map[string]*trading.Ledger),
	}

	names := []string{strategy.NamePCRBBI, strategy.NameAccumulation, strategy.NameAmplitude, strategy.NameWeekly}
	for _, name := range names {
		l, err := trading.NewLedger(name, dates, 0.5, 1, trading.PositionPlaces)
		if err != nil {
			return nil, err
		}
		for i, d := range deltas {
			if _, err := l.Apply(i, d); err != nil {
				return nil, err
			}
		}
		result.Ledgers[name] = l
		result.Summaries = append(result.Summaries, trading.Summary{Strategy: name, Initial: 0.5, Final: l.Current()})
	}

	combined, err := trading.Combine("combined_total",
		result.Ledgers[strategy.NameAccumulation], result.Ledgers[strategy.NameAmplitude], result.Ledgers[strategy.NameWeekly])
	if err != nil {
		return nil, err
	}
	result.Combined = combined

	for i := 0; i < execCount && i < len(dates); i++ {
		result.Executions = append(result.Executions, models.Execution{
			Strategy:     names[i%len(names)],
			DetectedAt:   dates[0],
			ScheduledFor: dates[i],
			Action:       models.ActionSell,
			Requested:    -0.1,
			Applied:      -0.1,
			Status:       models.ExecutionApplied,
		})
	}
	return result, nil
}
