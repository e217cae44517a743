package strategy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"position-engine/internal/calendar"
	"position-engine/internal/config"
	"position-engine/internal/models"
)

// fakeLedger is a clamped running total for driving strategies in tests.
type fakeLedger struct {
	initial float64
	deltas  []float64
	totals  []float64
}

func newFakeLedger(initial float64) *fakeLedger {
	return &fakeLedger{initial: initial}
}

func (f *fakeLedger) Initial() float64    { return f.initial }
func (f *fakeLedger) Delta(i int) float64 { return f.deltas[i] }

func (f *fakeLedger) Total(i int) float64 {
	if i < 0 {
		return f.initial
	}
	return f.totals[i]
}

func (f *fakeLedger) apply(delta float64) {
	prev := f.Total(len(f.totals) - 1)
	next := clamp(prev+delta, 0, 1)
	f.deltas = append(f.deltas, next-prev)
	f.totals = append(f.totals, next)
}

// runAccumulation drives the strategy with a flat PCR/BBI ledger at 0.7.
func runAccumulation(t *testing.T, closes, scores []float64) ([]StepResult, *fakeLedger, *Accumulation) {
	t.Helper()
	dates := tradingDays("2024-01-01", len(closes))
	s := buildSeries(dates, closes, 100, map[string][]float64{
		models.IndicatorAccumulation: scores,
	})

	pcr := newFakeLedger(0.7)
	own := newFakeLedger(0.7)
	acc := NewAccumulation(s, calendar.FromSeries(s), config.Default().Accumulation, pcr, own, nop())

	results := make([]StepResult, len(closes))
	for i := range closes {
		pcr.apply(0)
		results[i] = acc.Step(i)
		own.apply(results[i].Total())
	}
	return results, own, acc
}

func TestAccumulation_FullExitTakesPriority(t *testing.T) {
	results, own, acc := runAccumulation(t,
		[]float64{100, 100, 110, 110},
		[]float64{90, 0, 0, 0},
	)

	assert.Equal(t, "buy", results[0].Labels[LabelAccumulationSignal])

	assert.Equal(t, models.ActionBuy, results[1].Action)
	assert.InDelta(t, 0.3, results[1].Delta, 1e-9)
	assert.InDelta(t, 1.0, own.Total(1), 1e-9)

	// 110 also satisfies the 8% rule, but the 10% rule wins.
	assert.Equal(t, models.ActionSell, results[2].Action)
	assert.InDelta(t, -0.3, results[2].Delta, 1e-9)
	assert.Equal(t, "10.00", results[2].Labels[LabelAccumulationReturn])
	assert.InDelta(t, 0.7, own.Total(2), 1e-9)

	assert.False(t, acc.Open())
	assert.Equal(t, models.ActionNone, results[3].Action)
}

func TestAccumulation_PartialThenFull(t *testing.T) {
	results, own, _ := runAccumulation(t,
		[]float64{100, 100, 108, 109, 110},
		[]float64{90, 0, 0, 0, 0},
	)

	assert.InDelta(t, -0.15, results[2].Delta, 1e-9)
	assert.Equal(t, "8.00", results[2].Labels[LabelAccumulationReturn])

	// A second 8% day does not sell again.
	assert.Equal(t, models.ActionNone, results[3].Action)

	assert.InDelta(t, -0.15, results[4].Delta, 1e-9)
	assert.Equal(t, "10.00", results[4].Labels[LabelAccumulationReturn])
	assert.InDelta(t, 0.7, own.Total(4), 1e-9)
}

func TestAccumulation_HoldingPeriodExit(t *testing.T) {
	n := 65
	closes := repeat(95, n)
	closes[0], closes[1] = 100, 100
	scores := make([]float64, n)
	scores[0] = 90

	results, _, _ := runAccumulation(t, closes, scores)

	// Entered on row 1 from a trigger on row 0; row 60 is the 61st trading
	// day counted from the trigger.
	for i := 2; i < 60; i++ {
		require.Equal(t, models.ActionNone, results[i].Action, "row %d", i)
	}
	assert.Equal(t, models.ActionSell, results[60].Action)
	assert.InDelta(t, -0.3, results[60].Delta, 1e-9)
	assert.Equal(t, "-5.00", results[60].Labels[LabelAccumulationReturn])
}

func TestAccumulation_LastRowTriggerIgnored(t *testing.T) {
	results, _, acc := runAccumulation(t,
		[]float64{100, 100},
		[]float64{0, 90},
	)
	assert.Empty(t, results[1].Labels[LabelAccumulationSignal])
	assert.False(t, acc.Open())
}

func TestAccumulation_FullPositionRetiresEntry(t *testing.T) {
	dates := tradingDays("2024-01-01", 3)
	s := buildSeries(dates, []float64{100, 100, 120}, 100, map[string][]float64{
		models.IndicatorAccumulation: {90, 0, 0},
	})
	pcr := newFakeLedger(1.0)
	own := newFakeLedger(1.0)
	acc := NewAccumulation(s, calendar.FromSeries(s), config.Default().Accumulation, pcr, own, nop())

	for i := 0; i < 3; i++ {
		pcr.apply(0)
		res := acc.Step(i)
		own.apply(res.Total())
		assert.Equal(t, models.ActionNone, res.Action, "row %d", i)
	}
	assert.False(t, acc.Open())
}

func TestCarryTotal(t *testing.T) {
	tests := []struct {
		name     string
		prev     float64
		delta    float64
		pcrTotal float64
		want     float64
	}{
		{"no change carries", 0.55, 0, 0.7, 0.55},
		{"inside range adds", 0.5, -0.1, 0.7, 0.4},
		{"sell at zero stays zero", 0, -0.1, 0.3, 0},
		{"buy at full stays full", 1, 0.1, 0.3, 1},
		{"otherwise follows pcr", 0, 0.1, 0.8, 0.8},
		{"clamped inside range", 0.95, 0.1, 1, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, carryTotal(tt.prev, tt.delta, tt.pcrTotal), 1e-9)
		})
	}
}
