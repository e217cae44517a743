package strategy

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"position-engine/internal/calendar"
	"position-engine/internal/config"
	"position-engine/internal/logging"
	"position-engine/internal/models"
)

// Accumulation output labels.
const (
	LabelAccumulationSignal = "accumulation_signal"
	LabelAccumulationReturn = "accumulation_return"
)

// pcrStep is the PCR/BBI strategy's default step. The carry rules below
// compare against it literally.
// TODO: derive from PCRBBIConfig.Delta once the carry rules are confirmed to
// follow a configured step.
const pcrStep = 0.1

// gainEpsilon keeps a close exactly at a target from missing it by rounding.
const gainEpsilon = 1e-9

// Accumulation swings a satellite position on top of the PCR/BBI position.
//
// Its base total follows the PCR/BBI ledger row by row. A high accumulation
// score opens an entry on the next row that tops the position up to full;
// the entry is closed by a take-profit, a partial take-profit, or a holding
// period limit.
type Accumulation struct {
	cfg    config.AccumulationConfig
	series *models.Series
	cal    *calendar.Calendar
	logger zerolog.Logger

	pcr LedgerView
	own LedgerView

	triggerIdx int
	entryIdx   int
	entryDate  time.Time
	price      float64
	size       float64
	partial    bool
}

// NewAccumulation prepares the strategy. pcr is the PCR/BBI ledger and own
// is this strategy's ledger; both must be applied through row i-1 (and pcr
// through row i) before Step(i).
func NewAccumulation(series *models.Series, cal *calendar.Calendar, cfg config.AccumulationConfig, pcr, own LedgerView, logger zerolog.Logger) *Accumulation {
	return &Accumulation{
		cfg:        cfg,
		series:     series,
		cal:        cal,
		logger:     logging.WithStrategy(logger, NameAccumulation),
		pcr:        pcr,
		own:        own,
		triggerIdx: -1,
		entryIdx:   -1,
	}
}

// Name returns the strategy name.
func (a *Accumulation) Name() string {
	return NameAccumulation
}

// Open reports whether an entry is open or waiting for its entry row.
func (a *Accumulation) Open() bool {
	return a.triggerIdx >= 0 || a.price != 0
}

// Entry returns the open entry's price and remaining size.
func (a *Accumulation) Entry() (price, size float64) {
	return a.price, a.size
}

// carryTotal derives the base total for a row from the previous total and
// the PCR/BBI ledger's change at the row.
func carryTotal(prev, pcrDelta, pcrTotal float64) float64 {
	switch {
	case pcrDelta == 0:
		return prev
	case prev > 0 && prev < 1:
		return clamp(prev+pcrDelta, 0, 1)
	case pcrDelta == -pcrStep && prev == 0:
		return 0
	case pcrDelta == pcrStep && prev == 1:
		return 1
	default:
		return pcrTotal
	}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Step advances the strategy to row i.
func (a *Accumulation) Step(i int) StepResult {
	var res StepResult

	prev := a.own.Initial()
	carried := a.pcr.Total(0)
	if i > 0 {
		prev = a.own.Total(i - 1)
		carried = carryTotal(prev, a.pcr.Delta(i), a.pcr.Total(i))
	}
	res.Carry = carried - prev

	day := a.cal.Day(i)
	price := a.series.Rows[i].Close
	wasOpen := a.Open()

	if a.triggerIdx >= 0 && i == a.triggerIdx+1 {
		a.enter(&res, i, carried, price)
	}

	if a.price != 0 && i > a.entryIdx {
		a.exit(&res, day, price)
	}

	score := a.series.Rows[i].Value(models.IndicatorAccumulation)
	if !wasOpen && score > a.cfg.ScoreAbove {
		if i < a.series.Len()-1 {
			a.triggerIdx = i
			a.entryDate = day
			res.label(LabelAccumulationSignal, "buy")
		} else {
			a.logger.Warn().
				Str("date", day.Format(dateLayout)).
				Float64("score", score).
				Msg("Entry triggered on the last row, no next row to enter on")
		}
	}

	return res
}

func (a *Accumulation) enter(res *StepResult, i int, carried, price float64) {
	a.triggerIdx = -1
	// Sized from this ledger's carried total, not the PCR/BBI total.
	size := 1 - carried
	if size <= 0 {
		a.logger.Debug().
			Str("date", a.cal.Day(i).Format(dateLayout)).
			Msg("Position already full, entry retired")
		return
	}

	a.entryIdx = i
	a.price = price
	a.size = size
	a.partial = false

	res.Delta += size
	res.Action = models.ActionBuy
	res.DetectedAt = a.entryDate
	res.label(LabelAccumulationSignal, fmt.Sprintf("entry %.2f @ %.2f", size, price))
}

func (a *Accumulation) exit(res *StepResult, day time.Time, price float64) {
	var (
		amount float64
		ret    float64
		reason string
	)

	gain := (price - a.price) / a.price
	switch {
	case gain >= a.cfg.FullExitGain-gainEpsilon:
		amount = a.size
		ret = a.cfg.FullExitGain * 100
		reason = "take profit"
	case gain >= a.cfg.PartialExitGain-gainEpsilon && !a.partial:
		amount = a.size * a.cfg.PartialFraction
		ret = a.cfg.PartialExitGain * 100
		reason = "partial take profit"
		a.partial = true
	case a.cal.Count(a.entryDate, day) > a.cfg.MaxHoldDays:
		amount = a.size
		ret = gain * 100
		reason = "holding period exit"
	default:
		return
	}

	a.size -= amount
	if a.size <= 0 || reason != "partial take profit" {
		a.closeEntry()
	}

	res.Delta -= amount
	res.Action = models.ActionSell
	res.DetectedAt = day
	res.label(LabelAccumulationSignal, fmt.Sprintf("%s %.2f", reason, amount))
	res.label(LabelAccumulationReturn, fmt.Sprintf("%.2f", ret))

	a.logger.Info().
		Str("date", day.Format(dateLayout)).
		Str("reason", reason).
		Float64("amount", amount).
		Float64("return_pct", ret).
		Msg("Accumulation exit")
}

func (a *Accumulation) closeEntry() {
	a.entryIdx = -1
	a.price = 0
	a.size = 0
	a.partial = false
}
