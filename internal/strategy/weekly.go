package strategy

import (
	"math"
	"time"

	"github.com/rs/zerolog"

	"position-engine/internal/analysis"
	"position-engine/internal/calendar"
	"position-engine/internal/config"
	"position-engine/internal/logging"
	"position-engine/internal/models"
)

// Weekly output labels.
const (
	LabelWeeklyBBISignal  = "weekly_bbi_signal"
	LabelWeeklyMACDSignal = "weekly_macd_signal"
	LabelWeeklyNote       = "weekly_note"
)

// Weekly trades weekly close/BBI crosses with a MACD-confirmed buy.
//
// A cross-over sets a mark price above the close. Reaching the mark raises a
// warning, and a positive MACD within the warning window schedules a buy for
// next Friday. A cross-under schedules a sell for next Friday and clears the
// mark. Only Friday rows are traded.
type Weekly struct {
	cfg    config.WeeklyConfig
	series *models.Series
	cal    *calendar.Calendar
	logger zerolog.Logger

	closes    []float64
	bbi       []float64
	crossOver []bool

	mark  float64
	timer *Timer
}

// NewWeekly prepares the strategy for one pass over a weekly series.
func NewWeekly(series *models.Series, cal *calendar.Calendar, cfg config.WeeklyConfig, logger zerolog.Logger) (*Weekly, error) {
	closes := series.Closes()
	bbi := series.Column(models.IndicatorBBI)
	crossOver, err := analysis.DetectCross(closes, bbi, analysis.CrossOver)
	if err != nil {
		return nil, err
	}
	return &Weekly{
		cfg:       cfg,
		series:    series,
		cal:       cal,
		logger:    logging.WithStrategy(logger, NameWeekly),
		closes:    closes,
		bbi:       bbi,
		crossOver: crossOver,
		mark:      math.NaN(),
		timer:     NewTimer(time.Time{}),
	}, nil
}

// Name returns the strategy name.
func (w *Weekly) Name() string {
	return NameWeekly
}

// Mark returns the current mark price, NaN when unset.
func (w *Weekly) Mark() float64 {
	return w.mark
}

// Warned reports whether the mark price has been reached.
func (w *Weekly) Warned() bool {
	return w.timer.Armed
}

// Step advances the strategy to weekly row i.
func (w *Weekly) Step(i int) StepResult {
	var res StepResult
	if i == 0 {
		return res
	}

	day := w.cal.Day(i)
	if day.Weekday() != time.Friday {
		res.label(LabelWeeklyNote, "non-Friday, skipped")
		return res
	}

	t := w.timer
	if t.Armed && i-t.ArmedIdx > w.cfg.WarningWeeks {
		w.clearMark()
		if t.Pending == models.ActionBuy {
			t.Retire()
		}
	}

	if t.Due(i) {
		res.Action = t.Pending
		res.Delta = signed(t.Pending, w.cfg.Delta)
		res.DetectedAt = t.PendingFrom
		res.label(LabelWeeklyNote, string(t.Pending)+" executed")
		t.Retire()
		w.clearMark()
	}

	price := w.closes[i]
	if w.crossOver[i] {
		res.label(LabelWeeklyBBISignal, "cross_over")
		w.mark = price * w.cfg.MarkMultiplier
		t.Disarm()
	}

	if !math.IsNaN(w.mark) && !t.Armed && price >= w.mark {
		t.Arm(day, i)
		w.logger.Debug().
			Str("date", day.Format(dateLayout)).
			Float64("mark", w.mark).
			Msg("Weekly mark price reached")
	}

	macd := w.series.Rows[i].Value(models.IndicatorMACD)
	if t.Armed && i-t.ArmedIdx <= w.cfg.WarningWeeks && macd > w.cfg.MACDAbove {
		res.label(LabelWeeklyMACDSignal, "macd_buy")
		w.schedule(&res, models.ActionBuy, day, false)
	}

	if w.closes[i-1] >= w.bbi[i-1] && price < w.bbi[i] {
		res.label(LabelWeeklyBBISignal, "cross_under")
		w.schedule(&res, models.ActionSell, day, true)
		w.clearMark()
	}

	return res
}

func (w *Weekly) clearMark() {
	w.mark = math.NaN()
	w.timer.Disarm()
}

func (w *Weekly) schedule(res *StepResult, action models.Action, day time.Time, replace bool) {
	slot := calendar.Resolve(w.cal, day, calendar.NearFriday)
	if !slot.OK {
		logging.LogSignalLost(w.logger, string(action), day, slot.Date)
		res.Lost = append(res.Lost, lost(NameWeekly, action, day, slot.Date, signed(action, w.cfg.Delta)))
		return
	}
	if w.timer.Schedule(action, slot.Index, day, replace) {
		logging.LogScheduled(w.logger, string(action), day, slot.Date)
	}
}
