package strategy

import (
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"position-engine/internal/analysis"
	"position-engine/internal/calendar"
	"position-engine/internal/config"
	"position-engine/internal/logging"
	"position-engine/internal/models"
)

// Amplitude output labels.
const (
	LabelAmplitudeWarning         = "amplitude_warning"
	LabelAmplitudeAnchorDistance  = "amplitude_anchor_distance"
	LabelAmplitudeWarningDistance = "amplitude_warning_distance"
	LabelAmplitudeCrossDown       = "amplitude_cross_down"
)

// Amplitude sells after repeated wide down days are followed by a close
// dropping through BBI.
//
// Each wide down day (amplitude above the threshold with a negative change)
// is an observation. The first observation anchors the timer; the third arms
// it. While armed, a close/BBI cross-under within the confirmation window
// schedules a sell on the WideFriday execution date. An armed timer that sees
// no cross expires; an unarmed anchor older than the timeout resets.
type Amplitude struct {
	cfg    config.AmplitudeConfig
	series *models.Series
	cal    *calendar.Calendar
	logger zerolog.Logger

	crossDown []bool
	timer     *Timer
	sold      bool
}

// NewAmplitude prepares the strategy for one pass over series.
func NewAmplitude(series *models.Series, cal *calendar.Calendar, cfg config.AmplitudeConfig, logger zerolog.Logger) (*Amplitude, error) {
	crossDown, err := analysis.DetectCross(series.Closes(), series.Column(models.IndicatorBBI), analysis.CrossUnder)
	if err != nil {
		return nil, err
	}

	a := &Amplitude{
		cfg:       cfg,
		series:    series,
		cal:       cal,
		logger:    logging.WithStrategy(logger, NameAmplitude),
		crossDown: crossDown,
	}
	a.timer = NewTimer(time.Time{})
	if cal.Len() > 0 {
		a.timer.Reanchor(cal.Day(0))
	}
	return a, nil
}

// Name returns the strategy name.
func (a *Amplitude) Name() string {
	return NameAmplitude
}

// Timer returns a snapshot of the strategy's timer.
func (a *Amplitude) Timer() Timer {
	return *a.timer
}

// Sold reports whether a sell has been scheduled since the last timeout.
func (a *Amplitude) Sold() bool {
	return a.sold
}

// Step advances the strategy to row i.
func (a *Amplitude) Step(i int) StepResult {
	var res StepResult

	row := a.series.Rows[i]
	day := a.cal.Day(i)
	t := a.timer

	res.label(LabelAmplitudeAnchorDistance, strconv.Itoa(a.cal.Count(t.Anchor, day)))

	amp := row.Value(models.IndicatorAmplitude)
	change := row.Value(models.IndicatorChange)
	if amp > a.cfg.AmplitudeAbove && change < a.cfg.ChangeBelow && !a.sold {
		n := t.Hit()
		res.label(LabelAmplitudeWarning, "1")
		if n == 1 {
			t.Reanchor(day)
			res.label(LabelAmplitudeAnchorDistance, "anchor")
		}
		if n == a.cfg.RequiredHits {
			t.Arm(day, i)
			a.logger.Debug().
				Str("date", day.Format(dateLayout)).
				Int("observations", n).
				Msg("Amplitude warning armed")
		}
	}

	if t.Armed && a.cal.Count(t.ArmedAt, day) > a.cfg.ConfirmWindowDays {
		a.logger.Debug().
			Str("date", day.Format(dateLayout)).
			Str("armed_at", t.ArmedAt.Format(dateLayout)).
			Msg("Amplitude warning expired without confirmation")
		t.Disarm()
	}

	if !t.Armed && a.cal.Count(t.Anchor, day) > a.cfg.TimeoutDays {
		t.Reset(day)
		a.sold = false
	}

	if a.crossDown[i] {
		res.label(LabelAmplitudeCrossDown, "1")
		if t.Armed && !a.sold && a.cal.Count(t.ArmedAt, day) < a.cfg.ConfirmWindowDays {
			a.confirm(&res, day)
		}
	}

	if t.Armed {
		res.label(LabelAmplitudeWarningDistance, strconv.Itoa(a.cal.Count(t.ArmedAt, day)))
	}

	// WideFriday can schedule a Friday detection for the same row, so the
	// pending action is checked last.
	if t.Due(i) {
		res.Delta = -a.cfg.Delta
		res.Action = models.ActionSell
		res.DetectedAt = t.PendingFrom
		t.Retire()
	}

	return res
}

func (a *Amplitude) confirm(res *StepResult, day time.Time) {
	t := a.timer
	slot := calendar.Resolve(a.cal, day, calendar.WideFriday)
	if !slot.OK {
		logging.LogSignalLost(a.logger, string(models.ActionSell), day, slot.Date)
		res.Lost = append(res.Lost, lost(NameAmplitude, models.ActionSell, day, slot.Date, -a.cfg.Delta))
		return
	}
	if !t.Schedule(models.ActionSell, slot.Index, day, false) {
		a.logger.Debug().
			Str("date", day.Format(dateLayout)).
			Msg("Sell already pending, confirmation ignored")
		return
	}
	logging.LogScheduled(a.logger, string(models.ActionSell), day, slot.Date)
	t.Disarm()
	a.sold = true
}
