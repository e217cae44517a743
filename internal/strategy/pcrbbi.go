package strategy

import (
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"position-engine/internal/analysis"
	"position-engine/internal/calendar"
	"position-engine/internal/config"
	"position-engine/internal/logging"
	"position-engine/internal/models"
)

// PCR/BBI output labels.
const (
	LabelPCRSellBand = "pcr_bbi_sell_band"
	LabelPCRBuyBand  = "pcr_bbi_buy_band"
	LabelPCRSignal   = "pcr_bbi_signal"
)

type pendingAction struct {
	action   models.Action
	detected time.Time
}

// PCRBBI trades close/BBI crosses that follow put/call-ratio extremes.
//
// A sell band is a run of rows where the PCR percentile and the PCR ratio are
// both high; a buy band is a run where the percentile is low. The first
// cross-under (sell) or cross-over (buy) in the row after a band's start up to
// the row after its end schedules one NearFriday execution. Each band acts at
// most once, and a sell wins when both sides land on the same Friday.
type PCRBBI struct {
	cfg    config.PCRBBIConfig
	series *models.Series
	cal    *calendar.Calendar
	logger zerolog.Logger

	crossUnder []bool
	crossOver  []bool

	sellBands  []analysis.Band
	buyBands   []analysis.Band
	sellMember []int
	buyMember  []int
	sellWindow []int
	buyWindow  []int
	sellDone   []bool
	buyDone    []bool

	pending map[int]pendingAction
}

// NewPCRBBI detects the bands for series and prepares one pass over it.
func NewPCRBBI(series *models.Series, cal *calendar.Calendar, cfg config.PCRBBIConfig, logger zerolog.Logger) (*PCRBBI, error) {
	closes := series.Closes()
	bbi := series.Column(models.IndicatorBBI)

	crossUnder, err := analysis.DetectCross(closes, bbi, analysis.CrossUnder)
	if err != nil {
		return nil, err
	}
	crossOver, err := analysis.DetectCross(closes, bbi, analysis.CrossOver)
	if err != nil {
		return nil, err
	}

	n := series.Len()
	sellFlags := make([]bool, n)
	buyFlags := make([]bool, n)
	for i, row := range series.Rows {
		pct := row.Value(models.IndicatorPCRPercentile)
		ratio := row.Value(models.IndicatorPCR)
		sellFlags[i] = pct > cfg.SellPercentileAbove && ratio > cfg.SellRatioAbove
		buyFlags[i] = pct < cfg.BuyPercentileBelow
	}

	p := &PCRBBI{
		cfg:        cfg,
		series:     series,
		cal:        cal,
		logger:     logging.WithStrategy(logger, NamePCRBBI),
		crossUnder: crossUnder,
		crossOver:  crossOver,
		sellBands:  analysis.FindBands(sellFlags, cfg.SellMinRun),
		buyBands:   analysis.FindBands(buyFlags, cfg.BuyMinRun),
		pending:    make(map[int]pendingAction),
	}
	p.sellMember = analysis.BandIndex(n, p.sellBands)
	p.buyMember = analysis.BandIndex(n, p.buyBands)
	p.sellWindow = confirmationWindows(n, p.sellBands)
	p.buyWindow = confirmationWindows(n, p.buyBands)
	p.sellDone = make([]bool, len(p.sellBands))
	p.buyDone = make([]bool, len(p.buyBands))

	for k, b := range p.sellBands {
		logging.LogBand(p.logger, bandLabel("SellBand", k), cal.Day(b.Start), cal.Day(b.End))
	}
	for k, b := range p.buyBands {
		logging.LogBand(p.logger, bandLabel("BuyBand", k), cal.Day(b.Start), cal.Day(b.End))
	}

	return p, nil
}

// confirmationWindows maps each row to the band whose confirmation window
// (start+1 through end+1, capped at the last row) contains it, or -1.
// Bands of one kind are separated by at least one row, so windows never overlap.
func confirmationWindows(n int, bands []analysis.Band) []int {
	owner := make([]int, n)
	for i := range owner {
		owner[i] = -1
	}
	for k, b := range bands {
		last := b.End + 1
		if last > n-1 {
			last = n - 1
		}
		for i := b.Start + 1; i <= last; i++ {
			owner[i] = k
		}
	}
	return owner
}

func bandLabel(prefix string, k int) string {
	return fmt.Sprintf("%s_%d", prefix, k+1)
}

// Name returns the strategy name.
func (p *PCRBBI) Name() string {
	return NamePCRBBI
}

// SellBands returns the detected sell bands.
func (p *PCRBBI) SellBands() []analysis.Band {
	return p.sellBands
}

// BuyBands returns the detected buy bands.
func (p *PCRBBI) BuyBands() []analysis.Band {
	return p.buyBands
}

// Step advances the strategy to row i.
func (p *PCRBBI) Step(i int) StepResult {
	var res StepResult
	var signals []string

	if k := p.sellMember[i]; k >= 0 {
		res.label(LabelPCRSellBand, bandLabel("SellBand", k))
	}
	if k := p.buyMember[i]; k >= 0 {
		res.label(LabelPCRBuyBand, bandLabel("BuyBand", k))
	}

	day := p.cal.Day(i)

	if k := p.sellWindow[i]; k >= 0 && !p.sellDone[k] && p.crossUnder[i] {
		p.sellDone[k] = true
		signals = append(signals, p.schedule(&res, models.ActionSell, day))
	}
	if k := p.buyWindow[i]; k >= 0 && !p.buyDone[k] && p.crossOver[i] {
		p.buyDone[k] = true
		signals = append(signals, p.schedule(&res, models.ActionBuy, day))
	}

	if pa, ok := p.pending[i]; ok {
		delete(p.pending, i)
		res.Action = pa.action
		res.Delta = signed(pa.action, p.cfg.Delta)
		res.DetectedAt = pa.detected
		signals = append(signals, string(pa.action)+" executed")
	}

	if len(signals) > 0 {
		res.label(LabelPCRSignal, strings.Join(signals, "; "))
	}
	return res
}

func (p *PCRBBI) schedule(res *StepResult, action models.Action, day time.Time) string {
	slot := calendar.Resolve(p.cal, day, calendar.NearFriday)
	if !slot.OK {
		logging.LogSignalLost(p.logger, string(action), day, slot.Date)
		res.Lost = append(res.Lost, lost(NamePCRBBI, action, day, slot.Date, signed(action, p.cfg.Delta)))
		return fmt.Sprintf("%s lost %s", action, slot.Date.Format(dateLayout))
	}

	if existing, ok := p.pending[slot.Index]; ok {
		if existing.action == models.ActionSell || action != models.ActionSell {
			p.logger.Debug().
				Str("date", day.Format(dateLayout)).
				Str("action", string(action)).
				Str("execute_on", slot.Date.Format(dateLayout)).
				Msg("Execution date already taken")
			return fmt.Sprintf("%s superseded %s", action, slot.Date.Format(dateLayout))
		}
	}

	p.pending[slot.Index] = pendingAction{action: action, detected: day}
	logging.LogScheduled(p.logger, string(action), day, slot.Date)
	return fmt.Sprintf("%s scheduled %s", action, slot.Date.Format(dateLayout))
}
