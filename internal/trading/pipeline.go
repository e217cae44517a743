package trading

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"position-engine/internal/analysis/indicators"
	"position-engine/internal/calendar"
	"position-engine/internal/config"
	apperrors "position-engine/internal/errors"
	"position-engine/internal/logging"
	"position-engine/internal/models"
	"position-engine/internal/strategy"
)

// fullPosition is the upper bound of every ledger except PCR/BBI, whose
// limit is configurable.
const fullPosition = 1.0

// clipTolerance absorbs the two-place rounding of the PCR/BBI total when
// deciding whether an action was clipped.
const clipTolerance = 0.005 + 1e-9

// Pipeline runs every strategy over a dataset in canonical row order.
type Pipeline struct {
	cfg    *config.Config
	logger zerolog.Logger
}

// NewPipeline creates a pipeline.
func NewPipeline(cfg *config.Config, logger zerolog.Logger) *Pipeline {
	return &Pipeline{
		cfg:    cfg,
		logger: logging.WithOperation(logger, "pipeline"),
	}
}

// step pairs a strategy with the ledger its results are applied to.
type step struct {
	strategy strategy.Strategy
	ledger   *Ledger
	logger   zerolog.Logger
}

// Run executes the weekly pass and then the daily pass. A nil weekly series
// is resampled from the daily rows. The context is checked between rows.
func (p *Pipeline) Run(ctx context.Context, daily, weekly *models.Series) (*Result, error) {
	if daily == nil || daily.Len() == 0 {
		return nil, fmt.Errorf("%w: daily series has no rows", apperrors.ErrDataNotFound)
	}

	result := &Result{
		RunID:     uuid.NewString(),
		StartedAt: time.Now(),
		Daily:     daily,
		Ledgers:   make(map[string]*Ledger),
	}
	logger := logging.WithRun(p.logger, result.RunID)

	if weekly == nil {
		weekly = Resample(daily)
		logger.Info().Int("weeks", weekly.Len()).Msg("No weekly input, resampled from daily rows")
	}
	result.Weekly = weekly

	p.fillIndicators(logger, daily, false)
	p.fillIndicators(logger, weekly, true)

	summaries := make(map[string]*Summary)

	weeklyLedger, err := p.runWeekly(ctx, logger, weekly, result, summaries)
	if err != nil {
		return nil, err
	}
	result.WeeklyLedger = weeklyLedger

	if err := p.runDaily(ctx, logger, daily, result, summaries); err != nil {
		return nil, err
	}

	projected, err := Project(weeklyLedger, daily.Dates(), fullPosition)
	if err != nil {
		return nil, err
	}
	result.Ledgers[strategy.NameWeekly] = projected

	combined, err := p.combine(result)
	if err != nil {
		return nil, err
	}
	result.Combined = combined

	for _, name := range []string{strategy.NamePCRBBI, strategy.NameAccumulation, strategy.NameAmplitude, strategy.NameWeekly} {
		s := summaries[name]
		s.Final = result.Ledgers[name].Current()
		result.Summaries = append(result.Summaries, *s)
	}

	result.Duration = time.Since(result.StartedAt)
	logger.Info().
		Int("rows", daily.Len()).
		Int("weeks", weekly.Len()).
		Int("executions", len(result.Executions)).
		Dur("duration", result.Duration).
		Msg("Run complete")

	return result, nil
}

func (p *Pipeline) fillIndicators(logger zerolog.Logger, s *models.Series, weekly bool) {
	if computed, err := indicators.EnsureBBI(s); computed {
		logIndicatorFill(logger, s.Name, models.IndicatorBBI, err)
	}
	if weekly {
		if computed, err := indicators.EnsureMACD(s); computed {
			logIndicatorFill(logger, s.Name, models.IndicatorMACD, err)
		}
	}
}

func logIndicatorFill(logger zerolog.Logger, series, name string, err error) {
	if err != nil {
		logger.Warn().Err(err).Str("series", series).Str("indicator", name).
			Msg("Too few rows to compute indicator, column left empty")
		return
	}
	logger.Info().Str("series", series).Str("indicator", name).Msg("Indicator computed from closes")
}

func (p *Pipeline) runWeekly(ctx context.Context, logger zerolog.Logger, weekly *models.Series, result *Result, summaries map[string]*Summary) (*Ledger, error) {
	cal := calendar.FromSeries(weekly)
	ledger, err := NewLedger(strategy.NameWeekly, weekly.Dates(), p.cfg.Weekly.InitialPosition, fullPosition, Unrounded)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrConfigInvalid, err)
	}
	summaries[strategy.NameWeekly] = &Summary{Strategy: strategy.NameWeekly, Initial: ledger.Initial()}

	w, err := strategy.NewWeekly(weekly, cal, p.cfg.Weekly, logger)
	if err != nil {
		return nil, err
	}

	result.WeeklyLabels = make([]map[string]string, weekly.Len())
	st := step{strategy: w, ledger: ledger, logger: logging.WithStrategy(logger, strategy.NameWeekly)}
	for i := 0; i < weekly.Len(); i++ {
		if err := ctx.Err(); err != nil {
			return nil, apperrors.Wrap(err, "weekly pass interrupted")
		}
		res := w.Step(i)
		result.WeeklyLabels[i] = res.Labels
		if err := p.apply(st, i, cal.Day(i), res, result, summaries); err != nil {
			return nil, err
		}
	}
	return ledger, nil
}

func (p *Pipeline) runDaily(ctx context.Context, logger zerolog.Logger, daily *models.Series, result *Result, summaries map[string]*Summary) error {
	cal := calendar.FromSeries(daily)
	dates := daily.Dates()

	pcrLedger, err := NewLedger(strategy.NamePCRBBI, dates, p.cfg.PCRBBI.InitialPosition, p.cfg.PCRBBI.PositionLimit, PositionPlaces)
	if err != nil {
		return fmt.Errorf("%w: %v", apperrors.ErrConfigInvalid, err)
	}
	accLedger, err := NewLedger(strategy.NameAccumulation, dates, p.cfg.PCRBBI.InitialPosition, fullPosition, Unrounded)
	if err != nil {
		return fmt.Errorf("%w: %v", apperrors.ErrConfigInvalid, err)
	}
	ampLedger, err := NewLedger(strategy.NameAmplitude, dates, p.cfg.Amplitude.InitialPosition, fullPosition, Unrounded)
	if err != nil {
		return fmt.Errorf("%w: %v", apperrors.ErrConfigInvalid, err)
	}

	pcr, err := strategy.NewPCRBBI(daily, cal, p.cfg.PCRBBI, logger)
	if err != nil {
		return err
	}
	acc := strategy.NewAccumulation(daily, cal, p.cfg.Accumulation, pcrLedger, accLedger, logger)
	amp, err := strategy.NewAmplitude(daily, cal, p.cfg.Amplitude, logger)
	if err != nil {
		return err
	}

	// Accumulation reads the PCR/BBI row result, so order matters.
	steps := []step{
		{strategy: pcr, ledger: pcrLedger},
		{strategy: acc, ledger: accLedger},
		{strategy: amp, ledger: ampLedger},
	}
	for k := range steps {
		name := steps[k].strategy.Name()
		steps[k].logger = logging.WithStrategy(logger, name)
		summaries[name] = &Summary{Strategy: name, Initial: steps[k].ledger.Initial()}
		result.Ledgers[name] = steps[k].ledger
	}

	result.Labels = make([]map[string]string, daily.Len())
	for i := 0; i < daily.Len(); i++ {
		if err := ctx.Err(); err != nil {
			return apperrors.Wrap(err, "daily pass interrupted")
		}
		labels := make(map[string]string)
		for _, st := range steps {
			res := st.strategy.Step(i)
			for k, v := range res.Labels {
				labels[k] = v
			}
			if err := p.apply(st, i, cal.Day(i), res, result, summaries); err != nil {
				return err
			}
		}
		result.Labels[i] = labels
	}
	return nil
}

// apply books one step result on its ledger and records the outcome.
func (p *Pipeline) apply(st step, i int, date time.Time, res strategy.StepResult, result *Result, summaries map[string]*Summary) error {
	name := st.strategy.Name()
	summary := summaries[name]

	for _, e := range res.Lost {
		summary.Lost++
		result.Executions = append(result.Executions, e)
	}

	applied, err := st.ledger.Apply(i, res.Total())
	if err != nil {
		return err
	}
	if res.Action == models.ActionNone {
		return nil
	}

	actionApplied := applied - res.Carry
	exec := models.Execution{
		Strategy:     name,
		DetectedAt:   res.DetectedAt,
		ScheduledFor: date,
		Action:       res.Action,
		Requested:    res.Delta,
		Applied:      actionApplied,
	}

	switch {
	case math.Abs(applied-res.Total()) <= clipTolerance:
		exec.Status = models.ExecutionApplied
		summary.Applied++
		logging.LogExecution(st.logger, string(res.Action), date, res.Delta, actionApplied, st.ledger.Current())
	case math.Abs(actionApplied) <= clipTolerance:
		exec.Status = models.ExecutionSkipped
		exec.Reason = "position already at limit"
		summary.Skipped++
		logging.LogClipped(st.logger, string(res.Action), date, res.Delta, actionApplied, st.ledger.Current())
	default:
		exec.Status = models.ExecutionClipped
		exec.Reason = "position clamped to limit"
		summary.Clipped++
		logging.LogClipped(st.logger, string(res.Action), date, res.Delta, actionApplied, st.ledger.Current())
	}

	result.Executions = append(result.Executions, exec)
	return nil
}

// combine sums the configured total columns.
func (p *Pipeline) combine(result *Result) (*Combined, error) {
	ledgers := make([]*Ledger, 0, len(p.cfg.Combine.Totals))
	for _, column := range p.cfg.Combine.Totals {
		name := strings.TrimSuffix(column, "_total")
		l, ok := result.Ledgers[name]
		if !ok {
			return nil, fmt.Errorf("%w: %v", apperrors.ErrConfigInvalid,
				apperrors.NewValidationError("combine.totals", column, "unknown total column"))
		}
		ledgers = append(ledgers, l)
	}
	return Combine(p.cfg.Combine.Output, ledgers...)
}
