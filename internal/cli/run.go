package cli

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"position-engine/internal/models"
	"position-engine/internal/store"
	"position-engine/internal/strategy"
	"position-engine/internal/trading"
	"position-engine/pkg/utils"
)

type runOptions struct {
	daily   string
	weekly  string
	out     string
	initial float64
	noStore bool
	tail    int
}

func newRunCmd(app *App) *cobra.Command {
	opts := &runOptions{}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run every strategy over a dataset",
		Long: `Run the weekly, PCR/BBI, accumulation and amplitude strategies over the
daily (and optionally weekly) dataset and write the position table as CSV.

Without --weekly the weekly series is resampled from the daily rows.`,
		Example: `  posengine run --daily data/daily.csv
  posengine run --daily data/daily.csv --weekly data/weekly.csv --out out/positions.csv
  posengine run --daily data/daily.csv --initial 0.5 --no-store`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("initial") {
				return runPipeline(cmd, app, opts, &opts.initial)
			}
			return runPipeline(cmd, app, opts, nil)
		},
	}

	cmd.Flags().StringVar(&opts.daily, "daily", "", "daily dataset (CSV)")
	cmd.Flags().StringVar(&opts.weekly, "weekly", "", "weekly dataset (CSV)")
	cmd.Flags().StringVarP(&opts.out, "out", "o", "", "output CSV (default: <daily>_positions.csv)")
	cmd.Flags().Float64Var(&opts.initial, "initial", app.Config.PCRBBI.InitialPosition, "initial PCR/BBI position")
	cmd.Flags().BoolVar(&opts.noStore, "no-store", false, "do not record the run in history")
	cmd.Flags().IntVar(&opts.tail, "tail", 10, "number of final rows to preview")
	cmd.MarkFlagRequired("daily")

	return cmd
}

func runPipeline(cmd *cobra.Command, app *App, opts *runOptions, initial *float64) error {
	output := NewOutput(cmd)

	cfg := *app.Config
	if initial != nil {
		cfg.PCRBBI.InitialPosition = *initial
		if err := cfg.Validate(); err != nil {
			return err
		}
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	loader := store.NewLoader(cfg.Columns, app.Logger)
	daily, err := loader.LoadDaily(opts.daily)
	if err != nil {
		return err
	}
	var weekly *models.Series
	if opts.weekly != "" {
		if weekly, err = loader.LoadWeekly(opts.weekly); err != nil {
			return err
		}
	}

	result, err := trading.NewPipeline(&cfg, app.Logger).Run(ctx, daily, weekly)
	if err != nil {
		return err
	}

	outPath := opts.out
	if outPath == "" {
		outPath = defaultOutputPath(opts.daily)
	}
	if err := store.WriteResult(outPath, result); err != nil {
		return err
	}

	if !opts.noStore && cfg.Store.Enabled {
		saveRun(ctx, app, result, store.RunMeta{DailyPath: opts.daily, WeeklyPath: opts.weekly, OutputPath: outPath})
	}

	if output.IsJSON() {
		return output.JSON(newRunReport(result, outPath))
	}
	renderRun(output, NewHighlighter(&cfg), result, outPath, opts.tail)
	return nil
}

// saveRun records the run. A history failure never fails the run.
func saveRun(ctx context.Context, app *App, result *trading.Result, meta store.RunMeta) {
	s, err := app.runStore()
	if err == nil {
		err = s.SaveRun(ctx, result, meta)
	}
	if err != nil {
		app.Logger.Warn().Err(err).Str("run_id", result.RunID).Msg("Failed to record run history")
		return
	}
	app.Logger.Debug().Str("run_id", result.RunID).Msg("Run recorded")
}

func defaultOutputPath(daily string) string {
	ext := filepath.Ext(daily)
	return strings.TrimSuffix(daily, ext) + "_positions.csv"
}

type summaryReport struct {
	Strategy string  `json:"strategy"`
	Applied  int     `json:"applied"`
	Clipped  int     `json:"clipped"`
	Skipped  int     `json:"skipped"`
	Lost     int     `json:"lost"`
	Initial  float64 `json:"initial"`
	Final    float64 `json:"final"`
}

type runReport struct {
	RunID     string          `json:"run_id"`
	Output    string          `json:"output"`
	Rows      int             `json:"rows"`
	Weeks     int             `json:"weeks"`
	Duration  string          `json:"duration"`
	Combined  float64         `json:"combined_final"`
	Summaries []summaryReport `json:"summaries"`
}

func newRunReport(result *trading.Result, outPath string) runReport {
	report := runReport{
		RunID:    result.RunID,
		Output:   outPath,
		Rows:     result.Daily.Len(),
		Weeks:    result.Weekly.Len(),
		Duration: result.Duration.String(),
	}
	if n := len(result.Combined.Totals); n > 0 {
		report.Combined = result.Combined.Totals[n-1]
	}
	for _, s := range result.Summaries {
		report.Summaries = append(report.Summaries, summaryReport(s))
	}
	return report
}

func renderRun(output *Output, hl Highlighter, result *trading.Result, outPath string, tail int) {
	output.Bold("Run %s", result.RunID)
	output.Dim("%d daily rows, %d weeks, %s", result.Daily.Len(), result.Weekly.Len(), FormatDuration(result.Duration))
	output.Println()

	summary := NewTable(output, "STRATEGY", "INITIAL", "FINAL", "APPLIED/CLIPPED/SKIPPED/LOST")
	for _, s := range result.Summaries {
		summary.AddRow(s.Strategy, utils.FormatPosition(s.Initial), utils.FormatPosition(s.Final),
			FormatStatusCounts(s.Applied, s.Clipped, s.Skipped, s.Lost))
	}
	summary.Render()
	output.Println()

	if tail > 0 {
		renderTail(output, hl, result, tail)
		output.Println()
	}

	if lost := countLost(result.Executions); lost > 0 {
		output.Warning("%d scheduled action(s) were lost because their Friday is not a trading row", lost)
	}
	output.Success("Wrote %s", outPath)
}

// renderTail prints the last rows with emphasised indicators.
func renderTail(output *Output, hl Highlighter, result *trading.Result, tail int) {
	indicators := []string{
		models.IndicatorPCRPercentile,
		models.IndicatorPCR,
		models.IndicatorAccumulation,
		models.IndicatorAmplitude,
		models.IndicatorChange,
	}
	headers := []string{"DATE", "CLOSE", "PCR%", "PCR", "ACC", "AMP", "CHG", "PCR/BBI", "ACCUM", "AMPL", "WEEKLY", strings.ToUpper(result.Combined.Name), "SIGNAL"}
	table := NewTable(output, headers...)

	start := result.Daily.Len() - tail
	if start < 0 {
		start = 0
	}
	for i := start; i < result.Daily.Len(); i++ {
		row := result.Daily.Rows[i]
		tones := hl.Tones(row)

		cells := []string{FormatDate(row.Date), FormatIndicator(row.Close)}
		for _, name := range indicators {
			cells = append(cells, output.Cell(FormatIndicator(row.Value(name)), tones[name]))
		}
		for _, name := range []string{strategy.NamePCRBBI, strategy.NameAccumulation, strategy.NameAmplitude, strategy.NameWeekly} {
			cells = append(cells, utils.FormatPosition(result.Ledgers[name].Total(i)))
		}
		cells = append(cells, utils.FormatPosition(result.Combined.Totals[i]), rowSignal(result, i))
		table.AddRow(cells...)
	}
	table.Render()
}

// rowSignal joins the non-empty signal labels of a daily row.
func rowSignal(result *trading.Result, i int) string {
	var parts []string
	for _, key := range []string{strategy.LabelPCRSignal, strategy.LabelAccumulationSignal, strategy.LabelAmplitudeCrossDown} {
		if v := result.Label(i, key); v != "" {
			parts = append(parts, v)
		}
	}
	return strings.Join(parts, "; ")
}

func countLost(execs []models.Execution) int {
	n := 0
	for _, e := range execs {
		if e.Status == models.ExecutionLost {
			n++
		}
	}
	return n
}
