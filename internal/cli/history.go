package cli

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"position-engine/internal/store"
	"position-engine/pkg/utils"
)

func newHistoryCmd(app *App) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recorded runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)

			s, err := app.runStore()
			if err != nil {
				return err
			}
			runs, err := s.ListRuns(cmd.Context(), store.RunFilter{Limit: limit})
			if err != nil {
				return err
			}

			if output.IsJSON() {
				return output.JSON(runs)
			}
			if len(runs) == 0 {
				output.Info("No runs recorded yet")
				return nil
			}

			table := NewTable(output, "RUN", "STARTED", "DAILY", "ROWS", "ACTIONS", "COMBINED")
			for _, r := range runs {
				table.AddRow(r.ID, FormatDateTime(r.StartedAt), filepath.Base(r.DailyPath),
					fmt.Sprint(r.Rows), fmt.Sprint(r.Executions), utils.FormatPosition(r.CombinedFinal))
			}
			table.Render()
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "maximum number of runs to list")

	cmd.AddCommand(&cobra.Command{
		Use:   "show <run-id>",
		Short: "Show the summaries and executions of a run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)

			s, err := app.runStore()
			if err != nil {
				return err
			}
			run, err := s.GetRun(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			execs, err := s.GetExecutions(cmd.Context(), run.ID)
			if err != nil {
				return err
			}

			if output.IsJSON() {
				return output.JSON(map[string]interface{}{
					"run":        run,
					"executions": execs,
				})
			}

			output.Bold("Run %s", run.ID)
			output.Printf("  Started:  %s (%s)\n", FormatDateTime(run.StartedAt), FormatDuration(run.Duration))
			output.Printf("  Daily:    %s (%d rows)\n", run.DailyPath, run.Rows)
			if run.WeeklyPath != "" {
				output.Printf("  Weekly:   %s (%d weeks)\n", run.WeeklyPath, run.Weeks)
			}
			output.Printf("  Output:   %s\n", run.OutputPath)
			output.Println()

			summary := NewTable(output, "STRATEGY", "INITIAL", "FINAL", "APPLIED/CLIPPED/SKIPPED/LOST")
			for _, sm := range run.Summaries {
				summary.AddRow(sm.Strategy, utils.FormatPosition(sm.Initial), utils.FormatPosition(sm.Final),
					FormatStatusCounts(sm.Applied, sm.Clipped, sm.Skipped, sm.Lost))
			}
			summary.Render()
			output.Println()

			table := NewTable(output, "STRATEGY", "DETECTED", "SCHEDULED", "ACTION", "REQUESTED", "APPLIED", "STATUS")
			for _, e := range execs {
				table.AddRow(e.Strategy, FormatDate(e.DetectedAt), FormatDate(e.ScheduledFor), string(e.Action),
					utils.FormatDelta(e.Requested), utils.FormatDelta(e.Applied), string(e.Status))
			}
			table.Render()
			return nil
		},
	})

	return cmd
}
