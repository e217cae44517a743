package cli

import (
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

func newExamplesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "examples",
		Short: "Show common workflow examples",
		Long:  "Display examples of common position-engine workflows.",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)

			output.Bold("Common Workflow Examples")
			output.Println()

			examples := []struct {
				title    string
				commands []string
			}{
				{
					title: "Process a Dataset",
					commands: []string{
						"posengine run --daily daily.csv                  # Weekly series resampled from daily",
						"posengine run --daily daily.csv --weekly weekly.csv",
						"posengine run --daily daily.csv -o out/pos.csv   # Choose the output file",
						"posengine run --daily daily.csv --tail 30        # Preview the last 30 rows",
					},
				},
				{
					title: "Try a Different Starting Position",
					commands: []string{
						"posengine run --daily daily.csv --initial 0.5 --no-store",
						"POSENGINE_INITIAL_POSITION=0.5 posengine run --daily daily.csv",
					},
				},
				{
					title: "Review Past Runs",
					commands: []string{
						"posengine history                                # Latest 20 runs",
						"posengine history -n 5 --json                    # Machine-readable",
						"posengine history show <run-id>                  # Executions of one run",
					},
				},
				{
					title: "Configuration",
					commands: []string{
						"posengine config path                            # Where config.toml lives",
						"posengine config show                            # Effective thresholds",
						"posengine config validate",
					},
				},
			}

			for _, ex := range examples {
				output.Bold(ex.title)
				for _, c := range ex.commands {
					parts := strings.SplitN(c, "#", 2)
					if len(parts) == 2 {
						output.Printf("  %s %s\n", output.Colored(strings.TrimSpace(parts[0]), color.FgCyan), output.Colored(strings.TrimSpace(parts[1]), color.Faint))
					} else {
						output.Printf("  %s\n", output.Colored(c, color.FgCyan))
					}
				}
				output.Println()
			}

			return nil
		},
	}
}
