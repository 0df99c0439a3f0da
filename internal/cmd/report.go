package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hargabyte/omtrack/internal/parser"
	"github.com/hargabyte/omtrack/internal/report"
)

var (
	reportWindowDays float64
	reportExportPath string
)

// reportCmd represents the report command
var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Full progression report",
	Long: `Generate the full progression report: overall state, per-stage
statistics, grade levels, recent rate, breakthrough forecast, efficiency,
and anomalies.

Examples:
  omtrack report                       # Human-readable report
  omtrack report --format json         # Structured report
  omtrack report --window 14           # Rate over the last two weeks
  omtrack report --export entries.json # Also export parsed records`,
	RunE: runReport,
}

func init() {
	rootCmd.AddCommand(reportCmd)
	reportCmd.Flags().Float64Var(&reportWindowDays, "window", 0, "Trailing rate window in days (default: configured window)")
	reportCmd.Flags().StringVar(&reportExportPath, "export", "", "Also write parsed records to a JSON file")
}

func runReport(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	a, err := loadAnalyzer(cfg)
	if err != nil {
		return err
	}

	window := cfg.Analyze.RateWindowDays
	if reportWindowDays > 0 {
		window = reportWindowDays
	}

	if reportExportPath != "" {
		if err := parser.WriteJSON(reportExportPath, a.Entries()); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Exported %d entries to %s\n\n", len(a.Entries()), reportExportPath)
	}

	summary := report.BuildSummary(a, window)
	return printStructured(summary, func() string {
		return report.Render(summary)
	})
}
