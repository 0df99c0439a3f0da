package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/hargabyte/omtrack/internal/chart"
	"github.com/hargabyte/omtrack/internal/entry"
)

var (
	chartOut       string
	chartTitle     string
	chartMaxPoints int
	chartStage     string
)

// chartCmd represents the chart command
var chartCmd = &cobra.Command{
	Use:   "chart [overall|stage|rate|compare]",
	Short: "Render progression charts as Mermaid text",
	Long: `Render progression data as Mermaid xychart definitions.

Chart types:
  overall   Absolute journey percent over time (default)
  stage     Within-stage percent over time (requires --stage)
  rate      Percent-per-day between consecutive entries
  compare   Average percent-per-day per stage

The output is Mermaid text; paste it into any Mermaid renderer.

Examples:
  omtrack chart
  omtrack chart rate --out rate.mmd
  omtrack chart stage --stage "Eternal Early"
  omtrack chart compare`,
	Args: cobra.MaximumNArgs(1),
	RunE: runChart,
}

func init() {
	rootCmd.AddCommand(chartCmd)
	chartCmd.Flags().StringVar(&chartOut, "out", "", "Write the chart to a file instead of stdout")
	chartCmd.Flags().StringVar(&chartTitle, "title", "", "Chart title")
	chartCmd.Flags().IntVar(&chartMaxPoints, "max-points", 0, "Maximum data points before downsampling")
	chartCmd.Flags().StringVar(&chartStage, "stage", "", "Stage for the 'stage' chart type")
}

func runChart(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	a, err := loadAnalyzer(cfg)
	if err != nil {
		return err
	}
	entries := a.Entries()
	if len(entries) == 0 {
		return fmt.Errorf("no entries in log")
	}

	opts := chart.DefaultOptions()
	if chartTitle != "" {
		opts.Title = chartTitle
	}
	if chartMaxPoints > 0 {
		opts.MaxPoints = chartMaxPoints
	}

	chartType := "overall"
	if len(args) == 1 {
		chartType = args[0]
	}

	var out string
	switch chartType {
	case "overall":
		out = chart.OverallProgression(entries, opts)
	case "stage":
		if chartStage == "" {
			return fmt.Errorf("the 'stage' chart requires --stage")
		}
		stage, err := entry.ParseStage(chartStage)
		if err != nil {
			return err
		}
		out = chart.StageProgression(entries, stage, opts)
	case "rate":
		out = chart.DailyRate(entries, opts)
	case "compare":
		out = chart.StageComparison(a.EfficiencyMetrics(), opts)
	default:
		return fmt.Errorf("unknown chart type %q (expected overall, stage, rate, or compare)", chartType)
	}

	if chartOut != "" {
		if err := os.WriteFile(chartOut, []byte(out), 0644); err != nil {
			return fmt.Errorf("writing chart: %w", err)
		}
		fmt.Printf("Wrote chart to %s\n", chartOut)
		return nil
	}

	fmt.Print(out)
	return nil
}
