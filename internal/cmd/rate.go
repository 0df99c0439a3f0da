package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/hargabyte/omtrack/internal/analyze"
	"github.com/hargabyte/omtrack/internal/entry"
)

var (
	rateStage      string
	rateWindowDays float64
)

// rateCmd represents the rate command
var rateCmd = &cobra.Command{
	Use:   "rate",
	Short: "Recent progression rate in percent per day",
	Long: `Compute the average percent-per-day over a trailing window.

The rate is computed within a single stage: entries before the most recent
stage transition are excluded even when they fall inside the window, since
overall percent resets on stage advance.

Examples:
  omtrack rate                       # Rate for the current stage
  omtrack rate --window 7            # Over the last week of entries
  omtrack rate --stage "Eternal Early"`,
	RunE: runRate,
}

func init() {
	rootCmd.AddCommand(rateCmd)
	rateCmd.Flags().StringVar(&rateStage, "stage", "", "Compute the rate for a specific stage")
	rateCmd.Flags().Float64Var(&rateWindowDays, "window", 0, "Trailing window in days (default: configured window)")
}

func runRate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	a, err := loadAnalyzer(cfg)
	if err != nil {
		return err
	}

	window := cfg.Analyze.RateWindowDays
	if rateWindowDays > 0 {
		window = rateWindowDays
	}

	var rate analyze.Rate
	if rateStage != "" {
		stage, err := entry.ParseStage(rateStage)
		if err != nil {
			return err
		}
		rate, err = a.StageRate(stage, window)
		if err != nil {
			return err
		}
	} else {
		rate, err = a.ProgressionRate(window)
		if err != nil {
			return err
		}
	}

	return printStructured(rate, func() string {
		var b strings.Builder
		fmt.Fprintf(&b, "%s: %.2f%%/day\n", rate.Stage, rate.PercentPerDay)
		fmt.Fprintf(&b, "  period:   %.1f days (%d entries)\n", rate.PeriodDays, rate.EntryCount)
		fmt.Fprintf(&b, "  percent:  %.2f%% -> %.2f%%\n", rate.StartPercent, rate.EndPercent)
		if rate.Segmented {
			b.WriteString("  note:     window cut at the last stage transition\n")
		}
		return b.String()
	})
}
