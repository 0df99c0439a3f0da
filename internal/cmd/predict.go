package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/hargabyte/omtrack/internal/entry"
)

var (
	predictStage      string
	predictTarget     float64
	predictWindowDays float64
)

// predictCmd represents the predict command
var predictCmd = &cobra.Command{
	Use:   "predict",
	Short: "Predict the next breakthrough date",
	Long: `Extrapolate the recent in-stage progression rate to forecast when the
stage reaches the target percent (100% by default, i.e. breakthrough).

The forecast is anchored at the stage's latest entry, so the predicted
date can never be earlier than the latest observation.

Examples:
  omtrack predict                      # Breakthrough for the current stage
  omtrack predict --target 90          # When does the stage hit 90%?
  omtrack predict --stage "Eternal Early" --window 14`,
	RunE: runPredict,
}

func init() {
	rootCmd.AddCommand(predictCmd)
	predictCmd.Flags().StringVar(&predictStage, "stage", "", "Stage to predict (default: latest observed)")
	predictCmd.Flags().Float64Var(&predictTarget, "target", 0, "Target percent within the stage (default: configured target)")
	predictCmd.Flags().Float64Var(&predictWindowDays, "window", 0, "Trailing window in days for the rate (default: configured window)")
}

func runPredict(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	a, err := loadAnalyzer(cfg)
	if err != nil {
		return err
	}

	var stage entry.Stage
	if predictStage != "" {
		stage, err = entry.ParseStage(predictStage)
		if err != nil {
			return err
		}
	} else {
		latest, ok := entry.Latest(a.Entries())
		if !ok {
			return fmt.Errorf("no entries in log")
		}
		stage = latest.Stage
	}

	target := cfg.Analyze.TargetPercent
	if predictTarget > 0 {
		target = predictTarget
	}
	window := cfg.Analyze.RateWindowDays
	if predictWindowDays > 0 {
		window = predictWindowDays
	}

	pred, err := a.PredictToTarget(stage, target, window)
	if err != nil {
		return err
	}

	return printStructured(pred, func() string {
		var b strings.Builder
		fmt.Fprintf(&b, "%s reaches %.0f%% around %s\n",
			pred.Stage, pred.TargetPercent, pred.PredictedAt.Format("January 2, 2006"))
		fmt.Fprintf(&b, "  remaining:  %.2f%%\n", pred.RemainingPercent)
		fmt.Fprintf(&b, "  rate:       %.2f%%/day (%d entries)\n", pred.PercentPerDay, pred.EntryCount)
		fmt.Fprintf(&b, "  time:       %.1f days\n", pred.DaysNeeded)
		return b.String()
	})
}
