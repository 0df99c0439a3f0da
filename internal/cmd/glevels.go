package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

// glevelsCmd represents the glevels command
var glevelsCmd = &cobra.Command{
	Use:   "glevels",
	Short: "Grade level dwell times and progress",
	Long: `Show per grade level statistics: how long each (stage, G-level) pair
was dwelt at and the grade-percent progress observed in it.

Examples:
  omtrack glevels
  omtrack glevels --format json`,
	RunE: runGlevels,
}

func init() {
	rootCmd.AddCommand(glevelsCmd)
}

func runGlevels(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	a, err := loadAnalyzer(cfg)
	if err != nil {
		return err
	}

	stats := a.GradeLevelStatistics()

	return printStructured(stats, func() string {
		if len(stats) == 0 {
			return "No grade level observations in log.\n"
		}
		var b strings.Builder
		for _, g := range stats {
			fmt.Fprintf(&b, "%s G%d\n", g.Stage, g.GradeLevel)
			fmt.Fprintf(&b, "  entries:  %d\n", g.EntryCount)
			fmt.Fprintf(&b, "  dwell:    %.1f hours (%.1f days)\n", g.DwellHours, g.DwellDays)
			if g.StartPercent != nil && g.EndPercent != nil {
				fmt.Fprintf(&b, "  percent:  %.2f%% -> %.2f%% (+%.2f%%)\n",
					*g.StartPercent, *g.EndPercent, g.PercentProgress)
			}
			b.WriteString("\n")
		}
		return b.String()
	})
}
