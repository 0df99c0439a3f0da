package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/hargabyte/omtrack/internal/analyze"
	"github.com/hargabyte/omtrack/internal/entry"
)

// statsCmd represents the stats command
var statsCmd = &cobra.Command{
	Use:   "stats [stage]",
	Short: "Per-stage statistics",
	Long: `Show per-stage statistics: entry count, first and last sighting,
observation span, and average percent per day.

With a stage argument, restrict output to that stage. Stage names are
case-insensitive and tolerate common misspellings.

Examples:
  omtrack stats                     # All observed stages
  omtrack stats "Eternal Early"     # One stage
  omtrack stats --format yaml`,
	Args: cobra.MaximumNArgs(1),
	RunE: runStats,
}

func init() {
	rootCmd.AddCommand(statsCmd)
}

func runStats(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	a, err := loadAnalyzer(cfg)
	if err != nil {
		return err
	}

	var all []analyze.StageStats
	if len(args) == 1 {
		stage, err := entry.ParseStage(args[0])
		if err != nil {
			return err
		}
		stats, err := a.StageStatistics(stage)
		if err != nil {
			return err
		}
		all = append(all, stats)
	} else {
		for _, st := range entry.Stages() {
			stats, err := a.StageStatistics(st)
			if err != nil {
				continue
			}
			all = append(all, stats)
		}
	}

	return printStructured(all, func() string {
		if len(all) == 0 {
			return "No entries in log.\n"
		}
		var b strings.Builder
		for _, s := range all {
			fmt.Fprintf(&b, "%s\n", s.Stage)
			fmt.Fprintf(&b, "  entries:     %d\n", s.EntryCount)
			fmt.Fprintf(&b, "  first seen:  %s\n", s.FirstSeen.Format("January 2, 2006 3:04 PM"))
			fmt.Fprintf(&b, "  last seen:   %s\n", s.LastSeen.Format("January 2, 2006 3:04 PM"))
			fmt.Fprintf(&b, "  span:        %.1f days\n", s.SpanDays)
			fmt.Fprintf(&b, "  percent:     %.2f%% -> %.2f%%\n", s.StartPercent, s.EndPercent)
			if s.AvgPercentPerDay != 0 {
				fmt.Fprintf(&b, "  avg rate:    %.2f%%/day\n", s.AvgPercentPerDay)
			}
			b.WriteString("\n")
		}
		return b.String()
	})
}
