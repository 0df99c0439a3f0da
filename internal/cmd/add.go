package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/hargabyte/omtrack/internal/entry"
	"github.com/hargabyte/omtrack/internal/parser"
)

var (
	addStage        string
	addPercent      float64
	addGrade        int
	addGradePercent float64
	addContext      string
	addTime         string
	addBreakthrough bool
)

// addCmd represents the add command
var addCmd = &cobra.Command{
	Use:   "add",
	Short: "Append an entry to the progression log",
	Long: `Render an entry in the log's block format and append it to the
progression log. The stage and overall percent are required; grade level,
grade percent, context, and timestamp are optional.

Examples:
  omtrack add --stage "Eternal Early" --percent 42.5
  omtrack add --stage "Celestial Late" --percent 91.2 --grade 8 --grade-percent 63.1
  omtrack add --stage "Eternal Early" --percent 0.4 --breakthrough
  omtrack add --stage "Eternal Early" --percent 12 --time 2026-03-01T18:30:00Z`,
	RunE: runAdd,
}

func init() {
	rootCmd.AddCommand(addCmd)
	addCmd.Flags().StringVar(&addStage, "stage", "", "Stage name, e.g. 'Eternal Early' (required)")
	addCmd.Flags().Float64Var(&addPercent, "percent", -1, "Overall stage percent (required)")
	addCmd.Flags().IntVar(&addGrade, "grade", 0, "Grade level (G-number)")
	addCmd.Flags().Float64Var(&addGradePercent, "grade-percent", -1, "Percent within the grade level")
	addCmd.Flags().StringVar(&addContext, "context", "", "Action context line, e.g. 'after daily quests'")
	addCmd.Flags().StringVar(&addTime, "time", "", "Entry timestamp in RFC3339 (default: now)")
	addCmd.Flags().BoolVar(&addBreakthrough, "breakthrough", false, "Mark the entry as a breakthrough")
	addCmd.MarkFlagRequired("stage")
	addCmd.MarkFlagRequired("percent")
}

func runAdd(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	stage, err := entry.ParseStage(addStage)
	if err != nil {
		return err
	}
	if addPercent < 0 || addPercent > 100 {
		return fmt.Errorf("percent must be within [0, 100], got %g", addPercent)
	}

	ts := time.Now()
	if addTime != "" {
		ts, err = time.Parse(time.RFC3339, addTime)
		if err != nil {
			return fmt.Errorf("invalid --time, expected RFC3339: %w", err)
		}
	}

	e := entry.Entry{
		Timestamp:      ts,
		Stage:          stage,
		OverallPercent: addPercent,
		ActionContext:  addContext,
		Breakthrough:   addBreakthrough,
	}
	if addGrade > 0 {
		e.GradeLevel = &addGrade
	}
	if addGradePercent >= 0 {
		if addGrade <= 0 {
			return fmt.Errorf("--grade-percent requires --grade")
		}
		e.GradePercent = &addGradePercent
	}

	logPath := resolveLogPath(cfg)
	if err := parser.AppendEntry(logPath, e); err != nil {
		return err
	}

	fmt.Printf("Appended to %s:\n\n%s\n", logPath, parser.Render(e))
	return nil
}
