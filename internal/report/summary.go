package report

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/hargabyte/omtrack/internal/analyze"
	"github.com/hargabyte/omtrack/internal/entry"
)

// timeFormat is the display format for report timestamps.
const timeFormat = "January 2, 2006 3:04 PM"

// BuildSummary assembles the structured summary report from analyzer
// results. rateWindowDays bounds the recent-rate and prediction windows
// (<= 0 for unbounded).
func BuildSummary(a *analyze.Analyzer, rateWindowDays float64) *SummaryData {
	entries := a.Entries()
	data := &SummaryData{
		Report: Header{
			Type:        ReportTypeSummary,
			GeneratedAt: time.Now(),
			EntryCount:  len(entries),
		},
	}
	if len(entries) == 0 {
		data.RecentRateNote = "insufficient data: the log has no entries"
		data.PredictionNote = "insufficient data: the log has no entries"
		return data
	}

	first := entries[0]
	latest := entries[len(entries)-1]
	overall := &Overall{
		StartedAt:      first.Timestamp,
		LatestAt:       latest.Timestamp,
		DaysTracked:    latest.Timestamp.Sub(first.Timestamp).Hours() / 24,
		CurrentStage:   latest.Stage.String(),
		CurrentPercent: latest.OverallPercent,
		CurrentGrade:   latest.GradeLevel,
		GradePercent:   latest.GradePercent,
	}
	if abs, err := entry.AbsolutePercent(latest.Stage, latest.OverallPercent); err == nil {
		overall.AbsolutePercent = abs
	}
	for _, e := range entries {
		if e.Breakthrough {
			overall.Breakthroughs++
		}
	}
	data.Overall = overall

	for _, stage := range entry.Stages() {
		stats, err := a.StageStatistics(stage)
		if err != nil {
			continue // not yet observed; rendered as such
		}
		data.Stages = append(data.Stages, stats)
	}

	data.GradeLevels = a.GradeLevelStatistics()
	data.Efficiency = a.EfficiencyMetrics()

	if rate, err := a.ProgressionRate(rateWindowDays); err != nil {
		data.RecentRateNote = noteFor(err)
	} else {
		data.RecentRate = &rate
	}

	if pred, err := a.PredictBreakthrough(latest.Stage, rateWindowDays); err != nil {
		data.PredictionNote = noteFor(err)
	} else {
		data.Prediction = &pred
	}

	for _, t := range a.BackwardTransitions() {
		data.Anomalies = append(data.Anomalies, fmt.Sprintf(
			"backward stage transition: %s (%s) -> %s (%s)",
			t.From.Stage, t.From.Timestamp.Format(timeFormat),
			t.To.Stage, t.To.Timestamp.Format(timeFormat)))
	}

	return data
}

// noteFor converts analyzer error conditions into the explicit markers the
// report renders instead of omitting a section.
func noteFor(err error) string {
	var nf *analyze.NotFoundError
	if errors.As(err, &nf) {
		return "not yet observed: " + nf.What
	}
	var und *analyze.UndeterminedError
	if errors.As(err, &und) {
		return "insufficient data: " + und.Reason
	}
	return err.Error()
}

// Render formats the summary as a multi-section text report.
func Render(data *SummaryData) string {
	var b strings.Builder
	rule := strings.Repeat("=", 60)

	b.WriteString(rule + "\n")
	b.WriteString("PROGRESSION ANALYSIS REPORT\n")
	b.WriteString(rule + "\n\n")

	b.WriteString("OVERALL PROGRESS:\n")
	if data.Overall == nil {
		b.WriteString("  insufficient data: the log has no entries\n\n")
	} else {
		o := data.Overall
		fmt.Fprintf(&b, "  Started: %s\n", o.StartedAt.Format(timeFormat))
		fmt.Fprintf(&b, "  Latest: %s\n", o.LatestAt.Format(timeFormat))
		fmt.Fprintf(&b, "  Days Tracked: %.1f\n", o.DaysTracked)
		fmt.Fprintf(&b, "  Current Stage: %s (%.1f%%)\n", o.CurrentStage, o.CurrentPercent)
		if o.CurrentGrade != nil {
			if o.GradePercent != nil {
				fmt.Fprintf(&b, "  Current Grade: G%d (%.1f%%)\n", *o.CurrentGrade, *o.GradePercent)
			} else {
				fmt.Fprintf(&b, "  Current Grade: G%d\n", *o.CurrentGrade)
			}
		}
		fmt.Fprintf(&b, "  Journey Progress: %.2f%%\n", o.AbsolutePercent)
		if o.Breakthroughs > 0 {
			fmt.Fprintf(&b, "  Breakthroughs Logged: %d\n", o.Breakthroughs)
		}
		b.WriteString("\n")
	}

	b.WriteString("STAGE PROGRESSION:\n")
	seen := make(map[string]bool)
	for _, s := range data.Stages {
		seen[s.Stage] = true
		fmt.Fprintf(&b, "  %s:\n", s.Stage)
		fmt.Fprintf(&b, "    Entries: %d over %.1f days\n", s.EntryCount, s.SpanDays)
		fmt.Fprintf(&b, "    Progress: %.1f%% -> %.1f%%\n", s.StartPercent, s.EndPercent)
		if s.AvgPercentPerDay != 0 {
			fmt.Fprintf(&b, "    Avg Daily Progress: %.3f%%\n", s.AvgPercentPerDay)
		}
	}
	for _, stage := range entry.Stages() {
		if !seen[stage.String()] {
			fmt.Fprintf(&b, "  %s: not yet observed\n", stage)
		}
	}
	b.WriteString("\n")

	b.WriteString("GRADE LEVELS:\n")
	if len(data.GradeLevels) == 0 {
		b.WriteString("  insufficient data: no grade lines in the log\n")
	}
	for _, g := range data.GradeLevels {
		fmt.Fprintf(&b, "  %s G%d: %d entries, %.1f hours dwell", g.Stage, g.GradeLevel, g.EntryCount, g.DwellHours)
		if g.StartPercent != nil && g.EndPercent != nil {
			fmt.Fprintf(&b, ", %.1f%% -> %.1f%%", *g.StartPercent, *g.EndPercent)
		}
		b.WriteString("\n")
	}
	b.WriteString("\n")

	b.WriteString("RECENT PROGRESSION:\n")
	if data.RecentRate == nil {
		fmt.Fprintf(&b, "  %s\n", data.RecentRateNote)
	} else {
		r := data.RecentRate
		fmt.Fprintf(&b, "  Stage: %s\n", r.Stage)
		fmt.Fprintf(&b, "  Period: %.1f days (%d entries)\n", r.PeriodDays, r.EntryCount)
		fmt.Fprintf(&b, "  Progress: %.1f%% -> %.1f%%\n", r.StartPercent, r.EndPercent)
		fmt.Fprintf(&b, "  Rate: %.3f%% per day\n", r.PercentPerDay)
		if r.Segmented {
			b.WriteString("  note: window crossed a stage transition; rate uses the post-transition segment only\n")
		}
	}
	b.WriteString("\n")

	b.WriteString("BREAKTHROUGH FORECAST:\n")
	if data.Prediction == nil {
		fmt.Fprintf(&b, "  cannot predict: %s\n", data.PredictionNote)
	} else {
		p := data.Prediction
		fmt.Fprintf(&b, "  %s reaches %.0f%% around %s\n", p.Stage, p.TargetPercent, p.PredictedAt.Format(timeFormat))
		fmt.Fprintf(&b, "  Remaining: %.1f%% at %.3f%%/day (%.1f days)\n", p.RemainingPercent, p.PercentPerDay, p.DaysNeeded)
	}
	b.WriteString("\n")

	b.WriteString("EFFICIENCY BY STAGE:\n")
	if len(data.Efficiency) == 0 {
		b.WriteString("  insufficient data: need at least two entries with forward progress in a stage\n")
	}
	for _, e := range data.Efficiency {
		fmt.Fprintf(&b, "  %s:\n", e.Stage)
		fmt.Fprintf(&b, "    Hours per 1%% progress: %.2f\n", e.HoursPerPercent)
		fmt.Fprintf(&b, "    Progress per day: %.3f%%\n", e.PercentPerDay)
		if e.BurnIntervals > 0 {
			fmt.Fprintf(&b, "    Countdown burn: %.2f game hours per real hour\n", e.GameHoursPerRealHour)
		}
	}

	if len(data.Anomalies) > 0 {
		b.WriteString("\nANOMALIES:\n")
		for _, an := range data.Anomalies {
			fmt.Fprintf(&b, "  %s\n", an)
		}
	}

	b.WriteString("\n" + rule + "\n")
	return b.String()
}
