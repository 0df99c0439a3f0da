package analyze

import (
	"github.com/hargabyte/omtrack/internal/entry"
)

// StageEfficiency relates real-world elapsed time to observed progress in
// one stage, plus the burn rate of the game-reported time-remaining values.
type StageEfficiency struct {
	Stage string `json:"stage" yaml:"stage"`
	// HoursPerPercent is real hours spent per 1% of forward progress.
	// Intervals with zero or backward progress are not counted.
	HoursPerPercent float64 `json:"hours_per_percent" yaml:"hours_per_percent"`
	// PercentPerDay is the equivalent forward velocity.
	PercentPerDay float64 `json:"percent_per_day" yaml:"percent_per_day"`
	// Intervals is the number of forward-progress entry pairs measured.
	Intervals int `json:"intervals" yaml:"intervals"`
	// GameHoursPerRealHour is how fast the game-reported remaining hours
	// drain per real elapsed hour, measured between consecutive entries at
	// the same grade level. A value near 1 means mostly idle accumulation;
	// higher values mean active play compressed the countdown.
	GameHoursPerRealHour float64 `json:"game_hours_per_real_hour" yaml:"game_hours_per_real_hour"`
	// BurnIntervals is the number of entry pairs the burn rate is based on.
	BurnIntervals int `json:"burn_intervals" yaml:"burn_intervals"`
}

// EfficiencyMetrics computes per-stage efficiency over all stages present
// in the data, in progression order. Stages with fewer than two entries or
// no forward progress are omitted.
func (a *Analyzer) EfficiencyMetrics() []StageEfficiency {
	var out []StageEfficiency
	for _, stage := range entry.Stages() {
		se := entry.ByStage(a.entries, stage)
		if len(se) < 2 {
			continue
		}

		var (
			totalHours, totalProgress float64
			intervals                 int
			burnedGame, burnedReal    float64
			burnIntervals             int
		)
		for i := 1; i < len(se); i++ {
			prev, curr := se[i-1], se[i]
			hours := curr.Timestamp.Sub(prev.Timestamp).Hours()
			progress := curr.OverallPercent - prev.OverallPercent

			if hours > 0 && progress > 0 {
				totalHours += hours
				totalProgress += progress
				intervals++
			}

			// Burn rate only makes sense while the countdown target stays
			// the same, i.e. between entries at the same grade level.
			if hours > 0 && sameGradeLevel(prev, curr) {
				prevRem, okPrev := prev.RemainingHours()
				currRem, okCurr := curr.RemainingHours()
				if okPrev && okCurr && prevRem > currRem {
					burnedGame += prevRem - currRem
					burnedReal += hours
					burnIntervals++
				}
			}
		}

		if totalProgress <= 0 {
			continue
		}

		eff := StageEfficiency{
			Stage:           stage.String(),
			HoursPerPercent: totalHours / totalProgress,
			PercentPerDay:   hoursPerDay * totalProgress / totalHours,
			Intervals:       intervals,
		}
		if burnedReal > 0 {
			eff.GameHoursPerRealHour = burnedGame / burnedReal
			eff.BurnIntervals = burnIntervals
		}
		out = append(out, eff)
	}
	return out
}

// sameGradeLevel reports whether both entries carry the same grade level.
func sameGradeLevel(a, b entry.Entry) bool {
	return a.GradeLevel != nil && b.GradeLevel != nil && *a.GradeLevel == *b.GradeLevel
}
