package analyze

import (
	"fmt"
	"time"

	"github.com/hargabyte/omtrack/internal/entry"
)

// Rate is an average progression velocity over a trailing window, computed
// from entries of a single stage only. A rate averaged across a stage
// boundary is meaningless (overall percent resets on stage advance), so the
// window is always cut at the most recent transition.
type Rate struct {
	Stage         string  `json:"stage" yaml:"stage"`
	WindowDays    float64 `json:"window_days" yaml:"window_days"`
	PeriodDays    float64 `json:"period_days" yaml:"period_days"`
	StartPercent  float64 `json:"start_percent" yaml:"start_percent"`
	EndPercent    float64 `json:"end_percent" yaml:"end_percent"`
	PercentPerDay float64 `json:"percent_per_day" yaml:"percent_per_day"`
	EntryCount    int     `json:"entry_count" yaml:"entry_count"`
	// Segmented reports that the window spanned a stage transition and was
	// cut down to the post-transition segment.
	Segmented bool `json:"segmented" yaml:"segmented"`
}

// ProgressionRate computes the average percent-per-day over the trailing
// window, anchored at the most recent entry's timestamp. windowDays <= 0
// means unbounded. Only entries matching the most recent entry's stage are
// used; entries before the last stage transition are excluded even when
// they fall inside the window. Returns *UndeterminedError when fewer than
// two usable points remain or the usable span is zero.
func (a *Analyzer) ProgressionRate(windowDays float64) (Rate, error) {
	if len(a.entries) == 0 {
		return Rate{}, &UndeterminedError{Reason: "no entries"}
	}

	latest := a.entries[len(a.entries)-1]

	// Walk back over the contiguous run of entries in the current stage.
	segStart := len(a.entries) - 1
	for segStart > 0 && a.entries[segStart-1].Stage == latest.Stage {
		segStart--
	}
	segment := a.entries[segStart:]
	segmented := segStart > 0

	return rateOver(segment, latest.Timestamp, windowDays, segmented)
}

// StageRate computes the trailing rate restricted to one stage, anchored at
// that stage's latest entry. Returns *NotFoundError when the stage never
// appears.
func (a *Analyzer) StageRate(stage entry.Stage, windowDays float64) (Rate, error) {
	se := entry.ByStage(a.entries, stage)
	if len(se) == 0 {
		return Rate{}, &NotFoundError{What: "stage " + stage.String()}
	}
	return rateOver(se, se[len(se)-1].Timestamp, windowDays, false)
}

// rateOver computes a rate from a single-stage entry segment, keeping only
// entries inside the trailing window ending at anchor.
func rateOver(segment []entry.Entry, anchor time.Time, windowDays float64, segmented bool) (Rate, error) {
	windowed := segment
	if windowDays > 0 {
		cutoff := anchor.Add(-time.Duration(windowDays * 24 * float64(time.Hour)))
		windowed = entry.ByTimeRange(segment, cutoff, time.Time{})
	}

	if len(windowed) < 2 {
		return Rate{}, &UndeterminedError{
			Reason: fmt.Sprintf("need at least 2 entries in window, have %d", len(windowed)),
		}
	}

	first, last := windowed[0], windowed[len(windowed)-1]
	period := spanDays(first.Timestamp, last.Timestamp)
	if period <= 0 {
		return Rate{}, &UndeterminedError{Reason: "window spans zero time"}
	}

	return Rate{
		Stage:         last.Stage.String(),
		WindowDays:    windowDays,
		PeriodDays:    period,
		StartPercent:  first.OverallPercent,
		EndPercent:    last.OverallPercent,
		PercentPerDay: (last.OverallPercent - first.OverallPercent) / period,
		EntryCount:    len(windowed),
		Segmented:     segmented,
	}, nil
}

// Prediction is a breakthrough-date forecast extrapolated from the recent
// in-stage progression rate.
type Prediction struct {
	Stage            string    `json:"stage" yaml:"stage"`
	PredictedAt      time.Time `json:"predicted_at" yaml:"predicted_at"`
	TargetPercent    float64   `json:"target_percent" yaml:"target_percent"`
	RemainingPercent float64   `json:"remaining_percent" yaml:"remaining_percent"`
	PercentPerDay    float64   `json:"percent_per_day" yaml:"percent_per_day"`
	DaysNeeded       float64   `json:"days_needed" yaml:"days_needed"`
	EntryCount       int       `json:"entry_count" yaml:"entry_count"`
}

// PredictBreakthrough forecasts when the stage will reach 100 percent,
// using the trailing in-stage rate over windowDays (<= 0 for unbounded).
// Returns *NotFoundError when the stage never appears and
// *UndeterminedError when fewer than two points exist or the rate is not
// positive. The forecast is anchored at the stage's latest entry, so it can
// never be earlier than the latest entry's timestamp.
func (a *Analyzer) PredictBreakthrough(stage entry.Stage, windowDays float64) (Prediction, error) {
	return a.PredictToTarget(stage, 100, windowDays)
}

// PredictToTarget forecasts when the stage will reach targetPercent.
func (a *Analyzer) PredictToTarget(stage entry.Stage, targetPercent, windowDays float64) (Prediction, error) {
	se := entry.ByStage(a.entries, stage)
	if len(se) == 0 {
		return Prediction{}, &NotFoundError{What: "stage " + stage.String()}
	}

	rate, err := rateOver(se, se[len(se)-1].Timestamp, windowDays, false)
	if err != nil {
		return Prediction{}, err
	}
	if rate.PercentPerDay <= 0 {
		return Prediction{}, &UndeterminedError{
			Reason: fmt.Sprintf("non-positive rate %.3f%%/day: no forward progress to extrapolate", rate.PercentPerDay),
		}
	}

	latest := se[len(se)-1]
	remaining := targetPercent - latest.OverallPercent
	if remaining < 0 {
		remaining = 0
	}
	days := remaining / rate.PercentPerDay

	return Prediction{
		Stage:            stage.String(),
		PredictedAt:      latest.Timestamp.Add(time.Duration(days * 24 * float64(time.Hour))),
		TargetPercent:    targetPercent,
		RemainingPercent: remaining,
		PercentPerDay:    rate.PercentPerDay,
		DaysNeeded:       days,
		EntryCount:       rate.EntryCount,
	}, nil
}
