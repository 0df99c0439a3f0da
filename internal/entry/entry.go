package entry

import (
	"sort"
	"time"
)

// TimeRemaining is the game-reported time until the next grade-level
// breakthrough: in-game years alongside the real-world hours and minutes
// equivalent.
type TimeRemaining struct {
	Years   float64 `json:"years" yaml:"years"`
	Hours   int     `json:"hours" yaml:"hours"`
	Minutes int     `json:"minutes" yaml:"minutes"`
}

// Entry is one normalized progression snapshot parsed from the raw log.
// Entries are immutable once parsed; the analyzer and all views operate on
// copies or non-mutating slices.
type Entry struct {
	// Timestamp orders entries. Ties are broken by source position.
	Timestamp time.Time
	// Stage is the named realm phase at capture time.
	Stage Stage
	// OverallPercent is progress within Stage, in [0,100]. It resets near
	// zero when the stage advances and is not monotonic across stages.
	OverallPercent float64
	// GradeLevel is the G-level counter within the stage. Nil when the
	// block carried no grade line.
	GradeLevel *int
	// GradePercent is progress toward the next grade level. Nil when absent.
	GradePercent *float64
	// TimeRemaining is the game-reported time to the next breakthrough.
	// Nil when the block carried no time-remaining line.
	TimeRemaining *TimeRemaining
	// ActionContext is a free-text annotation ("After Reset, Pills").
	// Preserved for display, never used in computation.
	ActionContext string
	// EstNote is a free-text prediction annotation, display only.
	EstNote string
	// Breakthrough marks entries whose block recorded a breakthrough event.
	Breakthrough bool
	// Raw is the original block text the entry was parsed from.
	Raw string
}

// RemainingHours returns the game-reported real-hours-to-breakthrough as a
// single fractional value, and whether the entry carried one.
func (e Entry) RemainingHours() (float64, bool) {
	if e.TimeRemaining == nil {
		return 0, false
	}
	return float64(e.TimeRemaining.Hours) + float64(e.TimeRemaining.Minutes)/60, true
}

// SortByTimestamp returns a new slice ordered by timestamp. The sort is
// stable: entries with equal timestamps keep their source order.
func SortByTimestamp(entries []Entry) []Entry {
	out := make([]Entry, len(entries))
	copy(out, entries)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp.Before(out[j].Timestamp)
	})
	return out
}

// ByStage returns the subsequence of entries in the given stage.
func ByStage(entries []Entry, stage Stage) []Entry {
	var out []Entry
	for _, e := range entries {
		if e.Stage == stage {
			out = append(out, e)
		}
	}
	return out
}

// ByGradeLevel returns the subsequence of entries at the given grade level.
// Entries without a grade level never match.
func ByGradeLevel(entries []Entry, level int) []Entry {
	var out []Entry
	for _, e := range entries {
		if e.GradeLevel != nil && *e.GradeLevel == level {
			out = append(out, e)
		}
	}
	return out
}

// ByTimeRange returns the subsequence of entries with from <= timestamp < to.
// A zero `to` means no upper bound.
func ByTimeRange(entries []Entry, from, to time.Time) []Entry {
	var out []Entry
	for _, e := range entries {
		if e.Timestamp.Before(from) {
			continue
		}
		if !to.IsZero() && !e.Timestamp.Before(to) {
			continue
		}
		out = append(out, e)
	}
	return out
}

// Latest returns the most recent entry by timestamp, preferring later source
// position on ties. The second result is false for an empty sequence.
func Latest(entries []Entry) (Entry, bool) {
	if len(entries) == 0 {
		return Entry{}, false
	}
	latest := entries[0]
	for _, e := range entries[1:] {
		if !e.Timestamp.Before(latest.Timestamp) {
			latest = e
		}
	}
	return latest, true
}
