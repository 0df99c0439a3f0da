// Package analyze computes derived statistics from an ordered entry
// sequence: per-stage and per-grade-level aggregates, trailing progression
// rates, breakthrough date predictions, and efficiency metrics. All results
// are ephemeral, recomputed per query from the entry sequence; nothing here
// is authoritative state.
package analyze

import (
	"sort"
	"time"

	"github.com/hargabyte/omtrack/internal/entry"
)

// hoursPerDay converts time spans into the canonical fractional-day unit
// used for every rate in this package.
const hoursPerDay = 24.0

// Analyzer computes statistics over an entry sequence. The sequence is
// sorted by timestamp at construction and never mutated.
type Analyzer struct {
	entries []entry.Entry
}

// New creates an analyzer over the given entries. The input slice is
// copied and sorted by timestamp (ties keep source order).
func New(entries []entry.Entry) *Analyzer {
	return &Analyzer{entries: entry.SortByTimestamp(entries)}
}

// Entries returns the analyzer's sorted entry sequence.
func (a *Analyzer) Entries() []entry.Entry {
	return a.entries
}

// spanDays returns the span between two timestamps in fractional days.
func spanDays(from, to time.Time) float64 {
	return to.Sub(from).Hours() / hoursPerDay
}

// StageStats summarizes all entries observed in one stage.
type StageStats struct {
	Stage            string    `json:"stage" yaml:"stage"`
	EntryCount       int       `json:"entry_count" yaml:"entry_count"`
	FirstSeen        time.Time `json:"first_seen" yaml:"first_seen"`
	LastSeen         time.Time `json:"last_seen" yaml:"last_seen"`
	SpanDays         float64   `json:"span_days" yaml:"span_days"`
	StartPercent     float64   `json:"start_percent" yaml:"start_percent"`
	EndPercent       float64   `json:"end_percent" yaml:"end_percent"`
	AvgPercentPerDay float64   `json:"avg_percent_per_day" yaml:"avg_percent_per_day"`
}

// StageStatistics computes statistics for one stage. Returns a
// *NotFoundError when the stage never appears in the data.
func (a *Analyzer) StageStatistics(stage entry.Stage) (StageStats, error) {
	se := entry.ByStage(a.entries, stage)
	if len(se) == 0 {
		return StageStats{}, &NotFoundError{What: "stage " + stage.String()}
	}

	first, last := se[0], se[len(se)-1]
	stats := StageStats{
		Stage:        stage.String(),
		EntryCount:   len(se),
		FirstSeen:    first.Timestamp,
		LastSeen:     last.Timestamp,
		SpanDays:     spanDays(first.Timestamp, last.Timestamp),
		StartPercent: first.OverallPercent,
		EndPercent:   last.OverallPercent,
	}
	if stats.SpanDays > 0 {
		stats.AvgPercentPerDay = (stats.EndPercent - stats.StartPercent) / stats.SpanDays
	}
	return stats, nil
}

// GradeLevelStats summarizes the entries observed at one (stage, grade
// level) pair: how long the level was dwelt at and the grade-percent
// progression seen.
type GradeLevelStats struct {
	Stage           string    `json:"stage" yaml:"stage"`
	GradeLevel      int       `json:"grade_level" yaml:"grade_level"`
	EntryCount      int       `json:"entry_count" yaml:"entry_count"`
	FirstSeen       time.Time `json:"first_seen" yaml:"first_seen"`
	LastSeen        time.Time `json:"last_seen" yaml:"last_seen"`
	DwellHours      float64   `json:"dwell_hours" yaml:"dwell_hours"`
	DwellDays       float64   `json:"dwell_days" yaml:"dwell_days"`
	StartPercent    *float64  `json:"start_percent" yaml:"start_percent"`
	EndPercent      *float64  `json:"end_percent" yaml:"end_percent"`
	PercentProgress float64   `json:"percent_progress" yaml:"percent_progress"`
}

// gradeKey identifies one (stage, grade level) group.
type gradeKey struct {
	stage entry.Stage
	level int
}

// GradeLevelStatistics aggregates entries by (stage, grade level). Entries
// without a grade level are excluded. Results are ordered by stage, then
// grade level.
func (a *Analyzer) GradeLevelStatistics() []GradeLevelStats {
	groups := make(map[gradeKey][]entry.Entry)
	for _, e := range a.entries {
		if e.GradeLevel == nil {
			continue
		}
		k := gradeKey{stage: e.Stage, level: *e.GradeLevel}
		groups[k] = append(groups[k], e)
	}

	keys := make([]gradeKey, 0, len(groups))
	for k := range groups {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].stage != keys[j].stage {
			return keys[i].stage.Before(keys[j].stage)
		}
		return keys[i].level < keys[j].level
	})

	stats := make([]GradeLevelStats, 0, len(keys))
	for _, k := range keys {
		se := groups[k]
		first, last := se[0], se[len(se)-1]

		gs := GradeLevelStats{
			Stage:        k.stage.String(),
			GradeLevel:   k.level,
			EntryCount:   len(se),
			FirstSeen:    first.Timestamp,
			LastSeen:     last.Timestamp,
			DwellHours:   last.Timestamp.Sub(first.Timestamp).Hours(),
			StartPercent: first.GradePercent,
			EndPercent:   last.GradePercent,
		}
		gs.DwellDays = gs.DwellHours / hoursPerDay
		if gs.StartPercent != nil && gs.EndPercent != nil {
			gs.PercentProgress = *gs.EndPercent - *gs.StartPercent
		}
		stats = append(stats, gs)
	}
	return stats
}

// Transition records a stage change between two consecutive entries.
// Backward transitions are data anomalies: the parser keeps them as raw
// data and the analyzer flags them here instead of correcting or dropping
// them.
type Transition struct {
	From     entry.Entry
	To       entry.Entry
	Backward bool
}

// StageTransitions returns every stage change in timestamp order.
func (a *Analyzer) StageTransitions() []Transition {
	var out []Transition
	for i := 1; i < len(a.entries); i++ {
		prev, curr := a.entries[i-1], a.entries[i]
		if prev.Stage == curr.Stage {
			continue
		}
		out = append(out, Transition{
			From:     prev,
			To:       curr,
			Backward: curr.Stage.Before(prev.Stage),
		})
	}
	return out
}

// BackwardTransitions returns only the anomalous backward stage changes.
func (a *Analyzer) BackwardTransitions() []Transition {
	var out []Transition
	for _, t := range a.StageTransitions() {
		if t.Backward {
			out = append(out, t)
		}
	}
	return out
}
