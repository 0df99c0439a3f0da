// Package report composes analyzer results into human-readable summaries
// and structured report documents. Rendering is purely a formatting layer
// over the analyze package; no statistics are computed here.
package report

import (
	"time"

	"github.com/hargabyte/omtrack/internal/analyze"
)

// ReportType identifies the kind of report document.
type ReportType string

const (
	// ReportTypeSummary is the comprehensive progression summary.
	ReportTypeSummary ReportType = "summary"
)

// Header carries the common report metadata.
type Header struct {
	Type        ReportType `json:"type" yaml:"type"`
	GeneratedAt time.Time  `json:"generated_at" yaml:"generated_at"`
	EntryCount  int        `json:"entry_count" yaml:"entry_count"`
}

// Overall summarizes the whole tracked journey.
type Overall struct {
	StartedAt       time.Time `json:"started_at" yaml:"started_at"`
	LatestAt        time.Time `json:"latest_at" yaml:"latest_at"`
	DaysTracked     float64   `json:"days_tracked" yaml:"days_tracked"`
	CurrentStage    string    `json:"current_stage" yaml:"current_stage"`
	CurrentPercent  float64   `json:"current_percent" yaml:"current_percent"`
	CurrentGrade    *int      `json:"current_grade" yaml:"current_grade"`
	GradePercent    *float64  `json:"grade_percent" yaml:"grade_percent"`
	AbsolutePercent float64   `json:"absolute_percent" yaml:"absolute_percent"`
	Breakthroughs   int       `json:"breakthroughs" yaml:"breakthroughs"`
}

// SummaryData is the complete structured form of a summary report. Sections
// for which the data was insufficient carry an explanatory marker instead
// of being silently omitted, so a consumer always knows why a section is
// empty.
type SummaryData struct {
	Report  Header   `json:"report" yaml:"report"`
	Overall *Overall `json:"overall,omitempty" yaml:"overall,omitempty"`

	Stages      []analyze.StageStats      `json:"stages" yaml:"stages"`
	GradeLevels []analyze.GradeLevelStats `json:"grade_levels" yaml:"grade_levels"`
	Efficiency  []analyze.StageEfficiency `json:"efficiency" yaml:"efficiency"`

	RecentRate     *analyze.Rate       `json:"recent_rate,omitempty" yaml:"recent_rate,omitempty"`
	RecentRateNote string              `json:"recent_rate_note,omitempty" yaml:"recent_rate_note,omitempty"`
	Prediction     *analyze.Prediction `json:"prediction,omitempty" yaml:"prediction,omitempty"`
	PredictionNote string              `json:"prediction_note,omitempty" yaml:"prediction_note,omitempty"`

	Anomalies []string `json:"anomalies,omitempty" yaml:"anomalies,omitempty"`
}
