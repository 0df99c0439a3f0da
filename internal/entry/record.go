package entry

import (
	"fmt"
	"time"
)

// recordTimeLayout is the timestamp encoding used in exported records.
// RFC 3339 keeps the export stable across tool versions and locales.
const recordTimeLayout = time.RFC3339

// Record is the stable export schema for one entry. Field names and types
// are a compatibility contract: previously exported data must remain
// loadable, so fields are only ever added, never renamed or retyped.
type Record struct {
	Timestamp        string   `json:"timestamp" yaml:"timestamp"`
	Stage            string   `json:"stage" yaml:"stage"`
	OverallPercent   float64  `json:"overall_percent" yaml:"overall_percent"`
	GradeLevel       *int     `json:"grade_level" yaml:"grade_level"`
	GradePercent     *float64 `json:"grade_percent" yaml:"grade_percent"`
	YearsRemaining   *float64 `json:"years_remaining" yaml:"years_remaining"`
	HoursRemaining   *int     `json:"hours_remaining" yaml:"hours_remaining"`
	MinutesRemaining *int     `json:"minutes_remaining" yaml:"minutes_remaining"`
	ActionContext    string   `json:"action_context,omitempty" yaml:"action_context,omitempty"`
	EstNote          string   `json:"est_note,omitempty" yaml:"est_note,omitempty"`
	Breakthrough     bool     `json:"breakthrough,omitempty" yaml:"breakthrough,omitempty"`
	Raw              string   `json:"raw,omitempty" yaml:"raw,omitempty"`
}

// ToRecord converts an entry to its export record.
func ToRecord(e Entry) Record {
	r := Record{
		Timestamp:      e.Timestamp.Format(recordTimeLayout),
		Stage:          e.Stage.String(),
		OverallPercent: e.OverallPercent,
		GradeLevel:     e.GradeLevel,
		GradePercent:   e.GradePercent,
		ActionContext:  e.ActionContext,
		EstNote:        e.EstNote,
		Breakthrough:   e.Breakthrough,
		Raw:            e.Raw,
	}
	if e.TimeRemaining != nil {
		years := e.TimeRemaining.Years
		hours := e.TimeRemaining.Hours
		minutes := e.TimeRemaining.Minutes
		r.YearsRemaining = &years
		r.HoursRemaining = &hours
		r.MinutesRemaining = &minutes
	}
	return r
}

// FromRecord converts an export record back to an entry. The conversion is
// lossless with respect to ToRecord.
func FromRecord(r Record) (Entry, error) {
	ts, err := time.Parse(recordTimeLayout, r.Timestamp)
	if err != nil {
		return Entry{}, fmt.Errorf("parsing record timestamp %q: %w", r.Timestamp, err)
	}

	stage, err := ParseStage(r.Stage)
	if err != nil {
		return Entry{}, err
	}

	e := Entry{
		Timestamp:      ts,
		Stage:          stage,
		OverallPercent: r.OverallPercent,
		GradeLevel:     r.GradeLevel,
		GradePercent:   r.GradePercent,
		ActionContext:  r.ActionContext,
		EstNote:        r.EstNote,
		Breakthrough:   r.Breakthrough,
		Raw:            r.Raw,
	}
	if r.YearsRemaining != nil || r.HoursRemaining != nil || r.MinutesRemaining != nil {
		tr := &TimeRemaining{}
		if r.YearsRemaining != nil {
			tr.Years = *r.YearsRemaining
		}
		if r.HoursRemaining != nil {
			tr.Hours = *r.HoursRemaining
		}
		if r.MinutesRemaining != nil {
			tr.Minutes = *r.MinutesRemaining
		}
		e.TimeRemaining = tr
	}
	return e, nil
}

// ToRecords converts a sequence of entries to export records in order.
func ToRecords(entries []Entry) []Record {
	records := make([]Record, len(entries))
	for i, e := range entries {
		records[i] = ToRecord(e)
	}
	return records
}

// FromRecords converts export records back to entries in order.
func FromRecords(records []Record) ([]Entry, error) {
	entries := make([]Entry, len(records))
	for i, r := range records {
		e, err := FromRecord(r)
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}
		entries[i] = e
	}
	return entries, nil
}
