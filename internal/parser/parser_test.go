package parser

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/hargabyte/omtrack/internal/entry"
)

func TestParseFullBlock(t *testing.T) {
	log := `2026

February 9, 6:41 PM - Eternal Early (20.4%)
After Reset, Pills
G8 at 93.9%
434.68 Yrs or 108 Hrs 40 Min to G9
Est: G9 by Feb 14
`
	result := NewWithYear(2020).Parse(log)
	if len(result.Failures) != 0 {
		t.Fatalf("unexpected failures: %+v", result.Failures)
	}
	if len(result.Entries) != 1 {
		t.Fatalf("got %d entries, want 1", len(result.Entries))
	}

	e := result.Entries[0]
	want := time.Date(2026, time.February, 9, 18, 41, 0, 0, time.UTC)
	if !e.Timestamp.Equal(want) {
		t.Errorf("timestamp = %v, want %v (year header should override base year)", e.Timestamp, want)
	}
	if e.Stage != entry.EternalEarly {
		t.Errorf("stage = %v, want Eternal Early", e.Stage)
	}
	if e.OverallPercent != 20.4 {
		t.Errorf("overall percent = %v, want 20.4", e.OverallPercent)
	}
	if e.GradeLevel == nil || *e.GradeLevel != 8 {
		t.Errorf("grade level = %v, want 8", e.GradeLevel)
	}
	if e.GradePercent == nil || *e.GradePercent != 93.9 {
		t.Errorf("grade percent = %v, want 93.9", e.GradePercent)
	}
	if e.TimeRemaining == nil {
		t.Fatal("time remaining missing")
	}
	if e.TimeRemaining.Years != 434.68 || e.TimeRemaining.Hours != 108 || e.TimeRemaining.Minutes != 40 {
		t.Errorf("time remaining = %+v, want {434.68 108 40}", *e.TimeRemaining)
	}
	if e.ActionContext != "After Reset, Pills" {
		t.Errorf("action context = %q", e.ActionContext)
	}
	if e.EstNote != "Est: G9 by Feb 14" {
		t.Errorf("est note = %q", e.EstNote)
	}
}

func TestParseFormatVariants(t *testing.T) {
	tests := []struct {
		name  string
		block string
		check func(t *testing.T, e entry.Entry)
	}{
		{
			name:  "three letter month and ordinal day",
			block: "Feb 3rd, 9:05 AM - Celestial Late (91.2%)",
			check: func(t *testing.T, e entry.Entry) {
				if e.Timestamp.Month() != time.February || e.Timestamp.Day() != 3 {
					t.Errorf("timestamp = %v", e.Timestamp)
				}
				if e.Timestamp.Hour() != 9 || e.Timestamp.Minute() != 5 {
					t.Errorf("clock = %v", e.Timestamp)
				}
			},
		},
		{
			name:  "missing clock defaults to noon",
			block: "March 14 - Eternal Early (12.5%)",
			check: func(t *testing.T, e entry.Entry) {
				if e.Timestamp.Hour() != 12 || e.Timestamp.Minute() != 0 {
					t.Errorf("missing clock should default to noon, got %v", e.Timestamp)
				}
			},
		},
		{
			name:  "midnight is 12 AM",
			block: "March 14, 12:30 AM - Eternal Early (12.5%)",
			check: func(t *testing.T, e entry.Entry) {
				if e.Timestamp.Hour() != 0 {
					t.Errorf("12:30 AM should be hour 0, got %d", e.Timestamp.Hour())
				}
			},
		},
		{
			name:  "stage typo celesital",
			block: "April 1, 2:00 PM - Celesital Early (5%)",
			check: func(t *testing.T, e entry.Entry) {
				if e.Stage != entry.CelestialEarly {
					t.Errorf("stage = %v, want Celestial Early", e.Stage)
				}
			},
		},
		{
			name:  "time unit typos MIin and Ys",
			block: "April 2, 2:00 PM - Eternal Early (30%)\n12.5 Ys or 3 Hrs 15 MIin to G4",
			check: func(t *testing.T, e entry.Entry) {
				if e.TimeRemaining == nil {
					t.Fatal("time remaining missing")
				}
				if e.TimeRemaining.Years != 12.5 || e.TimeRemaining.Hours != 3 || e.TimeRemaining.Minutes != 15 {
					t.Errorf("time remaining = %+v", *e.TimeRemaining)
				}
			},
		},
		{
			name:  "hours label missing with and",
			block: "April 3, 2:00 PM - Eternal Early (31%)\n157 and 27 Min to G4",
			check: func(t *testing.T, e entry.Entry) {
				if e.TimeRemaining == nil {
					t.Fatal("time remaining missing")
				}
				if e.TimeRemaining.Hours != 157 || e.TimeRemaining.Minutes != 27 {
					t.Errorf("time remaining = %+v, want 157h 27m", *e.TimeRemaining)
				}
			},
		},
		{
			name:  "bare grade level line",
			block: "April 4, 2:00 PM - Eternal Early (32%)\nG8",
			check: func(t *testing.T, e entry.Entry) {
				if e.GradeLevel == nil || *e.GradeLevel != 8 {
					t.Errorf("grade level = %v, want 8", e.GradeLevel)
				}
				if e.GradePercent != nil {
					t.Errorf("bare grade line should not fabricate a percent, got %v", *e.GradePercent)
				}
				if e.ActionContext != "" {
					t.Errorf("bare grade line misread as context: %q", e.ActionContext)
				}
			},
		},
		{
			name:  "breakthrough line",
			block: "April 5, 2:00 PM - Eternal Early (0.4%)\nbt to G3 at 16.3%",
			check: func(t *testing.T, e entry.Entry) {
				if !e.Breakthrough {
					t.Error("breakthrough not detected")
				}
				if e.GradeLevel == nil || *e.GradeLevel != 3 {
					t.Errorf("grade level = %v, want 3", e.GradeLevel)
				}
				if e.GradePercent == nil || *e.GradePercent != 16.3 {
					t.Errorf("grade percent = %v, want 16.3", e.GradePercent)
				}
			},
		},
		{
			name:  "breakthrough marker",
			block: "April 6, 2:00 PM - Eternal Middle (0.1%)\n[BREAKTHROUGH]",
			check: func(t *testing.T, e entry.Entry) {
				if !e.Breakthrough {
					t.Error("[BREAKTHROUGH] marker not detected")
				}
			},
		},
		{
			name:  "currently at grade percent",
			block: "April 7, 2:00 PM - Eternal Early (33%)\ncurrently at 42.1%",
			check: func(t *testing.T, e entry.Entry) {
				if e.GradePercent == nil || *e.GradePercent != 42.1 {
					t.Errorf("grade percent = %v, want 42.1", e.GradePercent)
				}
				if e.GradeLevel != nil {
					t.Errorf("no grade level should be fabricated, got %v", *e.GradeLevel)
				}
			},
		},
	}

	p := NewWithYear(2026)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := p.Parse(tt.block)
			if len(result.Failures) != 0 {
				t.Fatalf("unexpected failures: %+v", result.Failures)
			}
			if len(result.Entries) != 1 {
				t.Fatalf("got %d entries, want 1", len(result.Entries))
			}
			tt.check(t, result.Entries[0])
		})
	}
}

func TestParseRejectsMalformedBlocks(t *testing.T) {
	tests := []struct {
		name  string
		block string
	}{
		{"no stage", "February 9, 6:41 PM - (20.4%)"},
		{"unknown realm", "February 9, 6:41 PM - Mortal Early (20.4%)"},
		{"no percent", "February 9, 6:41 PM - Eternal Early"},
		{"percent out of range", "February 9, 6:41 PM - Eternal Early (120.4%)"},
	}

	p := NewWithYear(2026)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := p.Parse(tt.block)
			if len(result.Entries) != 0 {
				t.Errorf("malformed block parsed: %+v", result.Entries)
			}
			if len(result.Failures) != 1 {
				t.Errorf("got %d failures, want 1", len(result.Failures))
			}
		})
	}
}

func TestParseFaultIsolation(t *testing.T) {
	var b strings.Builder
	b.WriteString("2026\n")
	for day := 1; day <= 5; day++ {
		fmt.Fprintf(&b, "\nFebruary %d, 6:00 PM - Eternal Early (20%%)\n", day)
	}
	b.WriteString("\nFebruary 6, 6:00 PM - Mortal Early (20%)\n") // malformed
	for day := 7; day <= 10; day++ {
		fmt.Fprintf(&b, "\nFebruary %d, 6:00 PM - Eternal Early (25%%)\n", day)
	}

	result := New().Parse(b.String())
	if len(result.Entries) != 9 {
		t.Errorf("got %d entries, want 9 (one bad block must not poison the rest)", len(result.Entries))
	}
	if len(result.Failures) != 1 {
		t.Errorf("got %d failures, want 1", len(result.Failures))
	}
}

func TestParseYearRollover(t *testing.T) {
	log := `2025

December 28, 6:00 PM - Eternal Early (90%)

January 3, 6:00 PM - Eternal Early (94%)

February 10, 6:00 PM - Eternal Early (97%)
`
	result := New().Parse(log)
	if len(result.Entries) != 3 {
		t.Fatalf("got %d entries, want 3 (failures: %+v)", len(result.Entries), result.Failures)
	}

	if y := result.Entries[0].Timestamp.Year(); y != 2025 {
		t.Errorf("December entry year = %d, want 2025", y)
	}
	if y := result.Entries[1].Timestamp.Year(); y != 2026 {
		t.Errorf("January entry year = %d, want 2026 (rollover)", y)
	}
	if y := result.Entries[2].Timestamp.Year(); y != 2026 {
		t.Errorf("February entry year = %d, want 2026", y)
	}

	sorted := result.Sorted()
	for i := 1; i < len(sorted); i++ {
		if sorted[i].Timestamp.Before(sorted[i-1].Timestamp) {
			t.Errorf("sorted entries out of order at %d", i)
		}
	}
}

func TestParseEmptyLog(t *testing.T) {
	result := New().Parse("")
	if len(result.Entries) != 0 || len(result.Failures) != 0 {
		t.Errorf("empty log should yield empty result, got %+v", result)
	}

	result = New().Parse("  \n\t\n")
	if len(result.Entries) != 0 || len(result.Failures) != 0 {
		t.Errorf("blank log should yield empty result, got %+v", result)
	}
}

func TestParseSortedByTimestamp(t *testing.T) {
	// Blocks out of chronological order within one year.
	log := `2026

March 10, 6:00 PM - Eternal Early (40%)

March 2, 6:00 PM - Eternal Early (25%)

March 6, 6:00 PM - Eternal Early (30%)
`
	result := New().Parse(log)
	if len(result.Entries) != 3 {
		t.Fatalf("got %d entries, want 3", len(result.Entries))
	}

	sorted := result.Sorted()
	days := []int{2, 6, 10}
	for i, want := range days {
		if got := sorted[i].Timestamp.Day(); got != want {
			t.Errorf("sorted[%d].Day = %d, want %d", i, got, want)
		}
	}
	// Source order preserved in Entries.
	if result.Entries[0].Timestamp.Day() != 10 {
		t.Error("Entries should keep source order")
	}
}
