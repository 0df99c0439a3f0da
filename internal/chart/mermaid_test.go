package chart

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/hargabyte/omtrack/internal/analyze"
	"github.com/hargabyte/omtrack/internal/entry"
)

func mk(day int, stage entry.Stage, pct float64) entry.Entry {
	return entry.Entry{
		Timestamp:      time.Date(2026, time.February, day, 12, 0, 0, 0, time.UTC),
		Stage:          stage,
		OverallPercent: pct,
	}
}

func TestOverallProgression(t *testing.T) {
	entries := []entry.Entry{
		mk(9, entry.EternalEarly, 20.4),
		mk(14, entry.EternalEarly, 45.0),
	}
	got := OverallProgression(entries, nil)

	if !strings.HasPrefix(got, "xychart-beta\n") {
		t.Fatalf("chart does not open with xychart-beta:\n%s", got)
	}
	if !strings.Contains(got, `title "Overall Progression"`) {
		t.Errorf("default title missing:\n%s", got)
	}
	if !strings.Contains(got, `x-axis ["Feb 09", "Feb 14"]`) {
		t.Errorf("x-axis labels wrong:\n%s", got)
	}
	if !strings.Contains(got, `y-axis "Journey %" 0.00 --> 100.00`) {
		t.Errorf("y-axis bounds wrong:\n%s", got)
	}
	// Eternal Early is the fourth of six stages: (300+pct)/6.
	if !strings.Contains(got, "line [53.40, 57.50]") {
		t.Errorf("journey values wrong:\n%s", got)
	}
}

func TestOverallProgressionSkipsUnknownStage(t *testing.T) {
	entries := []entry.Entry{
		mk(9, entry.EternalEarly, 20.4),
		mk(10, entry.StageUnknown, 50),
	}
	got := OverallProgression(entries, nil)
	if strings.Contains(got, "Feb 10") {
		t.Errorf("entry without a recognizable stage should be skipped:\n%s", got)
	}
}

func TestStageProgressionFiltersAndTitles(t *testing.T) {
	entries := []entry.Entry{
		mk(9, entry.EternalEarly, 20.4),
		mk(10, entry.CelestialLate, 99),
		mk(14, entry.EternalEarly, 45.0),
	}
	got := StageProgression(entries, entry.EternalEarly, &Options{Title: "My Run", MaxPoints: 60})

	if !strings.Contains(got, `title "My Run"`) {
		t.Errorf("custom title not used:\n%s", got)
	}
	if strings.Contains(got, "Feb 10") {
		t.Errorf("other-stage entry leaked into series:\n%s", got)
	}
	if !strings.Contains(got, "line [20.40, 45.00]") {
		t.Errorf("stage values wrong:\n%s", got)
	}
}

func TestDailyRate(t *testing.T) {
	entries := []entry.Entry{
		mk(9, entry.EternalEarly, 20.4),
		mk(14, entry.EternalEarly, 45.0),
		mk(15, entry.EternalMiddle, 1.0), // stage change, no pair
		mk(17, entry.EternalMiddle, 5.0),
	}
	got := DailyRate(entries, nil)

	// (45-20.4)/5 and (5-1)/2; the cross-stage pair contributes nothing.
	if !strings.Contains(got, "line [4.92, 2.00]") {
		t.Errorf("rate series wrong:\n%s", got)
	}
	if !strings.Contains(got, `title "Daily Progress Rate"`) {
		t.Errorf("default title missing:\n%s", got)
	}
}

func TestStageComparison(t *testing.T) {
	eff := []analyze.StageEfficiency{
		{Stage: "Eternal Early", PercentPerDay: 4.92},
		{Stage: "Eternal Middle", PercentPerDay: 2.0},
	}
	got := StageComparison(eff, nil)

	if !strings.Contains(got, "bar [4.92, 2.00]") {
		t.Errorf("bar values wrong:\n%s", got)
	}
	if !strings.Contains(got, `x-axis ["Eternal Early", "Eternal Middle"]`) {
		t.Errorf("stage labels wrong:\n%s", got)
	}
}

func TestDownsampleKeepsEndpoints(t *testing.T) {
	var entries []entry.Entry
	for i := 0; i < 200; i++ {
		e := mk(1, entry.EternalEarly, float64(i)/2)
		e.Timestamp = time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC).Add(time.Duration(i) * time.Hour)
		entries = append(entries, e)
	}
	got := StageProgression(entries, entry.EternalEarly, &Options{MaxPoints: 10})

	lineIdx := strings.Index(got, "line [")
	if lineIdx < 0 {
		t.Fatalf("no line series:\n%s", got)
	}
	series := got[lineIdx:]
	if n := strings.Count(series, ","); n != 9 {
		t.Errorf("got %d points after downsampling, want 10", n+1)
	}
	if !strings.Contains(series, "0.00") {
		t.Errorf("first point dropped:\n%s", series)
	}
	if !strings.Contains(series, fmt.Sprintf("%.2f", 199.0/2)) {
		t.Errorf("last point dropped:\n%s", series)
	}
}

func TestChartEscapesQuotes(t *testing.T) {
	got := OverallProgression(nil, &Options{Title: `say "when"`, MaxPoints: 60})
	if strings.Contains(got, `"say "when""`) {
		t.Errorf("unescaped quotes in title:\n%s", got)
	}
	if !strings.Contains(got, "say 'when'") {
		t.Errorf("title not escaped:\n%s", got)
	}
}
