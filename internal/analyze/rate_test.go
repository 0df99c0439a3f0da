package analyze

import (
	"errors"
	"testing"

	"github.com/hargabyte/omtrack/internal/entry"
)

func TestProgressionRate(t *testing.T) {
	// Two entries five days apart: (45.0-20.4)/5 = 4.92 %/day.
	entries := []entry.Entry{
		mk("2026-02-09 18:41", entry.EternalEarly, 20.4),
		mk("2026-02-14 18:41", entry.EternalEarly, 45.0),
	}
	a := New(entries)

	rate, err := a.ProgressionRate(7)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got, want := rate.PercentPerDay, (45.0-20.4)/5; got != want {
		t.Errorf("rate = %v %%/day, want %v", got, want)
	}
	if rate.EntryCount != 2 {
		t.Errorf("entry count = %d, want 2", rate.EntryCount)
	}
	if rate.Stage != "Eternal Early" {
		t.Errorf("stage = %q", rate.Stage)
	}
	if rate.Segmented {
		t.Error("single-stage data should not be segmented")
	}
}

func TestProgressionRateWindow(t *testing.T) {
	// An old fast-progress entry must fall outside a 7-day window.
	entries := []entry.Entry{
		mk("2026-01-01 12:00", entry.EternalEarly, 0),
		mk("2026-02-09 12:00", entry.EternalEarly, 20),
		mk("2026-02-14 12:00", entry.EternalEarly, 45),
	}
	a := New(entries)

	rate, err := a.ProgressionRate(7)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rate.EntryCount != 2 {
		t.Errorf("entry count = %d, want 2 (January entry outside window)", rate.EntryCount)
	}
	if got, want := rate.PercentPerDay, (45.0-20.0)/5; got != want {
		t.Errorf("rate = %v, want %v", got, want)
	}

	// Unbounded window uses all three.
	rate, err = a.ProgressionRate(0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rate.EntryCount != 3 {
		t.Errorf("unbounded entry count = %d, want 3", rate.EntryCount)
	}
}

func TestProgressionRateSegmentsAtTransition(t *testing.T) {
	// A window spanning a stage boundary must use only the post-transition
	// segment, never a blind difference across the reset.
	entries := []entry.Entry{
		mk("2026-02-10 12:00", entry.CelestialLate, 95),
		mk("2026-02-11 12:00", entry.CelestialLate, 99),
		mk("2026-02-12 12:00", entry.EternalEarly, 1),
		mk("2026-02-14 12:00", entry.EternalEarly, 5),
	}
	a := New(entries)

	rate, err := a.ProgressionRate(30)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rate.Stage != "Eternal Early" {
		t.Errorf("stage = %q, want Eternal Early", rate.Stage)
	}
	if !rate.Segmented {
		t.Error("cross-boundary window should be flagged segmented")
	}
	if got, want := rate.PercentPerDay, (5.0-1.0)/2; got != want {
		t.Errorf("rate = %v, want %v (post-transition segment only)", got, want)
	}
	if rate.PercentPerDay < 0 {
		t.Error("rate must never be the negative cross-reset difference")
	}
}

func TestProgressionRateUndetermined(t *testing.T) {
	var ue *UndeterminedError

	// No entries.
	if _, err := New(nil).ProgressionRate(7); !errors.As(err, &ue) {
		t.Errorf("empty log error = %v, want *UndeterminedError", err)
	}

	// One entry.
	one := New([]entry.Entry{mk("2026-02-09 18:41", entry.EternalEarly, 20.4)})
	if _, err := one.ProgressionRate(7); !errors.As(err, &ue) {
		t.Errorf("single entry error = %v, want *UndeterminedError", err)
	}

	// Two entries at the same instant span zero time.
	same := New([]entry.Entry{
		mk("2026-02-09 18:41", entry.EternalEarly, 20.4),
		mk("2026-02-09 18:41", entry.EternalEarly, 21.0),
	})
	if _, err := same.ProgressionRate(7); !errors.As(err, &ue) {
		t.Errorf("zero span error = %v, want *UndeterminedError", err)
	}
}

func TestStageRate(t *testing.T) {
	entries := []entry.Entry{
		mk("2026-02-01 12:00", entry.CelestialLate, 90),
		mk("2026-02-03 12:00", entry.CelestialLate, 96),
		mk("2026-02-10 12:00", entry.EternalEarly, 5),
	}
	a := New(entries)

	rate, err := a.StageRate(entry.CelestialLate, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got, want := rate.PercentPerDay, 3.0; got != want {
		t.Errorf("rate = %v, want %v", got, want)
	}

	var nf *NotFoundError
	if _, err := a.StageRate(entry.EternalLate, 0); !errors.As(err, &nf) {
		t.Errorf("absent stage error = %v, want *NotFoundError", err)
	}
}

func TestPredictBreakthrough(t *testing.T) {
	entries := []entry.Entry{
		mk("2026-02-09 18:41", entry.EternalEarly, 20.4),
		mk("2026-02-14 18:41", entry.EternalEarly, 45.0),
	}
	a := New(entries)

	pred, err := a.PredictBreakthrough(entry.EternalEarly, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if pred.TargetPercent != 100 {
		t.Errorf("target = %v, want 100", pred.TargetPercent)
	}
	if got, want := pred.RemainingPercent, 55.0; got != want {
		t.Errorf("remaining = %v, want %v", got, want)
	}

	latest := ts("2026-02-14 18:41")
	if pred.PredictedAt.Before(latest) {
		t.Errorf("predicted date %v precedes latest entry %v", pred.PredictedAt, latest)
	}
	// 55% remaining at 4.92%/day is a bit over 11 days.
	if pred.DaysNeeded < 11 || pred.DaysNeeded > 12 {
		t.Errorf("days needed = %v, want ~11.2", pred.DaysNeeded)
	}
}

func TestPredictUndeterminedAndNotFound(t *testing.T) {
	var (
		ue *UndeterminedError
		nf *NotFoundError
	)

	// Regression: negative rate must be Undetermined, never a past date.
	regressing := New([]entry.Entry{
		mk("2026-02-09 18:41", entry.EternalEarly, 45.0),
		mk("2026-02-14 18:41", entry.EternalEarly, 20.4),
	})
	if _, err := regressing.PredictBreakthrough(entry.EternalEarly, 0); !errors.As(err, &ue) {
		t.Errorf("negative rate error = %v, want *UndeterminedError", err)
	}

	// Flat progress: zero rate.
	flat := New([]entry.Entry{
		mk("2026-02-09 18:41", entry.EternalEarly, 45.0),
		mk("2026-02-14 18:41", entry.EternalEarly, 45.0),
	})
	if _, err := flat.PredictBreakthrough(entry.EternalEarly, 0); !errors.As(err, &ue) {
		t.Errorf("zero rate error = %v, want *UndeterminedError", err)
	}

	// Absent stage.
	if _, err := flat.PredictBreakthrough(entry.CelestialEarly, 0); !errors.As(err, &nf) {
		t.Errorf("absent stage error = %v, want *NotFoundError", err)
	}
}

func TestPredictTargetAlreadyReached(t *testing.T) {
	entries := []entry.Entry{
		mk("2026-02-09 18:41", entry.EternalEarly, 20.4),
		mk("2026-02-14 18:41", entry.EternalEarly, 95.0),
	}
	a := New(entries)

	pred, err := a.PredictToTarget(entry.EternalEarly, 90, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if pred.RemainingPercent != 0 || pred.DaysNeeded != 0 {
		t.Errorf("reached target should clamp to zero remaining, got %+v", pred)
	}
	if !pred.PredictedAt.Equal(ts("2026-02-14 18:41")) {
		t.Errorf("predicted date = %v, want the latest entry time", pred.PredictedAt)
	}
}
