// Package entry defines the normalized data model for progression log
// snapshots: the ordered Stage sequence, the immutable Entry record, and the
// stable export schema shared by the parser, analyzer, and external tools.
package entry

import (
	"fmt"
	"strings"
)

// Stage represents one phase of the progression realm sequence.
// Stages form a fixed total order; comparisons between stages use the
// integer index, never string comparison.
type Stage int

const (
	// StageUnknown is the zero value for unrecognized stage tokens.
	StageUnknown Stage = iota
	// CelestialEarly is the first tracked stage.
	CelestialEarly
	// CelestialMiddle follows Celestial Early.
	CelestialMiddle
	// CelestialLate follows Celestial Middle.
	CelestialLate
	// EternalEarly is the first Eternal stage.
	EternalEarly
	// EternalMiddle follows Eternal Early.
	EternalMiddle
	// EternalLate is the last tracked stage.
	EternalLate
)

// stageNames maps stages to their canonical display names.
var stageNames = map[Stage]string{
	CelestialEarly:  "Celestial Early",
	CelestialMiddle: "Celestial Middle",
	CelestialLate:   "Celestial Late",
	EternalEarly:    "Eternal Early",
	EternalMiddle:   "Eternal Middle",
	EternalLate:     "Eternal Late",
}

// Stages returns all stages in progression order.
func Stages() []Stage {
	return []Stage{
		CelestialEarly, CelestialMiddle, CelestialLate,
		EternalEarly, EternalMiddle, EternalLate,
	}
}

// String returns the canonical display name of the stage.
func (s Stage) String() string {
	if name, ok := stageNames[s]; ok {
		return name
	}
	return "Unknown"
}

// Valid reports whether the stage is a member of the tracked sequence.
func (s Stage) Valid() bool {
	_, ok := stageNames[s]
	return ok
}

// Before reports whether s precedes other in the progression order.
func (s Stage) Before(other Stage) bool {
	return s < other
}

// After reports whether s follows other in the progression order.
func (s Stage) After(other Stage) bool {
	return s > other
}

// Next returns the stage following s, or StageUnknown if s is the last stage.
func (s Stage) Next() Stage {
	if s == EternalLate || !s.Valid() {
		return StageUnknown
	}
	return s + 1
}

// ParseStage parses a stage token into a Stage. It tolerates the spelling
// variance seen in hand-typed and OCR-captured logs ("Celesital Early",
// mixed case, extra whitespace). Returns an UnknownStageError for tokens
// outside the fixed sequence.
func ParseStage(s string) (Stage, error) {
	fields := strings.Fields(strings.ToLower(strings.TrimSpace(s)))
	if len(fields) != 2 {
		return StageUnknown, &UnknownStageError{Token: s}
	}

	// Transposed spellings ("Celesital", "Celestail") are common enough in
	// real logs that any celes-prefixed token counts as Celestial.
	var realm string
	switch {
	case strings.HasPrefix(fields[0], "celes"):
		realm = "celestial"
	case fields[0] == "eternal":
		realm = "eternal"
	default:
		return StageUnknown, &UnknownStageError{Token: s}
	}

	var phase string
	switch fields[1] {
	case "early", "middle", "late":
		phase = fields[1]
	default:
		return StageUnknown, &UnknownStageError{Token: s}
	}

	for st, name := range stageNames {
		if strings.ToLower(name) == realm+" "+phase {
			return st, nil
		}
	}
	return StageUnknown, &UnknownStageError{Token: s}
}

// AbsolutePercent converts a stage plus its within-stage percent into a
// single 0-100 percent across the whole journey. Within-stage percent is
// clamped to [0,100] before scaling.
func AbsolutePercent(s Stage, pct float64) (float64, error) {
	if !s.Valid() {
		return 0, &UnknownStageError{Token: s.String()}
	}
	if pct < 0 {
		pct = 0
	}
	if pct > 100 {
		pct = 100
	}
	n := float64(len(stageNames))
	idx := float64(int(s) - int(CelestialEarly))
	return (idx*100 + pct) / n, nil
}

// UnknownStageError is returned when a stage token does not belong to the
// fixed progression sequence.
type UnknownStageError struct {
	Token string
}

// Error implements the error interface.
func (e *UnknownStageError) Error() string {
	return fmt.Sprintf("unknown stage: %q", e.Token)
}
