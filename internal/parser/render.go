package parser

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/hargabyte/omtrack/internal/entry"
)

// appendMu serializes log appends within the process. The raw log is the
// authoritative store; interleaved partial writes are the hazard to guard
// against, not in-memory races.
var appendMu sync.Mutex

// formatPercent renders a percent value with the shortest representation
// that round-trips through ParseFloat.
func formatPercent(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// Render emits one entry in the canonical block grammar:
//
//	February 9, 6:41 PM - Eternal Early (20.4%)
//	After Reset, Pills
//	G8 at 93.9%
//	434.68 Yrs or 108 Hrs 40 Min to G9
//	Est: G9 by Feb 14
//
// Parse(Render(e)) yields an entry equal to e in every field (timestamps
// round-trip when the parser's base year matches; a note lacking the Est
// marker is normalized to "Est: ..." so it re-parses as a note).
func Render(e entry.Entry) string {
	var b strings.Builder

	hour := e.Timestamp.Hour()
	ampm := "AM"
	if hour >= 12 {
		ampm = "PM"
	}
	hour12 := hour % 12
	if hour12 == 0 {
		hour12 = 12
	}

	fmt.Fprintf(&b, "%s %d, %d:%02d %s - %s (%s%%)",
		e.Timestamp.Month().String(), e.Timestamp.Day(),
		hour12, e.Timestamp.Minute(), ampm,
		e.Stage, formatPercent(e.OverallPercent))

	if e.ActionContext != "" {
		b.WriteString("\n" + e.ActionContext)
	}

	if e.GradeLevel != nil {
		if e.GradePercent != nil {
			fmt.Fprintf(&b, "\nG%d at %s%%", *e.GradeLevel, formatPercent(*e.GradePercent))
		} else {
			fmt.Fprintf(&b, "\nG%d", *e.GradeLevel)
		}
	}

	if tr := e.TimeRemaining; tr != nil {
		nextLevel := 1
		if e.GradeLevel != nil {
			nextLevel = *e.GradeLevel + 1
		}
		fmt.Fprintf(&b, "\n%s Yrs or %d Hrs %d Min to G%d",
			formatPercent(tr.Years), tr.Hours, tr.Minutes, nextLevel)
	}

	if e.Breakthrough {
		b.WriteString("\n[BREAKTHROUGH]")
	}

	if e.EstNote != "" {
		// A note without the Est marker would re-parse as action context;
		// prefix it so it stays a note.
		note := e.EstNote
		if !estNoteRE.MatchString(note) {
			note = "Est: " + note
		}
		b.WriteString("\n" + note)
	}

	return b.String()
}

// RenderLog emits a full raw log: a year header derived from the first
// entry, then one block per entry separated by blank lines. Entries should
// be in chronological order so the parser's year rollover reconstructs
// timestamps correctly.
func RenderLog(entries []entry.Entry) string {
	if len(entries) == 0 {
		return ""
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%d\n", entries[0].Timestamp.Year())
	for _, e := range entries {
		b.WriteString("\n" + Render(e) + "\n")
	}
	return b.String()
}

// AppendEntry renders the entry into the block grammar and appends it as a
// new block at end of file, creating the file (with a year header) when it
// does not exist. Appends are serialized by a single-writer lock so that
// concurrent requests cannot interleave partial blocks. Parsing the file
// after AppendEntry yields the appended entry in the same fields.
func AppendEntry(path string, e entry.Entry) error {
	appendMu.Lock()
	defer appendMu.Unlock()

	existing, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return &AppendError{Path: path, Err: err}
	}

	var block string
	if len(existing) == 0 {
		block = fmt.Sprintf("%d\n\n%s\n", e.Timestamp.Year(), Render(e))
	} else {
		sep := "\n"
		if !strings.HasSuffix(string(existing), "\n") {
			sep = "\n\n"
		}
		block = sep + Render(e) + "\n"
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return &AppendError{Path: path, Err: err}
	}
	defer f.Close()

	if _, err := f.WriteString(block); err != nil {
		return &AppendError{Path: path, Err: err}
	}
	return nil
}
