// Package parser converts raw progression log text into ordered entry
// sequences. The log grammar is a family of tolerant line-level patterns:
// real logs mix hand-typed and OCR-captured blocks, so the parser accepts
// punctuation, ordering, and spelling variance, skips malformed blocks, and
// records each skip for the caller instead of aborting the parse.
package parser

import (
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/hargabyte/omtrack/internal/entry"
)

// monthPattern matches full and three-letter month names.
const monthPattern = `(?:Jan(?:uary)?|Feb(?:ruary)?|Mar(?:ch)?|Apr(?:il)?|May|Jun(?:e)?|Jul(?:y)?|Aug(?:ust)?|Sep(?:tember)?|Oct(?:ober)?|Nov(?:ember)?|Dec(?:ember)?)`

var (
	// blockStartRE locates the start of an entry block: a month name and a
	// day number at the beginning of a line. Content is split at these
	// boundaries; anything between boundaries belongs to the same block.
	blockStartRE = regexp.MustCompile(`(?mi)^[ \t]*` + monthPattern + `[ \t]+\d{1,2}(?:st|nd|rd|th)?\b`)

	// yearHeaderRE matches a bare four-digit year on its own line, used as
	// the base year for all following entries.
	yearHeaderRE = regexp.MustCompile(`(?m)^\s*(\d{4})\s*$`)

	dateRE  = regexp.MustCompile(`(?i)(` + monthPattern + `)\s+(\d{1,2})(?:st|nd|rd|th)?`)
	clockRE = regexp.MustCompile(`(?i)(\d{1,2}):(\d{2})\s*(AM|PM)`)
	// The realm prefix is loose so transposed spellings ("Celesital",
	// "Celestail") reach ParseStage instead of being rejected here.
	stageRE = regexp.MustCompile(`(?i)(Celes\w*|Eternal)\s+(Early|Middle|Late)`)
	// realmRE detects any realm-like token so blocks naming an unrecognized
	// stage are rejected rather than parsed with the stage silently dropped.
	realmRE   = regexp.MustCompile(`(?i)\b(\w+)\s+(Early|Middle|Late)\b`)
	percentRE = regexp.MustCompile(`\(\s*(\d+(?:\.\d+)?)\s*%\s*\)`)

	gradeRE     = regexp.MustCompile(`(?i)G(\d+)\s+at\s+(\d+(?:\.\d+)?)\s*%`)
	gradeBareRE = regexp.MustCompile(`(?m)^[ \t]*G(\d+)[ \t]*$`)
	currentlyRE = regexp.MustCompile(`(?i)currently\s+at\s+(\d+(?:\.\d+)?)\s*%`)

	// Breakthrough lines come in several shapes: "bt to G3 at 16.3%",
	// "Breakthrough to Celestial Middle G1", "Breakthrough to Eternal Early".
	breakthroughGradeRE = regexp.MustCompile(`(?i)(?:bt|breakthrough)\s+to\s+(?:(?:Celes\w*|Eternal)\s+(?:Early|Middle|Late)\s+)?G(\d+)(?:\s+at\s+(\d+(?:\.\d+)?)\s*%)?`)
	breakthroughAnyRE   = regexp.MustCompile(`(?i)(?:\bbt\b|breakthrough)\s+to\s+`)
	breakthroughMarkRE  = regexp.MustCompile(`(?i)\[\s*breakthrough\s*\]`)

	yearsRE      = regexp.MustCompile(`(?i)(\d+(?:\.\d+)?)\s*(?:Yrs?|Ys|Years?)\b`)
	hoursRE      = regexp.MustCompile(`(?i)(\d+)\s*(?:Hrs?|Hours?)\b`)
	minutesRE    = regexp.MustCompile(`(?i)(\d+)\s*(?:Min(?:utes?)?|MIin|MIn)\b`)
	hoursAndRE   = regexp.MustCompile(`(?i)(\d+)\s+and\s+(\d+)\s*(?:Min(?:utes?)?|MIin|MIn)\b`)
	timeToNextRE = regexp.MustCompile(`(?i)to\s+G\d+`)

	estNoteRE = regexp.MustCompile(`(?i)^est\b`)
)

// monthNumbers maps lowercase three-letter month prefixes to month numbers.
var monthNumbers = map[string]time.Month{
	"jan": time.January, "feb": time.February, "mar": time.March,
	"apr": time.April, "may": time.May, "jun": time.June,
	"jul": time.July, "aug": time.August, "sep": time.September,
	"oct": time.October, "nov": time.November, "dec": time.December,
}

// Failure records one rejected block: its raw text and the reason it was
// skipped. Failures never abort the parse.
type Failure struct {
	Block  string `json:"block" yaml:"block"`
	Reason string `json:"reason" yaml:"reason"`
}

// Result holds the outcome of parsing a raw log: the ordered entry sequence
// (source order) and the list of per-block failures.
type Result struct {
	Entries  []entry.Entry
	Failures []Failure
}

// Sorted returns the parsed entries ordered by timestamp, ties broken by
// source position.
func (r *Result) Sorted() []entry.Entry {
	return entry.SortByTimestamp(r.Entries)
}

// Parser converts raw log text into entries.
type Parser struct {
	// baseYear is assumed for the first entry when the log carries no
	// four-digit year header line.
	baseYear int
}

// New creates a parser whose base year defaults to the current year.
// A year header line in the log content overrides the base year.
func New() *Parser {
	return &Parser{baseYear: time.Now().Year()}
}

// NewWithYear creates a parser with an explicit base year.
func NewWithYear(year int) *Parser {
	return &Parser{baseYear: year}
}

// ParseFile reads and parses a raw log file.
func (p *Parser) ParseFile(path string) (*Result, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &FileReadError{Path: path, Err: err}
	}
	return p.Parse(string(data)), nil
}

// Parse parses the full raw log content. An empty log yields an empty
// result. A malformed block is skipped and recorded; it never stops the
// processing of subsequent blocks.
func (p *Parser) Parse(content string) *Result {
	result := &Result{}
	if strings.TrimSpace(content) == "" {
		return result
	}

	year := p.baseYear
	if m := yearHeaderRE.FindStringSubmatch(content); m != nil {
		if y, err := strconv.Atoi(m[1]); err == nil {
			year = y
		}
	}

	prevMonth := time.Month(0)
	for _, block := range splitBlocks(content) {
		e, err := p.parseBlock(block, year)
		if err != nil {
			result.Failures = append(result.Failures, Failure{
				Block:  block,
				Reason: err.Error(),
			})
			continue
		}

		// Year rollover: a Dec entry followed by a Jan/Feb entry means the
		// calendar year advanced.
		month := e.Timestamp.Month()
		if prevMonth >= time.October && month <= time.February {
			year++
			e.Timestamp = time.Date(year, month, e.Timestamp.Day(),
				e.Timestamp.Hour(), e.Timestamp.Minute(), 0, 0, e.Timestamp.Location())
		}
		prevMonth = month

		result.Entries = append(result.Entries, e)
	}

	return result
}

// splitBlocks slices content at entry-block boundaries. Text before the
// first boundary (year headers, preamble notes) is not a block.
func splitBlocks(content string) []string {
	starts := blockStartRE.FindAllStringIndex(content, -1)
	if len(starts) == 0 {
		return nil
	}

	blocks := make([]string, 0, len(starts))
	for i, loc := range starts {
		end := len(content)
		if i+1 < len(starts) {
			end = starts[i+1][0]
		}
		block := strings.TrimSpace(content[loc[0]:end])
		if block != "" {
			blocks = append(blocks, block)
		}
	}
	return blocks
}

// parseBlock parses one block of contiguous lines into an entry. The header
// line must carry a date, a stage name, and an overall percent; everything
// else is optional and left nil/empty when absent, never fabricated.
func (p *Parser) parseBlock(block string, year int) (entry.Entry, error) {
	lines := strings.Split(block, "\n")
	header := strings.TrimSpace(lines[0])

	ts, err := parseTimestamp(header, year)
	if err != nil {
		return entry.Entry{}, &MalformedBlockError{Block: block, Reason: err.Error()}
	}

	stage, err := parseHeaderStage(header)
	if err != nil {
		return entry.Entry{}, &MalformedBlockError{Block: block, Reason: err.Error()}
	}

	pm := percentRE.FindStringSubmatch(header)
	if pm == nil {
		return entry.Entry{}, &MalformedBlockError{Block: block, Reason: "no overall percent in header"}
	}
	overall, err := strconv.ParseFloat(pm[1], 64)
	if err != nil || overall < 0 || overall > 100 {
		return entry.Entry{}, &MalformedBlockError{Block: block, Reason: "overall percent out of range"}
	}

	e := entry.Entry{
		Timestamp:      ts,
		Stage:          stage,
		OverallPercent: overall,
		Raw:            block,
	}

	parseGrade(block, &e)
	parseTimeRemaining(block, &e)
	parseAnnotations(lines[1:], &e)

	if breakthroughMarkRE.MatchString(block) || breakthroughAnyRE.MatchString(block) {
		e.Breakthrough = true
	}

	return e, nil
}

// parseTimestamp extracts the date and clock time from a header line.
// A missing clock time defaults to noon, matching how undated manual
// captures were logged.
func parseTimestamp(header string, year int) (time.Time, error) {
	dm := dateRE.FindStringSubmatch(header)
	if dm == nil {
		return time.Time{}, &MalformedBlockError{Reason: "no date in header"}
	}

	month, ok := monthNumbers[strings.ToLower(dm[1])[:3]]
	if !ok {
		return time.Time{}, &MalformedBlockError{Reason: "unrecognized month"}
	}
	day, err := strconv.Atoi(dm[2])
	if err != nil || day < 1 || day > 31 {
		return time.Time{}, &MalformedBlockError{Reason: "day out of range"}
	}

	hour, minute := 12, 0
	if cm := clockRE.FindStringSubmatch(header); cm != nil {
		hour, _ = strconv.Atoi(cm[1])
		minute, _ = strconv.Atoi(cm[2])
		ampm := strings.ToUpper(cm[3])
		if ampm == "PM" && hour != 12 {
			hour += 12
		} else if ampm == "AM" && hour == 12 {
			hour = 0
		}
	}

	// Clamp days past the end of the month rather than rejecting the block;
	// OCR noise produces the occasional Feb 30.
	ts := time.Date(year, month, day, hour, minute, 0, 0, time.UTC)
	for ts.Month() != month && day > 28 {
		day--
		ts = time.Date(year, month, day, hour, minute, 0, 0, time.UTC)
	}
	return ts, nil
}

// parseHeaderStage extracts and validates the stage named in a header line.
// A realm-like token outside the fixed sequence rejects the block.
func parseHeaderStage(header string) (entry.Stage, error) {
	if sm := stageRE.FindStringSubmatch(header); sm != nil {
		return entry.ParseStage(sm[1] + " " + sm[2])
	}
	if rm := realmRE.FindStringSubmatch(header); rm != nil {
		return entry.StageUnknown, &entry.UnknownStageError{Token: rm[1] + " " + rm[2]}
	}
	return entry.StageUnknown, &MalformedBlockError{Reason: "no stage in header"}
}

// parseGrade extracts the grade level and grade percent. The last "G{n} at
// {x}%" match wins; breakthrough lines are the fallback source.
func parseGrade(block string, e *entry.Entry) {
	if matches := gradeRE.FindAllStringSubmatch(block, -1); len(matches) > 0 {
		m := matches[len(matches)-1]
		if level, err := strconv.Atoi(m[1]); err == nil {
			e.GradeLevel = &level
		}
		if pct, err := strconv.ParseFloat(m[2], 64); err == nil {
			e.GradePercent = &pct
		}
		return
	}

	if m := breakthroughGradeRE.FindStringSubmatch(block); m != nil {
		if level, err := strconv.Atoi(m[1]); err == nil {
			e.GradeLevel = &level
		}
		if m[2] != "" {
			if pct, err := strconv.ParseFloat(m[2], 64); err == nil {
				e.GradePercent = &pct
			}
		}
		return
	}

	if m := gradeBareRE.FindStringSubmatch(block); m != nil {
		if level, err := strconv.Atoi(m[1]); err == nil {
			e.GradeLevel = &level
		}
		return
	}

	if m := currentlyRE.FindStringSubmatch(block); m != nil {
		if pct, err := strconv.ParseFloat(m[1], 64); err == nil {
			e.GradePercent = &pct
		}
	}
}

// parseTimeRemaining extracts the "time to next breakthrough" values,
// tolerating label variants (Ys, Year, hrs, MIin) and the "157 and 27 Min"
// shape where the hours label is missing.
func parseTimeRemaining(block string, e *entry.Entry) {
	var (
		tr  entry.TimeRemaining
		any bool
	)

	if m := yearsRE.FindStringSubmatch(block); m != nil {
		if v, err := strconv.ParseFloat(m[1], 64); err == nil {
			tr.Years = v
			any = true
		}
	}
	if m := hoursRE.FindStringSubmatch(block); m != nil {
		if v, err := strconv.Atoi(m[1]); err == nil {
			tr.Hours = v
			any = true
		}
	} else if m := hoursAndRE.FindStringSubmatch(block); m != nil {
		h, herr := strconv.Atoi(m[1])
		min, merr := strconv.Atoi(m[2])
		if herr == nil && merr == nil {
			tr.Hours = h
			tr.Minutes = min
			any = true
		}
	}
	if m := minutesRE.FindStringSubmatch(block); m != nil {
		if v, err := strconv.Atoi(m[1]); err == nil {
			tr.Minutes = v
			any = true
		}
	}

	if any {
		e.TimeRemaining = &tr
	}
}

// parseAnnotations classifies body lines that matched no structured pattern.
// The first free-text line becomes the action context, an "Est ..." line
// becomes the estimate note; further unmatched lines are already preserved
// in Raw.
func parseAnnotations(body []string, e *entry.Entry) {
	for _, line := range body {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if gradeRE.MatchString(line) || gradeBareRE.MatchString(line) ||
			currentlyRE.MatchString(line) || breakthroughAnyRE.MatchString(line) ||
			breakthroughMarkRE.MatchString(line) {
			continue
		}
		if yearsRE.MatchString(line) || hoursRE.MatchString(line) ||
			minutesRE.MatchString(line) || timeToNextRE.MatchString(line) {
			continue
		}
		if estNoteRE.MatchString(line) {
			if e.EstNote == "" {
				e.EstNote = line
			}
			continue
		}
		if e.ActionContext == "" {
			e.ActionContext = line
		} else if e.EstNote == "" {
			e.EstNote = line
		}
	}
}
