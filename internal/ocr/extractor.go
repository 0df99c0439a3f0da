package ocr

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/hargabyte/omtrack/internal/entry"
	"github.com/hargabyte/omtrack/internal/parser"
)

// realHoursPerGameYear converts the game's in-game-years countdown to real
// hours: one in-game year passes in a quarter of a real hour.
const realHoursPerGameYear = 0.25

var (
	// filenameTimeRE matches the timestamp most launchers embed in
	// screenshot names: Screenshot_2025-09-22-18-50-36-81_pkg.jpg.
	filenameTimeRE = regexp.MustCompile(`(\d{4})-(\d{2})-(\d{2})-(\d{2})-(\d{2})`)

	// The realm prefix is loose: tesseract misreads "Celestial" as
	// "Celesital" or "Celestail" often enough that ParseStage has to sort
	// the candidates out.
	stageTextRE   = regexp.MustCompile(`(?i)(Celes\w*|Eternal)\s*(Early|Middle|Late)(?:\s*(\d+(?:\.\d+)?)\s*%)?`)
	percentTextRE = regexp.MustCompile(`(\d+(?:\.\d+)?)\s*%`)

	// G-level appears as "G2", "2G", or "Middle 2G" depending on which UI
	// panel was captured.
	gLevelTextREs = []*regexp.Regexp{
		regexp.MustCompile(`(?i)G\s*(\d+)`),
		regexp.MustCompile(`(?i)(\d+)\s*G\b`),
	}

	gradeProgressREs = []*regexp.Regexp{
		regexp.MustCompile(`(?i)Progress\s*:?\s*(\d+(?:\.\d+)?)\s*%`),
		regexp.MustCompile(`(?i)(\d+(?:\.\d+)?)\s*%[^%]*?complete`),
	}

	yearsToNextREs = []*regexp.Regexp{
		regexp.MustCompile(`(?i)Next\s+Breakthrough\D*(\d+(?:\.\d+)?)\s*Year`),
		regexp.MustCompile(`(?i)(\d+(?:\.\d+)?)\s*Years?\b`),
		regexp.MustCompile(`(?i)(\d+(?:\.\d+)?)\s*Yrs\b`),
	}

	breakthroughTextRE = regexp.MustCompile(`(?i)break\s*through`)
)

// ImageResult is the outcome of extracting one screenshot.
type ImageResult struct {
	// Filename is the image file name within the batch directory.
	Filename string `json:"filename" yaml:"filename"`
	// Text is the raw recognized text, kept for debugging.
	Text string `json:"-" yaml:"-"`
	// Entry is the normalized snapshot assembled from filename timestamp
	// and recognized fields.
	Entry entry.Entry `json:"entry" yaml:"entry"`
	// Block is the entry rendered in the raw log grammar, independently
	// parseable by the log parser.
	Block string `json:"block" yaml:"block"`
}

// ImageFailure records one screenshot that could not be extracted.
// Failures never abort the batch.
type ImageFailure struct {
	Filename string `json:"filename" yaml:"filename"`
	Reason   string `json:"reason" yaml:"reason"`
}

// BatchResult aggregates a directory extraction.
type BatchResult struct {
	Results  []ImageResult
	Failures []ImageFailure
}

// Log renders all extracted entries as raw log text, blocks separated by
// blank lines, ready to append to the progression log.
func (b *BatchResult) Log() string {
	var sb strings.Builder
	for i, r := range b.Results {
		if i > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString(r.Block + "\n")
	}
	return sb.String()
}

// Extractor runs an OCR engine over a directory of screenshots.
type Extractor struct {
	engine     Engine
	extensions map[string]bool
}

// NewExtractor creates an extractor using the given engine and image file
// extensions (defaults to .png/.jpg/.jpeg when empty).
func NewExtractor(engine Engine, extensions []string) *Extractor {
	if len(extensions) == 0 {
		extensions = []string{".png", ".jpg", ".jpeg"}
	}
	exts := make(map[string]bool, len(extensions))
	for _, e := range extensions {
		exts[strings.ToLower(e)] = true
	}
	return &Extractor{engine: engine, extensions: exts}
}

// ProcessDirectory extracts every image in dir, in filename order (the
// filename carries the capture timestamp, so this is chronological order).
// Failures are isolated per image; one unreadable screenshot never blocks
// the rest of the batch.
func (x *Extractor) ProcessDirectory(ctx context.Context, dir string) (*BatchResult, error) {
	dirEntries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading image directory %s: %w", dir, err)
	}

	var files []string
	for _, de := range dirEntries {
		if de.IsDir() {
			continue
		}
		if x.extensions[strings.ToLower(filepath.Ext(de.Name()))] {
			files = append(files, de.Name())
		}
	}
	sort.Strings(files)

	batch := &BatchResult{}
	for _, name := range files {
		result, err := x.processImage(ctx, dir, name)
		if err != nil {
			batch.Failures = append(batch.Failures, ImageFailure{
				Filename: name,
				Reason:   err.Error(),
			})
			continue
		}
		batch.Results = append(batch.Results, *result)
	}
	return batch, nil
}

// processImage extracts one screenshot into a normalized entry.
func (x *Extractor) processImage(ctx context.Context, dir, name string) (*ImageResult, error) {
	ts, err := timestampFromFilename(name)
	if err != nil {
		return nil, err
	}

	text, err := x.engine.ExtractText(ctx, filepath.Join(dir, name))
	if err != nil {
		return nil, err
	}

	e, err := parseGameText(text)
	if err != nil {
		return nil, &ImageError{Path: name, Err: err}
	}
	e.Timestamp = ts

	block := parser.Render(e)
	e.Raw = block

	return &ImageResult{
		Filename: name,
		Text:     text,
		Entry:    e,
		Block:    block,
	}, nil
}

// timestampFromFilename pulls the capture time out of the screenshot name.
func timestampFromFilename(name string) (time.Time, error) {
	m := filenameTimeRE.FindStringSubmatch(name)
	if m == nil {
		return time.Time{}, &ImageError{Path: name, Err: fmt.Errorf("no timestamp in filename")}
	}
	year, _ := strconv.Atoi(m[1])
	month, _ := strconv.Atoi(m[2])
	day, _ := strconv.Atoi(m[3])
	hour, _ := strconv.Atoi(m[4])
	minute, _ := strconv.Atoi(m[5])

	if month < 1 || month > 12 || day < 1 || day > 31 {
		return time.Time{}, &ImageError{Path: name, Err: fmt.Errorf("implausible timestamp in filename")}
	}
	return time.Date(year, time.Month(month), day, hour, minute, 0, 0, time.UTC), nil
}

// parseGameText matches the game's UI text and assembles an entry. The
// stage panel is required; everything else degrades to nil when the capture
// missed it.
func parseGameText(text string) (entry.Entry, error) {
	clean := strings.Join(strings.Fields(text), " ")

	sm := stageTextRE.FindStringSubmatch(clean)
	if sm == nil {
		return entry.Entry{}, fmt.Errorf("no stage found in recognized text")
	}
	stage, err := entry.ParseStage(sm[1] + " " + sm[2])
	if err != nil {
		return entry.Entry{}, err
	}

	e := entry.Entry{Stage: stage}

	if sm[3] != "" {
		e.OverallPercent, _ = strconv.ParseFloat(sm[3], 64)
	} else if pm := percentTextRE.FindStringSubmatch(clean); pm != nil {
		e.OverallPercent, _ = strconv.ParseFloat(pm[1], 64)
	} else {
		return entry.Entry{}, fmt.Errorf("no overall percent found in recognized text")
	}

	for _, re := range gLevelTextREs {
		if m := re.FindStringSubmatch(clean); m != nil {
			if level, err := strconv.Atoi(m[1]); err == nil {
				e.GradeLevel = &level
			}
			break
		}
	}

	for _, re := range gradeProgressREs {
		if m := re.FindStringSubmatch(clean); m != nil {
			if pct, err := strconv.ParseFloat(m[1], 64); err == nil {
				e.GradePercent = &pct
			}
			break
		}
	}

	for _, re := range yearsToNextREs {
		if m := re.FindStringSubmatch(clean); m != nil {
			years, err := strconv.ParseFloat(m[1], 64)
			if err != nil {
				continue
			}
			realHours := years * realHoursPerGameYear
			e.TimeRemaining = &entry.TimeRemaining{
				Years:   years,
				Hours:   int(realHours),
				Minutes: int((realHours - float64(int(realHours))) * 60),
			}
			break
		}
	}

	if breakthroughTextRE.MatchString(clean) {
		e.Breakthrough = true
	}

	return e, nil
}
