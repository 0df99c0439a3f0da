// Package chart renders analyzer output as Mermaid chart definitions.
// The output is text; turning it into images is left to whatever Mermaid
// renderer the caller prefers.
package chart

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/hargabyte/omtrack/internal/analyze"
	"github.com/hargabyte/omtrack/internal/entry"
)

// Options configures Mermaid chart generation.
type Options struct {
	Title     string // Optional chart title
	MaxPoints int    // Maximum data points before downsampling (default: 60)
}

// DefaultOptions returns sensible defaults for chart generation.
func DefaultOptions() *Options {
	return &Options{MaxPoints: 60}
}

// OverallProgression renders the absolute journey percent over time as a
// Mermaid xychart line. Entries without a recognizable stage are skipped.
func OverallProgression(entries []entry.Entry, opts *Options) string {
	if opts == nil {
		opts = DefaultOptions()
	}

	sorted := entry.SortByTimestamp(entries)
	var labels []string
	var values []float64
	for _, e := range sorted {
		abs, err := entry.AbsolutePercent(e.Stage, e.OverallPercent)
		if err != nil {
			continue
		}
		labels = append(labels, e.Timestamp.Format("Jan 02"))
		values = append(values, abs)
	}
	labels, values = downsample(labels, values, opts.MaxPoints)

	title := opts.Title
	if title == "" {
		title = "Overall Progression"
	}
	return xychart(title, "Journey %", labels, values, 0, 100)
}

// StageProgression renders within-stage percent over time for one stage.
func StageProgression(entries []entry.Entry, stage entry.Stage, opts *Options) string {
	if opts == nil {
		opts = DefaultOptions()
	}

	se := entry.SortByTimestamp(entry.ByStage(entries, stage))
	var labels []string
	var values []float64
	for _, e := range se {
		labels = append(labels, e.Timestamp.Format("Jan 02"))
		values = append(values, e.OverallPercent)
	}
	labels, values = downsample(labels, values, opts.MaxPoints)

	title := opts.Title
	if title == "" {
		title = stage.String() + " Progression"
	}
	return xychart(title, "Stage %", labels, values, 0, 100)
}

// DailyRate renders the percent-per-day between consecutive same-stage
// entries.
func DailyRate(entries []entry.Entry, opts *Options) string {
	if opts == nil {
		opts = DefaultOptions()
	}

	sorted := entry.SortByTimestamp(entries)
	var labels []string
	var values []float64
	for i := 1; i < len(sorted); i++ {
		prev, curr := sorted[i-1], sorted[i]
		if prev.Stage != curr.Stage {
			continue
		}
		days := curr.Timestamp.Sub(prev.Timestamp).Hours() / 24
		if days <= 0 {
			continue
		}
		labels = append(labels, curr.Timestamp.Format("Jan 02"))
		values = append(values, (curr.OverallPercent-prev.OverallPercent)/days)
	}
	labels, values = downsample(labels, values, opts.MaxPoints)

	title := opts.Title
	if title == "" {
		title = "Daily Progress Rate"
	}
	lo, hi := bounds(values)
	return xychart(title, "% per day", labels, values, lo, hi)
}

// StageComparison renders average percent-per-day per stage as a bar chart.
func StageComparison(efficiency []analyze.StageEfficiency, opts *Options) string {
	if opts == nil {
		opts = DefaultOptions()
	}

	var labels []string
	var values []float64
	for _, e := range efficiency {
		labels = append(labels, e.Stage)
		values = append(values, e.PercentPerDay)
	}

	title := opts.Title
	if title == "" {
		title = "Stage Comparison"
	}

	var b strings.Builder
	b.WriteString("xychart-beta\n")
	fmt.Fprintf(&b, "    title \"%s\"\n", escape(title))
	fmt.Fprintf(&b, "    x-axis [%s]\n", joinLabels(labels))
	lo, hi := bounds(values)
	fmt.Fprintf(&b, "    y-axis \"%% per day\" %s --> %s\n", formatValue(lo), formatValue(hi))
	fmt.Fprintf(&b, "    bar [%s]\n", joinValues(values))
	return b.String()
}

// xychart assembles a single-series Mermaid line chart.
func xychart(title, yLabel string, labels []string, values []float64, yMin, yMax float64) string {
	var b strings.Builder
	b.WriteString("xychart-beta\n")
	fmt.Fprintf(&b, "    title \"%s\"\n", escape(title))
	fmt.Fprintf(&b, "    x-axis [%s]\n", joinLabels(labels))
	fmt.Fprintf(&b, "    y-axis \"%s\" %s --> %s\n", escape(yLabel), formatValue(yMin), formatValue(yMax))
	fmt.Fprintf(&b, "    line [%s]\n", joinValues(values))
	return b.String()
}

// downsample keeps at most max points, always retaining the first and last.
func downsample(labels []string, values []float64, max int) ([]string, []float64) {
	if max <= 0 || len(values) <= max {
		return labels, values
	}

	step := float64(len(values)-1) / float64(max-1)
	outLabels := make([]string, 0, max)
	outValues := make([]float64, 0, max)
	for i := 0; i < max; i++ {
		idx := int(float64(i)*step + 0.5)
		if idx >= len(values) {
			idx = len(values) - 1
		}
		outLabels = append(outLabels, labels[idx])
		outValues = append(outValues, values[idx])
	}
	return outLabels, outValues
}

// bounds returns padded y-axis bounds for a series, defaulting to [0,1]
// for an empty series.
func bounds(values []float64) (float64, float64) {
	if len(values) == 0 {
		return 0, 1
	}
	lo, hi := values[0], values[0]
	for _, v := range values[1:] {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	if lo > 0 {
		lo = 0
	}
	if hi <= lo {
		hi = lo + 1
	}
	return lo, hi
}

func joinLabels(labels []string) string {
	quoted := make([]string, len(labels))
	for i, l := range labels {
		quoted[i] = `"` + escape(l) + `"`
	}
	return strings.Join(quoted, ", ")
}

func joinValues(values []float64) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = formatValue(v)
	}
	return strings.Join(parts, ", ")
}

func formatValue(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

// escape strips characters that would break Mermaid string literals.
func escape(s string) string {
	s = strings.ReplaceAll(s, `"`, `'`)
	s = strings.ReplaceAll(s, "\n", " ")
	return s
}
