package parser

import (
	"reflect"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/hargabyte/omtrack/internal/entry"
)

// genStage generates a valid stage.
func genStage() gopter.Gen {
	return gen.IntRange(0, 5).Map(func(i int) entry.Stage {
		return entry.Stages()[i]
	})
}

// genPercent generates an overall percent with two decimals in [0,100].
func genPercent() gopter.Gen {
	return gen.IntRange(0, 10000).Map(func(i int) float64 {
		return float64(i) / 100
	})
}

// genTimestamp generates a minute-resolution timestamp within one year.
// The log grammar carries no seconds, so finer resolution cannot round-trip.
func genTimestamp() gopter.Gen {
	base := time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC)
	return gen.IntRange(0, 364*24*60).Map(func(minutes int) time.Time {
		return base.Add(time.Duration(minutes) * time.Minute)
	})
}

// genContext generates an action-context line. Contexts are free text; the
// pool avoids lines the structured patterns would claim.
func genContext() gopter.Gen {
	return gen.OneConstOf("", "After Reset, Pills", "Hunting in the Ashen Vale",
		"Night grind", "Idle overnight")
}

// genEstNote generates an estimate note in the canonical "Est ..." form the
// renderer emits.
func genEstNote() gopter.Gen {
	return gen.OneConstOf("", "Est: G9 by Feb 14", "Est breakthrough this weekend",
		"Est: two more days at this pace")
}

// genEntry generates a log entry with random optional fields.
func genEntry() gopter.Gen {
	return gopter.CombineGens(
		genTimestamp(),
		genStage(),
		genPercent(),
		gen.IntRange(0, 12),   // grade level, 0 means absent
		genPercent(),          // grade percent
		gen.Bool(),            // grade percent present
		gen.Bool(),            // time remaining present
		gen.IntRange(0, 500),  // remaining hours
		gen.IntRange(0, 59),   // remaining minutes
		gen.Bool(),            // breakthrough
		genContext(),
		genEstNote(),
	).Map(func(vals []interface{}) entry.Entry {
		e := entry.Entry{
			Timestamp:      vals[0].(time.Time),
			Stage:          vals[1].(entry.Stage),
			OverallPercent: vals[2].(float64),
			Breakthrough:   vals[9].(bool),
			ActionContext:  vals[10].(string),
			EstNote:        vals[11].(string),
		}
		if level := vals[3].(int); level > 0 {
			e.GradeLevel = &level
			if vals[5].(bool) {
				pct := vals[4].(float64)
				e.GradePercent = &pct
			}
		}
		if vals[6].(bool) {
			e.TimeRemaining = &entry.TimeRemaining{
				Years:   float64(vals[7].(int)) * 0.25,
				Hours:   vals[7].(int),
				Minutes: vals[8].(int),
			}
		}
		return e
	})
}

func TestRenderParseRoundTripProperty(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200

	properties := gopter.NewProperties(parameters)

	properties.Property("parse(render(e)) equals e in every field", prop.ForAll(
		func(e entry.Entry) bool {
			result := NewWithYear(e.Timestamp.Year()).Parse(Render(e))
			if len(result.Entries) != 1 || len(result.Failures) != 0 {
				return false
			}
			got := result.Entries[0]
			got.Raw = ""
			return reflect.DeepEqual(got, e)
		},
		genEntry(),
	))

	properties.Property("rendered logs sort by timestamp regardless of block order", prop.ForAll(
		func(entries []entry.Entry) bool {
			// Render in arbitrary generated order within one year.
			var content string
			for _, e := range entries {
				content += Render(e) + "\n\n"
			}
			result := NewWithYear(2026).Parse(content)
			sorted := result.Sorted()
			for i := 1; i < len(sorted); i++ {
				if sorted[i].Timestamp.Before(sorted[i-1].Timestamp) {
					return false
				}
			}
			return len(sorted) == len(entries)
		},
		gen.SliceOfN(5, genEntry()),
	))

	properties.TestingRun(t)
}
