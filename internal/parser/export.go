package parser

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/hargabyte/omtrack/internal/entry"
)

// Export converts entries to the stable record schema consumed by the
// analyzer, chart generators, and the dashboard. Field names and types are
// a compatibility contract across tool versions.
func Export(entries []entry.Entry) []entry.Record {
	return entry.ToRecords(entries)
}

// WriteJSON exports entries as an indented JSON array of records,
// suitable for re-loading without re-parsing the raw log.
func WriteJSON(path string, entries []entry.Entry) error {
	data, err := json.MarshalIndent(Export(entries), "", "  ")
	if err != nil {
		return fmt.Errorf("encoding records: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

// ReadJSON loads a previously exported record file back into entries.
func ReadJSON(path string) ([]entry.Entry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &FileReadError{Path: path, Err: err}
	}

	var records []entry.Record
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("decoding %s: %w", path, err)
	}
	return entry.FromRecords(records)
}
