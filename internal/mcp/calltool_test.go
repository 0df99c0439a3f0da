package mcp

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	"github.com/hargabyte/omtrack/internal/entry"
)

const testLog = `2026

February 9, 6:41 PM - Eternal Early (20.4%)
After Reset, Pills
G8 at 57%

February 14, 6:41 PM - Eternal Early (45%)
G9
`

func newTestMCPServer(t *testing.T) *Server {
	t.Helper()
	logPath := filepath.Join(t.TempDir(), "progression_log.txt")
	if err := os.WriteFile(logPath, []byte(testLog), 0644); err != nil {
		t.Fatal(err)
	}
	s, err := New(logPath, 0, nil, Config{})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return s
}

func TestNewRequiresLogPath(t *testing.T) {
	if _, err := New("", 0, nil, Config{}); err == nil {
		t.Error("empty log path should fail")
	}
}

func TestNewRejectsUnknownTool(t *testing.T) {
	_, err := New("log.txt", 0, nil, Config{Tools: []string{"om_bogus"}})
	if err == nil || !strings.Contains(err.Error(), "om_bogus") {
		t.Errorf("err = %v, want unknown-tool error naming om_bogus", err)
	}
}

func TestListTools(t *testing.T) {
	s := newTestMCPServer(t)
	tools := s.ListTools()
	sort.Strings(tools)
	want := append([]string(nil), DefaultTools...)
	sort.Strings(want)
	if len(tools) != len(want) {
		t.Fatalf("got %d tools, want %d", len(tools), len(want))
	}
	for i := range want {
		if tools[i] != want[i] {
			t.Errorf("tools[%d] = %q, want %q", i, tools[i], want[i])
		}
	}
}

func TestToolSubset(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "log.txt")
	if err := os.WriteFile(logPath, []byte(testLog), 0644); err != nil {
		t.Fatal(err)
	}
	s, err := New(logPath, 0, nil, Config{Tools: []string{"om_rate"}})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := s.CallTool("om_rate", nil); err != nil {
		t.Errorf("registered tool failed: %v", err)
	}
	if _, err := s.CallTool("om_report", nil); err == nil {
		t.Error("unregistered tool should not be callable")
	}
}

func TestGetToolSchemas(t *testing.T) {
	s := newTestMCPServer(t)
	schemas := s.GetToolSchemas()
	if len(schemas) != len(DefaultTools) {
		t.Fatalf("got %d schemas, want %d", len(schemas), len(DefaultTools))
	}
	for _, schema := range schemas {
		if schema.Description == "" {
			t.Errorf("tool %s has no description", schema.Name)
		}
		for _, p := range schema.Parameters {
			if p.Type != "string" && p.Type != "number" {
				t.Errorf("tool %s parameter %s has type %q", schema.Name, p.Name, p.Type)
			}
		}
	}
}

func TestCallReport(t *testing.T) {
	s := newTestMCPServer(t)

	text, err := s.CallTool("om_report", nil)
	if err != nil {
		t.Fatalf("om_report: %v", err)
	}
	if !strings.Contains(text, "PROGRESSION ANALYSIS REPORT") {
		t.Errorf("text report missing header:\n%s", text)
	}

	js, err := s.CallTool("om_report", map[string]interface{}{"format": "json"})
	if err != nil {
		t.Fatalf("om_report json: %v", err)
	}
	var decoded map[string]interface{}
	if err := json.Unmarshal([]byte(js), &decoded); err != nil {
		t.Fatalf("report json does not decode: %v", err)
	}
}

func TestCallStats(t *testing.T) {
	s := newTestMCPServer(t)

	js, err := s.CallTool("om_stats", map[string]interface{}{"stage": "Eternal Early"})
	if err != nil {
		t.Fatalf("om_stats: %v", err)
	}
	var stats struct {
		Stage      string `json:"stage"`
		EntryCount int    `json:"entry_count"`
	}
	if err := json.Unmarshal([]byte(js), &stats); err != nil {
		t.Fatal(err)
	}
	if stats.Stage != "Eternal Early" || stats.EntryCount != 2 {
		t.Errorf("stats = %+v", stats)
	}

	if _, err := s.CallTool("om_stats", map[string]interface{}{"stage": "Mortal Early"}); err == nil {
		t.Error("unknown stage should fail")
	}
	if _, err := s.CallTool("om_stats", map[string]interface{}{"stage": "Celestial Late"}); err == nil {
		t.Error("unobserved stage should fail")
	}

	all, err := s.CallTool("om_stats", nil)
	if err != nil {
		t.Fatalf("om_stats all: %v", err)
	}
	var grouped struct {
		Stages []json.RawMessage `json:"stages"`
	}
	if err := json.Unmarshal([]byte(all), &grouped); err != nil {
		t.Fatal(err)
	}
	if len(grouped.Stages) != 1 {
		t.Errorf("got %d observed stages, want 1", len(grouped.Stages))
	}
}

func TestCallRate(t *testing.T) {
	s := newTestMCPServer(t)

	js, err := s.CallTool("om_rate", map[string]interface{}{"window_days": 7.0})
	if err != nil {
		t.Fatalf("om_rate: %v", err)
	}
	var rate struct {
		PercentPerDay float64 `json:"percent_per_day"`
		EntryCount    int     `json:"entry_count"`
	}
	if err := json.Unmarshal([]byte(js), &rate); err != nil {
		t.Fatal(err)
	}
	if want := (45.0 - 20.4) / 5; rate.PercentPerDay != want {
		t.Errorf("rate = %v, want %v", rate.PercentPerDay, want)
	}
	if rate.EntryCount != 2 {
		t.Errorf("entry count = %d", rate.EntryCount)
	}
}

func TestCallPredict(t *testing.T) {
	s := newTestMCPServer(t)

	js, err := s.CallTool("om_predict", map[string]interface{}{"target_percent": 50.0})
	if err != nil {
		t.Fatalf("om_predict: %v", err)
	}
	var pred struct {
		Stage            string  `json:"stage"`
		TargetPercent    float64 `json:"target_percent"`
		RemainingPercent float64 `json:"remaining_percent"`
	}
	if err := json.Unmarshal([]byte(js), &pred); err != nil {
		t.Fatal(err)
	}
	if pred.Stage != "Eternal Early" {
		t.Errorf("stage = %q", pred.Stage)
	}
	if pred.TargetPercent != 50 || pred.RemainingPercent != 5 {
		t.Errorf("pred = %+v", pred)
	}
}

func TestCallEntries(t *testing.T) {
	s := newTestMCPServer(t)

	js, err := s.CallTool("om_entries", nil)
	if err != nil {
		t.Fatalf("om_entries: %v", err)
	}
	var resp struct {
		Count   int            `json:"count"`
		Entries []entry.Record `json:"entries"`
	}
	if err := json.Unmarshal([]byte(js), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Count != 2 || len(resp.Entries) != 2 {
		t.Fatalf("resp = %+v", resp)
	}
	if resp.Entries[0].OverallPercent != 45 {
		t.Errorf("entries not newest first: %+v", resp.Entries[0])
	}

	js, err = s.CallTool("om_entries", map[string]interface{}{"limit": 1.0})
	if err != nil {
		t.Fatal(err)
	}
	if err := json.Unmarshal([]byte(js), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Count != 1 {
		t.Errorf("limit not applied: count = %d", resp.Count)
	}
}

func TestCallUnknownTool(t *testing.T) {
	s := newTestMCPServer(t)
	if _, err := s.CallTool("om_nope", nil); err == nil {
		t.Error("unknown tool should fail")
	}
}
