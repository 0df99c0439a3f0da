package web

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const testLog = `2026

February 9, 6:41 PM - Eternal Early (20.4%)
After Reset, Pills
G8 at 57%

February 14, 6:41 PM - Eternal Early (45%)
G9
`

func newTestServer(t *testing.T, logContent string) (*httptest.Server, string) {
	t.Helper()
	logPath := filepath.Join(t.TempDir(), "progression_log.txt")
	if logContent != "" {
		if err := os.WriteFile(logPath, []byte(logContent), 0644); err != nil {
			t.Fatal(err)
		}
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	ts := httptest.NewServer(NewServer(logPath, 0, nil, logger).Router())
	t.Cleanup(ts.Close)
	return ts, logPath
}

func getJSON(t *testing.T, url string, out any) int {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		t.Fatalf("decoding %s response: %v", url, err)
	}
	return resp.StatusCode
}

func TestHealth(t *testing.T) {
	ts, _ := newTestServer(t, testLog)

	var body map[string]string
	if code := getJSON(t, ts.URL+"/health", &body); code != http.StatusOK {
		t.Fatalf("status = %d", code)
	}
	if body["status"] != "ok" {
		t.Errorf("body = %v", body)
	}
}

func TestIndex(t *testing.T) {
	ts, _ := newTestServer(t, testLog)

	resp, err := http.Get(ts.URL + "/")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Errorf("content type = %q", ct)
	}
	page, _ := io.ReadAll(resp.Body)
	if !bytes.Contains(page, []byte("/api/analytics")) {
		t.Error("index page does not reference the analytics API")
	}
}

func TestAnalytics(t *testing.T) {
	ts, _ := newTestServer(t, testLog)

	var resp analyticsResponse
	if code := getJSON(t, ts.URL+"/api/analytics", &resp); code != http.StatusOK {
		t.Fatalf("status = %d", code)
	}
	if resp.EntryCount != 2 {
		t.Errorf("entry count = %d", resp.EntryCount)
	}
	if resp.CurrentStage != "Eternal Early" || resp.CurrentPercent != 45 {
		t.Errorf("current = %s (%v%%)", resp.CurrentStage, resp.CurrentPercent)
	}
	if len(resp.Timeline) != 2 {
		t.Fatalf("timeline has %d points", len(resp.Timeline))
	}
	if !resp.Timeline[0].Timestamp.Before(resp.Timeline[1].Timestamp) {
		t.Error("timeline not chronological")
	}
	if resp.Timeline[0].GradeLevel == nil || *resp.Timeline[0].GradeLevel != 8 {
		t.Errorf("grade level = %v", resp.Timeline[0].GradeLevel)
	}
	if len(resp.Stages) != 1 || resp.Stages[0].EntryCount != 2 {
		t.Errorf("stages = %+v", resp.Stages)
	}
	if resp.Rate == nil {
		t.Fatalf("rate missing: %s", resp.RateNote)
	}
	if got, want := resp.Rate.PercentPerDay, (45.0-20.4)/5; got != want {
		t.Errorf("rate = %v, want %v", got, want)
	}
	if resp.Prediction == nil {
		t.Errorf("prediction missing: %s", resp.PredictionNote)
	}
	if resp.ParseFailures != 0 {
		t.Errorf("parse failures = %d", resp.ParseFailures)
	}
}

func TestAnalyticsMissingLog(t *testing.T) {
	ts, _ := newTestServer(t, "")

	var resp analyticsResponse
	if code := getJSON(t, ts.URL+"/api/analytics", &resp); code != http.StatusOK {
		t.Fatalf("status = %d, want 200 for missing log", code)
	}
	if resp.EntryCount != 0 || len(resp.Timeline) != 0 {
		t.Errorf("missing log should yield empty analytics: %+v", resp)
	}
}

func TestAddEntry(t *testing.T) {
	ts, logPath := newTestServer(t, testLog)

	payload := `{"timestamp":"2026-02-20T09:15:00Z","stage":"Eternal Early","overall_percent":61.5,"action_context":"Night grind"}`
	resp, err := http.Post(ts.URL+"/api/add-entry", "application/json", strings.NewReader(payload))
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		body, _ := io.ReadAll(resp.Body)
		t.Fatalf("status = %d: %s", resp.StatusCode, body)
	}
	var created map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		t.Fatal(err)
	}
	if created["status"] != "created" {
		t.Errorf("body = %v", created)
	}
	if !strings.Contains(created["block"], "Eternal Early (61.5%)") {
		t.Errorf("block = %q", created["block"])
	}

	// The appended entry must be visible to the next analytics read.
	var analytics analyticsResponse
	getJSON(t, ts.URL+"/api/analytics", &analytics)
	if analytics.EntryCount != 3 {
		t.Errorf("entry count after append = %d, want 3", analytics.EntryCount)
	}
	if analytics.CurrentPercent != 61.5 {
		t.Errorf("current percent after append = %v", analytics.CurrentPercent)
	}

	content, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(content), "Night grind") {
		t.Error("action context not written to the log")
	}
}

func TestAddEntryCreatesLog(t *testing.T) {
	ts, logPath := newTestServer(t, "")

	payload := `{"timestamp":"2026-02-20T09:15:00Z","stage":"Celestial Early","overall_percent":1}`
	resp, err := http.Post(ts.URL+"/api/add-entry", "application/json", strings.NewReader(payload))
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if _, err := os.Stat(logPath); err != nil {
		t.Errorf("log file not created: %v", err)
	}
}

func TestAddEntryValidation(t *testing.T) {
	ts, _ := newTestServer(t, testLog)

	tests := []struct {
		name    string
		payload string
	}{
		{"malformed json", `{"stage":`},
		{"unknown stage", `{"stage":"Mortal Early","overall_percent":10}`},
		{"percent out of range", `{"stage":"Eternal Early","overall_percent":120}`},
		{"bad timestamp", `{"stage":"Eternal Early","overall_percent":10,"timestamp":"yesterday"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := http.Post(ts.URL+"/api/add-entry", "application/json", strings.NewReader(tt.payload))
			if err != nil {
				t.Fatal(err)
			}
			defer resp.Body.Close()
			if resp.StatusCode != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", resp.StatusCode)
			}
			var body map[string]string
			if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
				t.Fatal(err)
			}
			if body["error"] == "" {
				t.Error("error body missing")
			}
		})
	}
}
