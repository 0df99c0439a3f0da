// Package web serves the progression dashboard: a JSON analytics API and a
// minimal HTML shell over the tracked log file.
package web

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/hargabyte/omtrack/internal/analyze"
	"github.com/hargabyte/omtrack/internal/entry"
	"github.com/hargabyte/omtrack/internal/parser"
)

// Server exposes progression analytics over HTTP. The log file is the
// single source of truth; every request reparses it so the dashboard
// reflects edits made outside the server.
type Server struct {
	logPath        string
	rateWindowDays float64
	parser         *parser.Parser
	logger         *slog.Logger

	// appendMu serializes writes to the log file across handlers.
	appendMu sync.Mutex
}

// NewServer creates a dashboard server for the given log file.
func NewServer(logPath string, rateWindowDays float64, p *parser.Parser, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if p == nil {
		p = parser.New()
	}
	return &Server{
		logPath:        logPath,
		rateWindowDays: rateWindowDays,
		parser:         p,
		logger:         logger,
	}
}

// Router builds the chi router with all dashboard routes mounted.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/", s.handleIndex)
	r.Get("/health", s.handleHealth)
	r.Get("/api/analytics", s.handleAnalytics)
	r.Post("/api/add-entry", s.handleAddEntry)

	return r
}

// ListenAndServe runs the dashboard until the listener fails.
func (s *Server) ListenAndServe(addr string) error {
	s.logger.Info("dashboard listening", "addr", addr, "log", s.logPath)
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return srv.ListenAndServe()
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(indexHTML))
}

// timelinePoint is one dated observation in the analytics response.
type timelinePoint struct {
	Timestamp       time.Time `json:"timestamp"`
	Stage           string    `json:"stage"`
	OverallPercent  float64   `json:"overall_percent"`
	AbsolutePercent float64   `json:"absolute_percent"`
	GradeLevel      *int      `json:"grade_level,omitempty"`
}

// stageSummary is per-stage analytics in the response.
type stageSummary struct {
	Stage         string  `json:"stage"`
	EntryCount    int     `json:"entry_count"`
	SpanDays      float64 `json:"span_days"`
	StartPercent  float64 `json:"start_percent"`
	EndPercent    float64 `json:"end_percent"`
	AvgPercentDay float64 `json:"avg_percent_per_day"`
}

// analyticsResponse is the GET /api/analytics payload.
type analyticsResponse struct {
	EntryCount      int              `json:"entry_count"`
	CurrentStage    string           `json:"current_stage,omitempty"`
	CurrentPercent  float64          `json:"current_percent"`
	AbsolutePercent float64          `json:"absolute_percent"`
	Stages          []stageSummary   `json:"stages"`
	Timeline        []timelinePoint  `json:"timeline"`
	Rate            *analyze.Rate    `json:"rate,omitempty"`
	RateNote        string           `json:"rate_note,omitempty"`
	Prediction      *predictionBrief `json:"prediction,omitempty"`
	PredictionNote  string           `json:"prediction_note,omitempty"`
	ParseFailures   int              `json:"parse_failures"`
}

type predictionBrief struct {
	Stage       string    `json:"stage"`
	PredictedAt time.Time `json:"predicted_at"`
	DaysNeeded  float64   `json:"days_needed"`
}

func (s *Server) handleAnalytics(w http.ResponseWriter, r *http.Request) {
	result, err := s.parser.ParseFile(s.logPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			writeJSON(w, http.StatusOK, analyticsResponse{
				Stages:   []stageSummary{},
				Timeline: []timelinePoint{},
			})
			return
		}
		s.logger.Error("parse failed", "path", s.logPath, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to read progression log")
		return
	}

	a := analyze.New(result.Entries)
	resp := analyticsResponse{
		EntryCount:    len(result.Entries),
		Stages:        []stageSummary{},
		Timeline:      []timelinePoint{},
		ParseFailures: len(result.Failures),
	}

	for _, e := range a.Entries() {
		abs, err := entry.AbsolutePercent(e.Stage, e.OverallPercent)
		if err != nil {
			continue
		}
		resp.Timeline = append(resp.Timeline, timelinePoint{
			Timestamp:       e.Timestamp,
			Stage:           e.Stage.String(),
			OverallPercent:  e.OverallPercent,
			AbsolutePercent: abs,
			GradeLevel:      e.GradeLevel,
		})
	}

	if latest, ok := entry.Latest(result.Entries); ok {
		resp.CurrentStage = latest.Stage.String()
		resp.CurrentPercent = latest.OverallPercent
		if abs, err := entry.AbsolutePercent(latest.Stage, latest.OverallPercent); err == nil {
			resp.AbsolutePercent = abs
		}

		for _, st := range entry.Stages() {
			stats, err := a.StageStatistics(st)
			if err != nil {
				continue
			}
			resp.Stages = append(resp.Stages, stageSummary{
				Stage:         stats.Stage,
				EntryCount:    stats.EntryCount,
				SpanDays:      stats.SpanDays,
				StartPercent:  stats.StartPercent,
				EndPercent:    stats.EndPercent,
				AvgPercentDay: stats.AvgPercentPerDay,
			})
		}

		if rate, err := a.ProgressionRate(s.rateWindowDays); err == nil {
			resp.Rate = &rate
		} else {
			resp.RateNote = err.Error()
		}
		if pred, err := a.PredictBreakthrough(latest.Stage, s.rateWindowDays); err == nil {
			resp.Prediction = &predictionBrief{
				Stage:       pred.Stage,
				PredictedAt: pred.PredictedAt,
				DaysNeeded:  pred.DaysNeeded,
			}
		} else {
			resp.PredictionNote = err.Error()
		}
	}

	writeJSON(w, http.StatusOK, resp)
}

// addEntryRequest is the POST /api/add-entry payload.
type addEntryRequest struct {
	Timestamp      string   `json:"timestamp"` // RFC3339; empty means now
	Stage          string   `json:"stage"`
	OverallPercent float64  `json:"overall_percent"`
	GradeLevel     *int     `json:"grade_level,omitempty"`
	GradePercent   *float64 `json:"grade_percent,omitempty"`
	ActionContext  string   `json:"action_context,omitempty"`
	Breakthrough   bool     `json:"breakthrough,omitempty"`
}

func (s *Server) handleAddEntry(w http.ResponseWriter, r *http.Request) {
	var req addEntryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	stage, err := entry.ParseStage(req.Stage)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.OverallPercent < 0 || req.OverallPercent > 100 {
		writeError(w, http.StatusBadRequest, "overall_percent must be within [0, 100]")
		return
	}

	ts := time.Now()
	if req.Timestamp != "" {
		ts, err = time.Parse(time.RFC3339, req.Timestamp)
		if err != nil {
			writeError(w, http.StatusBadRequest, "timestamp must be RFC3339")
			return
		}
	}

	e := entry.Entry{
		Timestamp:      ts,
		Stage:          stage,
		OverallPercent: req.OverallPercent,
		GradeLevel:     req.GradeLevel,
		GradePercent:   req.GradePercent,
		ActionContext:  req.ActionContext,
		Breakthrough:   req.Breakthrough,
	}

	s.appendMu.Lock()
	err = parser.AppendEntry(s.logPath, e)
	s.appendMu.Unlock()
	if err != nil {
		s.logger.Error("append failed", "path", s.logPath, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to append entry")
		return
	}

	s.logger.Info("entry appended", "stage", stage.String(), "percent", req.OverallPercent)
	writeJSON(w, http.StatusCreated, map[string]string{
		"status": "created",
		"block":  parser.Render(e),
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

const indexHTML = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>omtrack dashboard</title>
<style>
body { font-family: system-ui, sans-serif; margin: 2rem; color: #222; }
pre { background: #f4f4f4; padding: 1rem; overflow-x: auto; }
</style>
</head>
<body>
<h1>omtrack</h1>
<p>Progression analytics are served from <code>/api/analytics</code>.</p>
<pre id="out">loading...</pre>
<script>
fetch('/api/analytics')
  .then(function (r) { return r.json(); })
  .then(function (d) {
    document.getElementById('out').textContent = JSON.stringify(d, null, 2);
  })
  .catch(function (e) {
    document.getElementById('out').textContent = 'failed to load: ' + e;
  });
</script>
</body>
</html>
`
