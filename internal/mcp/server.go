// Package mcp provides an MCP (Model Context Protocol) server for omtrack.
// This allows AI agents to query progression analytics through MCP tools
// instead of CLI commands.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/hargabyte/omtrack/internal/analyze"
	"github.com/hargabyte/omtrack/internal/entry"
	"github.com/hargabyte/omtrack/internal/parser"
	"github.com/hargabyte/omtrack/internal/report"
)

// Server wraps the MCP server with omtrack-specific functionality.
type Server struct {
	mcpServer      *server.MCPServer
	logPath        string
	rateWindowDays float64
	parser         *parser.Parser
	tools          map[string]bool
	lastActivity   time.Time
	timeout        time.Duration
	mu             sync.RWMutex
}

// Config holds server configuration.
type Config struct {
	Tools   []string      // Which tools to expose (empty = all)
	Timeout time.Duration // Inactivity timeout (0 = no timeout)
}

// DefaultTools is the default set of tools to expose.
var DefaultTools = []string{"om_report", "om_stats", "om_rate", "om_predict", "om_entries"}

// AllTools lists all available tools.
var AllTools = []string{"om_report", "om_stats", "om_rate", "om_predict", "om_entries"}

// New creates a new MCP server reading from the given progression log.
func New(logPath string, rateWindowDays float64, p *parser.Parser, cfg Config) (*Server, error) {
	if logPath == "" {
		return nil, fmt.Errorf("log path is required")
	}
	if p == nil {
		p = parser.New()
	}

	mcpServer := server.NewMCPServer(
		"omtrack",
		"1.0.0",
		server.WithToolCapabilities(false),
	)

	s := &Server{
		mcpServer:      mcpServer,
		logPath:        logPath,
		rateWindowDays: rateWindowDays,
		parser:         p,
		tools:          make(map[string]bool),
		lastActivity:   time.Now(),
		timeout:        cfg.Timeout,
	}

	toolsToRegister := cfg.Tools
	if len(toolsToRegister) == 0 {
		toolsToRegister = DefaultTools
	}

	for _, toolName := range toolsToRegister {
		if err := s.registerTool(toolName); err != nil {
			return nil, fmt.Errorf("failed to register tool %s: %w", toolName, err)
		}
		s.tools[toolName] = true
	}

	return s, nil
}

// registerTool registers a single tool with the MCP server.
func (s *Server) registerTool(name string) error {
	switch name {
	case "om_report":
		return s.registerReportTool()
	case "om_stats":
		return s.registerStatsTool()
	case "om_rate":
		return s.registerRateTool()
	case "om_predict":
		return s.registerPredictTool()
	case "om_entries":
		return s.registerEntriesTool()
	default:
		return fmt.Errorf("unknown tool: %s", name)
	}
}

// ServeStdio starts the server using stdio transport.
func (s *Server) ServeStdio() error {
	if s.timeout > 0 {
		go s.timeoutChecker()
	}

	return server.ServeStdio(s.mcpServer)
}

// timeoutChecker monitors for inactivity and exits if timeout exceeded.
func (s *Server) timeoutChecker() {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for range ticker.C {
		s.mu.RLock()
		elapsed := time.Since(s.lastActivity)
		s.mu.RUnlock()

		if elapsed > s.timeout {
			fmt.Fprintf(os.Stderr, "omtrack mcp: timeout after %v of inactivity\n", s.timeout)
			os.Exit(0)
		}
	}
}

// updateActivity updates the last activity timestamp.
func (s *Server) updateActivity() {
	s.mu.Lock()
	s.lastActivity = time.Now()
	s.mu.Unlock()
}

// ListTools returns the list of registered tools.
func (s *Server) ListTools() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	tools := make([]string, 0, len(s.tools))
	for t := range s.tools {
		tools = append(tools, t)
	}
	return tools
}

// ToolSchema describes a tool's name, description, and parameters.
type ToolSchema struct {
	Name        string            `json:"name" yaml:"name"`
	Description string            `json:"description" yaml:"description"`
	Parameters  []ParameterSchema `json:"parameters" yaml:"parameters"`
}

// ParameterSchema describes a single tool parameter.
type ParameterSchema struct {
	Name        string `json:"name" yaml:"name"`
	Type        string `json:"type" yaml:"type"`
	Description string `json:"description" yaml:"description"`
	Required    bool   `json:"required" yaml:"required"`
}

// toolSchemaRegistry holds the schema definitions for all tools.
// These mirror the mcp.NewTool() definitions in the register*Tool() functions.
var toolSchemaRegistry = map[string]ToolSchema{
	"om_report": {
		Name:        "om_report",
		Description: "Full progression report: overall state, per-stage statistics, grade levels, recent rate, and breakthrough forecast.",
		Parameters: []ParameterSchema{
			{Name: "format", Type: "string", Description: "Output format: text or json (default: text)"},
		},
	},
	"om_stats": {
		Name:        "om_stats",
		Description: "Per-stage statistics: entry count, observation span, and average percent per day.",
		Parameters: []ParameterSchema{
			{Name: "stage", Type: "string", Description: "Restrict to one stage, e.g. 'Celestial Middle'"},
		},
	},
	"om_rate": {
		Name:        "om_rate",
		Description: "Recent progression rate in percent per day over a trailing window.",
		Parameters: []ParameterSchema{
			{Name: "stage", Type: "string", Description: "Compute the rate for a specific stage instead of the latest"},
			{Name: "window_days", Type: "number", Description: "Trailing window in days (default: configured window)"},
		},
	},
	"om_predict": {
		Name:        "om_predict",
		Description: "Predict when the current (or given) stage reaches a target percent at the recent rate.",
		Parameters: []ParameterSchema{
			{Name: "stage", Type: "string", Description: "Stage to predict (default: latest observed)"},
			{Name: "target_percent", Type: "number", Description: "Target percent within the stage (default: 100)"},
			{Name: "window_days", Type: "number", Description: "Trailing window in days for the rate (default: configured window)"},
		},
	},
	"om_entries": {
		Name:        "om_entries",
		Description: "List parsed log entries as structured records, newest first.",
		Parameters: []ParameterSchema{
			{Name: "stage", Type: "string", Description: "Filter to one stage"},
			{Name: "limit", Type: "number", Description: "Maximum entries to return (default: 20)"},
		},
	},
}

// GetToolSchemas returns schemas for all registered tools.
func (s *Server) GetToolSchemas() []ToolSchema {
	s.mu.RLock()
	defer s.mu.RUnlock()

	schemas := make([]ToolSchema, 0, len(s.tools))
	for name := range s.tools {
		if schema, ok := toolSchemaRegistry[name]; ok {
			schemas = append(schemas, schema)
		}
	}
	return schemas
}

// CallTool dispatches a tool call by name with the given arguments.
// Returns the result string or an error.
func (s *Server) CallTool(name string, args map[string]interface{}) (string, error) {
	s.mu.RLock()
	registered := s.tools[name]
	s.mu.RUnlock()

	if !registered {
		return "", fmt.Errorf("unknown tool: %s", name)
	}

	switch name {
	case "om_report":
		format, _ := args["format"].(string)
		return s.executeReport(format)

	case "om_stats":
		stage, _ := args["stage"].(string)
		return s.executeStats(stage)

	case "om_rate":
		stage, _ := args["stage"].(string)
		window := s.rateWindowDays
		if w, ok := args["window_days"].(float64); ok {
			window = w
		}
		return s.executeRate(stage, window)

	case "om_predict":
		stage, _ := args["stage"].(string)
		target := 100.0
		if t, ok := args["target_percent"].(float64); ok {
			target = t
		}
		window := s.rateWindowDays
		if w, ok := args["window_days"].(float64); ok {
			window = w
		}
		return s.executePredict(stage, target, window)

	case "om_entries":
		stage, _ := args["stage"].(string)
		limit := 20
		if l, ok := args["limit"].(float64); ok {
			limit = int(l)
		}
		return s.executeEntries(stage, limit)

	default:
		return "", fmt.Errorf("unknown tool: %s", name)
	}
}

// Tool registration

func (s *Server) registerReportTool() error {
	tool := mcp.NewTool("om_report",
		mcp.WithDescription("Full progression report: overall state, per-stage statistics, grade levels, recent rate, and breakthrough forecast."),
		mcp.WithString("format",
			mcp.Description("Output format: text or json (default: text)"),
		),
	)

	s.mcpServer.AddTool(tool, s.handleReport)
	return nil
}

func (s *Server) registerStatsTool() error {
	tool := mcp.NewTool("om_stats",
		mcp.WithDescription("Per-stage statistics: entry count, observation span, and average percent per day."),
		mcp.WithString("stage",
			mcp.Description("Restrict to one stage, e.g. 'Celestial Middle'"),
		),
	)

	s.mcpServer.AddTool(tool, s.handleStats)
	return nil
}

func (s *Server) registerRateTool() error {
	tool := mcp.NewTool("om_rate",
		mcp.WithDescription("Recent progression rate in percent per day over a trailing window."),
		mcp.WithString("stage",
			mcp.Description("Compute the rate for a specific stage instead of the latest"),
		),
		mcp.WithNumber("window_days",
			mcp.Description("Trailing window in days (default: configured window)"),
		),
	)

	s.mcpServer.AddTool(tool, s.handleRate)
	return nil
}

func (s *Server) registerPredictTool() error {
	tool := mcp.NewTool("om_predict",
		mcp.WithDescription("Predict when the current (or given) stage reaches a target percent at the recent rate."),
		mcp.WithString("stage",
			mcp.Description("Stage to predict (default: latest observed)"),
		),
		mcp.WithNumber("target_percent",
			mcp.Description("Target percent within the stage (default: 100)"),
		),
		mcp.WithNumber("window_days",
			mcp.Description("Trailing window in days for the rate (default: configured window)"),
		),
	)

	s.mcpServer.AddTool(tool, s.handlePredict)
	return nil
}

func (s *Server) registerEntriesTool() error {
	tool := mcp.NewTool("om_entries",
		mcp.WithDescription("List parsed log entries as structured records, newest first."),
		mcp.WithString("stage",
			mcp.Description("Filter to one stage"),
		),
		mcp.WithNumber("limit",
			mcp.Description("Maximum entries to return (default: 20)"),
		),
	)

	s.mcpServer.AddTool(tool, s.handleEntries)
	return nil
}

// Tool handlers

func (s *Server) handleReport(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	s.updateActivity()

	args := req.GetArguments()
	format, _ := args["format"].(string)

	result, err := s.executeReport(format)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(result), nil
}

func (s *Server) handleStats(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	s.updateActivity()

	args := req.GetArguments()
	stage, _ := args["stage"].(string)

	result, err := s.executeStats(stage)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(result), nil
}

func (s *Server) handleRate(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	s.updateActivity()

	args := req.GetArguments()
	stage, _ := args["stage"].(string)
	window := s.rateWindowDays
	if w, ok := args["window_days"].(float64); ok {
		window = w
	}

	result, err := s.executeRate(stage, window)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(result), nil
}

func (s *Server) handlePredict(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	s.updateActivity()

	args := req.GetArguments()
	stage, _ := args["stage"].(string)
	target := 100.0
	if t, ok := args["target_percent"].(float64); ok {
		target = t
	}
	window := s.rateWindowDays
	if w, ok := args["window_days"].(float64); ok {
		window = w
	}

	result, err := s.executePredict(stage, target, window)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(result), nil
}

func (s *Server) handleEntries(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	s.updateActivity()

	args := req.GetArguments()
	stage, _ := args["stage"].(string)
	limit := 20
	if l, ok := args["limit"].(float64); ok {
		limit = int(l)
	}

	result, err := s.executeEntries(stage, limit)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(result), nil
}

// Tool implementations

// loadAnalyzer reparses the log on every call so tools always see the
// current file.
func (s *Server) loadAnalyzer() (*analyze.Analyzer, error) {
	result, err := s.parser.ParseFile(s.logPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read progression log: %w", err)
	}
	return analyze.New(result.Entries), nil
}

func (s *Server) executeReport(format string) (string, error) {
	a, err := s.loadAnalyzer()
	if err != nil {
		return "", err
	}

	summary := report.BuildSummary(a, s.rateWindowDays)
	if format == "json" {
		return toJSON(summary)
	}
	return report.Render(summary), nil
}

func (s *Server) executeStats(stageName string) (string, error) {
	a, err := s.loadAnalyzer()
	if err != nil {
		return "", err
	}

	if stageName != "" {
		stage, err := entry.ParseStage(stageName)
		if err != nil {
			return "", err
		}
		stats, err := a.StageStatistics(stage)
		if err != nil {
			return "", err
		}
		return toJSON(stats)
	}

	var all []analyze.StageStats
	for _, st := range entry.Stages() {
		stats, err := a.StageStatistics(st)
		if err != nil {
			continue
		}
		all = append(all, stats)
	}
	return toJSON(map[string]interface{}{"stages": all})
}

func (s *Server) executeRate(stageName string, windowDays float64) (string, error) {
	a, err := s.loadAnalyzer()
	if err != nil {
		return "", err
	}

	var rate analyze.Rate
	if stageName != "" {
		stage, err := entry.ParseStage(stageName)
		if err != nil {
			return "", err
		}
		rate, err = a.StageRate(stage, windowDays)
		if err != nil {
			return "", err
		}
	} else {
		rate, err = a.ProgressionRate(windowDays)
		if err != nil {
			return "", err
		}
	}
	return toJSON(rate)
}

func (s *Server) executePredict(stageName string, targetPercent, windowDays float64) (string, error) {
	a, err := s.loadAnalyzer()
	if err != nil {
		return "", err
	}

	var stage entry.Stage
	if stageName != "" {
		stage, err = entry.ParseStage(stageName)
		if err != nil {
			return "", err
		}
	} else {
		latest, ok := entry.Latest(a.Entries())
		if !ok {
			return "", fmt.Errorf("no entries in log")
		}
		stage = latest.Stage
	}

	pred, err := a.PredictToTarget(stage, targetPercent, windowDays)
	if err != nil {
		return "", err
	}
	return toJSON(pred)
}

func (s *Server) executeEntries(stageName string, limit int) (string, error) {
	a, err := s.loadAnalyzer()
	if err != nil {
		return "", err
	}

	entries := a.Entries()
	if stageName != "" {
		stage, err := entry.ParseStage(stageName)
		if err != nil {
			return "", err
		}
		entries = entry.ByStage(entries, stage)
	} else {
		entries = append([]entry.Entry(nil), entries...)
	}

	// Newest first.
	for i, j := 0, len(entries)-1; i < j; i, j = i+1, j-1 {
		entries[i], entries[j] = entries[j], entries[i]
	}
	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}

	return toJSON(map[string]interface{}{
		"count":   len(entries),
		"entries": entry.ToRecords(entries),
	})
}

// toJSON marshals a value to indented JSON.
func toJSON(v interface{}) (string, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal result: %w", err)
	}
	return string(data), nil
}
