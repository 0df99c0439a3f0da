package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/hargabyte/omtrack/internal/mcp"
)

var (
	mcpTools   []string
	mcpTimeout time.Duration
)

// mcpCmd represents the mcp command
var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve progression tools over MCP (stdio)",
	Long: `Start an MCP (Model Context Protocol) server on stdio, exposing
progression analytics as tools for AI agents.

Tools: om_report, om_stats, om_rate, om_predict, om_entries.

Examples:
  omtrack mcp
  omtrack mcp --tools om_report,om_rate
  omtrack mcp --timeout 10m`,
	RunE: runMCP,
}

func init() {
	rootCmd.AddCommand(mcpCmd)
	mcpCmd.Flags().StringSliceVar(&mcpTools, "tools", nil, "Tools to expose (default: all)")
	mcpCmd.Flags().DurationVar(&mcpTimeout, "timeout", 0, "Exit after this much inactivity (0 = never)")
}

func runMCP(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	srv, err := mcp.New(resolveLogPath(cfg), cfg.Analyze.RateWindowDays, newParser(cfg), mcp.Config{
		Tools:   mcpTools,
		Timeout: mcpTimeout,
	})
	if err != nil {
		return fmt.Errorf("create server: %w", err)
	}

	return srv.ServeStdio()
}
