package cmd

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/hargabyte/omtrack/internal/web"
)

var serveAddr string

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the progression dashboard over HTTP",
	Long: `Start the dashboard server. The log file is reparsed on every request,
so edits made outside the server show up immediately.

Routes:
  GET  /               Minimal HTML shell
  GET  /health         Liveness check
  GET  /api/analytics  Summary, per-stage stats, timeline, rate, prediction
  POST /api/add-entry  Validate and append an entry to the log

Examples:
  omtrack serve
  omtrack serve --addr 0.0.0.0:8750`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address (default: configured address)")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	addr := cfg.Serve.Addr
	if serveAddr != "" {
		addr = serveAddr
	}

	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	srv := web.NewServer(resolveLogPath(cfg), cfg.Analyze.RateWindowDays, newParser(cfg), logger)
	return srv.ListenAndServe(addr)
}
