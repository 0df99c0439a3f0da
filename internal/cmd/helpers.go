package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/hargabyte/omtrack/internal/analyze"
	"github.com/hargabyte/omtrack/internal/cache"
	"github.com/hargabyte/omtrack/internal/config"
	"github.com/hargabyte/omtrack/internal/entry"
	"github.com/hargabyte/omtrack/internal/output"
	"github.com/hargabyte/omtrack/internal/parser"
)

// Shared helpers for command implementations

// loadConfig loads configuration honoring the global --config flag.
func loadConfig() (*config.Config, error) {
	if configPath != "" {
		return config.LoadFromPath(configPath)
	}
	return config.Load(".")
}

// resolveLogPath returns the progression log path, preferring the global
// --log flag over config. Relative config paths resolve against the
// directory containing .omtrack when one exists.
func resolveLogPath(cfg *config.Config) string {
	if logPathFlag != "" {
		return logPathFlag
	}

	path := cfg.Log.Path
	if filepath.IsAbs(path) {
		return path
	}
	if configDir, err := config.FindConfigDir("."); err == nil {
		return filepath.Join(filepath.Dir(configDir), path)
	}
	return path
}

// newParser builds a parser honoring the configured base year.
func newParser(cfg *config.Config) *parser.Parser {
	if cfg.Log.BaseYear > 0 {
		return parser.NewWithYear(cfg.Log.BaseYear)
	}
	return parser.New()
}

// loadResult parses the log, reusing the sqlite cache when it is enabled
// and the log hash still matches.
func loadResult(cfg *config.Config) (*parser.Result, error) {
	logPath := resolveLogPath(cfg)

	if !cfg.Cache.IsEnabled() {
		return newParser(cfg).ParseFile(logPath)
	}

	configDir, err := config.FindConfigDir(".")
	if err != nil {
		// No .omtrack directory, nowhere to cache.
		return newParser(cfg).ParseFile(logPath)
	}

	content, err := os.ReadFile(logPath)
	if err != nil {
		return nil, &parser.FileReadError{Path: logPath, Err: err}
	}
	hash := cache.HashLog(content)

	db, err := cache.Open(configDir)
	if err != nil {
		if verbose {
			fmt.Fprintf(os.Stderr, "cache unavailable: %v\n", err)
		}
		return newParser(cfg).Parse(string(content)), nil
	}
	defer db.Close()

	fresh, err := db.Fresh(logPath, hash)
	if err == nil && fresh {
		records, err := db.Get(logPath)
		if err == nil {
			entries, err := entry.FromRecords(records)
			if err == nil {
				if verbose {
					fmt.Fprintf(os.Stderr, "loaded %d entries from cache\n", len(entries))
				}
				return &parser.Result{Entries: entries}, nil
			}
		}
		// Corrupt cache rows fall through to a reparse.
	}

	result := newParser(cfg).Parse(string(content))

	if err := db.Put(logPath, hash, entry.ToRecords(result.Entries)); err != nil && verbose {
		fmt.Fprintf(os.Stderr, "cache write failed: %v\n", err)
	}

	return result, nil
}

// loadAnalyzer parses the log and wraps the entries in an analyzer,
// reporting parse failures to stderr when --verbose is set.
func loadAnalyzer(cfg *config.Config) (*analyze.Analyzer, error) {
	result, err := loadResult(cfg)
	if err != nil {
		return nil, err
	}

	if verbose {
		for _, f := range result.Failures {
			fmt.Fprintf(os.Stderr, "skipped block: %s\n", f.Reason)
		}
	}

	return analyze.New(result.Entries), nil
}

// printStructured renders v per the global --format flag. Text format
// falls back to the provided renderer.
func printStructured(v interface{}, text func() string) error {
	format, err := output.ParseFormat(outputFormat)
	if err != nil {
		return err
	}

	if format == output.FormatText {
		fmt.Print(text())
		return nil
	}

	formatter, err := output.NewFormatter(format)
	if err != nil {
		return err
	}
	return formatter.FormatToWriter(os.Stdout, v)
}
