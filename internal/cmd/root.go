// Package cmd contains all CLI commands for omtrack.
package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

var (
	// Version is the current version of omtrack
	Version = "0.1.0"

	// Global flags
	verbose      bool
	configPath   string
	logPathFlag  string
	forAgents    bool
	outputFormat string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "omtrack",
	Short: "Progression tracker for the Overmortal journey",
	Long: `omtrack parses a free-form progression log and turns it into
statistics, rates, and breakthrough predictions.

The log is the source of truth: dated blocks recording the current stage,
overall percent, grade level, and time remaining. omtrack parses those
blocks into structured entries, analyzes them per stage and grade level,
and projects when the next breakthrough lands at the recent pace.

Output Format:
  Analysis commands print human-readable text by default.
  Use --format to switch to YAML or JSON for machine consumption.

Main capabilities:
  - Parse the raw log into structured entries
  - Report overall progress, per-stage statistics, and grade levels
  - Compute recent progression rates over a trailing window
  - Predict breakthrough dates at the current pace
  - Extract entries from game screenshots via OCR
  - Serve a JSON analytics dashboard
  - Expose analytics to AI agents over MCP

Global Flags:
  --log       Progression log file (overrides config)
  --config    Config file path (default: .omtrack/config.yaml)
  --format    Output format: text (default) | yaml | json

Examples:
  omtrack init                        # Create .omtrack and a default config
  omtrack report                      # Full progression report
  omtrack rate --window 7             # Recent %/day over the last week
  omtrack predict                     # When does the current stage hit 100%?
  omtrack add --stage "Eternal Early" --percent 42.5
  omtrack extract ./screenshots       # OCR a directory of screenshots

See 'omtrack <command> --help' for command-specific options.`,
	Version: Version,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	// Global flags available to all commands
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to config file (default: .omtrack/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&logPathFlag, "log", "", "Progression log file (overrides config)")
	rootCmd.PersistentFlags().StringVar(&outputFormat, "format", "text", "Output format (text|yaml|json)")
	rootCmd.Flags().BoolVar(&forAgents, "for-agents", false, "Output machine-readable capability discovery JSON")

	// Set custom help function to intercept --for-agents flag
	originalHelp := rootCmd.HelpFunc()
	rootCmd.SetHelpFunc(func(cmd *cobra.Command, args []string) {
		if forAgents {
			outputAgentHelp(cmd)
			return
		}
		originalHelp(cmd, args)
	})
}

// CommandInfo represents a command for agent discovery
type CommandInfo struct {
	Name        string        `json:"name"`
	Description string        `json:"description"`
	Usage       string        `json:"usage"`
	Flags       []FlagInfo    `json:"flags,omitempty"`
	Subcommands []CommandInfo `json:"subcommands,omitempty"`
	Examples    []string      `json:"examples,omitempty"`
}

// FlagInfo represents a command flag for agent discovery
type FlagInfo struct {
	Name        string `json:"name"`
	Shorthand   string `json:"shorthand,omitempty"`
	Description string `json:"description"`
	Type        string `json:"type"`
	Default     string `json:"default,omitempty"`
}

// outputAgentHelp outputs machine-readable JSON describing all commands
func outputAgentHelp(cmd *cobra.Command) {
	root := buildCommandInfo(cmd.Root())

	output := map[string]interface{}{
		"version":      Version,
		"commands":     root.Subcommands,
		"global_flags": root.Flags,
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	enc.Encode(output)
}

// buildCommandInfo recursively builds command information for agent discovery
func buildCommandInfo(cmd *cobra.Command) CommandInfo {
	info := CommandInfo{
		Name:        cmd.Name(),
		Description: cmd.Short,
		Usage:       cmd.UseLine(),
	}

	// Collect flags
	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		info.Flags = append(info.Flags, FlagInfo{
			Name:        f.Name,
			Shorthand:   f.Shorthand,
			Description: f.Usage,
			Type:        f.Value.Type(),
			Default:     f.DefValue,
		})
	})

	// Collect subcommands
	for _, sub := range cmd.Commands() {
		if !sub.Hidden {
			info.Subcommands = append(info.Subcommands, buildCommandInfo(sub))
		}
	}

	// Extract examples from Example field if available
	if cmd.Example != "" {
		lines := strings.Split(cmd.Example, "\n")
		for _, line := range lines {
			trimmed := strings.TrimSpace(line)
			if trimmed != "" {
				info.Examples = append(info.Examples, trimmed)
			}
		}
	}

	return info
}
