package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/hargabyte/omtrack/internal/entry"
	"github.com/hargabyte/omtrack/internal/parser"
)

var (
	parseExportPath   string
	parseShowFailures bool
)

// parseCmd represents the parse command
var parseCmd = &cobra.Command{
	Use:   "parse",
	Short: "Parse the progression log into structured entries",
	Long: `Parse the raw progression log and print the structured entries.

Malformed blocks are skipped without aborting the run; use --failures to
see what was skipped and why.

Examples:
  omtrack parse                        # Print entries as text
  omtrack parse --format json          # Print entries as JSON records
  omtrack parse --export entries.json  # Write records to a file
  omtrack parse --failures             # Include skipped blocks`,
	RunE: runParse,
}

func init() {
	rootCmd.AddCommand(parseCmd)
	parseCmd.Flags().StringVar(&parseExportPath, "export", "", "Write parsed records to a JSON file")
	parseCmd.Flags().BoolVar(&parseShowFailures, "failures", false, "Report blocks that failed to parse")
}

func runParse(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	result, err := loadResult(cfg)
	if err != nil {
		return err
	}
	entries := result.Sorted()

	if parseExportPath != "" {
		if err := parser.WriteJSON(parseExportPath, entries); err != nil {
			return err
		}
		fmt.Printf("Exported %d entries to %s\n", len(entries), parseExportPath)
	}

	err = printStructured(entry.ToRecords(entries), func() string {
		var b strings.Builder
		fmt.Fprintf(&b, "Parsed %d entries", len(entries))
		if len(result.Failures) > 0 {
			fmt.Fprintf(&b, " (%d blocks skipped)", len(result.Failures))
		}
		b.WriteString("\n\n")
		for _, e := range entries {
			b.WriteString(parser.Render(e))
			b.WriteString("\n\n")
		}
		return b.String()
	})
	if err != nil {
		return err
	}

	if parseShowFailures {
		for _, f := range result.Failures {
			fmt.Printf("FAILED: %s\n%s\n\n", f.Reason, f.Block)
		}
	}

	return nil
}
