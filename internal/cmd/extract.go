package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/hargabyte/omtrack/internal/ocr"
	"github.com/hargabyte/omtrack/internal/parser"
)

var (
	extractAppend    bool
	extractTesseract string
	extractTimeout   time.Duration
)

// extractCmd represents the extract command
var extractCmd = &cobra.Command{
	Use:   "extract <directory>",
	Short: "Extract entries from game screenshots via OCR",
	Long: `Run tesseract over a directory of screenshots and turn recognized game
state into log entries. Timestamps come from the screenshot filenames
(..._YYYY-MM-DD-HH-MM-...). Images that fail to extract are reported and
skipped; the batch never aborts.

Extracted entries print in the log's block format. With --append they are
appended to the progression log directly.

Examples:
  omtrack extract ./screenshots
  omtrack extract ./screenshots --append
  omtrack extract ./screenshots --tesseract /usr/local/bin/tesseract`,
	Args: cobra.ExactArgs(1),
	RunE: runExtract,
}

func init() {
	rootCmd.AddCommand(extractCmd)
	extractCmd.Flags().BoolVar(&extractAppend, "append", false, "Append extracted entries to the progression log")
	extractCmd.Flags().StringVar(&extractTesseract, "tesseract", "", "Tesseract binary to invoke (overrides config)")
	extractCmd.Flags().DurationVar(&extractTimeout, "timeout", 2*time.Minute, "Overall batch timeout")
}

func runExtract(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	binary := cfg.OCR.TesseractPath
	if extractTesseract != "" {
		binary = extractTesseract
	}

	extractor := ocr.NewExtractor(ocr.NewTesseractEngine(binary), cfg.OCR.Extensions)

	ctx, cancel := context.WithTimeout(cmd.Context(), extractTimeout)
	defer cancel()

	batch, err := extractor.ProcessDirectory(ctx, args[0])
	if err != nil {
		return err
	}

	for _, f := range batch.Failures {
		fmt.Fprintf(cmd.ErrOrStderr(), "FAILED %s: %s\n", f.Filename, f.Reason)
	}

	if len(batch.Results) == 0 {
		fmt.Println("No entries extracted.")
		return nil
	}

	if extractAppend {
		logPath := resolveLogPath(cfg)
		for _, r := range batch.Results {
			if err := parser.AppendEntry(logPath, r.Entry); err != nil {
				return err
			}
		}
		fmt.Printf("Appended %d entries to %s (%d images failed)\n",
			len(batch.Results), logPath, len(batch.Failures))
		return nil
	}

	fmt.Print(batch.Log())
	return nil
}
