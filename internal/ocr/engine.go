// Package ocr extracts progression snapshots from game screenshots. Text
// recognition is delegated to an external engine (tesseract); this package
// owns the game-specific concerns: pulling the capture time out of the
// screenshot filename, matching the game's UI text, and re-rendering each
// capture into the same block grammar the log parser accepts, so OCR output
// is just another raw-log source.
package ocr

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// Engine produces raw text from an image. Implementations wrap an external
// recognizer; image preprocessing is the recognizer's concern.
type Engine interface {
	ExtractText(ctx context.Context, imagePath string) (string, error)
}

// TesseractEngine runs the tesseract binary as a subprocess.
type TesseractEngine struct {
	// Binary is the tesseract executable, "tesseract" by default.
	Binary string
}

// NewTesseractEngine creates an engine invoking the given binary.
func NewTesseractEngine(binary string) *TesseractEngine {
	if binary == "" {
		binary = "tesseract"
	}
	return &TesseractEngine{Binary: binary}
}

// ExtractText runs tesseract over the image and returns the recognized
// text. Page segmentation mode 6 (uniform text block) suits game UI
// captures.
func (t *TesseractEngine) ExtractText(ctx context.Context, imagePath string) (string, error) {
	cmd := exec.CommandContext(ctx, t.Binary, imagePath, "stdout", "--psm", "6")
	var out, stderr strings.Builder
	cmd.Stdout = &out
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return "", &ImageError{
			Path: imagePath,
			Err:  fmt.Errorf("tesseract: %w (%s)", err, strings.TrimSpace(stderr.String())),
		}
	}
	return out.String(), nil
}
