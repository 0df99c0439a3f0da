package ocr

import "fmt"

// ImageError is returned when one screenshot cannot be read or yields no
// usable game data. Batch operations isolate it per image.
type ImageError struct {
	Path string
	Err  error
}

// Error implements the error interface.
func (e *ImageError) Error() string {
	return fmt.Sprintf("image %s: %v", e.Path, e.Err)
}

// Unwrap returns the underlying error.
func (e *ImageError) Unwrap() error {
	return e.Err
}
