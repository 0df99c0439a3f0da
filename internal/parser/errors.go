package parser

import "fmt"

// MalformedBlockError is returned when a text block does not match the
// entry grammar or names an unrecognized stage. Malformed blocks are
// skipped and recorded; they never abort a parse.
type MalformedBlockError struct {
	Block  string
	Reason string
}

// Error implements the error interface.
func (e *MalformedBlockError) Error() string {
	return e.Reason
}

// FileReadError is returned when a raw log file cannot be read.
type FileReadError struct {
	Path string
	Err  error
}

// Error implements the error interface.
func (e *FileReadError) Error() string {
	return fmt.Sprintf("failed to read log %s: %v", e.Path, e.Err)
}

// Unwrap returns the underlying error.
func (e *FileReadError) Unwrap() error {
	return e.Err
}

// AppendError is returned when an entry cannot be appended to the raw log.
type AppendError struct {
	Path string
	Err  error
}

// Error implements the error interface.
func (e *AppendError) Error() string {
	return fmt.Sprintf("failed to append to log %s: %v", e.Path, e.Err)
}

// Unwrap returns the underlying error.
func (e *AppendError) Unwrap() error {
	return e.Err
}
