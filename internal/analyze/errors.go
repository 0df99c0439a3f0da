package analyze

import "fmt"

// NotFoundError is returned when the requested stage or grade level has no
// entries at all. It is distinct from zero observed progress: a stage that
// is present but flat produces statistics, not a NotFoundError.
type NotFoundError struct {
	What string
}

// Error implements the error interface.
func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s: not yet observed in the log", e.What)
}

// UndeterminedError is returned when a prediction or rate cannot be
// computed: fewer than two data points, a zero time span, or a non-positive
// rate. Callers must surface it as an explicit "cannot predict" result,
// never a fabricated date.
type UndeterminedError struct {
	Reason string
}

// Error implements the error interface.
func (e *UndeterminedError) Error() string {
	return "undetermined: " + e.Reason
}
