// Package errs defines the error kinds shared across the render pipeline.
package errs

import "errors"

// ErrTaskCancelled is returned to a task's continuation when cancelJobs
// cancels it. It is a normal operating condition, not a bug: blocks get
// freed mid-render constantly under fast scrolling.
var ErrTaskCancelled = errors.New("longscroll: task cancelled")

// ErrInitRequired is returned by coordinator accessors used before makeDom.
var ErrInitRequired = errors.New("longscroll: accessed before makeDom")

// InvariantViolation wraps a bug-grade failure: an invalid Range, a
// measure of a prepared block with no real elements, a zero measured
// height, or an out-of-bounds pixel lookup. Unlike ErrTaskCancelled these
// are never swallowed silently: accessors return them to the host, and the
// coordinator logs those raised inside the render pipeline.
type InvariantViolation struct {
	Msg string
}

func (e *InvariantViolation) Error() string { return "longscroll: invariant violation: " + e.Msg }

// NewInvariantViolation builds an InvariantViolation with the given message.
func NewInvariantViolation(msg string) error {
	return &InvariantViolation{Msg: msg}
}
