package domain

import (
	"errors"
	"fmt"
)

// ErrFandomNotFound is returned when a fandom ID cannot be found in the catalog.
var ErrFandomNotFound = errors.New("fandom not found")

// ErrNilPathway is returned when a caller passes a nil pathway.
var ErrNilPathway = errors.New("pathway is nil")

// ErrBlockNotFound is returned when a plot block ID cannot be found in the snapshot.
var ErrBlockNotFound = errors.New("plot block not found")

// ErrCycleDetected is returned when a dependency graph operation finds a cycle.
var ErrCycleDetected = errors.New("dependency cycle detected")

// StructuralError marks input the engine cannot meaningfully validate:
// malformed condition payloads, empty fandom IDs, references of the wrong
// shape. It short-circuits the run; nothing downstream sees the input.
type StructuralError struct {
	// Kind names the defect class, e.g. "malformed_condition".
	Kind string
	Msg  string
}

func (e *StructuralError) Error() string {
	return fmt.Sprintf("structural: %s: %s", e.Kind, e.Msg)
}

// NewStructuralError builds a StructuralError with a formatted message.
func NewStructuralError(kind, format string, args ...any) *StructuralError {
	return &StructuralError{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// EngineFault wraps a panic recovered inside a pipeline stage. Callers see it
// as a critical structural violation in the report, never as a panic.
type EngineFault struct {
	// Stage names the pipeline stage that faulted.
	Stage string
	// Cause is the recovered panic value.
	Cause any
}

func (e *EngineFault) Error() string {
	return fmt.Sprintf("engine fault in stage %q: %v", e.Stage, e.Cause)
}
