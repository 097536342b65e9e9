package types

import "fmt"

// UnresolvedDateError indicates that no date could be determined for a file.
// The file is excluded from assignment and listed in the report.
type UnresolvedDateError struct {
	Path string
}

func (e *UnresolvedDateError) Error() string {
	return "no date could be determined for " + e.Path
}

// IOAccessError indicates a file was unreadable during scan or fingerprinting.
// The file is skipped and the run continues.
type IOAccessError struct {
	Path string
	Err  error
}

func (e *IOAccessError) Error() string {
	return fmt.Sprintf("cannot access %s: %v", e.Path, e.Err)
}

func (e *IOAccessError) Unwrap() error { return e.Err }

// RenderError indicates an external encoder invocation failed for a unit.
// The unit is not checkpointed, so the next run retries it.
type RenderError struct {
	Unit   string
	Err    error
	Stderr string
}

func (e *RenderError) Error() string {
	if e.Stderr != "" {
		return fmt.Sprintf("render %s: %v: %s", e.Unit, e.Err, e.Stderr)
	}
	return fmt.Sprintf("render %s: %v", e.Unit, e.Err)
}

func (e *RenderError) Unwrap() error { return e.Err }

// StateCorruptionError indicates a persisted checkpoint, cache or scan state
// file was unreadable or malformed. Callers fall back to empty state and
// surface this as a warning rather than crashing.
type StateCorruptionError struct {
	Path string
	Err  error
}

func (e *StateCorruptionError) Error() string {
	return fmt.Sprintf("corrupt state file %s: %v", e.Path, e.Err)
}

func (e *StateCorruptionError) Unwrap() error { return e.Err }
