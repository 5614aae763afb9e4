package desim

import (
	"errors"
	"fmt"
)

// ErrAtEnd is returned by Step when the cursor is already parked at the end
// of the timeline.
var ErrAtEnd = errors.New("timeline exhausted")

// ErrNotFound is returned when no event exists at the requested index.
var ErrNotFound = errors.New("event not found")

// ErrEventNotRegistered is returned by a Decoder for unknown event names.
var ErrEventNotRegistered = errors.New("event not registered")

// ErrInconsistent flags an internal invariant violation: the session is
// corrupt and refuses further mutation. Discard it and reload from a
// known-good snapshot.
var ErrInconsistent = errors.New("timeline inconsistent")

// OutOfRangeError reports an index or cursor target outside the valid bounds
// of the timeline. The operation it aborted was a no-op.
type OutOfRangeError struct {
	Index  int
	Length int
}

func (e *OutOfRangeError) Error() string {
	return fmt.Sprintf("index %d out of range for timeline of length %d", e.Index, e.Length)
}

// TransitionError reports that an event rejected the current state. The
// session is left exactly as it was before the failing operation.
type TransitionError struct {
	Index     int
	EventType string
	Err       error
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("transition %q at index %d: %v", e.EventType, e.Index, e.Err)
}

func (e *TransitionError) Unwrap() error {
	return e.Err
}
