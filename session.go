package desim

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

const defaultCheckpointInterval = 64

// Session is the timeline controller for one simulation run. It owns the
// event log, the cursor separating executed from pending events, the current
// state and the checkpoint cache, and keeps them consistent across every
// mutation. Each operation is atomic: it either fully succeeds or fails
// leaving timeline, cursor and state unchanged (cancellation commits the
// consistent prefix applied so far; see replayTo).
//
// A Session assumes a single logical writer. It performs no internal locking;
// hosts that share a session across goroutines must serialize access
// themselves. Independent sessions share nothing.
type Session[S any] struct {
	id      string
	initial S
	state   S
	cursor  int
	tl      *timeline[S]
	cps     *checkpoints[S]

	interval     int
	sinceCapture int
	observers    []Observer[S]
	corrupt      bool
}

// New creates a session with an empty timeline, cursor 0 and the given
// initial state. The initial state is retained for replay and must not be
// mutated afterwards.
func New[S any](initial S, opts ...Option[S]) *Session[S] {
	s := &Session[S]{
		id:       uuid.NewString(),
		initial:  initial,
		state:    initial,
		tl:       &timeline[S]{},
		cps:      newCheckpoints[S](),
		interval: defaultCheckpointInterval,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ID returns the session identity, used as the persistence key.
func (s *Session[S]) ID() string {
	return s.id
}

// CurrentState returns the state produced by folding the executed prefix of
// the timeline over the initial state.
func (s *Session[S]) CurrentState() S {
	return s.state
}

// Cursor returns the index of the next event to execute. 0 means nothing has
// executed; EventCount() means everything has.
func (s *Session[S]) Cursor() int {
	return s.cursor
}

// EventCount returns the length of the timeline.
func (s *Session[S]) EventCount() int {
	return s.tl.length()
}

// EventAt returns the timeline entry at the given index, or ErrNotFound.
func (s *Session[S]) EventAt(index int) (Entry[S], error) {
	return s.tl.entryAt(index)
}

// History returns an iterator over the timeline entries, oldest first. The
// iterator views the log as of the call; later mutations are not reflected.
func (s *Session[S]) History() *Iterator[Entry[S]] {
	return NewSliceIterator(s.tl.entries)
}

// Step executes the event at the cursor. On success the state is replaced
// and the cursor advances by one. On failure the session is unchanged:
// ErrAtEnd when the cursor is parked at the end of the timeline, a
// *TransitionError when the event rejects the current state.
func (s *Session[S]) Step(ctx context.Context) (S, error) {
	if err := s.guard(); err != nil {
		return s.state, err
	}
	if s.cursor == s.tl.length() {
		return s.state, ErrAtEnd
	}
	if err := ctx.Err(); err != nil {
		return s.state, err
	}

	entry := s.tl.entries[s.cursor]
	q := newQueue(s.cursor+1, s.tl.entries)
	next, err := entry.Event.Apply(ctx, s.state, q)
	if err != nil {
		return s.state, &TransitionError{Index: s.cursor, EventType: entry.Event.EventType(), Err: err}
	}
	if s.cursor >= s.tl.executed {
		s.tl.entries = materialized(s.tl.entries, s.cursor+1, q.insertions)
		s.tl.executed = s.cursor + 1
	}
	s.state = next
	s.cursor++
	s.sinceCapture++
	if s.interval > 0 && s.sinceCapture >= s.interval {
		s.cps.capture(s.cursor, s.state)
		s.sinceCapture = 0
	}
	s.notifyApplied(ctx, s.cursor-1, entry, s.state)
	return s.state, nil
}

// Run steps until the timeline is exhausted. Events scheduled through the
// queue extend the run. Returns the final state, or the first error from an
// underlying Step.
func (s *Session[S]) Run(ctx context.Context) (S, error) {
	for {
		if _, err := s.Step(ctx); err != nil {
			if err == ErrAtEnd {
				return s.state, nil
			}
			return s.state, err
		}
	}
}

// Reset rewinds the session to the initial state and cursor 0 without
// touching the timeline.
func (s *Session[S]) Reset() S {
	s.cursor = 0
	s.state = s.initial
	return s.state
}

// JumpTo moves the cursor to the given position, re-deriving the state by
// replay from the nearest checkpoint (or the initial state) rather than by
// undoing transitions, so it works uniformly for rewinding and
// fast-forwarding. Jumping to the current cursor is a no-op. Fails with
// *OutOfRangeError for targets outside [0, EventCount()] and with
// *TransitionError if an event rejects its input state during replay; in
// both cases the session is unchanged.
func (s *Session[S]) JumpTo(ctx context.Context, index int) (S, error) {
	if err := s.guard(); err != nil {
		return s.state, err
	}
	if index < 0 || index > s.tl.length() {
		return s.state, &OutOfRangeError{Index: index, Length: s.tl.length()}
	}
	if index == s.cursor {
		return s.state, nil
	}
	return s.replayTo(ctx, index)
}

// AppendEvent adds an event to the end of the timeline and returns its
// assigned index. It targets the end, so it never truncates anything and
// never moves the cursor.
func (s *Session[S]) AppendEvent(event Event[S]) (int, error) {
	if err := s.guard(); err != nil {
		return 0, err
	}
	return s.tl.append(event), nil
}

// InsertEventAt rewrites history at the given index: every event at
// index >= index is discarded, the new event is appended in its place and
// the cursor is rewound to min(cursor, index). When the insertion point
// precedes already-executed history, the state is re-derived by replay
// before the old events are dropped, so it never reflects events that no
// longer exist.
func (s *Session[S]) InsertEventAt(ctx context.Context, index int, event Event[S]) error {
	if err := s.guard(); err != nil {
		return err
	}
	if index < 0 || index > s.tl.length() {
		return &OutOfRangeError{Index: index, Length: s.tl.length()}
	}
	if err := s.rewriteFrom(ctx, index); err != nil {
		return err
	}
	s.tl.append(event)
	return nil
}

// RemoveFrom discards every event at index >= index. The same cursor and
// state rewind rules as InsertEventAt apply.
func (s *Session[S]) RemoveFrom(ctx context.Context, index int) error {
	if err := s.guard(); err != nil {
		return err
	}
	if index < 0 || index > s.tl.length() {
		return &OutOfRangeError{Index: index, Length: s.tl.length()}
	}
	return s.rewriteFrom(ctx, index)
}

// rewriteFrom rewinds the cursor to index if needed, then truncates the
// timeline there and invalidates the checkpoints that depended on the
// dropped entries. On a cancelled rewind the truncation is not performed;
// the session is left on the consistent prefix the replay reached.
func (s *Session[S]) rewriteFrom(ctx context.Context, index int) error {
	if index < s.cursor {
		if _, err := s.replayTo(ctx, index); err != nil {
			return err
		}
	}
	dropped, err := s.tl.truncateFrom(index)
	if err != nil {
		return err
	}
	s.cps.invalidateAfter(index)
	if dropped > 0 {
		s.notifyTruncated(index, dropped)
	}
	return nil
}

// guard verifies the structural invariants before a public operation. A
// violation can only come from a bug or tampering; the session is marked
// corrupt and every subsequent operation fails with ErrInconsistent.
func (s *Session[S]) guard() error {
	if s.corrupt {
		return fmt.Errorf("session %s: %w", s.id, ErrInconsistent)
	}
	if s.cursor < 0 || s.cursor > s.tl.length() || s.tl.executed < s.cursor || s.tl.executed > s.tl.length() {
		s.corrupt = true
		return fmt.Errorf("session %s: cursor %d, executed %d, length %d: %w",
			s.id, s.cursor, s.tl.executed, s.tl.length(), ErrInconsistent)
	}
	return nil
}

func (s *Session[S]) notifyApplied(ctx context.Context, index int, entry Entry[S], state S) {
	for _, obs := range s.observers {
		obs.OnApplied(ctx, index, entry, state)
	}
}

func (s *Session[S]) notifyTruncated(index, dropped int) {
	for _, obs := range s.observers {
		obs.OnTruncated(index, dropped)
	}
}
