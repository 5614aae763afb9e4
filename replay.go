package desim

import "context"

// appliedNote is a deferred observer notification. Notes are flushed only
// after the replay commits, so observers never hear about applications that
// were rolled back.
type appliedNote[S any] struct {
	index int
	entry Entry[S]
	state S
}

// replayTo re-derives the session state at the given cursor position by
// folding events over a prefix of the timeline. It starts from the best
// available base: the current cursor when it does not overshoot the target,
// otherwise the nearest valid checkpoint, otherwise the initial state. Only
// the remaining suffix is replayed.
//
// The fold runs on scratch copies of the cursor, state and (when events
// materialize queue insertions) the entries, so a rejected transition leaves
// the session exactly as it was before the call. Between events there is a
// cooperative cancellation point: on cancellation the applied prefix is
// committed and the context error returned, leaving the session on a
// consistent prefix of the timeline.
func (s *Session[S]) replayTo(ctx context.Context, target int) (S, error) {
	base, state := 0, s.initial
	if p, st, ok := s.cps.nearest(target); ok {
		base, state = p, st
	}
	if s.cursor <= target && s.cursor > base {
		base, state = s.cursor, s.state
	}

	entries := s.tl.entries
	executed := s.tl.executed
	staged := make(map[int]S)
	var notes []appliedNote[S]
	sinceCapture := 0

	pos := base
	for pos < target {
		if err := ctx.Err(); err != nil {
			s.commitReplay(ctx, entries, executed, staged, pos, state, notes)
			return s.state, err
		}

		entry := entries[pos]
		q := newQueue(pos+1, entries)
		next, err := entry.Event.Apply(ctx, state, q)
		if err != nil {
			return s.state, &TransitionError{Index: pos, EventType: entry.Event.EventType(), Err: err}
		}
		if pos >= executed {
			// first execution: the event's insertions join the timeline
			entries = materialized(entries, pos+1, q.insertions)
			executed = pos + 1
		}
		state = next
		pos++
		notes = append(notes, appliedNote[S]{index: pos - 1, entry: entry, state: state})
		sinceCapture++
		if s.interval > 0 && sinceCapture >= s.interval {
			staged[pos] = state
			sinceCapture = 0
		}
	}

	s.commitReplay(ctx, entries, executed, staged, pos, state, notes)
	return s.state, nil
}

func (s *Session[S]) commitReplay(ctx context.Context, entries []Entry[S], executed int, staged map[int]S, cursor int, state S, notes []appliedNote[S]) {
	s.tl.entries = entries
	s.tl.executed = executed
	for p, st := range staged {
		s.cps.capture(p, st)
	}
	s.cursor = cursor
	s.state = state
	s.sinceCapture = 0
	for _, note := range notes {
		s.notifyApplied(ctx, note.index, note.entry, note.state)
	}
}
