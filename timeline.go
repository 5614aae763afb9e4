package desim

import "fmt"

// timeline is the append-only, truncatable event log. Indices are contiguous
// and zero-based. Changing history is always expressed as truncate-then-append;
// entries are never mutated in place.
//
// executed is the materialization frontier: the count of entries that have
// been applied at least once since the last truncation. Applying an entry
// below the frontier is a replay and must not materialize queue insertions
// again. The frontier never falls below the cursor of the owning session.
type timeline[S any] struct {
	entries  []Entry[S]
	executed int
}

func (t *timeline[S]) length() int {
	return len(t.entries)
}

func (t *timeline[S]) entryAt(index int) (Entry[S], error) {
	if index < 0 || index >= len(t.entries) {
		return Entry[S]{}, fmt.Errorf("%w: index %d, length %d", ErrNotFound, index, len(t.entries))
	}
	return t.entries[index], nil
}

func (t *timeline[S]) append(event Event[S]) int {
	t.entries = append(t.entries, newEntry(event))
	return len(t.entries) - 1
}

// truncateFrom drops every entry at index >= index and lowers the frontier.
// Returns the number of dropped entries.
func (t *timeline[S]) truncateFrom(index int) (int, error) {
	if index < 0 || index > len(t.entries) {
		return 0, &OutOfRangeError{Index: index, Length: len(t.entries)}
	}
	dropped := len(t.entries) - index
	t.entries = t.entries[:index:index]
	if t.executed > index {
		t.executed = index
	}
	return dropped, nil
}

// materialized returns a copy of entries with the deferred insertions applied.
// An insertion with queue offset k lands at position offset+k, exactly where
// the scheduling event saw it relative to its own successors. The input slice
// is never modified; live views handed out earlier stay intact.
func materialized[S any](entries []Entry[S], offset int, insertions []queuedInsertion[S]) []Entry[S] {
	if len(insertions) == 0 {
		return entries
	}
	out := make([]Entry[S], len(entries), len(entries)+len(insertions))
	copy(out, entries)
	for _, ins := range insertions {
		at := offset + ins.offset
		out = append(out, Entry[S]{})
		copy(out[at+1:], out[at:])
		out[at] = newEntry(ins.event)
	}
	return out
}
