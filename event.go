// Package desim is an embeddable engine for interactive discrete-event
// simulation. A Session owns an ordered timeline of events, a cursor
// separating executed from pending events, and the current simulation
// state. The host supplies the event types; the engine sequences and
// replays them, and lets the host rewrite history at any point, which
// discards everything after the rewrite point.
package desim

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

var now = time.Now

// Event is a discrete event applied to the simulation state. Implementations
// must be pure: given the same state (and the same timeline view), Apply must
// produce the same next state every time, because the engine re-derives state
// by replaying events after a rewind or an import.
//
// Events that should survive export/import must be JSON-marshalable and
// registered with a Decoder under their EventType name.
type Event[S any] interface {
	// EventType returns the stable name of the event. It keys the codec
	// registry used by the persistence contract.
	EventType() string

	// Apply evaluates the event against the current state, returning the next
	// state. The state must be treated as immutable; transitions replace it
	// wholesale. The queue lets the event inspect the timeline and schedule
	// follow-up events. A non-nil error rejects the event: the engine
	// discards the returned state and leaves the session untouched.
	Apply(ctx context.Context, state S, q *Queue[S]) (S, error)
}

// Entry wraps an event with its envelope metadata. The metadata identifies
// the entry across export/import; it does not participate in the state fold.
type Entry[S any] struct {
	ID         uuid.UUID
	Event      Event[S]
	OccurredAt time.Time
}

func newEntry[S any](event Event[S]) Entry[S] {
	return Entry[S]{
		ID:         uuid.New(),
		Event:      event,
		OccurredAt: now(),
	}
}

// Queue is the event's view over the timeline during Apply. The timeline is
// notionally split into past events (already executed), the current event
// (the one being applied) and future events. An event may schedule follow-up
// events with InsertLater and PushLater; the insertions materialize only
// after Apply returns successfully, and only on the event's first execution.
// Replaying an already-executed event discards its queue requests, since the
// events it scheduled are part of the timeline already.
type Queue[S any] struct {
	offset     int // index of the first future entry
	entries    []Entry[S]
	insertions []queuedInsertion[S]
}

type queuedInsertion[S any] struct {
	offset int
	event  Event[S]
}

func newQueue[S any](offset int, entries []Entry[S]) *Queue[S] {
	if offset < 1 || offset > len(entries) {
		panic(fmt.Sprintf("desim: queue offset %d outside [1, %d]", offset, len(entries)))
	}
	return &Queue[S]{offset: offset, entries: entries}
}

// Past returns the already-executed events. The returned slice is a read-only
// view; callers must not modify it.
func (q *Queue[S]) Past() []Entry[S] {
	return q.entries[: q.offset-1 : q.offset-1]
}

// Future returns the pending events after the current one, excluding any
// deferred insertions. The returned slice is a read-only view.
func (q *Queue[S]) Future() []Entry[S] {
	return q.entries[q.offset:len(q.entries):len(q.entries)]
}

// InsertLater schedules an event for insertion into the queue. Offset 0
// places the event immediately after the one being applied. Panics if the
// offset exceeds the length of the queue, including prior insertions.
func (q *Queue[S]) InsertLater(offset int, event Event[S]) {
	lim := len(q.entries) + len(q.insertions) - q.offset
	if offset < 0 || offset > lim {
		panic(fmt.Sprintf("desim: insertion offset %d outside [0, %d]", offset, lim))
	}
	q.insertions = append(q.insertions, queuedInsertion[S]{offset: offset, event: event})
}

// PushLater schedules an event at the end of the queue.
func (q *Queue[S]) PushLater(event Event[S]) {
	q.InsertLater(len(q.entries)+len(q.insertions)-q.offset, event)
}
