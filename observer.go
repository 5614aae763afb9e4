package desim

import "context"

// Observer receives notifications about committed changes to a session.
// Notifications fire only after the operation that produced them has
// committed; applications rolled back by a rejected transition are never
// reported. Replayed applications during a rewind are reported like fresh
// ones, since the host's view of the state changes either way.
type Observer[S any] interface {
	// OnApplied is invoked after an event application has been committed.
	// index is the position of the applied entry; state is the state it
	// produced.
	OnApplied(ctx context.Context, index int, entry Entry[S], state S)

	// OnTruncated is invoked after history has been rewritten: every entry
	// at position >= index was discarded. dropped counts the discarded
	// entries.
	OnTruncated(index int, dropped int)
}

// ObserverFuncs adapts plain functions to the Observer interface. Nil
// functions are skipped.
type ObserverFuncs[S any] struct {
	Applied   func(ctx context.Context, index int, entry Entry[S], state S)
	Truncated func(index int, dropped int)
}

func (o ObserverFuncs[S]) OnApplied(ctx context.Context, index int, entry Entry[S], state S) {
	if o.Applied != nil {
		o.Applied(ctx, index, entry, state)
	}
}

func (o ObserverFuncs[S]) OnTruncated(index, dropped int) {
	if o.Truncated != nil {
		o.Truncated(index, dropped)
	}
}
