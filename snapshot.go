package desim

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Snapshot is the durable representation of a session: the initial state,
// the encoded event sequence, the cursor and the materialization frontier.
// The current state is derivable and deliberately not stored; Import
// rematerializes it by replay. The encoding and storage medium around a
// Snapshot belong to the persistence adapters.
type Snapshot[S any] struct {
	SessionID string
	Initial   S
	Cursor    int
	Executed  int
	Events    []SnapshotEvent
}

// SnapshotEvent is one timeline entry in persistence-friendly form: the
// event-type name plus the JSON-encoded payload, and the envelope metadata.
type SnapshotEvent struct {
	ID         uuid.UUID
	Name       string
	Data       json.RawMessage
	OccurredAt time.Time
}

// Export captures the session's durable parts. The session is not modified.
// Fails if an event payload cannot be JSON-encoded.
func (s *Session[S]) Export() (*Snapshot[S], error) {
	events := make([]SnapshotEvent, 0, s.tl.length())
	for i, entry := range s.tl.entries {
		data, err := json.Marshal(entry.Event)
		if err != nil {
			return nil, fmt.Errorf("encode event %q at index %d: %w", entry.Event.EventType(), i, err)
		}
		events = append(events, SnapshotEvent{
			ID:         entry.ID,
			Name:       entry.Event.EventType(),
			Data:       data,
			OccurredAt: entry.OccurredAt,
		})
	}
	return &Snapshot[S]{
		SessionID: s.id,
		Initial:   s.initial,
		Cursor:    s.cursor,
		Executed:  s.tl.executed,
		Events:    events,
	}, nil
}

// Import reconstructs a session from a snapshot, decoding each event through
// the decoder and replaying up to the persisted cursor to materialize the
// state. A snapshot whose cursor or frontier is out of bounds is rejected
// with ErrInconsistent. No session is returned on error.
func Import[S any](ctx context.Context, snap *Snapshot[S], dec *Decoder[S], opts ...Option[S]) (*Session[S], error) {
	if snap.Cursor < 0 || snap.Cursor > len(snap.Events) ||
		snap.Executed < snap.Cursor || snap.Executed > len(snap.Events) {
		return nil, fmt.Errorf("snapshot %s: cursor %d, executed %d, events %d: %w",
			snap.SessionID, snap.Cursor, snap.Executed, len(snap.Events), ErrInconsistent)
	}

	opts = append([]Option[S]{WithID[S](snap.SessionID)}, opts...)
	s := New(snap.Initial, opts...)
	for i, ev := range snap.Events {
		event, err := dec.Decode(ev.Name, ev.Data)
		if err != nil {
			return nil, fmt.Errorf("snapshot %s: event %d: %w", snap.SessionID, i, err)
		}
		s.tl.entries = append(s.tl.entries, Entry[S]{
			ID:         ev.ID,
			Event:      event,
			OccurredAt: ev.OccurredAt,
		})
	}
	s.tl.executed = snap.Executed
	if _, err := s.replayTo(ctx, snap.Cursor); err != nil {
		return nil, fmt.Errorf("snapshot %s: %w", snap.SessionID, err)
	}
	return s, nil
}
