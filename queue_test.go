package desim_test

import (
	"context"
	"testing"

	"github.com/desimkit/desim"
	"github.com/desimkit/desim/fixtures"
)

func TestStepMaterializesScheduledEvents(t *testing.T) {
	s := desim.New(fixtures.Account{})
	mustAppend(t, s, &fixtures.Spawn{Count: 2, Amount: 5})

	if _, err := s.Step(context.Background()); err != nil {
		t.Fatalf("step: %v", err)
	}
	if s.EventCount() != 3 {
		t.Fatalf("expected 2 scheduled deposits to join the timeline, got %d events", s.EventCount())
	}

	state, err := s.Run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if state.Balance != 10 {
		t.Errorf("expected balance 10, got %d", state.Balance)
	}
}

func TestReplayDoesNotRematerialize(t *testing.T) {
	s := desim.New(fixtures.Account{})
	mustAppend(t, s, &fixtures.Spawn{Count: 2, Amount: 5})
	if _, err := s.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}
	if s.EventCount() != 3 {
		t.Fatalf("expected 3 events after run, got %d", s.EventCount())
	}

	// rewind and re-execute: the spawn's insertions are already in the log
	if _, err := s.JumpTo(context.Background(), 0); err != nil {
		t.Fatalf("jump: %v", err)
	}
	state, err := s.Run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if s.EventCount() != 3 {
		t.Errorf("replay duplicated scheduled events: %d in the timeline", s.EventCount())
	}
	if state.Balance != 10 {
		t.Errorf("expected balance 10 after replay, got %d", state.Balance)
	}
}

func TestTruncationDropsScheduledEventsForGood(t *testing.T) {
	s := desim.New(fixtures.Account{})
	mustAppend(t, s, &fixtures.Spawn{Count: 1, Amount: 5})
	if _, err := s.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}
	if s.EventCount() != 2 {
		t.Fatalf("expected 2 events after run, got %d", s.EventCount())
	}

	// rewriting history discards the materialized deposit; replaying the
	// spawn must not resurrect it against the host's rewrite
	if err := s.RemoveFrom(context.Background(), 1); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if _, err := s.JumpTo(context.Background(), 0); err != nil {
		t.Fatalf("jump: %v", err)
	}
	state, err := s.Run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if s.EventCount() != 1 {
		t.Errorf("expected the dropped deposit to stay dropped, got %d events", s.EventCount())
	}
	if state.Balance != 0 {
		t.Errorf("expected balance 0, got %d", state.Balance)
	}
}

// insertingEvent schedules a deposit immediately after itself, ahead of the
// remaining future events.
type insertingEvent struct{}

func (insertingEvent) EventType() string { return "inserting" }

func (insertingEvent) Apply(ctx context.Context, state fixtures.Account, q *desim.Queue[fixtures.Account]) (fixtures.Account, error) {
	q.InsertLater(0, &fixtures.Deposit{Amount: 1})
	return state, nil
}

func TestInsertLaterPlacesEventAfterCurrent(t *testing.T) {
	s := desim.New(fixtures.Account{})
	if _, err := s.AppendEvent(insertingEvent{}); err != nil {
		t.Fatalf("append: %v", err)
	}
	mustAppend(t, s, &fixtures.Deposit{Amount: 100})

	if _, err := s.Step(context.Background()); err != nil {
		t.Fatalf("step: %v", err)
	}
	entry, err := s.EventAt(1)
	if err != nil {
		t.Fatalf("event at 1: %v", err)
	}
	if entry.Event.EventType() != "deposit" {
		t.Fatalf("expected scheduled deposit at index 1, got %q", entry.Event.EventType())
	}

	state, err := s.Step(context.Background())
	if err != nil {
		t.Fatalf("step: %v", err)
	}
	if state.Balance != 1 {
		t.Errorf("expected the scheduled deposit to execute first, balance %d", state.Balance)
	}
}

// peekingEvent records the sizes of the past and future views it was shown.
type peekingEvent struct {
	past, future *int
}

func (peekingEvent) EventType() string { return "peeking" }

func (e peekingEvent) Apply(ctx context.Context, state fixtures.Account, q *desim.Queue[fixtures.Account]) (fixtures.Account, error) {
	*e.past = len(q.Past())
	*e.future = len(q.Future())
	return state, nil
}

func TestQueueViews(t *testing.T) {
	var past, future int
	s := desim.New(fixtures.Account{})
	mustAppend(t, s, &fixtures.Deposit{Amount: 1})
	if _, err := s.AppendEvent(peekingEvent{past: &past, future: &future}); err != nil {
		t.Fatalf("append: %v", err)
	}
	mustAppend(t, s, &fixtures.Deposit{Amount: 1}, &fixtures.Deposit{Amount: 1})

	if _, err := s.JumpTo(context.Background(), 2); err != nil {
		t.Fatalf("jump: %v", err)
	}
	if past != 1 {
		t.Errorf("expected 1 past event, got %d", past)
	}
	if future != 2 {
		t.Errorf("expected 2 future events, got %d", future)
	}
}
