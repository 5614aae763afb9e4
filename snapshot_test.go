package desim_test

import (
	"context"
	"errors"
	"testing"

	"github.com/desimkit/desim"
	"github.com/desimkit/desim/fixtures"
)

func TestExportImportRoundTrip(t *testing.T) {
	s := newBankSession(t)
	mustAppend(t, s, &fixtures.Deposit{Amount: 50}, &fixtures.Withdraw{Amount: 30}, &fixtures.Deposit{Amount: 5})
	mustStep(t, s, 2)

	snap, err := s.Export()
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if snap.Cursor != 2 || snap.Executed != 2 {
		t.Fatalf("unexpected snapshot positions: cursor %d, executed %d", snap.Cursor, snap.Executed)
	}

	restored, err := desim.Import(context.Background(), snap, fixtures.NewAccountDecoder())
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if restored.ID() != s.ID() {
		t.Errorf("expected session id %q, got %q", s.ID(), restored.ID())
	}
	if restored.Cursor() != s.Cursor() {
		t.Errorf("expected cursor %d, got %d", s.Cursor(), restored.Cursor())
	}
	if restored.CurrentState() != s.CurrentState() {
		t.Errorf("expected state %+v, got %+v", s.CurrentState(), restored.CurrentState())
	}
	for i := 0; i < s.EventCount(); i++ {
		want, _ := s.EventAt(i)
		got, err := restored.EventAt(i)
		if err != nil {
			t.Fatalf("event at %d: %v", i, err)
		}
		if got.ID != want.ID {
			t.Errorf("event %d: expected id %s, got %s", i, want.ID, got.ID)
		}
		if got.Event.EventType() != want.Event.EventType() {
			t.Errorf("event %d: expected type %q, got %q", i, want.Event.EventType(), got.Event.EventType())
		}
	}
}

func TestImportRejectsInconsistentSnapshot(t *testing.T) {
	s := newBankSession(t)
	mustAppend(t, s, &fixtures.Deposit{Amount: 50}, &fixtures.Deposit{Amount: 10}, &fixtures.Deposit{Amount: 5})
	mustStep(t, s, 2)
	snap, err := s.Export()
	if err != nil {
		t.Fatalf("export: %v", err)
	}

	tests := []struct {
		name     string
		cursor   int
		executed int
	}{
		{"cursor past the end", 10, 10},
		{"negative cursor", -1, 0},
		{"frontier behind cursor", 2, 1},
		{"frontier past the end", 0, 10},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bad := *snap
			bad.Cursor = tt.cursor
			bad.Executed = tt.executed
			sess, err := desim.Import(context.Background(), &bad, fixtures.NewAccountDecoder())
			if !errors.Is(err, desim.ErrInconsistent) {
				t.Errorf("expected ErrInconsistent, got %v", err)
			}
			if sess != nil {
				t.Error("expected no session on a rejected snapshot")
			}
		})
	}
}

func TestImportPreservesMaterializationFrontier(t *testing.T) {
	s := desim.New(fixtures.Account{})
	mustAppend(t, s, &fixtures.Spawn{Count: 2, Amount: 5})
	if _, err := s.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}

	snap, err := s.Export()
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	restored, err := desim.Import(context.Background(), snap, fixtures.NewAccountDecoder())
	if err != nil {
		t.Fatalf("import: %v", err)
	}

	// replaying the spawn after import must not duplicate its deposits
	if _, err := restored.JumpTo(context.Background(), 0); err != nil {
		t.Fatalf("jump: %v", err)
	}
	state, err := restored.Run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if restored.EventCount() != 3 {
		t.Errorf("expected 3 events after replay, got %d", restored.EventCount())
	}
	if state.Balance != 10 {
		t.Errorf("expected balance 10, got %d", state.Balance)
	}
}

func TestImportUnknownEvent(t *testing.T) {
	s := newBankSession(t)
	mustAppend(t, s, &fixtures.Deposit{Amount: 50})
	snap, err := s.Export()
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	snap.Events[0].Name = "teleport"

	if _, err := desim.Import(context.Background(), snap, fixtures.NewAccountDecoder()); !errors.Is(err, desim.ErrEventNotRegistered) {
		t.Errorf("expected ErrEventNotRegistered, got %v", err)
	}
}

func TestImportReplayFailure(t *testing.T) {
	s := desim.New(fixtures.Account{})
	mustAppend(t, s, &fixtures.Fail{Reason: "corrupted history"})
	mustAppend(t, s, &fixtures.Deposit{Amount: 50})

	snap, err := s.Export()
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	snap.Cursor = 2
	snap.Executed = 2

	sess, err := desim.Import(context.Background(), snap, fixtures.NewAccountDecoder())
	var te *desim.TransitionError
	if !errors.As(err, &te) {
		t.Fatalf("expected TransitionError, got %v", err)
	}
	if sess != nil {
		t.Error("expected no session when replay fails")
	}
}
