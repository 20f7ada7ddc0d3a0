package transcript

import (
	"testing"

	"github.com/rhuss/chatstream/pkg/api"
)

func TestBeginTurn(t *testing.T) {
	tr := New()

	msg, err := tr.BeginTurn("hello")
	if err != nil {
		t.Fatalf("BeginTurn() error: %v", err)
	}
	if msg.Role != api.RoleUser || msg.Content != "hello" {
		t.Errorf("BeginTurn() = %+v, want user message with content \"hello\"", msg)
	}
	if !api.ValidateMessageID(msg.ID) {
		t.Errorf("user message ID %q invalid", msg.ID)
	}
	if !tr.TurnOpen() {
		t.Error("TurnOpen() = false after BeginTurn")
	}
	if tr.Len() != 1 {
		t.Errorf("Len() = %d, want 1", tr.Len())
	}
}

func TestBeginTurnWhileOpen(t *testing.T) {
	tr := New()
	if _, err := tr.BeginTurn("first"); err != nil {
		t.Fatalf("BeginTurn() error: %v", err)
	}

	_, err := tr.BeginTurn("second")
	if !api.IsKind(err, api.ErrorKindInvalidState) {
		t.Fatalf("second BeginTurn() error = %v, want invalid_state", err)
	}
	if tr.Len() != 1 {
		t.Errorf("Len() = %d, want 1 (second turn must not append)", tr.Len())
	}
}

func TestApplyDeltaAccumulates(t *testing.T) {
	tr := New()
	tr.BeginTurn("hi")

	for _, frag := range []string{"Hel", "lo", ", wor", "ld"} {
		if err := tr.ApplyDelta(frag); err != nil {
			t.Fatalf("ApplyDelta(%q) error: %v", frag, err)
		}
	}

	if tr.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", tr.Len())
	}
	last, _ := tr.Last()
	if last.Role != api.RoleAssistant {
		t.Errorf("last role = %q, want assistant", last.Role)
	}
	if last.Content != "Hello, world" {
		t.Errorf("last content = %q, want \"Hello, world\"", last.Content)
	}
	if last.Status != api.MessageStatusInProgress {
		t.Errorf("last status = %q, want in_progress", last.Status)
	}
}

func TestApplyDeltaOutsideTurn(t *testing.T) {
	tr := New()
	if err := tr.ApplyDelta("x"); !api.IsKind(err, api.ErrorKindInvalidState) {
		t.Errorf("ApplyDelta() error = %v, want invalid_state", err)
	}
}

func TestCompleteTurn(t *testing.T) {
	tr := New()
	tr.BeginTurn("hi")
	tr.ApplyDelta("Hi")
	tr.ApplyDelta(" there")

	content, err := tr.CompleteTurn()
	if err != nil {
		t.Fatalf("CompleteTurn() error: %v", err)
	}
	if content != "Hi there" {
		t.Errorf("CompleteTurn() = %q, want \"Hi there\"", content)
	}
	if tr.TurnOpen() {
		t.Error("TurnOpen() = true after CompleteTurn")
	}
	last, _ := tr.Last()
	if last.Status != api.MessageStatusCompleted {
		t.Errorf("last status = %q, want completed", last.Status)
	}

	// Next turn starts a fresh assistant message.
	tr.BeginTurn("again")
	tr.ApplyDelta("new")
	if tr.Len() != 4 {
		t.Fatalf("Len() = %d, want 4", tr.Len())
	}
	last, _ = tr.Last()
	if last.Content != "new" {
		t.Errorf("second assistant content = %q, want \"new\"", last.Content)
	}
}

func TestCompleteTurnNotOpen(t *testing.T) {
	tr := New()
	if _, err := tr.CompleteTurn(); !api.IsKind(err, api.ErrorKindInvalidState) {
		t.Errorf("CompleteTurn() error = %v, want invalid_state", err)
	}
}

func TestAbortTurnRollback(t *testing.T) {
	tr := New()
	tr.BeginTurn("q1")
	tr.ApplyDelta("a1")
	tr.CompleteTurn()
	before := tr.Messages()

	tr.BeginTurn("q2")
	if err := tr.AbortTurn(false); err != nil {
		t.Fatalf("AbortTurn(false) error: %v", err)
	}

	after := tr.Messages()
	if len(after) != len(before) {
		t.Fatalf("Len() = %d after rollback, want %d", len(after), len(before))
	}
	for i := range before {
		if before[i] != after[i] {
			t.Errorf("message %d changed by rollback: %+v -> %+v", i, before[i], after[i])
		}
	}
	if tr.TurnOpen() {
		t.Error("TurnOpen() = true after AbortTurn")
	}
}

func TestAbortTurnKeepsPartial(t *testing.T) {
	tr := New()
	tr.BeginTurn("q")
	tr.ApplyDelta("par")
	tr.ApplyDelta("tial")

	if err := tr.AbortTurn(true); err != nil {
		t.Fatalf("AbortTurn(true) error: %v", err)
	}

	if tr.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", tr.Len())
	}
	last, _ := tr.Last()
	if last.Content != "partial" {
		t.Errorf("partial content = %q, want \"partial\"", last.Content)
	}
	if last.Open() {
		t.Error("assistant message still open after AbortTurn")
	}
}

func TestAbortTurnNotOpen(t *testing.T) {
	tr := New()
	if err := tr.AbortTurn(false); !api.IsKind(err, api.ErrorKindInvalidState) {
		t.Errorf("AbortTurn() error = %v, want invalid_state", err)
	}
}

func TestMarkFailed(t *testing.T) {
	tr := New()
	tr.BeginTurn("q")
	tr.ApplyDelta("Hel")
	tr.AbortTurn(true)

	failure := api.NewTransportError(0, "connection reset")
	if err := tr.MarkFailed(failure); err != nil {
		t.Fatalf("MarkFailed() error: %v", err)
	}

	last, _ := tr.Last()
	if last.Status != api.MessageStatusFailed {
		t.Errorf("status = %q, want failed", last.Status)
	}
	if last.Error != failure {
		t.Errorf("error = %v, want attached failure", last.Error)
	}
	if last.Content != "Hel" {
		t.Errorf("content = %q, want \"Hel\" untouched", last.Content)
	}
}

func TestMarkFailedWithoutAssistant(t *testing.T) {
	tr := New()
	tr.BeginTurn("q")
	if err := tr.MarkFailed(api.NewTransportError(0, "x")); !api.IsKind(err, api.ErrorKindInvalidState) {
		t.Errorf("MarkFailed() error = %v, want invalid_state", err)
	}
}

func TestMessagesReturnsCopy(t *testing.T) {
	tr := New()
	tr.BeginTurn("original")

	msgs := tr.Messages()
	msgs[0].Content = "mutated"

	last, _ := tr.Last()
	if last.Content != "original" {
		t.Errorf("transcript mutated through Messages(): %q", last.Content)
	}
}

func TestLastEmpty(t *testing.T) {
	if _, ok := New().Last(); ok {
		t.Error("Last() ok = true on empty transcript")
	}
}

func TestGrowthPerTurn(t *testing.T) {
	tests := []struct {
		name      string
		deltas    []string
		complete  bool
		delivered bool
		wantGrow  int
	}{
		{"completed with content", []string{"a", "b"}, true, true, 2},
		{"aborted with partial", []string{"a"}, false, true, 2},
		{"aborted without content", nil, false, false, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := New()
			start := tr.Len()
			tr.BeginTurn("q")
			for _, d := range tt.deltas {
				tr.ApplyDelta(d)
			}
			if tt.complete {
				tr.CompleteTurn()
			} else {
				tr.AbortTurn(tt.delivered)
			}
			if got := tr.Len() - start; got != tt.wantGrow {
				t.Errorf("transcript grew by %d, want %d", got, tt.wantGrow)
			}
		})
	}
}
