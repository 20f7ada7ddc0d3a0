// Package transcript holds the ordered message history of one conversation
// and applies streamed assistant fragments to it.
//
// A Transcript is owned by a single goroutine. At most one turn is open at a
// time; while a turn is open the transcript ends with its user message,
// optionally followed by the assistant message receiving fragments.
package transcript

import (
	"github.com/rhuss/chatstream/pkg/api"
	"github.com/rhuss/chatstream/pkg/debug"
)

// Transcript is an ordered list of messages with at most one open turn.
type Transcript struct {
	messages []api.Message

	turnOpen  bool
	turnStart int // index of the open turn's user message
}

// New creates an empty transcript.
func New() *Transcript {
	return &Transcript{}
}

// BeginTurn appends a user message and opens a turn.
func (t *Transcript) BeginTurn(userText string) (api.Message, error) {
	if t.turnOpen {
		return api.Message{}, api.NewInvalidStateError("a turn is already open")
	}

	msg := api.Message{
		ID:      api.NewMessageID(),
		Role:    api.RoleUser,
		Content: userText,
		Status:  api.MessageStatusCompleted,
	}
	t.turnStart = len(t.messages)
	t.messages = append(t.messages, msg)
	t.turnOpen = true

	debug.Log("transcript", "turn opened", "message_id", msg.ID, "index", t.turnStart)
	return msg, nil
}

// ApplyDelta appends text to the open assistant message, creating it on the
// first fragment of the turn.
func (t *Transcript) ApplyDelta(text string) error {
	if !t.turnOpen {
		return api.NewInvalidStateError("no turn is open")
	}

	if last := &t.messages[len(t.messages)-1]; last.Open() {
		last.Content += text
		return nil
	}

	msg := api.Message{
		ID:      api.NewMessageID(),
		Role:    api.RoleAssistant,
		Content: text,
		Status:  api.MessageStatusInProgress,
	}
	t.messages = append(t.messages, msg)
	debug.Log("transcript", "assistant message created", "message_id", msg.ID)
	return nil
}

// CompleteTurn closes the open assistant message and the turn and returns the
// final assistant content. A turn without an assistant message yields "".
func (t *Transcript) CompleteTurn() (string, error) {
	if !t.turnOpen {
		return "", api.NewInvalidStateError("no turn is open")
	}

	var content string
	if last := &t.messages[len(t.messages)-1]; last.Open() {
		last.Status = api.MessageStatusCompleted
		content = last.Content
	}
	t.turnOpen = false

	debug.Log("transcript", "turn completed", "content_len", len(content), "messages", len(t.messages))
	return content, nil
}

// AbortTurn closes the open turn without completing it.
//
// With deliveredAnyDelta false the turn's user message is removed and the
// transcript returns to its pre-turn state. Otherwise the partial assistant
// content is kept unchanged and its message is marked failed.
func (t *Transcript) AbortTurn(deliveredAnyDelta bool) error {
	if !t.turnOpen {
		return api.NewInvalidStateError("no turn is open")
	}
	t.turnOpen = false

	// Nothing but the user message was added: roll it back.
	if !deliveredAnyDelta && len(t.messages) == t.turnStart+1 {
		t.messages = t.messages[:t.turnStart]
		debug.Log("transcript", "turn rolled back", "messages", len(t.messages))
		return nil
	}

	if last := &t.messages[len(t.messages)-1]; last.Open() {
		last.Status = api.MessageStatusFailed
	}
	debug.Log("transcript", "turn aborted with partial content", "messages", len(t.messages))
	return nil
}

// MarkFailed marks the last assistant message failed and attaches err.
// Content is left untouched.
func (t *Transcript) MarkFailed(err *api.APIError) error {
	if len(t.messages) == 0 || t.messages[len(t.messages)-1].Role != api.RoleAssistant {
		return api.NewInvalidStateError("last message is not an assistant message")
	}
	last := &t.messages[len(t.messages)-1]
	last.Status = api.MessageStatusFailed
	last.Error = err
	return nil
}

// Messages returns a copy of the transcript.
func (t *Transcript) Messages() []api.Message {
	out := make([]api.Message, len(t.messages))
	copy(out, t.messages)
	return out
}

// Len returns the number of messages.
func (t *Transcript) Len() int {
	return len(t.messages)
}

// Last returns the last message, if any.
func (t *Transcript) Last() (api.Message, bool) {
	if len(t.messages) == 0 {
		return api.Message{}, false
	}
	return t.messages[len(t.messages)-1], true
}

// TurnOpen reports whether a turn is in progress.
func (t *Transcript) TurnOpen() bool {
	return t.turnOpen
}
