package api

// EventType identifies the type of a session event.
type EventType string

const (
	// EventContentDelta is emitted once per applied content fragment.
	EventContentDelta EventType = "content.delta"

	// Terminal events. Exactly one is emitted per session.
	EventSessionCompleted EventType = "session.completed"
	EventSessionFailed    EventType = "session.failed"
)

// Event is emitted to observers while a session assembles a response.
type Event struct {
	Type      EventType `json:"type"`
	SessionID string    `json:"session_id"`

	// Delta is the fragment just applied (content.delta only).
	Delta string `json:"delta,omitempty"`

	// Content is the assistant content accumulated so far. On a failed
	// session it holds whatever partial content was preserved.
	Content string `json:"content,omitempty"`

	Error *APIError `json:"error,omitempty"`
}

// Terminal reports whether the event ends a session.
func (e Event) Terminal() bool {
	return e.Type == EventSessionCompleted || e.Type == EventSessionFailed
}

// Observer receives session events. It is called synchronously from the
// session goroutine and must not block for long.
type Observer func(Event)
