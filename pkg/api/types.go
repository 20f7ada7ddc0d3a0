package api

// Role identifies the author of a conversation message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"

	// RoleSystem is only used for the system prompt in outgoing requests.
	// It never appears in a transcript.
	RoleSystem Role = "system"
)

// MessageStatus tracks whether an assistant message is still receiving content.
type MessageStatus string

const (
	MessageStatusInProgress MessageStatus = "in_progress"
	MessageStatusCompleted  MessageStatus = "completed"
	MessageStatusFailed     MessageStatus = "failed"
)

// Message is a single entry in a conversation transcript.
type Message struct {
	ID      string        `json:"id"`
	Role    Role          `json:"role"`
	Content string        `json:"content"`
	Status  MessageStatus `json:"status"`

	// Error is set on an assistant message whose stream failed after some
	// content had already been delivered.
	Error *APIError `json:"error,omitempty"`
}

// Open reports whether the message is an assistant message still receiving deltas.
func (m Message) Open() bool {
	return m.Role == RoleAssistant && m.Status == MessageStatusInProgress
}

// Usage holds token usage reported by the backend at the end of a stream.
type Usage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
	TotalTokens  int `json:"total_tokens"`
}
