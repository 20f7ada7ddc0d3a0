package api

import "fmt"

// SessionState is the lifecycle state of a streaming session.
type SessionState string

const (
	SessionStatePreflight SessionState = "preflight"
	SessionStateStreaming SessionState = "streaming"
	SessionStateFlushing  SessionState = "flushing"
	SessionStateCompleted SessionState = "completed"
	SessionStateFailed    SessionState = "failed"
	SessionStateCancelled SessionState = "cancelled"
)

// Terminal reports whether no further transitions are allowed from s.
func (s SessionState) Terminal() bool {
	switch s {
	case SessionStateCompleted, SessionStateFailed, SessionStateCancelled:
		return true
	default:
		return false
	}
}

// ValidateSessionTransition checks whether a session state transition is valid.
// An empty "from" state represents a session that has not started yet.
// Terminal states (completed, failed, cancelled) do not allow outgoing transitions.
func ValidateSessionTransition(from, to SessionState) *APIError {
	valid := map[SessionState][]SessionState{
		"":                    {SessionStatePreflight},
		SessionStatePreflight: {SessionStateStreaming, SessionStateFailed},
		SessionStateStreaming: {SessionStateFlushing, SessionStateCompleted, SessionStateFailed, SessionStateCancelled},
		SessionStateFlushing:  {SessionStateCompleted},
	}

	allowed, exists := valid[from]
	if !exists {
		return NewInvalidStateError(fmt.Sprintf("invalid transition from %s to %s", from, to))
	}

	for _, s := range allowed {
		if s == to {
			return nil
		}
	}

	return NewInvalidStateError(fmt.Sprintf("invalid transition from %s to %s", from, to))
}
