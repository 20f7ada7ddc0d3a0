// Package api defines the core types shared by the chatstream packages.
//
// It provides the conversation message model, the error taxonomy used when a
// streaming chat session fails, the events emitted to observers while a
// response is being assembled, session state transition rules, and ID
// generation.
//
// Apart from github.com/google/uuid for session IDs, the package uses only
// the Go standard library and performs no I/O.
//
// Core types:
//   - [Message]: one conversation entry (user or assistant)
//   - [Event]: incremental content update or terminal session event
//   - [APIError]: structured error with kind, HTTP status, and message
//   - [SessionState]: lifecycle state of a streaming session
package api
