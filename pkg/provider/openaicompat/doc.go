// Package openaicompat talks to OpenAI-compatible Chat Completions backends.
// It builds streaming requests, opens the response byte stream, parses the
// JSON payload of each SSE data line into a [Delta], and extracts backend
// error messages.
//
// Status-code interpretation is left to the session controller, which must
// inspect the response before any byte of the body is read.
package openaicompat
