// Package sse decodes the line-oriented server-sent event framing used by
// OpenAI-compatible streaming endpoints.
//
// It has two parts. [LineSplitter] turns arbitrarily fragmented byte chunks
// into complete text lines, carrying partial lines and partial UTF-8 code
// points across calls. [Classifier] interprets each line as a comment, a
// blank separator, a data payload, the end-of-stream sentinel, or noise.
//
// Neither part performs I/O; both are owned by a single session.
package sse
