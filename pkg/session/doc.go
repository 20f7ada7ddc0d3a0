// Package session drives one streamed chat turn from an HTTP response to a
// transcript.
//
// A Session moves through Preflight, Streaming and Flushing into a terminal
// Completed, Failed or Cancelled state. The only blocking call is
// ByteSource.Next; every line of a chunk is split, classified, parsed and
// applied before the next chunk is requested.
package session
