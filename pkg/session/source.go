package session

import (
	"context"
	"errors"
	"io"
	"sync"
)

// ErrSourceClosed is returned by Next after Close.
var ErrSourceClosed = errors.New("byte source closed")

// ByteSource yields the raw bytes of a stream in arrival order.
//
// Next returns io.EOF once the stream has ended; any other error is a
// transport failure. A returned chunk is only valid until the following
// call to Next. Close may be called from another goroutine to abandon the
// stream and is idempotent.
type ByteSource interface {
	Next(ctx context.Context) ([]byte, error)
	Close() error
}

// DefaultReadSize is the read buffer size used when none is configured.
const DefaultReadSize = 4096

// ReaderSource adapts an io.ReadCloser, typically an HTTP response body.
type ReaderSource struct {
	r   io.ReadCloser
	buf []byte
	err error // sticky error from a read that also returned data

	closeOnce sync.Once
	closeErr  error
}

// NewReaderSource creates a ReaderSource reading up to readSize bytes per chunk.
func NewReaderSource(r io.ReadCloser, readSize int) *ReaderSource {
	if readSize <= 0 {
		readSize = DefaultReadSize
	}
	return &ReaderSource{r: r, buf: make([]byte, readSize)}
}

// Next reads the next chunk.
func (s *ReaderSource) Next(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.err != nil {
		return nil, s.err
	}

	for {
		n, err := s.r.Read(s.buf)
		if n > 0 {
			s.err = err
			return s.buf[:n], nil
		}
		if err != nil {
			// A read interrupted by cancellation reports the context error.
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			return nil, err
		}
	}
}

// Close closes the underlying reader.
func (s *ReaderSource) Close() error {
	s.closeOnce.Do(func() {
		s.closeErr = s.r.Close()
	})
	return s.closeErr
}

// ChunkSource replays a fixed sequence of chunks. After the last chunk it
// returns Err, or io.EOF when Err is nil.
type ChunkSource struct {
	Chunks [][]byte
	Err    error

	next   int
	mu     sync.Mutex
	closed bool
}

// NewChunkSource creates a ChunkSource over chunks.
func NewChunkSource(chunks ...[]byte) *ChunkSource {
	return &ChunkSource{Chunks: chunks}
}

// Next returns the next chunk.
func (s *ChunkSource) Next(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, ErrSourceClosed
	}
	if s.next >= len(s.Chunks) {
		if s.Err != nil {
			return nil, s.Err
		}
		return nil, io.EOF
	}
	chunk := s.Chunks[s.next]
	s.next++
	return chunk, nil
}

// Close marks the source closed.
func (s *ChunkSource) Close() error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	return nil
}

// Closed reports whether Close has been called.
func (s *ChunkSource) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}
