package sse

import (
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// LineSplitter is a resumable UTF-8 decoder that emits complete lines.
//
// A multi-byte code point split across two chunks decodes correctly once
// both chunks have been fed. Bytes after the last line terminator stay
// buffered and prefix the next call's input. A LineSplitter is not safe for
// concurrent use.
type LineSplitter struct {
	dec *encoding.Decoder

	// pending holds the trailing bytes of an incomplete code point.
	pending []byte

	// remainder holds decoded text not yet terminated by '\n'. It may
	// contain complete lines after Unread.
	remainder string
}

// NewLineSplitter creates an empty LineSplitter.
func NewLineSplitter() *LineSplitter {
	return &LineSplitter{dec: unicode.UTF8.NewDecoder()}
}

// Feed decodes chunk and returns every line completed by it, in order.
// The terminating '\n' and one '\r' immediately before it are removed.
// The chunk is not retained.
func (s *LineSplitter) Feed(chunk []byte) []string {
	data := s.remainder + s.decode(chunk, false)

	var lines []string
	for {
		i := strings.IndexByte(data, '\n')
		if i < 0 {
			break
		}
		lines = append(lines, strings.TrimSuffix(data[:i], "\r"))
		data = data[i+1:]
	}
	s.remainder = data
	return lines
}

// Unread prefixes text onto the buffered remainder so that it is split
// again by the next Feed or Flush.
func (s *LineSplitter) Unread(text string) {
	s.remainder = text + s.remainder
}

// Flush decodes whatever is still buffered as if no more bytes will arrive
// and returns the remaining lines. An unterminated tail is returned as the
// last line. Incomplete code points become U+FFFD. The splitter is empty
// afterwards and may be reused.
func (s *LineSplitter) Flush() []string {
	data := s.remainder + s.decode(nil, true)
	s.remainder = ""
	s.dec.Reset()

	if data == "" {
		return nil
	}
	lines := strings.Split(data, "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	for i, line := range lines {
		lines[i] = strings.TrimSuffix(line, "\r")
	}
	return lines
}

// Buffered returns the number of bytes retained between calls.
func (s *LineSplitter) Buffered() int {
	return len(s.remainder) + len(s.pending)
}

// decode runs the UTF-8 transformer over pending+b. With atEOF false, an
// incomplete trailing code point is kept in pending instead of being
// replaced.
func (s *LineSplitter) decode(b []byte, atEOF bool) string {
	src := b
	if len(s.pending) > 0 {
		src = append(s.pending, b...)
		s.pending = nil
	}
	if len(src) == 0 {
		return ""
	}

	var out strings.Builder
	dst := make([]byte, len(src)+utf8.UTFMax)
	for {
		nDst, nSrc, err := s.dec.Transform(dst, src, atEOF)
		out.Write(dst[:nDst])
		src = src[nSrc:]

		switch err {
		case transform.ErrShortDst:
			// Replacement characters expand the input.
			if nDst == 0 && nSrc == 0 {
				dst = make([]byte, 2*len(dst))
			}
		case transform.ErrShortSrc:
			s.pending = append([]byte(nil), src...)
			return out.String()
		default:
			return out.String()
		}
	}
}
