package sse

import "strings"

const (
	// DefaultDataPrefix marks a line carrying a payload.
	DefaultDataPrefix = "data:"

	// DefaultSentinel is the payload that marks normal end of stream.
	DefaultSentinel = "[DONE]"
)

// FrameKind classifies a single line of the wire protocol.
type FrameKind int

const (
	FrameBlank FrameKind = iota
	FrameComment
	FrameData
	FrameSentinel
	FrameUnrecognized
)

// String returns the lowercase name used in logs and metric labels.
func (k FrameKind) String() string {
	switch k {
	case FrameBlank:
		return "blank"
	case FrameComment:
		return "comment"
	case FrameData:
		return "data"
	case FrameSentinel:
		return "sentinel"
	case FrameUnrecognized:
		return "unrecognized"
	default:
		return "unknown"
	}
}

// Frame is a classified line.
type Frame struct {
	Kind FrameKind

	// Payload is the text after the data prefix with surrounding
	// whitespace removed. Only set for FrameData and FrameSentinel.
	Payload string
}

// Classifier interprets lines according to the data prefix and sentinel.
// Empty fields fall back to the defaults. Classification is pure.
type Classifier struct {
	DataPrefix string
	Sentinel   string
}

// DefaultClassifier returns a Classifier for the OpenAI streaming framing.
func DefaultClassifier() Classifier {
	return Classifier{
		DataPrefix: DefaultDataPrefix,
		Sentinel:   DefaultSentinel,
	}
}

// Classify applies, in order: empty line is blank, a leading ':' is a
// comment (keep-alive), the data prefix yields a payload or the sentinel,
// anything else is unrecognized.
func (c Classifier) Classify(line string) Frame {
	if line == "" {
		return Frame{Kind: FrameBlank}
	}
	if strings.HasPrefix(line, ":") {
		return Frame{Kind: FrameComment}
	}

	prefix := c.DataPrefix
	if prefix == "" {
		prefix = DefaultDataPrefix
	}
	if !strings.HasPrefix(line, prefix) {
		return Frame{Kind: FrameUnrecognized}
	}

	payload := strings.TrimSpace(strings.TrimPrefix(line, prefix))

	sentinel := c.Sentinel
	if sentinel == "" {
		sentinel = DefaultSentinel
	}
	if payload == sentinel {
		return Frame{Kind: FrameSentinel, Payload: payload}
	}
	return Frame{Kind: FrameData, Payload: payload}
}
