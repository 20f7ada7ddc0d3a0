package openaicompat

import (
	"encoding/json"

	"github.com/rhuss/chatstream/pkg/api"
)

// DeltaKind is the outcome of parsing one data payload.
type DeltaKind int

const (
	// DeltaContent carries a text fragment for the assistant reply.
	DeltaContent DeltaKind = iota

	// DeltaEmpty is a well-formed record without content (role-only,
	// finish-reason, or usage-only frames).
	DeltaEmpty

	// DeltaDeferred means the payload did not decode. It may be a line
	// truncated by the transport and can be retried once more bytes exist.
	DeltaDeferred
)

// String returns the lowercase name used in logs.
func (k DeltaKind) String() string {
	switch k {
	case DeltaContent:
		return "content"
	case DeltaEmpty:
		return "empty"
	case DeltaDeferred:
		return "deferred"
	default:
		return "unknown"
	}
}

// Delta is the parsed form of a data payload.
type Delta struct {
	Kind DeltaKind
	Text string

	// FinishReason and Usage are reported by the closing frames of a stream.
	FinishReason string
	Usage        *api.Usage
}

// ParseDelta decodes a payload of the shape
// {"choices":[{"delta":{"content":"..."}}]}. Only choices[0] is read.
func ParseDelta(payload string) Delta {
	var chunk ChatCompletionChunk
	if err := json.Unmarshal([]byte(payload), &chunk); err != nil {
		return Delta{Kind: DeltaDeferred}
	}

	d := Delta{Kind: DeltaEmpty}
	if chunk.Usage != nil {
		d.Usage = &api.Usage{
			InputTokens:  chunk.Usage.PromptTokens,
			OutputTokens: chunk.Usage.CompletionTokens,
			TotalTokens:  chunk.Usage.TotalTokens,
		}
	}

	// No choices means nothing to apply (e.g., a usage-only final chunk).
	if len(chunk.Choices) == 0 {
		return d
	}

	choice := chunk.Choices[0]
	if choice.FinishReason != nil {
		d.FinishReason = *choice.FinishReason
	}
	if choice.Delta.Content != nil {
		d.Kind = DeltaContent
		d.Text = *choice.Delta.Content
	}
	return d
}

