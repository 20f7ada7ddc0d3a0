package session

import (
	"net/http"

	"github.com/rhuss/chatstream/pkg/api"
	"github.com/rhuss/chatstream/pkg/config"
	"github.com/rhuss/chatstream/pkg/sse"
)

// Options controls how a Session decodes and classifies a stream.
type Options struct {
	// Classifier interprets lines. The zero value uses the OpenAI framing.
	Classifier sse.Classifier

	// ReadSize is the chunk size used when wrapping a response body.
	ReadSize int

	// MaxDeferrals bounds how many consecutive chunks an undecodable data
	// line may wait for before it is dropped. Zero drops immediately.
	MaxDeferrals int

	// MaxLineBytes fails the session when an unterminated line grows past
	// this size. Zero disables the guard.
	MaxLineBytes int

	// RateLimitStatus and QuotaStatus map preflight statuses to their
	// error kinds. Zero uses 429 and 402.
	RateLimitStatus int
	QuotaStatus     int

	// Model labels token usage metrics.
	Model string

	// Observer receives content and terminal events. May be nil.
	Observer api.Observer
}

// DefaultOptions returns Options matching config.Defaults.
func DefaultOptions() Options {
	return OptionsFromConfig(config.Defaults().Stream)
}

// OptionsFromConfig builds Options from the stream configuration section.
func OptionsFromConfig(sc config.StreamConfig) Options {
	return Options{
		Classifier: sse.Classifier{
			DataPrefix: sc.DataPrefix,
			Sentinel:   sc.Sentinel,
		},
		ReadSize:        sc.ReadBufferSize,
		MaxDeferrals:    sc.MaxDeferrals,
		MaxLineBytes:    sc.MaxLineBytes,
		RateLimitStatus: sc.RateLimitStatus,
		QuotaStatus:     sc.QuotaStatus,
	}
}

func (o Options) rateLimitStatus() int {
	if o.RateLimitStatus == 0 {
		return http.StatusTooManyRequests
	}
	return o.RateLimitStatus
}

func (o Options) quotaStatus() int {
	if o.QuotaStatus == 0 {
		return http.StatusPaymentRequired
	}
	return o.QuotaStatus
}
