package session

import (
	"context"
	"errors"

	"github.com/rhuss/chatstream/pkg/api"
	"github.com/rhuss/chatstream/pkg/provider/openaicompat"
	"github.com/rhuss/chatstream/pkg/transcript"
)

// Controller sends user turns to a backend and streams the replies into
// transcripts.
type Controller struct {
	client *openaicompat.Client

	// defaults supplies model and sampling settings; Messages is filled
	// from the transcript on every Send.
	defaults openaicompat.ChatRequest
	opts     Options
}

// NewController creates a Controller. defaults.Model is required.
func NewController(client *openaicompat.Client, defaults openaicompat.ChatRequest, opts Options) *Controller {
	if opts.Model == "" {
		opts.Model = defaults.Model
	}
	return &Controller{client: client, defaults: defaults, opts: opts}
}

// Send appends text as a user turn to t, streams the reply into t and
// returns the outcome. The returned error equals Outcome.Err, except when
// the turn could not be opened at all.
func (c *Controller) Send(ctx context.Context, t *transcript.Transcript, text string) (Outcome, error) {
	s := New(t, c.opts)
	if err := s.Begin(text); err != nil {
		return s.Outcome(), err
	}

	req := c.defaults
	req.Messages = t.Messages()

	resp, err := c.client.OpenStream(ctx, req)
	if err != nil {
		var apiErr *api.APIError
		if !errors.As(err, &apiErr) {
			apiErr = api.NewTransportError(0, err.Error())
		}
		err = s.fail(apiErr)
		return s.Outcome(), err
	}

	src, err := s.Preflight(resp)
	if err != nil {
		return s.Outcome(), err
	}
	return s.Run(ctx, src)
}
