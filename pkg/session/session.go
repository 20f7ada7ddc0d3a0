package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/rhuss/chatstream/pkg/api"
	"github.com/rhuss/chatstream/pkg/debug"
	"github.com/rhuss/chatstream/pkg/observability"
	"github.com/rhuss/chatstream/pkg/provider/openaicompat"
	"github.com/rhuss/chatstream/pkg/sse"
	"github.com/rhuss/chatstream/pkg/transcript"
)

// Outcome summarizes a finished session.
type Outcome struct {
	SessionID string
	State     api.SessionState

	// Content is the final assistant content on completion, or the partial
	// content preserved on failure.
	Content string

	FinishReason string
	Usage        *api.Usage

	// Deltas counts applied content fragments; Dropped counts data or
	// unrecognized lines discarded as protocol noise.
	Deltas  int
	Dropped int

	// Err is nil on completion, an *api.APIError on failure, and the
	// context error on cancellation.
	Err error
}

// Session binds one byte source to one turn of a transcript.
type Session struct {
	id         string
	opts       Options
	transcript *transcript.Transcript
	splitter   *sse.LineSplitter

	state     api.SessionState
	started   time.Time
	delivered bool

	// Deferral count per re-queued line, cleared when the line is dropped.
	deferrals map[string]int

	outcome Outcome
}

// New creates a session that will assemble one turn into t.
func New(t *transcript.Transcript, opts Options) *Session {
	id := api.NewSessionID()
	return &Session{
		id:         id,
		opts:       opts,
		transcript: t,
		splitter:   sse.NewLineSplitter(),
		deferrals:  make(map[string]int),
		outcome:    Outcome{SessionID: id},
	}
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// State returns the current lifecycle state.
func (s *Session) State() api.SessionState { return s.state }

// Outcome returns the session result so far.
func (s *Session) Outcome() Outcome { return s.outcome }

// Begin opens the turn with the user's text and enters Preflight.
func (s *Session) Begin(userText string) error {
	if _, err := s.transcript.BeginTurn(userText); err != nil {
		return err
	}
	s.started = time.Now()
	return s.transition(api.SessionStatePreflight)
}

// Preflight inspects the response status before any body byte is read.
// On success the session enters Streaming and the body is returned as a
// ByteSource. On failure the body is closed, the turn is rolled back and
// the error is returned as an *api.APIError.
func (s *Session) Preflight(resp *http.Response) (ByteSource, error) {
	if s.state != api.SessionStatePreflight {
		return nil, api.NewInvalidStateError(fmt.Sprintf("preflight in state %q", s.state))
	}

	if apiErr := s.checkResponse(resp); apiErr != nil {
		if resp != nil && resp.Body != nil {
			resp.Body.Close()
		}
		return nil, s.fail(apiErr)
	}

	if err := s.transition(api.SessionStateStreaming); err != nil {
		return nil, err
	}
	debug.Log("streaming", "preflight passed", "session_id", s.id, "status", resp.StatusCode)
	return NewReaderSource(resp.Body, s.opts.ReadSize), nil
}

func (s *Session) checkResponse(resp *http.Response) *api.APIError {
	if resp == nil {
		return api.NewTransportError(0, "no response from backend")
	}

	switch {
	case resp.StatusCode == s.opts.rateLimitStatus():
		return api.NewRateLimitedError(resp.StatusCode, openaicompat.StatusMessage(resp, "rate limit exceeded"))
	case resp.StatusCode == s.opts.quotaStatus():
		return api.NewQuotaExceededError(resp.StatusCode, openaicompat.StatusMessage(resp, "quota exceeded"))
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return api.NewTransportError(resp.StatusCode, openaicompat.StatusMessage(resp, ""))
	case resp.Body == nil || resp.Body == http.NoBody:
		return api.NewTransportError(resp.StatusCode, "response has no body")
	}
	return nil
}

// Run reads src until the sentinel, end of stream, a transport failure or
// cancellation, applying content to the transcript as it arrives. src is
// closed before Run returns.
func (s *Session) Run(ctx context.Context, src ByteSource) (Outcome, error) {
	if s.state != api.SessionStateStreaming {
		return s.outcome, api.NewInvalidStateError(fmt.Sprintf("run in state %q", s.state))
	}
	defer src.Close()

	observability.ActiveSessions.Inc()
	defer observability.ActiveSessions.Dec()

	err := s.stream(ctx, src)
	return s.outcome, err
}

func (s *Session) stream(ctx context.Context, src ByteSource) error {
	for {
		chunk, err := src.Next(ctx)
		if len(chunk) > 0 {
			debug.Trace("streaming", "chunk received", "session_id", s.id, "bytes", len(chunk))

			lines := s.splitter.Feed(chunk)
			if s.opts.MaxLineBytes > 0 && s.splitter.Buffered() > s.opts.MaxLineBytes {
				return s.fail(api.NewTransportError(0,
					fmt.Sprintf("unterminated line exceeds %d bytes", s.opts.MaxLineBytes)))
			}

			done, applyErr := s.process(lines, false)
			if applyErr != nil {
				var apiErr *api.APIError
				if !errors.As(applyErr, &apiErr) {
					apiErr = api.NewInvalidStateError(applyErr.Error())
				}
				return s.fail(apiErr)
			}
			if done {
				debug.Log("streaming", "sentinel received", "session_id", s.id)
				return s.complete()
			}
		}

		switch {
		case err == nil:
			continue
		case errors.Is(err, io.EOF):
			return s.flush()
		case ctx.Err() != nil:
			return s.cancel(ctx.Err())
		default:
			return s.fail(api.NewTransportError(0, fmt.Sprintf("stream interrupted: %s", err.Error())))
		}
	}
}

// flush runs the pipeline once more over the buffered remainder with no
// re-queueing, then completes.
func (s *Session) flush() error {
	if err := s.transition(api.SessionStateFlushing); err != nil {
		return err
	}
	lines := s.splitter.Flush()
	debug.Log("streaming", "flushing", "session_id", s.id, "lines", len(lines))

	if _, err := s.process(lines, true); err != nil {
		// Flushing cannot fail in the state machine; report and complete.
		slog.Warn("applying flushed content failed", "session_id", s.id, "error", err)
	}
	return s.complete()
}

// process handles one batch of lines. It reports whether the sentinel was
// seen. Deferred data lines are pushed back onto the splitter once the rest
// of the batch has been handled; a sentinel drops them instead.
func (s *Session) process(lines []string, flushing bool) (bool, error) {
	var requeue []string
	for _, line := range lines {
		frame := s.opts.Classifier.Classify(line)
		observability.FramesTotal.WithLabelValues(frame.Kind.String()).Inc()

		switch frame.Kind {
		case sse.FrameBlank, sse.FrameComment:
			continue
		case sse.FrameSentinel:
			for _, pending := range requeue {
				s.drop(api.NewMalformedPayloadError("payload did not decode before end of stream"), pending)
			}
			return true, nil
		case sse.FrameUnrecognized:
			s.drop(api.NewDecodeGarbageError("unrecognized line"), line)
			continue
		}

		delta := openaicompat.ParseDelta(frame.Payload)
		if delta.Kind == openaicompat.DeltaDeferred {
			if !flushing && s.deferLine(line) {
				requeue = append(requeue, line)
				continue
			}
			s.drop(api.NewMalformedPayloadError("payload did not decode"), line)
			continue
		}

		if delta.FinishReason != "" {
			s.outcome.FinishReason = delta.FinishReason
		}
		if delta.Usage != nil {
			s.outcome.Usage = delta.Usage
		}
		if delta.Kind == openaicompat.DeltaContent && delta.Text != "" {
			if err := s.apply(delta.Text); err != nil {
				return false, err
			}
		}
	}

	if len(requeue) > 0 {
		s.splitter.Unread(strings.Join(requeue, "\n") + "\n")
		debug.Log("streaming", "payloads deferred", "session_id", s.id, "lines", len(requeue))
	}
	return false, nil
}

// deferLine records another deferral of line and reports whether it may be
// re-queued.
func (s *Session) deferLine(line string) bool {
	s.deferrals[line]++
	return s.deferrals[line] <= s.opts.MaxDeferrals
}

func (s *Session) drop(reason *api.APIError, line string) {
	delete(s.deferrals, line)
	s.outcome.Dropped++
	observability.DroppedPayloadsTotal.WithLabelValues(string(reason.Kind)).Inc()
	debug.Log("streaming", "line dropped",
		"session_id", s.id, "reason", reason.Kind, "line", debug.Payload("streaming", line))
}

func (s *Session) apply(text string) error {
	if err := s.transcript.ApplyDelta(text); err != nil {
		return err
	}
	s.delivered = true
	s.outcome.Deltas++
	observability.DeltasTotal.Inc()
	observability.DeltaBytesTotal.Add(float64(len(text)))

	last, _ := s.transcript.Last()
	s.outcome.Content = last.Content
	s.emit(api.Event{Type: api.EventContentDelta, Delta: text, Content: last.Content})
	return nil
}

// complete closes the turn. A turn that received no content is rolled back
// instead of leaving an empty assistant reply.
func (s *Session) complete() error {
	if err := s.transition(api.SessionStateCompleted); err != nil {
		return err
	}

	if s.delivered {
		content, err := s.transcript.CompleteTurn()
		if err != nil {
			return err
		}
		s.outcome.Content = content
	} else {
		if err := s.transcript.AbortTurn(false); err != nil {
			return err
		}
		debug.Log("transcript", "empty reply rolled back", "session_id", s.id)
	}

	s.recordUsage()
	s.finish()
	s.emit(api.Event{Type: api.EventSessionCompleted, Content: s.outcome.Content})
	return nil
}

// fail aborts the turn, marks partial content failed and returns apiErr.
func (s *Session) fail(apiErr *api.APIError) error {
	if err := s.transition(api.SessionStateFailed); err != nil {
		return err
	}

	if s.transcript.TurnOpen() {
		if err := s.transcript.AbortTurn(s.delivered); err != nil {
			return err
		}
	}
	if s.delivered {
		if err := s.transcript.MarkFailed(apiErr); err != nil {
			return err
		}
	}

	s.outcome.Err = apiErr
	observability.SessionFailuresTotal.WithLabelValues(string(apiErr.Kind)).Inc()
	slog.Warn("session failed",
		"session_id", s.id, "kind", apiErr.Kind, "status", apiErr.Status,
		"error", apiErr.Message, "deltas", s.outcome.Deltas)

	s.finish()
	s.emit(api.Event{Type: api.EventSessionFailed, Content: s.outcome.Content, Error: apiErr})
	return apiErr
}

// cancel leaves the buffer and the transcript as they are.
func (s *Session) cancel(cause error) error {
	if err := s.transition(api.SessionStateCancelled); err != nil {
		return err
	}
	s.outcome.Err = cause
	debug.Log("streaming", "session cancelled",
		"session_id", s.id, "buffered", s.splitter.Buffered(), "deltas", s.outcome.Deltas)
	s.finish()
	return cause
}

func (s *Session) finish() {
	s.outcome.State = s.state
	observability.SessionsTotal.WithLabelValues(string(s.state)).Inc()
	if !s.started.IsZero() {
		observability.SessionDuration.WithLabelValues(string(s.state)).Observe(time.Since(s.started).Seconds())
	}
}

func (s *Session) recordUsage() {
	u := s.outcome.Usage
	if u == nil {
		return
	}
	observability.BackendTokensTotal.WithLabelValues(s.opts.Model, "input").Add(float64(u.InputTokens))
	observability.BackendTokensTotal.WithLabelValues(s.opts.Model, "output").Add(float64(u.OutputTokens))
}

func (s *Session) emit(ev api.Event) {
	if s.opts.Observer == nil {
		return
	}
	ev.SessionID = s.id
	s.opts.Observer(ev)
}

func (s *Session) transition(to api.SessionState) error {
	if err := api.ValidateSessionTransition(s.state, to); err != nil {
		return err
	}
	debug.Log("streaming", "state transition", "session_id", s.id, "from", s.state, "to", to)
	s.state = to
	return nil
}
