package main

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rhuss/chatstream/pkg/api"
	"github.com/rhuss/chatstream/pkg/provider/openaicompat"
	"github.com/rhuss/chatstream/pkg/session"
	"github.com/rhuss/chatstream/pkg/transcript"
)

func TestREPL(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		io.WriteString(w, `data: {"choices":[{"delta":{"content":"pong"}}]}`+"\n\n")
		io.WriteString(w, "data: [DONE]\n\n")
	}))
	defer srv.Close()

	client := openaicompat.NewClient(openaicompat.DefaultConfig(srv.URL))
	defer client.Close()

	var out bytes.Buffer
	opts := session.DefaultOptions()
	opts.Observer = renderEvent(&out)
	ctrl := session.NewController(client, openaicompat.ChatRequest{Model: "m"}, opts)

	tr := transcript.New()
	in := strings.NewReader("ping\n\nping again\n/quit\nnever sent\n")
	if err := repl(context.Background(), ctrl, tr, in, &out); err != nil {
		t.Fatalf("repl() error: %v", err)
	}

	if got := strings.Count(out.String(), "pong\n"); got != 2 {
		t.Errorf("output %q contains %d replies, want 2", out.String(), got)
	}
	if tr.Len() != 4 {
		t.Errorf("transcript length = %d, want 4", tr.Len())
	}
}

func TestSendTurnReportsFailureOnce(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		io.WriteString(w, `{"error":{"message":"slow down"}}`)
	}))
	defer srv.Close()

	client := openaicompat.NewClient(openaicompat.DefaultConfig(srv.URL))
	defer client.Close()
	ctrl := session.NewController(client, openaicompat.ChatRequest{Model: "m"}, session.DefaultOptions())

	tr := transcript.New()
	var errOut bytes.Buffer
	if err := sendTurn(context.Background(), ctrl, tr, "hi", &errOut); !api.IsKind(err, api.ErrorKindRateLimited) {
		t.Fatalf("sendTurn() error = %v, want rate_limited", err)
	}
	if got := strings.Count(errOut.String(), "rate limited"); got != 1 {
		t.Errorf("error output %q reports the failure %d times, want 1", errOut.String(), got)
	}
	if tr.Len() != 0 {
		t.Errorf("transcript length = %d, want 0 after rollback", tr.Len())
	}
}

func TestSendTurnClosesCancelledTurn(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		io.WriteString(w, `data: {"choices":[{"delta":{"content":"par"}}]}`+"\n\n")
		w.(http.Flusher).Flush()
		<-r.Context().Done()
	}))
	defer srv.Close()

	client := openaicompat.NewClient(openaicompat.DefaultConfig(srv.URL))
	defer client.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	opts := session.DefaultOptions()
	opts.Observer = func(ev api.Event) {
		if ev.Type == api.EventContentDelta {
			cancel()
		}
	}
	ctrl := session.NewController(client, openaicompat.ChatRequest{Model: "m"}, opts)

	tr := transcript.New()
	var errOut bytes.Buffer
	if err := sendTurn(ctx, ctrl, tr, "hi", &errOut); err == nil {
		t.Fatal("sendTurn() error = nil, want cancellation")
	}

	if tr.TurnOpen() {
		t.Error("turn still open after cancellation")
	}
	last, ok := tr.Last()
	if !ok || last.Role != api.RoleAssistant || last.Content != "par" || last.Status != api.MessageStatusFailed {
		t.Errorf("last message = %+v, want failed assistant reply %q", last, "par")
	}
	if !strings.Contains(errOut.String(), "[cancelled]") {
		t.Errorf("error output = %q, want [cancelled]", errOut.String())
	}
}

func TestPrintModels(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"object":"list","data":[{"id":"alpha","object":"model"},{"id":"beta","object":"model"}]}`)
	}))
	defer srv.Close()

	client := openaicompat.NewClient(openaicompat.DefaultConfig(srv.URL))
	defer client.Close()

	var out bytes.Buffer
	if err := printModels(context.Background(), client, &out); err != nil {
		t.Fatalf("printModels() error: %v", err)
	}
	if out.String() != "alpha\nbeta\n" {
		t.Errorf("output = %q, want \"alpha\\nbeta\\n\"", out.String())
	}
}

func TestDescribeError(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{api.NewRateLimitedError(429, "slow down"), "rate limited"},
		{api.NewQuotaExceededError(402, "no credits"), "quota exhausted"},
		{api.NewTransportError(500, "boom"), "request failed"},
		{io.ErrUnexpectedEOF, "error: unexpected EOF"},
	}
	for _, tt := range tests {
		if got := describeError(tt.err); !strings.Contains(got, tt.want) {
			t.Errorf("describeError(%v) = %q, want it to contain %q", tt.err, got, tt.want)
		}
	}
}
