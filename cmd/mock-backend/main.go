// Command mock-backend runs a deterministic streaming Chat Completions
// server for exercising chatstream clients by hand.
//
// The reply is chosen from the last user message. Directives in the
// message change the transport behavior:
//
//	[status:NNN]  respond with HTTP NNN and a JSON error body
//	[fragment:N]  write the stream in N-byte pieces (splits code points)
//	[garbage]     interleave unrecognized and malformed lines
//	[drop]        abort the connection before the sentinel
//
// Configuration:
//
//	MOCK_PORT         - Listen port (default: 9090)
//	MOCK_FORCE_STATUS - Answer every request with this status (optional)
//	MOCK_FRAGMENT     - Default fragment size in bytes (optional)
//	MOCK_DELAY        - Pause between writes, e.g. "50ms" (default: 0)
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"regexp"
	"strconv"
	"strings"
	"syscall"
	"time"
)

func main() {
	port := os.Getenv("MOCK_PORT")
	if port == "" {
		port = "9090"
	}

	cfg, err := configFromEnv()
	if err != nil {
		slog.Error("invalid mock configuration", "error", err)
		os.Exit(1)
	}

	srv := &http.Server{Addr: ":" + port, Handler: newMux(cfg)}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		slog.Info("mock backend starting", "port", port, "force_status", cfg.forceStatus, "fragment", cfg.fragment)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("mock backend failed", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	slog.Info("mock backend shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	srv.Shutdown(shutdownCtx)
}

type mockConfig struct {
	forceStatus int
	fragment    int
	delay       time.Duration
}

func configFromEnv() (mockConfig, error) {
	var cfg mockConfig
	if v := os.Getenv("MOCK_FORCE_STATUS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return cfg, fmt.Errorf("MOCK_FORCE_STATUS: %w", err)
		}
		cfg.forceStatus = n
	}
	if v := os.Getenv("MOCK_FRAGMENT"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return cfg, fmt.Errorf("MOCK_FRAGMENT: %w", err)
		}
		cfg.fragment = n
	}
	if v := os.Getenv("MOCK_DELAY"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return cfg, fmt.Errorf("MOCK_DELAY: %w", err)
		}
		cfg.delay = d
	}
	return cfg, nil
}

func newMux(cfg mockConfig) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1/chat/completions", func(w http.ResponseWriter, r *http.Request) {
		handleChatCompletions(w, r, cfg)
	})
	mux.HandleFunc("GET /v1/models", handleModels)
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok\n"))
	})
	return mux
}

// --- Request types ---

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
	Stream   bool          `json:"stream"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content any    `json:"content"`
}

// --- Directives ---

var (
	statusDirective   = regexp.MustCompile(`\[status:(\d{3})\]`)
	fragmentDirective = regexp.MustCompile(`\[fragment:(\d+)\]`)
)

type directives struct {
	status   int
	fragment int
	garbage  bool
	drop     bool
}

func parseDirectives(msg string, cfg mockConfig) directives {
	d := directives{status: cfg.forceStatus, fragment: cfg.fragment}
	if m := statusDirective.FindStringSubmatch(msg); m != nil {
		d.status, _ = strconv.Atoi(m[1])
	}
	if m := fragmentDirective.FindStringSubmatch(msg); m != nil {
		d.fragment, _ = strconv.Atoi(m[1])
	}
	d.garbage = strings.Contains(msg, "[garbage]")
	d.drop = strings.Contains(msg, "[drop]")
	return d
}

// --- Handler ---

func handleChatCompletions(w http.ResponseWriter, r *http.Request, cfg mockConfig) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	lastMsg := getLastUserMessage(&req)
	d := parseDirectives(lastMsg, cfg)

	if d.status != 0 && d.status != http.StatusOK {
		writeError(w, d.status, statusMessage(d.status))
		return
	}
	if !req.Stream {
		writeError(w, http.StatusBadRequest, "only streaming requests are supported")
		return
	}

	model := req.Model
	if model == "" {
		model = "mock-model"
	}
	handleStreaming(w, model, replyTokens(lastMsg), d, cfg.delay)
}

func statusMessage(status int) string {
	switch status {
	case http.StatusTooManyRequests:
		return "Rate limit reached for requests"
	case http.StatusPaymentRequired:
		return "You exceeded your current quota"
	default:
		return fmt.Sprintf("mock failure (%s)", http.StatusText(status))
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]any{
		"error": map[string]any{"message": msg, "type": "mock_error"},
	})
}

func replyTokens(lastMsg string) []string {
	lower := strings.ToLower(lastMsg)
	switch {
	case strings.Contains(lower, "count from 1 to 5"):
		return []string{"1", ", ", "2", ", ", "3", ", ", "4", ", ", "5"}
	case strings.Contains(lower, "greet"):
		return []string{"Grüße", ", ", "世界", " ", "🌍", "!"}
	default:
		return []string{"Hello", ", ", "nice", " ", "day", "!"}
	}
}

// --- Streaming ---

func handleStreaming(w http.ResponseWriter, model string, tokens []string, d directives, delay time.Duration) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming not supported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	var b strings.Builder
	b.WriteString(": keep-alive\n\n")
	b.WriteString(sseChunk(model, "", true))
	for i, token := range tokens {
		b.WriteString(sseChunk(model, token, false))
		if d.garbage && i == 0 {
			b.WriteString("event: noise\n")
			b.WriteString("data: {\"choices\":[{\"delta\":\n")
		}
		if i%2 == 1 {
			b.WriteString(":ping\n")
		}
	}
	if d.drop {
		writeFragmented(w, flusher, b.String(), d.fragment, delay)
		// Abort without the finish chunk or sentinel.
		panic(http.ErrAbortHandler)
	}
	b.WriteString(finishChunk(model, len(tokens)))
	b.WriteString("data: [DONE]\n\n")

	writeFragmented(w, flusher, b.String(), d.fragment, delay)
}

// writeFragmented writes s in size-byte pieces, flushing after each one.
// Pieces are cut on byte offsets and may split multi-byte characters.
func writeFragmented(w http.ResponseWriter, flusher http.Flusher, s string, size int, delay time.Duration) {
	if size <= 0 {
		size = len(s)
	}
	for start := 0; start < len(s); start += size {
		end := min(start+size, len(s))
		w.Write([]byte(s[start:end]))
		flusher.Flush()
		if delay > 0 {
			time.Sleep(delay)
		}
	}
}

func sseChunk(model, content string, isRole bool) string {
	delta := map[string]any{}
	if isRole {
		delta["role"] = "assistant"
	}
	if content != "" {
		delta["content"] = content
	}

	chunk := map[string]any{
		"id":     "chatcmpl-mock-stream",
		"object": "chat.completion.chunk",
		"model":  model,
		"choices": []any{
			map[string]any{"index": 0, "delta": delta, "finish_reason": nil},
		},
	}
	data, _ := json.Marshal(chunk)
	return fmt.Sprintf("data: %s\n\n", data)
}

func finishChunk(model string, tokenCount int) string {
	chunk := map[string]any{
		"id":     "chatcmpl-mock-stream",
		"object": "chat.completion.chunk",
		"model":  model,
		"choices": []any{
			map[string]any{"index": 0, "delta": map[string]any{}, "finish_reason": "stop"},
		},
		"usage": map[string]any{
			"prompt_tokens":     10,
			"completion_tokens": tokenCount,
			"total_tokens":      10 + tokenCount,
		},
	}
	data, _ := json.Marshal(chunk)
	return fmt.Sprintf("data: %s\n\n", data)
}

// --- Models endpoint ---

func handleModels(w http.ResponseWriter, r *http.Request) {
	resp := map[string]any{
		"object": "list",
		"data": []map[string]any{
			{"id": "mock-model", "object": "model", "owned_by": "chatstream-mock"},
		},
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

// --- Helpers ---

func getLastUserMessage(req *chatRequest) string {
	for i := len(req.Messages) - 1; i >= 0; i-- {
		if req.Messages[i].Role != "user" {
			continue
		}
		switch v := req.Messages[i].Content.(type) {
		case string:
			return v
		case []any:
			// Content parts: use the first text part.
			for _, part := range v {
				if m, ok := part.(map[string]any); ok {
					if text, ok := m["text"].(string); ok {
						return text
					}
				}
			}
		}
	}
	return ""
}
