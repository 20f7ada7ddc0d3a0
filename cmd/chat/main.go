// Command chat is an interactive terminal client that streams replies from
// an OpenAI-compatible Chat Completions backend.
//
// Each line read from stdin is sent as a user turn; the reply is printed as
// it arrives. Configuration is loaded from a YAML or TOML file and
// CHATSTREAM_* environment variables (see pkg/config).
//
// Flags:
//
//	-config PATH  config file (default: discovered)
//	-models       list backend models and exit
//	-prompt TEXT  send a single turn and exit
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/rhuss/chatstream/pkg/api"
	"github.com/rhuss/chatstream/pkg/config"
	"github.com/rhuss/chatstream/pkg/debug"
	"github.com/rhuss/chatstream/pkg/observability"
	"github.com/rhuss/chatstream/pkg/provider/openaicompat"
	"github.com/rhuss/chatstream/pkg/session"
	"github.com/rhuss/chatstream/pkg/transcript"
)

// errTurnFailed ends a -prompt run whose failure was already printed.
var errTurnFailed = errors.New("turn failed")

func main() {
	err := run()
	switch {
	case err == nil:
	case errors.Is(err, errTurnFailed):
		os.Exit(1)
	default:
		slog.Error("chat failed", "error", err)
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	configPath := flag.String("config", "", "path to config file (YAML or TOML)")
	listModels := flag.Bool("models", false, "list backend models and exit")
	prompt := flag.String("prompt", "", "send a single prompt and exit")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}

	logCloser := debug.Init(debug.Options{
		Categories: cfg.Logging.Debug,
		Level:      cfg.Logging.Level,
		File:       cfg.Logging.File,
		MaxSizeMB:  cfg.Logging.MaxSizeMB,
		MaxBackups: cfg.Logging.MaxBackups,
		MaxAgeDays: cfg.Logging.MaxAgeDays,
		Compress:   cfg.Logging.Compress,
	})
	defer logCloser.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM)
	defer stop()

	client := openaicompat.NewClient(openaicompat.Config{
		BaseURL:   cfg.Backend.URL,
		APIKey:    cfg.Backend.APIKey,
		Timeout:   cfg.Backend.Timeout,
		Transport: observability.NewInstrumentedTransport(nil),
	})
	defer client.Close()

	if *listModels {
		return printModels(ctx, client, os.Stdout)
	}

	if cfg.Observability.Metrics.Enabled {
		srv := startMetricsServer(cfg.Observability.Metrics)
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			srv.Shutdown(shutdownCtx)
		}()
	}

	opts := session.OptionsFromConfig(cfg.Stream)
	opts.Observer = renderEvent(os.Stdout)
	ctrl := session.NewController(client, openaicompat.ChatRequest{
		Model:        cfg.Backend.Model,
		SystemPrompt: cfg.Backend.SystemPrompt,
		Temperature:  cfg.Backend.Temperature,
		MaxTokens:    cfg.Backend.MaxTokens,
	}, opts)

	slog.Info("chat ready", "backend", cfg.Backend.URL, "model", cfg.Backend.Model, "debug", debug.Categories())

	tr := transcript.New()
	if *prompt != "" {
		if err := sendTurn(ctx, ctrl, tr, *prompt, os.Stderr); err != nil {
			return errTurnFailed
		}
		return nil
	}
	return repl(ctx, ctrl, tr, os.Stdin, os.Stdout)
}

func repl(ctx context.Context, ctrl *session.Controller, tr *transcript.Transcript, in io.Reader, out io.Writer) error {
	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, "> ")
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return scanner.Err()
		}
		text := strings.TrimSpace(scanner.Text())
		switch text {
		case "":
			continue
		case "/quit", "/exit":
			return nil
		}

		if err := sendTurn(ctx, ctrl, tr, text, os.Stderr); err != nil {
			// Failures are reported per turn; only a dead context ends the session.
			if ctx.Err() != nil {
				return nil
			}
		}
	}
}

// sendTurn streams one reply and reports a failure to errOut. Ctrl-C
// abandons the reply in flight without leaving the program.
func sendTurn(ctx context.Context, ctrl *session.Controller, tr *transcript.Transcript, text string, errOut io.Writer) error {
	turnCtx, cancel := signal.NotifyContext(ctx, os.Interrupt)
	defer cancel()

	out, err := ctrl.Send(turnCtx, tr, text)
	switch {
	case err == nil:
		return nil
	case out.State == api.SessionStateCancelled:
		// A cancelled session leaves the turn open for us to close.
		if abortErr := tr.AbortTurn(out.Deltas > 0); abortErr != nil {
			slog.Warn("closing cancelled turn failed", "session_id", out.SessionID, "error", abortErr)
		}
		fmt.Fprintln(errOut, "\n[cancelled]")
		return err
	default:
		fmt.Fprintf(errOut, "\n%s\n", describeError(err))
		return err
	}
}

func describeError(err error) string {
	var apiErr *api.APIError
	if !errors.As(err, &apiErr) {
		return "error: " + err.Error()
	}
	switch apiErr.Kind {
	case api.ErrorKindRateLimited:
		return "rate limited by backend, try again later: " + apiErr.Message
	case api.ErrorKindQuotaExceeded:
		return "backend quota exhausted: " + apiErr.Message
	default:
		return "request failed: " + apiErr.Error()
	}
}

// renderEvent prints deltas as they arrive and ends the line on completion.
func renderEvent(w io.Writer) api.Observer {
	return func(ev api.Event) {
		switch ev.Type {
		case api.EventContentDelta:
			fmt.Fprint(w, ev.Delta)
		case api.EventSessionCompleted:
			if ev.Content != "" {
				fmt.Fprintln(w)
			}
		}
	}
}

func printModels(ctx context.Context, client *openaicompat.Client, w io.Writer) error {
	models, err := client.ListModels(ctx)
	if err != nil {
		return fmt.Errorf("listing models: %w", err)
	}
	for _, m := range models {
		fmt.Fprintln(w, m.ID)
	}
	return nil
}

func startMetricsServer(cfg config.MetricsConfig) *http.Server {
	mux := http.NewServeMux()
	mux.Handle(cfg.Path, promhttp.Handler())
	srv := &http.Server{Addr: cfg.Addr, Handler: mux}

	go func() {
		slog.Info("metrics endpoint starting", "addr", cfg.Addr, "path", cfg.Path)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("metrics endpoint failed", "error", err)
		}
	}()
	return srv
}
