// Package debug provides category-based debug logging for chatstream.
//
// Categories select which part of the decoding pipeline reports detail:
//   - streaming: chunks, dropped lines, deferrals and session state changes
//   - transcript: turn open, append, completion and rollback
//   - provider: outgoing requests and model listing
//   - config: which config file was loaded
//   - all: every category
//
// Categories come from CHATSTREAM_DEBUG or logging.debug, the level from
// CHATSTREAM_LOG_LEVEL or logging.level (ERROR, WARN, INFO, DEBUG, TRACE).
// Debug output needs both the category and at least DEBUG.
//
//	debug.Log("streaming", "line dropped", "reason", kind)
//	debug.Trace("provider", "request body", "body", string(body))
package debug

import (
	"io"
	"log/slog"
	"os"
	"slices"
	"strings"
	"unicode/utf8"

	"gopkg.in/natefinch/lumberjack.v2"
)

// LevelTrace is below slog.LevelDebug. At TRACE, wire payloads are logged
// untruncated.
const LevelTrace = slog.LevelDebug - 4

// payloadLimit bounds payload text logged below TRACE, in runes.
const payloadLimit = 200

var knownCategories = []string{"streaming", "transcript", "provider", "config", "all"}

// categories is read-only after Init.
var categories map[string]bool

func init() {
	// Available before Init so package-level setup can log.
	categories = parseCategories(os.Getenv("CHATSTREAM_DEBUG"))
}

// Options configures the logging backend.
type Options struct {
	Categories string
	Level      string

	// File, when set, sends logs as JSON to a size-rotated file instead of
	// text on stderr.
	File       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool
}

// Init installs the default slog logger and the enabled categories.
// Environment variables take precedence over opts. The returned Closer
// releases the log file, if any.
func Init(opts Options) io.Closer {
	cats := os.Getenv("CHATSTREAM_DEBUG")
	if cats == "" {
		cats = opts.Categories
	}
	categories = parseCategories(cats)

	level := os.Getenv("CHATSTREAM_LOG_LEVEL")
	if level == "" {
		level = opts.Level
	}
	handlerOpts := &slog.HandlerOptions{Level: ParseLevel(level)}

	var closer io.Closer = nopCloser{}
	if opts.File == "" {
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, handlerOpts)))
	} else {
		rotator := &lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    opts.MaxSizeMB,
			MaxBackups: opts.MaxBackups,
			MaxAge:     opts.MaxAgeDays,
			Compress:   opts.Compress,
		}
		slog.SetDefault(slog.New(slog.NewJSONHandler(rotator, handlerOpts)))
		closer = rotator
	}

	for cat := range categories {
		if !slices.Contains(knownCategories, cat) {
			slog.Warn("unknown debug category", "category", cat, "known", strings.Join(knownCategories, ","))
		}
	}
	return closer
}

// Enabled reports whether debug output is active for the given category.
func Enabled(category string) bool {
	return categories["all"] || categories[category]
}

// Log emits a DEBUG message tagged with category. No-op when the category
// is disabled.
func Log(category string, msg string, args ...any) {
	if !Enabled(category) {
		return
	}
	slog.Debug(msg, append([]any{"debug", category}, args...)...)
}

// Trace emits a TRACE message tagged with category.
func Trace(category string, msg string, args ...any) {
	if !Enabled(category) {
		return
	}
	slog.Log(nil, LevelTrace, msg, append([]any{"debug", category}, args...)...)
}

// TraceIsEnabled reports whether TRACE output is active for the category.
func TraceIsEnabled(category string) bool {
	return Enabled(category) && slog.Default().Enabled(nil, LevelTrace)
}

// Payload prepares wire text for a log attribute: complete at TRACE,
// truncated otherwise.
func Payload(category, s string) string {
	if TraceIsEnabled(category) {
		return s
	}
	return Truncate(s, payloadLimit)
}

// ParseLevel converts a level name to a slog.Level. Unknown names are INFO.
func ParseLevel(s string) slog.Level {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "TRACE":
		return LevelTrace
	case "DEBUG":
		return slog.LevelDebug
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Categories returns the enabled categories in sorted order.
func Categories() []string {
	result := make([]string, 0, len(categories))
	for k := range categories {
		result = append(result, k)
	}
	slices.Sort(result)
	return result
}

// Truncate shortens s to at most maxLen runes, appending "..." when cut.
// Multi-byte characters are never split.
func Truncate(s string, maxLen int) string {
	if utf8.RuneCountInString(s) <= maxLen {
		return s
	}
	n := 0
	for i := range s {
		if n == maxLen {
			return s[:i] + "..."
		}
		n++
	}
	return s
}

func parseCategories(s string) map[string]bool {
	m := make(map[string]bool)
	for _, cat := range strings.Split(s, ",") {
		cat = strings.TrimSpace(strings.ToLower(cat))
		if cat != "" {
			m[cat] = true
		}
	}
	return m
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
