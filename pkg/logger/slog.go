package logger

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	charmlog "github.com/charmbracelet/log"
)

type config struct {
	level   slog.Level
	pretty  bool
	json    bool
	writers []io.Writer
	source  bool
}

// New creates a *slog.Logger for user-facing CLI output. The default handler
// is slog's text handler; WithPretty swaps in the charmbracelet/log handler
// and WithJSON the JSON handler (for log files).
func New(opts ...Option) *slog.Logger {
	c := &config{
		level:   slog.LevelInfo,
		writers: []io.Writer{os.Stdout},
	}
	for _, opt := range opts {
		opt(c)
	}

	var w io.Writer = os.Stdout
	switch len(c.writers) {
	case 0:
	case 1:
		w = c.writers[0]
	default:
		w = io.MultiWriter(c.writers...)
	}

	var handler slog.Handler
	switch {
	case c.pretty:
		charmLevel := charmlog.InfoLevel
		if c.level == slog.LevelDebug {
			charmLevel = charmlog.DebugLevel
		}
		handler = charmlog.NewWithOptions(w, charmlog.Options{
			Level:           charmLevel,
			ReportCaller:    c.source,
			ReportTimestamp: true,
		})
	case c.json:
		handler = slog.NewJSONHandler(w, &slog.HandlerOptions{
			Level:     c.level,
			AddSource: c.source,
		})
	default:
		handler = slog.NewTextHandler(w, &slog.HandlerOptions{
			Level:     c.level,
			AddSource: c.source,
		})
	}

	return slog.New(handler)
}

// NewCLI creates the logger used by client commands (recall, store): pretty
// charmbracelet output on stdout, plus a JSON copy appended to logFile when
// set. The returned closer flushes the log file.
func NewCLI(debug bool, logFile string) (*slog.Logger, func(), error) {
	pretty := New(WithPretty(true), WithDebug(debug))
	if logFile == "" {
		return pretty, func() {}, nil
	}

	f, err := os.OpenFile(logFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("opening log file %s: %w", logFile, err)
	}

	jsonLog := New(WithJSON(true), WithDebug(debug), WithWriter(f))
	return Multi(pretty, jsonLog), func() { _ = f.Close() }, nil
}
