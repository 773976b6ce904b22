// Package runlog opens the per-run log file and the console logger.
package runlog

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/user"
	"strings"
	"sync"
	"time"

	"github.com/lmittmann/tint"
	"gopkg.in/yaml.v3"
)

type Options struct {
	// Console mirrors records to stderr through tint.
	Console bool
	Level   slog.Level
	// ConsoleWriter replaces stderr as the console destination.
	ConsoleWriter io.Writer
	Now           func() time.Time
}

// Log is an open run log. Close it on every exit path.
type Log struct {
	*slog.Logger
	Path string

	mu     sync.Mutex
	file   *os.File
	closed bool
}

// NewConsole returns the tint console logger used by the CLI.
func NewConsole(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(consoleHandler(w, level))
}

func consoleHandler(w io.Writer, level slog.Level) slog.Handler {
	return tint.NewHandler(w, &tint.Options{
		Level:      level,
		TimeFormat: "15:04:05",
	})
}

// LevelFor maps a settings verbosity onto a log level.
func LevelFor(verbosity int) slog.Level {
	switch {
	case verbosity <= 0:
		return slog.LevelWarn
	case verbosity < 3:
		return slog.LevelInfo
	default:
		return slog.LevelDebug
	}
}

// Open creates the log file at path, writes the run header and the inputs as
// YAML comment lines, and returns a logger writing to it.
func Open(path string, inputs any, opts Options) (*Log, error) {
	if opts.Now == nil {
		opts.Now = time.Now
	}

	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("runlog: %w", err)
	}
	if err := writeHeader(f, inputs, opts.Now()); err != nil {
		f.Close()
		return nil, fmt.Errorf("runlog: header: %w", err)
	}

	var handler slog.Handler = slog.NewTextHandler(f, &slog.HandlerOptions{Level: opts.Level})
	if opts.Console {
		w := opts.ConsoleWriter
		if w == nil {
			w = os.Stderr
		}
		handler = fanout{handler, consoleHandler(w, opts.Level)}
	}

	return &Log{Logger: slog.New(handler), Path: path, file: f}, nil
}

func writeHeader(w io.Writer, inputs any, now time.Time) error {
	bw := bufio.NewWriter(w)
	username := "unknown"
	if u, err := user.Current(); err == nil {
		username = u.Username
	}
	host, err := os.Hostname()
	if err != nil {
		host = "unknown"
	}

	fmt.Fprintf(bw, "# Run at UTC %s\n", now.UTC().Format(time.RFC3339))
	fmt.Fprintf(bw, "# By user %s\n", username)
	fmt.Fprintf(bw, "# On host %s\n", host)

	if inputs != nil {
		dump, err := yaml.Marshal(inputs)
		if err != nil {
			return err
		}
		bw.WriteString("# Inputs:\n")
		for line := range strings.Lines(string(dump)) {
			fmt.Fprintf(bw, "#   %s", line)
		}
	}
	return bw.Flush()
}

// Close flushes and closes the file. Later calls are no-ops.
func (l *Log) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return nil
	}
	l.closed = true
	l.Logger = slog.New(slog.DiscardHandler)
	return l.file.Close()
}

// fanout sends every record to all of its handlers.
type fanout []slog.Handler

func (f fanout) Enabled(ctx context.Context, level slog.Level) bool {
	for _, h := range f {
		if h.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (f fanout) Handle(ctx context.Context, r slog.Record) error {
	var errs []error
	for _, h := range f {
		if h.Enabled(ctx, r.Level) {
			errs = append(errs, h.Handle(ctx, r.Clone()))
		}
	}
	return errors.Join(errs...)
}

func (f fanout) WithAttrs(attrs []slog.Attr) slog.Handler {
	out := make(fanout, len(f))
	for i, h := range f {
		out[i] = h.WithAttrs(attrs)
	}
	return out
}

func (f fanout) WithGroup(name string) slog.Handler {
	out := make(fanout, len(f))
	for i, h := range f {
		out[i] = h.WithGroup(name)
	}
	return out
}
