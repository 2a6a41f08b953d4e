// Package diagnostics wires up the assembler driver's structured logging:
// a colorized handler for humans, fanned out to an optional JSON handler
// for machine consumption when a log file is configured.
package diagnostics

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/fatih/color"
	slogmulti "github.com/samber/slog-multi"
)

var (
	debugColor = color.New(color.FgHiBlack)
	infoColor  = color.New(color.FgCyan)
	warnColor  = color.New(color.FgYellow, color.Bold)
	errorColor = color.New(color.FgRed, color.Bold)
)

func levelColor(level slog.Level) *color.Color {
	switch {
	case level < slog.LevelInfo:
		return debugColor
	case level < slog.LevelWarn:
		return infoColor
	case level < slog.LevelError:
		return warnColor
	default:
		return errorColor
	}
}

// humanHandler renders records as `LEVEL message key=value ...`, the
// level colorized by severity.
type humanHandler struct {
	out   io.Writer
	level slog.Level
	attrs []slog.Attr
	group string
}

func newHumanHandler(out io.Writer, level slog.Level) *humanHandler {
	return &humanHandler{out: out, level: level}
}

func (h *humanHandler) Enabled(_ context.Context, level slog.Level) bool { return level >= h.level }

func (h *humanHandler) Handle(_ context.Context, r slog.Record) error {
	c := levelColor(r.Level)
	line := fmt.Sprintf("%s %s", c.Sprint(r.Level.String()), r.Message)
	for _, a := range h.attrs {
		line += fmt.Sprintf(" %s=%v", a.Key, a.Value)
	}
	r.Attrs(func(a slog.Attr) bool {
		line += fmt.Sprintf(" %s=%v", a.Key, a.Value)
		return true
	})
	_, err := fmt.Fprintln(h.out, line)
	return err
}

func (h *humanHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := *h
	next.attrs = append(append([]slog.Attr{}, h.attrs...), attrs...)
	return &next
}

func (h *humanHandler) WithGroup(name string) slog.Handler {
	next := *h
	next.group = name
	return &next
}

// New builds the diagnostics logger: always a colorized human sink on
// stderr, fanned out with a JSON sink when logFilePath is non-empty.
func New(logFilePath string, verbose bool) (*slog.Logger, func() error, error) {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}

	human := newHumanHandler(os.Stderr, level)
	handlers := []slog.Handler{human}
	closer := func() error { return nil }

	if logFilePath != "" {
		f, err := os.OpenFile(logFilePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("diagnostics: opening log file: %w", err)
		}
		handlers = append(handlers, slog.NewJSONHandler(f, &slog.HandlerOptions{Level: level}))
		closer = f.Close
	}

	fanned := slogmulti.Fanout(handlers...)
	return slog.New(fanned), closer, nil
}
