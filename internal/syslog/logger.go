// Package syslog wraps log/slog with a custom Handler that writes every
// record at or above a minimum level to a configured writer and, only
// when its debug flag is set, mirrors those records to stderr.
package syslog

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
)

// Handler is a slog.Handler that renders records as single lines
// ("time level: message attr=val ...").
type Handler struct {
	out   io.Writer
	attrs []slog.Attr
	group string
	mu    *sync.Mutex
	debug bool
	level slog.Level
}

// NewHandler creates a Handler writing to out at the given minimum
// level. debug additionally mirrors every record that passes the level
// filter to stderr.
func NewHandler(out io.Writer, level slog.Level, debug bool) *Handler {
	if out == nil {
		out = io.Discard
	}
	return &Handler{out: out, mu: &sync.Mutex{}, debug: debug, level: level}
}

func (h *Handler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level
}

func (h *Handler) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := *h
	next.attrs = append(append([]slog.Attr{}, h.attrs...), attrs...)
	return &next
}

func (h *Handler) WithGroup(name string) slog.Handler {
	next := *h
	next.group = name
	return &next
}

func (h *Handler) Handle(_ context.Context, r slog.Record) error {
	parts := []string{r.Time.Format("2006/01/02 15:04:05"), r.Level.String() + ":", r.Message}
	for _, a := range h.attrs {
		parts = append(parts, a.Key+"="+a.Value.String())
	}
	r.Attrs(func(a slog.Attr) bool {
		key := a.Key
		if h.group != "" {
			key = h.group + "." + key
		}
		parts = append(parts, key+"="+a.Value.String())
		return true
	})
	line := strings.Join(parts, " ") + "\n"

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := h.out.Write([]byte(line))
	if h.debug && h.out != os.Stderr {
		_, _ = os.Stderr.Write([]byte(line))
	}
	return err
}

// New builds a ready-to-use *slog.Logger over a Handler.
func New(out io.Writer, level slog.Level, debug bool) *slog.Logger {
	return slog.New(NewHandler(out, level, debug))
}
