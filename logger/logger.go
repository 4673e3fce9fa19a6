// Package logger wraps log/slog the way rcornwell-S370/util/logger does:
// a single handler that timestamps and space-joins fields, with a
// debug/non-debug verbosity switch, rather than ad hoc fmt.Println calls.
package logger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"
)

// Handler adapts slog.Handler to rstationx's plain-text, timestamped
// format, matching the shape of rcornwell-S370's LogHandler.
type Handler struct {
	out   io.Writer
	mu    *sync.Mutex
	debug *bool
}

// NewHandler returns a slog.Handler that writes timestamped, leveled
// records to out. When debug is non-nil and dereferences to true, records
// of every level are written; otherwise only Info and above are.
func NewHandler(out io.Writer, debug *bool) *Handler {
	return &Handler{out: out, mu: &sync.Mutex{}, debug: debug}
}

func (h *Handler) Enabled(_ context.Context, level slog.Level) bool {
	if h.debug != nil && *h.debug {
		return true
	}
	return level >= slog.LevelInfo
}

func (h *Handler) Handle(_ context.Context, r slog.Record) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	line := fmt.Sprintf("%s %s: %s", r.Time.Format(time.RFC3339), r.Level, r.Message)
	r.Attrs(func(a slog.Attr) bool {
		line += fmt.Sprintf(" %s=%v", a.Key, a.Value)
		return true
	})
	_, err := fmt.Fprintln(h.out, line)
	return err
}

func (h *Handler) WithAttrs(attrs []slog.Attr) slog.Handler {
	// rstationx has no structured-group call sites yet that need attrs
	// carried across Handle calls; return h unchanged like the S370
	// handler does for the same reason.
	return h
}

func (h *Handler) WithGroup(name string) slog.Handler {
	return h
}

// SetDebug flips the verbosity switch backing an already-constructed
// handler, mirroring rcornwell-S370's LogHandler.SetDebug.
func (h *Handler) SetDebug(debug *bool) {
	h.debug = debug
}

// New builds a ready-to-use *slog.Logger writing to out.
func New(out io.Writer, debug *bool) *slog.Logger {
	return slog.New(NewHandler(out, debug))
}
