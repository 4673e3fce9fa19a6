package logger

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

func TestHandleWritesLevelAndMessage(t *testing.T) {
	var buf bytes.Buffer
	debug := false
	l := New(&buf, &debug)

	l.Info("channel started", "port", "GPU")

	out := buf.String()
	if !strings.Contains(out, "INFO") {
		t.Errorf("expected INFO level in output, got %q", out)
	}
	if !strings.Contains(out, "channel started") {
		t.Errorf("expected message in output, got %q", out)
	}
	if !strings.Contains(out, "port=GPU") {
		t.Errorf("expected attr in output, got %q", out)
	}
}

func TestDebugSuppressedByDefault(t *testing.T) {
	var buf bytes.Buffer
	debug := false
	l := New(&buf, &debug)

	l.Debug("stub region access", "region", "SPU")

	if buf.Len() != 0 {
		t.Errorf("expected debug record to be suppressed, got %q", buf.String())
	}
}

func TestDebugEnabledWhenFlagSet(t *testing.T) {
	var buf bytes.Buffer
	debug := true
	l := New(&buf, &debug)

	l.Debug("stub region access", "region", "SPU")

	if buf.Len() == 0 {
		t.Error("expected debug record to be emitted when debug flag is set")
	}
}

func TestHandlerImplementsSlogHandler(t *testing.T) {
	var _ slog.Handler = NewHandler(&bytes.Buffer{}, nil)
}
