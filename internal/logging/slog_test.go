package logging

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
)

func newTestLogger(t *testing.T) (*SlogLogger, *bytes.Buffer) {
	t.Helper()
	var buf bytes.Buffer
	h := slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})
	return NewSlogLogger(slog.New(h)), &buf
}

func TestSlogLogger_Levels(t *testing.T) {
	log, buf := newTestLogger(t)
	ctx := context.Background()

	log.Debug(ctx, "dbg")
	log.Info(ctx, "inf")
	log.Warn(ctx, "wrn")
	log.Error(ctx, "err")

	out := buf.String()
	for _, want := range []string{"level=DEBUG", "dbg", "level=INFO", "inf", "level=WARN", "wrn", "level=ERROR", "err"} {
		if !strings.Contains(out, want) {
			t.Fatalf("output missing %q:\n%s", want, out)
		}
	}
}

func TestSlogLogger_WithAddsAttrs(t *testing.T) {
	log, buf := newTestLogger(t)
	child := log.With("component", "vault")
	child.Info(context.Background(), "hello")

	out := buf.String()
	if !strings.Contains(out, "component=vault") {
		t.Fatalf("output missing attribute from With:\n%s", out)
	}
	if !strings.Contains(out, "hello") {
		t.Fatalf("output missing message:\n%s", out)
	}
}
