package logging

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
)

func TestNewLoggerJSONCarriesContextAttrs(t *testing.T) {
	var buf bytes.Buffer
	logger, err := NewLogger("debug", "json", &buf)
	if err != nil {
		t.Fatalf("NewLogger() error = %v", err)
	}

	ctx := WithLogger(context.Background(), logger)
	ctx = WithAttrs(ctx, slog.String("component", "usecase.moderation"))
	ctx = WithRequest(ctx, "req-1", "")
	ctx = WithRecord(ctx, "r1")
	Info(ctx, "transition committed")

	out := buf.String()
	for _, want := range []string{`"component":"usecase.moderation"`, `"request_id":"req-1"`, `"record_id":"r1"`} {
		if !strings.Contains(out, want) {
			t.Fatalf("log output missing %s: %s", want, out)
		}
	}
}

func TestNewLoggerRejectsUnknownSettings(t *testing.T) {
	if _, err := NewLogger("loud", "text", nil); err == nil {
		t.Fatalf("NewLogger() expected error for bad level")
	}
	if _, err := NewLogger("info", "xml", nil); err == nil {
		t.Fatalf("NewLogger() expected error for bad format")
	}
}

func TestWithAttrsOverridesByKey(t *testing.T) {
	ctx := WithAttrs(context.Background(), slog.String("op", "a"), slog.String("component", "x"))
	ctx = WithAttrs(ctx, slog.String("op", "b"))

	attrs := Attrs(ctx)
	if len(attrs) != 2 || attrs[0].Value.String() != "b" {
		t.Fatalf("Attrs() = %v", attrs)
	}
}
