package observability

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"sales-dashboard/internal/config"
)

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(&buf, config.LoggerConfig{Level: "warn", Format: "json"})

	logger.Info("hidden")
	logger.Warn("fallback to synthetic data", "rows", 300)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("expected one record at warn level, got %d", len(lines))
	}

	var record map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &record); err != nil {
		t.Fatalf("expected a JSON record: %v", err)
	}
	if record["service"] != "sales-dashboard" || record["rows"] != float64(300) {
		t.Errorf("unexpected record %v", record)
	}
	source, _ := record["source"].(map[string]any)
	if file, _ := source["file"].(string); file != "observability/observability_test.go" {
		t.Errorf("expected a short source path, got %q", file)
	}
}

func TestParseLogLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"WARNING": slog.LevelWarn,
		"error":   slog.LevelError,
		"":        slog.LevelInfo,
	}
	for in, want := range tests {
		if got := parseLogLevel(in); got != want {
			t.Errorf("parseLogLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestSpan(t *testing.T) {
	ctx, parent := StartSpan(context.Background(), "GET /sse/refresh")
	_, child := StartSpan(ctx, "catalog.snapshot")

	if child.TraceID != parent.TraceID || child.ParentID != parent.SpanID {
		t.Error("a child span should join its parent's trace")
	}
	if GetSpan(ctx) != parent {
		t.Error("expected the parent span in the context")
	}

	child.SetTag("rows", "42")
	child.SetError(errors.New("cancelled"))
	child.Finish()

	var buf bytes.Buffer
	child.Log(ctx, slog.New(slog.NewTextHandler(&buf, nil)))
	out := buf.String()
	if !strings.Contains(out, "level=WARN") || !strings.Contains(out, "catalog.snapshot") {
		t.Errorf("expected a warn record for the failed span, got %q", out)
	}
}

func TestRequestID(t *testing.T) {
	if GetRequestID(context.Background()) != "" {
		t.Error("expected no request id")
	}
	if got := GetRequestID(WithRequestID(context.Background(), "abc")); got != "abc" {
		t.Errorf("GetRequestID() = %q", got)
	}
}
