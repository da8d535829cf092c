package logging

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

func TestLoggerStructuredOutput(t *testing.T) {
	var buf bytes.Buffer
	l := NewLoggerWithWriter("debug", &buf).WithComponent("test")
	l.Infow("run.completed", map[string]any{"table": "logs", "deleted_count": 2})

	line := strings.TrimSpace(buf.String())
	if line == "" {
		t.Fatal("expected log output")
	}
	var rec map[string]any
	if err := json.Unmarshal([]byte(line), &rec); err != nil {
		t.Fatalf("expected JSON log line: %v", err)
	}
	if rec["level"] != "info" {
		t.Fatalf("unexpected level: %#v", rec["level"])
	}
	if rec["msg"] != "run.completed" {
		t.Fatalf("unexpected msg: %#v", rec["msg"])
	}
	if rec["component"] != "test" {
		t.Fatalf("unexpected component: %#v", rec["component"])
	}
	if rec["table"] != "logs" {
		t.Fatalf("unexpected field table: %#v", rec["table"])
	}
}

func TestLoggerLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	l := NewLoggerWithWriter("error", &buf)
	l.Info("should_not_log")
	l.Error("should_log %d", 1)
	out := strings.TrimSpace(buf.String())
	lines := strings.Split(out, "\n")
	if len(lines) != 1 {
		t.Fatalf("expected one line, got %d: %q", len(lines), out)
	}
	var rec map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &rec); err != nil {
		t.Fatalf("expected JSON log line: %v", err)
	}
	if rec["level"] != "error" || rec["msg"] != "should_log 1" {
		t.Fatalf("unexpected record: %#v", rec)
	}
}

func TestLoggerErrorFieldsRenderAsText(t *testing.T) {
	var buf bytes.Buffer
	l := NewLoggerWithWriter("info", &buf).With(map[string]any{"cycle_id": "c1"})
	l.Errorw("run.failed", map[string]any{"error": errors.New("boom")})

	var rec map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &rec); err != nil {
		t.Fatal(err)
	}
	if rec["error"] != "boom" || rec["cycle_id"] != "c1" {
		t.Fatalf("unexpected record: %#v", rec)
	}
}
