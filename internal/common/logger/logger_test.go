package logger

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/kyodo/backend/internal/common/constants"
)

func TestEntry_WritesSortedFieldsAndTraceID(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter(&buf, "kyodo", "DEBUG")

	ctx := context.WithValue(context.Background(), constants.TraceIDKey, "abc123")
	l.WithFields(ctx, Fields{"b": 2, "a": 1}).Warn("hello")

	out := buf.String()
	if !strings.Contains(out, "[WARNING] [kyodo] [trace_id=abc123 a=1 b=2]") {
		t.Errorf("unexpected log line: %q", out)
	}
	if !strings.Contains(out, "hello") {
		t.Errorf("expected message in output: %q", out)
	}
}

func TestLogger_FiltersBelowLevel(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter(&buf, "", "ERROR")

	l.Info("dropped")
	l.Warnf("dropped %d", 2)
	l.Error("kept")

	out := buf.String()
	if strings.Contains(out, "dropped") {
		t.Errorf("expected lines below ERROR to be filtered: %q", out)
	}
	if !strings.Contains(out, "kept") {
		t.Errorf("expected ERROR line to be written: %q", out)
	}
}

func TestShouldLog(t *testing.T) {
	l := NewWithWriter(&bytes.Buffer{}, "", "warn")

	if l.ShouldLog(INFO) {
		t.Error("INFO should be filtered at WARNING")
	}
	if !l.ShouldLog(CRITICAL) {
		t.Error("CRITICAL should pass at WARNING")
	}

	l.SetLevel(DEBUG)
	if !l.ShouldLog(DEBUG) {
		t.Error("DEBUG should pass after SetLevel(DEBUG)")
	}
}

func TestParseLevel_UnknownFallsBackToInfo(t *testing.T) {
	if got := ParseLevel("verbose"); got != INFO {
		t.Errorf("expected INFO, got %s", got)
	}
}

func TestGetInstance_IsShared(t *testing.T) {
	if GetInstance() != GetInstance() {
		t.Error("expected one process-wide logger")
	}
}

func TestInitialize_WritesRotatedFile(t *testing.T) {
	dir := t.TempDir()
	l := NewWithWriter(&bytes.Buffer{}, "", "INFO")
	if err := l.Initialize(dir, "kyodo", "INFO"); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	l.Info("written to file")
	if err := l.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	raw, err := os.ReadFile(filepath.Join(dir, "kyodo.log"))
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if !strings.Contains(string(raw), "written to file") {
		t.Errorf("log file missing entry: %q", raw)
	}
}
