package utils

import (
	"bytes"
	"strings"
	"testing"
)

func TestDefaultLoggerRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	log := NewDefaultLogger(LevelWarn, &buf)

	log.Debug("debug %d", 1)
	log.Info("info %d", 2)
	log.Warn("warn %d", 3)
	log.Error("error %d", 4)

	out := buf.String()
	if strings.Contains(out, "debug 1") || strings.Contains(out, "info 2") {
		t.Errorf("messages below Warn should be dropped, got:\n%s", out)
	}
	if !strings.Contains(out, "warn 3") || !strings.Contains(out, "error 4") {
		t.Errorf("Warn and Error should be written, got:\n%s", out)
	}
}

func TestDefaultLoggerNilOutputDefaultsToStdout(t *testing.T) {
	log := NewDefaultLogger(LevelError, nil)
	// Must not panic.
	log.Error("written to stdout")
}

func TestWithFieldsStampsEveryLine(t *testing.T) {
	var buf bytes.Buffer
	base := NewDefaultLogger(LevelInfo, &buf)
	log := base.WithField("job", "abc-123").WithFields(map[string]interface{}{"gas": 42})

	log.Info("done")

	out := buf.String()
	if !strings.Contains(out, "job=abc-123") || !strings.Contains(out, "gas=42") {
		t.Errorf("fields missing from line: %s", out)
	}

	// The parent logger must not inherit the child's fields.
	buf.Reset()
	base.Info("plain")
	if strings.Contains(buf.String(), "job=") {
		t.Errorf("parent logger picked up child fields: %s", buf.String())
	}
}

func TestFieldsRenderInStableOrder(t *testing.T) {
	var buf bytes.Buffer
	log := NewDefaultLogger(LevelInfo, &buf).WithFields(map[string]interface{}{
		"b": 2, "a": 1, "c": 3,
	})

	log.Info("x")
	first := buf.String()
	buf.Reset()
	log.Info("x")

	if first != buf.String() {
		t.Errorf("field order not deterministic:\n%s\n%s", first, buf.String())
	}
	if strings.Index(first, "a=1") > strings.Index(first, "b=2") {
		t.Errorf("fields should be sorted by key: %s", first)
	}
}

func TestParseLogLevel(t *testing.T) {
	if ParseLogLevel("debug") != LevelDebug {
		t.Error("debug should parse to LevelDebug")
	}
	if ParseLogLevel("WARNING") != LevelWarn {
		t.Error("WARNING should parse to LevelWarn")
	}
	if ParseLogLevel("nonsense") != LevelInfo {
		t.Error("unrecognized levels default to Info")
	}
}

func TestLevelString(t *testing.T) {
	levels := map[LogLevel]string{
		LevelDebug:   "DEBUG",
		LevelInfo:    "INFO",
		LevelWarn:    "WARN",
		LevelError:   "ERROR",
		LogLevel(99): "UNKNOWN",
	}
	for level, want := range levels {
		if got := level.String(); got != want {
			t.Errorf("LogLevel(%d).String() = %q, want %q", level, got, want)
		}
	}
}

func TestGlobalLoggerSwap(t *testing.T) {
	original := GetGlobalLogger()
	defer SetGlobalLogger(original)

	null := &NullLogger{}
	SetGlobalLogger(null)
	if GetGlobalLogger() != null {
		t.Error("SetGlobalLogger should replace the global instance")
	}
}

func TestNullLoggerDiscardsEverything(t *testing.T) {
	var log Logger = &NullLogger{}
	log = log.WithField("k", "v").WithFields(map[string]interface{}{"x": 1})
	log.Debug("a")
	log.Info("b")
	log.Warn("c")
	log.Error("d")
}
