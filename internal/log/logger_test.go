package log

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"testing"
)

func TestParse(t *testing.T) {
	if ParseLevel("DEBUG") != slog.LevelDebug || ParseLevel("warning") != slog.LevelWarn || ParseLevel("nope") != slog.LevelInfo {
		t.Fatal("unexpected level mapping")
	}
	if ParseFormat("JSON") != FormatJSON || ParseFormat("tint") != FormatTint || ParseFormat("") != FormatText {
		t.Fatal("unexpected format mapping")
	}
}

func TestJSONLoggerCarriesComponent(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Level: slog.LevelInfo, Format: FormatJSON, Component: ComponentLedger, Output: &buf})

	NewStructuredLogger(logger).LogError(context.Background(), "Failed to apply balance", errors.New("boom"), ErrorTypeDatabase, OpCreate, nil)

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("decode %q: %v", buf.String(), err)
	}
	if entry[FieldComponent] != ComponentLedger || entry[FieldError] != "boom" || entry[FieldErrorType] != ErrorTypeDatabase {
		t.Fatalf("unexpected entry: %v", entry)
	}
}

func TestWithComponentReplacesComponent(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Format: FormatText, Output: &buf}).WithComponent(ComponentWorker)
	logger.Info("started")
	if got := buf.String(); strings.Count(got, "component=") != 1 || !strings.Contains(got, "component=worker") {
		t.Fatalf("unexpected line: %s", got)
	}
}

func TestFromContextFallsBack(t *testing.T) {
	if FromContext(context.Background()).Component() != "unknown" {
		t.Fatal("expected fallback logger")
	}
	l := New(DefaultConfig())
	if FromContext(NewContext(context.Background(), l)) != l {
		t.Fatal("logger not carried by context")
	}
}
