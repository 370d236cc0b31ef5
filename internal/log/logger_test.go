package log

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"weekbudget/internal/core"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug": slog.LevelDebug,
		"INFO":  slog.LevelInfo,
		"":      slog.LevelInfo,
		"warn":  slog.LevelWarn,
		"error": slog.LevelError,
	}
	for in, want := range cases {
		got, err := ParseLevel(in)
		if err != nil || got != want {
			t.Fatalf("ParseLevel(%q) = %v, %v", in, got, err)
		}
	}
	if _, err := ParseLevel("trace"); err == nil {
		t.Fatalf("expected error for unknown level")
	}
}

func TestJSONLoggerCarriesComponent(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Level: slog.LevelInfo, Format: "json", Component: ComponentApp, Writer: &buf})
	logger.WithComponent(ComponentReport).Info("built", FieldCount, 3)
	logger.Debug("hidden")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("expected one line, got %q", buf.String())
	}
	var rec map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &rec); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if rec[FieldComponent] != ComponentReport || rec[FieldCount] != float64(3) || rec["msg"] != "built" {
		t.Fatalf("record: %v", rec)
	}
}

func TestFieldsAndContext(t *testing.T) {
	w := core.WeekSegment{Month: 3, Start: core.NewDate(2024, 3, 10), End: core.NewDate(2024, 3, 16), Number: 11}
	f := NewFields().WithWeek(w).WithBudget("Home", "b1").WithError(errors.New("boom")).WithOperation(OpFetch)
	if f[FieldWeek] != 11 || f[FieldWeekStart] != "2024-03-10" || f[FieldBudgetID] != "b1" || f[FieldError] != "boom" {
		t.Fatalf("fields: %v", f)
	}
	if len(f.ToSlice()) != 2*len(f) {
		t.Fatalf("slice length")
	}

	var buf bytes.Buffer
	logger := New(Config{Level: slog.LevelDebug, Writer: &buf, Component: ComponentLedger})
	ctx := NewContext(context.Background(), logger)
	if FromContext(ctx) != logger {
		t.Fatalf("logger not found in context")
	}
	if FromContext(context.Background()) == nil {
		t.Fatalf("expected fallback logger")
	}
	FromContext(ctx).DebugContext(ctx, "hello")
	if !strings.Contains(buf.String(), "component=ledger") {
		t.Fatalf("text output: %q", buf.String())
	}
}
