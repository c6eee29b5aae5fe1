package internal

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"
)

func newTestHandler(opts Options) (*Handler, *bytes.Buffer) {
	var buf bytes.Buffer
	opts.DisableTimestamp = true
	return NewHandler(opts, &buf), &buf
}

func TestHandler_Enabled(t *testing.T) {
	h, _ := newTestHandler(Options{Level: slog.LevelWarn})
	ctx := context.Background()

	if h.Enabled(ctx, slog.LevelInfo) {
		t.Error("info should be disabled at warn level")
	}
	if !h.Enabled(ctx, slog.LevelError) {
		t.Error("error should be enabled at warn level")
	}
}

func TestHandler_LogRecord(t *testing.T) {
	h, buf := newTestHandler(Options{})
	h.LogRecord(slog.LevelInfo, "configuration loaded", []slog.Attr{
		slog.Int("keys", 12),
		slog.String("loader", "file"),
	})

	want := `level=INFO msg="configuration loaded" keys=12 loader="file"` + "\n"
	if got := buf.String(); got != want {
		t.Errorf("LogRecord() = %q, want %q", got, want)
	}
}

func TestHandler_Handle(t *testing.T) {
	h, buf := newTestHandler(Options{})
	logger := slog.New(h)

	logger.With("stage", "map").WithGroup("field").Info("bound", "name", "Limits")

	output := buf.String()
	for _, want := range []string{`stage="map"`, `field.name="Limits"`, `msg="bound"`} {
		if !strings.Contains(output, want) {
			t.Errorf("expected %s in output: %s", want, output)
		}
	}
}

func TestHandler_WithAttrsDoesNotLeak(t *testing.T) {
	h, buf := newTestHandler(Options{})
	child := h.WithAttrs([]slog.Attr{slog.String("loader", "env")}).(*Handler)

	h.LogRecord(slog.LevelInfo, "parent", nil)
	child.LogRecord(slog.LevelInfo, "child", nil)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(lines))
	}
	if strings.Contains(lines[0], "loader") {
		t.Errorf("parent line carries child attrs: %s", lines[0])
	}
	if !strings.Contains(lines[1], `loader="env"`) {
		t.Errorf("child line misses attrs: %s", lines[1])
	}
}

func TestHandler_JSON(t *testing.T) {
	h, buf := newTestHandler(Options{JSON: true, SensitiveFields: []string{"secret"}})
	h.LogRecord(slog.LevelWarn, "loader skipped", []slog.Attr{
		slog.String("path", "/etc/app.yaml"),
		slog.Bool("optional", true),
		slog.Float64("ratio", 0.5),
		slog.String("secret", "hunter2"),
	})

	var record map[string]any
	if err := json.Unmarshal(buf.Bytes(), &record); err != nil {
		t.Fatalf("invalid JSON %q: %v", buf.String(), err)
	}
	want := map[string]any{
		"level":    "WARN",
		"msg":      "loader skipped",
		"path":     "/etc/app.yaml",
		"optional": true,
		"ratio":    0.5,
		"secret":   Redacted,
	}
	for k, v := range want {
		if record[k] != v {
			t.Errorf("record[%q] = %v, want %v", k, record[k], v)
		}
	}
}

func TestHandler_Timestamp(t *testing.T) {
	var buf bytes.Buffer
	h := NewHandler(Options{}, &buf)
	h.LogRecord(slog.LevelInfo, "x", nil)

	if !strings.HasPrefix(buf.String(), "time=") {
		t.Errorf("expected timestamp prefix: %s", buf.String())
	}
}

func TestLogfmtValues(t *testing.T) {
	h, _ := newTestHandler(Options{PayloadMaxBytes: 4, SensitiveFields: []string{"password"}})
	at := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)

	tests := []struct {
		name string
		attr slog.Attr
		want string
	}{
		{name: "string", attr: slog.String("k", "abc"), want: `"abc"`},
		{name: "truncated", attr: slog.String("k", "abcdef"), want: `"abcd...(truncated, 6 bytes)"`},
		{name: "int", attr: slog.Int("k", -3), want: "-3"},
		{name: "uint", attr: slog.Uint64("k", 7), want: "7"},
		{name: "float", attr: slog.Float64("k", 1.25), want: "1.25"},
		{name: "whole float", attr: slog.Float64("k", 2), want: "2"},
		{name: "bool", attr: slog.Bool("k", false), want: "false"},
		{name: "duration in ms", attr: slog.Duration("k", 1500*time.Millisecond), want: "1500"},
		{name: "time", attr: slog.Time("k", at), want: `"2024-01-02T03:04:05Z"`},
		{name: "sensitive", attr: slog.String("Password", "x"), want: `"***REDACTED***"`},
		{name: "any", attr: slog.Any("k", []int{1}), want: `"[1]"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := h.logfmtValue(tt.attr); got != tt.want {
				t.Errorf("logfmtValue() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestKVToAttrs(t *testing.T) {
	attrs := KVToAttrs([]any{"a", 1, []any{"b", "two"}, "dangling"})

	if len(attrs) != 2 {
		t.Fatalf("expected 2 attrs, got %d", len(attrs))
	}
	if attrs[0].Key != "a" || attrs[0].Value.Int64() != 1 {
		t.Errorf("attrs[0] = %v", attrs[0])
	}
	if attrs[1].Key != "b" || attrs[1].Value.String() != "two" {
		t.Errorf("attrs[1] = %v", attrs[1])
	}
}

func TestSortAttrs(t *testing.T) {
	in := []slog.Attr{slog.Int("z", 1), slog.Int("a", 2), slog.Int("a", 3)}
	sorted := SortAttrs(in)

	keys := []string{sorted[0].Key, sorted[1].Key, sorted[2].Key}
	if strings.Join(keys, ",") != "a,a,z" {
		t.Errorf("SortAttrs() keys = %v", keys)
	}
	if sorted[0].Value.Int64() != 2 {
		t.Error("equal keys should keep their order")
	}
	if in[0].Key != "z" {
		t.Error("input should not be modified")
	}
}

func TestLevelString(t *testing.T) {
	tests := map[slog.Level]string{
		slog.LevelDebug: "DEBUG",
		slog.LevelInfo:  "INFO",
		slog.LevelWarn:  "WARN",
		slog.LevelError: "ERROR",
		slog.Level(2):   "LEVEL(2)",
	}
	for level, want := range tests {
		if got := LevelString(level); got != want {
			t.Errorf("LevelString(%d) = %s, want %s", level, got, want)
		}
	}
}

func TestColorizeLevel(t *testing.T) {
	if got := ColorizeLevel("ERROR"); got != "\033[31mERROR\033[0m" {
		t.Errorf("ColorizeLevel(ERROR) = %q", got)
	}
	if got := ColorizeLevel("LEVEL(2)"); got != "LEVEL(2)" {
		t.Errorf("unknown levels should stay plain, got %q", got)
	}
}

func TestHandler_Concurrency(t *testing.T) {
	h, buf := newTestHandler(Options{})

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			h.LogRecord(slog.LevelInfo, "concurrent", []slog.Attr{slog.Int("n", i)})
		}(i)
	}
	wg.Wait()

	if got := strings.Count(buf.String(), "\n"); got != 20 {
		t.Errorf("expected 20 lines, got %d", got)
	}
}
