// Package internal provides the record encoders behind logx.
package internal

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"
)

// Options configures a Handler.
type Options struct {
	JSON             bool       // JSON objects instead of logfmt lines
	Level            slog.Level // minimum level
	Color            bool       // colorize the level value (logfmt only)
	PayloadMaxBytes  int        // truncate long strings (0 = unlimited)
	SensitiveFields  []string   // keys whose values are masked
	DisableTimestamp bool
}

// Redacted replaces the value of a sensitive field.
const Redacted = "***REDACTED***"

// Handler writes one line per record with attributes sorted by key.
type Handler struct {
	opts   Options
	mu     *sync.Mutex
	writer io.Writer
	attrs  []slog.Attr
	group  string
}

// NewHandler returns a handler writing to w.
func NewHandler(opts Options, w io.Writer) *Handler {
	return &Handler{opts: opts, mu: &sync.Mutex{}, writer: w}
}

// LogRecord writes a record built outside of slog.
func (h *Handler) LogRecord(level slog.Level, msg string, attrs []slog.Attr) {
	if level < h.opts.Level {
		return
	}

	all := make([]slog.Attr, 0, len(h.attrs)+len(attrs))
	all = append(all, h.attrs...)
	for _, a := range attrs {
		if h.group != "" {
			a.Key = h.group + "." + a.Key
		}
		all = append(all, a)
	}
	all = SortAttrs(all)

	var line []byte
	if h.opts.JSON {
		line = h.encodeJSON(level, msg, all)
	} else {
		line = h.encodeLogfmt(level, msg, all)
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	_, _ = h.writer.Write(line)
}

// Enabled implements slog.Handler.
func (h *Handler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.opts.Level
}

// Handle implements slog.Handler.
func (h *Handler) Handle(_ context.Context, r slog.Record) error {
	attrs := make([]slog.Attr, 0, r.NumAttrs())
	r.Attrs(func(a slog.Attr) bool {
		attrs = append(attrs, a)
		return true
	})
	h.LogRecord(r.Level, r.Message, attrs)
	return nil
}

// WithAttrs implements slog.Handler.
func (h *Handler) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := *h
	next.attrs = slices.Clone(h.attrs)
	for _, a := range attrs {
		if h.group != "" {
			a.Key = h.group + "." + a.Key
		}
		next.attrs = append(next.attrs, a)
	}
	return &next
}

// WithGroup implements slog.Handler. Groups prefix keys with a dot.
func (h *Handler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	next := *h
	if h.group != "" {
		name = h.group + "." + name
	}
	next.group = name
	return &next
}

func (h *Handler) encodeLogfmt(level slog.Level, msg string, attrs []slog.Attr) []byte {
	var b strings.Builder
	if !h.opts.DisableTimestamp {
		b.WriteString("time=")
		b.WriteString(time.Now().Format(time.RFC3339))
		b.WriteByte(' ')
	}

	lvl := LevelString(level)
	if h.opts.Color {
		lvl = ColorizeLevel(lvl)
	}
	b.WriteString("level=")
	b.WriteString(lvl)
	b.WriteString(" msg=")
	b.WriteString(strconv.Quote(msg))

	for _, a := range attrs {
		b.WriteByte(' ')
		b.WriteString(a.Key)
		b.WriteByte('=')
		b.WriteString(h.logfmtValue(a))
	}
	b.WriteByte('\n')
	return []byte(b.String())
}

func (h *Handler) logfmtValue(a slog.Attr) string {
	if h.sensitive(a.Key) {
		return strconv.Quote(Redacted)
	}

	v := a.Value.Resolve()
	switch v.Kind() {
	case slog.KindString:
		return strconv.Quote(h.truncate(v.String()))
	case slog.KindInt64:
		return strconv.FormatInt(v.Int64(), 10)
	case slog.KindUint64:
		return strconv.FormatUint(v.Uint64(), 10)
	case slog.KindFloat64:
		return strconv.FormatFloat(v.Float64(), 'f', -1, 64)
	case slog.KindBool:
		return strconv.FormatBool(v.Bool())
	case slog.KindDuration:
		return strconv.FormatInt(v.Duration().Milliseconds(), 10)
	case slog.KindTime:
		return strconv.Quote(v.Time().Format(time.RFC3339))
	default:
		return strconv.Quote(h.truncate(fmt.Sprint(v.Any())))
	}
}

func (h *Handler) encodeJSON(level slog.Level, msg string, attrs []slog.Attr) []byte {
	var b strings.Builder
	b.WriteByte('{')
	if !h.opts.DisableTimestamp {
		b.WriteString(`"time":`)
		b.WriteString(strconv.Quote(time.Now().Format(time.RFC3339)))
		b.WriteByte(',')
	}
	b.WriteString(`"level":`)
	b.WriteString(strconv.Quote(LevelString(level)))
	b.WriteString(`,"msg":`)
	b.Write(jsonValue(msg))

	for _, a := range attrs {
		b.WriteByte(',')
		b.Write(jsonValue(a.Key))
		b.WriteByte(':')
		b.Write(h.jsonAttr(a))
	}
	b.WriteString("}\n")
	return []byte(b.String())
}

func (h *Handler) jsonAttr(a slog.Attr) []byte {
	if h.sensitive(a.Key) {
		return jsonValue(Redacted)
	}

	v := a.Value.Resolve()
	switch v.Kind() {
	case slog.KindString:
		return jsonValue(h.truncate(v.String()))
	case slog.KindDuration:
		return jsonValue(v.Duration().Milliseconds())
	case slog.KindTime:
		return jsonValue(v.Time().Format(time.RFC3339))
	case slog.KindAny:
		if err, ok := v.Any().(error); ok {
			return jsonValue(h.truncate(err.Error()))
		}
	}
	return jsonValue(v.Any())
}

// jsonValue marshals v, falling back to its printed form.
func jsonValue(v any) []byte {
	out, err := json.Marshal(v)
	if err != nil {
		out, _ = json.Marshal(fmt.Sprint(v))
	}
	return out
}

func (h *Handler) sensitive(key string) bool {
	if i := strings.LastIndexByte(key, '.'); i >= 0 {
		key = key[i+1:]
	}
	for _, f := range h.opts.SensitiveFields {
		if strings.EqualFold(key, f) {
			return true
		}
	}
	return false
}

func (h *Handler) truncate(s string) string {
	if h.opts.PayloadMaxBytes > 0 && len(s) > h.opts.PayloadMaxBytes {
		return fmt.Sprintf("%s...(truncated, %d bytes)", s[:h.opts.PayloadMaxBytes], len(s))
	}
	return s
}

// KVToAttrs converts alternating key/value pairs to attributes. Pairs built
// by core/log helpers ([]any of length 2) are expanded in place; a trailing
// key without value is dropped.
func KVToAttrs(kv []any) []slog.Attr {
	flat := make([]any, 0, len(kv))
	for _, item := range kv {
		if pair, ok := item.([]any); ok && len(pair) == 2 {
			flat = append(flat, pair...)
			continue
		}
		flat = append(flat, item)
	}

	attrs := make([]slog.Attr, 0, len(flat)/2)
	for i := 0; i+1 < len(flat); i += 2 {
		attrs = append(attrs, slog.Any(fmt.Sprint(flat[i]), flat[i+1]))
	}
	return attrs
}

// SortAttrs returns attrs sorted by key. Equal keys keep their order.
func SortAttrs(attrs []slog.Attr) []slog.Attr {
	sorted := slices.Clone(attrs)
	slices.SortStableFunc(sorted, func(a, b slog.Attr) int {
		return strings.Compare(a.Key, b.Key)
	})
	return sorted
}

// LevelString returns the upper-case level name.
func LevelString(level slog.Level) string {
	switch level {
	case slog.LevelDebug:
		return "DEBUG"
	case slog.LevelInfo:
		return "INFO"
	case slog.LevelWarn:
		return "WARN"
	case slog.LevelError:
		return "ERROR"
	default:
		return fmt.Sprintf("LEVEL(%d)", level)
	}
}

// ColorizeLevel wraps a level name in ANSI color codes.
func ColorizeLevel(level string) string {
	const (
		reset   = "\033[0m"
		red     = "\033[31m"
		yellow  = "\033[33m"
		cyan    = "\033[36m"
		magenta = "\033[35m"
	)

	switch level {
	case "DEBUG":
		return magenta + level + reset
	case "INFO":
		return cyan + level + reset
	case "WARN":
		return yellow + level + reset
	case "ERROR":
		return red + level + reset
	default:
		return level
	}
}
