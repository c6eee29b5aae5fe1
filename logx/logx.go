// Package logx provides a core/log.Logger backed by a slog handler.
//
// Overview:
//   - Responsibility: logfmt or JSON output with sorted fields for binder and loader logs
//   - Key Types: Logger, Option
//   - Concurrency Model: loggers are safe for concurrent use; children share the writer lock
//   - Error Semantics: write failures are dropped
//   - Performance Notes: records below the level are discarded before encoding
//
// Usage:
//
//	logger := logx.New(logx.WithFormat(logx.FormatJSON), logx.WithLevel(slog.LevelDebug))
//	c := bindx.New(src, bindx.WithLogger(logger))
package logx

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"go.eggybyte.com/bindx/core/log"
	"go.eggybyte.com/bindx/logx/internal"
)

// Format selects the line encoding.
type Format string

const (
	// FormatLogfmt writes key=value lines.
	FormatLogfmt Format = "logfmt"
	// FormatJSON writes one JSON object per line.
	FormatJSON Format = "json"
)

// Options configures a Logger.
type Options struct {
	Format           Format
	Level            slog.Level
	Color            bool
	Writer           io.Writer // default os.Stderr
	PayloadMaxBytes  int
	SensitiveFields  []string
	DisableTimestamp bool
}

// Option configures a Logger.
type Option func(*Options)

// WithFormat sets the output format.
func WithFormat(format Format) Option {
	return func(o *Options) { o.Format = format }
}

// WithLevel sets the minimum level.
func WithLevel(level slog.Level) Option {
	return func(o *Options) { o.Level = level }
}

// WithColor colorizes the level value of logfmt lines.
func WithColor(enabled bool) Option {
	return func(o *Options) { o.Color = enabled }
}

// WithWriter sets the output writer.
func WithWriter(w io.Writer) Option {
	return func(o *Options) { o.Writer = w }
}

// WithPayloadLimit truncates string values longer than maxBytes.
func WithPayloadLimit(maxBytes int) Option {
	return func(o *Options) { o.PayloadMaxBytes = maxBytes }
}

// WithSensitiveFields masks the values of the named keys, matched
// case-insensitively on the last dotted segment.
func WithSensitiveFields(fields ...string) Option {
	return func(o *Options) { o.SensitiveFields = fields }
}

// WithTimestamp toggles the time field. It is off by default.
func WithTimestamp(enabled bool) Option {
	return func(o *Options) { o.DisableTimestamp = !enabled }
}

// ParseLevel maps debug, info, warn and error to slog levels. Unknown names
// fall back to info.
func ParseLevel(name string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Logger implements core/log.Logger.
type Logger struct {
	handler *internal.Handler
	attrs   []slog.Attr
}

var _ log.Logger = (*Logger)(nil)

// New returns a Logger. Defaults: logfmt, info level, stderr, no timestamp.
func New(opts ...Option) *Logger {
	options := Options{
		Format:           FormatLogfmt,
		Level:            slog.LevelInfo,
		Writer:           os.Stderr,
		DisableTimestamp: true,
	}
	for _, opt := range opts {
		opt(&options)
	}
	if options.Writer == nil {
		options.Writer = os.Stderr
	}

	handler := internal.NewHandler(internal.Options{
		JSON:             options.Format == FormatJSON,
		Level:            options.Level,
		Color:            options.Color,
		PayloadMaxBytes:  options.PayloadMaxBytes,
		SensitiveFields:  options.SensitiveFields,
		DisableTimestamp: options.DisableTimestamp,
	}, options.Writer)

	return &Logger{handler: handler}
}

// Slog returns a *slog.Logger writing through the same handler.
func (l *Logger) Slog() *slog.Logger {
	return slog.New(l.handler.WithAttrs(l.attrs))
}

// With returns a child logger carrying kv on every record.
func (l *Logger) With(kv ...any) log.Logger {
	attrs := make([]slog.Attr, 0, len(l.attrs)+len(kv)/2)
	attrs = append(attrs, l.attrs...)
	attrs = append(attrs, internal.KVToAttrs(kv)...)
	return &Logger{handler: l.handler, attrs: attrs}
}

// Debug logs at debug level.
func (l *Logger) Debug(msg string, kv ...any) {
	l.log(slog.LevelDebug, msg, internal.KVToAttrs(kv))
}

// Info logs at info level.
func (l *Logger) Info(msg string, kv ...any) {
	l.log(slog.LevelInfo, msg, internal.KVToAttrs(kv))
}

// Warn logs at warn level.
func (l *Logger) Warn(msg string, kv ...any) {
	l.log(slog.LevelWarn, msg, internal.KVToAttrs(kv))
}

// Error logs at error level with err under the "error" key.
func (l *Logger) Error(err error, msg string, kv ...any) {
	attrs := internal.KVToAttrs(kv)
	if err != nil {
		attrs = append([]slog.Attr{slog.Any("error", err)}, attrs...)
	}
	l.log(slog.LevelError, msg, attrs)
}

func (l *Logger) log(level slog.Level, msg string, attrs []slog.Attr) {
	all := make([]slog.Attr, 0, len(l.attrs)+len(attrs))
	all = append(all, l.attrs...)
	all = append(all, attrs...)
	l.handler.LogRecord(level, msg, all)
}
