// Package logger provides structured logging for the engine.
//
// It wraps log/slog behind a small interface so components receive a named
// logger without caring about handler wiring, and so tests can swap in a
// silent one.
package logger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"runtime"
	"strings"
	"sync"
	"time"
)

// Logger is the logging interface handed to components.
type Logger interface {
	Debug(ctx context.Context, msg string, fields ...Field)
	Info(ctx context.Context, msg string, fields ...Field)
	Warn(ctx context.Context, msg string, fields ...Field)
	Error(ctx context.Context, msg string, fields ...Field)
	Fatal(ctx context.Context, msg string, fields ...Field)

	// With returns a logger attaching the fields to every record.
	With(fields ...Field) Logger
	// Named returns a logger tagged with a component name. Nested calls
	// join with dots.
	Named(name string) Logger
}

// Field is a key-value pair for structured records.
type Field struct {
	Key   string
	Value interface{}
}

// Field constructors.
func String(key, val string) Field                  { return Field{Key: key, Value: val} }
func Int(key string, val int) Field                 { return Field{Key: key, Value: val} }
func Int64(key string, val int64) Field             { return Field{Key: key, Value: val} }
func Uint64(key string, val uint64) Field           { return Field{Key: key, Value: val} }
func Float64(key string, val float64) Field         { return Field{Key: key, Value: val} }
func Bool(key string, val bool) Field               { return Field{Key: key, Value: val} }
func Duration(key string, val time.Duration) Field  { return Field{Key: key, Value: val} }
func Any(key string, val interface{}) Field         { return Field{Key: key, Value: val} }

// Error builds the conventional "error" field.
func Error(err error) Field {
	if err == nil {
		return Field{Key: "error", Value: nil}
	}
	return Field{Key: "error", Value: err.Error()}
}

// Options configures Init.
type Options struct {
	// Level is the minimum level: debug, info, warn or error.
	Level string
	// Format selects the handler: "json" (default) or "text".
	Format string
	// Output defaults to stderr.
	Output io.Writer
	// AddSource stamps the calling file:line onto every record.
	AddSource bool
}

var (
	mu       sync.RWMutex
	global   Logger
	levelVar = &slog.LevelVar{}
)

// Init builds the global logger. Call once at startup; components created
// before Init log through a default stderr JSON handler.
func Init(opts Options) {
	mu.Lock()
	defer mu.Unlock()
	global = build(opts)
}

// Get returns the global logger, building a default one on first use so
// early callers and tests never trip over an uninitialized global.
func Get() Logger {
	mu.RLock()
	l := global
	mu.RUnlock()
	if l != nil {
		return l
	}

	mu.Lock()
	defer mu.Unlock()
	if global == nil {
		global = build(Options{})
	}
	return global
}

// Named is shorthand for Get().Named(name).
func Named(name string) Logger {
	return Get().Named(name)
}

// Sync flushes buffered records. The slog handlers used here do not
// buffer, so this exists for symmetric shutdown wiring only.
func Sync() error {
	return nil
}

// SetLevel adjusts the global minimum level at runtime.
func SetLevel(l slog.Level) {
	levelVar.Set(l)
}

// SetLevelString parses and applies a level name. Accepts debug, info,
// warn/warning and error, case-insensitive.
func SetLevelString(level string) error {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		SetLevel(slog.LevelDebug)
	case "", "info":
		SetLevel(slog.LevelInfo)
	case "warn", "warning":
		SetLevel(slog.LevelWarn)
	case "error":
		SetLevel(slog.LevelError)
	default:
		return fmt.Errorf("unknown log level: %s", level)
	}
	return nil
}

func build(opts Options) Logger {
	if opts.Output == nil {
		opts.Output = os.Stderr
	}
	levelVar.Set(parseLevel(opts.Level))

	hopts := &slog.HandlerOptions{Level: levelVar}
	var h slog.Handler
	if strings.EqualFold(opts.Format, "text") {
		h = slog.NewTextHandler(opts.Output, hopts)
	} else {
		h = slog.NewJSONHandler(opts.Output, hopts)
	}
	if opts.AddSource {
		h = sourceHandler{h}
	}
	return &slogLogger{handler: h}
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
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

// slogLogger adapts log/slog to the Logger interface.
type slogLogger struct {
	handler slog.Handler
	name    string
}

func (l *slogLogger) log(ctx context.Context, lvl slog.Level, msg string, fields []Field) {
	if ctx == nil {
		ctx = context.Background()
	}
	if !l.handler.Enabled(ctx, lvl) {
		return
	}
	r := slog.NewRecord(time.Now(), lvl, msg, 0)
	if l.name != "" {
		r.AddAttrs(slog.String("component", l.name))
	}
	for _, f := range fields {
		r.AddAttrs(slog.Any(f.Key, f.Value))
	}
	_ = l.handler.Handle(ctx, r)
}

func (l *slogLogger) Debug(ctx context.Context, msg string, fields ...Field) {
	l.log(ctx, slog.LevelDebug, msg, fields)
}

func (l *slogLogger) Info(ctx context.Context, msg string, fields ...Field) {
	l.log(ctx, slog.LevelInfo, msg, fields)
}

func (l *slogLogger) Warn(ctx context.Context, msg string, fields ...Field) {
	l.log(ctx, slog.LevelWarn, msg, fields)
}

func (l *slogLogger) Error(ctx context.Context, msg string, fields ...Field) {
	l.log(ctx, slog.LevelError, msg, fields)
}

func (l *slogLogger) Fatal(ctx context.Context, msg string, fields ...Field) {
	l.log(ctx, slog.LevelError, msg, fields)
	os.Exit(1)
}

func (l *slogLogger) With(fields ...Field) Logger {
	attrs := make([]slog.Attr, 0, len(fields))
	for _, f := range fields {
		attrs = append(attrs, slog.Any(f.Key, f.Value))
	}
	return &slogLogger{handler: l.handler.WithAttrs(attrs), name: l.name}
}

func (l *slogLogger) Named(name string) Logger {
	if name == "" {
		return l
	}
	full := name
	if l.name != "" {
		full = l.name + "." + name
	}
	return &slogLogger{handler: l.handler, name: full}
}

// sourceHandler stamps the user callsite onto each record. The slog
// AddSource option would report this package instead, so the frame is
// walked manually.
type sourceHandler struct {
	slog.Handler
}

func (h sourceHandler) Handle(ctx context.Context, r slog.Record) error {
	// Frames: Handle -> slogLogger.log -> level method -> caller.
	if _, file, line, ok := runtime.Caller(3); ok {
		r.AddAttrs(slog.String("source", fmt.Sprintf("%s:%d", trimPath(file), line)))
	}
	return h.Handler.Handle(ctx, r)
}

func (h sourceHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return sourceHandler{h.Handler.WithAttrs(attrs)}
}

func (h sourceHandler) WithGroup(name string) slog.Handler {
	return sourceHandler{h.Handler.WithGroup(name)}
}

// trimPath keeps the last two path elements, enough to locate a file
// without leaking the build machine's directory layout.
func trimPath(file string) string {
	if i := strings.LastIndex(file, "/"); i >= 0 {
		if j := strings.LastIndex(file[:i], "/"); j >= 0 {
			return file[j+1:]
		}
	}
	return file
}

// Nop returns a logger that drops everything. Handy in tests.
func Nop() Logger {
	return nopLogger{}
}

type nopLogger struct{}

func (nopLogger) Debug(context.Context, string, ...Field) {}
func (nopLogger) Info(context.Context, string, ...Field)  {}
func (nopLogger) Warn(context.Context, string, ...Field)  {}
func (nopLogger) Error(context.Context, string, ...Field) {}
func (nopLogger) Fatal(context.Context, string, ...Field) {}
func (n nopLogger) With(...Field) Logger                  { return n }
func (n nopLogger) Named(string) Logger                   { return n }
