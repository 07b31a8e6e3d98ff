// Package evslog provides the structured logging context used across EVS.
// It wraps log/slog the way entirecli's logging package does: a context
// carries component/agent tags, handlers can be swapped for tests, and a
// level getter lets runtime settings (internal/config) choose the verbosity.
// The level is resolved when Init or SetOutput builds a handler; a getter
// installed afterwards takes effect at the next Init or SetOutput call.
package evslog

import (
	"context"
	"io"
	"log/slog"
	"os"
	"sync"
	"time"
)

// LogLevelEnvVar is the environment variable that overrides the configured
// log level, checked before falling back to settings.
const LogLevelEnvVar = "EVS_LOG_LEVEL"

type ctxKey int

const (
	componentKey ctxKey = iota
	agentKey
)

var (
	mu          sync.Mutex
	logger      *slog.Logger = slog.New(slog.NewTextHandler(os.Stderr, nil))
	levelGetter func() slog.Level
)

// Init configures the package logger. If path is empty, logs go to stderr
// with a text handler; otherwise a JSON handler writes to the given file
// path, appending to any existing file. Returns a cleanup function callers
// must invoke (mirrors entirecli's Init/Close pairing used around hook
// invocations) — here returning an error instead of a bare *os.File lets
// callers decide whether a failed log file open should be fatal.
func Init(path string) (func(), error) {
	mu.Lock()
	defer mu.Unlock()

	if path == "" {
		logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: currentLevel()}))
		return func() {}, nil
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return func() {}, err
	}
	logger = slog.New(slog.NewJSONHandler(f, &slog.HandlerOptions{Level: currentLevel()}))
	return func() { f.Close() }, nil
}

// SetLogLevelGetter installs a function that dynamically resolves the
// current minimum log level, e.g. from loaded settings.
func SetLogLevelGetter(fn func() slog.Level) {
	mu.Lock()
	defer mu.Unlock()
	levelGetter = fn
}

func currentLevel() slog.Level {
	if v := os.Getenv(LogLevelEnvVar); v != "" {
		var lvl slog.Level
		if lvl.UnmarshalText([]byte(v)) == nil {
			return lvl
		}
	}
	if levelGetter != nil {
		return levelGetter()
	}
	return slog.LevelInfo
}

// SetOutput redirects the package logger to an arbitrary writer, for tests.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	logger = slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: currentLevel()}))
}

// WithComponent tags the context with a component name shown on every
// subsequent log line derived from it.
func WithComponent(ctx context.Context, name string) context.Context {
	return context.WithValue(ctx, componentKey, name)
}

// WithAgent tags the context with the agent name (Agent-C / Agent-X) in
// play for this operation.
func WithAgent(ctx context.Context, name string) context.Context {
	return context.WithValue(ctx, agentKey, name)
}

// attrs prepends the context's component/agent tags to a caller's
// alternating key-value args, matching slog.Logger's own convention that
// Log's variadic args may mix slog.Attr values and loose key/value pairs.
func attrs(ctx context.Context, extra ...any) []any {
	out := make([]any, 0, len(extra)+2)
	if c, ok := ctx.Value(componentKey).(string); ok && c != "" {
		out = append(out, slog.String("component", c))
	}
	if a, ok := ctx.Value(agentKey).(string); ok && a != "" {
		out = append(out, slog.String("agent", a))
	}
	out = append(out, extra...)
	return out
}

func log(ctx context.Context, level slog.Level, msg string, extra ...any) {
	mu.Lock()
	l := logger
	mu.Unlock()
	l.Log(ctx, level, msg, attrs(ctx, extra...)...)
}

// Debug logs a debug-level message tagged with the context's component/agent.
// extra is an alternating key/value list, the same convention
// log/slog.Logger.Info accepts.
func Debug(ctx context.Context, msg string, extra ...any) { log(ctx, slog.LevelDebug, msg, extra...) }

// Info logs an info-level message.
func Info(ctx context.Context, msg string, extra ...any) { log(ctx, slog.LevelInfo, msg, extra...) }

// Warn logs a warn-level message.
func Warn(ctx context.Context, msg string, extra ...any) { log(ctx, slog.LevelWarn, msg, extra...) }

// Error logs an error-level message.
func Error(ctx context.Context, msg string, extra ...any) { log(ctx, slog.LevelError, msg, extra...) }

// LogDuration logs msg at level with an added "duration_ms" attribute
// computed from start, matching entirecli's hook-timing log lines.
func LogDuration(ctx context.Context, level slog.Level, msg string, start time.Time, extra ...any) {
	all := append([]any{slog.Int64("duration_ms", time.Since(start).Milliseconds())}, extra...)
	log(ctx, level, msg, all...)
}

// Close is a no-op placeholder retained for call-site symmetry with
// entirecli's `defer logging.Close()`; log file lifetime is now owned by
// the closer returned from Init.
func Close() {}
