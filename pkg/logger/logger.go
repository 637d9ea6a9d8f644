// Package logger wraps zerolog with request-scoped fields. Middleware hangs
// an enriched entry off the context and every log call downstream picks it
// up, so handlers never thread logger instances around.
package logger

import (
	"context"
	"io"
	"os"
	"runtime/debug"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/omarbakri/familysouq-backend/pkg/env"
)

// Options controls the root logger built by New.
type Options struct {
	ServiceName string
	Level       zerolog.Level
	WarnStack   bool
	Output      io.Writer
}

// Logger is the service-wide structured logger. The zero value is not
// usable; construct one with New.
type Logger struct {
	base      *zerolog.Logger
	warnStack bool
}

type entryKey struct{}

// New builds the root logger. Output defaults to stdout, level to info.
// Setting LOG_FORMAT=console switches to the human-readable writer for
// local development; production stays on JSON lines.
func New(opts Options) *Logger {
	out := opts.Output
	if out == nil {
		out = os.Stdout
	}
	if env.Get("LOG_FORMAT", "json") == "console" {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: "15:04:05"}
	}

	level := opts.Level
	if level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}

	zerolog.TimeFieldFormat = time.RFC3339Nano

	root := zerolog.New(out).
		With().
		Timestamp().
		Str("service", opts.ServiceName).
		Logger().
		Level(level)

	return &Logger{base: &root, warnStack: opts.WarnStack}
}

// ParseLevel maps a config string onto a zerolog level. Empty or
// unrecognized values fall back to info rather than failing startup.
func ParseLevel(value string) zerolog.Level {
	trimmed := strings.ToLower(strings.TrimSpace(value))
	if trimmed == "" {
		return zerolog.InfoLevel
	}
	lvl, err := zerolog.ParseLevel(trimmed)
	if err != nil {
		return zerolog.InfoLevel
	}
	return lvl
}

// entry returns the context-scoped logger when middleware attached one,
// otherwise the root.
func (l *Logger) entry(ctx context.Context) *zerolog.Logger {
	if ctx == nil {
		return l.base
	}
	if scoped, ok := ctx.Value(entryKey{}).(*zerolog.Logger); ok {
		return scoped
	}
	return l.base
}

func (l *Logger) stash(ctx context.Context, scoped zerolog.Logger) context.Context {
	return context.WithValue(ctx, entryKey{}, &scoped)
}

// WithField returns a context whose log entries carry key=value.
func (l *Logger) WithField(ctx context.Context, key string, value any) context.Context {
	return l.stash(ctx, l.entry(ctx).With().Interface(key, value).Logger())
}

// WithFields attaches several fields at once.
func (l *Logger) WithFields(ctx context.Context, fields map[string]any) context.Context {
	builder := l.entry(ctx).With()
	for k, v := range fields {
		builder = builder.Interface(k, v)
	}
	return l.stash(ctx, builder.Logger())
}

func (l *Logger) WithRequestID(ctx context.Context, requestID string) context.Context {
	return l.WithField(ctx, "request_id", requestID)
}

func (l *Logger) WithUserID(ctx context.Context, userID string) context.Context {
	return l.WithField(ctx, "user_id", userID)
}

func (l *Logger) WithFamilyID(ctx context.Context, familyID string) context.Context {
	return l.WithField(ctx, "family_id", familyID)
}

func (l *Logger) WithActorRole(ctx context.Context, role string) context.Context {
	return l.WithField(ctx, "actor_role", role)
}

func (l *Logger) Info(ctx context.Context, msg string) {
	l.entry(ctx).Info().Msg(msg)
}

// Warn logs at warn level, including a stack trace when the logger was
// built with WarnStack.
func (l *Logger) Warn(ctx context.Context, msg string) {
	event := l.entry(ctx).Warn()
	if l.warnStack {
		event = event.Str("stack", stackTrace())
	}
	event.Msg(msg)
}

// Error logs at error level. Errors always carry a stack trace so a single
// log line is enough to locate the failure.
func (l *Logger) Error(ctx context.Context, msg string, err error) {
	event := l.entry(ctx).Error()
	if err != nil {
		event = event.Err(err)
	}
	event.Str("stack", stackTrace()).Msg(msg)
}

func stackTrace() string {
	return strings.TrimSpace(string(debug.Stack()))
}
