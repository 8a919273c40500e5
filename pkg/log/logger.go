// Package log provides structured logging for model fitting, preprocessing
// and resampling, built on rs/zerolog. A small slog-like interface keeps the
// call sites backend-agnostic while the default provider writes zerolog
// events, including the structured warnings raised through pkg/errors.
package log

import (
	"context"
	"io"
	"os"
	"sync"

	"github.com/rs/zerolog"

	tferrors "github.com/EmmanuelUgo/ML-models/pkg/errors"
)

// Logger is a minimal structured logging interface. Fields are alternating
// key/value pairs, as in log/slog.
type Logger interface {
	Debug(msg string, fields ...any)
	Info(msg string, fields ...any)
	Warn(msg string, fields ...any)
	Error(msg string, fields ...any)

	// With returns a child logger with the given fields pre-populated.
	With(fields ...any) Logger

	// Enabled reports whether the logger emits records at the given level.
	Enabled(ctx context.Context, level Level) bool
}

// Level mirrors slog levels so call sites never import zerolog directly.
type Level int

// Levels, value-compatible with slog.Level.
const (
	LevelDebug Level = -4
	LevelInfo  Level = 0
	LevelWarn  Level = 4
	LevelError Level = 8
)

// String returns the string representation of the level.
func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// ParseLevel maps a config string to a Level. Unknown strings fall back to
// info rather than failing startup.
func ParseLevel(s string) Level {
	switch s {
	case "debug":
		return LevelDebug
	case "warn":
		return LevelWarn
	case "error":
		return LevelError
	default:
		return LevelInfo
	}
}

func (l Level) toZerolog() zerolog.Level {
	switch {
	case l <= LevelDebug:
		return zerolog.DebugLevel
	case l <= LevelInfo:
		return zerolog.InfoLevel
	case l <= LevelWarn:
		return zerolog.WarnLevel
	default:
		return zerolog.ErrorLevel
	}
}

var (
	mu            sync.RWMutex
	defaultLogger Logger = newZerologLogger(zerolog.New(os.Stderr).With().Timestamp().Logger())
)

// Setup configures the default logger: output destination, level, and the
// structured warning sink consumed by pkg/errors.Warn.
func Setup(w io.Writer, level Level) {
	if w == nil {
		w = os.Stderr
	}
	zl := zerolog.New(w).Level(level.toZerolog()).With().Timestamp().Logger()

	mu.Lock()
	defaultLogger = newZerologLogger(zl)
	mu.Unlock()

	tferrors.SetZerologWarnFunc(func(warning error) {
		evt := zl.Warn()
		if obj, ok := warning.(zerolog.LogObjectMarshaler); ok {
			evt.EmbedObject(obj)
		}
		evt.Msg(warning.Error())
	})
}

// GetLogger returns the process-wide default logger.
func GetLogger() Logger {
	mu.RLock()
	defer mu.RUnlock()
	return defaultLogger
}

// GetLoggerWithName returns a child of the default logger tagged with a
// component name.
func GetLoggerWithName(name string) Logger {
	return GetLogger().With(ComponentKey, name)
}

type zerologLogger struct {
	zl zerolog.Logger
}

func newZerologLogger(zl zerolog.Logger) *zerologLogger {
	return &zerologLogger{zl: zl}
}

func (l *zerologLogger) Debug(msg string, fields ...any) { l.emit(l.zl.Debug(), msg, fields) }
func (l *zerologLogger) Info(msg string, fields ...any)  { l.emit(l.zl.Info(), msg, fields) }
func (l *zerologLogger) Warn(msg string, fields ...any)  { l.emit(l.zl.Warn(), msg, fields) }

func (l *zerologLogger) Error(msg string, fields ...any) {
	evt := l.zl.Error()
	// An error as the first field gets the dedicated err key plus whatever
	// structured payload it carries.
	if len(fields) > 0 {
		if err, ok := fields[0].(error); ok {
			evt = evt.Err(err)
			if obj, ok := fields[0].(zerolog.LogObjectMarshaler); ok {
				evt = evt.EmbedObject(obj)
			}
			fields = fields[1:]
		}
	}
	l.emit(evt, msg, fields)
}

func (l *zerologLogger) With(fields ...any) Logger {
	ctx := l.zl.With()
	for i := 0; i+1 < len(fields); i += 2 {
		key, ok := fields[i].(string)
		if !ok {
			continue
		}
		ctx = ctx.Interface(key, fields[i+1])
	}
	return newZerologLogger(ctx.Logger())
}

func (l *zerologLogger) Enabled(_ context.Context, level Level) bool {
	return level.toZerolog() >= l.zl.GetLevel()
}

func (l *zerologLogger) emit(evt *zerolog.Event, msg string, fields []any) {
	for i := 0; i+1 < len(fields); i += 2 {
		key, ok := fields[i].(string)
		if !ok {
			continue
		}
		evt = evt.Interface(key, fields[i+1])
	}
	evt.Msg(msg)
}
