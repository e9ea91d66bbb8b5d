package log

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	ierrors "github.com/YuminosukeSato/invopt/pkg/errors"
)

var (
	rootMu    sync.RWMutex
	rootLevel = LevelInfo
	rootOut   io.Writer = os.Stderr
	root                = newZerolog(rootOut, rootLevel)
)

func newZerolog(w io.Writer, level Level) zerolog.Logger {
	return zerolog.New(w).Level(toZerologLevel(level)).With().Timestamp().Logger()
}

// Setup configures the process-wide logger and routes library warnings
// (errors.Warn) through it.
func Setup(level string, w io.Writer) error {
	lvl, err := ParseLevel(level)
	if err != nil {
		return err
	}
	if w == nil {
		w = os.Stderr
	}

	rootMu.Lock()
	rootLevel = lvl
	rootOut = w
	root = newZerolog(w, lvl)
	rootMu.Unlock()

	ierrors.SetZerologWarnFunc(func(warning error) {
		rootMu.RLock()
		zl := root
		rootMu.RUnlock()
		ev := zl.Warn()
		if m, ok := warning.(zerolog.LogObjectMarshaler); ok {
			ev = ev.EmbedObject(m)
		}
		ev.Msg(warning.Error())
	})
	return nil
}

// ParseLevel converts "debug", "info", "warn" or "error" into a Level.
func ParseLevel(level string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return LevelDebug, nil
	case "info", "":
		return LevelInfo, nil
	case "warn", "warning":
		return LevelWarn, nil
	case "error":
		return LevelError, nil
	default:
		return LevelInfo, ierrors.NewValidationError("log_level", "must be one of debug, info, warn, error", level)
	}
}

// SetLevel sets the minimum level of the process-wide logger.
func SetLevel(level Level) {
	rootMu.Lock()
	defer rootMu.Unlock()
	rootLevel = level
	root = newZerolog(rootOut, level)
}

// SetOutput redirects the process-wide logger.
func SetOutput(w io.Writer) {
	if w == nil {
		w = os.Stderr
	}
	rootMu.Lock()
	defer rootMu.Unlock()
	rootOut = w
	root = newZerolog(w, rootLevel)
}

// GetLogger returns a Logger backed by the process-wide zerolog logger.
func GetLogger() Logger {
	rootMu.RLock()
	defer rootMu.RUnlock()
	return &zerologLogger{zl: root}
}

// GetLoggerWithName returns a Logger tagged with a component name.
func GetLoggerWithName(name string) Logger {
	rootMu.RLock()
	defer rootMu.RUnlock()
	return &zerologLogger{zl: root.With().Str(ComponentKey, name).Logger()}
}

// NewZerologLogger wraps an existing zerolog logger.
func NewZerologLogger(zl zerolog.Logger) Logger {
	return &zerologLogger{zl: zl}
}

type zerologLogger struct {
	zl zerolog.Logger
}

func (l *zerologLogger) Debug(msg string, fields ...any) { l.emit(l.zl.Debug(), msg, fields) }
func (l *zerologLogger) Info(msg string, fields ...any)  { l.emit(l.zl.Info(), msg, fields) }
func (l *zerologLogger) Warn(msg string, fields ...any)  { l.emit(l.zl.Warn(), msg, fields) }
func (l *zerologLogger) Error(msg string, fields ...any) { l.emit(l.zl.Error(), msg, fields) }

func (l *zerologLogger) With(fields ...any) Logger {
	c := l.zl.With()
	for i := 0; i+1 < len(fields); i += 2 {
		key := fmt.Sprint(fields[i])
		if err, ok := fields[i+1].(error); ok {
			c = c.Str(key, err.Error())
			continue
		}
		c = c.Interface(key, fields[i+1])
	}
	return &zerologLogger{zl: c.Logger()}
}

func (l *zerologLogger) Enabled(_ context.Context, level Level) bool {
	zlvl := toZerologLevel(level)
	return zlvl >= l.zl.GetLevel() && zlvl >= zerolog.GlobalLevel()
}

func (l *zerologLogger) emit(e *zerolog.Event, msg string, fields []any) {
	if e == nil {
		return
	}
	if len(fields)%2 == 1 {
		if err, ok := fields[0].(error); ok {
			e = withError(e, ErrorKey, err)
			fields = fields[1:]
		}
	}
	for i := 0; i+1 < len(fields); i += 2 {
		key := fmt.Sprint(fields[i])
		if err, ok := fields[i+1].(error); ok {
			e = withError(e, key, err)
			continue
		}
		e = e.Interface(key, fields[i+1])
	}
	e.Msg(msg)
}

func toZerologLevel(level Level) zerolog.Level {
	switch {
	case level <= LevelDebug:
		return zerolog.DebugLevel
	case level <= LevelInfo:
		return zerolog.InfoLevel
	case level <= LevelWarn:
		return zerolog.WarnLevel
	default:
		return zerolog.ErrorLevel
	}
}
