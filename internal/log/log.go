package log

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/term"
)

type Level string

const (
	LevelDebug Level = "DEBUG"
	LevelInfo  Level = "INFO"
	LevelWarn  Level = "WARN"
	LevelError Level = "ERROR"
)

var (
	mu     sync.RWMutex
	logger = newConsole(os.Stderr).Level(zerolog.InfoLevel)
)

func newConsole(w io.Writer) zerolog.Logger {
	return zerolog.New(zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}).
		With().
		Timestamp().
		Logger()
}

// ParseLevel maps a case-insensitive level name ("debug", "info", "warn",
// "error") to a Level.
func ParseLevel(s string) (Level, error) {
	lvl, err := zerolog.ParseLevel(s)
	if err != nil {
		return "", err
	}
	switch lvl {
	case zerolog.DebugLevel, zerolog.TraceLevel:
		return LevelDebug, nil
	case zerolog.InfoLevel, zerolog.NoLevel:
		return LevelInfo, nil
	case zerolog.WarnLevel:
		return LevelWarn, nil
	default:
		return LevelError, nil
	}
}

func (l Level) zerolog() zerolog.Level {
	switch l {
	case LevelDebug:
		return zerolog.DebugLevel
	case LevelWarn:
		return zerolog.WarnLevel
	case LevelError:
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

// Setup configures the global logger.
//
// With a file path, logs are written to that file as JSON lines. Without one
// they go to stderr, human-readable when stderr is a terminal and JSON
// otherwise. The returned closer releases the file, if any.
func Setup(level, file string) (func(), error) {
	closer := func() {}

	lvl, err := ParseLevel(level)
	if err != nil {
		return closer, err
	}

	var l zerolog.Logger
	switch {
	case file != "":
		if err := os.MkdirAll(filepath.Dir(file), 0o755); err != nil {
			return closer, fmt.Errorf("create logs dir: %w", err)
		}
		f, err := os.OpenFile(file, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return closer, err
		}
		closer = func() { _ = f.Close() }
		l = zerolog.New(f).With().Timestamp().Logger()
	case term.IsTerminal(int(os.Stderr.Fd())):
		l = newConsole(os.Stderr)
	default:
		l = zerolog.New(os.Stderr).With().Timestamp().Logger()
	}

	mu.Lock()
	logger = l.Level(lvl.zerolog())
	mu.Unlock()

	return closer, nil
}

// SetOutput replaces the global logger with a JSON logger writing to w.
// Intended for tests and for the TUI, which owns the terminal.
func SetOutput(w io.Writer) {
	mu.Lock()
	logger = zerolog.New(w).With().Timestamp().Logger().Level(logger.GetLevel())
	mu.Unlock()
}

func SetLevel(l Level) {
	mu.Lock()
	logger = logger.Level(l.zerolog())
	mu.Unlock()
}

// Logger returns the global logger tagged with a component name.
func Logger(component string) zerolog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return logger.With().Str("component", component).Logger()
}

func Debug(msg string, kv ...any) {
	logWithLevel(zerolog.DebugLevel, nil, msg, kv...)
}

func Info(msg string, kv ...any) {
	logWithLevel(zerolog.InfoLevel, nil, msg, kv...)
}

func Warn(msg string, kv ...any) {
	logWithLevel(zerolog.WarnLevel, nil, msg, kv...)
}

func Error(msg string, err error, kv ...any) {
	logWithLevel(zerolog.ErrorLevel, err, msg, kv...)
}

func logWithLevel(level zerolog.Level, err error, msg string, kv ...any) {
	mu.RLock()
	l := logger
	mu.RUnlock()

	ev := l.WithLevel(level)
	if ev == nil {
		return
	}
	if err != nil {
		ev = ev.Err(err)
	}
	ev.Fields(kvFields(kv)).Msg(msg)
}

// kvFields turns key, value, key, value ... into a field map. Non-string keys
// are skipped; a trailing key without value is ignored.
func kvFields(kv []any) map[string]any {
	fields := make(map[string]any, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		key, ok := kv[i].(string)
		if !ok {
			continue
		}
		fields[key] = kv[i+1]
	}
	return fields
}
