// Package logger provides the process-wide structured logger. It writes
// human-readable lines to stdout and JSON events to any extra outputs, such
// as the interactive session's log buffer.
// Init should be called early in the application lifecycle. Before Init the
// package logs to stderr at info level; AddOutput and SetEnabled return
// errors until Init has run.
package logger

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// HostField is the event field naming the emulated host a line is about.
const HostField = "host"

// Options configure the global logger.
type Options struct {
	// Level is a zerolog level name: debug, info, warn, error.
	Level string
	// Console writes human-readable lines to stdout.
	Console bool
	NoColor bool
}

// Logger fans events out to the console and any added outputs.
type Logger struct {
	mu        sync.Mutex
	console   io.Writer
	consoleOn bool
	outputs   []io.Writer
	level     zerolog.Level
	enabled   bool
	zl        zerolog.Logger
}

var (
	globalLogger *Logger
	once         sync.Once
	fallback     = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.TimeOnly}).
			With().Timestamp().Logger()
)

// Init initializes the global logger. Only the first call has effect.
func Init(opts Options) error {
	level := zerolog.InfoLevel
	if opts.Level != "" {
		parsed, err := zerolog.ParseLevel(strings.ToLower(opts.Level))
		if err != nil {
			return fmt.Errorf("invalid log level %q: %w", opts.Level, err)
		}
		level = parsed
	}

	once.Do(func() {
		l := &Logger{level: level, enabled: true}
		if opts.Console {
			l.console = zerolog.ConsoleWriter{
				Out:        os.Stdout,
				NoColor:    opts.NoColor,
				TimeFormat: time.TimeOnly,
			}
			l.consoleOn = true
		}
		l.rebuild()
		globalLogger = l
	})
	return nil
}

// rebuild must be called with mu held or before the logger is published.
func (l *Logger) rebuild() {
	if !l.enabled {
		l.zl = zerolog.Nop()
		return
	}

	writers := make([]io.Writer, 0, len(l.outputs)+1)
	if l.console != nil && l.consoleOn {
		writers = append(writers, l.console)
	}
	writers = append(writers, l.outputs...)
	if len(writers) == 0 {
		l.zl = zerolog.Nop()
		return
	}

	l.zl = zerolog.New(zerolog.MultiLevelWriter(writers...)).
		Level(l.level).
		With().
		Timestamp().
		Logger()
}

// AddOutput adds an additional output that receives JSON events.
func AddOutput(w io.Writer) error {
	if globalLogger == nil {
		return errors.New("logger not initialized: call logger.Init() first")
	}
	globalLogger.mu.Lock()
	defer globalLogger.mu.Unlock()
	globalLogger.outputs = append(globalLogger.outputs, w)
	globalLogger.rebuild()
	return nil
}

// RemoveOutput removes an output added with AddOutput.
func RemoveOutput(w io.Writer) error {
	if globalLogger == nil {
		return errors.New("logger not initialized: call logger.Init() first")
	}
	globalLogger.mu.Lock()
	defer globalLogger.mu.Unlock()

	kept := globalLogger.outputs[:0]
	for _, output := range globalLogger.outputs {
		if output != w {
			kept = append(kept, output)
		}
	}
	globalLogger.outputs = kept
	globalLogger.rebuild()
	return nil
}

// SetConsole turns stdout output off or back on. The interactive session
// disables it while it owns the terminal.
func SetConsole(on bool) error {
	if globalLogger == nil {
		return errors.New("logger not initialized: call logger.Init() first")
	}
	globalLogger.mu.Lock()
	defer globalLogger.mu.Unlock()
	globalLogger.consoleOn = on
	globalLogger.rebuild()
	return nil
}

// SetEnabled enables or disables logging.
func SetEnabled(enabled bool) error {
	if globalLogger == nil {
		return errors.New("logger not initialized: call logger.Init() first")
	}
	globalLogger.mu.Lock()
	defer globalLogger.mu.Unlock()
	globalLogger.enabled = enabled
	globalLogger.rebuild()
	return nil
}

// L returns the current logger.
func L() zerolog.Logger {
	if globalLogger == nil {
		return fallback
	}
	globalLogger.mu.Lock()
	defer globalLogger.mu.Unlock()
	return globalLogger.zl
}

// Host returns a logger tagged with an emulated host name.
func Host(name string) zerolog.Logger {
	return L().With().Str(HostField, name).Logger()
}

// Printf logs a formatted message at info level.
func Printf(format string, v ...interface{}) {
	l := L()
	l.Info().Msg(strings.TrimSuffix(fmt.Sprintf(format, v...), "\n"))
}

// Debugf logs a debug-level formatted message
func Debugf(format string, v ...interface{}) {
	l := L()
	l.Debug().Msgf(format, v...)
}

// Infof logs an info-level formatted message
func Infof(format string, v ...interface{}) {
	l := L()
	l.Info().Msgf(format, v...)
}

// Info logs an info-level message
func Info(v ...interface{}) {
	l := L()
	l.Info().Msg(fmt.Sprint(v...))
}

// Warnf logs a warn-level formatted message
func Warnf(format string, v ...interface{}) {
	l := L()
	l.Warn().Msgf(format, v...)
}

// Errorf logs an error-level formatted message
func Errorf(format string, v ...interface{}) {
	l := L()
	l.Error().Msgf(format, v...)
}

// Error logs an error-level message
func Error(v ...interface{}) {
	l := L()
	l.Error().Msg(fmt.Sprint(v...))
}

// GetGlobalLogger returns the global logger instance (for testing/debugging)
func GetGlobalLogger() *Logger {
	return globalLogger
}
