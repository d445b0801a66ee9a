package castsdk

import (
	"fmt"
	"io"
	"runtime"
	"strconv"
	"sync"

	"github.com/rs/zerolog"
)

// LogLevel is the severity threshold understood by the SDK logger.
// Verbose lets every message through; None suppresses all of them.
type LogLevel int

const (
	LogLevelVerbose LogLevel = iota + 1
	LogLevelDebug
	LogLevelInfo
	LogLevelWarning
	LogLevelError
	LogLevelNone
)

func (l LogLevel) String() string {
	switch l {
	case LogLevelVerbose:
		return "VERBOSE"
	case LogLevelDebug:
		return "DEBUG"
	case LogLevelInfo:
		return "INFO"
	case LogLevelWarning:
		return "WARNING"
	case LogLevelError:
		return "ERROR"
	case LogLevelNone:
		return "NONE"
	default:
		return "UNKNOWN"
	}
}

func (l LogLevel) zerolog() zerolog.Level {
	switch l {
	case LogLevelVerbose:
		return zerolog.TraceLevel
	case LogLevelDebug:
		return zerolog.DebugLevel
	case LogLevelInfo:
		return zerolog.InfoLevel
	case LogLevelWarning:
		return zerolog.WarnLevel
	case LogLevelError:
		return zerolog.ErrorLevel
	default:
		return zerolog.Disabled
	}
}

// LoggerDelegate observes every SDK log message that clears the minimum
// severity filter. Origin is the function that produced the message and
// location its file:line.
type LoggerDelegate interface {
	LogMessage(message string, level LogLevel, origin string, location string)
}

// Logger is the SDK-wide diagnostic sink. Messages below the minimum level
// are dropped before reaching the console writer or the delegate.
type Logger struct {
	LogOutput   io.Writer
	Logger      zerolog.Logger
	initLogOnce sync.Once

	mu       sync.RWMutex
	console  bool
	min      LogLevel
	delegate LoggerDelegate
}

// NewLogger returns a logger with the filter set to Error, matching the
// SDK default of staying quiet until a host opts into diagnostics.
func NewLogger(output io.Writer) *Logger {
	return &Logger{
		LogOutput: output,
		min:       LogLevelError,
	}
}

// Log returns the zerolog logger, initializing it lazily if LogOutput is set.
func (l *Logger) Log() *zerolog.Logger {
	if l.LogOutput != nil {
		l.initLogOnce.Do(func() {
			l.Logger = zerolog.New(l.LogOutput).With().Timestamp().Logger()
		})
	}
	return &l.Logger
}

// SetConsoleLoggingEnabled toggles the console writer path. The delegate
// path is unaffected.
func (l *Logger) SetConsoleLoggingEnabled(enabled bool) {
	l.mu.Lock()
	l.console = enabled
	l.mu.Unlock()
}

// SetDelegate installs the log observer. A nil delegate detaches it.
func (l *Logger) SetDelegate(d LoggerDelegate) {
	l.mu.Lock()
	l.delegate = d
	l.mu.Unlock()
}

// SetMinimumLevel installs the process-wide severity filter.
func (l *Logger) SetMinimumLevel(level LogLevel) {
	l.mu.Lock()
	l.min = level
	l.mu.Unlock()
}

// MinimumLevel returns the current severity filter.
func (l *Logger) MinimumLevel() LogLevel {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.min
}

// Logf filters, formats and fans out one log message. Each message is
// forwarded synchronously and independently; there is no buffering.
func (l *Logger) Logf(level LogLevel, origin string, format string, args ...any) {
	l.mu.RLock()
	min := l.min
	console := l.console
	delegate := l.delegate
	l.mu.RUnlock()

	if level < min || level == LogLevelNone {
		return
	}

	msg := fmt.Sprintf(format, args...)
	location := callerLocation(2)

	if console {
		l.Log().WithLevel(level.zerolog()).Str("Origin", origin).Msg(msg)
	}

	if delegate != nil {
		delegate.LogMessage(msg, level, origin, location)
	}
}

func callerLocation(skip int) string {
	_, file, line, ok := runtime.Caller(skip)
	if !ok {
		return "unknown"
	}
	short := file
	for i := len(file) - 1; i > 0; i-- {
		if file[i] == '/' {
			short = file[i+1:]
			break
		}
	}
	return short + ":" + strconv.Itoa(line)
}
