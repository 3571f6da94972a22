package logger

import (
	"fmt"
	"io"
	"os"
	"sync"
	"sync/atomic"
	"time"
)

// LogLevel represents the severity of a log message
type LogLevel int32

const (
	// LevelError represents error level messages
	LevelError LogLevel = 0
	// LevelWarn represents warning level messages
	LevelWarn LogLevel = 1
	// LevelInfo represents informational messages
	LevelInfo LogLevel = 2
	// LevelDebug represents debug messages
	LevelDebug LogLevel = 3
	// LevelTrace represents trace messages with high detail
	LevelTrace LogLevel = 4
)

// String converts a LogLevel to a string representation
func (l LogLevel) String() string {
	switch l {
	case LevelError:
		return "ERR"
	case LevelWarn:
		return "WRN"
	case LevelInfo:
		return "INF"
	case LevelDebug:
		return "DBG"
	case LevelTrace:
		return "TRA"
	default:
		return "???"
	}
}

const timestampLayout = "2006-01-02 15:04:05.000000"

const (
	colorReset = "\033[0m"
	colorError = "\033[31m"
	colorWarn  = "\033[33m"
	colorInfo  = "\033[37m"
	colorDebug = "\033[34m"
	colorTrace = "\033[35m"
)

// PlaneLogger writes timestamped, optionally colored lines to a single writer
type PlaneLogger struct {
	level        atomic.Int32
	useColors    bool
	storeLastMsg bool
	lastMsg      atomic.Pointer[LogMessage]

	mu  sync.Mutex
	out io.Writer
}

// LogMessage stores information about a log message
type LogMessage struct {
	Level   LogLevel
	Message string
	Time    time.Time
}

// NewPlaneLogger creates a stdout logger; colors are enabled only when stdout is a terminal
func NewPlaneLogger(level LogLevel, storeLastMessage bool) Logger {
	return newPlaneLogger(level, storeLastMessage, os.Stdout, isTerminal(os.Stdout))
}

// NewPlaneLoggerWithWriter creates a colorless logger writing to w
func NewPlaneLoggerWithWriter(level LogLevel, storeLastMessage bool, w io.Writer) Logger {
	return newPlaneLogger(level, storeLastMessage, w, false)
}

func newPlaneLogger(level LogLevel, storeLastMessage bool, w io.Writer, useColors bool) *PlaneLogger {
	var l = &PlaneLogger{
		useColors:    useColors,
		storeLastMsg: storeLastMessage,
		out:          w,
	}
	l.level.Store(int32(level))

	return l
}

func isTerminal(f *os.File) bool {
	fileInfo, err := f.Stat()
	if err != nil {
		return false
	}

	return (fileInfo.Mode() & os.ModeCharDevice) != 0
}

// GetLevel returns the current log level
func (l *PlaneLogger) GetLevel() LogLevel {
	return LogLevel(l.level.Load())
}

// SetLevel sets the log level
func (l *PlaneLogger) SetLevel(level LogLevel) {
	l.level.Store(int32(level))
}

func (l *PlaneLogger) levelToColor(level LogLevel) string {
	if !l.useColors {
		return ""
	}

	switch level {
	case LevelError:
		return colorError
	case LevelWarn:
		return colorWarn
	case LevelInfo:
		return colorInfo
	case LevelDebug:
		return colorDebug
	case LevelTrace:
		return colorTrace
	default:
		return ""
	}
}

func (l *PlaneLogger) print(level LogLevel, message string) {
	if l.GetLevel() < level {
		return
	}

	var now = time.Now()
	var color = l.levelToColor(level)
	var resetColor string
	if color != "" {
		resetColor = colorReset
	}

	l.mu.Lock()
	fmt.Fprintf(l.out, "%s%s  %s: %s%s\n", color, now.Format(timestampLayout), level.String(), message, resetColor)
	l.mu.Unlock()

	if l.storeLastMsg {
		l.lastMsg.Store(&LogMessage{
			Level:   level,
			Message: message,
			Time:    now,
		})
	}
}

// Log implements the logger.Logger interface
func (l *PlaneLogger) Log(level LogLevel, message string, args ...interface{}) {
	if len(args) != 0 {
		message = fmt.Sprintf(message, args...)
	}
	l.print(level, message)
}

// Error logs an error message
func (l *PlaneLogger) Error(format string, args ...interface{}) {
	l.Log(LevelError, format, args...)
}

// Warn logs a warning message
func (l *PlaneLogger) Warn(format string, args ...interface{}) {
	l.Log(LevelWarn, format, args...)
}

// Info logs an informational message
func (l *PlaneLogger) Info(format string, args ...interface{}) {
	l.Log(LevelInfo, format, args...)
}

// Debug logs a debug message
func (l *PlaneLogger) Debug(format string, args ...interface{}) {
	l.Log(LevelDebug, format, args...)
}

// Trace logs a trace message
func (l *PlaneLogger) Trace(format string, args ...interface{}) {
	l.Log(LevelTrace, format, args...)
}

// GetLastMessage returns the last logged message if storage is enabled
func (l *PlaneLogger) GetLastMessage() *LogMessage {
	if !l.storeLastMsg {
		return nil
	}

	return l.lastMsg.Load()
}

// Clone returns a logger with the same level and destination but a fresh last-message slot
func (l *PlaneLogger) Clone() Logger {
	return newPlaneLogger(l.GetLevel(), l.storeLastMsg, l.out, l.useColors)
}
