package logger

import (
	"fmt"
)

// RunLogger prefixes every message with the identifier of a stream run
type RunLogger struct {
	base  Logger
	runID string
}

// NewRunLogger wraps base so that each line starts with "run <runID>: "
func NewRunLogger(base Logger, runID string) Logger {
	return &RunLogger{base: base, runID: runID}
}

func (l *RunLogger) prefix(message string) string {
	if l.runID == "" {
		return fmt.Sprintf("stream: %s", message)
	}
	return fmt.Sprintf("run %s: %s", l.runID, message)
}

// Log implements the logger.Logger interface
func (l *RunLogger) Log(level LogLevel, message string, args ...interface{}) {
	if len(args) != 0 {
		message = fmt.Sprintf(message, args...)
	}
	l.base.Log(level, l.prefix(message))
}

// Error logs an error message
func (l *RunLogger) Error(format string, args ...interface{}) {
	l.Log(LevelError, format, args...)
}

// Warn logs a warning message
func (l *RunLogger) Warn(format string, args ...interface{}) {
	l.Log(LevelWarn, format, args...)
}

// Info logs an informational message
func (l *RunLogger) Info(format string, args ...interface{}) {
	l.Log(LevelInfo, format, args...)
}

// Debug logs a debug message
func (l *RunLogger) Debug(format string, args ...interface{}) {
	l.Log(LevelDebug, format, args...)
}

// Trace logs a trace message
func (l *RunLogger) Trace(format string, args ...interface{}) {
	l.Log(LevelTrace, format, args...)
}

func (l *RunLogger) GetLevel() LogLevel {
	return l.base.GetLevel()
}

func (l *RunLogger) SetLevel(level LogLevel) {
	l.base.SetLevel(level)
}

// GetLastMessage returns the last message stored by the wrapped logger, prefix included
func (l *RunLogger) GetLastMessage() *LogMessage {
	return l.base.GetLastMessage()
}

func (l *RunLogger) Clone() Logger {
	return NewRunLogger(l.base.Clone(), l.runID)
}
