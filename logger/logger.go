// Package logger provides the leveled console logger used across striiimer.
package logger

// Logger is the logging contract shared by the stream driver, the sink and the CLI.
type Logger interface {
	Log(level LogLevel, message string, args ...interface{})
	Error(format string, args ...interface{})
	Warn(format string, args ...interface{})
	Info(format string, args ...interface{})
	Debug(format string, args ...interface{})
	Trace(format string, args ...interface{})
	GetLevel() LogLevel
	SetLevel(level LogLevel)
	GetLastMessage() *LogMessage
	Clone() Logger
}

// LevelFromVerbosity maps the number of -v flags (or quiet mode) to a log level
func LevelFromVerbosity(verbose int, quiet bool) LogLevel {
	if quiet {
		return LevelError
	}

	var level = LevelWarn + LogLevel(verbose)
	if level > LevelTrace {
		level = LevelTrace
	}

	return level
}
