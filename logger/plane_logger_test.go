package logger

import (
	"bytes"
	"strings"
	"testing"
	"time"
)

func TestNewPlaneLogger(t *testing.T) {
	tests := []struct {
		name          string
		level         LogLevel
		storeLastMsg  bool
		expectedLevel LogLevel
	}{
		{
			name:          "error level without storage",
			level:         LevelError,
			storeLastMsg:  false,
			expectedLevel: LevelError,
		},
		{
			name:          "debug level with storage",
			level:         LevelDebug,
			storeLastMsg:  true,
			expectedLevel: LevelDebug,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			logger := NewPlaneLogger(tc.level, tc.storeLastMsg).(*PlaneLogger)

			if logger.GetLevel() != tc.expectedLevel {
				t.Errorf("Expected level %v, got %v", tc.expectedLevel, logger.GetLevel())
			}

			if lastMsg := logger.GetLastMessage(); lastMsg != nil {
				t.Errorf("Expected no stored message before logging, got %v", lastMsg)
			}
		})
	}
}

func TestPlaneLogger_GetSetLevel(t *testing.T) {
	logger := NewPlaneLogger(LevelInfo, false).(*PlaneLogger)

	if logger.GetLevel() != LevelInfo {
		t.Errorf("Initial level not set correctly, expected %v, got %v", LevelInfo, logger.GetLevel())
	}

	logger.SetLevel(LevelDebug)
	if logger.GetLevel() != LevelDebug {
		t.Errorf("Level not changed correctly, expected %v, got %v", LevelDebug, logger.GetLevel())
	}
}

func TestPlaneLogger_LogMethods(t *testing.T) {
	tests := []struct {
		name     string
		logFunc  func(l Logger)
		level    LogLevel
		expected string
	}{
		{
			name:     "error message",
			logFunc:  func(l Logger) { l.Error("delivery failed for row %d", 1) },
			level:    LevelError,
			expected: "delivery failed for row 1",
		},
		{
			name:     "warn message",
			logFunc:  func(l Logger) { l.Warn("stream %s", "aborted") },
			level:    LevelWarn,
			expected: "stream aborted",
		},
		{
			name:     "info message",
			logFunc:  func(l Logger) { l.Info("connected") },
			level:    LevelInfo,
			expected: "connected",
		},
		{
			name:     "debug message",
			logFunc:  func(l Logger) { l.Debug("waiting 2s") },
			level:    LevelDebug,
			expected: "waiting 2s",
		},
		{
			name:     "trace message",
			logFunc:  func(l Logger) { l.Trace("INSERT INTO test") },
			level:    LevelTrace,
			expected: "INSERT INTO test",
		},
		{
			name:     "percent sign without args is kept",
			logFunc:  func(l Logger) { l.Info("100% done") },
			level:    LevelInfo,
			expected: "100% done",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var buf bytes.Buffer
			logger := NewPlaneLoggerWithWriter(LevelTrace, true, &buf)
			tc.logFunc(logger)

			lastMsg := logger.GetLastMessage()
			if lastMsg == nil {
				t.Fatalf("Expected a stored message")
			}
			if lastMsg.Level != tc.level {
				t.Errorf("Expected level %v, got %v", tc.level, lastMsg.Level)
			}
			if lastMsg.Message != tc.expected {
				t.Errorf("Expected message %q, got %q", tc.expected, lastMsg.Message)
			}
			if time.Since(lastMsg.Time) > time.Minute {
				t.Errorf("Timestamp seems incorrect: %v", lastMsg.Time)
			}

			line := buf.String()
			if !strings.Contains(line, tc.level.String()+": "+tc.expected) {
				t.Errorf("Expected output to contain %q, got %q", tc.expected, line)
			}
			if strings.Contains(line, "\033[") {
				t.Errorf("Expected no color codes in writer output, got %q", line)
			}
		})
	}
}

func TestPlaneLogger_LogLevelFiltering(t *testing.T) {
	tests := []struct {
		name          string
		loggerLevel   LogLevel
		messageFn     func(l Logger)
		shouldContain bool
	}{
		{
			name:          "error shown at error level",
			loggerLevel:   LevelError,
			messageFn:     func(l Logger) { l.Error("test") },
			shouldContain: true,
		},
		{
			name:          "warn hidden at error level",
			loggerLevel:   LevelError,
			messageFn:     func(l Logger) { l.Warn("test") },
			shouldContain: false,
		},
		{
			name:          "debug shown at debug level",
			loggerLevel:   LevelDebug,
			messageFn:     func(l Logger) { l.Debug("test") },
			shouldContain: true,
		},
		{
			name:          "trace hidden at debug level",
			loggerLevel:   LevelDebug,
			messageFn:     func(l Logger) { l.Trace("test") },
			shouldContain: false,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var buf bytes.Buffer
			logger := NewPlaneLoggerWithWriter(tc.loggerLevel, true, &buf)
			tc.messageFn(logger)

			if got := buf.Len() != 0; got != tc.shouldContain {
				t.Errorf("Expected output = %v at level %s, got %q", tc.shouldContain, tc.loggerLevel, buf.String())
			}
		})
	}
}

func TestPlaneLogger_Clone(t *testing.T) {
	var buf bytes.Buffer
	originalLogger := NewPlaneLoggerWithWriter(LevelWarn, true, &buf)

	clonedLogger := originalLogger.Clone()
	if clonedLogger.GetLevel() != LevelWarn {
		t.Errorf("Expected cloned logger level %v, got %v", LevelWarn, clonedLogger.GetLevel())
	}

	clonedLogger.SetLevel(LevelTrace)
	if originalLogger.GetLevel() != LevelWarn {
		t.Errorf("Original logger level changed after modifying clone")
	}

	clonedLogger.Debug("from clone")
	if originalLogger.GetLastMessage() != nil {
		t.Errorf("Clone must not share the last message slot")
	}
	if !strings.Contains(buf.String(), "from clone") {
		t.Errorf("Clone must write to the same destination, got %q", buf.String())
	}
}
