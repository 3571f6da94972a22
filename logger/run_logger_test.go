package logger

import (
	"bytes"
	"strings"
	"testing"
)

func TestRunLogger_Prefix(t *testing.T) {
	tests := []struct {
		name     string
		runID    string
		expected string
	}{
		{name: "with run id", runID: "5b2f", expected: "run 5b2f: row 3 delivered"},
		{name: "without run id", runID: "", expected: "stream: row 3 delivered"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var buf bytes.Buffer
			l := NewRunLogger(NewPlaneLoggerWithWriter(LevelInfo, true, &buf), tc.runID)
			l.Info("row %d delivered", 3)

			msg := l.GetLastMessage()
			if msg == nil {
				t.Fatalf("Expected stored message")
			}
			if msg.Message != tc.expected {
				t.Errorf("Expected %q, got %q", tc.expected, msg.Message)
			}
			if !strings.Contains(buf.String(), tc.expected) {
				t.Errorf("Expected output to contain %q, got %q", tc.expected, buf.String())
			}
		})
	}
}

func TestRunLogger_LevelDelegation(t *testing.T) {
	var buf bytes.Buffer
	base := NewPlaneLoggerWithWriter(LevelWarn, false, &buf)
	l := NewRunLogger(base, "abc")

	l.Info("hidden")
	if buf.Len() != 0 {
		t.Errorf("Info must be filtered at warn level, got %q", buf.String())
	}

	l.SetLevel(LevelInfo)
	if base.GetLevel() != LevelInfo {
		t.Errorf("SetLevel must reach the wrapped logger")
	}

	l.Info("shown")
	if !strings.Contains(buf.String(), "run abc: shown") {
		t.Errorf("Expected prefixed output, got %q", buf.String())
	}
}

func TestRunLogger_Clone(t *testing.T) {
	l := NewRunLogger(NewPlaneLogger(LevelError, true), "r1")
	c := l.Clone()

	c.SetLevel(LevelTrace)
	if l.GetLevel() != LevelError {
		t.Errorf("Original level changed after modifying clone")
	}
	if _, ok := c.(*RunLogger); !ok {
		t.Errorf("Clone must keep the run prefix wrapper, got %T", c)
	}
}
