package logging

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWriterLogger_RespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWriterLogger("sim", &buf, WARN)

	logger.Debug("скрыто %d", 1)
	logger.Warn("видно %d", 2)

	out := buf.String()
	assert.NotContains(t, out, "скрыто")
	assert.Contains(t, out, "[WARN] [sim] видно 2")
}

func TestNilLoggerIsSafe(t *testing.T) {
	var logger *Logger
	assert.NotPanics(t, func() {
		logger.Error("ничего")
		_ = logger.Close()
	})
}

func TestParseLevel(t *testing.T) {
	tests := map[string]LogLevel{
		"trace":   TRACE,
		"DEBUG":   DEBUG,
		" warn ":  WARN,
		"error":   ERROR,
		"":        INFO,
		"verbose": INFO,
	}
	for in, want := range tests {
		assert.Equal(t, want, ParseLevel(in), "уровень %q", in)
	}
}

func TestSetDefaultLogger(t *testing.T) {
	prev := Default()
	defer SetDefaultLogger(prev)

	var buf bytes.Buffer
	SetDefaultLogger(NewWriterLogger("test", &buf, DEBUG))

	Debug("tick %d", 7)
	assert.True(t, strings.Contains(buf.String(), "tick 7"))
}
