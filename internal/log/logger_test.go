package log

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoggerLevels(t *testing.T) {
	var buf bytes.Buffer
	l := New(LoggerConfig{Level: WarnLevel, Output: &buf})

	l.Debug("hidden debug")
	l.Info("hidden info")
	l.Warn("shown warn", "seq", 3)
	l.Error("shown error")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "WARN: shown warn seq=3")
	assert.Contains(t, out, "ERROR: shown error")
}

func TestLoggerJSONOutput(t *testing.T) {
	var buf bytes.Buffer
	l := New(LoggerConfig{Level: DebugLevel, Output: &buf})
	l.SetJSONOutput(true)

	l.Error("render failed", "seq", 7, "error", errors.New("boom"))

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry))
	assert.Equal(t, "ERROR", entry["level"])
	assert.Equal(t, "render failed", entry["message"])
	assert.Equal(t, float64(7), entry["seq"])
	assert.Equal(t, "boom", entry["error"])
}

func TestLoggerSetLevel(t *testing.T) {
	var buf bytes.Buffer
	l := New(LoggerConfig{Level: ErrorLevel, Output: &buf})

	l.Info("before")
	l.SetLevel(DebugLevel)
	l.Info("after")

	assert.False(t, strings.Contains(buf.String(), "before"))
	assert.True(t, strings.Contains(buf.String(), "after"))
}

func TestParseLevel(t *testing.T) {
	tests := map[string]Level{
		"debug":   DebugLevel,
		"DEBUG":   DebugLevel,
		"warning": WarnLevel,
		"error":   ErrorLevel,
		"":        InfoLevel,
		"chatty":  InfoLevel,
	}
	for in, want := range tests {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestFormatMessage(t *testing.T) {
	assert.Equal(t, "msg", formatMessage("msg"))
	assert.Equal(t, "msg a=1 b=two", formatMessage("msg", "a", 1, "b", "two"))
	assert.Equal(t, "msg extra a=1", formatMessage("msg", "extra", "a", 1))
}
