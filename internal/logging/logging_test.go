package logging

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input string
		want  Level
		ok    bool
	}{
		{"debug", LevelDebug, true},
		{"DEBUG", LevelDebug, true},
		{"info", LevelInfo, true},
		{"warn", LevelWarn, true},
		{"warning", LevelWarn, true},
		{"Error", LevelError, true},
		{"loud", LevelInfo, false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, ok := ParseLevel(tt.input)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.ok, ok)
		})
	}
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, 0)
	l.SetLevel(LevelWarn)

	l.Debug("hidden %d", 1)
	l.Info("hidden %d", 2)
	l.Warn("shown %d", 3)
	l.Error("shown %d", 4)

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "[WARN] shown 3")
	assert.Contains(t, out, "[ERROR] shown 4")
	assert.Equal(t, "WARN", l.GetLevelString())
}

func TestWarnOnce(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, 0)

	for i := 0; i < 5; i++ {
		l.WarnOnce("mode-40", "unknown mode %d", 40)
	}
	l.WarnOnce("mode-41", "unknown mode %d", 41)

	out := buf.String()
	assert.Equal(t, 1, strings.Count(out, "unknown mode 40"))
	assert.Equal(t, 1, strings.Count(out, "unknown mode 41"))
}
