package internal

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoggerLevels(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(&buf, WARNING)

	l.Debug("hidden debug")
	l.Info("hidden info")
	l.Warn("slide %d skipped", 3)
	l.Error("broken %s", "page")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "slide 3 skipped")
	assert.Contains(t, out, "broken page")
	assert.Contains(t, out, "WRN")
	assert.Contains(t, out, "ERR")
}

func TestLoggerSetLevel(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(&buf, ERROR)

	l.Info("before")
	l.SetLevel(DEBUG)
	l.Debug("after")

	assert.NotContains(t, buf.String(), "before")
	assert.Contains(t, buf.String(), "after")
}

func TestLoggerSuccessMarksEntry(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(&buf, INFO)

	l.Success("PDF %q created\n", "deck.pdf")

	out := buf.String()
	assert.Contains(t, out, `PDF "deck.pdf" created`)
	assert.Contains(t, out, "ok=true")
	assert.Equal(t, 1, strings.Count(out, "\n"))
}

func TestLoggerTeeWritesJSON(t *testing.T) {
	var console, sink bytes.Buffer
	l := NewLogger(&console, INFO)
	l.Tee(&sink)

	l.Warn("blocked by %s", "host")

	assert.Contains(t, console.String(), "blocked by host")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(sink.Bytes(), &entry))
	assert.Equal(t, "warn", entry["level"])
	assert.Equal(t, "blocked by host", entry["message"])
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    LogLevel
		wantErr bool
	}{
		{"debug", DEBUG, false},
		{"", INFO, false},
		{"INFO", INFO, false},
		{"warning", WARNING, false},
		{"warn", WARNING, false},
		{"error", ERROR, false},
		{"loud", INFO, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLevel(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
