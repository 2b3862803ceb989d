package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected Level
	}{
		{"debug", LevelDebug},
		{"DEBUG", LevelDebug},
		{"dEbUg", LevelDebug},
		{"info", LevelInfo},
		{"warn", LevelWarn},
		{"Warning", LevelWarn},
		{"ERROR", LevelError},

		// Unrecognized and empty default to Info
		{"", LevelInfo},
		{"trace", LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, ParseLevel(tt.input))
		})
	}
}

func TestParseFormat(t *testing.T) {
	assert.Equal(t, FormatJSON, ParseFormat("json"))
	assert.Equal(t, FormatJSON, ParseFormat("Json"))
	assert.Equal(t, FormatText, ParseFormat("text"))
	assert.Equal(t, FormatText, ParseFormat(""))
	assert.Equal(t, FormatText, ParseFormat("yaml"))
}

func TestNew_JSON(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Level: LevelInfo, Format: FormatJSON, Output: &buf})

	log.Debug("hidden")
	log.Info("listener started", "port", 8080)

	var record map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	assert.Equal(t, "listener started", record["msg"])
	assert.InDelta(t, 8080, record["port"], 0)
}

func TestOrNop(t *testing.T) {
	assert.NotNil(t, OrNop(nil))

	log := New(DefaultConfig())
	assert.Same(t, log, OrNop(log))
}
