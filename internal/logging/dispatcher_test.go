package logging

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nizalia829/roller-coaster-builder/internal/dispatcher"
)

var _ dispatcher.Logger = (*DispatcherLogger)(nil)

func decode(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry), buf.String())
	return entry
}

func TestDispatcherLogger_Levels(t *testing.T) {
	tests := []struct {
		level string
		log   func(*DispatcherLogger)
	}{
		{"debug", func(l *DispatcherLogger) { l.Debug("event dispatched", "command", ":PATH:ADD:") }},
		{"info", func(l *DispatcherLogger) { l.Info("event dispatched", "command", ":PATH:ADD:") }},
		{"error", func(l *DispatcherLogger) { l.Error("event dispatched", "command", ":PATH:ADD:") }},
	}
	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			var buf bytes.Buffer
			tt.log(NewDispatcherLogger(zerolog.New(&buf)))

			entry := decode(t, &buf)
			assert.Equal(t, tt.level, entry["level"])
			assert.Equal(t, "event dispatched", entry["message"])
			assert.Equal(t, ":PATH:ADD:", entry["command"])
			assert.Equal(t, "dispatcher", entry["component"])
		})
	}
}

func TestDispatcherLogger_ValueTypes(t *testing.T) {
	var buf bytes.Buffer
	dl := NewDispatcherLogger(zerolog.New(&buf))

	dl.Error("buffered event failed",
		"error", errors.New("disk full"),
		"args", []string{"1", "2"},
		"ticks", 3,
		"duration", 1500*time.Millisecond,
	)

	entry := decode(t, &buf)
	assert.Equal(t, "disk full", entry["error"])
	assert.Equal(t, []any{"1", "2"}, entry["args"])
	assert.Equal(t, float64(3), entry["ticks"])
	assert.Equal(t, float64(1500), entry["duration"])
}

func TestDispatcherLogger_BadKeys(t *testing.T) {
	var buf bytes.Buffer
	dl := NewDispatcherLogger(zerolog.New(&buf))

	dl.Info("odd", "a", 1, "dangling")

	entry := decode(t, &buf)
	assert.Equal(t, float64(1), entry["a"])
	assert.Equal(t, "dangling", entry[badKey])
}

func TestDispatcherLogger_LevelFilters(t *testing.T) {
	var buf bytes.Buffer
	dl := NewDispatcherLogger(zerolog.New(&buf).Level(zerolog.InfoLevel))

	dl.Debug("hidden", "command", ":RIDE:TICK:")
	assert.Zero(t, buf.Len())
}
