package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLevels(t *testing.T) {
	tests := []struct {
		name  string
		level string
		want  zerolog.Level
	}{
		{"debug level", "debug", zerolog.DebugLevel},
		{"warn level", "warn", zerolog.WarnLevel},
		{"default info", "", zerolog.InfoLevel},
		{"unknown falls back to info", "loud", zerolog.InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger := newWithWriter(&bytes.Buffer{}, tt.level, "prod")
			assert.Equal(t, tt.want, logger.GetLevel())
		})
	}
}

func TestProdLoggerWritesJSON(t *testing.T) {
	var buf bytes.Buffer
	logger := newWithWriter(&buf, "info", "prod")

	logger.Info().Int64("practitioner_id", 7).Msg("slot resolved")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "slot resolved", line["message"])
	assert.Equal(t, float64(7), line["practitioner_id"])
	assert.Contains(t, line, "time")
}

func TestDebugSuppressedAtInfo(t *testing.T) {
	var buf bytes.Buffer
	logger := newWithWriter(&buf, "info", "prod")

	logger.Debug().Msg("noise")
	assert.Zero(t, buf.Len())
}
