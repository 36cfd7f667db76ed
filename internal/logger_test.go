package internal

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLogger_Levels(t *testing.T) {
	tests := []struct {
		level     string
		wantDebug bool
		wantInfo  bool
	}{
		{level: "debug", wantDebug: true, wantInfo: true},
		{level: "DEBUG", wantDebug: true, wantInfo: true},
		{level: "info", wantDebug: false, wantInfo: true},
		{level: "warn", wantDebug: false, wantInfo: false},
		{level: "", wantDebug: false, wantInfo: true},
		{level: "verbose", wantDebug: false, wantInfo: true},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			var buf bytes.Buffer
			logger := NewLogger(&buf, "production", tt.level)

			logger.Debug("debug line")
			assert.Equal(t, tt.wantDebug, bytes.Contains(buf.Bytes(), []byte("debug line")))

			logger.Info("info line")
			assert.Equal(t, tt.wantInfo, bytes.Contains(buf.Bytes(), []byte("info line")))
		})
	}
}

func TestNewLogger_ProductionWritesJSON(t *testing.T) {
	var buf bytes.Buffer
	NewLogger(&buf, "production", "info").Info("reconciled", "event_id", "evt_1")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "reconciled", line["msg"])
	assert.Equal(t, "evt_1", line["event_id"])
	assert.Equal(t, "samplebase", line["service"])
}

func TestNewLogger_DevelopmentWritesText(t *testing.T) {
	var buf bytes.Buffer
	NewLogger(&buf, "development", "info").Info("reconciled")

	assert.Contains(t, buf.String(), "msg=reconciled")
	assert.Contains(t, buf.String(), "service=samplebase")
}
