package logging

import (
	"bytes"
	"testing"

	"github.com/phuslu/log"
	"github.com/stretchr/testify/assert"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want log.Level
	}{
		{"debug", log.DebugLevel},
		{"DEBUG", log.DebugLevel},
		{"trace", log.TraceLevel},
		{"warn", log.WarnLevel},
		{"warning", log.WarnLevel},
		{"error", log.ErrorLevel},
		{"info", log.InfoLevel},
		{"", log.InfoLevel},
		{"nonsense", log.InfoLevel},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseLevel(tt.in))
		})
	}
}

func TestNewWritesAtLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Options{Level: "info", Writer: &buf})

	logger.Debug().Str("file", "a.cpp").Msg("hidden")
	assert.Empty(t, buf.String())

	logger.Info().Str("file", "a.cpp").Msg("parsed")
	assert.Contains(t, buf.String(), "parsed")
	assert.Contains(t, buf.String(), "a.cpp")
}

func TestNopDiscards(t *testing.T) {
	logger := OrNop(nil)
	assert.NotPanics(t, func() {
		logger.Info().Msg("nothing")
		logger.Error().Msg("nothing")
	})
}
