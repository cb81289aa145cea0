package logger

import (
	"bytes"
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func jsonLogger(buf *bytes.Buffer) zerolog.Logger {
	return NewWithOptions(Options{Format: "json", Out: buf})
}

func TestNew(t *testing.T) {
	log := New()
	assert.Equal(t, zerolog.InfoLevel, log.GetLevel())
}

func TestNewWithOptions_JSON(t *testing.T) {
	buf := &bytes.Buffer{}
	log := NewWithOptions(Options{Level: "debug", Format: "json", Out: buf})

	log.Debug().Msg("debug message")

	assert.Contains(t, buf.String(), `"message":"debug message"`)
	assert.Contains(t, buf.String(), `"level":"debug"`)
}

func TestNewWithOptions_LevelFilters(t *testing.T) {
	buf := &bytes.Buffer{}
	log := NewWithOptions(Options{Level: "warn", Format: "json", Out: buf})

	log.Info().Msg("hidden")
	assert.Empty(t, buf.String())

	log.Warn().Msg("shown")
	assert.Contains(t, buf.String(), "shown")
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input string
		want  zerolog.Level
	}{
		{"", zerolog.InfoLevel},
		{"debug", zerolog.DebugLevel},
		{"  ERROR ", zerolog.ErrorLevel},
		{"nonsense", zerolog.InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseLevel(tt.input))
		})
	}
}

func TestFromContext(t *testing.T) {
	buf := &bytes.Buffer{}
	testLog := jsonLogger(buf)
	ctx := WithContext(context.Background(), testLog)

	retrievedLog := FromContext(ctx)
	retrievedLog.Info().Msg("test")

	assert.NotZero(t, buf.Len(), "expected log output from retrieved logger")
}

func TestFromContext_DefaultLogger(t *testing.T) {
	log := FromContext(context.Background())
	assert.NotEqual(t, zerolog.Disabled, log.GetLevel())
}

func TestForChat(t *testing.T) {
	buf := &bytes.Buffer{}
	log := ForChat(jsonLogger(buf), 42, "msg-1")

	log.Info().Msg("handled")

	assert.Contains(t, buf.String(), `"chat_id":42`)
	assert.Contains(t, buf.String(), `"message_id":"msg-1"`)
}

func TestForChat_NoMessageID(t *testing.T) {
	buf := &bytes.Buffer{}
	log := ForChat(jsonLogger(buf), 7, "")

	log.Info().Msg("handled")

	assert.Contains(t, buf.String(), `"chat_id":7`)
	assert.NotContains(t, buf.String(), "message_id")
}
