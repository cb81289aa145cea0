package archive

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/dvloznov/finance-bot/internal/interpreter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObjectName(t *testing.T) {
	ts := time.Date(2024, 3, 7, 23, 30, 0, 0, time.FixedZone("x", -2*3600))
	got := ObjectName(DefaultPrefix, ts, "abc")
	assert.Equal(t, "model-outputs/2024/03/08/abc.json", got)
}

func TestEncode(t *testing.T) {
	out := interpreter.ModelOutput{
		Model:      "gemini-2.5-flash",
		PromptDate: "2024-03-07",
		UserText:   "coffee 3",
		RawText:    `{"amount":3}`,
		CreatedAt:  time.Date(2024, 3, 7, 10, 0, 0, 0, time.UTC),
	}

	var buf bytes.Buffer
	require.NoError(t, encode(&buf, "id-1", out))

	var got map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, "id-1", got["id"])
	assert.Equal(t, "coffee 3", got["user_text"])
	assert.Equal(t, `{"amount":3}`, got["raw_text"])
	assert.NotContains(t, got, "error")
}

func TestNewGCSArchive_EmptyBucket(t *testing.T) {
	_, err := NewGCSArchive(context.Background(), "")
	assert.Error(t, err)
}
