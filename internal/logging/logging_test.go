package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewAddsServiceAndRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, Config{Level: "warn", ServiceName: "image-processor"})

	logger.Info().Msg("dropped")
	assert.Zero(t, buf.Len())

	logger.Warn().Str(FieldKey, "cat.jpg").Msg("kept")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "image-processor", entry[FieldService])
	assert.Equal(t, "cat.jpg", entry[FieldKey])
	assert.Equal(t, "kept", entry["message"])
}

func TestCtxFallsBackToGlobal(t *testing.T) {
	var buf bytes.Buffer
	scoped := New(&buf, Config{}).With().Str(FieldRequestID, "req-1").Logger()

	ctx := WithLogger(context.Background(), scoped)
	l := Ctx(ctx)
	l.Info().Msg("hello")
	assert.Contains(t, buf.String(), `"aws_request_id":"req-1"`)

	assert.Equal(t, L(), Ctx(context.Background()))
}

func TestParseLevel(t *testing.T) {
	cases := map[string]zerolog.Level{
		"":        zerolog.InfoLevel,
		"DEBUG":   zerolog.DebugLevel,
		" warn ":  zerolog.WarnLevel,
		"warning": zerolog.WarnLevel,
		"error":   zerolog.ErrorLevel,
		"off":     zerolog.Disabled,
		"bogus":   zerolog.InfoLevel,
	}
	for in, want := range cases {
		assert.Equal(t, want, parseLevel(in), in)
	}
}
