package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewJSON(t *testing.T) {
	var buf bytes.Buffer
	log, err := New("warn", "json", &buf)
	require.NoError(t, err)

	log.Info().Msg("hidden")
	log.Warn().Str("side", "long").Msg("shown")

	var ev map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &ev))
	assert.Equal(t, "warn", ev["level"])
	assert.Equal(t, "shown", ev["message"])
	assert.Equal(t, "long", ev["side"])
}

func TestNewConsole(t *testing.T) {
	var buf bytes.Buffer
	log, err := New("", "console", &buf)
	require.NoError(t, err)

	log.Info().Msg("range captured")
	assert.Contains(t, buf.String(), "range captured")
}

func TestNewBadLevel(t *testing.T) {
	_, err := New("chatty", "json", nil)
	assert.Error(t, err)
}
