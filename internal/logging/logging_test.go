package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetup_JSON(t *testing.T) {
	var buf bytes.Buffer
	logger, err := setup(Config{Level: "warn", Format: "json"}, &buf)
	require.NoError(t, err)
	t.Cleanup(func() { zerolog.SetGlobalLevel(zerolog.InfoLevel) })

	logger.Info().Msg("hidden")
	logger.Warn().Str("invoice", "INV-DXB-2026-00001").Msg("shown")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry))
	assert.Equal(t, "shown", entry["message"])
	assert.Equal(t, "INV-DXB-2026-00001", entry["invoice"])
}

func TestSetup_BadLevel(t *testing.T) {
	_, err := setup(Config{Level: "loud"}, &bytes.Buffer{})
	assert.Error(t, err)
}
