package o11y

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetup_LogsJSONWithService(t *testing.T) {
	var buf bytes.Buffer
	obs, cleanup, err := Setup(context.Background(), Config{Service: "rider", Level: "debug", Output: &buf})
	require.NoError(t, err)
	defer cleanup()

	obs.Logger.Debug("hello", "k", 1)

	assert.Contains(t, buf.String(), `"service":"rider"`)
	assert.Contains(t, buf.String(), `"msg":"hello"`)
	assert.NotNil(t, obs.Registry)
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, ParseLevel("warning"))
	assert.Equal(t, slog.LevelError, ParseLevel("error"))
	assert.Equal(t, slog.LevelInfo, ParseLevel(""))
}
