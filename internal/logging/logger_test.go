package logging

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zerolog.DebugLevel, parseLevel("debug"))
	assert.Equal(t, zerolog.WarnLevel, parseLevel("WARN"))
	assert.Equal(t, zerolog.InfoLevel, parseLevel(""))
	assert.Equal(t, zerolog.InfoLevel, parseLevel("loud"))
}

func TestNewLoggerFromConfig(t *testing.T) {
	t.Run("level is applied", func(t *testing.T) {
		logger := NewLoggerFromConfig(&Config{Level: "error", Format: "json", Output: "discard"})
		assert.Equal(t, zerolog.ErrorLevel, logger.GetLevel())
	})

	t.Run("nil config uses defaults", func(t *testing.T) {
		logger := NewLoggerFromConfig(nil)
		assert.Equal(t, zerolog.InfoLevel, logger.GetLevel())
	})

	t.Run("file output", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "recon.log")
		logger := NewLoggerFromConfig(&Config{Level: "info", Format: "json", Output: path})
		logger.Info().Msg("written to file")
		assert.FileExists(t, path)
	})
}

func TestContextLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, zerolog.InfoLevel)

	ctx := WithLogger(context.Background(), &logger)
	FromContext(ctx).Info().Str("run_id", "abc").Msg("hello")

	assert.Contains(t, buf.String(), `"run_id":"abc"`)
	assert.Same(t, Default(), FromContext(context.Background()))
}

func TestTestLogger(t *testing.T) {
	tl := NewTestLogger(t)
	tl.Info().Str("dataset", "invoice").Msg("loaded")
	tl.Warn().Msg("amount column missing")

	require.Len(t, tl.Lines(), 2)
	assert.True(t, tl.Contains(`"dataset":"invoice"`))
}
