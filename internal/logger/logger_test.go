package logger_test

import (
	"bytes"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"billtools/internal/logger"
)

func TestSetupRejectsUnknownLevel(t *testing.T) {
	cfg := logger.DefaultConfig()
	cfg.Level = "loud"
	assert.Error(t, logger.Setup(cfg))
}

func TestWithComponent(t *testing.T) {
	prev := log.Logger
	t.Cleanup(func() { log.Logger = prev })

	var buf bytes.Buffer
	log.Logger = zerolog.New(&buf)

	l := logger.WithDocument("pipeline", "doc-1", "tnb.jpg")
	l.Info().Msg("done")

	assert.Contains(t, buf.String(), `"component":"pipeline"`)
	assert.Contains(t, buf.String(), `"document_id":"doc-1"`)
	assert.Contains(t, buf.String(), `"file":"tnb.jpg"`)
}

func TestDiscard(t *testing.T) {
	prev := log.Logger
	t.Cleanup(func() { log.Logger = prev })

	var buf bytes.Buffer
	log.Logger = zerolog.New(&buf)
	logger.Discard()

	l := logger.WithComponent("batch")
	l.Error().Msg("dropped")

	require.Empty(t, buf.String())
	assert.Equal(t, zerolog.Disabled, l.GetLevel())
}
