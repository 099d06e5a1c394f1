package logger

import (
	"bytes"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
)

func TestInitWithWriterLevels(t *testing.T) {
	defer zerolog.SetGlobalLevel(zerolog.TraceLevel)

	var out bytes.Buffer
	InitWithWriter(&out, "warn", false)

	log.Info().Msg("hidden")
	log.Warn().Str("courseId", "c-1").Msg("shown")

	assert.NotContains(t, out.String(), "hidden")
	assert.Contains(t, out.String(), `"courseId":"c-1"`)
	assert.Contains(t, out.String(), `"message":"shown"`)
}

func TestInitWithWriterFallsBackToInfo(t *testing.T) {
	defer zerolog.SetGlobalLevel(zerolog.TraceLevel)

	var out bytes.Buffer
	InitWithWriter(&out, "loud", false)
	assert.Equal(t, zerolog.InfoLevel, zerolog.GlobalLevel())

	log.Debug().Msg("debug")
	assert.Empty(t, out.String())
}
