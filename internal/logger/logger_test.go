package logger

import (
	"bytes"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
)

func TestConfigure(t *testing.T) {
	prevLogger, prevLevel := log.Logger, zerolog.GlobalLevel()
	t.Cleanup(func() {
		log.Logger = prevLogger
		zerolog.SetGlobalLevel(prevLevel)
	})

	var jsonOut, consoleOut bytes.Buffer
	configure("WARN", "json", &jsonOut, &consoleOut)
	assert.Equal(t, zerolog.WarnLevel, zerolog.GlobalLevel())
	log.Info().Msg("dropped")
	log.Warn().Str("k", "v").Msg("kept")
	assert.NotContains(t, jsonOut.String(), "dropped")
	assert.Contains(t, jsonOut.String(), `"k":"v"`)
	assert.Empty(t, consoleOut.String())

	jsonOut.Reset()
	configure("nonsense", "console", &jsonOut, &consoleOut)
	assert.Equal(t, zerolog.InfoLevel, zerolog.GlobalLevel())
	log.Info().Msg("hello")
	assert.Contains(t, consoleOut.String(), "hello")
	assert.Empty(t, jsonOut.String())
}
