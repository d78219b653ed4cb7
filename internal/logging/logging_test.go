package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitSetsLevel(t *testing.T) {
	t.Cleanup(func() { zerolog.SetGlobalLevel(zerolog.InfoLevel) })

	var buf bytes.Buffer
	closer, err := Init(Options{Level: "warn", Console: &buf})
	require.NoError(t, err)
	defer closer.Close()

	assert.Equal(t, zerolog.WarnLevel, zerolog.GlobalLevel())

	log.Info().Msg("hidden")
	log.Warn().Msg("shown")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")
}

func TestInitVerboseOverridesLevel(t *testing.T) {
	t.Cleanup(func() { zerolog.SetGlobalLevel(zerolog.InfoLevel) })

	var buf bytes.Buffer
	closer, err := Init(Options{Level: "error", Verbose: true, Console: &buf})
	require.NoError(t, err)
	defer closer.Close()

	assert.Equal(t, zerolog.DebugLevel, zerolog.GlobalLevel())
}

func TestInitRejectsUnknownLevel(t *testing.T) {
	_, err := Init(Options{Level: "chatty", Console: &bytes.Buffer{}})
	assert.Error(t, err)
}

func TestInitWritesLogFile(t *testing.T) {
	t.Cleanup(func() { zerolog.SetGlobalLevel(zerolog.InfoLevel) })

	path := filepath.Join(t.TempDir(), "logs", "subclip.log")
	closer, err := Init(Options{Level: "info", File: path, Console: &bytes.Buffer{}})
	require.NoError(t, err)

	l := WithComponent("indexer")
	l.Info().Str("path", "/lib/show.mp4").Msg("indexed")
	require.NoError(t, closer.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"component":"indexer"`)
	assert.Contains(t, string(data), `"message":"indexed"`)
}

func TestConsoleWithoutTTYHasNoColor(t *testing.T) {
	assert.False(t, isTerminal(&bytes.Buffer{}))
}
