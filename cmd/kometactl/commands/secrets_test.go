package commands

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSecretsSetAndShow(t *testing.T) {
	cfg := newTestConfig(t)
	path := writeTestDocument(t, testDocument)

	importCmd := NewImportCommand(cfg)
	importCmd.SetArgs([]string{path, "--name", "home"})
	require.NoError(t, importCmd.Execute())

	setCmd := newSecretsSetCommand(cfg)
	setCmd.SetArgs([]string{"home", "radarr", "token", "radarr-token-9999"})
	require.NoError(t, setCmd.Execute())

	rec, err := openStoredRecord(cfg, "home")
	require.NoError(t, err)
	require.NotNil(t, rec.Radarr)
	assert.Equal(t, "radarr-token-9999", rec.Radarr.Token)
	// Previously sealed credentials survive the update.
	require.NotNil(t, rec.Plex)
	assert.Equal(t, "plex-token-123456", rec.Plex.Token)

	showCmd := newSecretsShowCommand(cfg)
	showCmd.SetArgs([]string{"home"})
	output := captureStdout(t, func() {
		require.NoError(t, showCmd.Execute())
	})

	assert.Contains(t, output, "radarr")
	assert.Contains(t, output, "rada****9999")
	assert.NotContains(t, output, "radarr-token-9999")
}

func TestSecretsSetOnEntryWithoutEnvelope(t *testing.T) {
	cfg := newTestConfig(t)
	path := writeTestDocument(t, "libraries:\n  Movies:\n    collection_files:\n      - default: basic\n")

	importCmd := NewImportCommand(cfg)
	importCmd.SetArgs([]string{path, "--name", "bare"})
	require.NoError(t, importCmd.Execute())

	setCmd := newSecretsSetCommand(cfg)
	setCmd.SetArgs([]string{"bare", "plex", "token", "fresh-token-1234"})
	require.NoError(t, setCmd.Execute())

	assert.True(t, cfg.Store().HasEnvelope("bare"))
}

func TestSecretsSetUnknownField(t *testing.T) {
	cfg := newTestConfig(t)
	path := writeTestDocument(t, testDocument)

	importCmd := NewImportCommand(cfg)
	importCmd.SetArgs([]string{path, "--name", "home"})
	require.NoError(t, importCmd.Execute())

	setCmd := newSecretsSetCommand(cfg)
	setCmd.SetArgs([]string{"home", "plex", "password", "nope"})
	assert.Error(t, setCmd.Execute())
}

func TestSecretsExtractDoesNotStore(t *testing.T) {
	cfg := newTestConfig(t)
	path := writeTestDocument(t, testDocument)

	extractCmd := newSecretsExtractCommand(cfg)
	extractCmd.SetArgs([]string{path})
	output := captureStdout(t, func() {
		require.NoError(t, extractCmd.Execute())
	})

	assert.Contains(t, output, "plex")
	assert.Contains(t, output, "plex****3456")
	assert.NotContains(t, output, "plex-token-123456")

	entries, err := cfg.Store().List()
	require.NoError(t, err)
	assert.Empty(t, entries)
}
