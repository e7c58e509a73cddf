package commands

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/systmms/kometactl/internal/validation"
)

func TestValidateCommand_StoredEntry(t *testing.T) {
	cfg := newTestConfig(t)
	path := writeTestDocument(t, testDocument)

	importCmd := NewImportCommand(cfg)
	importCmd.SetArgs([]string{path, "--name", "home"})
	require.NoError(t, importCmd.Execute())

	validateCmd := NewValidateCommand(cfg)
	validateCmd.SetArgs([]string{"home"})
	assert.NoError(t, validateCmd.Execute())
}

func TestValidateCommand_DocumentFile(t *testing.T) {
	cfg := newTestConfig(t)
	path := writeTestDocument(t, testDocument)

	validateCmd := NewValidateCommand(cfg)
	validateCmd.SetArgs([]string{"--file", path})
	assert.NoError(t, validateCmd.Execute())
}

func TestValidateCommand_ShapeErrorsFail(t *testing.T) {
	cfg := newTestConfig(t)
	path := writeTestDocument(t, "plex:\n  timeout: soon\n")

	validateCmd := NewValidateCommand(cfg)
	validateCmd.SetArgs([]string{"--file", path})
	assert.Error(t, validateCmd.Execute())
}

func TestValidateCommand_JSONOutput(t *testing.T) {
	cfg := newTestConfig(t)
	path := writeTestDocument(t, testDocument)

	validateCmd := NewValidateCommand(cfg)
	validateCmd.SetArgs([]string{"--file", path, "--format", "json"})
	output := captureStdout(t, func() {
		require.NoError(t, validateCmd.Execute())
	})

	var report validation.Report
	require.NoError(t, json.Unmarshal([]byte(output), &report))
	assert.True(t, report.Valid)
}

func TestValidateCommand_RequiresTarget(t *testing.T) {
	cfg := newTestConfig(t)

	validateCmd := NewValidateCommand(cfg)
	validateCmd.SetArgs([]string{})
	assert.Error(t, validateCmd.Execute())
}

func TestValidateCommand_UnknownFormat(t *testing.T) {
	cfg := newTestConfig(t)

	validateCmd := NewValidateCommand(cfg)
	validateCmd.SetArgs([]string{"home", "--format", "xml"})
	assert.Error(t, validateCmd.Execute())
}
