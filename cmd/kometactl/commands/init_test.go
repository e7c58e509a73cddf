package commands

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/systmms/kometactl/internal/schema"
)

func TestInitCommand_WritesImportableStarter(t *testing.T) {
	cfg := newTestConfig(t)
	path := filepath.Join(t.TempDir(), "kometa.yml")

	cmd := NewInitCommand(cfg)
	cmd.SetArgs([]string{path})
	require.NoError(t, cmd.Execute())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "<<fill_in>>")

	// The starter must pass the shape check so the advertised import works.
	issues, err := schema.CheckDocument(data)
	require.NoError(t, err)
	assert.Empty(t, issues)
}

func TestInitCommand_RefusesOverwrite(t *testing.T) {
	cfg := newTestConfig(t)
	path := filepath.Join(t.TempDir(), "kometa.yml")
	require.NoError(t, os.WriteFile(path, []byte("existing"), 0644))

	cmd := NewInitCommand(cfg)
	cmd.SetArgs([]string{path})
	assert.Error(t, cmd.Execute())

	forceCmd := NewInitCommand(cfg)
	forceCmd.SetArgs([]string{path, "--force"})
	assert.NoError(t, forceCmd.Execute())
}
