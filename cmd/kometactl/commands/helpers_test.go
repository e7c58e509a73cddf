package commands

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/zalando/go-keyring"

	"github.com/systmms/kometactl/internal/config"
	"github.com/systmms/kometactl/internal/envelope"
	"github.com/systmms/kometactl/internal/logging"
)

const testDocument = `libraries:
  Movies:
    collection_files:
      - default: basic
settings:
  cache: true
plex:
  url: http://plex:32400
  token: plex-token-123456
tmdb:
  apikey: tmdb-key-abcdef99
`

// newTestConfig builds a runtime config against a temp data dir with a
// master key in the environment.
func newTestConfig(t *testing.T) *config.Config {
	t.Helper()
	keyring.MockInit()

	key, err := envelope.GenerateMasterKey()
	require.NoError(t, err)
	t.Setenv("KOMETACTL_MASTER_KEY", key)

	return &config.Config{
		DataDir:        t.TempDir(),
		Logger:         logging.New(false, true),
		NonInteractive: true,
	}
}

func writeTestDocument(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "kometa.yml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

// captureStdout runs fn with os.Stdout redirected to a pipe and returns
// everything written.
func captureStdout(t *testing.T, fn func()) string {
	t.Helper()

	old := os.Stdout
	r, w, err := os.Pipe()
	require.NoError(t, err)
	os.Stdout = w

	fn()

	w.Close()
	os.Stdout = old

	output, err := io.ReadAll(r)
	require.NoError(t, err)
	return string(output)
}
