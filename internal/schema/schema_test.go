package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	kerrors "github.com/systmms/kometactl/internal/errors"
)

func TestWellShapedDocument(t *testing.T) {
	doc := `
libraries:
  Movies:
    collection_files:
      - default: basic
settings:
  cache: true
  cache_expiration: 60
plex:
  url: http://plex:32400
  token: abc
  timeout: 60
trakt:
  authorization:
    access_token: tok
    expires_in: 7776000
`
	issues, err := CheckDocument([]byte(doc))
	require.NoError(t, err)
	assert.Empty(t, issues)
}

func TestBlankValuesAreAcceptedShapes(t *testing.T) {
	// Hand-authored configs routinely leave values empty.
	doc := `
plex:
  url:
  token:
tautulli:
settings:
  cache:
`
	issues, err := CheckDocument([]byte(doc))
	require.NoError(t, err)
	assert.Empty(t, issues)
}

func TestWrongFieldTypesAreReportedWithPaths(t *testing.T) {
	doc := `
plex:
  timeout: soon
  clean_bundles: 3
settings:
  cache_expiration: never
`
	issues, err := CheckDocument([]byte(doc))
	require.NoError(t, err)
	require.NotEmpty(t, issues)

	paths := make(map[string]bool)
	for _, issue := range issues {
		paths[issue.PathString()] = true
		assert.NotEmpty(t, issue.Message)
	}
	assert.True(t, paths["plex.timeout"])
	assert.True(t, paths["plex.clean_bundles"])
	assert.True(t, paths["settings.cache_expiration"])
}

func TestUnknownFieldsAreNotShapeViolations(t *testing.T) {
	// Extras are a first-class concept; the shape layer must not reject them.
	doc := `
webhooks:
  error: http://notifiarr/error
plex:
  some_future_flag: 42
`
	issues, err := CheckDocument([]byte(doc))
	require.NoError(t, err)
	assert.Empty(t, issues)
}

func TestNonMappingRoot(t *testing.T) {
	issues, err := CheckDocument([]byte("- a\n- b\n"))
	require.NoError(t, err)
	require.Len(t, issues, 1)
	assert.Contains(t, issues[0].Message, "mapping")
}

func TestEmptyDocument(t *testing.T) {
	issues, err := CheckDocument(nil)
	require.NoError(t, err)
	assert.Empty(t, issues)
}

func TestMalformedDocument(t *testing.T) {
	_, err := CheckDocument([]byte("plex: [unclosed\n"))
	var pe kerrors.ParseError
	require.ErrorAs(t, err, &pe)
}
