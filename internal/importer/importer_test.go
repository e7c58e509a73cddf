package importer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	kerrors "github.com/systmms/kometactl/internal/errors"
	"github.com/systmms/kometactl/internal/model"
)

const sampleDocument = `
libraries:
  Movies:
    collection_files:
      - file: config/Movies.yml
      - default: basic
      - git: meisnate12/MovieCharts
        template_variables:
          collection_mode: hide
    overlay_files:
      - url: https://example.com/overlays.yml
    radarr_add_missing: true
  TV Shows:
    metadata_files:
      - repo: charts
settings:
  cache: true
  cache_expiration: 60
  asset_directory: config/assets
  sync_mode: append
  custom_knob: 17
plex:
  url: http://plex:32400
  token: plex-token-123
  timeout: 60
  clean_bundles: false
  enabled: true
tmdb:
  apikey: tmdb-api-key-456
  language: en
  cache_expiration: 30
radarr:
  enabled: true
  url: http://radarr:7878
  token: radarr-token-789
  add_missing: true
  root_folder_path: /movies
  availability: announced
trakt:
  enabled: true
  client_id: trakt-client-id
  client_secret: trakt-client-secret
  authorization:
    access_token: trakt-access-token
    token_type: Bearer
    expires_in: 7776000
    refresh_token: trakt-refresh-token
    scope: public
webhooks:
  error: http://notifiarr/error
`

func TestParseKnownFields(t *testing.T) {
	cfg, err := Parse([]byte(sampleDocument), true)
	require.NoError(t, err)

	require.NotNil(t, cfg.Settings)
	require.NotNil(t, cfg.Settings.Cache)
	assert.True(t, *cfg.Settings.Cache)
	require.NotNil(t, cfg.Settings.CacheExpiration)
	assert.Equal(t, 60, *cfg.Settings.CacheExpiration)
	require.NotNil(t, cfg.Settings.AssetDirectory)
	assert.Equal(t, "config/assets", *cfg.Settings.AssetDirectory)
	require.NotNil(t, cfg.Settings.SyncMode)
	assert.Equal(t, "append", *cfg.Settings.SyncMode)

	require.NotNil(t, cfg.Plex)
	assert.True(t, cfg.Plex.IsEnabled())
	require.NotNil(t, cfg.Plex.Timeout)
	assert.Equal(t, 60, *cfg.Plex.Timeout)
	require.NotNil(t, cfg.Plex.CleanBundles)
	assert.False(t, *cfg.Plex.CleanBundles)

	require.NotNil(t, cfg.Radarr)
	require.NotNil(t, cfg.Radarr.AddMissing)
	assert.True(t, *cfg.Radarr.AddMissing)
	require.NotNil(t, cfg.Radarr.RootFolderPath)
	assert.Equal(t, "/movies", *cfg.Radarr.RootFolderPath)
	require.NotNil(t, cfg.Radarr.Availability)
	assert.Equal(t, "announced", *cfg.Radarr.Availability)
}

func TestParseNeverLiftsCredentials(t *testing.T) {
	cfg, err := Parse([]byte(sampleDocument), true)
	require.NoError(t, err)

	// Credential fields must not appear anywhere in the model, including extras.
	assert.NotContains(t, cfg.Plex.Extras, "url")
	assert.NotContains(t, cfg.Plex.Extras, "token")
	assert.NotContains(t, cfg.TMDb.Extras, "apikey")
	assert.NotContains(t, cfg.Radarr.Extras, "url")
	assert.NotContains(t, cfg.Radarr.Extras, "token")
	assert.NotContains(t, cfg.Trakt.Extras, "client_id")
	assert.NotContains(t, cfg.Trakt.Extras, "client_secret")
	assert.NotContains(t, cfg.Trakt.Extras, "authorization")
}

func TestParsePreservesExtras(t *testing.T) {
	cfg, err := Parse([]byte(sampleDocument), true)
	require.NoError(t, err)

	assert.Equal(t, 17, cfg.Settings.Extras["custom_knob"])
	assert.Contains(t, cfg.Extras, "webhooks")
	assert.Equal(t, true, cfg.Libraries["Movies"].Extras["radarr_add_missing"])
}

func TestParseDropsExtrasWhenDisabled(t *testing.T) {
	cfg, err := Parse([]byte(sampleDocument), false)
	require.NoError(t, err)

	assert.Nil(t, cfg.Settings.Extras)
	assert.Nil(t, cfg.Extras)
	assert.Nil(t, cfg.Libraries["Movies"].Extras)
}

func TestParseFileReferenceVariants(t *testing.T) {
	cfg, err := Parse([]byte(sampleDocument), true)
	require.NoError(t, err)

	movies := cfg.Libraries["Movies"]
	require.NotNil(t, movies)
	require.Len(t, movies.CollectionFiles, 3)

	assert.Equal(t, model.RefFile, movies.CollectionFiles[0].Kind)
	assert.Equal(t, "config/Movies.yml", movies.CollectionFiles[0].Value)

	assert.Equal(t, model.RefDefault, movies.CollectionFiles[1].Kind)
	assert.Equal(t, "basic", movies.CollectionFiles[1].Value)

	assert.Equal(t, model.RefGit, movies.CollectionFiles[2].Kind)
	assert.Equal(t, "meisnate12/MovieCharts", movies.CollectionFiles[2].Value)
	assert.Equal(t, "hide", movies.CollectionFiles[2].TemplateVariables["collection_mode"])

	require.Len(t, movies.OverlayFiles, 1)
	assert.Equal(t, model.RefURL, movies.OverlayFiles[0].Kind)

	tv := cfg.Libraries["TV Shows"]
	require.NotNil(t, tv)
	require.Len(t, tv.MetadataFiles, 1)
	assert.Equal(t, model.RefRepo, tv.MetadataFiles[0].Kind)
	assert.Equal(t, "charts", tv.MetadataFiles[0].Value)
}

func TestParseFileReferenceEdgeCases(t *testing.T) {
	doc := `
libraries:
  Movies:
    collection_files:
      - plain/path.yml
      - file: a.yml
        git: b
      - schedule: weekly
      - default: basic
        asset_directory: config/assets
`
	cfg, err := Parse([]byte(doc), true)
	require.NoError(t, err)

	files := cfg.Libraries["Movies"].CollectionFiles
	require.Len(t, files, 4)

	// Bare string is local-file shorthand.
	assert.Equal(t, model.RefFile, files[0].Kind)
	assert.Equal(t, "plain/path.yml", files[0].Value)

	// Two variant keys: unrepresentable, preserved raw.
	assert.Equal(t, model.RefRaw, files[1].Kind)
	assert.Equal(t, "a.yml", files[1].Raw["file"])

	// Zero variant keys: raw.
	assert.Equal(t, model.RefRaw, files[2].Kind)

	// Variant plus unknown sibling key: raw, kept verbatim.
	assert.Equal(t, model.RefRaw, files[3].Kind)
	assert.Equal(t, "config/assets", files[3].Raw["asset_directory"])
}

func TestParseCoercionFailureDegradesToExtras(t *testing.T) {
	doc := `
plex:
  enabled: "yes please"
  timeout: soon
radarr:
  availability: someday
`
	cfg, err := Parse([]byte(doc), true)
	require.NoError(t, err)

	assert.Nil(t, cfg.Plex.Enabled)
	assert.Equal(t, "yes please", cfg.Plex.Extras["enabled"])
	assert.Equal(t, "soon", cfg.Plex.Extras["timeout"])

	// An out-of-enumeration value is preserved, not silently accepted.
	assert.Nil(t, cfg.Radarr.Availability)
	assert.Equal(t, "someday", cfg.Radarr.Extras["availability"])
}

func TestParseMalformedDocument(t *testing.T) {
	_, err := Parse([]byte("libraries: [unclosed\n"), true)
	var pe kerrors.ParseError
	require.ErrorAs(t, err, &pe)
}

func TestParseNonMappingRoot(t *testing.T) {
	_, err := Parse([]byte("- just\n- a\n- list"), true)
	var se kerrors.ShapeError
	require.ErrorAs(t, err, &se)
}

func TestParseEmptyDocument(t *testing.T) {
	cfg, err := Parse(nil, true)
	require.NoError(t, err)
	assert.Nil(t, cfg.Libraries)
	assert.Nil(t, cfg.Settings)
	assert.Nil(t, cfg.Extras)
}

func TestExtractSecrets(t *testing.T) {
	rec, err := ExtractSecrets([]byte(sampleDocument))
	require.NoError(t, err)
	require.NotNil(t, rec)

	require.NotNil(t, rec.Plex)
	assert.Equal(t, "http://plex:32400", rec.Plex.URL)
	assert.Equal(t, "plex-token-123", rec.Plex.Token)

	require.NotNil(t, rec.TMDb)
	assert.Equal(t, "tmdb-api-key-456", rec.TMDb.APIKey)

	require.NotNil(t, rec.Radarr)
	assert.Equal(t, "http://radarr:7878", rec.Radarr.URL)
	assert.Equal(t, "radarr-token-789", rec.Radarr.Token)

	require.NotNil(t, rec.Trakt)
	assert.Equal(t, "trakt-client-id", rec.Trakt.ClientID)
	require.NotNil(t, rec.Trakt.Authorization)
	assert.Equal(t, "trakt-access-token", rec.Trakt.Authorization.AccessToken)
	assert.Equal(t, 7776000, rec.Trakt.Authorization.ExpiresIn)

	assert.Nil(t, rec.Tautulli)
	assert.Nil(t, rec.MDBList)
	assert.Nil(t, rec.Sonarr)
}

func TestExtractSecretsIsPositionDriven(t *testing.T) {
	// Token-shaped values outside known credential positions stay put.
	doc := `
settings:
  asset_directory: eyJhbGciOiJIUzI1NiJ9.secret.looking.value
webhooks:
  error: aHR0cDovL2Jhc2U2NC1ub25zZW5zZQ==
plex:
  timeout: 60
`
	rec, err := ExtractSecrets([]byte(doc))
	require.NoError(t, err)
	assert.True(t, rec.IsEmpty())
}

func TestExtractSecretsEmptyDocument(t *testing.T) {
	rec, err := ExtractSecrets([]byte("libraries:\n  Movies:\n    collection_files:\n      - default: basic\n"))
	require.NoError(t, err)
	assert.True(t, rec.IsEmpty(), "no credential fields means an empty record, not empty sub-objects")
}

func TestExtractSecretsBlankValuesIgnored(t *testing.T) {
	doc := `
plex:
  url:
  token: ""
tmdb:
  apikey:
`
	rec, err := ExtractSecrets([]byte(doc))
	require.NoError(t, err)
	assert.True(t, rec.IsEmpty())
}

func TestExtractSecretsMalformedDocument(t *testing.T) {
	_, err := ExtractSecrets([]byte("plex: {url: http://x\n"))
	var pe kerrors.ParseError
	require.ErrorAs(t, err, &pe)
}

func TestParseAndExtractAreIndependent(t *testing.T) {
	text := []byte(sampleDocument)

	cfg, err := Parse(text, true)
	require.NoError(t, err)
	rec, err := ExtractSecrets(text)
	require.NoError(t, err)

	// Same input, two disjoint views: the model holds no credentials and the
	// record holds nothing but credentials.
	assert.NotNil(t, cfg.Plex)
	assert.NotNil(t, rec.Plex)
	assert.Equal(t, string(text), sampleDocument, "source document is never mutated")
}

func TestParseTraktAuthorizationKeepsUnknownSubKeys(t *testing.T) {
	doc := `
trakt:
  client_id: trakt-client-id
  authorization:
    access_token: trakt-access-token
    token_type: Bearer
    expires_in: 7776000
    created_at: 1629000000
`
	cfg, err := Parse([]byte(doc), true)
	require.NoError(t, err)

	// The credential sub-fields stay out of the model; everything else in
	// the authorization block survives as a nested extra.
	require.NotNil(t, cfg.Trakt)
	auth, ok := cfg.Trakt.Extras["authorization"].(map[string]any)
	require.True(t, ok, "non-credential authorization remainder must be preserved")
	assert.Equal(t, 1629000000, auth["created_at"])
	assert.NotContains(t, auth, "access_token")
	assert.NotContains(t, auth, "token_type")
	assert.NotContains(t, auth, "expires_in")

	// Extraction is unaffected by the preserved remainder.
	rec, err := ExtractSecrets([]byte(doc))
	require.NoError(t, err)
	require.NotNil(t, rec.Trakt)
	require.NotNil(t, rec.Trakt.Authorization)
	assert.Equal(t, "trakt-access-token", rec.Trakt.Authorization.AccessToken)
}

func TestParseTraktAuthorizationAllKnownKeysLeavesNoExtra(t *testing.T) {
	cfg, err := Parse([]byte(sampleDocument), true)
	require.NoError(t, err)
	assert.NotContains(t, cfg.Trakt.Extras, "authorization")
}

func TestParseScalarSectionDegradesToExtras(t *testing.T) {
	cfg, err := Parse([]byte("plex: hello\nsonarr: 42\n"), true)
	require.NoError(t, err)

	assert.Nil(t, cfg.Plex, "a non-mapping section has no typed fields to lift")
	assert.Nil(t, cfg.Sonarr)
	assert.Equal(t, "hello", cfg.Extras["plex"])
	assert.Equal(t, 42, cfg.Extras["sonarr"])

	cfg, err = Parse([]byte("plex: hello\n"), false)
	require.NoError(t, err)
	assert.Nil(t, cfg.Plex)
	assert.Nil(t, cfg.Extras)
}
