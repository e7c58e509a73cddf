package renderer

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/systmms/kometactl/internal/importer"
	"github.com/systmms/kometactl/internal/model"
	"github.com/systmms/kometactl/internal/secrets"
)

const fixtureDocument = `
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
  custom_knob: 17
plex:
  url: http://plex:32400
  token: plex-token-123
  timeout: 60
  enabled: true
tmdb:
  apikey: tmdb-api-key-456
  language: en
radarr:
  enabled: true
  url: http://radarr:7878
  token: radarr-token-789
  add_missing: true
  root_folder_path: /movies
trakt:
  client_id: trakt-client-id-0123
  client_secret: trakt-client-secret-0123
  authorization:
    access_token: trakt-access-token
    token_type: Bearer
    expires_in: 7776000
    refresh_token: trakt-refresh-token
    scope: public
    created_at: 1629000000
webhooks:
  error: http://notifiarr/error
`

func parseFixture(t *testing.T) (*model.Config, *secrets.Record) {
	t.Helper()
	cfg, err := importer.Parse([]byte(fixtureDocument), true)
	require.NoError(t, err)
	rec, err := importer.ExtractSecrets([]byte(fixtureDocument))
	require.NoError(t, err)
	return cfg, rec
}

// normalize decodes document text into a plain tree for semantic comparison;
// key order and comments are not part of document equivalence.
func normalize(t *testing.T, text []byte) map[string]any {
	t.Helper()
	var doc map[string]any
	require.NoError(t, yaml.Unmarshal(text, &doc))
	return doc
}

func TestFullRoundTrip(t *testing.T) {
	cfg, rec := parseFixture(t)

	rendered, err := Render(cfg, rec, ModeFull, false)
	require.NoError(t, err)

	got := normalize(t, rendered)
	want := normalize(t, []byte(fixtureDocument))
	assert.Equal(t, want, got, "full render with the extracted secrets must reproduce the document")
}

func TestFullRoundTripIsStable(t *testing.T) {
	cfg, rec := parseFixture(t)

	first, err := Render(cfg, rec, ModeFull, false)
	require.NoError(t, err)
	second, err := Render(cfg, rec, ModeFull, false)
	require.NoError(t, err)
	assert.Equal(t, string(first), string(second), "rendering is deterministic")

	// A second import of the rendered output reaches a fixed point.
	cfg2, err := importer.Parse(first, true)
	require.NoError(t, err)
	rec2, err := importer.ExtractSecrets(first)
	require.NoError(t, err)
	third, err := Render(cfg2, rec2, ModeFull, false)
	require.NoError(t, err)
	assert.Equal(t, string(first), string(third))
}

func TestMaskedModeNeverContainsPlaintext(t *testing.T) {
	cfg, rec := parseFixture(t)

	rendered, err := Render(cfg, rec, ModeMasked, false)
	require.NoError(t, err)
	text := string(rendered)

	for _, secret := range []string{
		"plex-token-123", "tmdb-api-key-456", "radarr-token-789",
		"trakt-client-secret-0123", "trakt-access-token", "trakt-refresh-token",
	} {
		assert.NotContains(t, text, secret)
	}

	// Masked forms are present where credentials existed.
	assert.Contains(t, text, "plex****-123")
	assert.Contains(t, text, "tmdb****-456")
}

func TestTemplateModeCarriesNoSecretInformation(t *testing.T) {
	cfg, rec := parseFixture(t)

	rendered, err := Render(cfg, rec, ModeTemplate, false)
	require.NoError(t, err)
	text := string(rendered)

	assert.Contains(t, text, PlaceholderToken)

	// Not even masked derivatives of real values may appear.
	for _, fragment := range []string{"plex", "tmdb", "trak"} {
		for _, line := range strings.Split(text, "\n") {
			if strings.Contains(line, "token:") || strings.Contains(line, "apikey:") {
				assert.NotContains(t, line, fragment+"-")
			}
		}
	}
	assert.NotContains(t, text, "plex-token-123")
	assert.NotContains(t, text, "plex****")
}

func TestAbsentSecretsAreOmittedNotBlank(t *testing.T) {
	cfg, _ := parseFixture(t)

	for _, mode := range []Mode{ModeFull, ModeMasked} {
		rendered, err := Render(cfg, nil, mode, false)
		require.NoError(t, err)

		doc := normalize(t, rendered)
		plex, ok := doc["plex"].(map[string]any)
		require.True(t, ok)
		assert.NotContains(t, plex, "url", "mode %s", mode)
		assert.NotContains(t, plex, "token", "mode %s", mode)
	}
}

func TestExtrasAreInterleavedBack(t *testing.T) {
	cfg, rec := parseFixture(t)

	rendered, err := Render(cfg, rec, ModeFull, false)
	require.NoError(t, err)
	doc := normalize(t, rendered)

	settings := doc["settings"].(map[string]any)
	assert.Equal(t, 17, settings["custom_knob"])

	webhooks, ok := doc["webhooks"].(map[string]any)
	require.True(t, ok, "unknown top-level section preserved")
	assert.Equal(t, "http://notifiarr/error", webhooks["error"])

	movies := doc["libraries"].(map[string]any)["Movies"].(map[string]any)
	assert.Equal(t, true, movies["radarr_add_missing"])
}

func TestFileRefsSerializeToTheirVariantKey(t *testing.T) {
	cfg, rec := parseFixture(t)

	rendered, err := Render(cfg, rec, ModeFull, false)
	require.NoError(t, err)
	doc := normalize(t, rendered)

	files := doc["libraries"].(map[string]any)["Movies"].(map[string]any)["collection_files"].([]any)
	require.Len(t, files, 3)
	assert.Equal(t, map[string]any{"file": "config/Movies.yml"}, files[0])
	assert.Equal(t, map[string]any{"default": "basic"}, files[1])

	gitEntry := files[2].(map[string]any)
	assert.Equal(t, "meisnate12/MovieCharts", gitEntry["git"])
	assert.Equal(t, map[string]any{"collection_mode": "hide"}, gitEntry["template_variables"])
}

func TestRawFileRefsRoundTrip(t *testing.T) {
	doc := `
libraries:
  Movies:
    collection_files:
      - schedule: weekly
        asset_directory: config/assets
`
	cfg, err := importer.Parse([]byte(doc), true)
	require.NoError(t, err)

	rendered, err := Render(cfg, nil, ModeFull, false)
	require.NoError(t, err)

	got := normalize(t, rendered)
	want := normalize(t, []byte(doc))
	assert.Equal(t, want, got)
}

func TestLeadingComment(t *testing.T) {
	cfg, rec := parseFixture(t)

	rendered, err := Render(cfg, rec, ModeMasked, true)
	require.NoError(t, err)
	text := string(rendered)

	assert.True(t, strings.HasPrefix(text, "# Rendered by kometactl (masked mode)"))

	// The comment block is informational only: re-importing ignores it.
	cfg2, err := importer.Parse(rendered, true)
	require.NoError(t, err)
	assert.NotNil(t, cfg2.Plex)
}

func TestRenderRejectsUnknownMode(t *testing.T) {
	cfg, _ := parseFixture(t)
	_, err := Render(cfg, nil, Mode("plaintext"), false)
	require.Error(t, err)
}

func TestRenderRejectsNilModel(t *testing.T) {
	_, err := Render(nil, nil, ModeMasked, false)
	require.Error(t, err)
}

func TestParseMode(t *testing.T) {
	for _, valid := range []string{"full", "masked", "template"} {
		mode, err := ParseMode(valid)
		require.NoError(t, err)
		assert.Equal(t, Mode(valid), mode)
	}
	_, err := ParseMode("loud")
	require.Error(t, err)
}

func TestTraktAuthorizationExtrasMergeBack(t *testing.T) {
	cfg, rec := parseFixture(t)

	rendered, err := Render(cfg, rec, ModeFull, false)
	require.NoError(t, err)

	doc := normalize(t, rendered)
	trakt, ok := doc["trakt"].(map[string]any)
	require.True(t, ok)
	auth, ok := trakt["authorization"].(map[string]any)
	require.True(t, ok, "authorization must render as a single mapping")
	assert.Equal(t, 1629000000, auth["created_at"])
	assert.Equal(t, "trakt-access-token", auth["access_token"])

	// One authorization key, not a duplicate from the extras bag.
	assert.Equal(t, 1, strings.Count(string(rendered), "authorization:"))
}

func TestTraktAuthorizationExtrasSurviveMaskedMode(t *testing.T) {
	cfg, rec := parseFixture(t)

	rendered, err := Render(cfg, rec, ModeMasked, false)
	require.NoError(t, err)

	doc := normalize(t, rendered)
	auth := doc["trakt"].(map[string]any)["authorization"].(map[string]any)
	assert.Equal(t, 1629000000, auth["created_at"], "non-credential sub-keys are not secrets to mask")
	assert.NotContains(t, string(rendered), "trakt-access-token")
}

func TestTraktAuthorizationExtrasRenderWithoutRecord(t *testing.T) {
	// An authorization remainder must surface even when no secrets record is
	// supplied at all.
	cfg, err := importer.Parse([]byte("trakt:\n  authorization:\n    created_at: 1629000000\n"), true)
	require.NoError(t, err)

	rendered, err := Render(cfg, nil, ModeFull, false)
	require.NoError(t, err)

	doc := normalize(t, rendered)
	auth := doc["trakt"].(map[string]any)["authorization"].(map[string]any)
	assert.Equal(t, 1629000000, auth["created_at"])
}

func TestScalarSectionRoundTrips(t *testing.T) {
	source := "plex: hello\nlibraries:\n  Movies:\n    collection_files:\n      - default: basic\n"
	cfg, err := importer.Parse([]byte(source), true)
	require.NoError(t, err)

	rendered, err := Render(cfg, nil, ModeFull, false)
	require.NoError(t, err)

	got := normalize(t, rendered)
	want := normalize(t, []byte(source))
	assert.Equal(t, want, got, "a non-mapping section value must survive the round trip")
}
