// Package renderer serializes the typed configuration model back into a
// Kometa config document. Secrets are spliced in under an explicit
// disclosure mode; the model itself never holds credentials.
//
// Output is deterministic: sections render in canonical order, known fields
// before extras, and extras in sorted key order. The document is built as a
// yaml.Node tree because plain map marshaling does not control key order.
package renderer

import (
	"bytes"
	"fmt"
	"sort"
	"time"

	"gopkg.in/yaml.v3"

	kerrors "github.com/systmms/kometactl/internal/errors"
	"github.com/systmms/kometactl/internal/masking"
	"github.com/systmms/kometactl/internal/model"
	"github.com/systmms/kometactl/internal/secrets"
)

// Mode selects how much of a secret's real value appears in the output.
type Mode string

const (
	// ModeFull splices plaintext secrets. Only for trusted local export
	// with explicit consent.
	ModeFull Mode = "full"
	// ModeMasked splices secrets through the masker. The default.
	ModeMasked Mode = "masked"
	// ModeTemplate replaces secret fields with a fixed placeholder carrying
	// zero information about any real value.
	ModeTemplate Mode = "template"
)

// PlaceholderToken is the fixed stand-in for credentials in template mode.
const PlaceholderToken = "<<fill_in>>"

// ParseMode validates a mode string from user input.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeFull, ModeMasked, ModeTemplate:
		return Mode(s), nil
	}
	return "", kerrors.ConfigError{
		Field:      "mode",
		Value:      s,
		Message:    "unknown disclosure mode",
		Suggestion: "Use one of: full, masked, template",
	}
}

// Render serializes the model plus an optional secrets record to document
// text. With a nil record in full or masked mode, secret-bearing fields are
// omitted entirely — never rendered as blanks that could be mistaken for an
// intentionally empty credential.
func Render(cfg *model.Config, rec *secrets.Record, mode Mode, includeLeadingComment bool) ([]byte, error) {
	if cfg == nil {
		return nil, kerrors.ShapeError{Message: "nil configuration model"}
	}
	if _, err := ParseMode(string(mode)); err != nil {
		return nil, err
	}

	root := mappingNode()

	if cfg.Libraries != nil {
		addEntry(root, model.SectionLibraries, librariesNode(cfg.Libraries))
	}
	if cfg.Settings != nil {
		addEntry(root, model.SectionSettings, settingsNode(cfg.Settings))
	}
	if cfg.Plex != nil {
		addEntry(root, model.SectionPlex, plexNode(cfg.Plex, rec, mode))
	}
	if cfg.TMDb != nil {
		addEntry(root, model.SectionTMDb, tmdbNode(cfg.TMDb, rec, mode))
	}
	if cfg.Tautulli != nil {
		addEntry(root, model.SectionTautulli, tautulliNode(cfg.Tautulli, rec, mode))
	}
	if cfg.MDBList != nil {
		addEntry(root, model.SectionMDBList, mdblistNode(cfg.MDBList, rec, mode))
	}
	if cfg.Radarr != nil {
		addEntry(root, model.SectionRadarr, radarrNode(cfg.Radarr, rec, mode))
	}
	if cfg.Sonarr != nil {
		addEntry(root, model.SectionSonarr, sonarrNode(cfg.Sonarr, rec, mode))
	}
	if cfg.Trakt != nil {
		addEntry(root, model.SectionTrakt, traktNode(cfg.Trakt, rec, mode))
	}
	addExtras(root, cfg.Extras)

	var buf bytes.Buffer
	if includeLeadingComment {
		fmt.Fprintf(&buf, "# Rendered by kometactl (%s mode) at %s\n", mode, time.Now().UTC().Format(time.RFC3339))
		fmt.Fprintf(&buf, "# This header is informational and ignored on import.\n")
	}

	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(root); err != nil {
		return nil, fmt.Errorf("failed to encode document: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("failed to finish document: %w", err)
	}

	return buf.Bytes(), nil
}

// secretValue resolves one credential field for the active mode. The second
// return reports whether the field should be emitted at all.
func secretValue(plaintext string, mode Mode) (string, bool) {
	switch mode {
	case ModeTemplate:
		return PlaceholderToken, true
	case ModeMasked:
		if plaintext == "" {
			return "", false
		}
		return masking.Mask(plaintext), true
	default: // ModeFull
		if plaintext == "" {
			return "", false
		}
		return plaintext, true
	}
}

func addSecret(node *yaml.Node, key, plaintext string, mode Mode) {
	if value, ok := secretValue(plaintext, mode); ok {
		addEntry(node, key, strNode(value))
	}
}

func librariesNode(libs map[string]*model.Library) *yaml.Node {
	node := mappingNode()
	for _, name := range sortedKeys(libs) {
		lib := libs[name]
		libNode := mappingNode()
		if len(lib.CollectionFiles) > 0 {
			addEntry(libNode, "collection_files", fileListNode(lib.CollectionFiles))
		}
		if len(lib.OverlayFiles) > 0 {
			addEntry(libNode, "overlay_files", fileListNode(lib.OverlayFiles))
		}
		if len(lib.MetadataFiles) > 0 {
			addEntry(libNode, "metadata_files", fileListNode(lib.MetadataFiles))
		}
		addExtras(libNode, lib.Extras)
		addEntry(node, name, libNode)
	}
	return node
}

func fileListNode(refs []model.FileRef) *yaml.Node {
	node := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
	for _, ref := range refs {
		node.Content = append(node.Content, fileRefNode(ref))
	}
	return node
}

// fileRefNode serializes a file reference back to exactly the variant key it
// was parsed from. Raw entries reproduce their original mapping.
func fileRefNode(ref model.FileRef) *yaml.Node {
	if ref.Kind == model.RefRaw {
		return anyNode(ref.Raw)
	}
	node := mappingNode()
	addEntry(node, string(ref.Kind), strNode(ref.Value))
	if len(ref.TemplateVariables) > 0 {
		addEntry(node, "template_variables", anyNode(ref.TemplateVariables))
	}
	return node
}

func settingsNode(s *model.Settings) *yaml.Node {
	node := mappingNode()
	addOptBool(node, "cache", s.Cache)
	addOptInt(node, "cache_expiration", s.CacheExpiration)
	addOptString(node, "asset_directory", s.AssetDirectory)
	addOptString(node, "sync_mode", s.SyncMode)
	addOptInt(node, "minimum_items", s.MinimumItems)
	addOptBool(node, "delete_below_minimum", s.DeleteBelowMinimum)
	addOptInt(node, "run_again_delay", s.RunAgainDelay)
	addOptBool(node, "show_unmanaged", s.ShowUnmanaged)
	addOptBool(node, "show_missing", s.ShowMissing)
	addExtras(node, s.Extras)
	return node
}

func plexNode(p *model.Plex, rec *secrets.Record, mode Mode) *yaml.Node {
	node := mappingNode()
	url, token := "", ""
	if rec != nil && rec.Plex != nil {
		url, token = rec.Plex.URL, rec.Plex.Token
	}
	addSecret(node, "url", url, mode)
	addSecret(node, "token", token, mode)
	addOptBool(node, "enabled", p.Enabled)
	addOptInt(node, "timeout", p.Timeout)
	addOptBool(node, "clean_bundles", p.CleanBundles)
	addOptBool(node, "empty_trash", p.EmptyTrash)
	addOptBool(node, "optimize", p.Optimize)
	addOptInt(node, "db_cache", p.DBCache)
	addExtras(node, p.Extras)
	return node
}

func tmdbNode(t *model.TMDb, rec *secrets.Record, mode Mode) *yaml.Node {
	node := mappingNode()
	apikey := ""
	if rec != nil && rec.TMDb != nil {
		apikey = rec.TMDb.APIKey
	}
	addSecret(node, "apikey", apikey, mode)
	addOptBool(node, "enabled", t.Enabled)
	addOptString(node, "language", t.Language)
	addOptString(node, "region", t.Region)
	addOptInt(node, "cache_expiration", t.CacheExpiration)
	addExtras(node, t.Extras)
	return node
}

func tautulliNode(t *model.Tautulli, rec *secrets.Record, mode Mode) *yaml.Node {
	node := mappingNode()
	url, apikey := "", ""
	if rec != nil && rec.Tautulli != nil {
		url, apikey = rec.Tautulli.URL, rec.Tautulli.APIKey
	}
	addSecret(node, "url", url, mode)
	addSecret(node, "apikey", apikey, mode)
	addOptBool(node, "enabled", t.Enabled)
	addExtras(node, t.Extras)
	return node
}

func mdblistNode(m *model.MDBList, rec *secrets.Record, mode Mode) *yaml.Node {
	node := mappingNode()
	apikey := ""
	if rec != nil && rec.MDBList != nil {
		apikey = rec.MDBList.APIKey
	}
	addSecret(node, "apikey", apikey, mode)
	addOptBool(node, "enabled", m.Enabled)
	addOptInt(node, "cache_expiration", m.CacheExpiration)
	addExtras(node, m.Extras)
	return node
}

func radarrNode(r *model.Radarr, rec *secrets.Record, mode Mode) *yaml.Node {
	node := mappingNode()
	url, token := "", ""
	if rec != nil && rec.Radarr != nil {
		url, token = rec.Radarr.URL, rec.Radarr.Token
	}
	addSecret(node, "url", url, mode)
	addSecret(node, "token", token, mode)
	addOptBool(node, "enabled", r.Enabled)
	addOptBool(node, "add_missing", r.AddMissing)
	addOptBool(node, "add_existing", r.AddExisting)
	addOptString(node, "root_folder_path", r.RootFolderPath)
	addOptBool(node, "monitor", r.Monitor)
	addOptString(node, "availability", r.Availability)
	addOptString(node, "quality_profile", r.QualityProfile)
	addOptString(node, "tag", r.Tag)
	addOptBool(node, "search", r.Search)
	addExtras(node, r.Extras)
	return node
}

func sonarrNode(s *model.Sonarr, rec *secrets.Record, mode Mode) *yaml.Node {
	node := mappingNode()
	url, token := "", ""
	if rec != nil && rec.Sonarr != nil {
		url, token = rec.Sonarr.URL, rec.Sonarr.Token
	}
	addSecret(node, "url", url, mode)
	addSecret(node, "token", token, mode)
	addOptBool(node, "enabled", s.Enabled)
	addOptBool(node, "add_missing", s.AddMissing)
	addOptBool(node, "add_existing", s.AddExisting)
	addOptString(node, "root_folder_path", s.RootFolderPath)
	addOptString(node, "monitor", s.Monitor)
	addOptString(node, "series_type", s.SeriesType)
	addOptBool(node, "season_folder", s.SeasonFolder)
	addOptString(node, "quality_profile", s.QualityProfile)
	addOptString(node, "language_profile", s.LanguageProfile)
	addOptString(node, "tag", s.Tag)
	addOptBool(node, "search", s.Search)
	addOptBool(node, "cutoff_search", s.CutoffSearch)
	addExtras(node, s.Extras)
	return node
}

func traktNode(t *model.Trakt, rec *secrets.Record, mode Mode) *yaml.Node {
	node := mappingNode()
	var trakt *secrets.TraktSecrets
	if rec != nil {
		trakt = rec.Trakt
	}

	clientID, clientSecret, pin := "", "", ""
	if trakt != nil {
		clientID, clientSecret, pin = trakt.ClientID, trakt.ClientSecret, trakt.PIN
	}
	addSecret(node, "client_id", clientID, mode)
	addSecret(node, "client_secret", clientSecret, mode)
	addSecret(node, "pin", pin, mode)

	// The importer preserves the non-credential remainder of an authorization
	// block under this extra; it merges back into the emitted authorization
	// node so the key is never duplicated.
	extras := t.Extras
	var authExtras map[string]any
	if raw, ok := extras["authorization"]; ok {
		rest := make(map[string]any, len(extras)-1)
		for key, v := range extras {
			if key != "authorization" {
				rest[key] = v
			}
		}
		if m, isMap := raw.(map[string]any); isMap {
			authExtras = m
			extras = rest
		} else if mode == ModeTemplate {
			// A non-mapping authorization value owns the key outright; the
			// placeholder block must not fight it for the same name.
			addEntry(node, "authorization", anyNode(raw))
			extras = rest
		}
	}

	if mode == ModeTemplate || (trakt != nil && trakt.Authorization != nil) || len(authExtras) > 0 {
		auth := mappingNode()
		var a secrets.TraktAuthorization
		if trakt != nil && trakt.Authorization != nil {
			a = *trakt.Authorization
		}
		addSecret(auth, "access_token", a.AccessToken, mode)
		if mode == ModeFull && a.TokenType != "" {
			addEntry(auth, "token_type", strNode(a.TokenType))
		} else if mode == ModeTemplate {
			addEntry(auth, "token_type", strNode(PlaceholderToken))
		}
		if mode == ModeFull && a.ExpiresIn != 0 {
			addEntry(auth, "expires_in", intNode(a.ExpiresIn))
		}
		addSecret(auth, "refresh_token", a.RefreshToken, mode)
		if mode == ModeFull && a.Scope != "" {
			addEntry(auth, "scope", strNode(a.Scope))
		}
		addExtras(auth, authExtras)
		if len(auth.Content) > 0 {
			addEntry(node, "authorization", auth)
		}
	}

	addOptBool(node, "enabled", t.Enabled)
	addExtras(node, extras)
	return node
}

// Node construction helpers.

func mappingNode() *yaml.Node {
	return &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
}

func addEntry(m *yaml.Node, key string, value *yaml.Node) {
	m.Content = append(m.Content, strNode(key), value)
}

func strNode(s string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: s}
}

func intNode(n int) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!int", Value: fmt.Sprintf("%d", n)}
}

func boolNode(b bool) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!bool", Value: fmt.Sprintf("%t", b)}
}

func addOptBool(m *yaml.Node, key string, v *bool) {
	if v != nil {
		addEntry(m, key, boolNode(*v))
	}
}

func addOptInt(m *yaml.Node, key string, v *int) {
	if v != nil {
		addEntry(m, key, intNode(*v))
	}
}

func addOptString(m *yaml.Node, key string, v *string) {
	if v != nil {
		addEntry(m, key, strNode(*v))
	}
}

// addExtras merges an extras bag back into its section in sorted key order.
func addExtras(m *yaml.Node, extras map[string]any) {
	for _, key := range sortedKeys(extras) {
		addEntry(m, key, anyNode(extras[key]))
	}
}

// anyNode converts an arbitrary preserved value into a node, recursing so
// nested maps also render with sorted keys.
func anyNode(v any) *yaml.Node {
	switch t := v.(type) {
	case map[string]any:
		node := mappingNode()
		for _, key := range sortedKeys(t) {
			addEntry(node, key, anyNode(t[key]))
		}
		return node
	case []any:
		node := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
		for _, item := range t {
			node.Content = append(node.Content, anyNode(item))
		}
		return node
	default:
		node := &yaml.Node{}
		if err := node.Encode(v); err != nil {
			// Unencodable preserved values fall back to their string form.
			return strNode(fmt.Sprintf("%v", v))
		}
		return node
	}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
