// Package importer parses a user-authored Kometa config document into the
// typed configuration model and, independently, extracts its credentials
// into a secrets record. Both walks are pure and read-only.
//
// Secret detection is driven by field position within the known schema,
// never by what a value looks like: a base64-shaped string in an unknown
// field stays in extras, and an oddly-formatted token in a known credential
// field is still extracted.
package importer

import (
	"regexp"
	"strconv"

	"gopkg.in/yaml.v3"

	kerrors "github.com/systmms/kometactl/internal/errors"
	"github.com/systmms/kometactl/internal/model"
)

var yamlLineRe = regexp.MustCompile(`line (\d+):`)

// decodeDocument unmarshals the document text and requires a mapping root.
func decodeDocument(documentText []byte) (map[string]any, error) {
	var doc any
	if err := yaml.Unmarshal(documentText, &doc); err != nil {
		line := 0
		if m := yamlLineRe.FindStringSubmatch(err.Error()); m != nil {
			line, _ = strconv.Atoi(m[1])
		}
		return nil, kerrors.ParseError{Line: line, Message: err.Error(), Err: err}
	}
	if doc == nil {
		return map[string]any{}, nil
	}
	m, ok := doc.(map[string]any)
	if !ok {
		return nil, kerrors.ShapeError{Message: "document root must be a mapping"}
	}
	return m, nil
}

// Parse converts document text into the typed configuration model. Known
// sub-fields are lifted and type-coerced; anything unrecognized lands in the
// owning section's extras when preserveExtras is true and is dropped
// otherwise. Credential fields are never lifted into the model — they belong
// to ExtractSecrets. Only malformed YAML fails.
func Parse(documentText []byte, preserveExtras bool) (*model.Config, error) {
	doc, err := decodeDocument(documentText)
	if err != nil {
		return nil, err
	}

	cfg := &model.Config{}
	rootExtras := map[string]any{}

	for key, value := range doc {
		// A known section whose value is not a mapping cannot be lifted into
		// typed fields; the whole value degrades to root extras so it still
		// round-trips.
		sec, isMapping := sectionMapping(value)
		if key != model.SectionLibraries && !isMapping {
			keepExtra(rootExtras, key, value, preserveExtras)
			continue
		}

		switch key {
		case model.SectionSettings:
			cfg.Settings = parseSettings(sec, preserveExtras)
		case model.SectionLibraries:
			libs, ok := parseLibraries(value, preserveExtras)
			if !ok {
				keepExtra(rootExtras, key, value, preserveExtras)
				continue
			}
			cfg.Libraries = libs
		case model.SectionPlex:
			cfg.Plex = parsePlex(sec, preserveExtras)
		case model.SectionTMDb:
			cfg.TMDb = parseTMDb(sec, preserveExtras)
		case model.SectionTautulli:
			cfg.Tautulli = parseTautulli(sec, preserveExtras)
		case model.SectionMDBList:
			cfg.MDBList = parseMDBList(sec, preserveExtras)
		case model.SectionRadarr:
			cfg.Radarr = parseRadarr(sec, preserveExtras)
		case model.SectionSonarr:
			cfg.Sonarr = parseSonarr(sec, preserveExtras)
		case model.SectionTrakt:
			cfg.Trakt = parseTrakt(sec, preserveExtras)
		default:
			keepExtra(rootExtras, key, value, preserveExtras)
		}
	}

	if len(rootExtras) > 0 {
		cfg.Extras = rootExtras
	}
	return cfg, nil
}

// sectionMapping coerces a section value to a mapping. A nil section counts
// as an empty mapping; any other non-mapping value is reported so the caller
// can degrade it to extras instead of dropping it.
func sectionMapping(value any) (map[string]any, bool) {
	if value == nil {
		return map[string]any{}, true
	}
	m, ok := value.(map[string]any)
	return m, ok
}

func keepExtra(extras map[string]any, key string, value any, preserve bool) {
	if preserve {
		extras[key] = value
	}
}

func finishExtras(extras map[string]any) map[string]any {
	if len(extras) == 0 {
		return nil
	}
	return extras
}

func parseSettings(sec map[string]any, preserve bool) *model.Settings {
	s := &model.Settings{}
	extras := map[string]any{}
	for key, value := range sec {
		switch key {
		case "cache":
			coerceBool(value, &s.Cache, extras, key, preserve)
		case "cache_expiration":
			coerceInt(value, &s.CacheExpiration, extras, key, preserve)
		case "asset_directory":
			coerceString(value, &s.AssetDirectory, extras, key, preserve)
		case "sync_mode":
			coerceEnum(value, model.SyncModes, &s.SyncMode, extras, key, preserve)
		case "minimum_items":
			coerceInt(value, &s.MinimumItems, extras, key, preserve)
		case "delete_below_minimum":
			coerceBool(value, &s.DeleteBelowMinimum, extras, key, preserve)
		case "run_again_delay":
			coerceInt(value, &s.RunAgainDelay, extras, key, preserve)
		case "show_unmanaged":
			coerceBool(value, &s.ShowUnmanaged, extras, key, preserve)
		case "show_missing":
			coerceBool(value, &s.ShowMissing, extras, key, preserve)
		default:
			keepExtra(extras, key, value, preserve)
		}
	}
	s.Extras = finishExtras(extras)
	return s
}

func parseLibraries(value any, preserve bool) (map[string]*model.Library, bool) {
	section, ok := value.(map[string]any)
	if !ok && value != nil {
		return nil, false
	}

	libs := make(map[string]*model.Library, len(section))
	for name, raw := range section {
		lib := &model.Library{}
		extras := map[string]any{}
		if fields, ok := raw.(map[string]any); ok {
			for key, v := range fields {
				switch key {
				case "collection_files":
					lib.CollectionFiles = parseFileList(v)
				case "overlay_files":
					lib.OverlayFiles = parseFileList(v)
				case "metadata_files":
					lib.MetadataFiles = parseFileList(v)
				default:
					keepExtra(extras, key, v, preserve)
				}
			}
		} else if raw != nil {
			keepExtra(extras, "value", raw, preserve)
		}
		lib.Extras = finishExtras(extras)
		libs[name] = lib
	}
	return libs, true
}

// parseFileList converts a file-reference array into tagged variants. An
// entry that matches no variant shape is preserved as a raw entry instead of
// failing the document; the validator reports it.
func parseFileList(value any) []model.FileRef {
	entries, ok := value.([]any)
	if !ok {
		if value == nil {
			return nil
		}
		// A scalar where a list was expected: treat as a single entry.
		entries = []any{value}
	}

	refs := make([]model.FileRef, 0, len(entries))
	for _, entry := range entries {
		refs = append(refs, parseFileRef(entry))
	}
	return refs
}

func parseFileRef(entry any) model.FileRef {
	switch v := entry.(type) {
	case string:
		// Bare string shorthand for a local file path.
		return model.FileRef{Kind: model.RefFile, Value: v}
	case map[string]any:
		var kind model.FileRefKind
		var value string
		matches := 0
		for _, candidate := range model.VariantKinds {
			raw, present := v[string(candidate)]
			if !present {
				continue
			}
			matches++
			if s, ok := raw.(string); ok {
				kind = candidate
				value = s
			} else {
				matches++ // non-string payload disqualifies the variant
			}
		}

		extraKeys := 0
		var tmplVars map[string]any
		for key, raw := range v {
			if key == "template_variables" {
				if m, ok := raw.(map[string]any); ok {
					tmplVars = m
					continue
				}
			}
			if isVariantKey(key) {
				continue
			}
			extraKeys++
		}

		if matches != 1 || extraKeys > 0 {
			return model.FileRef{Kind: model.RefRaw, Raw: v}
		}
		return model.FileRef{Kind: kind, Value: value, TemplateVariables: tmplVars}
	default:
		return model.FileRef{Kind: model.RefRaw, Raw: map[string]any{"value": entry}}
	}
}

func isVariantKey(key string) bool {
	for _, k := range model.VariantKinds {
		if key == string(k) {
			return true
		}
	}
	return false
}

func parsePlex(sec map[string]any, preserve bool) *model.Plex {
	p := &model.Plex{}
	extras := map[string]any{}
	for key, value := range sec {
		switch key {
		case "enabled":
			coerceBool(value, &p.Enabled, extras, key, preserve)
		case "timeout":
			coerceInt(value, &p.Timeout, extras, key, preserve)
		case "clean_bundles":
			coerceBool(value, &p.CleanBundles, extras, key, preserve)
		case "empty_trash":
			coerceBool(value, &p.EmptyTrash, extras, key, preserve)
		case "optimize":
			coerceBool(value, &p.Optimize, extras, key, preserve)
		case "db_cache":
			coerceInt(value, &p.DBCache, extras, key, preserve)
		case "url", "token":
			// credentials; ExtractSecrets owns these
		default:
			keepExtra(extras, key, value, preserve)
		}
	}
	p.Extras = finishExtras(extras)
	return p
}

func parseTMDb(sec map[string]any, preserve bool) *model.TMDb {
	t := &model.TMDb{}
	extras := map[string]any{}
	for key, value := range sec {
		switch key {
		case "enabled":
			coerceBool(value, &t.Enabled, extras, key, preserve)
		case "language":
			coerceString(value, &t.Language, extras, key, preserve)
		case "region":
			coerceString(value, &t.Region, extras, key, preserve)
		case "cache_expiration":
			coerceInt(value, &t.CacheExpiration, extras, key, preserve)
		case "apikey":
			// credential
		default:
			keepExtra(extras, key, value, preserve)
		}
	}
	t.Extras = finishExtras(extras)
	return t
}

func parseTautulli(sec map[string]any, preserve bool) *model.Tautulli {
	t := &model.Tautulli{}
	extras := map[string]any{}
	for key, value := range sec {
		switch key {
		case "enabled":
			coerceBool(value, &t.Enabled, extras, key, preserve)
		case "url", "apikey":
			// credentials
		default:
			keepExtra(extras, key, value, preserve)
		}
	}
	t.Extras = finishExtras(extras)
	return t
}

func parseMDBList(sec map[string]any, preserve bool) *model.MDBList {
	m := &model.MDBList{}
	extras := map[string]any{}
	for key, value := range sec {
		switch key {
		case "enabled":
			coerceBool(value, &m.Enabled, extras, key, preserve)
		case "cache_expiration":
			coerceInt(value, &m.CacheExpiration, extras, key, preserve)
		case "apikey":
			// credential
		default:
			keepExtra(extras, key, value, preserve)
		}
	}
	m.Extras = finishExtras(extras)
	return m
}

func parseRadarr(sec map[string]any, preserve bool) *model.Radarr {
	r := &model.Radarr{}
	extras := map[string]any{}
	for key, value := range sec {
		switch key {
		case "enabled":
			coerceBool(value, &r.Enabled, extras, key, preserve)
		case "add_missing":
			coerceBool(value, &r.AddMissing, extras, key, preserve)
		case "add_existing":
			coerceBool(value, &r.AddExisting, extras, key, preserve)
		case "root_folder_path":
			coerceString(value, &r.RootFolderPath, extras, key, preserve)
		case "monitor":
			coerceBool(value, &r.Monitor, extras, key, preserve)
		case "availability":
			coerceEnum(value, model.RadarrAvailability, &r.Availability, extras, key, preserve)
		case "quality_profile":
			coerceString(value, &r.QualityProfile, extras, key, preserve)
		case "tag":
			coerceString(value, &r.Tag, extras, key, preserve)
		case "search":
			coerceBool(value, &r.Search, extras, key, preserve)
		case "url", "token":
			// credentials
		default:
			keepExtra(extras, key, value, preserve)
		}
	}
	r.Extras = finishExtras(extras)
	return r
}

func parseSonarr(sec map[string]any, preserve bool) *model.Sonarr {
	s := &model.Sonarr{}
	extras := map[string]any{}
	for key, value := range sec {
		switch key {
		case "enabled":
			coerceBool(value, &s.Enabled, extras, key, preserve)
		case "add_missing":
			coerceBool(value, &s.AddMissing, extras, key, preserve)
		case "add_existing":
			coerceBool(value, &s.AddExisting, extras, key, preserve)
		case "root_folder_path":
			coerceString(value, &s.RootFolderPath, extras, key, preserve)
		case "monitor":
			coerceEnum(value, model.SonarrMonitor, &s.Monitor, extras, key, preserve)
		case "series_type":
			coerceEnum(value, model.SonarrSeriesTypes, &s.SeriesType, extras, key, preserve)
		case "season_folder":
			coerceBool(value, &s.SeasonFolder, extras, key, preserve)
		case "quality_profile":
			coerceString(value, &s.QualityProfile, extras, key, preserve)
		case "language_profile":
			coerceString(value, &s.LanguageProfile, extras, key, preserve)
		case "tag":
			coerceString(value, &s.Tag, extras, key, preserve)
		case "search":
			coerceBool(value, &s.Search, extras, key, preserve)
		case "cutoff_search":
			coerceBool(value, &s.CutoffSearch, extras, key, preserve)
		case "url", "token":
			// credentials
		default:
			keepExtra(extras, key, value, preserve)
		}
	}
	s.Extras = finishExtras(extras)
	return s
}

func parseTrakt(sec map[string]any, preserve bool) *model.Trakt {
	t := &model.Trakt{}
	extras := map[string]any{}
	for key, value := range sec {
		switch key {
		case "enabled":
			coerceBool(value, &t.Enabled, extras, key, preserve)
		case "client_id", "client_secret", "pin":
			// credentials
		case "authorization":
			keepAuthorizationExtras(extras, value, preserve)
		default:
			keepExtra(extras, key, value, preserve)
		}
	}
	t.Extras = finishExtras(extras)
	return t
}

// traktAuthorizationCredentialKeys are the authorization sub-fields owned by
// ExtractSecrets. Everything else in an authorization block is not a
// credential and must survive the round trip.
var traktAuthorizationCredentialKeys = map[string]bool{
	"access_token":  true,
	"token_type":    true,
	"expires_in":    true,
	"refresh_token": true,
	"scope":         true,
}

// keepAuthorizationExtras preserves the non-credential remainder of a trakt
// authorization block under the section's "authorization" extra. A non-mapping
// authorization value carries no credentials at all and is kept whole.
func keepAuthorizationExtras(extras map[string]any, value any, preserve bool) {
	auth, ok := value.(map[string]any)
	if !ok {
		if value != nil {
			keepExtra(extras, "authorization", value, preserve)
		}
		return
	}
	rest := map[string]any{}
	for key, v := range auth {
		if !traktAuthorizationCredentialKeys[key] {
			rest[key] = v
		}
	}
	if len(rest) > 0 {
		keepExtra(extras, "authorization", rest, preserve)
	}
}

// Coercion helpers. A value of the wrong type degrades to extras rather
// than failing the import.

func coerceBool(value any, dst **bool, extras map[string]any, key string, preserve bool) {
	if b, ok := value.(bool); ok {
		*dst = &b
		return
	}
	keepExtra(extras, key, value, preserve)
}

func coerceInt(value any, dst **int, extras map[string]any, key string, preserve bool) {
	switch v := value.(type) {
	case int:
		*dst = &v
		return
	case int64:
		n := int(v)
		*dst = &n
		return
	case float64:
		if v == float64(int(v)) {
			n := int(v)
			*dst = &n
			return
		}
	}
	keepExtra(extras, key, value, preserve)
}

func coerceString(value any, dst **string, extras map[string]any, key string, preserve bool) {
	if s, ok := value.(string); ok {
		*dst = &s
		return
	}
	keepExtra(extras, key, value, preserve)
}

func coerceEnum(value any, allowed []string, dst **string, extras map[string]any, key string, preserve bool) {
	if s, ok := value.(string); ok {
		for _, candidate := range allowed {
			if s == candidate {
				*dst = &s
				return
			}
		}
	}
	keepExtra(extras, key, value, preserve)
}
