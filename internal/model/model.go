// Package model defines the typed configuration tree for a Kometa config
// document, with secrets stripped out. Every section carries an Extras bag
// holding document fields the typed shape does not recognize, so an imported
// document can be re-rendered without losing information.
//
// Fields use pointers so that "absent in the document" and "present with the
// zero value" stay distinguishable across a round trip.
package model

// Service section names as they appear in the document.
const (
	SectionSettings  = "settings"
	SectionLibraries = "libraries"
	SectionPlex      = "plex"
	SectionTMDb      = "tmdb"
	SectionTautulli  = "tautulli"
	SectionMDBList   = "mdblist"
	SectionRadarr    = "radarr"
	SectionSonarr    = "sonarr"
	SectionTrakt     = "trakt"
)

// ServiceSections lists the integrated service sections in canonical
// rendering order.
var ServiceSections = []string{
	SectionPlex,
	SectionTMDb,
	SectionTautulli,
	SectionMDBList,
	SectionRadarr,
	SectionSonarr,
	SectionTrakt,
}

// Config is the root of the typed configuration model. It never holds
// credentials; those live in a secrets.Record stored separately.
type Config struct {
	Libraries map[string]*Library `json:"libraries,omitempty"`
	Settings  *Settings           `json:"settings,omitempty"`
	Plex      *Plex               `json:"plex,omitempty"`
	TMDb      *TMDb               `json:"tmdb,omitempty"`
	Tautulli  *Tautulli           `json:"tautulli,omitempty"`
	MDBList   *MDBList            `json:"mdblist,omitempty"`
	Radarr    *Radarr             `json:"radarr,omitempty"`
	Sonarr    *Sonarr             `json:"sonarr,omitempty"`
	Trakt     *Trakt              `json:"trakt,omitempty"`

	// Extras holds unrecognized top-level sections.
	Extras map[string]any `json:"extras,omitempty"`
}

// Settings holds global run options.
type Settings struct {
	Cache              *bool   `json:"cache,omitempty"`
	CacheExpiration    *int    `json:"cache_expiration,omitempty"`
	AssetDirectory     *string `json:"asset_directory,omitempty"`
	SyncMode           *string `json:"sync_mode,omitempty"`
	MinimumItems       *int    `json:"minimum_items,omitempty"`
	DeleteBelowMinimum *bool   `json:"delete_below_minimum,omitempty"`
	RunAgainDelay      *int    `json:"run_again_delay,omitempty"`
	ShowUnmanaged      *bool   `json:"show_unmanaged,omitempty"`
	ShowMissing        *bool   `json:"show_missing,omitempty"`

	Extras map[string]any `json:"extras,omitempty"`
}

// Library is a named collection of file references.
type Library struct {
	CollectionFiles []FileRef `json:"collection_files,omitempty"`
	OverlayFiles    []FileRef `json:"overlay_files,omitempty"`
	MetadataFiles   []FileRef `json:"metadata_files,omitempty"`

	Extras map[string]any `json:"extras,omitempty"`
}

// HasFiles reports whether any of the three file lists is populated.
func (l *Library) HasFiles() bool {
	return len(l.CollectionFiles) > 0 || len(l.OverlayFiles) > 0 || len(l.MetadataFiles) > 0
}

// FileRefKind discriminates the file-reference variants. Exactly one
// variant-defining key appears per document entry.
type FileRefKind string

const (
	// RefFile is a local file path.
	RefFile FileRefKind = "file"
	// RefDefault is a named built-in default.
	RefDefault FileRefKind = "default"
	// RefGit is a path within the tool's configs repository.
	RefGit FileRefKind = "git"
	// RefURL is a plain URL.
	RefURL FileRefKind = "url"
	// RefRepo is a path within a user-configured repository.
	RefRepo FileRefKind = "repo"
	// RefRaw preserves an entry whose shape matched no variant. It is kept
	// verbatim for round-trip fidelity and flagged by the validator.
	RefRaw FileRefKind = "raw"
)

// VariantKinds lists the recognized variant-defining keys.
var VariantKinds = []FileRefKind{RefFile, RefDefault, RefGit, RefURL, RefRepo}

// FileRef is one entry of a library file list: a tagged variant plus an
// optional opaque template-variables mapping.
type FileRef struct {
	Kind  FileRefKind `json:"kind"`
	Value string      `json:"value,omitempty"`

	// TemplateVariables is carried through unchanged; the engine never
	// interprets it.
	TemplateVariables map[string]any `json:"template_variables,omitempty"`

	// Raw holds the original mapping for RefRaw entries only.
	Raw map[string]any `json:"raw,omitempty"`
}

// Plex holds the non-secret operational flags of the plex section.
// URL and token are credentials and belong to the secrets record.
type Plex struct {
	Enabled      *bool `json:"enabled,omitempty"`
	Timeout      *int  `json:"timeout,omitempty"`
	CleanBundles *bool `json:"clean_bundles,omitempty"`
	EmptyTrash   *bool `json:"empty_trash,omitempty"`
	Optimize     *bool `json:"optimize,omitempty"`
	DBCache      *int  `json:"db_cache,omitempty"`

	Extras map[string]any `json:"extras,omitempty"`
}

// TMDb holds the non-secret flags of the tmdb section.
type TMDb struct {
	Enabled         *bool   `json:"enabled,omitempty"`
	Language        *string `json:"language,omitempty"`
	Region          *string `json:"region,omitempty"`
	CacheExpiration *int    `json:"cache_expiration,omitempty"`

	Extras map[string]any `json:"extras,omitempty"`
}

// Tautulli holds the non-secret flags of the tautulli section.
type Tautulli struct {
	Enabled *bool `json:"enabled,omitempty"`

	Extras map[string]any `json:"extras,omitempty"`
}

// MDBList holds the non-secret flags of the mdblist section.
type MDBList struct {
	Enabled         *bool `json:"enabled,omitempty"`
	CacheExpiration *int  `json:"cache_expiration,omitempty"`

	Extras map[string]any `json:"extras,omitempty"`
}

// Radarr holds the non-secret flags of the radarr section.
type Radarr struct {
	Enabled        *bool   `json:"enabled,omitempty"`
	AddMissing     *bool   `json:"add_missing,omitempty"`
	AddExisting    *bool   `json:"add_existing,omitempty"`
	RootFolderPath *string `json:"root_folder_path,omitempty"`
	Monitor        *bool   `json:"monitor,omitempty"`
	Availability   *string `json:"availability,omitempty"`
	QualityProfile *string `json:"quality_profile,omitempty"`
	Tag            *string `json:"tag,omitempty"`
	Search         *bool   `json:"search,omitempty"`

	Extras map[string]any `json:"extras,omitempty"`
}

// Sonarr holds the non-secret flags of the sonarr section.
type Sonarr struct {
	Enabled         *bool   `json:"enabled,omitempty"`
	AddMissing      *bool   `json:"add_missing,omitempty"`
	AddExisting     *bool   `json:"add_existing,omitempty"`
	RootFolderPath  *string `json:"root_folder_path,omitempty"`
	Monitor         *string `json:"monitor,omitempty"`
	SeriesType      *string `json:"series_type,omitempty"`
	SeasonFolder    *bool   `json:"season_folder,omitempty"`
	QualityProfile  *string `json:"quality_profile,omitempty"`
	LanguageProfile *string `json:"language_profile,omitempty"`
	Tag             *string `json:"tag,omitempty"`
	Search          *bool   `json:"search,omitempty"`
	CutoffSearch    *bool   `json:"cutoff_search,omitempty"`

	Extras map[string]any `json:"extras,omitempty"`
}

// Trakt holds the non-secret flags of the trakt section. The OAuth client
// credentials and authorization block are secrets.
type Trakt struct {
	Enabled *bool `json:"enabled,omitempty"`

	Extras map[string]any `json:"extras,omitempty"`
}

// Enumerations accepted by the importer's coercion layer. A value outside
// the enumeration degrades to the section's extras instead of failing.
var (
	SyncModes          = []string{"append", "sync"}
	RadarrAvailability = []string{"announced", "cinemas", "released", "db"}
	SonarrMonitor      = []string{"all", "future", "missing", "existing", "pilot", "first", "latest", "none"}
	SonarrSeriesTypes  = []string{"standard", "daily", "anime"}
)

// Enabled helpers used by the validator; a missing section or flag counts
// as disabled.

func (p *Plex) IsEnabled() bool     { return p != nil && p.Enabled != nil && *p.Enabled }
func (t *TMDb) IsEnabled() bool     { return t != nil && t.Enabled != nil && *t.Enabled }
func (t *Tautulli) IsEnabled() bool { return t != nil && t.Enabled != nil && *t.Enabled }
func (m *MDBList) IsEnabled() bool  { return m != nil && m.Enabled != nil && *m.Enabled }
func (r *Radarr) IsEnabled() bool   { return r != nil && r.Enabled != nil && *r.Enabled }
func (s *Sonarr) IsEnabled() bool   { return s != nil && s.Enabled != nil && *s.Enabled }
func (t *Trakt) IsEnabled() bool    { return t != nil && t.Enabled != nil && *t.Enabled }
