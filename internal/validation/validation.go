// Package validation performs the cross-field semantic checks that a
// structural schema cannot express: a service switched on without its
// credentials, a library with nothing to build, a feature missing its
// prerequisite field.
//
// Every finding here is advisory. The document format tolerates semantic
// gaps at the cost of reduced functionality, so the validator reports
// warnings and reserves errors for the structural shape layer.
package validation

import (
	"fmt"
	"sort"
	"strings"

	"github.com/systmms/kometactl/internal/model"
	"github.com/systmms/kometactl/internal/secrets"
)

// IssueKind discriminates blockers from advisories.
type IssueKind string

const (
	KindError   IssueKind = "error"
	KindWarning IssueKind = "warning"
)

// Issue is a single validation finding located by field path.
type Issue struct {
	Kind    IssueKind `json:"kind"`
	Path    []string  `json:"path"`
	Message string    `json:"message"`
}

// PathString renders the issue path in dotted form.
func (i Issue) PathString() string {
	return strings.Join(i.Path, ".")
}

func (i Issue) String() string {
	return fmt.Sprintf("[%s] %s: %s", i.Kind, i.PathString(), i.Message)
}

// Report is the result of validating a configuration model against an
// optional secrets record.
type Report struct {
	Valid    bool    `json:"valid"`
	Errors   []Issue `json:"errors"`
	Warnings []Issue `json:"warnings"`
}

func (r *Report) addError(path []string, message string) {
	r.Errors = append(r.Errors, Issue{Kind: KindError, Path: path, Message: message})
}

func (r *Report) addWarning(path []string, message string) {
	r.Warnings = append(r.Warnings, Issue{Kind: KindWarning, Path: path, Message: message})
}

// AddShapeIssues folds structural findings from the shape layer into the
// report as errors.
func (r *Report) AddShapeIssues(issues []Issue) {
	for _, issue := range issues {
		issue.Kind = KindError
		r.Errors = append(r.Errors, issue)
	}
	r.Valid = len(r.Errors) == 0
}

// Validate runs every semantic rule over the model and the optional secrets
// record. It never fails for business findings; warnings do not affect
// Valid. A nil model is the one caller contract violation.
func Validate(cfg *model.Config, rec *secrets.Record) *Report {
	report := &Report{}

	if cfg == nil {
		report.addError(nil, "no configuration model to validate")
		report.Valid = false
		return report
	}

	checkLibraries(cfg, report)
	checkPlex(cfg, rec, report)
	checkTMDb(cfg, rec, report)
	checkTautulli(cfg, rec, report)
	checkMDBList(cfg, rec, report)
	checkRadarr(cfg, rec, report)
	checkSonarr(cfg, rec, report)
	checkTrakt(cfg, rec, report)

	report.Valid = len(report.Errors) == 0
	return report
}

func checkLibraries(cfg *model.Config, report *Report) {
	if len(cfg.Libraries) == 0 {
		report.addWarning([]string{"libraries"}, "no libraries are configured; nothing will be processed")
		return
	}

	for _, name := range sortedNames(cfg.Libraries) {
		lib := cfg.Libraries[name]
		if !lib.HasFiles() {
			report.addWarning([]string{"libraries", name},
				"library has no collection_files, overlay_files, or metadata_files")
		}
		flagRawRefs(name, "collection_files", lib.CollectionFiles, report)
		flagRawRefs(name, "overlay_files", lib.OverlayFiles, report)
		flagRawRefs(name, "metadata_files", lib.MetadataFiles, report)
	}
}

func flagRawRefs(library, list string, refs []model.FileRef, report *Report) {
	for i, ref := range refs {
		if ref.Kind == model.RefRaw {
			report.addWarning([]string{"libraries", library, fmt.Sprintf("%s[%d]", list, i)},
				"file reference matches no known shape (expected one of: file, default, git, url, repo)")
		}
	}
}

func checkPlex(cfg *model.Config, rec *secrets.Record, report *Report) {
	if !cfg.Plex.IsEnabled() {
		return
	}
	var creds *secrets.PlexSecrets
	if rec != nil {
		creds = rec.Plex
	}
	if creds == nil || creds.URL == "" {
		report.addWarning([]string{"plex", "url"}, "plex is enabled but no server url is stored")
	}
	if creds == nil || creds.Token == "" {
		report.addWarning([]string{"plex", "token"}, "plex is enabled but no token is stored")
	}
}

func checkTMDb(cfg *model.Config, rec *secrets.Record, report *Report) {
	if !cfg.TMDb.IsEnabled() {
		return
	}
	if rec == nil || rec.TMDb == nil || rec.TMDb.APIKey == "" {
		report.addWarning([]string{"tmdb", "apikey"}, "tmdb is enabled but no api key is stored")
	}
}

func checkTautulli(cfg *model.Config, rec *secrets.Record, report *Report) {
	if !cfg.Tautulli.IsEnabled() {
		return
	}
	var creds *secrets.TautulliSecrets
	if rec != nil {
		creds = rec.Tautulli
	}
	if creds == nil || creds.URL == "" {
		report.addWarning([]string{"tautulli", "url"}, "tautulli is enabled but no url is stored")
	}
	if creds == nil || creds.APIKey == "" {
		report.addWarning([]string{"tautulli", "apikey"}, "tautulli is enabled but no api key is stored")
	}
}

func checkMDBList(cfg *model.Config, rec *secrets.Record, report *Report) {
	if !cfg.MDBList.IsEnabled() {
		return
	}
	if rec == nil || rec.MDBList == nil || rec.MDBList.APIKey == "" {
		report.addWarning([]string{"mdblist", "apikey"}, "mdblist is enabled but no api key is stored")
	}
}

func checkRadarr(cfg *model.Config, rec *secrets.Record, report *Report) {
	if !cfg.Radarr.IsEnabled() {
		return
	}
	var creds *secrets.ArrSecrets
	if rec != nil {
		creds = rec.Radarr
	}
	checkArrCreds("radarr", creds, report)

	if boolSet(cfg.Radarr.AddMissing) && strUnset(cfg.Radarr.RootFolderPath) {
		report.addWarning([]string{"radarr", "root_folder_path"},
			"add_missing is enabled but no root_folder_path is set")
	}
}

func checkSonarr(cfg *model.Config, rec *secrets.Record, report *Report) {
	if !cfg.Sonarr.IsEnabled() {
		return
	}
	var creds *secrets.ArrSecrets
	if rec != nil {
		creds = rec.Sonarr
	}
	checkArrCreds("sonarr", creds, report)

	if boolSet(cfg.Sonarr.AddMissing) && strUnset(cfg.Sonarr.RootFolderPath) {
		report.addWarning([]string{"sonarr", "root_folder_path"},
			"add_missing is enabled but no root_folder_path is set")
	}
}

func checkArrCreds(service string, creds *secrets.ArrSecrets, report *Report) {
	if creds == nil || creds.URL == "" {
		report.addWarning([]string{service, "url"}, service+" is enabled but no url is stored")
	}
	if creds == nil || creds.Token == "" {
		report.addWarning([]string{service, "token"}, service+" is enabled but no token is stored")
	}
}

func checkTrakt(cfg *model.Config, rec *secrets.Record, report *Report) {
	if !cfg.Trakt.IsEnabled() {
		return
	}
	var creds *secrets.TraktSecrets
	if rec != nil {
		creds = rec.Trakt
	}
	if creds == nil || creds.ClientID == "" {
		report.addWarning([]string{"trakt", "client_id"}, "trakt is enabled but no client_id is stored")
	}
	if creds == nil || creds.ClientSecret == "" {
		report.addWarning([]string{"trakt", "client_secret"}, "trakt is enabled but no client_secret is stored")
	}
	if creds == nil || creds.Authorization == nil || creds.Authorization.AccessToken == "" {
		report.addWarning([]string{"trakt", "authorization", "access_token"},
			"trakt is enabled but no authorization is stored; complete the device auth flow")
	}
}

func boolSet(v *bool) bool    { return v != nil && *v }
func strUnset(v *string) bool { return v == nil || *v == "" }

func sortedNames(libs map[string]*model.Library) []string {
	names := make([]string, 0, len(libs))
	for name := range libs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
