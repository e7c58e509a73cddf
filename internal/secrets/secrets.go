// Package secrets defines the credential-only counterpart to the
// configuration model. A Record exists in plaintext only transiently in
// memory; at rest it is always sealed inside an envelope.
package secrets

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// Record maps each known service to its credential fields. Services without
// credentials stay nil; Extras covers services the schema does not know.
// An all-nil Record ("no secrets") and a Record with empty sub-objects are
// different intents and must stay distinguishable.
type Record struct {
	Plex     *PlexSecrets     `json:"plex,omitempty"`
	TMDb     *TMDbSecrets     `json:"tmdb,omitempty"`
	Tautulli *TautulliSecrets `json:"tautulli,omitempty"`
	MDBList  *MDBListSecrets  `json:"mdblist,omitempty"`
	Radarr   *ArrSecrets      `json:"radarr,omitempty"`
	Sonarr   *ArrSecrets      `json:"sonarr,omitempty"`
	Trakt    *TraktSecrets    `json:"trakt,omitempty"`

	Extras map[string]map[string]string `json:"extras,omitempty"`
}

// PlexSecrets holds the plex server credentials.
type PlexSecrets struct {
	URL   string `json:"url,omitempty"`
	Token string `json:"token,omitempty"`
}

// TMDbSecrets holds the TMDb API key.
type TMDbSecrets struct {
	APIKey string `json:"apikey,omitempty"`
}

// TautulliSecrets holds the Tautulli connection credentials.
type TautulliSecrets struct {
	URL    string `json:"url,omitempty"`
	APIKey string `json:"apikey,omitempty"`
}

// MDBListSecrets holds the MDBList API key.
type MDBListSecrets struct {
	APIKey string `json:"apikey,omitempty"`
}

// ArrSecrets holds the connection credentials shared by Radarr and Sonarr.
type ArrSecrets struct {
	URL   string `json:"url,omitempty"`
	Token string `json:"token,omitempty"`
}

// TraktSecrets holds the Trakt OAuth client credentials and token pair.
type TraktSecrets struct {
	ClientID      string              `json:"client_id,omitempty"`
	ClientSecret  string              `json:"client_secret,omitempty"`
	PIN           string              `json:"pin,omitempty"`
	Authorization *TraktAuthorization `json:"authorization,omitempty"`
}

// TraktAuthorization is the OAuth token pair issued to Trakt clients.
type TraktAuthorization struct {
	AccessToken  string `json:"access_token,omitempty"`
	TokenType    string `json:"token_type,omitempty"`
	ExpiresIn    int    `json:"expires_in,omitempty"`
	RefreshToken string `json:"refresh_token,omitempty"`
	Scope        string `json:"scope,omitempty"`
}

// IsEmpty reports whether the record carries no service entries at all.
// A record with a present-but-blank sub-object is not empty.
func (r *Record) IsEmpty() bool {
	if r == nil {
		return true
	}
	return r.Plex == nil && r.TMDb == nil && r.Tautulli == nil &&
		r.MDBList == nil && r.Radarr == nil && r.Sonarr == nil &&
		r.Trakt == nil && len(r.Extras) == 0
}

// Marshal encodes the record as JSON, the payload format sealed into
// envelopes.
func (r *Record) Marshal() ([]byte, error) {
	return json.Marshal(r)
}

// Unmarshal decodes a record from its JSON payload form.
func Unmarshal(data []byte) (*Record, error) {
	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("failed to decode secrets record: %w", err)
	}
	return &rec, nil
}

// Merge applies overlay on top of r and returns the result. Fields the
// overlay leaves blank retain their prior values; merging never deletes.
func (r *Record) Merge(overlay *Record) *Record {
	if r == nil {
		r = &Record{}
	}
	out := *r
	if overlay == nil {
		return &out
	}

	if overlay.Plex != nil {
		merged := mergePair(valueOr(out.Plex), *overlay.Plex)
		out.Plex = &PlexSecrets{URL: merged.URL, Token: merged.Token}
	}
	if overlay.TMDb != nil {
		cur := TMDbSecrets{}
		if out.TMDb != nil {
			cur = *out.TMDb
		}
		out.TMDb = &TMDbSecrets{APIKey: pick(overlay.TMDb.APIKey, cur.APIKey)}
	}
	if overlay.Tautulli != nil {
		cur := TautulliSecrets{}
		if out.Tautulli != nil {
			cur = *out.Tautulli
		}
		out.Tautulli = &TautulliSecrets{
			URL:    pick(overlay.Tautulli.URL, cur.URL),
			APIKey: pick(overlay.Tautulli.APIKey, cur.APIKey),
		}
	}
	if overlay.MDBList != nil {
		cur := MDBListSecrets{}
		if out.MDBList != nil {
			cur = *out.MDBList
		}
		out.MDBList = &MDBListSecrets{APIKey: pick(overlay.MDBList.APIKey, cur.APIKey)}
	}
	if overlay.Radarr != nil {
		merged := mergeArr(out.Radarr, *overlay.Radarr)
		out.Radarr = &merged
	}
	if overlay.Sonarr != nil {
		merged := mergeArr(out.Sonarr, *overlay.Sonarr)
		out.Sonarr = &merged
	}
	if overlay.Trakt != nil {
		out.Trakt = mergeTrakt(out.Trakt, overlay.Trakt)
	}
	if len(overlay.Extras) > 0 {
		merged := make(map[string]map[string]string, len(out.Extras)+len(overlay.Extras))
		for service, fields := range out.Extras {
			copied := make(map[string]string, len(fields))
			for k, v := range fields {
				copied[k] = v
			}
			merged[service] = copied
		}
		for service, fields := range overlay.Extras {
			if merged[service] == nil {
				merged[service] = make(map[string]string, len(fields))
			}
			for k, v := range fields {
				if v != "" {
					merged[service][k] = v
				}
			}
		}
		out.Extras = merged
	}

	return &out
}

func valueOr(p *PlexSecrets) PlexSecrets {
	if p == nil {
		return PlexSecrets{}
	}
	return *p
}

func mergePair(current, overlay PlexSecrets) PlexSecrets {
	return PlexSecrets{
		URL:   pick(overlay.URL, current.URL),
		Token: pick(overlay.Token, current.Token),
	}
}

func mergeArr(current *ArrSecrets, overlay ArrSecrets) ArrSecrets {
	cur := ArrSecrets{}
	if current != nil {
		cur = *current
	}
	return ArrSecrets{
		URL:   pick(overlay.URL, cur.URL),
		Token: pick(overlay.Token, cur.Token),
	}
}

func mergeTrakt(current, overlay *TraktSecrets) *TraktSecrets {
	cur := TraktSecrets{}
	if current != nil {
		cur = *current
	}
	out := TraktSecrets{
		ClientID:      pick(overlay.ClientID, cur.ClientID),
		ClientSecret:  pick(overlay.ClientSecret, cur.ClientSecret),
		PIN:           pick(overlay.PIN, cur.PIN),
		Authorization: cur.Authorization,
	}
	if overlay.Authorization != nil {
		auth := TraktAuthorization{}
		if cur.Authorization != nil {
			auth = *cur.Authorization
		}
		out.Authorization = &TraktAuthorization{
			AccessToken:  pick(overlay.Authorization.AccessToken, auth.AccessToken),
			TokenType:    pick(overlay.Authorization.TokenType, auth.TokenType),
			RefreshToken: pick(overlay.Authorization.RefreshToken, auth.RefreshToken),
			Scope:        pick(overlay.Authorization.Scope, auth.Scope),
			ExpiresIn:    auth.ExpiresIn,
		}
		if overlay.Authorization.ExpiresIn != 0 {
			out.Authorization.ExpiresIn = overlay.Authorization.ExpiresIn
		}
	}
	return &out
}

func pick(overlay, current string) string {
	if overlay != "" {
		return overlay
	}
	return current
}

// SetField assigns a single credential field by service and field name,
// creating the service entry if needed. Unknown services land in Extras;
// unknown fields of known services are rejected.
func (r *Record) SetField(service, field, value string) error {
	field = strings.ToLower(field)
	switch strings.ToLower(service) {
	case "plex":
		if r.Plex == nil {
			r.Plex = &PlexSecrets{}
		}
		switch field {
		case "url":
			r.Plex.URL = value
		case "token":
			r.Plex.Token = value
		default:
			return fmt.Errorf("unknown plex credential field %q (url, token)", field)
		}
	case "tmdb":
		if field != "apikey" {
			return fmt.Errorf("unknown tmdb credential field %q (apikey)", field)
		}
		if r.TMDb == nil {
			r.TMDb = &TMDbSecrets{}
		}
		r.TMDb.APIKey = value
	case "tautulli":
		if r.Tautulli == nil {
			r.Tautulli = &TautulliSecrets{}
		}
		switch field {
		case "url":
			r.Tautulli.URL = value
		case "apikey":
			r.Tautulli.APIKey = value
		default:
			return fmt.Errorf("unknown tautulli credential field %q (url, apikey)", field)
		}
	case "mdblist":
		if field != "apikey" {
			return fmt.Errorf("unknown mdblist credential field %q (apikey)", field)
		}
		if r.MDBList == nil {
			r.MDBList = &MDBListSecrets{}
		}
		r.MDBList.APIKey = value
	case "radarr":
		if r.Radarr == nil {
			r.Radarr = &ArrSecrets{}
		}
		if err := setArrField(r.Radarr, "radarr", field, value); err != nil {
			return err
		}
	case "sonarr":
		if r.Sonarr == nil {
			r.Sonarr = &ArrSecrets{}
		}
		if err := setArrField(r.Sonarr, "sonarr", field, value); err != nil {
			return err
		}
	case "trakt":
		if r.Trakt == nil {
			r.Trakt = &TraktSecrets{}
		}
		switch field {
		case "client_id":
			r.Trakt.ClientID = value
		case "client_secret":
			r.Trakt.ClientSecret = value
		case "pin":
			r.Trakt.PIN = value
		default:
			return fmt.Errorf("unknown trakt credential field %q (client_id, client_secret, pin)", field)
		}
	default:
		if r.Extras == nil {
			r.Extras = make(map[string]map[string]string)
		}
		if r.Extras[service] == nil {
			r.Extras[service] = make(map[string]string)
		}
		r.Extras[service][field] = value
	}
	return nil
}

func setArrField(arr *ArrSecrets, service, field, value string) error {
	switch field {
	case "url":
		arr.URL = value
	case "token":
		arr.Token = value
	default:
		return fmt.Errorf("unknown %s credential field %q (url, token)", service, field)
	}
	return nil
}

// Field is one named credential in a record, for display listings.
type Field struct {
	Service string
	Name    string
	Value   string
}

// Fields returns every non-blank credential as a (service, field, value)
// triple in canonical service order, extras last in sorted order.
func (r *Record) Fields() []Field {
	if r == nil {
		return nil
	}
	var fields []Field
	add := func(service, name, value string) {
		if value != "" {
			fields = append(fields, Field{Service: service, Name: name, Value: value})
		}
	}
	if r.Plex != nil {
		add("plex", "url", r.Plex.URL)
		add("plex", "token", r.Plex.Token)
	}
	if r.TMDb != nil {
		add("tmdb", "apikey", r.TMDb.APIKey)
	}
	if r.Tautulli != nil {
		add("tautulli", "url", r.Tautulli.URL)
		add("tautulli", "apikey", r.Tautulli.APIKey)
	}
	if r.MDBList != nil {
		add("mdblist", "apikey", r.MDBList.APIKey)
	}
	if r.Radarr != nil {
		add("radarr", "url", r.Radarr.URL)
		add("radarr", "token", r.Radarr.Token)
	}
	if r.Sonarr != nil {
		add("sonarr", "url", r.Sonarr.URL)
		add("sonarr", "token", r.Sonarr.Token)
	}
	if r.Trakt != nil {
		add("trakt", "client_id", r.Trakt.ClientID)
		add("trakt", "client_secret", r.Trakt.ClientSecret)
		add("trakt", "pin", r.Trakt.PIN)
		if r.Trakt.Authorization != nil {
			add("trakt", "authorization.access_token", r.Trakt.Authorization.AccessToken)
			add("trakt", "authorization.refresh_token", r.Trakt.Authorization.RefreshToken)
		}
	}
	services := make([]string, 0, len(r.Extras))
	for service := range r.Extras {
		services = append(services, service)
	}
	sort.Strings(services)
	for _, service := range services {
		names := make([]string, 0, len(r.Extras[service]))
		for name := range r.Extras[service] {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			add(service, name, r.Extras[service][name])
		}
	}
	return fields
}

// Values returns every non-blank credential value in the record, for use
// with logging.Redact before any record-adjacent text reaches output.
func (r *Record) Values() []string {
	if r == nil {
		return nil
	}
	var vals []string
	add := func(v string) {
		if v != "" {
			vals = append(vals, v)
		}
	}
	if r.Plex != nil {
		add(r.Plex.URL)
		add(r.Plex.Token)
	}
	if r.TMDb != nil {
		add(r.TMDb.APIKey)
	}
	if r.Tautulli != nil {
		add(r.Tautulli.URL)
		add(r.Tautulli.APIKey)
	}
	if r.MDBList != nil {
		add(r.MDBList.APIKey)
	}
	if r.Radarr != nil {
		add(r.Radarr.URL)
		add(r.Radarr.Token)
	}
	if r.Sonarr != nil {
		add(r.Sonarr.URL)
		add(r.Sonarr.Token)
	}
	if r.Trakt != nil {
		add(r.Trakt.ClientID)
		add(r.Trakt.ClientSecret)
		add(r.Trakt.PIN)
		if r.Trakt.Authorization != nil {
			add(r.Trakt.Authorization.AccessToken)
			add(r.Trakt.Authorization.RefreshToken)
		}
	}
	for _, fields := range r.Extras {
		for _, v := range fields {
			add(v)
		}
	}
	return vals
}
