package importer

import (
	"github.com/systmms/kometactl/internal/model"
	"github.com/systmms/kometactl/internal/secrets"
)

// ExtractSecrets walks the document for the credential-shaped fields of each
// known service and returns them as a secrets record. Fields outside the
// known credential positions are never copied, regardless of what their
// values look like. A document with no credentials yields an empty record;
// callers must not persist an envelope for an empty record.
func ExtractSecrets(documentText []byte) (*secrets.Record, error) {
	doc, err := decodeDocument(documentText)
	if err != nil {
		return nil, err
	}

	rec := &secrets.Record{}

	if sec, ok := doc[model.SectionPlex].(map[string]any); ok {
		url := stringField(sec, "url")
		token := stringField(sec, "token")
		if url != "" || token != "" {
			rec.Plex = &secrets.PlexSecrets{URL: url, Token: token}
		}
	}

	if sec, ok := doc[model.SectionTMDb].(map[string]any); ok {
		if key := stringField(sec, "apikey"); key != "" {
			rec.TMDb = &secrets.TMDbSecrets{APIKey: key}
		}
	}

	if sec, ok := doc[model.SectionTautulli].(map[string]any); ok {
		url := stringField(sec, "url")
		key := stringField(sec, "apikey")
		if url != "" || key != "" {
			rec.Tautulli = &secrets.TautulliSecrets{URL: url, APIKey: key}
		}
	}

	if sec, ok := doc[model.SectionMDBList].(map[string]any); ok {
		if key := stringField(sec, "apikey"); key != "" {
			rec.MDBList = &secrets.MDBListSecrets{APIKey: key}
		}
	}

	if arr := extractArr(doc, model.SectionRadarr); arr != nil {
		rec.Radarr = arr
	}
	if arr := extractArr(doc, model.SectionSonarr); arr != nil {
		rec.Sonarr = arr
	}

	if sec, ok := doc[model.SectionTrakt].(map[string]any); ok {
		trakt := &secrets.TraktSecrets{
			ClientID:     stringField(sec, "client_id"),
			ClientSecret: stringField(sec, "client_secret"),
			PIN:          stringField(sec, "pin"),
		}
		if auth, ok := sec["authorization"].(map[string]any); ok {
			parsed := &secrets.TraktAuthorization{
				AccessToken:  stringField(auth, "access_token"),
				TokenType:    stringField(auth, "token_type"),
				RefreshToken: stringField(auth, "refresh_token"),
				Scope:        stringField(auth, "scope"),
				ExpiresIn:    intField(auth, "expires_in"),
			}
			if *parsed != (secrets.TraktAuthorization{}) {
				trakt.Authorization = parsed
			}
		}
		if trakt.ClientID != "" || trakt.ClientSecret != "" || trakt.PIN != "" || trakt.Authorization != nil {
			rec.Trakt = trakt
		}
	}

	return rec, nil
}

func extractArr(doc map[string]any, section string) *secrets.ArrSecrets {
	sec, ok := doc[section].(map[string]any)
	if !ok {
		return nil
	}
	url := stringField(sec, "url")
	token := stringField(sec, "token")
	if url == "" && token == "" {
		return nil
	}
	return &secrets.ArrSecrets{URL: url, Token: token}
}

func stringField(sec map[string]any, key string) string {
	if s, ok := sec[key].(string); ok {
		return s
	}
	return ""
}

func intField(sec map[string]any, key string) int {
	switch v := sec[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	}
	return 0
}
