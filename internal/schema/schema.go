// Package schema is the structural shape layer: it accepts or rejects the
// layout of a document before the semantic validator runs. It knows field
// types, not field meaning — a well-typed document with an enabled service
// and no credentials passes here and warns there.
package schema

import (
	"strings"

	"github.com/xeipuuv/gojsonschema"
	"gopkg.in/yaml.v3"

	kerrors "github.com/systmms/kometactl/internal/errors"
	"github.com/systmms/kometactl/internal/validation"
)

// documentSchema types the known sections. Unknown keys are always allowed;
// they are the extras the importer preserves. Every known field also admits
// null because hand-authored YAML routinely leaves values blank.
const documentSchema = `{
  "type": "object",
  "additionalProperties": true,
  "properties": {
    "settings": {
      "type": ["object", "null"],
      "additionalProperties": true,
      "properties": {
        "cache": {"type": ["boolean", "null"]},
        "cache_expiration": {"type": ["integer", "null"]},
        "asset_directory": {"type": ["string", "null"]},
        "sync_mode": {"type": ["string", "null"]},
        "minimum_items": {"type": ["integer", "null"]},
        "delete_below_minimum": {"type": ["boolean", "null"]},
        "run_again_delay": {"type": ["integer", "null"]},
        "show_unmanaged": {"type": ["boolean", "null"]},
        "show_missing": {"type": ["boolean", "null"]}
      }
    },
    "libraries": {
      "type": ["object", "null"],
      "additionalProperties": {
        "type": ["object", "null"],
        "additionalProperties": true,
        "properties": {
          "collection_files": {"type": ["array", "null"]},
          "overlay_files": {"type": ["array", "null"]},
          "metadata_files": {"type": ["array", "null"]}
        }
      }
    },
    "plex": {
      "type": ["object", "null"],
      "additionalProperties": true,
      "properties": {
        "url": {"type": ["string", "null"]},
        "token": {"type": ["string", "null"]},
        "enabled": {"type": ["boolean", "null"]},
        "timeout": {"type": ["integer", "null"]},
        "clean_bundles": {"type": ["boolean", "null"]},
        "empty_trash": {"type": ["boolean", "null"]},
        "optimize": {"type": ["boolean", "null"]},
        "db_cache": {"type": ["integer", "null"]}
      }
    },
    "tmdb": {
      "type": ["object", "null"],
      "additionalProperties": true,
      "properties": {
        "apikey": {"type": ["string", "null"]},
        "enabled": {"type": ["boolean", "null"]},
        "language": {"type": ["string", "null"]},
        "region": {"type": ["string", "null"]},
        "cache_expiration": {"type": ["integer", "null"]}
      }
    },
    "tautulli": {
      "type": ["object", "null"],
      "additionalProperties": true,
      "properties": {
        "url": {"type": ["string", "null"]},
        "apikey": {"type": ["string", "null"]},
        "enabled": {"type": ["boolean", "null"]}
      }
    },
    "mdblist": {
      "type": ["object", "null"],
      "additionalProperties": true,
      "properties": {
        "apikey": {"type": ["string", "null"]},
        "enabled": {"type": ["boolean", "null"]},
        "cache_expiration": {"type": ["integer", "null"]}
      }
    },
    "radarr": {
      "type": ["object", "null"],
      "additionalProperties": true,
      "properties": {
        "url": {"type": ["string", "null"]},
        "token": {"type": ["string", "null"]},
        "enabled": {"type": ["boolean", "null"]},
        "add_missing": {"type": ["boolean", "null"]},
        "add_existing": {"type": ["boolean", "null"]},
        "root_folder_path": {"type": ["string", "null"]},
        "monitor": {"type": ["boolean", "null"]},
        "availability": {"type": ["string", "null"]},
        "quality_profile": {"type": ["string", "null"]},
        "tag": {"type": ["string", "null"]},
        "search": {"type": ["boolean", "null"]}
      }
    },
    "sonarr": {
      "type": ["object", "null"],
      "additionalProperties": true,
      "properties": {
        "url": {"type": ["string", "null"]},
        "token": {"type": ["string", "null"]},
        "enabled": {"type": ["boolean", "null"]},
        "add_missing": {"type": ["boolean", "null"]},
        "add_existing": {"type": ["boolean", "null"]},
        "root_folder_path": {"type": ["string", "null"]},
        "monitor": {"type": ["string", "null"]},
        "series_type": {"type": ["string", "null"]},
        "season_folder": {"type": ["boolean", "null"]},
        "quality_profile": {"type": ["string", "null"]},
        "language_profile": {"type": ["string", "null"]},
        "tag": {"type": ["string", "null"]},
        "search": {"type": ["boolean", "null"]},
        "cutoff_search": {"type": ["boolean", "null"]}
      }
    },
    "trakt": {
      "type": ["object", "null"],
      "additionalProperties": true,
      "properties": {
        "client_id": {"type": ["string", "null"]},
        "client_secret": {"type": ["string", "null"]},
        "pin": {"type": ["string", "null"]},
        "enabled": {"type": ["boolean", "null"]},
        "authorization": {
          "type": ["object", "null"],
          "additionalProperties": true,
          "properties": {
            "access_token": {"type": ["string", "null"]},
            "token_type": {"type": ["string", "null"]},
            "expires_in": {"type": ["integer", "null"]},
            "refresh_token": {"type": ["string", "null"]},
            "scope": {"type": ["string", "null"]}
          }
        }
      }
    }
  }
}`

// CheckDocument validates the structural shape of document text and reports
// one issue per violation, located by field path. Only malformed YAML fails.
func CheckDocument(documentText []byte) ([]validation.Issue, error) {
	var doc any
	if err := yaml.Unmarshal(documentText, &doc); err != nil {
		return nil, kerrors.ParseError{Message: err.Error(), Err: err}
	}
	if doc == nil {
		return nil, nil
	}
	if _, ok := doc.(map[string]any); !ok {
		return []validation.Issue{{
			Kind:    validation.KindError,
			Message: "document root must be a mapping",
		}}, nil
	}
	return Check(doc)
}

// Check validates an already-decoded document tree.
func Check(doc any) ([]validation.Issue, error) {
	result, err := gojsonschema.Validate(
		gojsonschema.NewStringLoader(documentSchema),
		gojsonschema.NewGoLoader(doc),
	)
	if err != nil {
		return nil, kerrors.ShapeError{Message: "shape check failed: " + err.Error()}
	}

	if result.Valid() {
		return nil, nil
	}

	issues := make([]validation.Issue, 0, len(result.Errors()))
	for _, re := range result.Errors() {
		issues = append(issues, validation.Issue{
			Kind:    validation.KindError,
			Path:    fieldPath(re.Field()),
			Message: re.Description(),
		})
	}
	return issues, nil
}

func fieldPath(field string) []string {
	if field == "" || field == gojsonschema.STRING_CONTEXT_ROOT {
		return nil
	}
	return strings.Split(field, ".")
}
