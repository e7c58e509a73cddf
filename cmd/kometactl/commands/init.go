package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/systmms/kometactl/internal/config"
)

const starterDocument = `# Kometa configuration starter.
# Fill in the <<fill_in>> placeholders, then run:
#   kometactl import kometa.yml

libraries:
  Movies:
    collection_files:
      - default: basic
      - default: imdb
  TV Shows:
    collection_files:
      - default: basic

settings:
  cache: true
  cache_expiration: 60
  sync_mode: append

plex:
  url: <<fill_in>>
  token: <<fill_in>>
  timeout: 60

tmdb:
  apikey: <<fill_in>>
  language: en

# Optional services. Uncomment and fill in what you use.
# tautulli:
#   url: <<fill_in>>
#   apikey: <<fill_in>>
#
# radarr:
#   url: <<fill_in>>
#   token: <<fill_in>>
#   add_missing: false
#   root_folder_path: /movies
#
# sonarr:
#   url: <<fill_in>>
#   token: <<fill_in>>
#
# trakt:
#   client_id: <<fill_in>>
#   client_secret: <<fill_in>>
#   authorization:
#     access_token: <<fill_in>>
`

func NewInitCommand(cfg *config.Config) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init [file]",
		Short: "Write a starter Kometa config document",
		Long: `Write a commented starter document to fill in and import.

Examples:
  kometactl init
  kometactl init my-config.yml`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "kometa.yml"
			if len(args) == 1 {
				path = args[0]
			}

			if _, err := os.Stat(path); err == nil && !force {
				return fmt.Errorf("%s already exists, use --force to overwrite", path)
			}

			if err := os.WriteFile(path, []byte(starterDocument), 0644); err != nil {
				return fmt.Errorf("failed to write starter document: %w", err)
			}

			cfg.Logger.Info("Wrote %s", path)
			cfg.Logger.Info("Fill in the placeholders, then run: kometactl import %s", path)
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing file")

	return cmd
}
