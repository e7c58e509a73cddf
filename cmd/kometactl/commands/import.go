package commands

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/systmms/kometactl/internal/config"
	"github.com/systmms/kometactl/internal/importer"
	"github.com/systmms/kometactl/internal/schema"
	"github.com/systmms/kometactl/internal/validation"
)

func NewImportCommand(cfg *config.Config) *cobra.Command {
	var (
		name       string
		dropExtras bool
	)

	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Import a Kometa config file into the store",
		Long: `Parse a Kometa config document, split credentials out of it, and store
the two halves separately: the typed configuration as plain JSON and the
credentials sealed in an encrypted envelope.

Unknown sections and fields are preserved verbatim so the document round-trips.
Use --drop-extras to discard them instead.

Examples:
  kometactl import config.yml
  kometactl import config.yml --name homelab
  kometactl import config.yml --drop-extras`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			if name == "" {
				name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
			}

			data, err := os.ReadFile(path)
			if err != nil {
				return fmt.Errorf("failed to read document: %w", err)
			}

			shapeIssues, err := schema.CheckDocument(data)
			if err != nil {
				return err
			}
			if len(shapeIssues) > 0 {
				for _, issue := range shapeIssues {
					cfg.Logger.Error("%s", issue.String())
				}
				return fmt.Errorf("document has %d shape error(s)", len(shapeIssues))
			}

			model, err := importer.Parse(data, !dropExtras)
			if err != nil {
				return err
			}

			rec, err := importer.ExtractSecrets(data)
			if err != nil {
				return err
			}

			report := validation.Validate(model, rec)
			for _, warning := range report.Warnings {
				cfg.Logger.Warn("%s", warning.String())
			}

			entry, err := cfg.Store().SaveConfig(name, model)
			if err != nil {
				return err
			}

			if !rec.IsEmpty() {
				if err := sealRecord(cfg, name, rec); err != nil {
					return err
				}
				cfg.Logger.Info("Sealed %d credential value(s)", len(rec.Values()))
			} else {
				cfg.Logger.Warn("Document contains no credentials; nothing to seal")
			}

			cfg.Logger.Info("Imported '%s' (%d libraries) as %s", name, len(model.Libraries), entry.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Name for the stored configuration (default: file name)")
	cmd.Flags().BoolVar(&dropExtras, "drop-extras", false, "Discard unknown sections and fields instead of preserving them")

	return cmd
}
