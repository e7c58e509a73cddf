package commands

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/systmms/kometactl/internal/config"
	"github.com/systmms/kometactl/internal/importer"
	"github.com/systmms/kometactl/internal/model"
	"github.com/systmms/kometactl/internal/schema"
	"github.com/systmms/kometactl/internal/secrets"
	"github.com/systmms/kometactl/internal/validation"
)

func NewValidateCommand(cfg *config.Config) *cobra.Command {
	var (
		filePath string
		format   string
	)

	cmd := &cobra.Command{
		Use:   "validate [name]",
		Short: "Check a configuration for structural and semantic problems",
		Long: `Run the shape check and semantic validation against a stored configuration
or a raw document file.

Shape problems (wrong field types, non-mapping root) are errors and fail the
check. Semantic findings (enabled service without credentials, library without
files) are warnings and never fail it.

Examples:
  kometactl validate homelab
  kometactl validate --file config.yml
  kometactl validate homelab --format json`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if format != "text" && format != "json" {
				return fmt.Errorf("unknown format '%s', use text or json", format)
			}

			var (
				cfgModel    *model.Config
				rec         *secrets.Record
				shapeIssues []validation.Issue
			)

			switch {
			case filePath != "":
				data, err := os.ReadFile(filePath)
				if err != nil {
					return fmt.Errorf("failed to read document: %w", err)
				}
				shapeIssues, err = schema.CheckDocument(data)
				if err != nil {
					return err
				}
				if len(shapeIssues) == 0 {
					if cfgModel, err = importer.Parse(data, true); err != nil {
						return err
					}
					if rec, err = importer.ExtractSecrets(data); err != nil {
						return err
					}
				}
			case len(args) == 1:
				entry, err := cfg.Store().LoadConfig(args[0])
				if err != nil {
					return err
				}
				cfgModel = entry.Config
				if rec, err = openStoredRecord(cfg, args[0]); err != nil {
					return err
				}
			default:
				return fmt.Errorf("provide a stored configuration name or --file")
			}

			var report *validation.Report
			if len(shapeIssues) > 0 {
				// A misshapen document has no model; report the shape findings alone.
				report = &validation.Report{}
				report.AddShapeIssues(shapeIssues)
			} else {
				report = validation.Validate(cfgModel, rec)
			}

			if format == "json" {
				data, err := json.MarshalIndent(report, "", "  ")
				if err != nil {
					return err
				}
				fmt.Println(string(data))
			} else {
				for _, issue := range report.Errors {
					cfg.Logger.Error("%s", issue.String())
				}
				for _, issue := range report.Warnings {
					cfg.Logger.Warn("%s", issue.String())
				}
				if report.Valid && len(report.Warnings) == 0 {
					cfg.Logger.Info("Configuration is valid")
				} else if report.Valid {
					cfg.Logger.Info("Configuration is valid (%d warning(s))", len(report.Warnings))
				}
			}

			if !report.Valid {
				return fmt.Errorf("validation failed with %d error(s)", len(report.Errors))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&filePath, "file", "", "Validate a document file instead of a stored configuration")
	cmd.Flags().StringVar(&format, "format", "text", "Output format (text|json)")

	return cmd
}
