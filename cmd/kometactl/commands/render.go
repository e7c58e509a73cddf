package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/systmms/kometactl/internal/config"
	"github.com/systmms/kometactl/internal/renderer"
	"github.com/systmms/kometactl/internal/secrets"
)

func NewRenderCommand(cfg *config.Config) *cobra.Command {
	var (
		mode       string
		outputPath string
		noComment  bool
		reveal     bool
	)

	cmd := &cobra.Command{
		Use:   "render <name>",
		Short: "Render a stored configuration back to a Kometa config document",
		Long: `Serialize a stored configuration to YAML with its credentials spliced in
under a disclosure mode:

  full     - plaintext credentials (requires --reveal and --out)
  masked   - credentials abbreviated to their first and last characters
  template - credentials replaced with a <<fill_in>> placeholder

Examples:
  kometactl render homelab
  kometactl render homelab --mode full --reveal --out config.yml
  kometactl render homelab --mode template --out starter.yml`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := args[0]

			renderMode, err := renderer.ParseMode(mode)
			if err != nil {
				return err
			}

			if renderMode == renderer.ModeFull {
				if !reveal {
					return fmt.Errorf("full mode writes plaintext secrets; pass --reveal to confirm")
				}
				if outputPath == "" {
					return fmt.Errorf("--out is required in full mode (explicit opt-in to write plaintext secrets)")
				}
			}

			entry, err := cfg.Store().LoadConfig(name)
			if err != nil {
				return err
			}

			// Template mode carries no information about real values, so the
			// envelope stays sealed and no master key is needed.
			var rec *secrets.Record
			if renderMode != renderer.ModeTemplate {
				rec, err = openStoredRecord(cfg, name)
				if err != nil {
					return err
				}
			}

			output, err := renderer.Render(entry.Config, rec, renderMode, !noComment)
			if err != nil {
				return err
			}

			if outputPath == "" {
				_, err := os.Stdout.Write(output)
				return err
			}

			if err := os.WriteFile(outputPath, output, 0600); err != nil {
				return fmt.Errorf("failed to write output: %w", err)
			}

			if renderMode == renderer.ModeFull {
				cfg.Logger.Warn("File contains secrets - ensure it's added to .gitignore")
			}
			cfg.Logger.Info("Rendered '%s' to %s (%s mode)", name, outputPath, renderMode)
			return nil
		},
	}

	cmd.Flags().StringVar(&mode, "mode", string(renderer.ModeMasked), "Disclosure mode (full|masked|template)")
	cmd.Flags().StringVar(&outputPath, "out", "", "Output file path (default: stdout, except full mode)")
	cmd.Flags().BoolVar(&noComment, "no-comment", false, "Omit the leading provenance comment")
	cmd.Flags().BoolVar(&reveal, "reveal", false, "Confirm writing plaintext secrets in full mode")

	return cmd
}
