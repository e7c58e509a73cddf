package commands

import (
	"bufio"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/systmms/kometactl/internal/config"
	"github.com/systmms/kometactl/internal/importer"
	"github.com/systmms/kometactl/internal/masking"
	"github.com/systmms/kometactl/internal/secrets"
)

func NewSecretsCommand(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "secrets",
		Short: "Inspect and edit sealed credentials",
	}

	cmd.AddCommand(
		newSecretsShowCommand(cfg),
		newSecretsSetCommand(cfg),
		newSecretsExtractCommand(cfg),
	)

	return cmd
}

func newSecretsShowCommand(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "show <name>",
		Short: "List stored credentials in masked form",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rec, err := openStoredRecord(cfg, args[0])
			if err != nil {
				return err
			}
			if rec == nil || rec.IsEmpty() {
				cfg.Logger.Info("No credentials stored for '%s'", args[0])
				return nil
			}

			printFieldTable(rec.Fields())
			return nil
		},
	}
}

func newSecretsSetCommand(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "set <name> <service> <field> [value]",
		Short: "Set a single credential field",
		Long: `Set one credential for a stored configuration, sealing the updated record.
Omit the value to read it from stdin, which keeps it out of shell history:

  kometactl secrets set homelab plex token
  echo -n "$TOKEN" | kometactl secrets set homelab radarr token`,
		Args: cobra.RangeArgs(3, 4),
		RunE: func(cmd *cobra.Command, args []string) error {
			name, service, field := args[0], args[1], args[2]

			var value string
			if len(args) == 4 {
				value = args[3]
			} else {
				if !cfg.NonInteractive {
					fmt.Fprintf(os.Stderr, "Value for %s.%s: ", service, field)
				}
				scanner := bufio.NewScanner(os.Stdin)
				if !scanner.Scan() {
					return fmt.Errorf("no value provided on stdin")
				}
				value = scanner.Text()
			}
			if value == "" {
				return fmt.Errorf("refusing to set an empty credential value")
			}

			rec, err := openStoredRecord(cfg, name)
			if err != nil {
				return err
			}
			if rec == nil {
				rec = &secrets.Record{}
			}

			if err := rec.SetField(service, field, value); err != nil {
				return err
			}

			if err := sealRecord(cfg, name, rec); err != nil {
				return err
			}

			cfg.Logger.Info("Updated %s.%s for '%s' (%s)", service, field, name, masking.Mask(value))
			return nil
		},
	}
}

func newSecretsExtractCommand(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "extract <file>",
		Short: "Show which credentials a document carries, without storing anything",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("failed to read document: %w", err)
			}

			rec, err := importer.ExtractSecrets(data)
			if err != nil {
				return err
			}
			if rec.IsEmpty() {
				cfg.Logger.Info("Document contains no credentials")
				return nil
			}

			printFieldTable(rec.Fields())
			return nil
		},
	}
}

func printFieldTable(fields []secrets.Field) {
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "SERVICE\tFIELD\tVALUE")
	for _, f := range fields {
		fmt.Fprintf(w, "%s\t%s\t%s\n", f.Service, f.Name, masking.Mask(f.Value))
	}
	_ = w.Flush()
}
