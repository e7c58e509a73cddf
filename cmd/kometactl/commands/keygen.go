package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/systmms/kometactl/internal/config"
	"github.com/systmms/kometactl/internal/envelope"
	"github.com/systmms/kometactl/internal/keysource"
)

func NewKeygenCommand(cfg *config.Config) *cobra.Command {
	var (
		save   bool
		remove bool
	)

	cmd := &cobra.Command{
		Use:   "keygen",
		Short: "Generate a master key for sealing credentials",
		Long: `Generate a fresh 256-bit master key.

By default the key is printed once and never stored; export it as
` + keysource.EnvVar + ` or pass --save to put it in the OS keyring.

Generating a new key does not re-seal existing envelopes. Secrets sealed
under an old key stay readable only with that key.

Examples:
  kometactl keygen
  kometactl keygen --save
  kometactl keygen --remove`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if remove {
				if save {
					return fmt.Errorf("--save and --remove are mutually exclusive")
				}
				if err := keysource.Remove(); err != nil {
					return err
				}
				cfg.Logger.Info("Removed master key from keyring")
				return nil
			}

			encoded, err := envelope.GenerateMasterKey()
			if err != nil {
				return err
			}

			if save {
				if err := keysource.Store(encoded); err != nil {
					return err
				}
				cfg.Logger.Info("Saved master key to OS keyring")
				return nil
			}

			// The only time the key is ever printed. Stdout so it can be piped.
			fmt.Println(encoded)
			cfg.Logger.Warn("Store this key safely; without it sealed secrets are unrecoverable")
			return nil
		},
	}

	cmd.Flags().BoolVar(&save, "save", false, "Save the key to the OS keyring instead of printing it")
	cmd.Flags().BoolVar(&remove, "remove", false, "Remove a previously saved key from the OS keyring")

	return cmd
}
