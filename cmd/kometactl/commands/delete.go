package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/systmms/kometactl/internal/config"
)

func NewDeleteCommand(cfg *config.Config) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "delete <name>",
		Short: "Delete a stored configuration and its sealed secrets",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := args[0]

			if !force {
				prompt := fmt.Sprintf("Delete configuration '%s' and its sealed secrets?", name)
				if cfg.Store().HasEnvelope(name) {
					prompt += " The secrets cannot be recovered."
				}
				if !cfg.Confirm(prompt) {
					return fmt.Errorf("aborted; use --force to skip confirmation")
				}
			}

			if err := cfg.Store().Delete(name); err != nil {
				return err
			}

			cfg.Logger.Info("Deleted '%s'", name)
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Delete without confirmation")

	return cmd
}
