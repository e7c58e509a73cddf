package commands

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/systmms/kometactl/internal/config"
)

func NewListCommand(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List stored configurations",
		RunE: func(cmd *cobra.Command, args []string) error {
			entries, err := cfg.Store().List()
			if err != nil {
				return err
			}
			if len(entries) == 0 {
				cfg.Logger.Info("No stored configurations; run 'kometactl import' first")
				return nil
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tLIBRARIES\tSECRETS\tUPDATED\tID")
			for _, entry := range entries {
				libraries := 0
				if entry.Config != nil {
					libraries = len(entry.Config.Libraries)
				}
				sealed := "no"
				if cfg.Store().HasEnvelope(entry.Name) {
					sealed = "yes"
				}
				fmt.Fprintf(w, "%s\t%d\t%s\t%s\t%s\n",
					entry.Name, libraries, sealed,
					entry.UpdatedAt.Format("2006-01-02 15:04"), entry.ID)
			}
			return w.Flush()
		},
	}
}
