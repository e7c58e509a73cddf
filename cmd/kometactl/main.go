package main

import (
	"fmt"
	"os"

	"github.com/awnumar/memguard"
	"github.com/spf13/cobra"

	"github.com/systmms/kometactl/cmd/kometactl/commands"
	"github.com/systmms/kometactl/internal/config"
	"github.com/systmms/kometactl/internal/logging"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	// Wipe any protected key material on exit, even via signal.
	memguard.CatchInterrupt()
	defer memguard.Purge()

	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		memguard.Purge()
		os.Exit(1)
	}
}

func run() error {
	// Global flags
	var (
		dataDir        string
		noColor        bool
		debug          bool
		nonInteractive bool
	)

	cfg := &config.Config{}

	rootCmd := &cobra.Command{
		Use:   "kometactl",
		Short: "Manage Kometa configurations with encrypted credentials",
		Long: `kometactl imports Kometa config files, stores their credentials in an
encrypted envelope separate from the rest of the configuration, and renders
documents back out with full, masked, or templated secrets.`,
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logger := logging.New(debug, noColor)

			cfg.DataDir = dataDir
			cfg.Logger = logger
			cfg.NonInteractive = nonInteractive
		},
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data-dir", "", "Data directory (default: $KOMETACTL_DATA_DIR or XDG data dir)")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable colored output")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Enable debug logging")
	rootCmd.PersistentFlags().BoolVar(&nonInteractive, "non-interactive", false, "Non-interactive mode")

	rootCmd.AddCommand(
		commands.NewInitCommand(cfg),
		commands.NewImportCommand(cfg),
		commands.NewRenderCommand(cfg),
		commands.NewValidateCommand(cfg),
		commands.NewListCommand(cfg),
		commands.NewDeleteCommand(cfg),
		commands.NewSecretsCommand(cfg),
		commands.NewKeygenCommand(cfg),
		commands.NewDoctorCommand(cfg),
		commands.NewCompletionCommand(cfg),
	)

	return rootCmd.Execute()
}
