package commands

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/zalando/go-keyring"

	"github.com/systmms/kometactl/internal/config"
	"github.com/systmms/kometactl/internal/envelope"
	"github.com/systmms/kometactl/internal/keysource"
	"github.com/systmms/kometactl/internal/validation"
)

type checkResult struct {
	Name   string
	Status string
	Detail string
}

func NewDoctorCommand(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check the local setup and stored configurations",
		Long: `Verify the working environment:

- data directory exists and is writable
- a master key is available and well-formed
- every stored configuration loads and its envelope opens`,
		RunE: func(cmd *cobra.Command, args []string) error {
			results := []checkResult{
				checkDataDir(cfg),
				checkMasterKey(),
			}
			results = append(results, checkEntries(cfg)...)

			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "CHECK\tSTATUS\tDETAIL")
			failures := 0
			for _, r := range results {
				if r.Status == "error" {
					failures++
				}
				fmt.Fprintf(w, "%s\t%s\t%s\n", r.Name, r.Status, r.Detail)
			}
			_ = w.Flush()

			fmt.Printf("\nSummary: %d check(s), %d problem(s)\n", len(results), failures)
			if failures > 0 {
				return fmt.Errorf("doctor found %d problem(s)", failures)
			}
			return nil
		},
	}
}

func checkDataDir(cfg *config.Config) checkResult {
	cfg.Store() // resolves DataDir
	result := checkResult{Name: "data directory", Detail: cfg.DataDir}

	if err := os.MkdirAll(cfg.DataDir, 0700); err != nil {
		result.Status = "error"
		result.Detail = fmt.Sprintf("%s: %v", cfg.DataDir, err)
		return result
	}

	probe, err := os.CreateTemp(cfg.DataDir, ".doctor-*")
	if err != nil {
		result.Status = "error"
		result.Detail = fmt.Sprintf("%s is not writable: %v", cfg.DataDir, err)
		return result
	}
	probe.Close()
	os.Remove(probe.Name())

	result.Status = "healthy"
	return result
}

func checkMasterKey() checkResult {
	result := checkResult{Name: "master key"}

	if encoded := os.Getenv(keysource.EnvVar); encoded != "" {
		if envelope.ValidateMasterKey(encoded) {
			result.Status = "healthy"
			result.Detail = "from " + keysource.EnvVar
		} else {
			result.Status = "error"
			result.Detail = keysource.EnvVar + " is set but not a valid key"
		}
		return result
	}

	encoded, err := keysource.SavedKey()
	switch {
	case err == keyring.ErrNotFound:
		result.Status = "warning"
		result.Detail = "no key configured; run 'kometactl keygen --save'"
	case err != nil:
		result.Status = "warning"
		result.Detail = fmt.Sprintf("keyring unavailable: %v", err)
	case !envelope.ValidateMasterKey(encoded):
		result.Status = "error"
		result.Detail = "keyring holds a malformed key"
	default:
		result.Status = "healthy"
		result.Detail = "from OS keyring"
	}
	return result
}

func checkEntries(cfg *config.Config) []checkResult {
	entries, err := cfg.Store().List()
	if err != nil {
		return []checkResult{{Name: "stored configurations", Status: "error", Detail: err.Error()}}
	}
	if len(entries) == 0 {
		return []checkResult{{Name: "stored configurations", Status: "healthy", Detail: "none stored"}}
	}

	var results []checkResult
	for _, entry := range entries {
		result := checkResult{Name: "config '" + entry.Name + "'"}

		if entry.Config == nil {
			result.Status = "error"
			result.Detail = "stored entry has no configuration payload"
			results = append(results, result)
			continue
		}

		sealed := cfg.Store().HasEnvelope(entry.Name)
		rec, err := openStoredRecord(cfg, entry.Name)
		if sealed && err != nil {
			result.Status = "error"
			result.Detail = fmt.Sprintf("envelope does not open: %v", err)
			results = append(results, result)
			continue
		}

		report := validation.Validate(entry.Config, rec)
		detail := fmt.Sprintf("%d warning(s)", len(report.Warnings))
		if sealed {
			detail += ", secrets sealed"
		} else {
			detail += ", no secrets"
		}

		result.Status = "healthy"
		result.Detail = detail
		results = append(results, result)
	}
	return results
}
