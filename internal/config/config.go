// Package config carries the runtime state shared by all CLI commands: the
// resolved data directory, the logger, and interaction flags. It is plumbing,
// not policy; commands decide what to do with it.
package config

import (
	"fmt"
	"os"

	"github.com/systmms/kometactl/internal/logging"
	"github.com/systmms/kometactl/internal/store"
)

// Config holds the runtime configuration
type Config struct {
	DataDir        string
	Logger         *logging.Logger
	NonInteractive bool

	storeInst *store.Store
}

// Store returns the configuration store, creating it on first use.
func (c *Config) Store() *store.Store {
	if c.storeInst == nil {
		if c.DataDir == "" {
			c.DataDir = store.DefaultDir()
		}
		c.storeInst = store.New(c.DataDir)
	}
	return c.storeInst
}

// Confirm asks the user a yes/no question on stderr. In non-interactive mode
// it refuses without prompting so scripted runs never hang.
func (c *Config) Confirm(prompt string) bool {
	if c.NonInteractive {
		return false
	}

	fmt.Fprintf(os.Stderr, "%s [y/N]: ", prompt)
	var answer string
	if _, err := fmt.Fscanln(os.Stdin, &answer); err != nil {
		return false
	}
	return answer == "y" || answer == "Y" || answer == "yes"
}
