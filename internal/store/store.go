// Package store persists named configurations on the local filesystem. Each
// entry is two files: configs/<name>.json holds the typed model (never any
// credential material) and secrets/<name>.json holds the sealed envelope text.
// The split means a backup of configs/ alone is safe to share.
package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	kerrors "github.com/systmms/kometactl/internal/errors"
	"github.com/systmms/kometactl/internal/model"
)

// Entry is the on-disk record for a named configuration.
type Entry struct {
	ID        string        `json:"id"`
	Name      string        `json:"name"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
	Config    *model.Config `json:"config"`
}

// Store is a file-backed configuration store. Safe for concurrent use.
type Store struct {
	baseDir string
	mu      sync.RWMutex
}

// New creates a store rooted at baseDir. Directories are created lazily on
// first write.
func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

// DefaultDir returns the default data directory.
func DefaultDir() string {
	if dir := os.Getenv("KOMETACTL_DATA_DIR"); dir != "" {
		return dir
	}

	if xdgData := os.Getenv("XDG_DATA_HOME"); xdgData != "" {
		return filepath.Join(xdgData, "kometactl")
	}

	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, ".local", "share", "kometactl")
	}

	return filepath.Join(os.TempDir(), "kometactl")
}

// SaveConfig writes the model for a named entry. A new entry gets a minted
// ID and creation time; saving over an existing entry preserves both and
// bumps UpdatedAt.
func (s *Store) SaveConfig(name string, cfg *model.Config) (*Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if cfg == nil {
		return nil, kerrors.ShapeError{Message: "cannot save a nil configuration"}
	}

	configDir := filepath.Join(s.baseDir, "configs")
	if err := os.MkdirAll(configDir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create config directory: %w", err)
	}

	now := time.Now().UTC()
	entry := Entry{
		ID:        uuid.NewString(),
		Name:      name,
		CreatedAt: now,
		UpdatedAt: now,
		Config:    cfg,
	}
	if existing, err := s.readEntry(name); err == nil {
		entry.ID = existing.ID
		entry.CreatedAt = existing.CreatedAt
	}

	data, err := json.MarshalIndent(entry, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(s.configPath(name), data, 0600); err != nil {
		return nil, fmt.Errorf("failed to write config file: %w", err)
	}

	return &entry, nil
}

// LoadConfig reads a named entry.
func (s *Store) LoadConfig(name string) (*Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.readEntry(name)
}

// SaveEnvelope writes sealed secret text for a named entry. The entry's
// config does not need to exist yet; import writes both sides independently.
func (s *Store) SaveEnvelope(name, envelopeText string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	secretDir := filepath.Join(s.baseDir, "secrets")
	if err := os.MkdirAll(secretDir, 0700); err != nil {
		return fmt.Errorf("failed to create secrets directory: %w", err)
	}

	if err := os.WriteFile(s.envelopePath(name), []byte(envelopeText), 0600); err != nil {
		return fmt.Errorf("failed to write envelope file: %w", err)
	}

	return nil
}

// LoadEnvelope reads sealed secret text for a named entry.
func (s *Store) LoadEnvelope(name string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, err := os.ReadFile(s.envelopePath(name))
	if err != nil {
		if os.IsNotExist(err) {
			return "", kerrors.UserError{
				Message:    fmt.Sprintf("no secrets stored for '%s'", name),
				Suggestion: "import a document with credentials, or use 'kometactl secrets set'",
			}
		}
		return "", fmt.Errorf("failed to read envelope file: %w", err)
	}

	return string(data), nil
}

// HasEnvelope reports whether sealed secrets exist for a named entry.
func (s *Store) HasEnvelope(name string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, err := os.Stat(s.envelopePath(name))
	return err == nil
}

// List returns all stored entries sorted by name. Config payloads are
// included; callers listing names only can ignore them.
func (s *Store) List() ([]Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	configDir := filepath.Join(s.baseDir, "configs")
	if _, err := os.Stat(configDir); os.IsNotExist(err) {
		return []Entry{}, nil
	}

	files, err := os.ReadDir(configDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read config directory: %w", err)
	}

	var entries []Entry
	for _, file := range files {
		if file.IsDir() || filepath.Ext(file.Name()) != ".json" {
			continue
		}
		data, err := os.ReadFile(filepath.Join(configDir, file.Name()))
		if err != nil {
			continue // skip unreadable files
		}
		var entry Entry
		if err := json.Unmarshal(data, &entry); err != nil {
			continue // skip invalid JSON files
		}
		entries = append(entries, entry)
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Name < entries[j].Name
	})

	return entries, nil
}

// Delete removes a named entry and its envelope. Deleting an entry that does
// not exist is an error; a config without an envelope is fine.
func (s *Store) Delete(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := os.Remove(s.configPath(name))
	if os.IsNotExist(err) {
		return kerrors.UserError{
			Message:    fmt.Sprintf("no configuration named '%s'", name),
			Suggestion: "run 'kometactl list' to see stored configurations",
		}
	}
	if err != nil {
		return fmt.Errorf("failed to remove config file: %w", err)
	}

	if err := os.Remove(s.envelopePath(name)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove envelope file: %w", err)
	}

	return nil
}

func (s *Store) readEntry(name string) (*Entry, error) {
	data, err := os.ReadFile(s.configPath(name))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, kerrors.UserError{
				Message:    fmt.Sprintf("no configuration named '%s'", name),
				Suggestion: "run 'kometactl import' first, or 'kometactl list' to see stored configurations",
			}
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var entry Entry
	if err := json.Unmarshal(data, &entry); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &entry, nil
}

func (s *Store) configPath(name string) string {
	return filepath.Join(s.baseDir, "configs", sanitizeName(name)+".json")
}

func (s *Store) envelopePath(name string) string {
	return filepath.Join(s.baseDir, "secrets", sanitizeName(name)+".json")
}

// sanitizeName replaces characters that might be problematic in filenames
func sanitizeName(name string) string {
	replacer := strings.NewReplacer(
		"/", "-",
		"\\", "-",
		":", "-",
		"*", "-",
		"?", "-",
		"\"", "-",
		"<", "-",
		">", "-",
		"|", "-",
		" ", "_",
	)
	return replacer.Replace(name)
}
