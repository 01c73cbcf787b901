package auth

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/adrg/xdg"
	"github.com/google/renameio/v2"
)

const (
	// DefaultCredentialsFileName is the default name for the credentials file.
	DefaultCredentialsFileName = "credentials.json"
)

// Storage handles persisting credentials to disk.
type Storage struct {
	path string
}

// NewStorage creates a credential store at the specified path.
// If path is empty, uses $XDG_CONFIG_HOME/finch/credentials.json.
func NewStorage(path string) (*Storage, error) {
	if path == "" {
		p, err := xdg.ConfigFile(filepath.Join("finch", DefaultCredentialsFileName))
		if err != nil {
			return nil, fmt.Errorf("failed to get config directory: %w", err)
		}
		path = p
	}

	return &Storage{path: path}, nil
}

// Save persists credentials to disk. The file is replaced atomically so
// watchers never observe a partial write.
func (s *Storage) Save(creds *Credentials) error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := json.MarshalIndent(creds, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal credentials: %w", err)
	}

	// Owner only
	if err := renameio.WriteFile(s.path, data, 0600); err != nil {
		return fmt.Errorf("failed to write credentials file: %w", err)
	}

	return nil
}

// Load reads credentials from disk. A missing file yields (nil, nil).
func (s *Storage) Load() (*Credentials, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read credentials file: %w", err)
	}

	var creds Credentials
	if err := json.Unmarshal(data, &creds); err != nil {
		return nil, fmt.Errorf("failed to parse credentials file: %w", err)
	}

	return &creds, nil
}

// Delete removes the stored credentials.
func (s *Storage) Delete() error {
	err := os.Remove(s.path)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete credentials file: %w", err)
	}
	return nil
}

// Exists returns true if a credentials file exists.
func (s *Storage) Exists() bool {
	_, err := os.Stat(s.path)
	return err == nil
}

// Path returns the path to the credentials file.
func (s *Storage) Path() string {
	return s.path
}
