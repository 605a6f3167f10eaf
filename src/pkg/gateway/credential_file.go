package gateway

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// DefaultCredentialPath is where the editor keeps its session between runs.
func DefaultCredentialPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("home: %w", err)
	}
	return filepath.Join(home, ".mindnoscape", "session.json"), nil
}

// CredentialFile persists a Credential with owner-only permissions.
type CredentialFile struct {
	path string
}

// NewCredentialFile uses path, or DefaultCredentialPath when empty. A leading
// "~/" is expanded.
func NewCredentialFile(path string) (*CredentialFile, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		p, err := DefaultCredentialPath()
		if err != nil {
			return nil, err
		}
		return &CredentialFile{path: p}, nil
	}
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("home: %w", err)
		}
		path = filepath.Join(home, path[2:])
	}
	return &CredentialFile{path: path}, nil
}

// Path returns the file location.
func (f *CredentialFile) Path() string {
	return f.path
}

// Load returns the stored credential, or nil when there is none. A file that
// does not parse or has no token is removed and reported as no session.
func (f *CredentialFile) Load() (*Credential, error) {
	b, err := os.ReadFile(f.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read credentials: %w", err)
	}

	var cred Credential
	if err := json.Unmarshal(b, &cred); err != nil || strings.TrimSpace(cred.Token) == "" {
		if rmErr := f.Clear(); rmErr != nil {
			return nil, rmErr
		}
		return nil, nil
	}
	return &cred, nil
}

// Save writes cred, creating the directory with 0700 and the file with 0600.
func (f *CredentialFile) Save(cred *Credential) error {
	if cred == nil || strings.TrimSpace(cred.Token) == "" {
		return fmt.Errorf("empty token")
	}
	if err := os.MkdirAll(filepath.Dir(f.path), 0o700); err != nil {
		return fmt.Errorf("mkdir: %w", err)
	}

	stored := *cred
	stored.Saved = time.Now()
	b, err := json.MarshalIndent(stored, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal: %w", err)
	}
	if err := os.WriteFile(f.path, b, 0o600); err != nil {
		return fmt.Errorf("write: %w", err)
	}
	// WriteFile keeps the mode of an existing file
	if err := os.Chmod(f.path, 0o600); err != nil {
		return fmt.Errorf("chmod: %w", err)
	}
	return nil
}

// Clear removes the file. A missing file is not an error.
func (f *CredentialFile) Clear() error {
	if err := os.Remove(f.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove: %w", err)
	}
	return nil
}
