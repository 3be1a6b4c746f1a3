package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// Session is the login state kept between CLI invocations.
type Session struct {
	BaseURL  string `json:"base_url"`
	Token    string `json:"token"`
	Username string `json:"username"`
}

// DefaultSessionPath returns the session file location under the user config dir.
func DefaultSessionPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "session.json"
	}
	return filepath.Join(dir, "contactkeeper", "session.json")
}

// LoadSession reads the session at path. A missing file yields an empty session.
func LoadSession(path string) (*Session, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return &Session{}, nil
	}
	if err != nil {
		return nil, err
	}
	var s Session
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("corrupt session file %s: %w", path, err)
	}
	return &s, nil
}

// Save writes the session to path, readable only by the owner.
func (s *Session) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return err
	}
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}

// Clear removes the session file.
func Clear(path string) error {
	err := os.Remove(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}
