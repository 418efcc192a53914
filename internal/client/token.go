package client

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// TokenFile persists the bearer token between dashcli invocations.
type TokenFile struct {
	Path string
}

// DefaultTokenFile returns <user config dir>/userdash/token.
func DefaultTokenFile() (TokenFile, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return TokenFile{}, fmt.Errorf("locate config dir: %w", err)
	}
	return TokenFile{Path: filepath.Join(dir, "userdash", "token")}, nil
}

// Load returns the saved token, or "" when none was saved.
func (f TokenFile) Load() (string, error) {
	raw, err := os.ReadFile(f.Path)
	if errors.Is(err, fs.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("read token: %w", err)
	}
	return strings.TrimSpace(string(raw)), nil
}

// Save writes token readable only by the current user.
func (f TokenFile) Save(token string) error {
	if err := os.MkdirAll(filepath.Dir(f.Path), 0o700); err != nil {
		return fmt.Errorf("create token dir: %w", err)
	}
	if err := os.WriteFile(f.Path, []byte(token+"\n"), 0o600); err != nil {
		return fmt.Errorf("write token: %w", err)
	}
	return nil
}

// Clear removes the saved token.
func (f TokenFile) Clear() error {
	if err := os.Remove(f.Path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove token: %w", err)
	}
	return nil
}
