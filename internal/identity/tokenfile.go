package identity

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// Tokens are the persisted credentials of a signed-in student.
type Tokens struct {
	Token        string `json:"token"`
	RefreshToken string `json:"refresh_token"`
}

// TokenFile persists Tokens between runs, readable only by the owner.
type TokenFile struct {
	path string
}

func NewTokenFile(path string) *TokenFile {
	return &TokenFile{path: path}
}

func (f *TokenFile) Path() string { return f.path }

// Load returns the saved tokens, or nil if none are stored.
func (f *TokenFile) Load() (*Tokens, error) {
	data, err := os.ReadFile(f.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read token file: %w", err)
	}
	var t Tokens
	if err := json.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("decode token file: %w", err)
	}
	if t.Token == "" && t.RefreshToken == "" {
		return nil, nil
	}
	return &t, nil
}

func (f *TokenFile) Save(t Tokens) error {
	if err := os.MkdirAll(filepath.Dir(f.path), 0o700); err != nil {
		return fmt.Errorf("create token dir: %w", err)
	}
	data, err := json.Marshal(t)
	if err != nil {
		return fmt.Errorf("encode tokens: %w", err)
	}
	tmp := f.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("write token file: %w", err)
	}
	if err := os.Rename(tmp, f.path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("replace token file: %w", err)
	}
	return nil
}

// Clear removes the stored tokens. A missing file is not an error.
func (f *TokenFile) Clear() error {
	if err := os.Remove(f.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove token file: %w", err)
	}
	return nil
}
