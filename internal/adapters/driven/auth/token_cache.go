package auth

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"golang.org/x/oauth2"

	"github.com/custodia-labs/docpilot/internal/core/domain"
)

// TokenFileName is the cache file inside the config directory.
const TokenFileName = "token.json"

// tokenFileMode keeps the cached token private to the user.
const tokenFileMode = 0o600

// TokenCache persists an OAuth2 token as JSON.
type TokenCache struct {
	path string
}

// NewTokenCache creates a cache stored in dir.
func NewTokenCache(dir string) *TokenCache {
	return &TokenCache{path: filepath.Join(dir, TokenFileName)}
}

// Path returns the cache file path.
func (c *TokenCache) Path() string {
	return c.path
}

// Load reads the cached token.
// Returns domain.ErrAuthRequired if nothing is cached.
func (c *TokenCache) Load() (*oauth2.Token, error) {
	data, err := os.ReadFile(c.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: no cached token, run 'docpilot auth login'", domain.ErrAuthRequired)
	}
	if err != nil {
		return nil, fmt.Errorf("read token cache: %w", err)
	}

	var tok oauth2.Token
	if err := json.Unmarshal(data, &tok); err != nil {
		return nil, fmt.Errorf("%w: token cache unreadable: %w", domain.ErrAuthRequired, err)
	}
	if tok.AccessToken == "" && tok.RefreshToken == "" {
		return nil, fmt.Errorf("%w: token cache is empty", domain.ErrAuthRequired)
	}
	return &tok, nil
}

// Save writes the token with owner-only permissions.
func (c *TokenCache) Save(tok *oauth2.Token) error {
	data, err := json.MarshalIndent(tok, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal token: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(c.path), 0o700); err != nil {
		return fmt.Errorf("create token dir: %w", err)
	}

	tmp := c.path + ".tmp"
	if err := os.WriteFile(tmp, data, tokenFileMode); err != nil {
		return fmt.Errorf("write token cache: %w", err)
	}
	if err := os.Rename(tmp, c.path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("write token cache: %w", err)
	}
	return nil
}

// Clear removes the cached token. Clearing an empty cache is not an error.
func (c *TokenCache) Clear() error {
	if err := os.Remove(c.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("clear token cache: %w", err)
	}
	return nil
}
