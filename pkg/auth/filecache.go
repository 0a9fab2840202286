package auth

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// FileCache persists bearer tokens to a JSON file so short-lived CLI
// invocations can reuse a token across processes. Entries are keyed by
// provider mode and scope, never shared across modes.
type FileCache struct {
	mu   sync.Mutex
	path string
}

type fileCacheEntry struct {
	Token     string    `json:"token"`
	ExpiresOn time.Time `json:"expiresOn"`
}

// DefaultCachePath returns the conventional token cache location,
// $HOME/.fabricops/tokens.json.
func DefaultCachePath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolving home directory: %w", err)
	}
	return filepath.Join(home, ".fabricops", "tokens.json"), nil
}

// NewFileCache creates a file cache at the given path. The file is created
// lazily on the first Put.
func NewFileCache(path string) *FileCache {
	return &FileCache{path: path}
}

func cacheEntryKey(mode, scope string) string {
	return mode + "|" + scope
}

// Get returns the cached token for (mode, scope) if one is stored. Expiry is
// not checked here; the Resolver decides validity.
func (fc *FileCache) Get(mode, scope string) (cachedToken, bool) {
	fc.mu.Lock()
	defer fc.mu.Unlock()

	entries, err := fc.load()
	if err != nil {
		return cachedToken{}, false
	}
	entry, ok := entries[cacheEntryKey(mode, scope)]
	if !ok {
		return cachedToken{}, false
	}
	return cachedToken{token: entry.Token, expiresOn: entry.ExpiresOn}, true
}

// Put stores a token for (mode, scope), creating the cache file with
// owner-only permissions.
func (fc *FileCache) Put(mode, scope string, tok cachedToken) error {
	fc.mu.Lock()
	defer fc.mu.Unlock()

	entries, err := fc.load()
	if err != nil {
		return err
	}
	entries[cacheEntryKey(mode, scope)] = fileCacheEntry{
		Token:     tok.token,
		ExpiresOn: tok.expiresOn,
	}
	return fc.save(entries)
}

// Clear removes the cache file.
func (fc *FileCache) Clear() error {
	fc.mu.Lock()
	defer fc.mu.Unlock()

	err := os.Remove(fc.path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("removing token cache: %w", err)
	}
	return nil
}

func (fc *FileCache) load() (map[string]fileCacheEntry, error) {
	data, err := os.ReadFile(fc.path)
	if errors.Is(err, fs.ErrNotExist) {
		return make(map[string]fileCacheEntry), nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading token cache: %w", err)
	}

	entries := make(map[string]fileCacheEntry)
	if err := json.Unmarshal(data, &entries); err != nil {
		// A corrupt cache is not fatal, start over.
		return make(map[string]fileCacheEntry), nil
	}
	return entries, nil
}

func (fc *FileCache) save(entries map[string]fileCacheEntry) error {
	if err := os.MkdirAll(filepath.Dir(fc.path), 0o700); err != nil {
		return fmt.Errorf("creating token cache directory: %w", err)
	}
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(fc.path, data, 0o600); err != nil {
		return fmt.Errorf("writing token cache: %w", err)
	}
	return nil
}
