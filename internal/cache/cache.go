package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/spboyer/thinkroute/internal/models"
)

// Cache stores oracle responses on disk so repeated sweeps over the same
// dataset do not pay for scoring again.
type Cache struct {
	dir string
	mu  sync.Mutex
}

// New creates a new cache instance with the specified directory. An empty
// dir disables caching.
func New(dir string) *Cache {
	return &Cache{dir: dir}
}

// Enabled reports whether the cache has a directory.
func (c *Cache) Enabled() bool {
	return c != nil && c.dir != ""
}

// Key generates a cache key for one scoring call. The key is based on:
// - oracle identity (backend and model)
// - instruction given to the oracle
// - question text
func Key(oracleName, instruction, question string) string {
	h := sha256.New()
	_ = writeString(h, oracleName)
	_ = writeString(h, instruction)
	_ = writeString(h, question)
	return hex.EncodeToString(h.Sum(nil))
}

// Get retrieves a cached oracle response if it exists
func (c *Cache) Get(key string) (*models.OracleResponse, bool) {
	if !c.Enabled() {
		return nil, false
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	data, err := os.ReadFile(c.cachePath(key))
	if err != nil {
		// Cache miss
		return nil, false
	}

	var resp models.OracleResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		// Invalid cache entry, treat as miss
		return nil, false
	}

	return &resp, true
}

// Put stores an oracle response in the cache
func (c *Cache) Put(key string, resp *models.OracleResponse) error {
	if !c.Enabled() {
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if err := os.MkdirAll(c.dir, 0755); err != nil {
		return fmt.Errorf("creating cache directory: %w", err)
	}

	data, err := json.MarshalIndent(resp, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling response: %w", err)
	}

	if err := os.WriteFile(c.cachePath(key), data, 0644); err != nil {
		return fmt.Errorf("writing cache file: %w", err)
	}

	return nil
}

// Len returns the number of cached entries.
func (c *Cache) Len() int {
	if !c.Enabled() {
		return 0
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	matches, err := filepath.Glob(filepath.Join(c.dir, "*.json"))
	if err != nil {
		return 0
	}
	return len(matches)
}

// Clear removes all cached results
func (c *Cache) Clear() error {
	if !c.Enabled() {
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, err := os.Stat(c.dir); os.IsNotExist(err) {
		return nil
	}

	// Safety check: only remove a directory that holds nothing but cache
	// files.
	entries, err := os.ReadDir(c.dir)
	if err != nil {
		return fmt.Errorf("reading cache directory: %w", err)
	}

	for _, entry := range entries {
		if entry.IsDir() {
			return fmt.Errorf("cache directory contains subdirectories - refusing to delete for safety")
		}
		if filepath.Ext(entry.Name()) != ".json" {
			return fmt.Errorf("cache directory contains non-cache files - refusing to delete for safety")
		}
	}

	return os.RemoveAll(c.dir)
}

// cachePath returns the file path for a cache key
func (c *Cache) cachePath(key string) string {
	return filepath.Join(c.dir, key+".json")
}

func writeString(w io.Writer, s string) error {
	// Write string with null byte delimiter to prevent hash collisions
	_, err := w.Write([]byte(s + "\x00"))
	return err
}
