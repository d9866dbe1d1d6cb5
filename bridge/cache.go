package bridge

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"sync"

	"github.com/aqua777/go-treebridge/schema"
)

// ParseCache keeps parse results keyed by language and text.
type ParseCache struct {
	entries map[string][]schema.Result
	mu      sync.RWMutex
}

// NewParseCache creates an empty cache.
func NewParseCache() *ParseCache {
	return &ParseCache{entries: make(map[string][]schema.Result)}
}

// NewParseCacheFromPath creates a cache from a file written by Persist.
func NewParseCacheFromPath(path string) (*ParseCache, error) {
	c := NewParseCache()
	if err := c.LoadFromPath(path); err != nil {
		return nil, err
	}
	return c, nil
}

// OpenParseCache loads the cache persisted at path, or returns an empty cache when
// nothing has been persisted there yet.
func OpenParseCache(path string) (*ParseCache, error) {
	c, err := NewParseCacheFromPath(path)
	if errors.Is(err, fs.ErrNotExist) {
		return NewParseCache(), nil
	}
	return c, err
}

// CacheKey returns the cache key for text parsed as lang.
func CacheKey(lang Language, text string) string {
	h := sha256.New()
	h.Write([]byte(lang))
	h.Write([]byte{0})
	h.Write([]byte(text))
	return hex.EncodeToString(h.Sum(nil))
}

// Put stores results.
func (c *ParseCache) Put(lang Language, text string, results []schema.Result) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[CacheKey(lang, text)] = copyResults(results)
}

// Get returns the cached results for text parsed as lang.
func (c *ParseCache) Get(lang Language, text string) ([]schema.Result, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	results, ok := c.entries[CacheKey(lang, text)]
	if !ok {
		return nil, false
	}
	return copyResults(results), true
}

// copyResults copies the result and token slices. Trees are immutable and shared.
func copyResults(results []schema.Result) []schema.Result {
	out := make([]schema.Result, len(results))
	for i, r := range results {
		out[i] = schema.Result{Tree: r.Tree, Tokens: append([]schema.Token(nil), r.Tokens...)}
	}
	return out
}

// HasKey reports whether text parsed as lang is cached.
func (c *ParseCache) HasKey(lang Language, text string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.entries[CacheKey(lang, text)]
	return ok
}

// Len returns the number of cached texts.
func (c *ParseCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Clear empties the cache.
func (c *ParseCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string][]schema.Result)
}

// Persist saves the cache to a file.
func (c *ParseCache) Persist(path string) error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	data, err := json.MarshalIndent(c.entries, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// LoadFromPath replaces the cache contents with a file written by Persist.
func (c *ParseCache) LoadFromPath(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	entries := make(map[string][]schema.Result)
	if err := json.Unmarshal(data, &entries); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = entries
	return nil
}
