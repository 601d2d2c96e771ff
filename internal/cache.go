package internal

import (
	"crypto/md5"
	"fmt"
	"sync"
	"time"
)

type sourceMetadata struct {
	Hash string
}

// CacheEntry is a stored evaluation result.
type CacheEntry struct {
	Metadata     sourceMetadata
	Result       Result
	CreatedAt    time.Time
	LastAccessed time.Time
}

// Cache keeps the last result of each program, keyed by name and
// invalidated when the source text changes.
type Cache struct {
	entries map[string]CacheEntry
	mutex   sync.RWMutex
	maxAge  time.Duration
	now     func() time.Time
}

// NewCache creates an empty cache. A zero maxAge never expires entries.
func NewCache(maxAge time.Duration) *Cache {
	return &Cache{
		entries: make(map[string]CacheEntry),
		maxAge:  maxAge,
		now:     time.Now,
	}
}

func (c *Cache) Set(name string, source []byte, result Result) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	now := c.now()
	c.entries[name] = CacheEntry{
		Metadata:     sourceMetadata{Hash: sourceHash(source)},
		Result:       result,
		CreatedAt:    now,
		LastAccessed: now,
	}
}

func (c *Cache) Get(name string, source []byte) (Result, bool) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	entry, exists := c.entries[name]
	if !exists {
		return Result{}, false
	}

	if c.isEntryInvalid(entry, source) {
		delete(c.entries, name)
		return Result{}, false
	}

	entry.LastAccessed = c.now()
	c.entries[name] = entry

	return entry.Result, true
}

func (c *Cache) isEntryInvalid(entry CacheEntry, source []byte) bool {
	// too old
	if c.maxAge > 0 && c.now().Sub(entry.CreatedAt) > c.maxAge {
		return true
	}
	return entry.Metadata.Hash != sourceHash(source)
}

func (c *Cache) Len() int {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	return len(c.entries)
}

func (c *Cache) SetMaxAge(duration time.Duration) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.maxAge = duration
}

func (c *Cache) InvalidateAll() {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.entries = make(map[string]CacheEntry)
}

func sourceHash(source []byte) string {
	return fmt.Sprintf("%x", md5.Sum(source))
}
