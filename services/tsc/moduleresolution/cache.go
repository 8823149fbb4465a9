// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package moduleresolution

import (
	"strings"
	"sync"

	"golang.org/x/sync/singleflight"
)

// Cache stores package.json probe results keyed by the absolute
// normalized path of the package.json file.
//
// Entries are immutable once written: Set on a key that is already present
// keeps the existing entry. Removal is explicit (Delete, Clear), driven by
// a Watcher or by the caller.
//
// Thread Safety: Implementations must be safe for concurrent use.
type Cache interface {
	Get(packageJSONPath string) (CacheEntry, bool)
	Set(packageJSONPath string, entry CacheEntry)

	// IsReadonly reports whether Set is ignored.
	IsReadonly() bool
}

// Invalidator is implemented by caches whose entries can be removed one at
// a time.
type Invalidator interface {
	Delete(packageJSONPath string)
}

// Coalescer is implemented by caches that merge concurrent probes of the
// same path into one file system read.
type Coalescer interface {
	Coalesce(packageJSONPath string, probe func() (CacheEntry, error)) (CacheEntry, error)
}

// probeGroup runs at most one probe per key at a time.
type probeGroup struct {
	group singleflight.Group
}

func (g *probeGroup) coalesce(key string, probe func() (CacheEntry, error)) (CacheEntry, error) {
	v, err, _ := g.group.Do(key, func() (any, error) {
		return probe()
	})
	entry, _ := v.(CacheEntry)
	return entry, err
}

// MemoryCacheOption configures a MemoryCache.
type MemoryCacheOption func(*MemoryCache)

// WithCaseSensitivity sets whether keys differing only in case are
// distinct. Defaults to true.
func WithCaseSensitivity(caseSensitive bool) MemoryCacheOption {
	return func(c *MemoryCache) {
		c.caseSensitive = caseSensitive
	}
}

// WithReadonly makes Set a no-op.
func WithReadonly() MemoryCacheOption {
	return func(c *MemoryCache) {
		c.readonly = true
	}
}

// WithSeed preloads entries, bypassing readonly mode.
func WithSeed(entries map[string]CacheEntry) MemoryCacheOption {
	return func(c *MemoryCache) {
		for k, v := range entries {
			c.entries[c.key(k)] = v
		}
	}
}

// MemoryCache is an in-process Cache.
//
// Thread Safety: Safe for concurrent use.
type MemoryCache struct {
	mu            sync.RWMutex
	entries       map[string]CacheEntry
	caseSensitive bool
	readonly      bool
	probes        probeGroup
}

// NewMemoryCache creates an empty cache.
func NewMemoryCache(opts ...MemoryCacheOption) *MemoryCache {
	c := &MemoryCache{
		entries:       make(map[string]CacheEntry),
		caseSensitive: true,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *MemoryCache) key(path string) string {
	if c.caseSensitive {
		return path
	}
	return strings.ToLower(path)
}

func (c *MemoryCache) Get(packageJSONPath string) (CacheEntry, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	entry, ok := c.entries[c.key(packageJSONPath)]
	return entry, ok
}

func (c *MemoryCache) Set(packageJSONPath string, entry CacheEntry) {
	if c.readonly || entry == nil {
		return
	}
	key := c.key(packageJSONPath)
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.entries[key]; !exists {
		c.entries[key] = entry
	}
}

func (c *MemoryCache) IsReadonly() bool {
	return c.readonly
}

// Delete removes one entry.
func (c *MemoryCache) Delete(packageJSONPath string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, c.key(packageJSONPath))
}

// Clear removes every entry.
func (c *MemoryCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	clear(c.entries)
}

// Len returns the number of entries.
func (c *MemoryCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Coalesce runs probe once for concurrent callers with the same key.
func (c *MemoryCache) Coalesce(packageJSONPath string, probe func() (CacheEntry, error)) (CacheEntry, error) {
	return c.probes.coalesce(c.key(packageJSONPath), probe)
}

var (
	_ Cache       = (*MemoryCache)(nil)
	_ Invalidator = (*MemoryCache)(nil)
	_ Coalescer   = (*MemoryCache)(nil)
)
