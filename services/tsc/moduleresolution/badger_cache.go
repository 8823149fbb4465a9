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

// =============================================================================
// BadgerCache: persistent package.json probe results
// =============================================================================
//
// Probing package.json is repeated for every source file of every run. The
// badger cache keeps the results between CLI runs so a warm run skips the
// ancestor walk entirely. Entries carry no TTL; a Watcher or an explicit
// Clear removes stale ones.
//
// Storage layout:
//
//	tsfront/pkgjson/v1/{canonical package.json path}  ->  JSON storedEntry

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/dgraph-io/badger/v4"
)

// badgerKeyPrefix is versioned so the stored layout can change without
// collisions.
const badgerKeyPrefix = "tsfront/pkgjson/v1/"

// storedEntry is the serialized form of a CacheEntry.
type storedEntry struct {
	Missing         bool                   `json:"missing,omitempty"`
	Directory       string                 `json:"dir"`
	DirectoryExists bool                   `json:"dirExists,omitempty"`
	Fields          *PackageJSONPathFields `json:"fields,omitempty"`
}

// BadgerCacheOption configures a BadgerCache.
type BadgerCacheOption func(*BadgerCache)

// WithBadgerReadonly makes Set a no-op.
func WithBadgerReadonly() BadgerCacheOption {
	return func(c *BadgerCache) {
		c.readonly = true
	}
}

// WithBadgerCaseSensitivity sets whether keys differing only in case are
// distinct. Defaults to true.
func WithBadgerCaseSensitivity(caseSensitive bool) BadgerCacheOption {
	return func(c *BadgerCache) {
		c.caseSensitive = caseSensitive
	}
}

// BadgerCache is a Cache persisted in BadgerDB.
//
// Description:
//
//	Decoded entries are memoized in memory so repeated Gets return the
//	same *PackageJSONContents, which keeps lazily derived values shared.
//	Storage errors are logged and read as a miss; the resolver then
//	probes the file system as if the cache were cold.
//
// Thread Safety: Safe for concurrent use.
type BadgerCache struct {
	db            *badger.DB
	logger        *slog.Logger
	readonly      bool
	caseSensitive bool
	memo          *MemoryCache
	probes        probeGroup
}

// NewBadgerCache wraps an open database.
//
// Inputs:
//
//	db - Open BadgerDB. Must not be nil. The caller owns its lifecycle.
//	logger - Logger for storage errors. Must not be nil.
//	opts - Optional settings.
//
// Outputs:
//
//	*BadgerCache - Ready to use.
//	error - Non-nil if db or logger is nil.
func NewBadgerCache(db *badger.DB, logger *slog.Logger, opts ...BadgerCacheOption) (*BadgerCache, error) {
	if db == nil {
		return nil, errors.New("badger cache: db must not be nil")
	}
	if logger == nil {
		return nil, errors.New("badger cache: logger must not be nil")
	}
	c := &BadgerCache{db: db, logger: logger, caseSensitive: true}
	for _, opt := range opts {
		opt(c)
	}
	c.memo = NewMemoryCache(WithCaseSensitivity(c.caseSensitive))
	return c, nil
}

func (c *BadgerCache) key(path string) []byte {
	if !c.caseSensitive {
		path = strings.ToLower(path)
	}
	return []byte(badgerKeyPrefix + path)
}

func (c *BadgerCache) Get(packageJSONPath string) (CacheEntry, bool) {
	if entry, ok := c.memo.Get(packageJSONPath); ok {
		return entry, true
	}

	var raw []byte
	err := c.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(c.key(packageJSONPath))
		if err != nil {
			return err
		}
		raw, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, false
	}
	if err != nil {
		c.logger.Warn("package.json cache read failed",
			slog.String("path", packageJSONPath),
			slog.String("error", err.Error()))
		return nil, false
	}

	entry, err := decodeEntry(raw)
	if err != nil {
		c.logger.Warn("package.json cache entry undecodable",
			slog.String("path", packageJSONPath),
			slog.String("error", err.Error()))
		return nil, false
	}
	c.memo.Set(packageJSONPath, entry)
	entry, _ = c.memo.Get(packageJSONPath)
	return entry, true
}

func (c *BadgerCache) Set(packageJSONPath string, entry CacheEntry) {
	if c.readonly || entry == nil {
		return
	}
	raw, err := encodeEntry(entry)
	if err != nil {
		c.logger.Warn("package.json cache entry unencodable",
			slog.String("path", packageJSONPath),
			slog.String("error", err.Error()))
		return
	}
	key := c.key(packageJSONPath)
	err = c.db.Update(func(txn *badger.Txn) error {
		_, err := txn.Get(key)
		if err == nil {
			return nil
		}
		if !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}
		return txn.Set(key, raw)
	})
	if err != nil {
		c.logger.Warn("package.json cache write failed",
			slog.String("path", packageJSONPath),
			slog.String("error", err.Error()))
		return
	}
	c.memo.Set(packageJSONPath, entry)
}

func (c *BadgerCache) IsReadonly() bool {
	return c.readonly
}

// Delete removes one entry.
func (c *BadgerCache) Delete(packageJSONPath string) {
	c.memo.Delete(packageJSONPath)
	err := c.db.Update(func(txn *badger.Txn) error {
		err := txn.Delete(c.key(packageJSONPath))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		return err
	})
	if err != nil {
		c.logger.Warn("package.json cache delete failed",
			slog.String("path", packageJSONPath),
			slog.String("error", err.Error()))
	}
}

// Clear drops every package.json entry. Other keys in the database are
// left alone.
func (c *BadgerCache) Clear() error {
	c.memo.Clear()
	if err := c.db.DropPrefix([]byte(badgerKeyPrefix)); err != nil {
		return fmt.Errorf("clear package.json cache: %w", err)
	}
	return nil
}

// Len counts the stored entries.
func (c *BadgerCache) Len() (int, error) {
	n := 0
	err := c.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = []byte(badgerKeyPrefix)
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			n++
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("count package.json cache: %w", err)
	}
	return n, nil
}

// Each calls fn for every stored entry in key order until fn returns
// false. Entries that fail to decode are passed with a nil entry and the
// decode error.
func (c *BadgerCache) Each(fn func(packageJSONPath string, entry CacheEntry, size int, decodeErr error) bool) error {
	err := c.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(badgerKeyPrefix)
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			item := it.Item()
			path := strings.TrimPrefix(string(item.Key()), badgerKeyPrefix)
			raw, err := item.ValueCopy(nil)
			if err != nil {
				if !fn(path, nil, 0, fmt.Errorf("copy value: %w", err)) {
					return nil
				}
				continue
			}
			entry, err := decodeEntry(raw)
			if !fn(path, entry, len(raw), err) {
				return nil
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("iterate package.json cache: %w", err)
	}
	return nil
}

// Coalesce runs probe once for concurrent callers with the same key.
func (c *BadgerCache) Coalesce(packageJSONPath string, probe func() (CacheEntry, error)) (CacheEntry, error) {
	return c.probes.coalesce(string(c.key(packageJSONPath)), probe)
}

func encodeEntry(entry CacheEntry) ([]byte, error) {
	var s storedEntry
	switch e := entry.(type) {
	case *PackageJSONInfo:
		s.Directory = e.PackageDirectory
		s.DirectoryExists = true
		if e.Contents != nil {
			fields := e.Contents.Fields
			s.Fields = &fields
		}
	case *MissingPackageJSONInfo:
		s.Missing = true
		s.Directory = e.PackageDirectory
		s.DirectoryExists = e.DirectoryExists
	default:
		return nil, fmt.Errorf("unknown cache entry %T", entry)
	}
	return json.Marshal(s)
}

func decodeEntry(raw []byte) (CacheEntry, error) {
	var s storedEntry
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, err
	}
	if s.Missing {
		return &MissingPackageJSONInfo{PackageDirectory: s.Directory, DirectoryExists: s.DirectoryExists}, nil
	}
	var fields PackageJSONPathFields
	if s.Fields != nil {
		fields = *s.Fields
	}
	return &PackageJSONInfo{PackageDirectory: s.Directory, Contents: NewPackageJSONContents(fields)}, nil
}

var (
	_ Cache       = (*BadgerCache)(nil)
	_ Invalidator = (*BadgerCache)(nil)
	_ Coalescer   = (*BadgerCache)(nil)
)
