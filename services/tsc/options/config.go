// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package options

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"reflect"
	"sort"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/AleutianAI/tsfront/services/tsc/tspath"
)

// ConfigFileNames are probed in order by LoadProjectConfig.
var ConfigFileNames = []string{"tsfront.yaml", "tsfront.yml", "tsconfig.json"}

// Cache modes for the package.json lookup cache.
const (
	CacheModeMemory = "memory"
	CacheModeBadger = "badger"
	CacheModeNone   = "none"
)

// DefaultCacheDir is used for the badger cache when no directory is set.
const DefaultCacheDir = ".tsfront-cache"

// CacheConfig selects the package.json cache backing store.
type CacheConfig struct {
	// Mode is one of memory, badger or none. Empty means memory.
	Mode string `yaml:"mode" validate:"omitempty,oneof=memory badger none"`

	// Dir is the badger directory, relative to the project directory.
	Dir string `yaml:"dir"`
}

// ProjectConfig is a loaded tsfront.yaml or tsconfig.json.
//
// Thread Safety: Immutable after loading; safe for concurrent use.
type ProjectConfig struct {
	CompilerOptions CompilerOptions `yaml:"compilerOptions"`

	// Files are explicit root files, relative to Dir.
	Files []string `yaml:"files" validate:"dive,required"`

	// Include entries are directories (walked for TypeScript sources) or
	// filepath.Glob patterns, relative to Dir.
	Include []string `yaml:"include" validate:"dive,required"`

	// Exclude lists directory base names skipped while walking Include.
	Exclude []string `yaml:"exclude"`

	Cache CacheConfig `yaml:"cache"`

	// Workers bounds parallel parse/bind. Zero means GOMAXPROCS.
	Workers int `yaml:"workers" validate:"gte=0,lte=256"`

	// Dir is the directory the configuration was loaded for.
	Dir string `yaml:"-"`

	// Source is the file the configuration was read from, empty when
	// defaults were used.
	Source string `yaml:"-"`

	// UnknownOptions are compilerOptions keys this front end ignores.
	UnknownOptions []string `yaml:"-"`
}

// DefaultProjectConfig returns the zero-config project rooted at dir.
func DefaultProjectConfig(dir string) *ProjectConfig {
	return &ProjectConfig{
		Dir:     dir,
		Include: []string{"."},
		Exclude: []string{"node_modules"},
		Cache:   CacheConfig{Mode: CacheModeMemory},
	}
}

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func configValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
	})
	return validate
}

// Validate checks field ranges and enumerations.
func (c *ProjectConfig) Validate() error {
	if err := configValidator().Struct(c); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if c.Cache.Mode == CacheModeBadger && c.Cache.Dir == "" {
		return fmt.Errorf("%w: cache.dir is required when cache.mode is badger", ErrInvalidConfig)
	}
	return nil
}

// LoadProjectConfig loads the first config file found in dir.
//
// Description:
//
//	Probes ConfigFileNames in order. A directory without any of them is
//	not an error: DefaultProjectConfig(dir) is returned. JSON files may
//	carry comments and trailing commas.
//
// Inputs:
//
//	dir - Project directory.
//
// Outputs:
//
//	*ProjectConfig - Loaded and validated configuration.
//	error - Wraps ErrInvalidConfig on parse or validation failure.
func LoadProjectConfig(dir string) (*ProjectConfig, error) {
	for _, name := range ConfigFileNames {
		path := filepath.Join(dir, name)
		cfg, err := LoadProjectConfigFile(path)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		return cfg, err
	}
	slog.Debug("No project config found, using defaults", slog.String("dir", dir))
	return DefaultProjectConfig(dir), nil
}

// LoadProjectConfigFile loads one config file. A missing file returns an
// error wrapping fs.ErrNotExist.
func LoadProjectConfigFile(path string) (*ProjectConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	cfg, err := ParseProjectConfig(filepath.Dir(path), path, data)
	if err != nil {
		return nil, err
	}
	slog.Debug("Loaded project config",
		slog.String("path", path),
		slog.Int("files", len(cfg.Files)),
		slog.Int("include", len(cfg.Include)),
		slog.String("cache_mode", cfg.Cache.Mode),
	)
	return cfg, nil
}

// ParseProjectConfig decodes and validates config data read from source.
func ParseProjectConfig(dir, source string, data []byte) (*ProjectConfig, error) {
	text := string(data)
	if isJSONConfig(source) {
		text = StripJSONComments(text)
	}

	cfg := DefaultProjectConfig(dir)
	cfg.Include = nil
	if err := yaml.Unmarshal([]byte(text), cfg); err != nil {
		if errors.Is(err, ErrInvalidConfig) {
			return nil, fmt.Errorf("%s: %w", source, err)
		}
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidConfig, source, err)
	}
	if len(cfg.Files) == 0 && len(cfg.Include) == 0 {
		cfg.Include = []string{"."}
	}
	if cfg.Cache.Mode == "" {
		cfg.Cache.Mode = CacheModeMemory
	}
	cfg.Dir = dir
	cfg.Source = source
	cfg.CompilerOptions.ConfigFilePath = tspath.NormalizeSlashes(source)

	unknown, err := unknownCompilerOptions([]byte(text))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidConfig, source, err)
	}
	cfg.UnknownOptions = unknown

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", source, err)
	}
	return cfg, nil
}

var (
	knownOptionsOnce sync.Once
	knownOptions     map[string]bool
)

func knownCompilerOptionNames() map[string]bool {
	knownOptionsOnce.Do(func() {
		knownOptions = make(map[string]bool)
		t := reflect.TypeOf(CompilerOptions{})
		for i := 0; i < t.NumField(); i++ {
			tag := t.Field(i).Tag.Get("yaml")
			if tag != "" && tag != "-" {
				knownOptions[tag] = true
			}
		}
	})
	return knownOptions
}

func unknownCompilerOptions(data []byte) ([]string, error) {
	var raw struct {
		CompilerOptions map[string]yaml.Node `yaml:"compilerOptions"`
	}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	known := knownCompilerOptionNames()
	var unknown []string
	for name := range raw.CompilerOptions {
		if !known[name] {
			unknown = append(unknown, name)
		}
	}
	sort.Strings(unknown)
	return unknown, nil
}

// RootFiles expands Files and Include into absolute, normalized file
// names, de-duplicated and sorted.
func (c *ProjectConfig) RootFiles() ([]string, error) {
	seen := make(map[string]bool)
	var out []string
	add := func(p string) {
		abs, err := filepath.Abs(p)
		if err != nil {
			abs = p
		}
		abs = tspath.NormalizePath(filepath.ToSlash(abs))
		if !seen[abs] {
			seen[abs] = true
			out = append(out, abs)
		}
	}

	for _, f := range c.Files {
		add(filepath.Join(c.Dir, f))
	}

	excluded := make(map[string]bool, len(c.Exclude))
	for _, e := range c.Exclude {
		excluded[e] = true
	}

	for _, inc := range c.Include {
		pattern := filepath.Join(c.Dir, inc)
		if info, err := os.Stat(pattern); err == nil && info.IsDir() {
			err := filepath.WalkDir(pattern, func(path string, d fs.DirEntry, err error) error {
				if err != nil {
					return nil
				}
				if d.IsDir() {
					if path != pattern && (excluded[d.Name()] || strings.HasPrefix(d.Name(), ".")) {
						return filepath.SkipDir
					}
					return nil
				}
				if IsSourceFileName(path) {
					add(path)
				}
				return nil
			})
			if err != nil {
				return nil, fmt.Errorf("walking %s: %w", pattern, err)
			}
			continue
		}
		matches, err := filepath.Glob(pattern)
		if err != nil {
			return nil, fmt.Errorf("%w: include pattern %q: %v", ErrInvalidConfig, inc, err)
		}
		for _, m := range matches {
			if IsSourceFileName(m) {
				add(m)
			}
		}
	}

	sort.Strings(out)
	return out, nil
}

// IsSourceFileName reports whether the file has a TypeScript or
// JavaScript source extension the front end parses.
func IsSourceFileName(fileName string) bool {
	name := filepath.ToSlash(fileName)
	return tspath.FileExtensionIsOneOf(name,
		tspath.ExtensionTs, tspath.ExtensionTsx, tspath.ExtensionMts, tspath.ExtensionCts,
		tspath.ExtensionJs, tspath.ExtensionJsx, tspath.ExtensionMjs, tspath.ExtensionCjs)
}
