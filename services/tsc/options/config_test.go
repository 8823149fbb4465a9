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
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func TestLoadProjectConfig_MissingIsDefault(t *testing.T) {
	dir := t.TempDir()
	cfg, err := LoadProjectConfig(dir)
	if err != nil {
		t.Fatalf("LoadProjectConfig() error = %v", err)
	}
	if cfg.Source != "" {
		t.Errorf("Source = %q, want empty", cfg.Source)
	}
	if cfg.Cache.Mode != CacheModeMemory {
		t.Errorf("Cache.Mode = %q, want memory", cfg.Cache.Mode)
	}
}

func TestLoadProjectConfig_YAML(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "tsfront.yaml"), `
compilerOptions:
  module: NodeNext
  strict: true
  allowUnreachableCode: false
  paths:
    "@app/*": ["src/*"]
files: [src/a.ts]
cache:
  mode: badger
  dir: .cache
workers: 4
`)
	cfg, err := LoadProjectConfig(dir)
	if err != nil {
		t.Fatalf("LoadProjectConfig() error = %v", err)
	}
	opts := cfg.CompilerOptions
	if opts.Module != ModuleKindNodeNext {
		t.Errorf("Module = %v, want nodenext", opts.Module)
	}
	if !opts.Strict.IsTrue() || !opts.AllowUnreachableCode.IsFalse() {
		t.Errorf("Strict = %v, AllowUnreachableCode = %v", opts.Strict, opts.AllowUnreachableCode)
	}
	if !opts.AllowUnusedLabels.IsUnknown() {
		t.Errorf("AllowUnusedLabels = %v, want unknown", opts.AllowUnusedLabels)
	}
	if got := opts.Paths["@app/*"]; !reflect.DeepEqual(got, []string{"src/*"}) {
		t.Errorf("Paths = %v", got)
	}
	if cfg.Workers != 4 || cfg.Cache.Mode != CacheModeBadger || cfg.Cache.Dir != ".cache" {
		t.Errorf("cfg = %+v", cfg)
	}
	if len(cfg.Include) != 0 {
		t.Errorf("Include = %v, want none when files are listed", cfg.Include)
	}
}

func TestLoadProjectConfig_TSConfigWithComments(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "tsconfig.json"), `{
	// line comment
	"compilerOptions": {
		"target": "es2022", /* block */
		"moduleResolution": "bundler",
		"declarationDir": "out//types",
		"emitDecoratorMetadata": true,
	},
	"include": ["src"],
}`)
	cfg, err := LoadProjectConfig(dir)
	if err != nil {
		t.Fatalf("LoadProjectConfig() error = %v", err)
	}
	if cfg.CompilerOptions.Target != ScriptTargetES2022 {
		t.Errorf("Target = %v", cfg.CompilerOptions.Target)
	}
	if cfg.CompilerOptions.ModuleResolution != ModuleResolutionKindBundler {
		t.Errorf("ModuleResolution = %v", cfg.CompilerOptions.ModuleResolution)
	}
	if cfg.CompilerOptions.DeclarationDir != "out//types" {
		t.Errorf("DeclarationDir = %q, string contents must survive comment stripping", cfg.CompilerOptions.DeclarationDir)
	}
	if !reflect.DeepEqual(cfg.UnknownOptions, []string{"emitDecoratorMetadata"}) {
		t.Errorf("UnknownOptions = %v", cfg.UnknownOptions)
	}
	if !strings.HasSuffix(cfg.CompilerOptions.ConfigFilePath, "/tsconfig.json") {
		t.Errorf("ConfigFilePath = %q", cfg.CompilerOptions.ConfigFilePath)
	}
}

func TestParseProjectConfig_Invalid(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"bad enum", "compilerOptions:\n  module: cjs\n"},
		{"bad cache mode", "cache:\n  mode: redis\n"},
		{"badger without dir", "cache:\n  mode: badger\n"},
		{"negative workers", "workers: -1\n"},
		{"bool expected", "compilerOptions:\n  strict: [1]\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseProjectConfig("/p", "/p/tsfront.yaml", []byte(tt.data))
			if !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("error = %v, want ErrInvalidConfig", err)
			}
		})
	}
}

func TestStripJSONComments(t *testing.T) {
	in := "{\"a\": \"x//y\", // c\n\"b\": [1,2,],}"
	out := StripJSONComments(in)
	if len(out) != len(in) {
		t.Fatalf("length changed: %d -> %d", len(in), len(out))
	}
	want := "{\"a\": \"x//y\",     \n\"b\": [1,2 ] }"
	if out != want {
		t.Errorf("StripJSONComments() = %q, want %q", out, want)
	}
}

func TestRootFiles(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "src", "a.ts"), "")
	writeFile(t, filepath.Join(dir, "src", "b.tsx"), "")
	writeFile(t, filepath.Join(dir, "src", "notes.md"), "")
	writeFile(t, filepath.Join(dir, "node_modules", "dep", "index.d.ts"), "")
	writeFile(t, filepath.Join(dir, "lib", "c.mts"), "")

	cfg := DefaultProjectConfig(dir)
	cfg.Files = []string{"lib/c.mts"}
	files, err := cfg.RootFiles()
	if err != nil {
		t.Fatalf("RootFiles() error = %v", err)
	}
	if len(files) != 3 {
		t.Fatalf("RootFiles() = %v, want 3 files", files)
	}
	for _, f := range files {
		if strings.Contains(f, "node_modules") {
			t.Errorf("node_modules must be excluded: %s", f)
		}
	}
}
