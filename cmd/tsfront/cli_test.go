// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/AleutianAI/tsfront/services/tsc/diagnostics"
)

// writeProject creates files under a temporary directory and returns it.
func writeProject(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		path := filepath.Join(dir, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatalf("mkdir: %v", err)
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
	return dir
}

// runCLI runs one command line and returns its combined output.
func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	err := newCLI(&out, &out).run(context.Background(), args...)
	return out.String(), err
}

func TestRenderer_Format(t *testing.T) {
	const text = "let a;\nlet b;\n"
	tests := []struct {
		name string
		diag *diagnostics.Diagnostic
		want string
	}{
		{
			name: "positioned error",
			diag: diagnostics.New("/proj/src/a.ts", 11, 1, diagnostics.CannotFindModule, "./x"),
			want: "src/a.ts(2,5): error TS2307: Cannot find module './x' or its corresponding type declarations.",
		},
		{
			name: "file outside the project keeps its full name",
			diag: diagnostics.New("/elsewhere/b.ts", 0, 0, diagnostics.FileNotFound, "/elsewhere/b.ts"),
			want: "/elsewhere/b.ts: error TS6053: File '/elsewhere/b.ts' not found.",
		},
		{
			name: "global diagnostic",
			diag: diagnostics.New("", 0, 0, diagnostics.FileNotFound, "gone.ts"),
			want: "error TS6053: File 'gone.ts' not found.",
		},
	}

	var buf bytes.Buffer
	r := newRenderer(&buf, "/proj")
	r.addSource("/proj/src/a.ts", text)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := r.format(tt.diag); got != tt.want {
				t.Errorf("format = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRenderer_RenderCountsAndSummary(t *testing.T) {
	var buf bytes.Buffer
	r := newRenderer(&buf, "")
	counts := r.render([]*diagnostics.Diagnostic{
		diagnostics.New("/a.ts", 0, 0, diagnostics.CannotFindModule, "x"),
		diagnostics.New("/b.ts", 0, 0, diagnostics.CannotFindModule, "y"),
		diagnostics.NewWithCategory("/b.ts", 0, 0, diagnostics.CategoryWarning, diagnostics.UnknownCompilerOption, "z"),
	})
	if counts["error"] != 2 || counts["warning"] != 1 {
		t.Errorf("counts = %v, want 2 errors and 1 warning", counts)
	}
	if !strings.Contains(buf.String(), "Found 2 errors in 2 files.") {
		t.Errorf("missing summary in:\n%s", buf.String())
	}
}

func TestSummary(t *testing.T) {
	tests := []struct {
		errs, files int
		want        string
	}{
		{1, 1, "Found 1 error."},
		{3, 1, "Found 3 errors."},
		{3, 2, "Found 3 errors in 2 files."},
	}
	for _, tt := range tests {
		if got := summary(tt.errs, tt.files); got != tt.want {
			t.Errorf("summary(%d, %d) = %q, want %q", tt.errs, tt.files, got, tt.want)
		}
	}
}

func TestCheck_CleanProject(t *testing.T) {
	dir := writeProject(t, map[string]string{
		"src/main.ts": "import { value } from \"./lib\";\nexport const doubled = value * 2;\n",
		"src/lib.ts":  "export const value = 21;\n",
	})

	out, err := runCLI(t, "check", "-p", dir)
	if err != nil {
		t.Fatalf("check: %v\n%s", err, out)
	}
	if strings.Contains(out, "error TS") {
		t.Errorf("unexpected diagnostics:\n%s", out)
	}
}

func TestCheck_ReportsErrors(t *testing.T) {
	dir := writeProject(t, map[string]string{
		"main.ts": "import { missing } from \"./nowhere\";\n",
	})

	out, err := runCLI(t, "check", "-p", dir)
	if !errors.Is(err, errDiagnostics) {
		t.Fatalf("err = %v, want errDiagnostics", err)
	}
	for _, want := range []string{"main.ts(1,", "error TS2307", "./nowhere", "Found 1 error."} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestCheck_DuplicateDeclarationsAcrossScripts(t *testing.T) {
	dir := writeProject(t, map[string]string{
		"a.ts": "let shared = 1;\n",
		"b.ts": "let shared = 2;\n",
	})

	out, err := runCLI(t, "check", "-p", dir)
	if !errors.Is(err, errDiagnostics) {
		t.Fatalf("err = %v, want errDiagnostics\n%s", err, out)
	}
	if got := strings.Count(out, "error TS2451"); got != 2 {
		t.Errorf("TS2451 count = %d, want 2:\n%s", got, out)
	}
	if !strings.Contains(out, "Found 2 errors in 2 files.") {
		t.Errorf("missing summary:\n%s", out)
	}
}

func TestCheck_ExplicitFilesAndNoFollow(t *testing.T) {
	dir := writeProject(t, map[string]string{
		"main.ts":   "import { value } from \"./lib\";\n",
		"lib.ts":    "export const value = 1;\n",
		"broken.ts": "let x = 1;\nlet x = 2;\n",
	})

	out, err := runCLI(t, "check", "-p", dir, "--no-follow-imports", filepath.Join(dir, "main.ts"))
	if err != nil {
		t.Fatalf("check: %v\n%s", err, out)
	}
}

func TestCheck_NoInputFiles(t *testing.T) {
	dir := writeProject(t, map[string]string{"README.md": "nothing here\n"})

	_, err := runCLI(t, "check", "-p", dir)
	if err == nil || !strings.Contains(err.Error(), "no input files") {
		t.Fatalf("err = %v, want no input files", err)
	}
}

func TestCache_BadgerDumpAndClear(t *testing.T) {
	dir := writeProject(t, map[string]string{
		"package.json": `{"name": "demo", "type": "module"}`,
		"tsfront.yaml": "compilerOptions:\n  moduleResolution: nodenext\n",
		"src/main.ts":  "export const a = 1;\n",
	})
	cacheDir := filepath.Join(dir, "cache")

	if out, err := runCLI(t, "check", "-p", dir, "--cache", "badger", "--cache-dir", cacheDir); err != nil {
		t.Fatalf("check: %v\n%s", err, out)
	}

	out, err := runCLI(t, "cache", "dump", "-p", dir, "--cache-dir", cacheDir)
	if err != nil {
		t.Fatalf("dump: %v", err)
	}
	for _, want := range []string{"package.json", "found", "module", "demo"} {
		if !strings.Contains(out, want) {
			t.Errorf("dump missing %q:\n%s", want, out)
		}
	}

	out, err = runCLI(t, "cache", "clear", "-p", dir, "--cache-dir", cacheDir)
	if err != nil {
		t.Fatalf("clear: %v", err)
	}
	if !strings.HasPrefix(out, "Removed ") || strings.HasPrefix(out, "Removed 0 ") {
		t.Errorf("clear output = %q, want a non-zero removal", out)
	}

	out, err = runCLI(t, "cache", "dump", "-p", dir, "--cache-dir", cacheDir)
	if err != nil {
		t.Fatalf("dump after clear: %v", err)
	}
	if !strings.Contains(out, "No cached package.json entries.") {
		t.Errorf("dump after clear:\n%s", out)
	}
}

func TestCache_DumpWithoutCache(t *testing.T) {
	dir := t.TempDir()
	out, err := runCLI(t, "cache", "dump", "-p", dir)
	if err != nil {
		t.Fatalf("dump: %v", err)
	}
	if !strings.Contains(out, "No cache at") {
		t.Errorf("output = %q", out)
	}
}

func TestScope(t *testing.T) {
	dir := writeProject(t, map[string]string{
		"package.json":     `{"name": "demo", "type": "module"}`,
		"tsfront.yaml":     "compilerOptions:\n  moduleResolution: nodenext\n",
		"src/a.ts":         "export {};\n",
		"src/legacy/b.cts": "export {};\n",
	})

	out, err := runCLI(t, "scope", "-p", dir,
		filepath.Join(dir, "src", "a.ts"),
		filepath.Join(dir, "src", "legacy", "b.cts"))
	if err != nil {
		t.Fatalf("scope: %v", err)
	}
	for _, want := range []string{"name:         demo", "type:         module", "format:       ESNext", "format:       CommonJS"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestScope_WithoutPackageJSON(t *testing.T) {
	dir := writeProject(t, map[string]string{"a.ts": "let x = 1;\n"})

	out, err := runCLI(t, "scope", "-p", dir, filepath.Join(dir, "a.ts"))
	if err != nil {
		t.Fatalf("scope: %v", err)
	}
	if !strings.Contains(out, "format:       none") {
		t.Errorf("output:\n%s", out)
	}
}

func TestSymbols(t *testing.T) {
	dir := writeProject(t, map[string]string{
		"shapes.ts": "export class Circle {\n  area() { return 1; }\n}\nnamespace Internal { export const k = 1; }\n",
	})

	out, err := runCLI(t, "symbols", filepath.Join(dir, "shapes.ts"))
	if err != nil {
		t.Fatalf("symbols: %v\n%s", err, out)
	}
	for _, want := range []string{"(module,", "exports:", "Circle  Class", "area  Method", "Internal  ValueModule"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestSymbols_RequiresOneFile(t *testing.T) {
	if _, err := runCLI(t, "symbols"); err == nil {
		t.Fatal("expected an argument error")
	}
}
