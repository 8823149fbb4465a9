// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package tspath

import "testing"

func TestFileExtensionIs(t *testing.T) {
	if FileExtensionIs(".ts", ".ts") {
		t.Error("extension alone is not a file with that extension")
	}
	if !FileExtensionIs("a.d.ts", ExtensionTs) || !FileExtensionIs("a.d.ts", ExtensionDts) {
		t.Error("a.d.ts should match both .ts and .d.ts")
	}
	if !FileExtensionIsOneOf("x.mjs", ExtensionMts, ExtensionMjs) {
		t.Error("x.mjs should match one of .mts/.mjs")
	}
}

func TestTryGetExtensionFromPath(t *testing.T) {
	tests := map[string]string{
		"a.d.ts":        ExtensionDts,
		"a.d.mts":       ExtensionDmts,
		"a.ts":          ExtensionTs,
		"a.tsx":         ExtensionTsx,
		"a.cjs":         ExtensionCjs,
		"a.json":        ExtensionJSON,
		"x.tsbuildinfo": ExtensionTsBuildInfo,
		"a.txt":         "",
		"pkg/index":     "",
	}
	for in, want := range tests {
		if got := TryGetExtensionFromPath(in); got != want {
			t.Errorf("TryGetExtensionFromPath(%q) = %q, want %q", in, got, want)
		}
	}
	if got := RemoveFileExtension("/a/b.d.cts"); got != "/a/b" {
		t.Errorf("RemoveFileExtension = %q, want /a/b", got)
	}
}

func TestNodeModules(t *testing.T) {
	if !ContainsNodeModules("/p/node_modules/x/index.d.ts") {
		t.Error("expected node_modules segment")
	}
	if ContainsNodeModules("/p/my_node_modules/x") {
		t.Error("partial segment must not match")
	}
	if !IsNodeModulesDirectory("/p/node_modules/") || IsNodeModulesDirectory("/p/node_modules/x") {
		t.Error("IsNodeModulesDirectory classification is wrong")
	}
}
