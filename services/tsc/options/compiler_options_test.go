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
	"testing"
)

func TestGetModuleResolutionKind_Defaults(t *testing.T) {
	tests := []struct {
		name   string
		module ModuleKind
		target ScriptTarget
		want   ModuleResolutionKind
	}{
		{"unset, ES5 target", ModuleKindNone, ScriptTargetNone, ModuleResolutionKindNode10},
		{"unset, ES2015 target", ModuleKindNone, ScriptTargetES2015, ModuleResolutionKindClassic},
		{"commonjs", ModuleKindCommonJS, ScriptTargetNone, ModuleResolutionKindNode10},
		{"node16", ModuleKindNode16, ScriptTargetNone, ModuleResolutionKindNode16},
		{"nodenext", ModuleKindNodeNext, ScriptTargetNone, ModuleResolutionKindNodeNext},
		{"preserve", ModuleKindPreserve, ScriptTargetNone, ModuleResolutionKindBundler},
		{"esnext", ModuleKindESNext, ScriptTargetNone, ModuleResolutionKindClassic},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := &CompilerOptions{Module: tt.module, Target: tt.target}
			if got := opts.GetModuleResolutionKind(); got != tt.want {
				t.Errorf("GetModuleResolutionKind() = %v, want %v", got, tt.want)
			}
		})
	}

	explicit := &CompilerOptions{Module: ModuleKindNodeNext, ModuleResolution: ModuleResolutionKindBundler}
	if got := explicit.GetModuleResolutionKind(); got != ModuleResolutionKindBundler {
		t.Errorf("explicit moduleResolution = %v, want bundler", got)
	}
}

func TestGetEmitScriptTarget(t *testing.T) {
	if got := (&CompilerOptions{Target: ScriptTargetES3}).GetEmitScriptTarget(); got != ScriptTargetES5 {
		t.Errorf("ES3 target = %v, want es5", got)
	}
	if got := (&CompilerOptions{Module: ModuleKindNode16}).GetEmitScriptTarget(); got != ScriptTargetES2022 {
		t.Errorf("node16 target = %v, want es2022", got)
	}
	if got := (&CompilerOptions{Module: ModuleKindNodeNext}).GetEmitScriptTarget(); got != ScriptTargetESNext {
		t.Errorf("nodenext target = %v, want esnext", got)
	}
	if got := (&CompilerOptions{Target: ScriptTargetES2020}).GetEmitModuleKind(); got != ModuleKindES2015 {
		t.Errorf("module for es2020 = %v, want es2015", got)
	}
}

func TestGetEmitModuleDetectionKind(t *testing.T) {
	if got := (&CompilerOptions{Module: ModuleKindNode16}).GetEmitModuleDetectionKind(); got != ModuleDetectionKindForce {
		t.Errorf("node16 detection = %v, want force", got)
	}
	if got := (&CompilerOptions{}).GetEmitModuleDetectionKind(); got != ModuleDetectionKindAuto {
		t.Errorf("default detection = %v, want auto", got)
	}
}

func TestGetStrictOptionValue(t *testing.T) {
	strict := &CompilerOptions{Strict: TSTrue, StrictNullChecks: TSFalse}
	if strict.GetStrictOptionValue(strict.StrictNullChecks) {
		t.Error("explicit false must override strict")
	}
	if !strict.GetStrictOptionValue(strict.NoImplicitAny) {
		t.Error("unset flag must follow strict")
	}
	if !strict.GetAlwaysStrict() {
		t.Error("alwaysStrict must follow strict")
	}
	if (&CompilerOptions{}).GetAlwaysStrict() {
		t.Error("alwaysStrict defaults to false")
	}
}

func TestGetResolvePackageJSONExports(t *testing.T) {
	if (&CompilerOptions{ModuleResolution: ModuleResolutionKindNode10, ResolvePackageJSONExports: TSTrue}).GetResolvePackageJSONExports() {
		t.Error("node10 never resolves exports")
	}
	if !(&CompilerOptions{ModuleResolution: ModuleResolutionKindBundler}).GetResolvePackageJSONExports() {
		t.Error("bundler resolves exports by default")
	}
	if (&CompilerOptions{ModuleResolution: ModuleResolutionKindNode16, ResolvePackageJSONExports: TSFalse}).GetResolvePackageJSONExports() {
		t.Error("explicit false must win")
	}
}

func TestParseEnums(t *testing.T) {
	if k, err := ParseModuleKind("NodeNext"); err != nil || k != ModuleKindNodeNext {
		t.Errorf("ParseModuleKind(NodeNext) = %v, %v", k, err)
	}
	if k, err := ParseModuleResolutionKind("node"); err != nil || k != ModuleResolutionKindNode10 {
		t.Errorf("ParseModuleResolutionKind(node) = %v, %v", k, err)
	}
	if tg, err := ParseScriptTarget("ES6"); err != nil || tg != ScriptTargetES2015 {
		t.Errorf("ParseScriptTarget(ES6) = %v, %v", tg, err)
	}
	if _, err := ParseModuleKind("cjs"); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("ParseModuleKind(cjs) error = %v, want ErrInvalidConfig", err)
	}
}

func TestTristate(t *testing.T) {
	if !TSUnknown.DefaultIfUnknown(true) || TSFalse.DefaultIfUnknown(true) {
		t.Error("DefaultIfUnknown")
	}
	if !TSUnknown.IsTrueOrUnknown() || TSFalse.IsTrueOrUnknown() {
		t.Error("IsTrueOrUnknown")
	}
	if TristateOf(true) != TSTrue || TristateOf(false) != TSFalse {
		t.Error("TristateOf")
	}
}
