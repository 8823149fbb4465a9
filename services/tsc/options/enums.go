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
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// ScriptTarget is the ECMAScript version emitted code targets. The zero
// value means "not set".
type ScriptTarget int

const (
	ScriptTargetNone ScriptTarget = iota
	ScriptTargetES3
	ScriptTargetES5
	ScriptTargetES2015
	ScriptTargetES2016
	ScriptTargetES2017
	ScriptTargetES2018
	ScriptTargetES2019
	ScriptTargetES2020
	ScriptTargetES2021
	ScriptTargetES2022
	ScriptTargetES2023
	ScriptTargetES2024
	ScriptTargetESNext
	ScriptTargetJSON

	ScriptTargetLatest = ScriptTargetESNext
)

var scriptTargetNames = []enumName[ScriptTarget]{
	{"es3", ScriptTargetES3},
	{"es5", ScriptTargetES5},
	{"es2015", ScriptTargetES2015},
	{"es6", ScriptTargetES2015},
	{"es2016", ScriptTargetES2016},
	{"es2017", ScriptTargetES2017},
	{"es2018", ScriptTargetES2018},
	{"es2019", ScriptTargetES2019},
	{"es2020", ScriptTargetES2020},
	{"es2021", ScriptTargetES2021},
	{"es2022", ScriptTargetES2022},
	{"es2023", ScriptTargetES2023},
	{"es2024", ScriptTargetES2024},
	{"esnext", ScriptTargetESNext},
	{"json", ScriptTargetJSON},
}

// ModuleKind is the module system of emitted code. The zero value means
// "not set".
type ModuleKind int

const (
	ModuleKindNone ModuleKind = iota
	ModuleKindCommonJS
	ModuleKindAMD
	ModuleKindUMD
	ModuleKindSystem
	ModuleKindES2015
	ModuleKindES2020
	ModuleKindES2022
	ModuleKindESNext
	ModuleKindNode16
	ModuleKindNode18
	ModuleKindNodeNext
	ModuleKindPreserve
)

var moduleKindNames = []enumName[ModuleKind]{
	{"commonjs", ModuleKindCommonJS},
	{"amd", ModuleKindAMD},
	{"umd", ModuleKindUMD},
	{"system", ModuleKindSystem},
	{"es2015", ModuleKindES2015},
	{"es6", ModuleKindES2015},
	{"es2020", ModuleKindES2020},
	{"es2022", ModuleKindES2022},
	{"esnext", ModuleKindESNext},
	{"node16", ModuleKindNode16},
	{"node18", ModuleKindNode18},
	{"nodenext", ModuleKindNodeNext},
	{"preserve", ModuleKindPreserve},
}

// ModuleResolutionKind selects the module resolution strategy. The zero
// value means "not set".
type ModuleResolutionKind int

const (
	ModuleResolutionKindUnknown ModuleResolutionKind = iota
	ModuleResolutionKindClassic
	ModuleResolutionKindNode10
	ModuleResolutionKindNode16
	ModuleResolutionKindNodeNext
	ModuleResolutionKindBundler
)

var moduleResolutionKindNames = []enumName[ModuleResolutionKind]{
	{"classic", ModuleResolutionKindClassic},
	{"node10", ModuleResolutionKindNode10},
	{"node", ModuleResolutionKindNode10},
	{"node16", ModuleResolutionKindNode16},
	{"nodenext", ModuleResolutionKindNodeNext},
	{"bundler", ModuleResolutionKindBundler},
}

// ModuleDetectionKind decides which files are treated as modules.
type ModuleDetectionKind int

const (
	ModuleDetectionKindNone ModuleDetectionKind = iota
	// ModuleDetectionKindLegacy: files with imports, exports or import.meta.
	ModuleDetectionKindLegacy
	// ModuleDetectionKindAuto: legacy rules plus format and JSX checks.
	ModuleDetectionKindAuto
	// ModuleDetectionKindForce: every non-declaration file.
	ModuleDetectionKindForce
)

var moduleDetectionKindNames = []enumName[ModuleDetectionKind]{
	{"legacy", ModuleDetectionKindLegacy},
	{"auto", ModuleDetectionKindAuto},
	{"force", ModuleDetectionKindForce},
}

// JsxEmit is the JSX emit mode.
type JsxEmit int

const (
	JsxEmitNone JsxEmit = iota
	JsxEmitPreserve
	JsxEmitReact
	JsxEmitReactNative
	JsxEmitReactJSX
	JsxEmitReactJSXDev
)

var jsxEmitNames = []enumName[JsxEmit]{
	{"preserve", JsxEmitPreserve},
	{"react", JsxEmitReact},
	{"react-native", JsxEmitReactNative},
	{"react-jsx", JsxEmitReactJSX},
	{"react-jsxdev", JsxEmitReactJSXDev},
}

// NewLineKind is the line terminator used by emit.
type NewLineKind int

const (
	NewLineKindNone NewLineKind = iota
	NewLineKindCRLF
	NewLineKindLF
)

var newLineKindNames = []enumName[NewLineKind]{
	{"crlf", NewLineKindCRLF},
	{"lf", NewLineKindLF},
}

// ResolutionMode is the module format a file is resolved and emitted as.
// ResolutionModeNone is "no implied format".
type ResolutionMode int

const (
	ResolutionModeNone ResolutionMode = iota
	ResolutionModeCommonJS
	ResolutionModeESM
)

func (m ResolutionMode) String() string {
	switch m {
	case ResolutionModeCommonJS:
		return "CommonJS"
	case ResolutionModeESM:
		return "ESNext"
	default:
		return "undefined"
	}
}

type enumName[T ~int] struct {
	name  string
	value T
}

func parseEnum[T ~int](option string, names []enumName[T], s string) (T, error) {
	key := strings.ToLower(strings.TrimSpace(s))
	for _, n := range names {
		if n.name == key {
			return n.value, nil
		}
	}
	var zero T
	return zero, fmt.Errorf("%w: %s: unknown value %q", ErrInvalidConfig, option, s)
}

func formatEnum[T ~int](names []enumName[T], v T) string {
	for _, n := range names {
		if n.value == v {
			return n.name
		}
	}
	if v == 0 {
		return "none"
	}
	return fmt.Sprintf("unknown(%d)", int(v))
}

func decodeEnum[T ~int](option string, names []enumName[T], value *yaml.Node, out *T) error {
	if value.Kind != yaml.ScalarNode {
		return fmt.Errorf("%w: %s: expected a string (line %d)", ErrInvalidConfig, option, value.Line)
	}
	v, err := parseEnum(option, names, value.Value)
	if err != nil {
		return err
	}
	*out = v
	return nil
}

// ParseScriptTarget parses a target name case-insensitively.
func ParseScriptTarget(s string) (ScriptTarget, error) { return parseEnum("target", scriptTargetNames, s) }

// ParseModuleKind parses a module kind name case-insensitively.
func ParseModuleKind(s string) (ModuleKind, error) { return parseEnum("module", moduleKindNames, s) }

// ParseModuleResolutionKind parses a module resolution name case-insensitively.
func ParseModuleResolutionKind(s string) (ModuleResolutionKind, error) {
	return parseEnum("moduleResolution", moduleResolutionKindNames, s)
}

// ParseModuleDetectionKind parses a module detection name case-insensitively.
func ParseModuleDetectionKind(s string) (ModuleDetectionKind, error) {
	return parseEnum("moduleDetection", moduleDetectionKindNames, s)
}

func (t ScriptTarget) String() string         { return formatEnum(scriptTargetNames, t) }
func (k ModuleKind) String() string           { return formatEnum(moduleKindNames, k) }
func (k ModuleResolutionKind) String() string { return formatEnum(moduleResolutionKindNames, k) }
func (k ModuleDetectionKind) String() string  { return formatEnum(moduleDetectionKindNames, k) }
func (j JsxEmit) String() string              { return formatEnum(jsxEmitNames, j) }
func (k NewLineKind) String() string          { return formatEnum(newLineKindNames, k) }

func (t *ScriptTarget) UnmarshalYAML(value *yaml.Node) error {
	return decodeEnum("target", scriptTargetNames, value, t)
}

func (k *ModuleKind) UnmarshalYAML(value *yaml.Node) error {
	return decodeEnum("module", moduleKindNames, value, k)
}

func (k *ModuleResolutionKind) UnmarshalYAML(value *yaml.Node) error {
	return decodeEnum("moduleResolution", moduleResolutionKindNames, value, k)
}

func (k *ModuleDetectionKind) UnmarshalYAML(value *yaml.Node) error {
	return decodeEnum("moduleDetection", moduleDetectionKindNames, value, k)
}

func (j *JsxEmit) UnmarshalYAML(value *yaml.Node) error {
	return decodeEnum("jsx", jsxEmitNames, value, j)
}

func (k *NewLineKind) UnmarshalYAML(value *yaml.Node) error {
	return decodeEnum("newLine", newLineKindNames, value, k)
}
